package transform

import (
	"fmt"

	"github.com/weft-dev/weft/internal/manifest"
	"github.com/weft-dev/weft/internal/plugin"
)

// Factories returns the built-in routine factory table keyed by the
// manifest "uses" identifier.
func Factories() map[string]manifest.Factory {
	return map[string]manifest.Factory{
		"passthrough": func(map[string]any) (plugin.Routine, error) {
			return Passthrough(), nil
		},
		"custom-section": func(options map[string]any) (plugin.Routine, error) {
			name, err := stringOption(options, "section", true)
			if err != nil {
				return nil, err
			}
			payload, err := stringOption(options, "payload", false)
			if err != nil {
				return nil, err
			}
			return AppendCustomSection(name, []byte(payload)), nil
		},
		"strip-custom-sections": func(options map[string]any) (plugin.Routine, error) {
			names, err := stringListOption(options, "sections")
			if err != nil {
				return nil, err
			}
			return StripCustomSections(names...), nil
		},
	}
}

func stringOption(options map[string]any, key string, required bool) (string, error) {
	v, ok := options[key]
	if !ok {
		if required {
			return "", fmt.Errorf("option %q is required", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("option %q must be a string, got %T", key, v)
	}
	return s, nil
}

func stringListOption(options map[string]any, key string) ([]string, error) {
	v, ok := options[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("option %q must be a list of strings, got %T", key, v)
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("option %q item %d must be a string, got %T", key, i, item)
		}
		out = append(out, s)
	}
	return out, nil
}
