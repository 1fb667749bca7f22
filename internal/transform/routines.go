package transform

import (
	"fmt"

	"github.com/weft-dev/weft/internal/plugin"
)

// Passthrough returns the module bytes unchanged.
func Passthrough() plugin.Routine {
	return plugin.RoutineFunc(func(_ string, module []byte) ([]byte, error) {
		return module, nil
	})
}

// AppendCustomSection returns a routine that appends a custom section
// named sectionName carrying payload to the end of the module. The
// identifier is stamped into the payload after a NUL separator so the
// section records which artifact it was attached to.
func AppendCustomSection(sectionName string, payload []byte) plugin.Routine {
	return plugin.RoutineFunc(func(identifier string, module []byte) ([]byte, error) {
		if err := checkPreamble(module); err != nil {
			return nil, fmt.Errorf("append custom section %q: %w", sectionName, err)
		}

		data := append(append([]byte{}, payload...), 0x00)
		data = append(data, identifier...)
		sec := encodeCustomSection(sectionName, data)

		out := append(append([]byte{}, module...), sec.id)
		out = appendUleb128(out, uint64(len(sec.payload)))
		out = append(out, sec.payload...)
		return out, nil
	})
}

// StripCustomSections returns a routine that removes custom sections
// from the module. With no names given every custom section is dropped;
// otherwise only sections with a matching name are.
func StripCustomSections(names ...string) plugin.Routine {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	return plugin.RoutineFunc(func(_ string, module []byte) ([]byte, error) {
		sections, err := decodeSections(module)
		if err != nil {
			return nil, fmt.Errorf("strip custom sections: %w", err)
		}

		kept := sections[:0]
		for _, s := range sections {
			if s.id == customSectionID {
				name, _ := s.name()
				if len(drop) == 0 || drop[name] {
					continue
				}
			}
			kept = append(kept, s)
		}
		return encodeModule(kept), nil
	})
}
