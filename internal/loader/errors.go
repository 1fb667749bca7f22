package loader

import "fmt"

// TransformError indicates a routine failed while transforming an
// artifact. Partial output is discarded: never cached, never materialized.
type TransformError struct {
	Identifier string
	Routine    string
	Cause      error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transformation of %s failed in routine %s: %v", e.Identifier, e.Routine, e.Cause)
}

func (e *TransformError) Unwrap() error {
	return e.Cause
}

// MaterializeError indicates the final bytes are not a structurally
// valid unit. Fatal for the resolution that produced it.
type MaterializeError struct {
	Identifier string
	Cause      error
}

func (e *MaterializeError) Error() string {
	return fmt.Sprintf("failed to materialize %s: %v", e.Identifier, e.Cause)
}

func (e *MaterializeError) Unwrap() error {
	return e.Cause
}
