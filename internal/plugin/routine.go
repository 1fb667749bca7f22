package plugin

// Routine rewrites the raw bytes of a named artifact before it is
// materialized. Implementations must be pure with respect to shared
// state: they may fail, but must not partially mutate anything outside
// the returned buffer, and the returned bytes must remain a loadable
// artifact of the same kind.
type Routine interface {
	Transform(identifier string, module []byte) ([]byte, error)
}

// RoutineFunc adapts a function to the Routine interface.
type RoutineFunc func(identifier string, module []byte) ([]byte, error)

// Transform calls f.
func (f RoutineFunc) Transform(identifier string, module []byte) ([]byte, error) {
	return f(identifier, module)
}
