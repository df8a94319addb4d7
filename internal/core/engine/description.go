package engine

import "errors"

// Core boundary errors
var (
	// Compile errors

	ErrEmptyDescription = errors.New("structural description is empty")
	ErrDuplicateName    = errors.New("duplicate name in structural description")
	ErrUnknownParent    = errors.New("entry references an unknown parent")
	ErrBadReference     = errors.New("entry references an unknown target")
	ErrBadGeometry      = errors.New("invalid geometry parameters")
	ErrBadRange         = errors.New("invalid range, low bound exceeds high bound")
	ErrBadIntegrator    = errors.New("unsupported integrator")

	// Runtime errors

	ErrUnknownBuffer  = errors.New("unknown buffer kind")
	ErrOutOfBounds    = errors.New("buffer access out of bounds")
	ErrValueRejected  = errors.New("value rejected by kind-specific check")
	ErrStateDestroyed = errors.New("runtime state has been destroyed")
)

// Description is the flattened structural description an Engine
// compiles. Entries are ordered; compilers assign per-kind indices in
// entry order, so a deterministic producer yields deterministic
// bindings.
type Description struct {
	Name    string
	Options DescOptions
	Entries []Entry
}

// DescOptions carries the global simulation options. An empty
// Integrator means the engine's default scheme.
type DescOptions struct {
	Timestep   float64
	Gravity    bool
	Integrator string
}

// Entry is one element of the flattened scene. Name is qualified and
// unique within the description; Parent is the qualified name of the
// structural parent, empty for roots. Refs holds cross-references,
// e.g. an actuator's "joint".
type Entry struct {
	Kind   string
	Name   string
	Parent string
	Attrs  map[string][]float64
	Refs   map[string]string
}

// EntriesOfKind returns the entries of one kind in description order.
func (d *Description) EntriesOfKind(kind string) []Entry {
	var out []Entry
	for _, e := range d.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
