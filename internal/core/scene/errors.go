package scene

import (
	"errors"
	"strings"
)

// Structural errors, raised before the engine is ever touched.
var (
	ErrStructuralCycle  = errors.New("composition would create a cycle")
	ErrDuplicatePath    = errors.New("qualified path already exists")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrBadAttrWidth     = errors.New("attribute value has the wrong width")
	ErrUnknownSlot      = errors.New("unknown composition slot")
	ErrUnknownKind      = errors.New("unknown element kind")
	ErrEmptyTemplate    = errors.New("template has no nodes")
)

// Error is a structural error annotated with the qualified path (or
// paths, for batched operations) of the offending element. Callers
// identify failures by path, never by raw index.
type Error struct {
	Op    string
	Paths []string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if len(e.Paths) > 0 {
		sb.WriteString(" [")
		sb.WriteString(strings.Join(e.Paths, ", "))
		sb.WriteString("]")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Path returns the first offending path, or "" when none is recorded.
func (e *Error) Path() string {
	if len(e.Paths) == 0 {
		return ""
	}
	return e.Paths[0]
}

// PathError wraps err with the operation and a single offending path.
func PathError(op, path string, err error) *Error {
	return &Error{Op: op, Paths: []string{path}, Err: err}
}
