package scene

import (
	"github.com/google/uuid"

	"github.com/scenebind/scenebind/internal/core/engine"
)

// Element is the smallest identity-bearing unit of a scene: one body,
// geom, site, joint, actuator, sensor, camera or light. An Element is
// created unbound inside a Template, receives a fresh identity when the
// template is cloned, a qualified path when instantiated into a World,
// and a runtime handle when that World compiles.
type Element struct {
	id   uuid.UUID
	name string
	kind Kind

	path       string // qualified path, set at instantiation
	parentPath string // qualified path of the structural parent

	Tags    []string
	Attrs   map[Attr][]float64
	Options map[string]string // cross-references, e.g. "joint" for actuators

	handle *Handle
}

// Handle is the resolved runtime-offset record of a bound Element. It
// is scoped to one compile generation; a recompile clears it.
type Handle struct {
	Gen   uint64
	Index int
	Spans map[Attr]engine.Span
}

// NewElement creates an unbound element. The name is the relative name
// inside its template; the qualified path is assigned at instantiation.
func NewElement(name string, kind Kind) *Element {
	return &Element{
		id:      uuid.New(),
		name:    name,
		kind:    kind,
		Attrs:   make(map[Attr][]float64),
		Options: make(map[string]string),
	}
}

// ID returns the construction-time identity of the element. Clones get
// fresh IDs; binding never changes the ID.
func (e *Element) ID() uuid.UUID { return e.id }

// Name returns the relative name.
func (e *Element) Name() string { return e.name }

// Kind returns the element's kind tag.
func (e *Element) Kind() Kind { return e.kind }

// Path returns the fully qualified path, or "" before instantiation.
func (e *Element) Path() string { return e.path }

// SetPath assigns the qualified path. Called once, at instantiation.
func (e *Element) SetPath(path string) { e.path = path }

// ParentPath returns the qualified path of the structural parent, or
// "" for instance roots.
func (e *Element) ParentPath() string { return e.parentPath }

// SetParentPath assigns the structural parent's qualified path.
func (e *Element) SetParentPath(path string) { e.parentPath = path }

// Bound reports whether the element currently holds a runtime handle.
func (e *Element) Bound() bool { return e.handle != nil }

// Handle returns the runtime handle, or nil when unbound.
func (e *Element) Handle() *Handle { return e.handle }

// Bind installs a runtime handle. The owning world calls this once per
// successful compile, after the whole binding table resolved.
func (e *Element) Bind(h *Handle) { e.handle = h }

// Unbind clears the runtime handle. Recompile and destroy call this
// for every element before anything else becomes observable.
func (e *Element) Unbind() { e.handle = nil }

// HasTag reports whether the element carries tag.
func (e *Element) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SetAttr validates and stores a declared attribute value.
func (e *Element) SetAttr(attr Attr, value []float64) error {
	width, ok := DeclaredWidth(e.kind, attr)
	if !ok {
		return PathError("set attribute "+string(attr), e.pathOrName(), ErrUnknownAttribute)
	}
	if width > 0 && len(value) != width {
		return PathError("set attribute "+string(attr), e.pathOrName(), ErrBadAttrWidth)
	}
	e.Attrs[attr] = append([]float64(nil), value...)
	return nil
}

// Attr returns a declared attribute value, or nil when unset.
func (e *Element) Attr(attr Attr) []float64 {
	return e.Attrs[attr]
}

// clone produces an identity-distinct, unbound copy. Attribute slices
// are deep-copied so clones never alias the source.
func (e *Element) clone() *Element {
	c := NewElement(e.name, e.kind)
	c.Tags = append([]string(nil), e.Tags...)
	for k, v := range e.Attrs {
		c.Attrs[k] = append([]float64(nil), v...)
	}
	for k, v := range e.Options {
		c.Options[k] = v
	}
	return c
}

func (e *Element) pathOrName() string {
	if e.path != "" {
		return e.path
	}
	return e.name
}
