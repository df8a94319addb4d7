// Package view implements the vectorized multi-element accessor layer.
// A View is an ordered, non-owning selection of elements from one
// world; attribute reads stack per-element values in view order and
// writes fan out to each member's resolved buffer offsets.
package view

import (
	"errors"
	"sort"

	"github.com/scenebind/scenebind/internal/core/scene"
	"github.com/scenebind/scenebind/internal/core/world"
	"github.com/scenebind/scenebind/pkg/sequence"
)

// View access errors
var (
	ErrUnbound        = errors.New("element has no runtime binding")
	ErrLengthMismatch = errors.New("value count does not match view length")
	ErrNoSuchAttr     = errors.New("attribute is not bindable for element")
	ErrEmptyView      = errors.New("view is empty")
)

// View is an immutable ordered selection. Sub-indexing returns new
// Views; a View never mutates its members and never extends their
// lifetime past a recompile; access after one fails with
// world.ErrStaleBinding.
type View struct {
	world   *world.World
	gen     uint64
	members []*scene.Element
}

// Over builds a View from an explicit element sequence, preserving the
// given order. Duplicates are dropped, keeping the first occurrence.
func Over(w *world.World, elements ...*scene.Element) *View {
	seen := make(map[*scene.Element]struct{}, len(elements))
	members := make([]*scene.Element, 0, len(elements))
	for _, el := range elements {
		if _, dup := seen[el]; dup {
			continue
		}
		seen[el] = struct{}{}
		members = append(members, el)
	}
	return &View{world: w, gen: w.Generation(), members: members}
}

// OfKind selects every element of one kind, in registration order.
func OfKind(w *world.World, kind scene.Kind) *View {
	return Where(w, func(el *scene.Element) bool { return el.Kind() == kind })
}

// Tagged selects every element carrying tag, in registration order.
func Tagged(w *world.World, tag string) *View {
	return Where(w, func(el *scene.Element) bool { return el.HasTag(tag) })
}

// Where selects every element matching pred, in registration order.
func Where(w *world.World, pred func(*scene.Element) bool) *View {
	var members []*scene.Element
	for _, el := range w.Elements() {
		if pred(el) {
			members = append(members, el)
		}
	}
	return &View{world: w, gen: w.Generation(), members: members}
}

// Len returns the number of members.
func (v *View) Len() int { return len(v.members) }

// At returns the i-th member element.
func (v *View) At(i int) *scene.Element { return v.members[i] }

// Paths returns the members' qualified paths in view order.
func (v *View) Paths() []string {
	paths := make([]string, len(v.members))
	for i, el := range v.members {
		paths[i] = el.Path()
	}
	return paths
}

// Elements returns the members in view order.
func (v *View) Elements() []*scene.Element {
	return append([]*scene.Element(nil), v.members...)
}

// derive produces a sub-view sharing the world and generation.
func (v *View) derive(members []*scene.Element) *View {
	return &View{world: v.world, gen: v.gen, members: members}
}

// Index returns a single-member View over member i.
func (v *View) Index(i int) *View {
	return v.derive([]*scene.Element{v.members[i]})
}

// Slice returns a new View over members [lo, hi).
func (v *View) Slice(lo, hi int) *View {
	return v.derive(append([]*scene.Element(nil), v.members[lo:hi]...))
}

// Pick returns a new View over the members at the given indices, in
// the given order.
func (v *View) Pick(indices ...int) *View {
	members := make([]*scene.Element, len(indices))
	for i, idx := range indices {
		members[i] = v.members[idx]
	}
	return v.derive(members)
}

// Mask returns a new View over the members whose mask entry is true.
func (v *View) Mask(keep []bool) (*View, error) {
	if len(keep) != len(v.members) {
		return nil, &scene.Error{Op: "mask", Err: ErrLengthMismatch}
	}
	var members []*scene.Element
	for i, k := range keep {
		if k {
			members = append(members, v.members[i])
		}
	}
	return v.derive(members), nil
}

// Filter returns a new View over the members matching pred.
func (v *View) Filter(pred func(*scene.Element) bool) *View {
	var members []*scene.Element
	for _, el := range v.members {
		if pred(el) {
			members = append(members, el)
		}
	}
	return v.derive(members)
}

// Reverse returns a new View with member order reversed.
func (v *View) Reverse() *View {
	members := make([]*scene.Element, len(v.members))
	for i, el := range v.members {
		members[len(members)-1-i] = el
	}
	return v.derive(members)
}

// SortByPath returns a new View with members in path order.
func (v *View) SortByPath() *View {
	members := append([]*scene.Element(nil), v.members...)
	sort.Slice(members, func(i, j int) bool { return members[i].Path() < members[j].Path() })
	return v.derive(members)
}

// validate runs the pre-access checks shared by every read and write:
// liveness of the backing generation first, then member bindings.
// Errors are raised before any buffer traffic.
func (v *View) validate(op string, attr scene.Attr) ([]scene.Handle, error) {
	if err := v.world.CheckGeneration(v.gen); err != nil {
		return nil, &scene.Error{Op: op, Paths: v.Paths(), Err: err}
	}
	handles := make([]scene.Handle, len(v.members))
	for i, el := range v.members {
		h := el.Handle()
		if h == nil {
			return nil, scene.PathError(op, el.Path(), ErrUnbound)
		}
		if _, ok := h.Spans[attr]; !ok {
			return nil, scene.PathError(op, el.Path(), ErrNoSuchAttr)
		}
		handles[i] = *h
	}
	return handles, nil
}

// Get returns a lazy, restartable sequence of per-element values in
// view order. Each traversal reads the live buffers; it is not a
// snapshot. Validity is checked here, before the first read, and again
// on every traversal: a recompile between traversals makes the next
// traversal yield a terminal stale-binding error rather than read
// garbage offsets or pass for an empty view.
func (v *View) Get(attr scene.Attr) (*sequence.Fallible[[]float64], error) {
	op := "get " + string(attr)
	handles, err := v.validate(op, attr)
	if err != nil {
		return nil, err
	}
	w, gen, paths := v.world, v.gen, v.Paths()
	return sequence.FromFallible(func(yield func([]float64, error) bool) {
		if err := w.CheckGeneration(gen); err != nil {
			yield(nil, &scene.Error{Op: op, Paths: paths, Err: err})
			return
		}
		state := w.State()
		for i, h := range handles {
			span := h.Spans[attr]
			vals, err := state.Read(span.Buffer, span.Offset, span.Len)
			if err != nil {
				yield(nil, scene.PathError(op, paths[i], err))
				return
			}
			if !yield(vals, nil) {
				return
			}
		}
	}), nil
}

// Stack materializes Get into one flat aggregate in view order.
func (v *View) Stack(attr scene.Attr) ([]float64, error) {
	it, err := v.Get(attr)
	if err != nil {
		return nil, err
	}
	values, err := it.Collect()
	if err != nil {
		return nil, err
	}
	var out []float64
	for _, vals := range values {
		out = append(out, vals...)
	}
	return out, nil
}

// Values materializes Get into per-element slices in view order.
func (v *View) Values(attr scene.Attr) ([][]float64, error) {
	it, err := v.Get(attr)
	if err != nil {
		return nil, err
	}
	return it.Collect()
}

// Set writes values[i] to member i's resolved offsets. The arity check
// runs before any write; afterwards writes are applied member by
// member with no batch atomicity: a kind-specific rejection surfaces
// as an error naming the offending element's path, with every earlier
// write in the batch already applied and every later one untouched.
func (v *View) Set(attr scene.Attr, values [][]float64) error {
	op := "set " + string(attr)
	handles, err := v.validate(op, attr)
	if err != nil {
		return err
	}
	if len(values) != len(v.members) {
		return &scene.Error{Op: op, Paths: v.Paths(), Err: ErrLengthMismatch}
	}
	for i, h := range handles {
		span := h.Spans[attr]
		if len(values[i]) != span.Len {
			return scene.PathError(op, v.members[i].Path(), ErrLengthMismatch)
		}
	}
	state := v.world.State()
	for i, h := range handles {
		span := h.Spans[attr]
		if err := state.Write(span.Buffer, span.Offset, values[i]); err != nil {
			return scene.PathError(op, v.members[i].Path(), err)
		}
	}
	return nil
}

// Broadcast writes one value to every member.
func (v *View) Broadcast(attr scene.Attr, value []float64) error {
	if len(v.members) == 0 {
		return &scene.Error{Op: "broadcast " + string(attr), Err: ErrEmptyView}
	}
	values := make([][]float64, len(v.members))
	for i := range values {
		values[i] = value
	}
	return v.Set(attr, values)
}

// SetFlat splits a flat aggregate (as produced by Stack) across the
// members' spans in view order.
func (v *View) SetFlat(attr scene.Attr, flat []float64) error {
	op := "set " + string(attr)
	handles, err := v.validate(op, attr)
	if err != nil {
		return err
	}
	total := 0
	for _, h := range handles {
		total += h.Spans[attr].Len
	}
	if len(flat) != total {
		return &scene.Error{Op: op, Paths: v.Paths(), Err: ErrLengthMismatch}
	}
	values := make([][]float64, len(handles))
	off := 0
	for i, h := range handles {
		n := h.Spans[attr].Len
		values[i] = flat[off : off+n]
		off += n
	}
	return v.Set(attr, values)
}
