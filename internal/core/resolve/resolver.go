// Package resolve binds scene elements to engine buffer offsets after a
// compile. Binding is deterministic and order-independent: elements are
// walked in path-sorted order, and no element's spans depend on when it
// was bound relative to any other.
package resolve

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/scenebind/scenebind/internal/core/engine"
	"github.com/scenebind/scenebind/internal/core/scene"
)

// ErrUnresolved marks an element whose path has no engine-side entry
// after compile. It is fatal for the compile attempt.
var ErrUnresolved = errors.New("element not present in compiled model")

// Record is one row of a binding table.
type Record struct {
	Path  string
	Kind  scene.Kind
	Index int
	Spans map[scene.Attr]engine.Span
}

// Table is the full path -> record binding of one compile.
type Table struct {
	records map[string]Record
	order   []string // path-sorted
}

// Bind resolves every element against the compiled model and returns
// the binding table. It does not touch the elements themselves; the
// caller commits handles only after the whole table resolved, keeping
// the all-or-nothing compile contract.
func Bind(model engine.Model, elements []*scene.Element) (*Table, error) {
	dims := sensorDims(model, elements)

	table := &Table{records: make(map[string]Record, len(elements))}
	sorted := append([]*scene.Element(nil), elements...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path() < sorted[j].Path() })

	for _, el := range sorted {
		idx, ok := model.NameToIndex(string(el.Kind()), el.Path())
		if !ok {
			return nil, scene.PathError("resolve", el.Path(), ErrUnresolved)
		}
		rec := Record{
			Path:  el.Path(),
			Kind:  el.Kind(),
			Index: idx,
			Spans: make(map[scene.Attr]engine.Span),
		}
		for attr, layout := range layouts[el.Kind()] {
			rec.Spans[attr] = span(layout, idx, el, dims)
		}
		table.records[el.Path()] = rec
		table.order = append(table.order, el.Path())
	}
	return table, nil
}

func span(l attrLayout, idx int, el *scene.Element, dims []int) engine.Span {
	switch l.mode {
	case addrSlot:
		return engine.Span{Buffer: l.buffer, Offset: idx, Len: 1}
	case addrSensor:
		offset := 0
		for i := 0; i < idx; i++ {
			offset += dims[i]
		}
		return engine.Span{Buffer: l.buffer, Offset: offset, Len: dims[idx]}
	default:
		return engine.Span{Buffer: l.buffer, Offset: idx * l.width, Len: l.width}
	}
}

// sensorDims reconstructs the dim of every sensor by engine index so
// sensordata offsets come out identical no matter the binding order.
func sensorDims(model engine.Model, elements []*scene.Element) []int {
	dims := make([]int, model.Count(string(scene.KindSensor)))
	for i := range dims {
		dims[i] = 1
	}
	for _, el := range elements {
		if el.Kind() != scene.KindSensor {
			continue
		}
		idx, ok := model.NameToIndex(string(scene.KindSensor), el.Path())
		if !ok || idx >= len(dims) {
			continue
		}
		if d := el.Attr(scene.AttrDim); len(d) > 0 && int(d[0]) > 0 {
			dims[idx] = int(d[0])
		}
	}
	return dims
}

// Lookup returns the record for a path.
func (t *Table) Lookup(path string) (Record, bool) {
	rec, ok := t.records[path]
	return rec, ok
}

// Len returns the number of bound elements.
func (t *Table) Len() int { return len(t.records) }

// Paths returns the bound paths in canonical (sorted) order.
func (t *Table) Paths() []string {
	return append([]string(nil), t.order...)
}

// Fingerprint hashes the table rows in canonical order. Two compiles
// of the same structural description produce equal fingerprints.
func (t *Table) Fingerprint() uint64 {
	h := xxhash.New()
	for _, path := range t.order {
		rec := t.records[path]
		_, _ = h.WriteString(path)
		_, _ = fmt.Fprintf(h, "|%s|%d", rec.Kind, rec.Index)
		attrs := make([]string, 0, len(rec.Spans))
		for attr := range rec.Spans {
			attrs = append(attrs, string(attr))
		}
		sort.Strings(attrs)
		for _, attr := range attrs {
			sp := rec.Spans[scene.Attr(attr)]
			_, _ = fmt.Fprintf(h, "|%s:%s:%d:%d", attr, sp.Buffer, sp.Offset, sp.Len)
		}
		_, _ = h.WriteString("\n")
	}
	return h.Sum64()
}
