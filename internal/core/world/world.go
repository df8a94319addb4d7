// Package world owns the compile unit: the arena of registered
// elements, the engine model/state handle pair and the compile
// generation counter that keeps stale views detectable.
package world

import (
	"errors"
	"fmt"
	"sort"

	"github.com/scenebind/scenebind/internal/core/engine"
	"github.com/scenebind/scenebind/internal/core/observability/log"
	"github.com/scenebind/scenebind/internal/core/resolve"
	"github.com/scenebind/scenebind/internal/core/scene"
)

// Compile and lifecycle errors
var (
	ErrCompile      = errors.New("compile failed")
	ErrNotCompiled  = errors.New("world is not compiled")
	ErrStaleBinding = errors.New("binding belongs to an older compile generation")
	ErrDestroyed    = errors.New("world has been destroyed")
)

// Options carries the global simulation options handed to the engine.
type Options struct {
	Timestep   float64 `json:"timestep" yaml:"timestep"`
	Gravity    bool    `json:"gravity" yaml:"gravity"`
	Integrator string  `json:"integrator,omitempty" yaml:"integrator,omitempty"`
}

// DefaultOptions mirrors the engine defaults.
func DefaultOptions() Options {
	return Options{Timestep: 0.002, Gravity: true, Integrator: "euler"}
}

// World is the root compile unit. All access to the engine's model and
// state handles goes through it; the handles are never shared between
// worlds.
type World struct {
	name string
	opts Options
	eng  engine.Engine
	log  log.Log

	elements []*scene.Element
	byPath   map[string]*scene.Element

	model engine.Model
	state engine.State
	table *resolve.Table

	gen       uint64
	compiled  bool
	destroyed bool
}

var _ scene.Registrar = (*World)(nil)

// New creates an empty, uncompiled world owning its engine instance.
// A nil logger falls back to the process logger.
func New(name string, eng engine.Engine, opts Options, logger log.Log) *World {
	if logger == nil {
		logger = log.Provide()
	}
	return &World{
		name:   name,
		opts:   opts,
		eng:    eng,
		log:    logger.With(log.String("world", name)),
		byPath: make(map[string]*scene.Element),
	}
}

// Name returns the world's name.
func (w *World) Name() string { return w.name }

// Generation returns the current compile generation. It increases on
// every successful compile and on every invalidation.
func (w *World) Generation() uint64 { return w.gen }

// Compiled reports whether the world holds live engine handles.
func (w *World) Compiled() bool { return w.compiled }

// Len returns the number of registered elements.
func (w *World) Len() int { return len(w.elements) }

// HasPath implements scene.Registrar.
func (w *World) HasPath(path string) bool {
	_, ok := w.byPath[path]
	return ok
}

// Register implements scene.Registrar: it commits an instance's
// elements to the pending set. Structural changes leave any previous
// compile untouched until Recompile is called.
func (w *World) Register(inst *scene.Instance) error {
	if w.destroyed {
		return ErrDestroyed
	}
	for _, el := range inst.Elements {
		if _, dup := w.byPath[el.Path()]; dup {
			return scene.PathError("register", el.Path(), scene.ErrDuplicatePath)
		}
	}
	for _, el := range inst.Elements {
		w.byPath[el.Path()] = el
		w.elements = append(w.elements, el)
	}
	w.log.Debug("instance registered",
		log.String("prefix", inst.Prefix),
		log.Int("elements", len(inst.Elements)))
	return nil
}

// Attach places a single standalone element under parentPath ("" for a
// world root). It is the light-weight counterpart of instantiating a
// one-node template.
func (w *World) Attach(parentPath string, el *scene.Element) error {
	if w.destroyed {
		return ErrDestroyed
	}
	path := el.Name()
	if parentPath != "" {
		if !w.HasPath(parentPath) {
			return scene.PathError("attach", parentPath, scene.ErrUnknownSlot)
		}
		path = parentPath + "/" + el.Name()
	}
	if w.HasPath(path) {
		return scene.PathError("attach", path, scene.ErrDuplicatePath)
	}
	el.SetPath(path)
	el.SetParentPath(parentPath)
	w.byPath[path] = el
	w.elements = append(w.elements, el)
	return nil
}

// ByPath returns the element at a qualified path.
func (w *World) ByPath(path string) (*scene.Element, bool) {
	el, ok := w.byPath[path]
	return el, ok
}

// Elements returns the registered elements in registration order.
func (w *World) Elements() []*scene.Element {
	return append([]*scene.Element(nil), w.elements...)
}

// Compile serializes the element set into a structural description,
// compiles it against the engine and binds every element. It is
// all-or-nothing: on any failure no element is left bound and the
// previous handles (if any) are gone.
func (w *World) Compile() error {
	if w.destroyed {
		return ErrDestroyed
	}
	if w.compiled {
		w.invalidate()
	}

	desc := w.describe()
	model, state, err := w.eng.Compile(desc)
	if err != nil {
		w.log.Error("engine rejected description", log.Err(err))
		return fmt.Errorf("%w: %w", ErrCompile, err)
	}

	table, err := resolve.Bind(model, w.elements)
	if err != nil {
		state.Destroy()
		w.log.Error("binding failed", log.Err(err))
		return fmt.Errorf("%w: %w", ErrCompile, err)
	}

	// Commit: only now do elements observe the new generation.
	w.gen++
	for _, el := range w.elements {
		rec, _ := table.Lookup(el.Path())
		el.Bind(&scene.Handle{Gen: w.gen, Index: rec.Index, Spans: rec.Spans})
	}
	w.model = model
	w.state = state
	w.table = table
	w.compiled = true

	w.log.Info("compiled",
		log.Int("elements", len(w.elements)),
		log.Uint64("generation", w.gen),
		log.Uint64("fingerprint", table.Fingerprint()))
	return nil
}

// Recompile invalidates every handle and view issued for the previous
// generation, then compiles the current element set.
func (w *World) Recompile() error {
	if w.destroyed {
		return ErrDestroyed
	}
	w.invalidate()
	return w.Compile()
}

// Step advances the runtime state n times. Bindings survive steps;
// only recompiles invalidate them.
func (w *World) Step(n int) error {
	if w.destroyed {
		return ErrDestroyed
	}
	if !w.compiled {
		return ErrNotCompiled
	}
	return w.state.Step(n)
}

// Destroy invalidates all bindings and releases the engine handles.
func (w *World) Destroy() {
	if w.destroyed {
		return
	}
	w.invalidate()
	w.destroyed = true
	w.log.Info("destroyed")
}

// invalidate clears every element handle, bumps the generation so
// outstanding views fail with ErrStaleBinding, and drops the engine
// handles.
func (w *World) invalidate() {
	for _, el := range w.elements {
		el.Unbind()
	}
	if w.state != nil {
		w.state.Destroy()
	}
	w.model = nil
	w.state = nil
	w.table = nil
	w.compiled = false
	w.gen++
	w.log.Debug("bindings invalidated", log.Uint64("generation", w.gen))
}

// describe flattens the element set in path-sorted order. Sorting here
// makes engine indices, and therefore binding tables, reproducible
// across destroy/recreate cycles regardless of registration order.
func (w *World) describe() *engine.Description {
	sorted := append([]*scene.Element(nil), w.elements...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path() < sorted[j].Path() })

	desc := &engine.Description{
		Name: w.name,
		Options: engine.DescOptions{
			Timestep:   w.opts.Timestep,
			Gravity:    w.opts.Gravity,
			Integrator: w.opts.Integrator,
		},
	}
	for _, el := range sorted {
		entry := engine.Entry{
			Kind:   string(el.Kind()),
			Name:   el.Path(),
			Parent: el.ParentPath(),
			Attrs:  make(map[string][]float64, len(el.Attrs)),
			Refs:   make(map[string]string, len(el.Options)),
		}
		for attr, val := range el.Attrs {
			entry.Attrs[string(attr)] = append([]float64(nil), val...)
		}
		for key, val := range el.Options {
			entry.Refs[key] = val
		}
		desc.Entries = append(desc.Entries, entry)
	}
	return desc
}

// State exposes the runtime state handle for the view layer. Direct
// use outside of views is discouraged.
func (w *World) State() engine.State {
	return w.state
}

// BindingFingerprint returns the xxhash fingerprint of the current
// binding table, or 0 when uncompiled.
func (w *World) BindingFingerprint() uint64 {
	if w.table == nil {
		return 0
	}
	return w.table.Fingerprint()
}

// BindingPaths returns the bound paths in canonical order, or nil when
// uncompiled.
func (w *World) BindingPaths() []string {
	if w.table == nil {
		return nil
	}
	return w.table.Paths()
}

// CheckGeneration verifies that a captured generation is the live one.
func (w *World) CheckGeneration(gen uint64) error {
	if w.destroyed {
		return ErrDestroyed
	}
	if !w.compiled {
		return ErrNotCompiled
	}
	if gen != w.gen {
		return ErrStaleBinding
	}
	return nil
}
