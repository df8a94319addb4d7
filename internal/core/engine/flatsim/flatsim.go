// Package flatsim is a small in-process reference engine. It implements
// the engine boundary with real name tables, flat runtime buffers and a
// trivial explicit integrator, which is enough to exercise the binding
// and view layers end to end without an external physics dependency.
package flatsim

import (
	"fmt"
	"math"

	"github.com/scenebind/scenebind/internal/core/engine"
)

// Sim compiles descriptions into flat-buffer models.
type Sim struct{}

var _ engine.Engine = (*Sim)(nil)

// New returns a fresh engine instance. Instances share no state; one
// World owns exactly one Sim.
func New() *Sim {
	return &Sim{}
}

type actuatorSpec struct {
	joint   int
	gear    float64
	ctrlLo  float64
	ctrlHi  float64
	limited bool
}

type sensorSpec struct {
	adr     int
	dim     int
	joint   int // -1 when the sensor has no joint target
	measure string
}

// Model is the compiled result of one description.
type Model struct {
	names  map[string]map[string]int // kind -> qualified name -> index
	counts map[string]int

	actuators []actuatorSpec
	sensors   []sensorSpec
	sensorLen int
}

// NameToIndex implements engine.Model.
func (m *Model) NameToIndex(kind, name string) (int, bool) {
	byName, ok := m.names[kind]
	if !ok {
		return 0, false
	}
	idx, ok := byName[name]
	return idx, ok
}

// Count implements engine.Model.
func (m *Model) Count(kind string) int {
	return m.counts[kind]
}

// State holds the flat runtime buffers for one compiled model.
type State struct {
	model     *Model
	timestep  float64
	buffers   map[engine.BufferKind][]float64
	destroyed bool
}

// Compile implements engine.Engine.
func (s *Sim) Compile(desc *engine.Description) (engine.Model, engine.State, error) {
	if desc == nil || len(desc.Entries) == 0 {
		return nil, nil, engine.ErrEmptyDescription
	}
	switch desc.Options.Integrator {
	case "", "euler":
	default:
		return nil, nil, fmt.Errorf("%q: %w", desc.Options.Integrator, engine.ErrBadIntegrator)
	}

	model := &Model{
		names:  make(map[string]map[string]int),
		counts: make(map[string]int),
	}

	// First pass: assign per-kind indices in entry order and validate
	// names and local attributes.
	for _, e := range desc.Entries {
		byName, ok := model.names[e.Kind]
		if !ok {
			byName = make(map[string]int)
			model.names[e.Kind] = byName
		}
		if _, dup := byName[e.Name]; dup {
			return nil, nil, fmt.Errorf("%s %q: %w", e.Kind, e.Name, engine.ErrDuplicateName)
		}
		byName[e.Name] = model.counts[e.Kind]
		model.counts[e.Kind]++

		if err := validateEntry(e); err != nil {
			return nil, nil, fmt.Errorf("%s %q: %w", e.Kind, e.Name, err)
		}
	}

	// Second pass: parents and cross-references.
	for _, e := range desc.Entries {
		if e.Parent != "" {
			if !nameKnown(model, e.Parent) {
				return nil, nil, fmt.Errorf("%s %q parent %q: %w", e.Kind, e.Name, e.Parent, engine.ErrUnknownParent)
			}
		}
		switch e.Kind {
		case "actuator":
			target := e.Refs["joint"]
			jidx, ok := model.names["joint"][target]
			if !ok {
				return nil, nil, fmt.Errorf("actuator %q joint %q: %w", e.Name, target, engine.ErrBadReference)
			}
			spec := actuatorSpec{joint: jidx, gear: 1}
			if g := e.Attrs["gear"]; len(g) > 0 {
				spec.gear = g[0]
			}
			if cr := e.Attrs["ctrlrange"]; len(cr) == 2 {
				spec.ctrlLo, spec.ctrlHi = cr[0], cr[1]
				spec.limited = true
			}
			model.actuators = append(model.actuators, spec)
		case "sensor":
			dim := 1
			if d := e.Attrs["dim"]; len(d) > 0 {
				dim = int(d[0])
			}
			spec := sensorSpec{adr: model.sensorLen, dim: dim, joint: -1, measure: e.Refs["measure"]}
			if target, ok := e.Refs["joint"]; ok {
				jidx, known := model.names["joint"][target]
				if !known {
					return nil, nil, fmt.Errorf("sensor %q joint %q: %w", e.Name, target, engine.ErrBadReference)
				}
				spec.joint = jidx
			}
			model.sensors = append(model.sensors, spec)
			model.sensorLen += dim
		}
	}

	state := &State{
		model:    model,
		timestep: desc.Options.Timestep,
		buffers:  allocBuffers(model),
	}
	if state.timestep <= 0 {
		state.timestep = 0.002
	}
	seedBuffers(state, desc, model)
	state.refreshSensors()
	return model, state, nil
}

func validateEntry(e engine.Entry) error {
	switch e.Kind {
	case "geom":
		for _, v := range e.Attrs["size"] {
			if v <= 0 || math.IsNaN(v) {
				return engine.ErrBadGeometry
			}
		}
	case "joint":
		if r := e.Attrs["range"]; len(r) == 2 && r[0] > r[1] {
			return engine.ErrBadRange
		}
	case "actuator":
		if cr := e.Attrs["ctrlrange"]; len(cr) == 2 && cr[0] > cr[1] {
			return engine.ErrBadRange
		}
	}
	return nil
}

func nameKnown(m *Model, name string) bool {
	for _, byName := range m.names {
		if _, ok := byName[name]; ok {
			return true
		}
	}
	return false
}

func allocBuffers(m *Model) map[engine.BufferKind][]float64 {
	return map[engine.BufferKind][]float64{
		engine.BufferQPos:       make([]float64, m.counts["joint"]),
		engine.BufferQVel:       make([]float64, m.counts["joint"]),
		engine.BufferCtrl:       make([]float64, m.counts["actuator"]),
		engine.BufferSensorData: make([]float64, m.sensorLen),
		engine.BufferBodyPos:    make([]float64, 3*m.counts["body"]),
		engine.BufferBodyQuat:   make([]float64, 4*m.counts["body"]),
		engine.BufferGeomSize:   make([]float64, 3*m.counts["geom"]),
		engine.BufferGeomRGBA:   make([]float64, 4*m.counts["geom"]),
		engine.BufferSitePos:    make([]float64, 3*m.counts["site"]),
		engine.BufferCamPos:     make([]float64, 3*m.counts["camera"]),
		engine.BufferLightPos:   make([]float64, 3*m.counts["light"]),
	}
}

// seedBuffers copies declared attribute values into their runtime
// slots so a freshly compiled state reflects the construction-time
// scene before the first step.
func seedBuffers(s *State, desc *engine.Description, m *Model) {
	for _, e := range desc.Entries {
		idx := m.names[e.Kind][e.Name]
		switch e.Kind {
		case "body":
			copyAttr(s.buffers[engine.BufferBodyPos], 3*idx, e.Attrs["pos"], 3)
			quat := e.Attrs["quat"]
			if len(quat) != 4 {
				quat = []float64{1, 0, 0, 0}
			}
			copyAttr(s.buffers[engine.BufferBodyQuat], 4*idx, quat, 4)
		case "geom":
			copyAttr(s.buffers[engine.BufferGeomSize], 3*idx, e.Attrs["size"], 3)
			rgba := e.Attrs["rgba"]
			if len(rgba) != 4 {
				rgba = []float64{0.5, 0.5, 0.5, 1}
			}
			copyAttr(s.buffers[engine.BufferGeomRGBA], 4*idx, rgba, 4)
		case "site":
			copyAttr(s.buffers[engine.BufferSitePos], 3*idx, e.Attrs["pos"], 3)
		case "camera":
			copyAttr(s.buffers[engine.BufferCamPos], 3*idx, e.Attrs["pos"], 3)
		case "light":
			copyAttr(s.buffers[engine.BufferLightPos], 3*idx, e.Attrs["pos"], 3)
		case "joint":
			if ref := e.Attrs["ref"]; len(ref) > 0 {
				s.buffers[engine.BufferQPos][idx] = ref[0]
			}
		}
	}
}

func copyAttr(dst []float64, offset int, src []float64, width int) {
	for i := 0; i < width && i < len(src); i++ {
		dst[offset+i] = src[i]
	}
}

// Step implements engine.State.
func (s *State) Step(n int) error {
	if s.destroyed {
		return engine.ErrStateDestroyed
	}
	qpos := s.buffers[engine.BufferQPos]
	qvel := s.buffers[engine.BufferQVel]
	ctrl := s.buffers[engine.BufferCtrl]
	for step := 0; step < n; step++ {
		for i, a := range s.model.actuators {
			qvel[a.joint] += a.gear * ctrl[i] * s.timestep
		}
		for j := range qpos {
			qpos[j] += qvel[j] * s.timestep
		}
	}
	s.refreshSensors()
	return nil
}

func (s *State) refreshSensors() {
	data := s.buffers[engine.BufferSensorData]
	qpos := s.buffers[engine.BufferQPos]
	qvel := s.buffers[engine.BufferQVel]
	for _, sp := range s.model.sensors {
		if sp.joint < 0 {
			continue
		}
		switch sp.measure {
		case "vel":
			data[sp.adr] = qvel[sp.joint]
		default:
			data[sp.adr] = qpos[sp.joint]
		}
	}
}

// Read implements engine.State.
func (s *State) Read(buf engine.BufferKind, offset, length int) ([]float64, error) {
	if s.destroyed {
		return nil, engine.ErrStateDestroyed
	}
	b, ok := s.buffers[buf]
	if !ok {
		return nil, fmt.Errorf("%v: %w", buf, engine.ErrUnknownBuffer)
	}
	if offset < 0 || length < 0 || offset+length > len(b) {
		return nil, fmt.Errorf("%v[%d:%d]: %w", buf, offset, offset+length, engine.ErrOutOfBounds)
	}
	out := make([]float64, length)
	copy(out, b[offset:offset+length])
	return out, nil
}

// Write implements engine.State.
func (s *State) Write(buf engine.BufferKind, offset int, values []float64) error {
	if s.destroyed {
		return engine.ErrStateDestroyed
	}
	b, ok := s.buffers[buf]
	if !ok {
		return fmt.Errorf("%v: %w", buf, engine.ErrUnknownBuffer)
	}
	if offset < 0 || offset+len(values) > len(b) {
		return fmt.Errorf("%v[%d:%d]: %w", buf, offset, offset+len(values), engine.ErrOutOfBounds)
	}
	if buf == engine.BufferCtrl {
		for i, v := range values {
			a := s.model.actuators[offset+i]
			if a.limited && (v < a.ctrlLo || v > a.ctrlHi) {
				return fmt.Errorf("ctrl[%d]=%v outside [%v, %v]: %w",
					offset+i, v, a.ctrlLo, a.ctrlHi, engine.ErrValueRejected)
			}
		}
	}
	copy(b[offset:], values)
	return nil
}

// Destroy releases the state. Further access fails with
// ErrStateDestroyed.
func (s *State) Destroy() {
	s.destroyed = true
	s.buffers = nil
}
