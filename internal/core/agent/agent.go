// Package agent groups one instance's sensors and actuators into a
// stable observation/action interface. An agent is a thin façade over
// two path-sorted views: everything it reads and writes goes through
// the same binding machinery as any other view.
package agent

import (
	"strings"

	"github.com/scenebind/scenebind/internal/core/observability/log"
	"github.com/scenebind/scenebind/internal/core/scene"
	"github.com/scenebind/scenebind/internal/core/view"
	"github.com/scenebind/scenebind/internal/core/world"
)

// Agent exposes the sensors and actuators under one path prefix as a
// flat observation vector and a flat action vector. Views are rebuilt
// whenever the world's binding generation moves, so an agent survives
// recompiles without being re-created.
type Agent struct {
	world  *world.World
	prefix string
	log    log.Log

	gen     uint64
	obs     *view.View
	actions *view.View
}

// New creates an agent over every sensor and actuator whose path is
// under prefix. The prefix is usually an instance prefix plus the
// template root, e.g. "ant/torso".
func New(w *world.World, prefix string, logger log.Log) *Agent {
	if logger == nil {
		logger = log.Provide()
	}
	a := &Agent{
		world:  w,
		prefix: prefix,
		log:    logger.With(log.String("agent", prefix)),
	}
	a.refresh()
	return a
}

// Prefix returns the path prefix this agent covers.
func (a *Agent) Prefix() string { return a.prefix }

func (a *Agent) under(el *scene.Element) bool {
	return el.Path() == a.prefix || strings.HasPrefix(el.Path(), a.prefix+"/")
}

// refresh rebuilds both views against the current world generation.
func (a *Agent) refresh() {
	a.gen = a.world.Generation()
	a.obs = view.Where(a.world, func(el *scene.Element) bool {
		return el.Kind() == scene.KindSensor && a.under(el)
	}).SortByPath()
	a.actions = view.Where(a.world, func(el *scene.Element) bool {
		return el.Kind() == scene.KindActuator && a.under(el)
	}).SortByPath()
	a.log.Debug("agent views rebuilt",
		log.Uint64("generation", a.gen),
		log.Int("sensors", a.obs.Len()),
		log.Int("actuators", a.actions.Len()))
}

func (a *Agent) ensureFresh() {
	if a.world.Generation() != a.gen {
		a.refresh()
	}
}

// ObservationView returns the path-sorted sensor view.
func (a *Agent) ObservationView() *view.View {
	a.ensureFresh()
	return a.obs
}

// ActionView returns the path-sorted actuator view.
func (a *Agent) ActionView() *view.View {
	a.ensureFresh()
	return a.actions
}

// ObservationSize returns the length of the flat observation vector.
func (a *Agent) ObservationSize() int {
	a.ensureFresh()
	size := 0
	for _, el := range a.obs.Elements() {
		if d := el.Attr(scene.AttrDim); len(d) > 0 && int(d[0]) > 0 {
			size += int(d[0])
			continue
		}
		size++
	}
	return size
}

// ActionSize returns the number of actuator slots.
func (a *Agent) ActionSize() int {
	a.ensureFresh()
	return a.actions.Len()
}

// Observation reads every sensor and returns the values concatenated
// in path order.
func (a *Agent) Observation() ([]float64, error) {
	a.ensureFresh()
	return a.obs.Stack(scene.AttrValue)
}

// Apply writes one control value per actuator, in path order. The
// vector length must equal ActionSize.
func (a *Agent) Apply(controls []float64) error {
	a.ensureFresh()
	return a.actions.SetFlat(scene.AttrCtrl, controls)
}

// Neutral applies a zero control vector.
func (a *Agent) Neutral() error {
	a.ensureFresh()
	return a.actions.Broadcast(scene.AttrCtrl, []float64{0})
}
