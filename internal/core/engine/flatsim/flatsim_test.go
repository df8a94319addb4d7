package flatsim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scenebind/scenebind/internal/core/engine"
)

// pendulum is a minimal articulated description: one body, one joint,
// one motor and two sensors on the joint.
func pendulum() *engine.Description {
	return &engine.Description{
		Name:    "pendulum",
		Options: engine.DescOptions{Timestep: 0.01},
		Entries: []engine.Entry{
			{Kind: "body", Name: "arm", Attrs: map[string][]float64{"pos": {0, 0, 1}}},
			{Kind: "joint", Name: "arm/pivot", Parent: "arm"},
			{
				Kind: "actuator", Name: "arm/motor", Parent: "arm",
				Attrs: map[string][]float64{"gear": {2}, "ctrlrange": {-1, 1}},
				Refs:  map[string]string{"joint": "arm/pivot"},
			},
			{
				Kind: "sensor", Name: "arm/pivot_pos", Parent: "arm",
				Refs: map[string]string{"joint": "arm/pivot"},
			},
			{
				Kind: "sensor", Name: "arm/pivot_vel", Parent: "arm",
				Refs: map[string]string{"joint": "arm/pivot", "measure": "vel"},
			},
		},
	}
}

func TestSim_Compile(t *testing.T) {
	sim := New()

	t.Run("assigns indices in entry order", func(t *testing.T) {
		model, state, err := sim.Compile(pendulum())
		require.NoError(t, err)
		defer state.Destroy()

		idx, ok := model.NameToIndex("joint", "arm/pivot")
		require.True(t, ok)
		require.Equal(t, 0, idx)
		require.Equal(t, 1, model.Count("joint"))
		require.Equal(t, 2, model.Count("sensor"))

		_, ok = model.NameToIndex("joint", "arm/elbow")
		require.False(t, ok)
	})

	t.Run("unsupported integrator", func(t *testing.T) {
		desc := pendulum()
		desc.Options.Integrator = "rk4"
		_, _, err := sim.Compile(desc)
		require.ErrorIs(t, err, engine.ErrBadIntegrator)
	})

	t.Run("empty description", func(t *testing.T) {
		_, _, err := sim.Compile(&engine.Description{})
		require.ErrorIs(t, err, engine.ErrEmptyDescription)
	})

	t.Run("duplicate name within a kind", func(t *testing.T) {
		desc := pendulum()
		desc.Entries = append(desc.Entries, engine.Entry{Kind: "joint", Name: "arm/pivot"})
		_, _, err := sim.Compile(desc)
		require.ErrorIs(t, err, engine.ErrDuplicateName)
	})

	t.Run("unknown parent", func(t *testing.T) {
		desc := pendulum()
		desc.Entries[1].Parent = "fuselage"
		_, _, err := sim.Compile(desc)
		require.ErrorIs(t, err, engine.ErrUnknownParent)
	})

	t.Run("actuator with missing joint", func(t *testing.T) {
		desc := pendulum()
		desc.Entries[2].Refs["joint"] = "arm/elbow"
		_, _, err := sim.Compile(desc)
		require.ErrorIs(t, err, engine.ErrBadReference)
	})

	t.Run("non-positive geom size", func(t *testing.T) {
		desc := pendulum()
		desc.Entries = append(desc.Entries, engine.Entry{
			Kind: "geom", Name: "arm/rod", Parent: "arm",
			Attrs: map[string][]float64{"size": {0.1, 0, 0.1}},
		})
		_, _, err := sim.Compile(desc)
		require.ErrorIs(t, err, engine.ErrBadGeometry)
	})

	t.Run("inverted joint range", func(t *testing.T) {
		desc := pendulum()
		desc.Entries[1].Attrs = map[string][]float64{"range": {1, -1}}
		_, _, err := sim.Compile(desc)
		require.ErrorIs(t, err, engine.ErrBadRange)
	})
}

func TestState_Seeding(t *testing.T) {
	sim := New()

	t.Run("declared values reach the buffers", func(t *testing.T) {
		desc := pendulum()
		desc.Entries = append(desc.Entries, engine.Entry{
			Kind: "geom", Name: "arm/rod", Parent: "arm",
			Attrs: map[string][]float64{"size": {0.1, 0.4, 0.1}, "rgba": {1, 0, 0, 1}},
		})
		_, state, err := sim.Compile(desc)
		require.NoError(t, err)
		defer state.Destroy()

		pos, err := state.Read(engine.BufferBodyPos, 0, 3)
		require.NoError(t, err)
		require.Equal(t, []float64{0, 0, 1}, pos)

		size, err := state.Read(engine.BufferGeomSize, 0, 3)
		require.NoError(t, err)
		require.Equal(t, []float64{0.1, 0.4, 0.1}, size)
	})

	t.Run("unset quat defaults to identity", func(t *testing.T) {
		_, state, err := sim.Compile(pendulum())
		require.NoError(t, err)
		defer state.Destroy()

		quat, err := state.Read(engine.BufferBodyQuat, 0, 4)
		require.NoError(t, err)
		require.Equal(t, []float64{1, 0, 0, 0}, quat)
	})

	t.Run("joint ref seeds qpos", func(t *testing.T) {
		desc := pendulum()
		desc.Entries[1].Attrs = map[string][]float64{"ref": {0.3}}
		_, state, err := sim.Compile(desc)
		require.NoError(t, err)
		defer state.Destroy()

		qpos, err := state.Read(engine.BufferQPos, 0, 1)
		require.NoError(t, err)
		require.Equal(t, []float64{0.3}, qpos)

		// Sensors reflect the seeded position before the first step.
		data, err := state.Read(engine.BufferSensorData, 0, 1)
		require.NoError(t, err)
		require.Equal(t, []float64{0.3}, data)
	})
}

func TestState_Step(t *testing.T) {
	sim := New()

	t.Run("control integrates into velocity and position", func(t *testing.T) {
		_, state, err := sim.Compile(pendulum())
		require.NoError(t, err)
		defer state.Destroy()

		require.NoError(t, state.Write(engine.BufferCtrl, 0, []float64{0.5}))
		require.NoError(t, state.Step(1))

		// qvel = gear * ctrl * dt = 2 * 0.5 * 0.01
		qvel, err := state.Read(engine.BufferQVel, 0, 1)
		require.NoError(t, err)
		require.InDelta(t, 0.01, qvel[0], 1e-12)

		// qpos = qvel * dt
		qpos, err := state.Read(engine.BufferQPos, 0, 1)
		require.NoError(t, err)
		require.InDelta(t, 1e-4, qpos[0], 1e-12)
	})

	t.Run("sensors track joint state", func(t *testing.T) {
		_, state, err := sim.Compile(pendulum())
		require.NoError(t, err)
		defer state.Destroy()

		require.NoError(t, state.Write(engine.BufferCtrl, 0, []float64{1}))
		require.NoError(t, state.Step(10))

		qpos, err := state.Read(engine.BufferQPos, 0, 1)
		require.NoError(t, err)
		qvel, err := state.Read(engine.BufferQVel, 0, 1)
		require.NoError(t, err)
		data, err := state.Read(engine.BufferSensorData, 0, 2)
		require.NoError(t, err)
		require.Equal(t, qpos[0], data[0])
		require.Equal(t, qvel[0], data[1])
	})

	t.Run("zero control is a fixed point", func(t *testing.T) {
		_, state, err := sim.Compile(pendulum())
		require.NoError(t, err)
		defer state.Destroy()

		require.NoError(t, state.Step(100))
		qpos, err := state.Read(engine.BufferQPos, 0, 1)
		require.NoError(t, err)
		require.Zero(t, qpos[0])
	})
}

func TestState_ReadWrite(t *testing.T) {
	sim := New()

	t.Run("ctrl outside ctrlrange is rejected", func(t *testing.T) {
		_, state, err := sim.Compile(pendulum())
		require.NoError(t, err)
		defer state.Destroy()

		err = state.Write(engine.BufferCtrl, 0, []float64{1.5})
		require.ErrorIs(t, err, engine.ErrValueRejected)

		// The rejected value must not land.
		ctrl, err := state.Read(engine.BufferCtrl, 0, 1)
		require.NoError(t, err)
		require.Zero(t, ctrl[0])
	})

	t.Run("out of bounds", func(t *testing.T) {
		_, state, err := sim.Compile(pendulum())
		require.NoError(t, err)
		defer state.Destroy()

		_, err = state.Read(engine.BufferQPos, 5, 1)
		require.ErrorIs(t, err, engine.ErrOutOfBounds)
		err = state.Write(engine.BufferQPos, -1, []float64{0})
		require.ErrorIs(t, err, engine.ErrOutOfBounds)
	})

	t.Run("reads copy out", func(t *testing.T) {
		_, state, err := sim.Compile(pendulum())
		require.NoError(t, err)
		defer state.Destroy()

		out, err := state.Read(engine.BufferQPos, 0, 1)
		require.NoError(t, err)
		out[0] = 42

		again, err := state.Read(engine.BufferQPos, 0, 1)
		require.NoError(t, err)
		require.Zero(t, again[0])
	})

	t.Run("destroyed state refuses access", func(t *testing.T) {
		_, state, err := sim.Compile(pendulum())
		require.NoError(t, err)
		state.Destroy()

		_, err = state.Read(engine.BufferQPos, 0, 1)
		require.ErrorIs(t, err, engine.ErrStateDestroyed)
		require.ErrorIs(t, state.Write(engine.BufferQPos, 0, []float64{0}), engine.ErrStateDestroyed)
		require.ErrorIs(t, state.Step(1), engine.ErrStateDestroyed)
	})
}

func TestSensorLayout(t *testing.T) {
	sim := New()

	// Mixed-width sensors: data addresses accumulate by dim.
	desc := &engine.Description{
		Name: "mixed",
		Entries: []engine.Entry{
			{Kind: "joint", Name: "j0"},
			{Kind: "sensor", Name: "s0", Attrs: map[string][]float64{"dim": {3}}},
			{Kind: "sensor", Name: "s1", Refs: map[string]string{"joint": "j0"}},
		},
	}
	desc.Entries[0].Attrs = map[string][]float64{"ref": {0.7}}

	_, state, err := sim.Compile(desc)
	require.NoError(t, err)
	defer state.Destroy()

	// s1 sits after s0's three slots.
	data, err := state.Read(engine.BufferSensorData, 0, 4)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 0, 0.7}, data)
}
