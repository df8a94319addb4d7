package scene

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// memRegistrar is an in-memory Registrar for instantiation tests.
type memRegistrar struct {
	paths     map[string]struct{}
	instances []*Instance
}

func newMemRegistrar() *memRegistrar {
	return &memRegistrar{paths: make(map[string]struct{})}
}

func (r *memRegistrar) HasPath(path string) bool {
	_, ok := r.paths[path]
	return ok
}

func (r *memRegistrar) Register(inst *Instance) error {
	for _, el := range inst.Elements {
		r.paths[el.Path()] = struct{}{}
	}
	r.instances = append(r.instances, inst)
	return nil
}

func TestTemplate_Instantiate(t *testing.T) {
	t.Run("qualifies paths with the prefix", func(t *testing.T) {
		leg := buildLeg(t, "leg")
		reg := newMemRegistrar()

		inst, err := leg.Instantiate(reg, Transform{}, "leg0")
		require.NoError(t, err)

		paths := make([]string, 0, len(inst.Elements))
		for _, el := range inst.Elements {
			paths = append(paths, el.Path())
		}
		require.Equal(t, []string{"leg0", "leg0/hip", "leg0/shin", "leg0/shin/foot"}, paths)
	})

	t.Run("sets parent paths", func(t *testing.T) {
		leg := buildLeg(t, "leg")
		reg := newMemRegistrar()

		inst, err := leg.Instantiate(reg, Transform{}, "leg0")
		require.NoError(t, err)

		byPath := make(map[string]*Element)
		for _, el := range inst.Elements {
			byPath[el.Path()] = el
		}
		require.Equal(t, "", byPath["leg0"].ParentPath())
		require.Equal(t, "leg0", byPath["leg0/hip"].ParentPath())
		require.Equal(t, "leg0/shin", byPath["leg0/shin/foot"].ParentPath())
	})

	t.Run("instances are independent", func(t *testing.T) {
		leg := buildLeg(t, "leg")
		reg := newMemRegistrar()

		a, err := leg.Instantiate(reg, Transform{}, "leg0")
		require.NoError(t, err)
		b, err := leg.Instantiate(reg, Transform{}, "leg1")
		require.NoError(t, err)

		require.NotEqual(t, a.Elements[0].ID(), b.Elements[0].ID())
		a.Elements[1].Attrs[AttrRange][0] = -9
		require.Equal(t, -0.5, b.Elements[1].Attr(AttrRange)[0])
	})

	t.Run("duplicate prefix is rejected", func(t *testing.T) {
		leg := buildLeg(t, "leg")
		reg := newMemRegistrar()

		_, err := leg.Instantiate(reg, Transform{}, "leg0")
		require.NoError(t, err)
		_, err = leg.Instantiate(reg, Transform{}, "leg0")
		require.ErrorIs(t, err, ErrDuplicatePath)
	})

	t.Run("failed instantiation registers nothing", func(t *testing.T) {
		leg := buildLeg(t, "leg")
		reg := newMemRegistrar()

		_, err := leg.Instantiate(reg, Transform{}, "leg0")
		require.NoError(t, err)
		before := len(reg.paths)

		_, err = leg.Instantiate(reg, Transform{}, "leg0")
		require.Error(t, err)
		require.Len(t, reg.paths, before)
		require.Len(t, reg.instances, 1)
	})

	t.Run("placement shifts the root position", func(t *testing.T) {
		leg := buildLeg(t, "leg")
		require.NoError(t, leg.Root().SetAttr(AttrPos, []float64{1, 0, 0}))
		reg := newMemRegistrar()

		inst, err := leg.Instantiate(reg, Transform{Offset: [3]float64{0, 2, 0.5}}, "leg0")
		require.NoError(t, err)
		require.Equal(t, []float64{1, 2, 0.5}, inst.Elements[0].Attr(AttrPos))

		// Template root stays where it was.
		require.Equal(t, []float64{1, 0, 0}, leg.Root().Attr(AttrPos))
	})

	t.Run("placement on a root without position", func(t *testing.T) {
		leg := buildLeg(t, "leg")
		reg := newMemRegistrar()

		inst, err := leg.Instantiate(reg, Transform{Offset: [3]float64{1, 1, 1}}, "leg0")
		require.NoError(t, err)
		require.Equal(t, []float64{1, 1, 1}, inst.Elements[0].Attr(AttrPos))
	})

	t.Run("qualifies cross references", func(t *testing.T) {
		leg := buildLeg(t, "leg")
		motor := NewElement("hip_motor", KindActuator)
		motor.Options["joint"] = "leg/hip"
		_, err := leg.Add("leg", motor)
		require.NoError(t, err)

		reg := newMemRegistrar()
		inst, err := leg.Instantiate(reg, Transform{}, "front_left")
		require.NoError(t, err)

		var grafted *Element
		for _, el := range inst.Elements {
			if el.Name() == "hip_motor" {
				grafted = el
			}
		}
		require.NotNil(t, grafted)
		require.Equal(t, "front_left/hip", grafted.Options["joint"])
	})

	t.Run("template survives instantiation untouched", func(t *testing.T) {
		leg := buildLeg(t, "leg")
		reg := newMemRegistrar()

		_, err := leg.Instantiate(reg, Transform{}, "leg0")
		require.NoError(t, err)
		require.Equal(t, "", leg.Root().Path())
		require.Equal(t, "", leg.findNode("leg/hip").Element.Path())
	})
}
