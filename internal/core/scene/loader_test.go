package scene

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const legYAML = `
name: leg
kind: body
tags: [limb]
children:
  - name: hip
    kind: joint
    attrs:
      range: [-0.7, 0.7]
  - name: thigh
    kind: geom
    attrs:
      size: [0.08, 0.3, 0.08]
  - name: hip_motor
    kind: actuator
    attrs:
      gear: [120]
      ctrlrange: [-1, 1]
    options:
      joint: leg/hip
  - name: shin
    kind: body
    children:
      - name: foot
        kind: geom
        attrs:
          size: [0.05, 0.05, 0.05]
`

func TestParseTemplate(t *testing.T) {
	t.Run("full template", func(t *testing.T) {
		tpl, err := ParseTemplate([]byte(legYAML))
		require.NoError(t, err)
		require.Equal(t, "leg", tpl.Name())
		require.True(t, tpl.Root().HasTag("limb"))

		hip := tpl.findNode("leg/hip")
		require.NotNil(t, hip)
		require.Equal(t, []float64{-0.7, 0.7}, hip.Element.Attr(AttrRange))

		motor := tpl.findNode("leg/hip_motor")
		require.NotNil(t, motor)
		require.Equal(t, "leg/hip", motor.Element.Options["joint"])

		require.NotNil(t, tpl.findNode("leg/shin/foot"))
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := ParseTemplate([]byte("kind: body"))
		require.ErrorIs(t, err, ErrEmptyTemplate)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := ParseTemplate([]byte("name: a\nkind: widget"))
		require.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("bad attr width", func(t *testing.T) {
		bad := "name: a\nkind: geom\nattrs:\n  size: [1, 2]"
		_, err := ParseTemplate([]byte(bad))
		require.ErrorIs(t, err, ErrBadAttrWidth)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseTemplate([]byte("name: [unterminated"))
		require.Error(t, err)
	})
}
