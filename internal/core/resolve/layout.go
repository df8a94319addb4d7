package resolve

import (
	"github.com/scenebind/scenebind/internal/core/engine"
	"github.com/scenebind/scenebind/internal/core/scene"
)

// addressing selects how an attribute's offset is derived from the
// element's engine index.
type addressing uint8

const (
	// addrScaled: offset = index * width (fixed-width per-element rows).
	addrScaled addressing = iota
	// addrSlot: offset = index, width 1 (one slot per element).
	addrSlot
	// addrSensor: offset = sum of lower-indexed sensor dims, width = dim.
	addrSensor
)

type attrLayout struct {
	buffer engine.BufferKind
	width  int
	mode   addressing
}

// layouts is the kind-specific fixed layout knowledge: for every
// bindable (kind, attribute) pair, which flat buffer it lives in and
// how the element index maps to an offset.
var layouts = map[scene.Kind]map[scene.Attr]attrLayout{
	scene.KindBody: {
		scene.AttrPos:  {engine.BufferBodyPos, 3, addrScaled},
		scene.AttrQuat: {engine.BufferBodyQuat, 4, addrScaled},
	},
	scene.KindGeom: {
		scene.AttrSize: {engine.BufferGeomSize, 3, addrScaled},
		scene.AttrRGBA: {engine.BufferGeomRGBA, 4, addrScaled},
	},
	scene.KindSite: {
		scene.AttrPos: {engine.BufferSitePos, 3, addrScaled},
	},
	scene.KindJoint: {
		scene.AttrQPos: {engine.BufferQPos, 1, addrSlot},
		scene.AttrQVel: {engine.BufferQVel, 1, addrSlot},
	},
	scene.KindActuator: {
		scene.AttrCtrl: {engine.BufferCtrl, 1, addrSlot},
	},
	scene.KindSensor: {
		scene.AttrValue: {engine.BufferSensorData, 0, addrSensor},
	},
	scene.KindCamera: {
		scene.AttrPos: {engine.BufferCamPos, 3, addrScaled},
	},
	scene.KindLight: {
		scene.AttrPos: {engine.BufferLightPos, 3, addrScaled},
	},
}

// BindableAttrs returns the bindable attributes of a kind.
func BindableAttrs(kind scene.Kind) []scene.Attr {
	attrs := make([]scene.Attr, 0, len(layouts[kind]))
	for attr := range layouts[kind] {
		attrs = append(attrs, attr)
	}
	return attrs
}
