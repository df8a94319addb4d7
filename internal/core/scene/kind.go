package scene

// Kind tags the structural role of an Element.
type Kind string

const (
	KindBody     Kind = "body"
	KindGeom     Kind = "geom"
	KindSite     Kind = "site"
	KindJoint    Kind = "joint"
	KindActuator Kind = "actuator"
	KindSensor   Kind = "sensor"
	KindCamera   Kind = "camera"
	KindLight    Kind = "light"
)

// Kinds lists every supported kind in canonical order.
func Kinds() []Kind {
	return []Kind{
		KindBody, KindGeom, KindSite, KindJoint,
		KindActuator, KindSensor, KindCamera, KindLight,
	}
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	switch k {
	case KindBody, KindGeom, KindSite, KindJoint,
		KindActuator, KindSensor, KindCamera, KindLight:
		return true
	}
	return false
}

// Attr names a declared or bindable attribute of an Element.
type Attr string

const (
	AttrPos       Attr = "pos"
	AttrQuat      Attr = "quat"
	AttrSize      Attr = "size"
	AttrRGBA      Attr = "rgba"
	AttrQPos      Attr = "qpos"
	AttrQVel      Attr = "qvel"
	AttrRange     Attr = "range"
	AttrRef       Attr = "ref"
	AttrCtrl      Attr = "ctrl"
	AttrCtrlRange Attr = "ctrlrange"
	AttrGear      Attr = "gear"
	AttrValue     Attr = "value"
	AttrDim       Attr = "dim"
)

// declaredAttrs maps each kind to the attributes it may declare at
// construction time, with their expected widths. A width of 0 means
// variable (sensor value width follows its dim).
var declaredAttrs = map[Kind]map[Attr]int{
	KindBody:     {AttrPos: 3, AttrQuat: 4},
	KindGeom:     {AttrPos: 3, AttrSize: 3, AttrRGBA: 4},
	KindSite:     {AttrPos: 3, AttrSize: 3, AttrRGBA: 4},
	KindJoint:    {AttrPos: 3, AttrRange: 2, AttrRef: 1},
	KindActuator: {AttrGear: 1, AttrCtrlRange: 2},
	KindSensor:   {AttrDim: 1},
	KindCamera:   {AttrPos: 3, AttrQuat: 4},
	KindLight:    {AttrPos: 3},
}

// DeclaredWidth returns the expected width of a declared attribute for
// the given kind. ok is false when the kind does not declare attr.
func DeclaredWidth(kind Kind, attr Attr) (width int, ok bool) {
	attrs, found := declaredAttrs[kind]
	if !found {
		return 0, false
	}
	width, ok = attrs[attr]
	return width, ok
}
