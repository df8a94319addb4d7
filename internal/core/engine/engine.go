package engine

// Engine is the narrow boundary to a physics runtime. The scene layer
// never touches buffers directly; everything flows through a compiled
// Model / State pair obtained from Compile.
type Engine interface {
	// Compile consumes a structural description and returns a compiled
	// model handle together with a zero-initialized runtime state.
	// Compilation is all-or-nothing: on error both handles are nil.
	Compile(desc *Description) (Model, State, error)
}

// Model is a compiled, immutable model handle.
type Model interface {
	// NameToIndex resolves a qualified element name of the given kind
	// to its engine-side index. The second result reports whether the
	// name is known to the model.
	NameToIndex(kind, name string) (int, bool)

	// Count returns the number of compiled entries of a kind.
	Count(kind string) int
}

// State is a mutable runtime state handle paired with one Model.
type State interface {
	// Step advances the simulation n times.
	Step(n int) error

	// Read copies length values starting at offset out of a flat buffer.
	Read(buf BufferKind, offset, length int) ([]float64, error)

	// Write stores values into a flat buffer starting at offset.
	// Kind-specific value checks (e.g. control ranges) are enforced
	// here; a rejected write returns ErrValueRejected.
	Write(buf BufferKind, offset int, values []float64) error

	// Destroy releases the state. All later calls fail with
	// ErrStateDestroyed.
	Destroy()
}

// BufferKind identifies one of the engine's flat runtime buffers.
// The scalar buffers (qpos, qvel, ctrl) hold one slot per element;
// the positional buffers hold fixed-width rows (3 values for
// positions and geom sizes, 4 for quaternions and colors); the
// sensordata buffer is addressed by accumulated sensor dims.
type BufferKind uint8

const (
	BufferInvalid BufferKind = iota
	BufferQPos
	BufferQVel
	BufferCtrl
	BufferSensorData
	BufferBodyPos
	BufferBodyQuat
	BufferGeomSize
	BufferGeomRGBA
	BufferSitePos
	BufferCamPos
	BufferLightPos
)

// String returns the buffer's wire name.
func (b BufferKind) String() string {
	switch b {
	case BufferQPos:
		return "qpos"
	case BufferQVel:
		return "qvel"
	case BufferCtrl:
		return "ctrl"
	case BufferSensorData:
		return "sensordata"
	case BufferBodyPos:
		return "body_pos"
	case BufferBodyQuat:
		return "body_quat"
	case BufferGeomSize:
		return "geom_size"
	case BufferGeomRGBA:
		return "geom_rgba"
	case BufferSitePos:
		return "site_pos"
	case BufferCamPos:
		return "cam_pos"
	case BufferLightPos:
		return "light_pos"
	default:
		return "invalid"
	}
}

// Span is a resolved sub-slice of one flat buffer. A bound element
// holds one Span per bindable attribute.
type Span struct {
	Buffer BufferKind
	Offset int
	Len    int
}
