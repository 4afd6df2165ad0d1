package scene

// Kind identifies a drawable primitive.
type Kind string

const (
	KindGlobe      Kind = "globe"
	KindAtmosphere Kind = "atmosphere"
	KindAmbient    Kind = "ambient_light"
	KindPointLight Kind = "point_light"
	KindStars      Kind = "stars"
	KindBorder     Kind = "border"
	KindArc        Kind = "arc"
	KindPacket     Kind = "packet"
)

// Vec3 is a position in scene units.
type Vec3 = [3]float64

// Primitive is one drawable element. Only the fields meaningful for Kind are
// set. Positions in Border, Arc and Packet primitives are in globe group
// space, which the client rotates by Frame.Rotation.
type Primitive struct {
	Kind      Kind     `json:"kind"`
	ID        string   `json:"id"`
	Color     string   `json:"color,omitempty"`
	Emissive  string   `json:"emissive,omitempty"`
	Opacity   float64  `json:"opacity,omitempty"`
	Radius    float64  `json:"radius,omitempty"`
	Intensity float64  `json:"intensity,omitempty"`
	Distance  float64  `json:"distance,omitempty"`
	Position  *Vec3    `json:"position,omitempty"`
	Paths     [][]Vec3 `json:"paths,omitempty"`
	Points    []Vec3   `json:"points,omitempty"`
	Count     int      `json:"count,omitempty"`
	Seed      int64    `json:"seed,omitempty"`
	Progress  float64  `json:"progress,omitempty"`
}

// CameraState is the camera as reported in a frame.
type CameraState struct {
	Camera
	Position Vec3 `json:"position"`
}

// Frame is a complete, immutable description of the scene at one instant.
type Frame struct {
	Version    uint64      `json:"version"`
	Elapsed    float64     `json:"elapsed"`
	Camera     CameraState `json:"camera"`
	Rotation   Vec3        `json:"rotation"`
	Primitives []Primitive `json:"primitives"`
}

// Count returns the number of primitives of kind k.
func (f Frame) Count(k Kind) int {
	var n int
	for _, p := range f.Primitives {
		if p.Kind == k {
			n++
		}
	}
	return n
}
