package scene

import (
	"fmt"
	"math"

	"github.com/zuoanCo/visual-modal/internal/geo"
)

// BuiltArc is a transmission arc with its sampled curve.
type BuiltArc struct {
	ID    string
	Color string
	Arc   geo.Arc
}

// BuildArcs samples every transmission arc once.
func BuildArcs(arcs []geo.TransmissionArc, radius float64, opts geo.ArcOptions) []BuiltArc {
	out := make([]BuiltArc, len(arcs))
	for i, a := range arcs {
		out[i] = BuiltArc{
			ID:    fmt.Sprintf("arc-%d", i),
			Color: a.Color,
			Arc:   geo.BuildArc(a.Start, a.End, radius, opts),
		}
	}
	return out
}

// Packet is the position of one power packet on its arc.
type Packet struct {
	ID       string  `json:"id"`
	Color    string  `json:"color"`
	Progress float64 `json:"progress"`
	Position Vec3    `json:"position"`
}

// PacketPositions places a packet on every arc after elapsed seconds.
func PacketPositions(arcs []BuiltArc, elapsed, speed float64) []Packet {
	out := make([]Packet, len(arcs))
	for i, a := range arcs {
		out[i] = Packet{
			ID:       a.ID,
			Color:    a.Color,
			Progress: geo.Progress(elapsed, speed),
			Position: geo.Array(a.Arc.MarkerAt(elapsed, speed)),
		}
	}
	return out
}

// Input is everything a frame depends on.
type Input struct {
	Config  Config
	Camera  Camera
	Elapsed float64
	Version uint64
	Layers  []BorderLayer
	Arcs    []BuiltArc
}

// Build assembles a frame. It has no side effects and never fails: layers
// that are loading, failed or empty simply contribute no border primitive.
func Build(in Input) Frame {
	cfg := in.Config
	cam := in.Camera.Clamp(cfg.Limits)

	prims := make([]Primitive, 0, 7+len(in.Layers)+2*len(in.Arcs))
	prims = append(prims,
		Primitive{Kind: KindAmbient, ID: "ambient", Intensity: 0.2},
		Primitive{Kind: KindPointLight, ID: "key-light", Color: "#60a5fa", Intensity: 2, Position: &Vec3{100, 50, 50}},
		Primitive{Kind: KindPointLight, ID: "fill-light", Color: "#c084fc", Intensity: 0.5, Position: &Vec3{-100, -50, -50}},
		Primitive{Kind: KindStars, ID: "stars", Count: cfg.StarCount, Radius: cfg.StarRadius, Seed: cfg.StarSeed},
		Primitive{Kind: KindAtmosphere, ID: "atmosphere", Color: "#0ea5e9", Opacity: 0.1, Radius: cfg.EarthRadius * cfg.AtmosphereScale},
		Primitive{Kind: KindGlobe, ID: "globe", Color: "#020617", Emissive: "#0f172a", Radius: cfg.EarthRadius - cfg.GlobeInset},
	)

	for _, l := range in.Layers {
		if len(l.Paths) == 0 {
			continue
		}
		paths := make([][]Vec3, len(l.Paths))
		for i, p := range l.Paths {
			pts := make([]Vec3, len(p))
			for j, v := range p {
				pts[j] = geo.Array(v)
			}
			paths[i] = pts
		}
		prims = append(prims, Primitive{
			Kind:    KindBorder,
			ID:      "border-" + string(l.Style.Layer),
			Color:   l.Style.Color,
			Opacity: l.Style.Opacity,
			Paths:   paths,
		})
	}

	for _, a := range in.Arcs {
		pts := make([]Vec3, len(a.Arc.Points))
		for i, v := range a.Arc.Points {
			pts[i] = geo.Array(v)
		}
		marker := geo.Array(a.Arc.MarkerAt(in.Elapsed, cfg.PacketSpeed))
		prims = append(prims,
			Primitive{Kind: KindArc, ID: a.ID, Color: a.Color, Opacity: 0.2, Points: pts},
			Primitive{
				Kind:      KindPacket,
				ID:        a.ID + "-packet",
				Color:     a.Color,
				Radius:    cfg.PacketRadius,
				Intensity: 2,
				Distance:  5,
				Position:  &marker,
				Progress:  geo.Progress(in.Elapsed, cfg.PacketSpeed),
			},
		)
	}

	return Frame{
		Version: in.Version,
		Elapsed: in.Elapsed,
		Camera: CameraState{
			Camera:   cam,
			Position: geo.Array(cam.Position()),
		},
		Rotation:   degToRad(cfg.Rotation),
		Primitives: prims,
	}
}

func degToRad(v Vec3) Vec3 {
	return Vec3{v[0] * math.Pi / 180, v[1] * math.Pi / 180, v[2] * math.Pi / 180}
}
