// Package scene builds the retained render model of the grid globe. Border
// layers are derived from the boundary store once per store version; each
// frame is then assembled by the pure Build function from the camera, the
// derived layers and the elapsed animation time.
package scene

import (
	"runtime"

	"github.com/zuoanCo/visual-modal/internal/boundary"
	"github.com/zuoanCo/visual-modal/internal/geo"
)

// LayerStyle controls how one boundary layer is sampled and drawn.
type LayerStyle struct {
	Layer        boundary.Layer
	Stride       int
	RadiusOffset float64
	Color        string
	Opacity      float64
}

// CameraLimits bound the orbit controls.
type CameraLimits struct {
	MinDistance float64
	MaxDistance float64
	RotateSpeed float64
}

// Config holds scene tuning constants.
type Config struct {
	EarthRadius     float64
	GlobeInset      float64 // base globe is drawn at EarthRadius-GlobeInset
	AtmosphereScale float64
	Layers          []LayerStyle
	Arcs            []geo.TransmissionArc
	Arc             geo.ArcOptions
	PacketSpeed     float64 // loops per second
	PacketRadius    float64
	Rotation        [3]float64 // group Euler rotation, degrees
	StarCount       int
	StarRadius      float64
	StarSeed        int64
	Camera          Camera
	Limits          CameraLimits
	Workers         int
}

// BorderColor is the stroke colour of every boundary layer.
const BorderColor = "#22d3ee"

// DefaultArcs are the west-east transmission corridors.
func DefaultArcs() []geo.TransmissionArc {
	return []geo.TransmissionArc{
		{Start: geo.GeoPoint{Lon: 87, Lat: 43}, End: geo.GeoPoint{Lon: 121, Lat: 31}, Color: "#facc15"},
		{Start: geo.GeoPoint{Lon: 91, Lat: 29}, End: geo.GeoPoint{Lon: 113, Lat: 23}, Color: "#facc15"},
		{Start: geo.GeoPoint{Lon: 100, Lat: 36}, End: geo.GeoPoint{Lon: 116, Lat: 40}, Color: "#4ade80"},
		{Start: geo.GeoPoint{Lon: 104, Lat: 30}, End: geo.GeoPoint{Lon: 119, Lat: 29}, Color: "#38bdf8"},
	}
}

// DefaultConfig returns the standard globe layout. The world layer is drawn
// at full resolution and faint; the China layer is thinned to every fifth
// coordinate and lifted slightly above it.
func DefaultConfig() Config {
	return Config{
		EarthRadius:     30,
		GlobeInset:      0.1,
		AtmosphereScale: 1.05,
		Layers: []LayerStyle{
			{Layer: boundary.LayerWorld, Stride: 1, RadiusOffset: 0, Color: BorderColor, Opacity: 0.15},
			{Layer: boundary.LayerChina, Stride: 5, RadiusOffset: 0.05, Color: BorderColor, Opacity: 0.8},
		},
		Arcs:         DefaultArcs(),
		Arc:          geo.DefaultArcOptions(),
		PacketSpeed:  0.5,
		PacketRadius: 0.3,
		Rotation:     [3]float64{35, -105, 0},
		StarCount:    5000,
		StarRadius:   200,
		StarSeed:     1,
		Camera:       DefaultCamera(),
		Limits: CameraLimits{
			MinDistance: 40,
			MaxDistance: 100,
			RotateSpeed: 0.5,
		},
		Workers: runtime.NumCPU(),
	}
}
