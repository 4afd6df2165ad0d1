package config

import (
	"github.com/zuoanCo/visual-modal/internal/boundary"
	"github.com/zuoanCo/visual-modal/internal/scene"
)

// Apply overlays the configured tuning constants on base.
func (c SceneConfig) Apply(base scene.Config) scene.Config {
	out := base
	out.EarthRadius = c.EarthRadius
	out.Arc.Resolution = c.ArcResolution
	out.PacketSpeed = c.PacketSpeed
	out.StarCount = c.StarCount
	if c.Workers > 0 {
		out.Workers = c.Workers
	}

	out.Layers = make([]scene.LayerStyle, len(base.Layers))
	copy(out.Layers, base.Layers)
	for i := range out.Layers {
		switch out.Layers[i].Layer {
		case boundary.LayerWorld:
			out.Layers[i].Stride = c.WorldStride
		case boundary.LayerChina:
			out.Layers[i].Stride = c.ChinaStride
			out.Layers[i].RadiusOffset = c.ChinaOffset
		}
	}
	return out
}

// Sources returns the boundary sources in drawing order.
func (c BoundaryConfig) Sources() []boundary.Source {
	return []boundary.Source{
		{Layer: boundary.LayerWorld, URL: c.WorldURL},
		{Layer: boundary.LayerChina, URL: c.ChinaURL},
	}
}
