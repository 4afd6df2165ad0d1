package scene

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zuoanCo/visual-modal/internal/metrics"
)

// Renderer produces frames from the layer cache and the fixed arcs.
type Renderer struct {
	config Config
	layers *LayerCache
	arcs   []BuiltArc
	epoch  time.Time
	logger *slog.Logger
	tracer trace.Tracer
}

// NewRenderer creates a Renderer. The arcs are sampled once here and the
// packet animation clock starts.
func NewRenderer(config Config, layers *LayerCache, logger *slog.Logger) *Renderer {
	arcs := BuildArcs(config.Arcs, config.EarthRadius, config.Arc)
	logger.Info("scene renderer initialized",
		"earth_radius", config.EarthRadius,
		"arcs", len(arcs),
		"arc_resolution", config.Arc.Resolution,
		"layers", len(config.Layers),
	)
	return &Renderer{
		config: config,
		layers: layers,
		arcs:   arcs,
		epoch:  time.Now(),
		logger: logger,
		tracer: otel.Tracer("github.com/zuoanCo/visual-modal/internal/scene"),
	}
}

// Config returns the scene configuration.
func (r *Renderer) Config() Config {
	return r.config
}

// Frame builds the frame seen by cam after elapsed seconds.
func (r *Renderer) Frame(ctx context.Context, cam Camera, elapsed float64) Frame {
	ctx, span := r.tracer.Start(ctx, "scene.build")
	defer span.End()

	start := time.Now()
	layers, version := r.layers.Layers(ctx)
	f := Build(Input{
		Config:  r.config,
		Camera:  cam,
		Elapsed: elapsed,
		Version: version,
		Layers:  layers,
		Arcs:    r.arcs,
	})
	metrics.ObserveSceneBuild(time.Since(start))

	span.SetAttributes(
		attribute.Int64("scene.version", int64(version)),
		attribute.Int("scene.primitives", len(f.Primitives)),
	)
	return f
}

// Elapsed returns the seconds since the animation clock started.
func (r *Renderer) Elapsed() float64 {
	return time.Since(r.epoch).Seconds()
}

// Packets returns the packet positions after elapsed seconds.
func (r *Renderer) Packets(elapsed float64) []Packet {
	return PacketPositions(r.arcs, elapsed, r.config.PacketSpeed)
}

// Version returns the version of the current layer set.
func (r *Renderer) Version(ctx context.Context) uint64 {
	_, v := r.layers.Layers(ctx)
	return v
}

// Stats returns layer cache statistics.
func (r *Renderer) Stats() CacheStats {
	return r.layers.Stats()
}
