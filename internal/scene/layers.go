package scene

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zuoanCo/visual-modal/internal/boundary"
	"github.com/zuoanCo/visual-modal/internal/geo"
	"github.com/zuoanCo/visual-modal/internal/metrics"
)

// BorderLayer is one boundary layer sampled onto the sphere. Paths is empty
// unless State is loaded and the document had drawable rings.
type BorderLayer struct {
	Style    LayerStyle
	State    boundary.State
	Features int
	Paths    []geo.BorderPath
	Points   int
}

// layerSet holds the border layers derived from one store version.
// Immutable after construction; safe for concurrent reads.
type layerSet struct {
	version uint64
	layers  []BorderLayer
	builtAt time.Time
}

// LayerCache derives border layers from the boundary store and rebuilds them
// only when the store version changes.
type LayerCache struct {
	store   *boundary.Store
	styles  []LayerStyle
	radius  float64
	pool    *WorkerPool
	logger  *slog.Logger
	set     atomic.Pointer[layerSet]
	buildMu sync.Mutex // serializes rebuilds

	rebuilds atomic.Int64
}

// NewLayerCache creates a LayerCache for the configured layer styles.
func NewLayerCache(store *boundary.Store, config Config, logger *slog.Logger) *LayerCache {
	return &LayerCache{
		store:  store,
		styles: config.Layers,
		radius: config.EarthRadius,
		pool:   NewWorkerPool(config.Workers),
		logger: logger,
	}
}

// Layers returns the border layers for the current store version and that
// version. Rebuilds the set if the store has changed (double-checked locking).
func (c *LayerCache) Layers(ctx context.Context) ([]BorderLayer, uint64) {
	v := c.store.Version()
	if s := c.set.Load(); s != nil && s.version == v {
		return s.layers, s.version
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	v = c.store.Version()
	if s := c.set.Load(); s != nil && s.version == v {
		return s.layers, s.version
	}

	start := time.Now()
	layers := make([]BorderLayer, 0, len(c.styles))
	for _, style := range c.styles {
		l, err := c.buildLayer(ctx, style)
		if err != nil {
			c.logger.Warn("border layer sampling interrupted", "layer", style.Layer, "error", err)
		}
		layers = append(layers, l)
	}
	// Partial layers are served but never cached.
	if ctx.Err() != nil {
		return layers, v
	}

	c.set.Store(&layerSet{version: v, layers: layers, builtAt: time.Now()})
	c.rebuilds.Add(1)
	metrics.IncSceneLayerRebuilds()

	for _, l := range layers {
		metrics.SetSceneLayerPoints(string(l.Style.Layer), l.Points)
	}
	c.logger.Info("scene border layers rebuilt",
		"version", v,
		"layers", len(layers),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return layers, v
}

func (c *LayerCache) buildLayer(ctx context.Context, style LayerStyle) (BorderLayer, error) {
	st := c.store.Get(style.Layer)
	out := BorderLayer{Style: style, State: st.State}
	if st.State != boundary.StateLoaded || st.Document == nil {
		return out, nil
	}

	out.Features = len(st.Document.Features)
	paths, err := c.pool.SampleFeatures(ctx, st.Document.Features, c.radius, geo.SampleOptions{
		Stride:       style.Stride,
		RadiusOffset: style.RadiusOffset,
	})
	out.Paths = paths
	out.Points = geo.CountPoints(paths)
	return out, err
}

// Start keeps the layer set current with the store, checking on every
// interval.
//
// Blocks until ctx is cancelled.
func (c *LayerCache) Start(ctx context.Context, interval time.Duration) {
	c.Layers(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("scene layer cache stopped")
			return
		case <-ticker.C:
			c.Layers(ctx)
		}
	}
}

// LayerStats describes one built border layer.
type LayerStats struct {
	Layer    boundary.Layer `json:"layer"`
	State    boundary.State `json:"state"`
	Features int            `json:"features"`
	Paths    int            `json:"paths"`
	Points   int            `json:"points"`
}

// CacheStats holds layer cache statistics for the stats endpoint.
type CacheStats struct {
	Version  uint64       `json:"version"`
	BuiltAt  time.Time    `json:"built_at"`
	Rebuilds int64        `json:"rebuilds"`
	Layers   []LayerStats `json:"layers"`
}

// Stats returns statistics for the most recently built set.
func (c *LayerCache) Stats() CacheStats {
	stats := CacheStats{Rebuilds: c.rebuilds.Load()}
	s := c.set.Load()
	if s == nil {
		return stats
	}
	stats.Version = s.version
	stats.BuiltAt = s.builtAt
	for _, l := range s.layers {
		stats.Layers = append(stats.Layers, LayerStats{
			Layer:    l.Style.Layer,
			State:    l.State,
			Features: l.Features,
			Paths:    len(l.Paths),
			Points:   l.Points,
		})
	}
	return stats
}
