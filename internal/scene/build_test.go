package scene

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/zuoanCo/visual-modal/internal/boundary"
	"github.com/zuoanCo/visual-modal/internal/geo"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func square(lon, lat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{lon, lat}, {lon + 1, lat}, {lon + 1, lat + 1}, {lon, lat + 1}, {lon, lat},
	}}
}

func defaultArcs(cfg Config) []BuiltArc {
	return BuildArcs(cfg.Arcs, cfg.EarthRadius, cfg.Arc)
}

func TestBuildWithoutBoundaries(t *testing.T) {
	cfg := DefaultConfig()
	f := Build(Input{
		Config: cfg,
		Camera: DefaultCamera(),
		Layers: []BorderLayer{
			{Style: cfg.Layers[0], State: boundary.StateLoaded},
			{Style: cfg.Layers[1], State: boundary.StateLoaded},
		},
		Arcs: defaultArcs(cfg),
	})

	if n := f.Count(KindGlobe); n != 1 {
		t.Errorf("globes = %d, want 1", n)
	}
	if n := f.Count(KindArc); n != 4 {
		t.Errorf("arcs = %d, want 4", n)
	}
	if n := f.Count(KindPacket); n != 4 {
		t.Errorf("packets = %d, want 4", n)
	}
	if n := f.Count(KindBorder); n != 0 {
		t.Errorf("borders = %d, want 0", n)
	}
}

func TestBuildFailedLayersOmitted(t *testing.T) {
	cfg := DefaultConfig()
	f := Build(Input{
		Config: cfg,
		Layers: []BorderLayer{
			{Style: cfg.Layers[0], State: boundary.StateFailed},
			{Style: cfg.Layers[1], State: boundary.StateLoading},
		},
		Arcs: defaultArcs(cfg),
	})
	if n := f.Count(KindBorder); n != 0 {
		t.Errorf("borders = %d, want 0", n)
	}
	if n := f.Count(KindGlobe); n != 1 {
		t.Errorf("globes = %d, want 1", n)
	}
}

func TestBuildPrimitives(t *testing.T) {
	cfg := DefaultConfig()
	paths := geo.SampleGeometry(square(100, 30), cfg.EarthRadius, geo.SampleOptions{Stride: 1})
	f := Build(Input{
		Config:  cfg,
		Camera:  Camera{Polar: math.Pi / 2, Distance: 5},
		Elapsed: 1,
		Version: 7,
		Layers: []BorderLayer{
			{Style: cfg.Layers[0], State: boundary.StateLoaded, Paths: paths},
		},
		Arcs: defaultArcs(cfg),
	})

	if f.Version != 7 {
		t.Errorf("Version = %d, want 7", f.Version)
	}
	if f.Camera.Distance != 40 {
		t.Errorf("camera distance = %v, want clamped 40", f.Camera.Distance)
	}
	if math.Abs(f.Rotation[0]-35*math.Pi/180) > 1e-12 || math.Abs(f.Rotation[1]+105*math.Pi/180) > 1e-12 {
		t.Errorf("Rotation = %v, want [35°, -105°, 0] in radians", f.Rotation)
	}

	for _, p := range f.Primitives {
		switch p.Kind {
		case KindGlobe:
			if math.Abs(p.Radius-29.9) > 1e-12 {
				t.Errorf("globe radius = %v, want 29.9", p.Radius)
			}
		case KindAtmosphere:
			if math.Abs(p.Radius-31.5) > 1e-12 {
				t.Errorf("atmosphere radius = %v, want 31.5", p.Radius)
			}
		case KindStars:
			if p.Count != 5000 || p.Radius != 200 {
				t.Errorf("stars = %d @ %v, want 5000 @ 200", p.Count, p.Radius)
			}
		case KindBorder:
			if p.ID != "border-world" || p.Opacity != 0.15 || p.Color != BorderColor {
				t.Errorf("border = %s/%v/%s", p.ID, p.Opacity, p.Color)
			}
			if len(p.Paths) != 1 || len(p.Paths[0]) != 5 {
				t.Errorf("border paths = %d", len(p.Paths))
			}
		case KindArc:
			if len(p.Points) != 51 {
				t.Errorf("%s points = %d, want 51", p.ID, len(p.Points))
			}
		case KindPacket:
			if p.Position == nil {
				t.Fatalf("%s has no position", p.ID)
			}
			if math.Abs(p.Progress-0.5) > 1e-12 {
				t.Errorf("%s progress = %v, want 0.5", p.ID, p.Progress)
			}
		}
	}
	if n := f.Count(KindPointLight); n != 2 {
		t.Errorf("point lights = %d, want 2", n)
	}
}

func TestPacketPositionsFollowArc(t *testing.T) {
	cfg := DefaultConfig()
	arcs := defaultArcs(cfg)
	pkts := PacketPositions(arcs, 0, cfg.PacketSpeed)
	if len(pkts) != len(arcs) {
		t.Fatalf("packets = %d, want %d", len(pkts), len(arcs))
	}
	for i, p := range pkts {
		if p.Position != geo.Array(arcs[i].Arc.Points[0]) {
			t.Errorf("%s at t=0 = %v, want arc start", p.ID, p.Position)
		}
	}

	// One full loop at 0.5 cycles/s takes 2s.
	a := PacketPositions(arcs, 0.7, cfg.PacketSpeed)
	b := PacketPositions(arcs, 2.7, cfg.PacketSpeed)
	for i := range a {
		if a[i].Position != b[i].Position {
			t.Errorf("%s not periodic: %v vs %v", a[i].ID, a[i].Position, b[i].Position)
		}
	}
}

func TestRendererEndToEndEmptyDocuments(t *testing.T) {
	store := boundary.NewStore(boundary.LayerWorld, boundary.LayerChina)
	store.SetLoaded(&boundary.Document{Layer: boundary.LayerWorld})
	store.SetLoaded(&boundary.Document{Layer: boundary.LayerChina})

	cfg := DefaultConfig()
	r := NewRenderer(cfg, NewLayerCache(store, cfg, testLogger()), testLogger())
	f := r.Frame(context.Background(), DefaultCamera(), 0)

	if f.Count(KindGlobe) != 1 || f.Count(KindArc) != 4 || f.Count(KindBorder) != 0 {
		t.Errorf("frame = %d globes / %d arcs / %d borders, want 1/4/0",
			f.Count(KindGlobe), f.Count(KindArc), f.Count(KindBorder))
	}
	if f.Version != store.Version() {
		t.Errorf("frame version = %d, want %d", f.Version, store.Version())
	}
}

func TestRendererPicksUpLoadedLayer(t *testing.T) {
	store := boundary.NewStore(boundary.LayerWorld, boundary.LayerChina)
	cfg := DefaultConfig()
	r := NewRenderer(cfg, NewLayerCache(store, cfg, testLogger()), testLogger())

	if f := r.Frame(context.Background(), DefaultCamera(), 0); f.Count(KindBorder) != 0 {
		t.Fatalf("borders while loading = %d, want 0", f.Count(KindBorder))
	}

	store.SetLoaded(&boundary.Document{
		Layer:     boundary.LayerChina,
		FetchedAt: time.Now(),
		Features: []boundary.Feature{
			{Name: "a", Geometry: square(100, 30)},
			{Name: "broken"},
			{Name: "b", Geometry: orb.MultiPolygon{square(110, 25), square(112, 26)}},
		},
	})

	f := r.Frame(context.Background(), DefaultCamera(), 0)
	if f.Count(KindBorder) != 1 {
		t.Fatalf("borders = %d, want 1", f.Count(KindBorder))
	}
	stats := r.Stats()
	if stats.Rebuilds != 2 {
		t.Errorf("rebuilds = %d, want 2", stats.Rebuilds)
	}
	for _, l := range stats.Layers {
		if l.Layer != boundary.LayerChina {
			continue
		}
		if l.Features != 3 || l.Paths != 3 {
			t.Errorf("china = %d features / %d paths, want 3/3", l.Features, l.Paths)
		}
		// Ring of 5 points at stride 5 keeps one point.
		if l.Points != 3 {
			t.Errorf("china points = %d, want 3", l.Points)
		}
	}
}
