package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/zuoanCo/visual-modal/internal/boundary"
	"github.com/zuoanCo/visual-modal/internal/geo"
	"github.com/zuoanCo/visual-modal/internal/scene"
)

// diag inspects a boundary GeoJSON file the way the scene would sample it,
// and prints the transmission arcs with packet positions.
func main() {
	stride := pflag.Int("stride", 1, "keep every n-th coordinate of each ring")
	offset := pflag.Float64("offset", 0, "radius offset above the globe surface")
	radius := pflag.Float64("radius", scene.DefaultConfig().EarthRadius, "globe radius")
	elapsed := pflag.Float64("elapsed", 0, "animation time in seconds for packet positions")
	top := pflag.Int("top", 10, "number of features to list")
	pflag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg := scene.DefaultConfig()

	if pflag.NArg() > 0 {
		path := pflag.Arg(0)
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Println("ERROR reading boundary file:", err)
			os.Exit(1)
		}
		features, err := boundary.Parse(data, logger)
		if err != nil {
			fmt.Println("ERROR parsing boundary file:", err)
			os.Exit(1)
		}
		fmt.Printf("Loaded %d features from %s\n", len(features), path)

		opts := geo.SampleOptions{Stride: *stride, RadiusOffset: *offset}
		pool := scene.NewWorkerPool(cfg.Workers)
		paths, err := pool.SampleFeatures(context.Background(), features, *radius, opts)
		if err != nil {
			fmt.Println("ERROR sampling features:", err)
			os.Exit(1)
		}
		fmt.Printf("Sampled %d rings, %d points (stride %d, offset %.2f)\n",
			len(paths), geo.CountPoints(paths), *stride, *offset)

		for i, f := range features {
			if i >= *top {
				fmt.Printf("  ... %d more\n", len(features)-i)
				break
			}
			fp := geo.SampleGeometry(f.Geometry, *radius, opts)
			name := f.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("  %-24s rings=%-4d points=%d\n", name, len(fp), geo.CountPoints(fp))
		}
	}

	arcs := scene.BuildArcs(cfg.Arcs, *radius, cfg.Arc)
	packets := scene.PacketPositions(arcs, *elapsed, cfg.PacketSpeed)
	fmt.Printf("Transmission arcs (elapsed %.2fs):\n", *elapsed)
	for i, a := range arcs {
		p := packets[i]
		fmt.Printf("  %s %s samples=%d peak=%.2f progress=%.3f packet=(%.2f, %.2f, %.2f)\n",
			a.ID, a.Color, len(a.Arc.Points), a.Arc.MaxRadius(), p.Progress,
			p.Position[0], p.Position[1], p.Position[2])
	}
}
