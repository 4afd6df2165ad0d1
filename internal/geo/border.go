package geo

import (
	"github.com/paulmach/orb"
)

// BorderPath is one boundary ring sampled onto the sphere, in ring order.
type BorderPath []SpherePoint

// SampleOptions controls how boundary rings are thinned and lifted.
type SampleOptions struct {
	// Stride keeps every Stride-th coordinate, starting with the first.
	// Values below 1 are treated as 1.
	Stride int
	// RadiusOffset is added to the base radius so an overlay layer can sit
	// just above another one sharing the same coastline.
	RadiusOffset float64
}

// SampleGeometry projects every ring of a Polygon or MultiPolygon onto a
// sphere of radius+RadiusOffset. A ring of N coordinates yields ceil(N/Stride)
// points. Nil geometry, empty rings and non-areal geometry types produce no
// paths. No error is ever returned.
func SampleGeometry(g orb.Geometry, radius float64, opts SampleOptions) []BorderPath {
	var polygons []orb.Polygon
	switch v := g.(type) {
	case orb.Polygon:
		polygons = []orb.Polygon{v}
	case orb.MultiPolygon:
		polygons = v
	default:
		return nil
	}

	r := radius + opts.RadiusOffset
	var paths []BorderPath
	for _, polygon := range polygons {
		for _, ring := range polygon {
			if path := SampleRing(ring, r, opts.Stride); len(path) > 0 {
				paths = append(paths, path)
			}
		}
	}
	return paths
}

// SampleRing projects every stride-th coordinate of ring onto a sphere of the
// given radius, preserving order.
func SampleRing(ring orb.Ring, radius float64, stride int) BorderPath {
	if stride < 1 {
		stride = 1
	}
	if len(ring) == 0 {
		return nil
	}

	path := make(BorderPath, 0, (len(ring)+stride-1)/stride)
	for i := 0; i < len(ring); i += stride {
		// orb points are [lon, lat], same order as GeoJSON.
		path = append(path, Project(ring[i][0], ring[i][1], radius))
	}
	return path
}

// CountPoints returns the total number of sampled points across paths.
func CountPoints(paths []BorderPath) int {
	var n int
	for _, p := range paths {
		n += len(p)
	}
	return n
}
