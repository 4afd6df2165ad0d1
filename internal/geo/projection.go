// Package geo maps geographic coordinates onto the globe used by the grid
// scene and builds the border paths and transmission arcs drawn on it.
//
// Axis convention matches the browser renderer: +Y points at the north pole,
// (lon 0, lat 0) lands on +X and longitude increases towards −Z. The mapping
// is a plain equirectangular-to-sphere projection, not an ellipsoid model;
// the globe is decorative and has no physical scale.
package geo

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// GeoPoint is a longitude/latitude pair in degrees.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// SpherePoint is a Cartesian point in scene units.
type SpherePoint = r3.Vector

// Project converts a longitude/latitude pair (degrees) to a point on a sphere
// of the given radius.
//
//	θp = (90 − lat)·π/180    θa = (lon + 180)·π/180
//	x = −r·sin θp·cos θa     y = r·cos θp     z = r·sin θp·sin θa
//
// Inputs are not validated. Out-of-range values still produce a deterministic
// point through the trigonometric identities.
func Project(lon, lat, radius float64) SpherePoint {
	polar := (s1.Angle(90-lat) * s1.Degree).Radians()
	azimuth := (s1.Angle(lon+180) * s1.Degree).Radians()

	sinPolar := math.Sin(polar)
	return SpherePoint{
		X: -radius * sinPolar * math.Cos(azimuth),
		Y: radius * math.Cos(polar),
		Z: radius * sinPolar * math.Sin(azimuth),
	}
}

// ProjectPoint is Project for a GeoPoint.
func ProjectPoint(p GeoPoint, radius float64) SpherePoint {
	return Project(p.Lon, p.Lat, radius)
}

// Array returns p as an [x, y, z] triple for wire payloads.
func Array(p SpherePoint) [3]float64 {
	return [3]float64{p.X, p.Y, p.Z}
}
