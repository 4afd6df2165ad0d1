package scene

import (
	"math"

	"github.com/golang/geo/r3"
)

// polarEpsilon keeps the camera off the poles, where the orbit is degenerate.
const polarEpsilon = 1e-6

// Camera is an orbit camera around the origin. Azimuth is measured around +Y
// from +Z; Polar is measured from +Y. There is no pan.
type Camera struct {
	Azimuth  float64 `json:"azimuth"`
	Polar    float64 `json:"polar"`
	Distance float64 `json:"distance"`
	FOV      float64 `json:"fov"`
}

// DefaultCamera looks at the origin from (0, 0, 70).
func DefaultCamera() Camera {
	return Camera{
		Azimuth:  0,
		Polar:    math.Pi / 2,
		Distance: 70,
		FOV:      45,
	}
}

// Clamp limits distance to [MinDistance, MaxDistance] and polar to (0, π).
func (c Camera) Clamp(l CameraLimits) Camera {
	if l.MaxDistance > 0 {
		c.Distance = math.Max(l.MinDistance, math.Min(l.MaxDistance, c.Distance))
	}
	c.Polar = math.Max(polarEpsilon, math.Min(math.Pi-polarEpsilon, c.Polar))
	c.Azimuth = math.Remainder(c.Azimuth, 2*math.Pi)
	return c
}

// Rotate orbits the camera by the given angles in radians, scaled by the
// rotate speed.
func (c Camera) Rotate(dAzimuth, dPolar float64, l CameraLimits) Camera {
	c.Azimuth += dAzimuth * l.RotateSpeed
	c.Polar += dPolar * l.RotateSpeed
	return c.Clamp(l)
}

// Zoom multiplies the distance by factor.
func (c Camera) Zoom(factor float64, l CameraLimits) Camera {
	c.Distance *= factor
	return c.Clamp(l)
}

// Position returns the camera location in world space.
func (c Camera) Position() r3.Vector {
	sp := math.Sin(c.Polar)
	return r3.Vector{
		X: c.Distance * sp * math.Sin(c.Azimuth),
		Y: c.Distance * math.Cos(c.Polar),
		Z: c.Distance * sp * math.Cos(c.Azimuth),
	}
}
