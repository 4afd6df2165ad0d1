package geo

import (
	"math"

	"github.com/golang/geo/r3"
)

// TransmissionArc is a power line drawn between two sites on the globe.
type TransmissionArc struct {
	Start GeoPoint `json:"start"`
	End   GeoPoint `json:"end"`
	Color string   `json:"color"`
}

// ArcOptions shapes the Bezier curve of a transmission arc.
type ArcOptions struct {
	Lift        float64 // constant height added above the radius at the control point
	ChordFactor float64 // extra height per unit of chord distance
	Resolution  int     // number of curve segments; the path has Resolution+1 points
}

// DefaultArcOptions returns the arc shape used by the grid scene.
func DefaultArcOptions() ArcOptions {
	return ArcOptions{
		Lift:        2,
		ChordFactor: 0.5,
		Resolution:  50,
	}
}

// Arc is a sampled quadratic Bezier curve between two projected sites.
type Arc struct {
	Start   SpherePoint
	Control SpherePoint
	End     SpherePoint
	Points  []SpherePoint
}

// BuildArc projects both endpoints onto a sphere of the given radius and bends
// a quadratic Bezier curve outward through a control point placed along their
// midpoint direction at radius + Lift + ChordFactor·chord.
func BuildArc(start, end GeoPoint, radius float64, opts ArcOptions) Arc {
	if opts.Resolution < 1 {
		opts.Resolution = 1
	}

	p1 := ProjectPoint(start, radius)
	p2 := ProjectPoint(end, radius)

	mid := p1.Add(p2)
	if mid.Norm() <= 1e-9*math.Max(radius, 1) {
		// Antipodal sites have no midpoint direction.
		mid = r3.Vector{Y: 1}
	}
	dir := mid.Normalize()
	chord := p1.Distance(p2)
	control := dir.Mul(radius + opts.Lift + chord*opts.ChordFactor)

	points := make([]SpherePoint, opts.Resolution+1)
	for i := range points {
		t := float64(i) / float64(opts.Resolution)
		points[i] = QuadraticBezier(p1, control, p2, t)
	}
	// Pin the ends so they match the projected sites exactly.
	points[0] = p1
	points[len(points)-1] = p2

	return Arc{
		Start:   p1,
		Control: control,
		End:     p2,
		Points:  points,
	}
}

// QuadraticBezier evaluates (1−t)²·p0 + 2(1−t)t·c + t²·p1.
func QuadraticBezier(p0, c, p1 SpherePoint, t float64) SpherePoint {
	u := 1 - t
	return p0.Mul(u * u).Add(c.Mul(2 * u * t)).Add(p1.Mul(t * t))
}

// Progress maps elapsed seconds to a loop position in [0, 1) advancing at
// speed cycles per second.
func Progress(elapsed, speed float64) float64 {
	t := math.Mod(elapsed*speed, 1)
	if t < 0 {
		t++
	}
	return t
}

// MarkerAt returns the position of the power packet travelling the arc after
// elapsed seconds. The packet snaps to sampled points and loops forever.
func (a Arc) MarkerAt(elapsed, speed float64) SpherePoint {
	if len(a.Points) == 0 {
		return a.Start
	}
	idx := int(math.Floor(Progress(elapsed, speed) * float64(len(a.Points)-1)))
	return a.Points[idx]
}

// MaxRadius returns the largest distance from the sphere centre along the
// sampled path.
func (a Arc) MaxRadius() float64 {
	var max float64
	for _, p := range a.Points {
		if n := p.Norm(); n > max {
			max = n
		}
	}
	return max
}
