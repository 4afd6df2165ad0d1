package simulate

import (
	"math"
	"sync/atomic"
	"time"
)

// SeriesWindow is the number of points kept per realtime chart.
const SeriesWindow = 20

// SeriesPoint is one sample of a realtime chart. Time is a sequence number.
type SeriesPoint struct {
	Time  int `json:"time"`
	Value int `json:"value"`
}

// SeriesSnapshot is a full chart window, oldest point first.
type SeriesSnapshot struct {
	Source string        `json:"source"`
	Color  string        `json:"color"`
	Unit   string        `json:"unit"`
	Points []SeriesPoint `json:"points"`
}

// walk describes how a series moves between samples.
type walk struct {
	delta  float64
	lo, hi float64
}

type seriesKind struct {
	name  string
	color string
	walk  walk
}

var seriesKinds = map[string]seriesKind{
	WidgetSolar: {name: WidgetSolar, color: "#facc15", walk: walk{delta: 2.5, lo: 0, hi: 100}},
	WidgetWind:  {name: WidgetWind, color: "#4ade80", walk: walk{delta: 5, lo: 10, hi: 100}},
	WidgetHydro: {name: WidgetHydro, color: "#38bdf8", walk: walk{delta: 5, lo: 10, hi: 100}},
}

// Series is a sliding-window random walk for one generation source.
type Series struct {
	kind   seriesKind
	rng    Rand
	points []SeriesPoint
	snap   atomic.Pointer[SeriesSnapshot]
}

// NewSeries creates the chart for source (WidgetSolar, WidgetWind or
// WidgetHydro), seeded with SeriesWindow integer samples in [30, 70).
// Unknown sources behave like wind.
//
// Seed labels ascend 1..SeriesWindow oldest to newest and Step continues
// from the newest. They are not seeded descending (SeriesWindow..1): with
// Step appending newest+1 that would put a jump at the seam.
func NewSeries(source string, rng Rand) *Series {
	kind, ok := seriesKinds[source]
	if !ok {
		kind = seriesKinds[WidgetWind]
		kind.name = source
	}
	s := &Series{
		kind:   kind,
		rng:    rng,
		points: make([]SeriesPoint, SeriesWindow),
	}
	for i := range s.points {
		s.points[i] = SeriesPoint{Time: i + 1, Value: 30 + rng.Intn(40)}
	}
	s.publish()
	return s
}

func (s *Series) Name() string            { return s.kind.name }
func (s *Series) Interval() time.Duration { return 1500 * time.Millisecond }

// Step drops the oldest point and appends the next step of the walk.
func (s *Series) Step(time.Time) {
	last := s.points[len(s.points)-1]
	w := s.kind.walk
	next := SeriesPoint{
		Time:  last.Time + 1,
		Value: int(math.Round(Perturb(s.rng, float64(last.Value), w.delta, w.lo, w.hi))),
	}
	s.points = append(s.points[1:], next)
	s.publish()
}

func (s *Series) publish() {
	pts := make([]SeriesPoint, len(s.points))
	copy(pts, s.points)
	s.snap.Store(&SeriesSnapshot{
		Source: s.kind.name,
		Color:  s.kind.color,
		Unit:   "MW",
		Points: pts,
	})
}

// Snapshot returns the last published window.
func (s *Series) Snapshot() SeriesSnapshot {
	return *s.snap.Load()
}
