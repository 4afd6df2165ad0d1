package simulate

import (
	"math"
	"sync/atomic"
	"time"
)

// Widget names, used as task names, metric labels and publish subjects.
const (
	WidgetClock   = "clock"
	WidgetSummary = "summary"
	WidgetSolar   = "solar"
	WidgetWind    = "wind"
	WidgetHydro   = "hydro"
	WidgetStorage = "storage"
)

// ClockSnapshot is the header clock.
type ClockSnapshot struct {
	Time time.Time `json:"time"`
}

// Clock publishes the server time every second.
type Clock struct {
	snap atomic.Pointer[ClockSnapshot]
}

// NewClock creates a Clock showing now.
func NewClock(now time.Time) *Clock {
	c := &Clock{}
	c.snap.Store(&ClockSnapshot{Time: now})
	return c
}

func (c *Clock) Name() string            { return WidgetClock }
func (c *Clock) Interval() time.Duration { return time.Second }

func (c *Clock) Step(now time.Time) {
	c.snap.Store(&ClockSnapshot{Time: now})
}

// Snapshot returns the last published time.
func (c *Clock) Snapshot() ClockSnapshot {
	return *c.snap.Load()
}

// Summary stat baselines.
const (
	CapacityGW         = 2.5
	baseGenerationGW   = 1.8
	generationJitterGW = 0.05
	baseCarbonTons     = 1200
	carbonJitterTons   = 10
	baseEfficiency     = 94.5
	efficiencyJitter   = 1
)

// SummarySnapshot holds the four headline stats.
type SummarySnapshot struct {
	CapacityGW   float64   `json:"capacity_gw"`
	GenerationGW float64   `json:"generation_gw"`
	CarbonTons   int       `json:"carbon_tons"`
	Efficiency   float64   `json:"efficiency_pct"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary resamples the headline stats around fixed baselines. Each sample
// is independent of the previous one.
type Summary struct {
	rng  Rand
	snap atomic.Pointer[SummarySnapshot]
}

// NewSummary creates a Summary holding the baselines.
func NewSummary(rng Rand, now time.Time) *Summary {
	s := &Summary{rng: rng}
	s.snap.Store(&SummarySnapshot{
		CapacityGW:   CapacityGW,
		GenerationGW: baseGenerationGW,
		CarbonTons:   baseCarbonTons,
		Efficiency:   baseEfficiency,
		UpdatedAt:    now,
	})
	return s
}

func (s *Summary) Name() string            { return WidgetSummary }
func (s *Summary) Interval() time.Duration { return 3 * time.Second }

func (s *Summary) Step(now time.Time) {
	s.snap.Store(&SummarySnapshot{
		CapacityGW:   CapacityGW,
		GenerationGW: roundTo(baseGenerationGW+Uniform(s.rng, -generationJitterGW, generationJitterGW), 3),
		CarbonTons:   int(math.Floor(baseCarbonTons + Uniform(s.rng, -carbonJitterTons, carbonJitterTons))),
		Efficiency:   roundTo(baseEfficiency+Uniform(s.rng, -efficiencyJitter, efficiencyJitter), 1),
		UpdatedAt:    now,
	})
}

// Snapshot returns the last published stats.
func (s *Summary) Snapshot() SummarySnapshot {
	return *s.snap.Load()
}

// gaugeRadius is the radius of the semicircular efficiency gauge.
const gaugeRadius = 80

// Gauge is the stroke geometry of the efficiency gauge.
type Gauge struct {
	Value      float64 `json:"value"`
	ArcLength  float64 `json:"arc_length"`
	DashOffset float64 `json:"dash_offset"`
}

// GaugeFor derives the gauge from an efficiency percentage. The value is
// clamped to [0, 100]; a full gauge has zero dash offset.
func GaugeFor(efficiency float64) Gauge {
	v := Clamp(efficiency, 0, 100)
	arc := math.Pi * gaugeRadius
	return Gauge{
		Value:      v,
		ArcLength:  arc,
		DashOffset: arc * (1 - v/100),
	}
}
