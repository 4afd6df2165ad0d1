package simulate

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fixedRand always returns the same draw, pushing every walk to one edge.
type fixedRand struct{ f float64 }

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) Intn(n int) int   { return int(r.f * float64(n)) }

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{10, 10, 100, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestUniformRange(t *testing.T) {
	r := NewRand(1)
	for i := 0; i < 10000; i++ {
		v := Uniform(r, -2.5, 2.5)
		if v < -2.5 || v >= 2.5 {
			t.Fatalf("Uniform = %v, want within [-2.5, 2.5)", v)
		}
	}
}

func TestSeriesStaysInBounds(t *testing.T) {
	tests := []struct {
		source string
		lo, hi int
	}{
		{WidgetSolar, 0, 100},
		{WidgetWind, 10, 100},
		{WidgetHydro, 10, 100},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			for _, rng := range []Rand{NewRand(42), fixedRand{0}, fixedRand{0.999999}} {
				s := NewSeries(tt.source, rng)
				for i := 0; i < 5000; i++ {
					s.Step(time.Time{})
					snap := s.Snapshot()
					last := snap.Points[len(snap.Points)-1]
					if last.Value < tt.lo || last.Value > tt.hi {
						t.Fatalf("step %d: value %d outside [%d, %d]", i, last.Value, tt.lo, tt.hi)
					}
				}
			}
		})
	}
}

func TestSeriesWindow(t *testing.T) {
	s := NewSeries(WidgetSolar, NewRand(7))
	snap := s.Snapshot()
	if len(snap.Points) != SeriesWindow {
		t.Fatalf("initial window = %d, want %d", len(snap.Points), SeriesWindow)
	}
	for _, p := range snap.Points {
		if p.Value < 30 || p.Value >= 70 {
			t.Errorf("initial value %d outside [30, 70)", p.Value)
		}
	}

	for i := 0; i < 25; i++ {
		s.Step(time.Time{})
	}
	snap = s.Snapshot()
	if len(snap.Points) != SeriesWindow {
		t.Fatalf("window after steps = %d, want %d", len(snap.Points), SeriesWindow)
	}
	for i := 1; i < len(snap.Points); i++ {
		if snap.Points[i].Time != snap.Points[i-1].Time+1 {
			t.Fatalf("times not consecutive at %d: %d then %d", i, snap.Points[i-1].Time, snap.Points[i].Time)
		}
	}
	if got := snap.Points[len(snap.Points)-1].Time; got != SeriesWindow+25 {
		t.Errorf("last time = %d, want %d", got, SeriesWindow+25)
	}
}

func TestSeriesSnapshotIsolated(t *testing.T) {
	s := NewSeries(WidgetWind, NewRand(3))
	before := s.Snapshot()
	first := before.Points[0]
	s.Step(time.Time{})
	if before.Points[0] != first {
		t.Error("published snapshot mutated by a later step")
	}
}

func TestStorageStaysInBounds(t *testing.T) {
	for _, rng := range []Rand{NewRand(9), fixedRand{0}, fixedRand{0.999999}} {
		s := NewStorage(rng, time.Now())
		for i := 0; i < 5000; i++ {
			s.Step(time.Now())
			for _, l := range s.Snapshot().Levels {
				if l.Level < 0 || l.Level > 100 {
					t.Fatalf("%s level %v outside [0, 100]", l.Key, l.Level)
				}
				if l.Percent < 0 || l.Percent > 100 {
					t.Fatalf("%s percent %d outside [0, 100]", l.Key, l.Percent)
				}
			}
		}
	}
}

func TestStorageInitialLevels(t *testing.T) {
	snap := NewStorage(NewRand(1), time.Now()).Snapshot()
	want := map[string]int{"battery": 85, "hydro": 70, "thermal": 92}
	if len(snap.Levels) != len(want) {
		t.Fatalf("levels = %d, want %d", len(snap.Levels), len(want))
	}
	for _, l := range snap.Levels {
		if l.Percent != want[l.Key] {
			t.Errorf("%s = %d, want %d", l.Key, l.Percent, want[l.Key])
		}
	}
}

func TestSummaryRanges(t *testing.T) {
	s := NewSummary(NewRand(11), time.Now())
	for i := 0; i < 5000; i++ {
		s.Step(time.Now())
		snap := s.Snapshot()
		if snap.CapacityGW != 2.5 {
			t.Fatalf("capacity = %v, want 2.5", snap.CapacityGW)
		}
		if snap.GenerationGW < 1.75 || snap.GenerationGW > 1.85 {
			t.Fatalf("generation = %v outside [1.75, 1.85]", snap.GenerationGW)
		}
		if snap.CarbonTons < 1190 || snap.CarbonTons > 1209 {
			t.Fatalf("carbon = %d outside [1190, 1209]", snap.CarbonTons)
		}
		if snap.Efficiency < 93.5 || snap.Efficiency > 95.5 {
			t.Fatalf("efficiency = %v outside [93.5, 95.5]", snap.Efficiency)
		}
		if r := math.Round(snap.Efficiency*10) / 10; r != snap.Efficiency {
			t.Fatalf("efficiency %v not rounded to one decimal", snap.Efficiency)
		}
	}
}

func TestGaugeFor(t *testing.T) {
	arc := math.Pi * 80
	tests := []struct {
		eff        float64
		wantValue  float64
		wantOffset float64
	}{
		{100, 100, 0},
		{0, 0, arc},
		{50, 50, arc / 2},
		{150, 100, 0},
		{-5, 0, arc},
	}
	for _, tt := range tests {
		g := GaugeFor(tt.eff)
		if g.Value != tt.wantValue {
			t.Errorf("GaugeFor(%v).Value = %v, want %v", tt.eff, g.Value, tt.wantValue)
		}
		if math.Abs(g.DashOffset-tt.wantOffset) > 1e-9 {
			t.Errorf("GaugeFor(%v).DashOffset = %v, want %v", tt.eff, g.DashOffset, tt.wantOffset)
		}
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory(NewRand(5))
	if len(h) != 12 {
		t.Fatalf("len(history) = %d, want 12", len(h))
	}
	if h[0].Month != "2024-1" || h[11].Month != "2024-12" {
		t.Errorf("months = %q..%q, want 2024-1..2024-12", h[0].Month, h[11].Month)
	}
	for _, p := range h {
		if p.Generation < 100 || p.Generation >= 200 {
			t.Errorf("%s generation %d outside [100, 200)", p.Month, p.Generation)
		}
		if p.Usage < 80 || p.Usage >= 160 {
			t.Errorf("%s usage %d outside [80, 160)", p.Month, p.Usage)
		}
	}
}

func TestEnergyMixAndWeather(t *testing.T) {
	mix := EnergyMix()
	if len(mix) != 4 || mix[2].Name != "Hydro" || mix[2].Percent != 35.5 {
		t.Errorf("EnergyMix() = %+v", mix)
	}
	w := Weather()
	if len(w.Days) != 3 || w.Days[2].Condition != "Rain" || w.WindSpeedMS != 4.2 || w.HumidityPct != 45 {
		t.Errorf("Weather() = %+v", w)
	}
}

type countingTask struct {
	steps atomic.Int32
}

func (c *countingTask) Name() string            { return "counting" }
func (c *countingTask) Interval() time.Duration { return 5 * time.Millisecond }
func (c *countingTask) Step(time.Time)          { c.steps.Add(1) }

func TestRunStopsOnCancel(t *testing.T) {
	task := &countingTask{}
	var ticks atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, task, testLogger(), func(string) { ticks.Add(1) })
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for task.steps.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if task.steps.Load() < 3 {
		t.Errorf("steps = %d, want at least 3", task.steps.Load())
	}
	if ticks.Load() != task.steps.Load() {
		t.Errorf("onTick calls = %d, steps = %d", ticks.Load(), task.steps.Load())
	}
}

func TestDashboardSnapshot(t *testing.T) {
	d := NewDashboard(Options{Seed: 1}, testLogger())
	snap := d.Snapshot()
	if snap.Summary.CapacityGW != 2.5 {
		t.Errorf("capacity = %v, want 2.5", snap.Summary.CapacityGW)
	}
	if snap.Gauge.Value != snap.Summary.Efficiency {
		t.Errorf("gauge value %v does not follow efficiency %v", snap.Gauge.Value, snap.Summary.Efficiency)
	}
	if len(snap.Series.Solar.Points) != SeriesWindow || snap.Series.Hydro.Source != WidgetHydro {
		t.Errorf("series = %+v", snap.Series)
	}
	if len(d.Tasks()) != 6 {
		t.Errorf("tasks = %d, want 6", len(d.Tasks()))
	}
	for _, task := range d.Tasks() {
		if _, ok := d.WidgetSnapshot(task.Name()); !ok {
			t.Errorf("WidgetSnapshot(%q) not found", task.Name())
		}
	}
	if _, ok := d.WidgetSnapshot("nope"); ok {
		t.Error("WidgetSnapshot(nope) should not be found")
	}
}

func TestDashboardHistoryStable(t *testing.T) {
	d := NewDashboard(Options{Seed: 1}, testLogger())
	a := d.Snapshot().History
	b := d.Snapshot().History
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("history changed between snapshots at %d", i)
		}
	}
}
