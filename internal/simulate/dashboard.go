package simulate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

// Options configures a Dashboard.
type Options struct {
	// Seed seeds every widget's random source. Zero seeds from the clock.
	Seed int64
}

// SeriesSet groups the three realtime charts.
type SeriesSet struct {
	Solar SeriesSnapshot `json:"solar"`
	Wind  SeriesSnapshot `json:"wind"`
	Hydro SeriesSnapshot `json:"hydro"`
}

// Snapshot is the combined state of every widget.
type Snapshot struct {
	Clock     ClockSnapshot   `json:"clock"`
	Summary   SummarySnapshot `json:"summary"`
	Gauge     Gauge           `json:"gauge"`
	Series    SeriesSet       `json:"series"`
	Storage   StorageSnapshot `json:"storage"`
	EnergyMix []MixSlice      `json:"energy_mix"`
	History   []HistoryPoint  `json:"history"`
	Weather   WeatherSnapshot `json:"weather"`
}

// Dashboard owns one task per live widget plus the static panels.
type Dashboard struct {
	clock   *Clock
	summary *Summary
	solar   *Series
	wind    *Series
	hydro   *Series
	storage *Storage
	history []HistoryPoint
	logger  *slog.Logger

	mu        sync.RWMutex
	observers []TickFunc
}

// NewDashboard creates every widget. Each task gets its own random source.
func NewDashboard(opts Options, logger *slog.Logger) *Dashboard {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src := func(i int64) Rand { return NewRand(seed + i) }

	now := time.Now()
	return &Dashboard{
		clock:   NewClock(now),
		summary: NewSummary(src(1), now),
		solar:   NewSeries(WidgetSolar, src(2)),
		wind:    NewSeries(WidgetWind, src(3)),
		hydro:   NewSeries(WidgetHydro, src(4)),
		storage: NewStorage(src(5), now),
		history: NewHistory(src(6)),
		logger:  logger,
	}
}

// OnTick registers fn to be called after any widget steps. fn runs on the
// widget's goroutine and must not block.
func (d *Dashboard) OnTick(fn TickFunc) {
	d.mu.Lock()
	d.observers = append(d.observers, fn)
	d.mu.Unlock()
}

func (d *Dashboard) notify(widget string) {
	d.mu.RLock()
	obs := d.observers
	d.mu.RUnlock()
	for _, fn := range obs {
		fn(widget)
	}
}

// Tasks returns the live widget tasks.
func (d *Dashboard) Tasks() []Task {
	return []Task{d.clock, d.summary, d.solar, d.wind, d.hydro, d.storage}
}

// Start runs every widget task on its own goroutine.
//
// Blocks until ctx is cancelled.
func (d *Dashboard) Start(ctx context.Context) {
	tasks := d.Tasks()
	d.logger.Info("dashboard simulation started", "widgets", len(tasks))

	var wg conc.WaitGroup
	for _, t := range tasks {
		t := t
		wg.Go(func() {
			Run(ctx, t, d.logger, d.notify)
		})
	}
	wg.Wait()

	d.logger.Info("dashboard simulation stopped")
}

// Snapshot returns the current state of every widget.
func (d *Dashboard) Snapshot() Snapshot {
	summary := d.summary.Snapshot()
	return Snapshot{
		Clock:   d.clock.Snapshot(),
		Summary: summary,
		Gauge:   GaugeFor(summary.Efficiency),
		Series: SeriesSet{
			Solar: d.solar.Snapshot(),
			Wind:  d.wind.Snapshot(),
			Hydro: d.hydro.Snapshot(),
		},
		Storage:   d.storage.Snapshot(),
		EnergyMix: EnergyMix(),
		History:   d.history,
		Weather:   Weather(),
	}
}

// WidgetSnapshot returns the current snapshot of a live widget by name.
func (d *Dashboard) WidgetSnapshot(widget string) (any, bool) {
	switch widget {
	case WidgetClock:
		return d.clock.Snapshot(), true
	case WidgetSummary:
		return d.summary.Snapshot(), true
	case WidgetSolar:
		return d.solar.Snapshot(), true
	case WidgetWind:
		return d.wind.Snapshot(), true
	case WidgetHydro:
		return d.hydro.Snapshot(), true
	case WidgetStorage:
		return d.storage.Snapshot(), true
	}
	return nil, false
}
