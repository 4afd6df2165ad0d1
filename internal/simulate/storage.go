package simulate

import (
	"math"
	"sync/atomic"
	"time"
)

// StorageLevel is one storage facility's fill level.
type StorageLevel struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Level    float64 `json:"level"`
	Percent  int     `json:"percent"`
	Capacity string  `json:"capacity"`
}

// StorageSnapshot lists every facility in display order.
type StorageSnapshot struct {
	Levels    []StorageLevel `json:"levels"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type facility struct {
	key      string
	label    string
	capacity string
	delta    float64
	level    float64
}

// Storage random-walks battery, pumped hydro and thermal storage levels,
// each clamped to [0, 100].
type Storage struct {
	rng        Rand
	facilities []facility
	snap       atomic.Pointer[StorageSnapshot]
}

// NewStorage creates the storage widget at its initial levels.
func NewStorage(rng Rand, now time.Time) *Storage {
	s := &Storage{
		rng: rng,
		facilities: []facility{
			{key: "battery", label: "Battery Array", capacity: "2.3 GW", delta: 2, level: 85},
			{key: "hydro", label: "Pumped Hydro", capacity: "1000 T", delta: 1, level: 70},
			{key: "thermal", label: "Thermal Storage", capacity: "2000 T", delta: 1.5, level: 92},
		},
	}
	s.publish(now)
	return s
}

func (s *Storage) Name() string            { return WidgetStorage }
func (s *Storage) Interval() time.Duration { return 2 * time.Second }

func (s *Storage) Step(now time.Time) {
	for i := range s.facilities {
		f := &s.facilities[i]
		f.level = Perturb(s.rng, f.level, f.delta, 0, 100)
	}
	s.publish(now)
}

func (s *Storage) publish(now time.Time) {
	levels := make([]StorageLevel, len(s.facilities))
	for i, f := range s.facilities {
		levels[i] = StorageLevel{
			Key:      f.key,
			Label:    f.label,
			Level:    f.level,
			Percent:  int(math.Round(f.level)),
			Capacity: f.capacity,
		}
	}
	s.snap.Store(&StorageSnapshot{Levels: levels, UpdatedAt: now})
}

// Snapshot returns the last published levels.
func (s *Storage) Snapshot() StorageSnapshot {
	return *s.snap.Load()
}
