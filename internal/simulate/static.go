package simulate

import "fmt"

// MixSlice is one share of the energy structure chart.
type MixSlice struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// EnergyMix returns the fixed generation mix.
func EnergyMix() []MixSlice {
	return []MixSlice{
		{Name: "Solar", Percent: 20.9, Color: "#facc15"},
		{Name: "Wind", Percent: 22.7, Color: "#4ade80"},
		{Name: "Hydro", Percent: 35.5, Color: "#38bdf8"},
		{Name: "Thermal", Percent: 15.3, Color: "#f87171"},
	}
}

// HistoryPoint is one month of the historical operation chart.
type HistoryPoint struct {
	Month      string `json:"month"`
	Generation int    `json:"generation"`
	Usage      int    `json:"usage"`
}

// NewHistory generates twelve months of history. It is drawn once per
// process and never changes afterwards.
func NewHistory(rng Rand) []HistoryPoint {
	out := make([]HistoryPoint, 12)
	for i := range out {
		out[i] = HistoryPoint{
			Month:      fmt.Sprintf("2024-%d", i+1),
			Generation: 100 + rng.Intn(100),
			Usage:      80 + rng.Intn(80),
		}
	}
	return out
}

// Forecast is one day of the weather widget.
type Forecast struct {
	Day       string `json:"day"`
	Condition string `json:"condition"`
	TempC     int    `json:"temp_c"`
}

// WeatherSnapshot is the fixed weather panel.
type WeatherSnapshot struct {
	Days        []Forecast `json:"days"`
	WindSpeedMS float64    `json:"wind_speed_ms"`
	HumidityPct int        `json:"humidity_pct"`
}

// Weather returns the fixed forecast.
func Weather() WeatherSnapshot {
	return WeatherSnapshot{
		Days: []Forecast{
			{Day: "Today", Condition: "Sunny", TempC: 24},
			{Day: "Tomorrow", Condition: "Cloudy", TempC: 22},
			{Day: "Wed", Condition: "Rain", TempC: 19},
		},
		WindSpeedMS: 4.2,
		HumidityPct: 45,
	}
}
