// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dashboard

import (
	"context"
	"strconv"
	"time"

	"github.com/samber/oops"
)

// Tile keys.
const (
	KeyForecastSummary   = "forecast_summary"
	KeyTemperatureTrend  = "temperature_trend"
	KeyROISimulator      = "roi_simulator"
	KeyMarketSnapshot    = "market_snapshot"
	KeyPipelineSelfAudit = "pipeline_self_audit"
	KeyResourceMonitor   = "resource_monitor"
)

// AlignmentTolerance is the largest |observed - forecast| still reported
// as Aligned.
const AlignmentTolerance = 2

type reading struct {
	forecast int
	observed int
}

var readings = map[string]reading{
	"KDTW": {forecast: 42, observed: 40},
	"KGRR": {forecast: 39, observed: 41},
	"KLAN": {forecast: 41, observed: 38},
}

// trailing nine days before the selected date; the tenth point is the
// station's reading.
var (
	trendForecast = []int{41, 42, 43, 44, 42, 40, 39, 41, 42}
	trendObserved = []int{40, 41, 42, 43, 41, 39, 38, 40, 41}
)

func readingFor(station string) (reading, error) {
	r, ok := readings[station]
	if !ok {
		return reading{}, oops.Code(CodeUnknownStation).With("station", station).Errorf("no data for station %q", station)
	}
	return r, nil
}

// Bracket returns the temperature bracket label for t. Buckets are
// right-inclusive: 35 is "<35" and 40 is "35–40". Values outside
// (-100, 100] have no bracket.
func Bracket(t int) string {
	switch {
	case t <= -100 || t > 100:
		return ""
	case t <= 35:
		return "<35"
	case t <= 40:
		return "35–40"
	case t <= 45:
		return "40–45"
	default:
		return "45–50"
	}
}

// Alignment reports whether an observed/forecast delta is within tolerance.
func Alignment(delta int) string {
	if delta < 0 {
		delta = -delta
	}
	if delta <= AlignmentTolerance {
		return "Aligned"
	}
	return "Misaligned"
}

type forecastSummary struct{}

func (forecastSummary) Key() string            { return KeyForecastSummary }
func (forecastSummary) Title() string          { return "Forecast vs Observed" }
func (forecastSummary) Capability() Capability { return CapPublic }

func (forecastSummary) Render(_ context.Context, f Filters) (View, error) {
	r, err := readingFor(f.Station)
	if err != nil {
		return View{}, err
	}
	delta := r.observed - r.forecast
	return View{Tables: []Table{{
		Columns: []string{"Station", "Date", "Forecast Temp", "Observed Temp", "Delta", "Bracket", "Alignment"},
		Rows: [][]string{{
			f.Station,
			f.Date.Format(time.DateOnly),
			strconv.Itoa(r.forecast),
			strconv.Itoa(r.observed),
			strconv.Itoa(delta),
			Bracket(r.forecast),
			Alignment(delta),
		}},
	}}}, nil
}

type temperatureTrend struct{}

func (temperatureTrend) Key() string            { return KeyTemperatureTrend }
func (temperatureTrend) Title() string          { return "Temperature Trend (Past 10 Days)" }
func (temperatureTrend) Capability() Capability { return CapPublic }

func (temperatureTrend) Render(_ context.Context, f Filters) (View, error) {
	r, err := readingFor(f.Station)
	if err != nil {
		return View{}, err
	}
	forecast := append(append([]int(nil), trendForecast...), r.forecast)
	observed := append(append([]int(nil), trendObserved...), r.observed)

	start := f.Date.AddDate(0, 0, -(len(forecast) - 1))
	rows := make([][]string, len(forecast))
	for i := range forecast {
		rows[i] = []string{
			start.AddDate(0, 0, i).Format(time.DateOnly),
			strconv.Itoa(forecast[i]),
			strconv.Itoa(observed[i]),
		}
	}
	return View{Tables: []Table{{
		Caption: f.Station + " Temperature Trend",
		Columns: []string{"Date", "Forecast Temp", "Observed Temp"},
		Rows:    rows,
	}}}, nil
}
