// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dashboard

import (
	"context"
	"strconv"
)

// Position is a market position direction.
type Position string

// Positions.
const (
	Long  Position = "Long"
	Short Position = "Short"
)

// ROI returns the return of a position bought at entry and closed at exit.
func ROI(p Position, entry, exit float64) float64 {
	if p == Long {
		return exit - entry
	}
	return entry - exit
}

type trade struct {
	bracket  string
	entry    float64
	exit     float64
	position Position
}

var trades = []trade{
	{bracket: "35–40", entry: 0.40, exit: 0.48, position: Long},
	{bracket: "40–45", entry: 0.45, exit: 0.42, position: Short},
	{bracket: "45–50", entry: 0.50, exit: 0.55, position: Long},
}

type market struct {
	question  string
	yes       float64
	no        float64
	sentiment string
}

var markets = []market{
	{question: "Will it snow in Detroit?", yes: 0.42, no: 0.58, sentiment: "Rising"},
	{question: "High temp > 45°F in Grand Rapids?", yes: 0.65, no: 0.35, sentiment: "Stable"},
	{question: "Rain in Lansing?", yes: 0.30, no: 0.70, sentiment: "Volatile"},
}

func price(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

type roiSimulator struct{}

func (roiSimulator) Key() string            { return KeyROISimulator }
func (roiSimulator) Title() string          { return "Bracket ROI Simulator" }
func (roiSimulator) Capability() Capability { return CapPublic }

func (roiSimulator) Render(context.Context, Filters) (View, error) {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			t.bracket,
			price(t.entry),
			price(t.exit),
			string(t.position),
			price(ROI(t.position, t.entry, t.exit)),
		})
	}
	return View{Tables: []Table{{
		Columns: []string{"Bracket", "Entry Price", "Exit Price", "Position", "ROI"},
		Rows:    rows,
	}}}, nil
}

type marketSnapshot struct{}

func (marketSnapshot) Key() string            { return KeyMarketSnapshot }
func (marketSnapshot) Title() string          { return "Weather Market Snapshot" }
func (marketSnapshot) Capability() Capability { return CapPublic }

func (marketSnapshot) Render(context.Context, Filters) (View, error) {
	rows := make([][]string, 0, len(markets))
	for _, m := range markets {
		rows = append(rows, []string{m.question, price(m.yes), price(m.no), m.sentiment})
	}
	return View{Tables: []Table{{
		Columns: []string{"Market", "Price Yes", "Price No", "Sentiment"},
		Rows:    rows,
	}}}, nil
}
