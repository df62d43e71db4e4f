// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/opsdash/pkg/errutil"
)

func TestBracket(t *testing.T) {
	tests := map[int]string{
		-100: "",
		20:   "<35",
		35:   "<35",
		36:   "35–40",
		40:   "35–40",
		42:   "40–45",
		45:   "40–45",
		46:   "45–50",
		100:  "45–50",
		101:  "",
	}
	for temp, want := range tests {
		assert.Equal(t, want, Bracket(temp), "temp %d", temp)
	}
}

func TestAlignment(t *testing.T) {
	assert.Equal(t, "Aligned", Alignment(0))
	assert.Equal(t, "Aligned", Alignment(2))
	assert.Equal(t, "Aligned", Alignment(-2))
	assert.Equal(t, "Misaligned", Alignment(3))
	assert.Equal(t, "Misaligned", Alignment(-3))
}

func TestForecastSummary(t *testing.T) {
	tests := []struct {
		station string
		want    []string
	}{
		{"KDTW", []string{"KDTW", "2025-10-27", "42", "40", "-2", "40–45", "Aligned"}},
		{"KGRR", []string{"KGRR", "2025-10-27", "39", "41", "2", "35–40", "Aligned"}},
		{"KLAN", []string{"KLAN", "2025-10-27", "41", "38", "-3", "40–45", "Misaligned"}},
	}

	for _, tt := range tests {
		t.Run(tt.station, func(t *testing.T) {
			f := testFilters
			f.Station = tt.station
			view, err := forecastSummary{}.Render(context.Background(), f)
			require.NoError(t, err)
			require.Len(t, view.Tables, 1)
			assert.Equal(t, [][]string{tt.want}, view.Tables[0].Rows)
		})
	}
}

func TestForecastSummary_UnknownStation(t *testing.T) {
	f := testFilters
	f.Station = "KORD"
	_, err := forecastSummary{}.Render(context.Background(), f)
	errutil.AssertErrorCode(t, err, CodeUnknownStation)
}

func TestTemperatureTrend(t *testing.T) {
	view, err := temperatureTrend{}.Render(context.Background(), testFilters)
	require.NoError(t, err)
	require.Len(t, view.Tables, 1)

	rows := view.Tables[0].Rows
	require.Len(t, rows, 10)
	assert.Equal(t, []string{"2025-10-18", "41", "40"}, rows[0])
	assert.Equal(t, []string{"2025-10-27", "42", "40"}, rows[9], "last point is the station reading")
	assert.Equal(t, "KDTW Temperature Trend", view.Tables[0].Caption)
}

func TestROI(t *testing.T) {
	assert.InDelta(t, 0.08, ROI(Long, 0.40, 0.48), 1e-9)
	assert.InDelta(t, 0.03, ROI(Short, 0.45, 0.42), 1e-9)
	assert.InDelta(t, -0.05, ROI(Short, 0.50, 0.55), 1e-9)
}

func TestROISimulator(t *testing.T) {
	view, err := roiSimulator{}.Render(context.Background(), testFilters)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"35–40", "0.40", "0.48", "Long", "0.08"},
		{"40–45", "0.45", "0.42", "Short", "0.03"},
		{"45–50", "0.50", "0.55", "Long", "0.05"},
	}, view.Tables[0].Rows)
}

func TestMarketSnapshot(t *testing.T) {
	view, err := marketSnapshot{}.Render(context.Background(), testFilters)
	require.NoError(t, err)
	rows := view.Tables[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Rain in Lansing?", "0.30", "0.70", "Volatile"}, rows[2])
}

func TestPipelineSelfAudit(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is a note", func(t *testing.T) {
		view, err := pipelineSelfAudit{path: filepath.Join(dir, "absent.json")}.Render(context.Background(), testFilters)
		require.NoError(t, err)
		assert.Equal(t, []string{"No status.json found."}, view.Notes)
	})

	t.Run("totals and runs", func(t *testing.T) {
		path := filepath.Join(dir, "status.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"totals": {"rows": 1200, "failures": 0},
			"last_runs": [
				{"job": "ingest", "ok": true},
				{"job": "backfill", "duration_s": 12.5}
			]
		}`), 0o600))

		view, err := pipelineSelfAudit{path: path}.Render(context.Background(), testFilters)
		require.NoError(t, err)
		require.Len(t, view.Tables, 2)
		assert.Equal(t, [][]string{{"failures", "0"}, {"rows", "1200"}}, view.Tables[0].Rows)
		assert.Equal(t, []string{"duration_s", "job", "ok"}, view.Tables[1].Columns)
		assert.Equal(t, [][]string{
			{"", "ingest", "true"},
			{"12.5", "backfill", ""},
		}, view.Tables[1].Rows)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		_, err := pipelineSelfAudit{path: path}.Render(context.Background(), testFilters)
		errutil.AssertErrorCode(t, err, CodeStatusInvalid)
	})
}

func TestResourceMonitor(t *testing.T) {
	now := time.Date(2025, 10, 27, 12, 0, 0, 0, time.UTC)
	tile := resourceMonitor{
		now: func() time.Time { return now },
		sample: func(context.Context) resourceSample {
			return resourceSample{
				cpuPercent: 12.4, cpuCount: 4, cpuOK: true,
				memPercent: 50, memTotal: 8 << 30, memOK: true,
				goroutines:   7,
				heapAlloc:    3 << 20,
				processStart: now.Add(-90 * time.Second),
			}
		},
	}

	assert.Equal(t, CapAdminOnly, tile.Capability())

	view, err := tile.Render(context.Background(), testFilters)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"CPU Usage", "12% (4 cores)"},
		{"RAM Usage", "50% of 8.00 GB"},
		{"Disk Used", "n/a"},
		{"Load 1m/5m/15m", "n/a"},
		{"Goroutines", "7"},
		{"Heap", "3.00 MB"},
		{"Uptime", "1m30s"},
	}, view.Tables[0].Rows)
}

func TestResourceMonitor_HostSample(t *testing.T) {
	s := hostSample(context.Background())
	assert.Positive(t, s.goroutines)
	assert.False(t, s.processStart.IsZero())
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512.00 B", HumanBytes(512))
	assert.Equal(t, "1.50 KB", HumanBytes(1536))
	assert.Equal(t, "1.00 TB", HumanBytes(1<<40))
	assert.Equal(t, "1024.00 TB", HumanBytes(1<<50))
}
