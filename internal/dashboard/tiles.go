// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dashboard

import "time"

// TileOptions configures the built-in tiles.
type TileOptions struct {
	// StatusPath is the pipeline status document. Defaults to
	// DefaultStatusPath.
	StatusPath string
}

// NewDefaultRegistry returns a registry holding every built-in tile.
func NewDefaultRegistry(opts TileOptions) *Registry {
	if opts.StatusPath == "" {
		opts.StatusPath = DefaultStatusPath
	}
	r := NewRegistry()
	for _, t := range []Tile{
		forecastSummary{},
		temperatureTrend{},
		roiSimulator{},
		marketSnapshot{},
		pipelineSelfAudit{path: opts.StatusPath},
		resourceMonitor{sample: hostSample, now: time.Now},
	} {
		// Keys are distinct constants; Register cannot fail here.
		_ = r.Register(t)
	}
	return r
}
