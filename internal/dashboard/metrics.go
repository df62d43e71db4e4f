// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dashboard

import "github.com/prometheus/client_golang/prometheus"

var renderFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "opsdash_tile_render_failures_total",
		Help: "Tile renders that returned an error or panicked",
	},
	[]string{"tile"},
)

// Collectors returns the dashboard metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{renderFailures}
}
