// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package audit

import "github.com/prometheus/client_golang/prometheus"

// Sink labels for failuresCounter.
const (
	sinkFile  = "file"
	sinkStore = "store"
)

var (
	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opsdash_audit_events_total",
		Help: "Total number of audit events recorded, by action",
	}, []string{"action"})

	failuresCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opsdash_audit_failures_total",
		Help: "Total number of audit sink failures, by sink and reason",
	}, []string{"sink", "reason"})
)

// Collectors returns the metrics owned by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{eventsCounter, failuresCounter}
}
