// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var requestsCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "opsdash_http_requests_total",
		Help: "HTTP requests by route pattern and status code",
	},
	[]string{"route", "status"},
)

// Collectors returns the web metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{requestsCounter}
}

// countRequests records each request under its chi route pattern, so
// path values never become label values.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		requestsCounter.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
