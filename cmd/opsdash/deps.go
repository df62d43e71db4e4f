// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"net"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/opsdash/internal/audit"
	"github.com/holomush/opsdash/internal/observability"
)

// StoreOpener opens the optional audit store. It returns nil, nil when no
// datastore is configured.
type StoreOpener func(ctx context.Context, cfg audit.StoreConfig, opts ...audit.StoreOption) (*audit.StoreSink, error)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// StoreOpener opens the audit store.
	// Default: audit.OpenStoreSink
	StoreOpener StoreOpener

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker, collectors ...prometheus.Collector) ObservabilityServer

	// ListenerFactory creates the dashboard listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)

	// Ready is called with the bound dashboard address once serving.
	Ready func(addr string)
}

// AuditSchemaDeps contains injectable dependencies for the audit-schema
// command.
type AuditSchemaDeps struct {
	// StoreOpener opens the audit store.
	// Default: audit.OpenStoreSink
	StoreOpener StoreOpener
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	if d == nil {
		d = &ServeDeps{}
	}
	if d.StoreOpener == nil {
		d.StoreOpener = audit.OpenStoreSink
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, collectors ...prometheus.Collector) ObservabilityServer {
			return observability.NewServer(addr, ready, collectors...)
		}
	}
	if d.ListenerFactory == nil {
		d.ListenerFactory = net.Listen
	}
	if d.Ready == nil {
		d.Ready = func(string) {}
	}
	return d
}
