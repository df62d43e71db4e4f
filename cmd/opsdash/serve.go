// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/opsdash/internal/audit"
	"github.com/holomush/opsdash/internal/auth"
	"github.com/holomush/opsdash/internal/config"
	"github.com/holomush/opsdash/internal/dashboard"
	"github.com/holomush/opsdash/internal/logging"
	"github.com/holomush/opsdash/internal/web"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		Long: `Start the dashboard HTTP server. The configuration is loaded and
validated first; opsdash refuses to start when it is invalid.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServeWithDeps starts the dashboard with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()

	cfg, err := config.Load(config.Options{Path: configFile, Flags: cmd.Flags()})
	if err != nil {
		reportConfigError(cmd.ErrOrStderr(), err)
		return err
	}

	logger := logging.SetDefault("opsdash", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))

	signingKey := []byte(cfg.Session.SigningKey)
	resolver, err := auth.NewResolver(cfg.PrincipalConfigs(), signingKey,
		auth.WithSessionTTL(cfg.Session.TTL),
		auth.WithLogger(logger))
	if err != nil {
		reportConfigError(cmd.ErrOrStderr(), err)
		return err
	}

	redactor, err := audit.NewRedactor(cfg.Audit.RedactPatterns...)
	if err != nil {
		reportConfigError(cmd.ErrOrStderr(), err)
		return err
	}

	store, err := deps.StoreOpener(ctx, cfg.StoreConfig(), audit.WithStoreLogger(logger))
	if err != nil {
		// The store is optional; the file sink still records every event.
		logger.Warn("audit store disabled", "error", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}
	events := audit.NewLogger(redactor, audit.NewFileSink(cfg.Audit.Path), store, audit.WithLogger(logger))

	layout, err := dashboard.NewDefaultRegistry(dashboard.TileOptions{StatusPath: cfg.Dashboard.StatusJSON}).
		Resolve(dashboard.DefaultManifest(cfg.Server.InternalMode))
	if err != nil {
		return oops.With("operation", "resolve dashboard manifest").Wrap(err)
	}

	handler := web.NewServer(resolver, events, layout.WithLogger(logger), web.Config{
		CookieName:        cfg.Session.CookieName,
		SecureCookie:      cfg.Session.Secure,
		Stations:          cfg.Dashboard.Stations,
		DefaultDate:       cfg.DefaultDate(),
		DigestKey:         digestKey(signingKey),
		StoreConfigured:   events.HasStore(),
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}, web.WithLogger(logger))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listener, err := deps.ListenerFactory("tcp", cfg.Server.Addr)
	if err != nil {
		return oops.With("addr", cfg.Server.Addr).Wrapf(err, "listen")
	}
	httpSrv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var ready atomic.Bool
	var obsServer ObservabilityServer
	if cfg.Server.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Server.MetricsAddr, ready.Load, collectors()...)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			_ = listener.Close()
			return oops.With("addr", cfg.Server.MetricsAddr).Wrapf(err, "start observability server")
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	serveErr := make(chan error, 1)
	go func() {
		defer close(serveErr)
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	ready.Store(true)
	logger.Info("dashboard listening",
		"addr", listener.Addr().String(),
		"internal_mode", cfg.Server.InternalMode,
		"principals", len(resolver.Usernames()),
		"audit_path", cfg.Audit.Path,
		"audit_store", events.HasStore())
	deps.Ready(listener.Addr().String())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			runErr = oops.With("addr", cfg.Server.Addr).Wrapf(err, "dashboard server")
		}
	}

	ready.Store(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping dashboard server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}

func collectors() []prometheus.Collector {
	var out []prometheus.Collector
	out = append(out, audit.Collectors()...)
	out = append(out, auth.Collectors()...)
	out = append(out, web.Collectors()...)
	out = append(out, dashboard.Collectors()...)
	return out
}

// digestKey derives the key for attempted-username digests so it differs
// from the session signing key.
func digestKey(signingKey []byte) []byte {
	h := sha256.New()
	h.Write([]byte("opsdash audit digest\x00"))
	h.Write(signingKey)
	return h.Sum(nil)
}

// monitorServerErrors watches a server's error channel and cancels the
// context if an error occurs.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
