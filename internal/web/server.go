// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/holomush/opsdash/internal/audit"
	"github.com/holomush/opsdash/internal/auth"
	"github.com/holomush/opsdash/internal/dashboard"
)

// SessionResolver authenticates users and carries sessions across requests.
type SessionResolver interface {
	Authenticate(ctx context.Context, username, password string) (*auth.Session, error)
	Issue(s *auth.Session) (string, error)
	Resume(ctx context.Context, token string) (*auth.Session, error)
	Lookup(username string) (auth.Principal, bool)
	IsViewer(s *auth.Session) bool
}

// EventRecorder records audit events.
type EventRecorder interface {
	Record(ctx context.Context, e audit.Event) audit.Report
}

// Renderer renders the dashboard columns visible to a role.
type Renderer interface {
	Render(ctx context.Context, isViewer bool, f dashboard.Filters) []dashboard.RenderedColumn
}

// Config holds the web settings taken from the loaded configuration.
type Config struct {
	CookieName   string
	SecureCookie bool
	Stations     []string
	DefaultDate  time.Time
	// DigestKey keys the digest recorded for unknown login names.
	DigestKey []byte
	// StoreConfigured is shown in the sidebar connection info.
	StoreConfigured bool
	// TrustProxyHeaders takes the client address from True-Client-IP,
	// X-Real-IP or X-Forwarded-For. Enable only behind a proxy that
	// overwrites them.
	TrustProxyHeaders bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the operator logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the time source used for event timestamps and cookie
// expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server is the dashboard HTTP handler.
type Server struct {
	resolver SessionResolver
	events   EventRecorder
	tiles    Renderer
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
	router   chi.Router
}

// NewServer builds the router.
func NewServer(resolver SessionResolver, events EventRecorder, tiles Renderer, cfg Config, opts ...Option) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "dashboard_cookie"
	}
	s := &Server{
		resolver: resolver,
		events:   events,
		tiles:    tiles,
		cfg:      cfg,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(countRequests)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(s.loadSession)

	r.Get("/", s.handleIndex)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/ingest", s.handleIngest)
		r.Post("/override", s.handleOverride)
		r.Post("/backfill", s.handleBackfill)
		r.Post("/test", s.handleAdminTest)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
