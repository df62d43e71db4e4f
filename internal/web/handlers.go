// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/holomush/opsdash/internal/audit"
	"github.com/holomush/opsdash/internal/auth"
	"github.com/holomush/opsdash/internal/dashboard"
	"github.com/holomush/opsdash/pkg/errutil"
)

// msgInvalidCredentials is the only text shown for a failed login.
const msgInvalidCredentials = "Invalid credentials"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	if sess == nil {
		s.render(w, r, http.StatusOK, page{Notice: "Please log in to access the dashboard."})
		return
	}
	s.renderDashboard(w, r, http.StatusOK, sess, s.filters(r), "", nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	sess, err := s.resolver.Authenticate(ctx, username, password)
	if err != nil {
		rep := s.events.Record(ctx, s.failedLoginEvent(r, username))
		s.render(w, r, http.StatusUnauthorized, page{Error: msgInvalidCredentials, Warnings: rep.Warnings})
		return
	}

	token, err := s.resolver.Issue(sess)
	if err != nil {
		errutil.LogError(s.log, "issue session token", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	s.setCookie(w, token, sess)

	f := s.defaultFilters()
	ev := s.event(r, sess, audit.ActionLogin).
		With(audit.KeyStation, f.Station).
		With(audit.KeySelectedDate, f.Date.Format(time.DateOnly))
	rep := s.events.Record(ctx, ev)

	s.renderDashboard(w, r, http.StatusOK, sess, f, "", rep.Warnings)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	s.clearCookie(w)
	if sess == nil {
		s.render(w, r, http.StatusOK, page{Notice: "Please log in to access the dashboard."})
		return
	}
	rep := s.events.Record(r.Context(), s.event(r, sess, audit.ActionLogout))
	s.render(w, r, http.StatusOK, page{Notice: "Signed out.", Warnings: rep.Warnings})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	rep := s.events.Record(r.Context(), s.event(r, sess, audit.ActionRunIngest))
	s.renderDashboard(w, r, http.StatusOK, sess, s.filters(r), "Ingestion started (placeholder).", rep.Warnings)
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	rep := s.events.Record(r.Context(), s.event(r, sess, audit.ActionRunBackfill))
	s.renderDashboard(w, r, http.StatusOK, sess, s.filters(r), "Backfill started (placeholder).", rep.Warnings)
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	station := strings.TrimSpace(r.PostFormValue("override_station"))
	if station == "" {
		s.renderDashboard(w, r, http.StatusBadRequest, sess, s.filters(r), "Enter a station ID to queue an override.", nil)
		return
	}
	ev := s.event(r, sess, audit.ActionOverrideStation).With(audit.KeyOverrideValue, station)
	rep := s.events.Record(r.Context(), ev)
	s.renderDashboard(w, r, http.StatusOK, sess, s.filters(r), "Override queued for station: "+station, rep.Warnings)
}

// handleAdminTest records only whether a value was supplied. The value
// itself is never stored or echoed.
func (s *Server) handleAdminTest(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	if strings.TrimSpace(r.PostFormValue("test_value")) == "" {
		s.renderDashboard(w, r, http.StatusBadRequest, sess, s.filters(r), "Enter a value to record an admin test.", nil)
		return
	}
	ev := s.event(r, sess, audit.ActionAdminTest).With(audit.KeyValuePresent, true)
	rep := s.events.Record(r.Context(), ev)
	s.renderDashboard(w, r, http.StatusOK, sess, s.filters(r), "Admin-only action recorded.", rep.Warnings)
}

func (s *Server) event(r *http.Request, sess *auth.Session, action audit.Action) audit.Event {
	return audit.Event{
		Username:    sess.Username,
		DisplayName: sess.DisplayName,
		Action:      action,
		Timestamp:   s.now(),
		IsViewer:    s.resolver.IsViewer(sess),
	}.With(audit.KeyClientIP, clientIP(r))
}

// failedLoginEvent names the principal only when the attempted username
// is configured. Anything else may be a mistyped password, so only its
// keyed digest is kept.
func (s *Server) failedLoginEvent(r *http.Request, username string) audit.Event {
	ev := audit.Event{
		Action:    audit.ActionLoginFailed,
		Timestamp: s.now(),
		IsViewer:  true,
	}
	if p, ok := s.resolver.Lookup(username); ok {
		ev.Username = p.Username
		ev.DisplayName = p.DisplayName
		ev.IsViewer = !p.IsAdmin()
	} else if username != "" {
		ev = ev.With(audit.KeyAttemptedDigest, audit.UsernameDigest(s.cfg.DigestKey, username))
	}
	return ev.With(audit.KeyClientIP, clientIP(r))
}

func (s *Server) defaultFilters() dashboard.Filters {
	f := dashboard.Filters{Date: s.cfg.DefaultDate}
	if len(s.cfg.Stations) > 0 {
		f.Station = s.cfg.Stations[0]
	}
	return f
}

// filters reads the station and date selections. Unknown stations and
// malformed dates fall back to the defaults.
func (s *Server) filters(r *http.Request) dashboard.Filters {
	f := s.defaultFilters()
	if st := r.FormValue("station"); st != "" && slices.Contains(s.cfg.Stations, st) {
		f.Station = st
	}
	if d := r.FormValue("date"); d != "" {
		if t, err := time.Parse(time.DateOnly, d); err == nil {
			f.Date = t
		}
	}
	return f
}
