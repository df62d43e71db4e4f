// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/holomush/opsdash/internal/auth"
	"github.com/holomush/opsdash/internal/dashboard"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

type page struct {
	Session         *auth.Session
	IsViewer        bool
	LoginTime       string
	Error           string
	Notice          string
	Warnings        []string
	Station         string
	Date            string
	Stations        []string
	Columns         []dashboard.RenderedColumn
	StoreConfigured bool
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, sess *auth.Session, f dashboard.Filters, notice string, warnings []string) {
	isViewer := s.resolver.IsViewer(sess)
	s.render(w, r, status, page{
		Session:   sess,
		IsViewer:  isViewer,
		LoginTime: sess.EstablishedAt.UTC().Format(time.RFC3339),
		Notice:    notice,
		Warnings:  warnings,
		Station:   f.Station,
		Date:      f.Date.Format(time.DateOnly),
		Stations:  s.cfg.Stations,
		Columns:   s.tiles.Render(r.Context(), isViewer, f),
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, p page) {
	p.StoreConfigured = s.cfg.StoreConfigured

	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "page.html", p); err != nil {
		s.log.ErrorContext(r.Context(), "render page",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	w.Write(buf.Bytes())
}
