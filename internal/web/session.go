// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/holomush/opsdash/internal/auth"
	"github.com/holomush/opsdash/pkg/errutil"
)

type contextKeySession struct{}

// SessionFrom returns the session loaded for the request, or nil when the
// request is anonymous.
func SessionFrom(ctx context.Context) *auth.Session {
	s, _ := ctx.Value(contextKeySession{}).(*auth.Session)
	return s
}

func withSession(ctx context.Context, s *auth.Session) context.Context {
	return context.WithValue(ctx, contextKeySession{}, s)
}

// loadSession resumes the session cookie. Invalid or expired cookies are
// cleared and the request continues anonymously.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(s.cfg.CookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := s.resolver.Resume(r.Context(), c.Value)
		if err != nil {
			s.log.DebugContext(r.Context(), "session cookie rejected",
				"code", errutil.Code(err),
				"request_id", middleware.GetReqID(r.Context()))
			s.clearCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

// requireAdmin rejects callers that are not admins with 403. Nothing is
// recorded for a rejected call.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r.Context())
		if s.resolver.IsViewer(sess) {
			username := ""
			if sess != nil {
				username = sess.Username
			}
			s.log.WarnContext(r.Context(), "admin action refused",
				"path", r.URL.Path,
				"username", username,
				"request_id", middleware.GetReqID(r.Context()))
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) setCookie(w http.ResponseWriter, token string, sess *auth.Session) {
	maxAge := int(sess.ExpiresAt.Sub(s.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}
