// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/opsdash/internal/audit"
	"github.com/holomush/opsdash/internal/auth"
	"github.com/holomush/opsdash/internal/config"
	"github.com/holomush/opsdash/pkg/errutil"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func validConfig() *config.Config {
	cfg := config.Default()
	cfg.Principals = map[string]config.PrincipalConfig{
		"admin":  {DisplayName: "Admin", Email: "admin@example.com", Role: "admin", Password: "admin-pass"},
		"viewer": {DisplayName: "Viewer", Role: "viewer", Password: "viewer-pass"},
	}
	cfg.Session.SigningKey = testSigningKey
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "dashboard_cookie", cfg.Session.CookieName)
	assert.Equal(t, 168*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "login_events.jsonl", cfg.Audit.Path)
	assert.Equal(t, "user_login_events", cfg.Audit.Table)
	assert.Equal(t, 5432, cfg.Datastore.Port)
	assert.Equal(t, 2*time.Second, cfg.Datastore.Timeout)
	assert.Equal(t, "127.0.0.1:8501", cfg.Server.Addr)
	assert.False(t, cfg.Server.TrustProxyHeaders, "proxy headers are untrusted by default")
	assert.Equal(t, []string{"KDTW", "KGRR", "KLAN"}, cfg.Dashboard.Stations)
	assert.Equal(t, "2025-10-27", cfg.Dashboard.DefaultDate)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		field  string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"no principals", func(c *config.Config) { c.Principals = nil }, "principals"},
		{"unknown role", func(c *config.Config) {
			c.Principals["root"] = config.PrincipalConfig{Role: "superuser", Password: "x"}
		}, "principals.root.role"},
		{"short signing key", func(c *config.Config) { c.Session.SigningKey = "short" }, "session.signing_key"},
		{"empty cookie name", func(c *config.Config) { c.Session.CookieName = "" }, "session.cookie_name"},
		{"zero ttl", func(c *config.Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"empty audit path", func(c *config.Config) { c.Audit.Path = "" }, "audit.path"},
		{"bad redact pattern", func(c *config.Config) { c.Audit.RedactPatterns = []string{"[x"} }, "audit.redact_patterns"},
		{"zero store timeout", func(c *config.Config) { c.Datastore.Timeout = 0 }, "datastore.timeout"},
		{"store timeout above max", func(c *config.Config) { c.Datastore.Timeout = 6 * time.Second }, "datastore.timeout"},
		{"empty addr", func(c *config.Config) { c.Server.Addr = "" }, "server.addr"},
		{"no stations", func(c *config.Config) { c.Dashboard.Stations = nil }, "dashboard.stations"},
		{"bad default date", func(c *config.Config) { c.Dashboard.DefaultDate = "10/27/2025" }, "dashboard.default_date"},
		{"bad log format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad log level", func(c *config.Config) { c.Log.Level = "trace" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, config.CodeInvalid)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfig_Validate_MaxTimeoutAccepted(t *testing.T) {
	cfg := validConfig()
	cfg.Datastore.Timeout = audit.MaxStoreTimeout
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Session.SigningKey = ""
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.signing_key")
	assert.Contains(t, err.Error(), "log.format")
	errutil.AssertErrorCode(t, err, config.CodeInvalid)
	errutil.AssertErrorFields(t, err, "session.signing_key", "log.format")
}

func TestConfig_PrincipalConfigs(t *testing.T) {
	got := validConfig().PrincipalConfigs()

	assert.Equal(t, []auth.PrincipalConfig{
		{Username: "admin", DisplayName: "Admin", Email: "admin@example.com", Role: "admin", Secret: "admin-pass"},
		{Username: "viewer", DisplayName: "Viewer", Role: "viewer", Secret: "viewer-pass"},
	}, got)
}

func TestConfig_StoreConfig(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.StoreConfig().Configured(), "no datastore by default")

	cfg.Datastore.Host = "db"
	cfg.Datastore.User = "ops"
	cfg.Audit.Table = "events"

	sc := cfg.StoreConfig()
	assert.True(t, sc.Configured())
	assert.Equal(t, "events", sc.Table)
	assert.Equal(t, 5432, sc.Port)
	assert.Equal(t, 2*time.Second, sc.Timeout)
}

func TestConfig_DefaultDate(t *testing.T) {
	assert.Equal(t, time.Date(2025, 10, 27, 0, 0, 0, 0, time.UTC), validConfig().DefaultDate())
}

func TestConfig_Redacted(t *testing.T) {
	cfg := validConfig()
	cfg.Datastore.Password = "pg-secret"
	cfg.Datastore.URL = "postgres://ops:url-secret@db:5432/dash?sslmode=disable"

	red := cfg.Redacted()

	assert.Equal(t, config.Masked, red.Principals["admin"].Password)
	assert.Equal(t, "Admin", red.Principals["admin"].DisplayName)
	assert.Equal(t, config.Masked, red.Session.SigningKey)
	assert.Equal(t, config.Masked, red.Datastore.Password)
	assert.NotContains(t, red.Datastore.URL, "url-secret")
	assert.Contains(t, red.Datastore.URL, "ops:")

	assert.Equal(t, "admin-pass", cfg.Principals["admin"].Password, "original is untouched")
	assert.Equal(t, testSigningKey, cfg.Session.SigningKey)
}
