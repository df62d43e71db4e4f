// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads the opsdash configuration. It is read once at
// startup and treated as immutable afterwards.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/opsdash/internal/audit"
	"github.com/holomush/opsdash/internal/auth"
)

// CodeInvalid is the oops code for every configuration error.
const CodeInvalid = "CONFIG_INVALID"

// Masked replaces secret values in Redacted output.
const Masked = "********"

// Config is the full opsdash configuration.
type Config struct {
	Principals map[string]PrincipalConfig `koanf:"principals" json:"principals,omitempty" yaml:"principals,omitempty" jsonschema:"description=Dashboard logins keyed by username"`
	Session    SessionConfig              `koanf:"session" json:"session,omitempty" yaml:"session"`
	Audit      AuditConfig                `koanf:"audit" json:"audit,omitempty" yaml:"audit"`
	Datastore  DatastoreConfig            `koanf:"datastore" json:"datastore,omitempty" yaml:"datastore"`
	Server     ServerConfig               `koanf:"server" json:"server,omitempty" yaml:"server"`
	Dashboard  DashboardConfig            `koanf:"dashboard" json:"dashboard,omitempty" yaml:"dashboard"`
	Log        LogConfig                  `koanf:"log" json:"log,omitempty" yaml:"log"`
}

// PrincipalConfig is one configured login.
type PrincipalConfig struct {
	DisplayName string `koanf:"display_name" json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Email       string `koanf:"email" json:"email,omitempty" yaml:"email,omitempty"`
	Role        string `koanf:"role" json:"role,omitempty" yaml:"role,omitempty" jsonschema:"enum=admin,enum=viewer"`
	Password    string `koanf:"password" json:"password,omitempty" yaml:"password,omitempty" jsonschema:"description=Plaintext or argon2id PHC hash"` //nolint:gosec // G117: config field
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	SigningKey string        `koanf:"signing_key" json:"signing_key,omitempty" yaml:"signing_key,omitempty" jsonschema:"minLength=32"` //nolint:gosec // G117: config field
	CookieName string        `koanf:"cookie_name" json:"cookie_name,omitempty" yaml:"cookie_name"`
	TTL        time.Duration `koanf:"ttl" json:"ttl,omitempty" yaml:"ttl" jsonschema:"type=string"`
	Secure     bool          `koanf:"secure" json:"secure,omitempty" yaml:"secure"`
}

// AuditConfig controls the audit sinks.
type AuditConfig struct {
	Path           string   `koanf:"path" json:"path,omitempty" yaml:"path"`
	Table          string   `koanf:"table" json:"table,omitempty" yaml:"table"`
	RedactPatterns []string `koanf:"redact_patterns" json:"redact_patterns,omitempty" yaml:"redact_patterns,omitempty"`
}

// DatastoreConfig holds optional Postgres parameters for the audit store.
// With neither URL nor Host set, no store is built.
type DatastoreConfig struct {
	URL      string        `koanf:"url" json:"url,omitempty" yaml:"url,omitempty"`
	Host     string        `koanf:"host" json:"host,omitempty" yaml:"host,omitempty"`
	Port     int           `koanf:"port" json:"port,omitempty" yaml:"port,omitempty" jsonschema:"minimum=1,maximum=65535"`
	User     string        `koanf:"user" json:"user,omitempty" yaml:"user,omitempty"`
	Password string        `koanf:"password" json:"password,omitempty" yaml:"password,omitempty"` //nolint:gosec // G117: config field
	Database string        `koanf:"database" json:"database,omitempty" yaml:"database,omitempty"`
	Timeout  time.Duration `koanf:"timeout" json:"timeout,omitempty" yaml:"timeout" jsonschema:"type=string"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Addr              string `koanf:"addr" json:"addr,omitempty" yaml:"addr"`
	MetricsAddr       string `koanf:"metrics_addr" json:"metrics_addr,omitempty" yaml:"metrics_addr"`
	InternalMode      bool   `koanf:"internal_mode" json:"internal_mode,omitempty" yaml:"internal_mode"`
	TrustProxyHeaders bool   `koanf:"trust_proxy_headers" json:"trust_proxy_headers,omitempty" yaml:"trust_proxy_headers" jsonschema:"description=Take the audited client IP from proxy headers"`
}

// DashboardConfig holds tile inputs.
type DashboardConfig struct {
	Stations    []string `koanf:"stations" json:"stations,omitempty" yaml:"stations"`
	DefaultDate string   `koanf:"default_date" json:"default_date,omitempty" yaml:"default_date" jsonschema:"format=date"`
	StatusJSON  string   `koanf:"status_json" json:"status_json,omitempty" yaml:"status_json"`
}

// LogConfig controls operator logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Principals: map[string]PrincipalConfig{},
		Session: SessionConfig{
			CookieName: "dashboard_cookie",
			TTL:        auth.DefaultSessionTTL,
		},
		Audit: AuditConfig{
			Path:  audit.DefaultFilePath,
			Table: audit.DefaultTable,
		},
		Datastore: DatastoreConfig{
			Port:    5432,
			Timeout: audit.DefaultStoreTimeout,
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8501",
			MetricsAddr: "127.0.0.1:9100",
		},
		Dashboard: DashboardConfig{
			Stations:    []string{"KDTW", "KGRR", "KLAN"},
			DefaultDate: "2025-10-27",
			StatusJSON:  "./status/status.json",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

func invalid(field, format string, args ...any) error {
	return oops.Code(CodeInvalid).With("field", field).Errorf("%s %s", field, fmt.Sprintf(format, args...))
}

// Validate checks the configuration. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Principals) == 0 {
		errs = append(errs, invalid("principals", "at least one principal is required"))
	}
	for _, name := range c.usernames() {
		if _, err := auth.ParseRole(c.Principals[name].Role); err != nil {
			errs = append(errs, invalid("principals."+name+".role", "unknown role %q", c.Principals[name].Role))
		}
	}

	if len(c.Session.SigningKey) < auth.MinSigningKeyLen {
		errs = append(errs, invalid("session.signing_key", "must be at least %d bytes", auth.MinSigningKeyLen))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, invalid("session.cookie_name", "is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, invalid("session.ttl", "must be positive"))
	}

	if c.Audit.Path == "" {
		errs = append(errs, invalid("audit.path", "is required"))
	}
	if _, err := audit.NewRedactor(c.Audit.RedactPatterns...); err != nil {
		errs = append(errs, invalid("audit.redact_patterns", "%v", err))
	}

	if c.Datastore.Timeout <= 0 || c.Datastore.Timeout > audit.MaxStoreTimeout {
		errs = append(errs, invalid("datastore.timeout", "must be in (0, %s], got %s", audit.MaxStoreTimeout, c.Datastore.Timeout))
	}

	if c.Server.Addr == "" {
		errs = append(errs, invalid("server.addr", "is required"))
	}

	if len(c.Dashboard.Stations) == 0 {
		errs = append(errs, invalid("dashboard.stations", "at least one station is required"))
	}
	if _, err := time.Parse(time.DateOnly, c.Dashboard.DefaultDate); err != nil {
		errs = append(errs, invalid("dashboard.default_date", "must be YYYY-MM-DD, got %q", c.Dashboard.DefaultDate))
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, invalid("log.format", "must be 'json' or 'text', got %q", c.Log.Format))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, invalid("log.level", "must be debug, info, warn, or error, got %q", c.Log.Level))
	}

	if len(errs) == 0 {
		return nil
	}
	return oops.Code(CodeInvalid).Wrap(errors.Join(errs...))
}

func (c *Config) usernames() []string {
	names := make([]string, 0, len(c.Principals))
	for name := range c.Principals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PrincipalConfigs converts the principal map to resolver input, sorted by
// username.
func (c *Config) PrincipalConfigs() []auth.PrincipalConfig {
	out := make([]auth.PrincipalConfig, 0, len(c.Principals))
	for _, name := range c.usernames() {
		p := c.Principals[name]
		out = append(out, auth.PrincipalConfig{
			Username:    name,
			DisplayName: p.DisplayName,
			Email:       p.Email,
			Role:        p.Role,
			Secret:      p.Password,
		})
	}
	return out
}

// StoreConfig converts the datastore section to audit store parameters.
func (c *Config) StoreConfig() audit.StoreConfig {
	return audit.StoreConfig{
		URL:      c.Datastore.URL,
		Host:     c.Datastore.Host,
		Port:     c.Datastore.Port,
		User:     c.Datastore.User,
		Password: c.Datastore.Password,
		Database: c.Datastore.Database,
		Table:    c.Audit.Table,
		Timeout:  c.Datastore.Timeout,
	}
}

// DefaultDate returns the parsed dashboard default date.
func (c *Config) DefaultDate() time.Time {
	d, err := time.Parse(time.DateOnly, c.Dashboard.DefaultDate)
	if err != nil {
		return time.Time{}
	}
	return d
}

// Redacted returns a deep copy with every secret value masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Principals = make(map[string]PrincipalConfig, len(c.Principals))
	for name, p := range c.Principals {
		if p.Password != "" {
			p.Password = Masked
		}
		out.Principals[name] = p
	}
	if out.Session.SigningKey != "" {
		out.Session.SigningKey = Masked
	}
	if out.Datastore.Password != "" {
		out.Datastore.Password = Masked
	}
	if out.Datastore.URL != "" {
		out.Datastore.URL = maskURL(out.Datastore.URL)
	}
	out.Audit.RedactPatterns = append([]string(nil), c.Audit.RedactPatterns...)
	out.Dashboard.Stations = append([]string(nil), c.Dashboard.Stations...)
	return &out
}

func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return Masked
	}
	if u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), Masked)
		}
	}
	q := u.Query()
	if q.Has("password") {
		q.Set("password", Masked)
		u.RawQuery = q.Encode()
	}
	return u.String()
}
