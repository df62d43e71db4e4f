// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store defaults and limits.
const (
	DefaultTable        = "user_login_events"
	DefaultStoreTimeout = 2 * time.Second
	MaxStoreTimeout     = 5 * time.Second

	// returnMargin bounds how long Append waits past the timeout for a
	// driver that ignores context cancellation.
	returnMargin = 100 * time.Millisecond
)

// CodeStoreUnavailable marks a store sink failure.
const CodeStoreUnavailable = "AUDIT_STORE_UNAVAILABLE"

var tracer = otel.Tracer("opsdash/audit")

// execer is the subset of pgxpool.Pool used by StoreSink.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// StoreConfig holds datastore connection parameters. Either URL or Host
// must be set for a store to be built.
type StoreConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: connection parameter, never logged
	Database string
	Table    string
	Timeout  time.Duration
}

// Configured reports whether enough parameters exist to build a store.
func (c StoreConfig) Configured() bool {
	return c.URL != "" || c.Host != ""
}

// DSN returns the connection string. URL wins over discrete fields.
func (c StoreConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	return u.String()
}

// StoreOption configures a StoreSink.
type StoreOption func(*StoreSink)

// WithStoreLogger sets the logger for swallowed failures.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *StoreSink) { s.logger = l }
}

// StoreSink inserts redacted events into a single Postgres table.
type StoreSink struct {
	db          execer
	table       string
	createSQL   string
	insertSQL   string
	timeout     time.Duration
	schemaReady atomic.Bool
	logger      *slog.Logger
	closeFn     func()
}

// NewStoreSink creates a StoreSink over db. The timeout is clamped to
// (0, MaxStoreTimeout]; zero means DefaultStoreTimeout.
func NewStoreSink(db execer, table string, timeout time.Duration, opts ...StoreOption) (*StoreSink, error) {
	if db == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("store connection is required")
	}
	if table == "" {
		table = DefaultTable
	}
	ident, err := tableIdentifier(table)
	if err != nil {
		return nil, err
	}
	switch {
	case timeout <= 0:
		timeout = DefaultStoreTimeout
	case timeout > MaxStoreTimeout:
		timeout = MaxStoreTimeout
	}

	s := &StoreSink{
		db:      db,
		table:   table,
		timeout: timeout,
		logger:  slog.Default(),
		createSQL: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	username TEXT,
	display_name TEXT,
	login_time TIMESTAMPTZ,
	station TEXT NULL,
	selected_date DATE NULL,
	is_viewer BOOLEAN,
	action TEXT NULL,
	override_value TEXT NULL
)`, ident),
		insertSQL: fmt.Sprintf(`INSERT INTO %s (
	username, display_name, login_time, station, selected_date,
	is_viewer, action, override_value
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, ident),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OpenStoreSink builds a pgx pool from cfg and wraps it in a StoreSink.
// It returns (nil, nil) when cfg is not configured. The pool connects
// lazily, so nothing touches the network until the first Append.
func OpenStoreSink(ctx context.Context, cfg StoreConfig, opts ...StoreOption) (*StoreSink, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("field", "datastore").Wrapf(err, "parse datastore config")
	}
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > MaxStoreTimeout {
		timeout = DefaultStoreTimeout
	}
	poolCfg.ConnConfig.ConnectTimeout = timeout
	poolCfg.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code(CodeStoreUnavailable).Wrapf(err, "create datastore pool")
	}

	s, err := NewStoreSink(pool, cfg.Table, timeout, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.closeFn = pool.Close
	return s, nil
}

// Table returns the target table name.
func (s *StoreSink) Table() string {
	return s.table
}

// Timeout returns the per-write bound.
func (s *StoreSink) Timeout() time.Duration {
	return s.timeout
}

// EnsureSchema creates the audit table if it does not exist. It is a no-op
// once it has succeeded, until an insert reports the table missing.
func (s *StoreSink) EnsureSchema(ctx context.Context) error {
	if s.schemaReady.Load() {
		return nil
	}
	if _, err := s.db.Exec(ctx, s.createSQL); err != nil {
		return oops.Code(CodeStoreUnavailable).
			With("table", s.table).
			With("reason", storeReason(err)).
			Wrapf(err, "ensure audit table")
	}
	s.schemaReady.Store(true)
	return nil
}

// Append inserts ev. The write runs on a context detached from ctx's
// cancellation and bounded by the sink timeout, and Append itself returns
// no later than the timeout plus a small margin.
func (s *StoreSink) Append(ctx context.Context, ev SafeEvent) error {
	if ev.IsZero() {
		return oops.Code(CodeStoreUnavailable).With("reason", "encode").Errorf("refusing to write unredacted event")
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	wctx, span := tracer.Start(wctx, "audit.StoreSink.Append",
		trace.WithAttributes(
			attribute.String("audit.action", string(ev.Action())),
			attribute.String("db.sql.table", s.table),
		))
	defer span.End()

	done := make(chan error, 1)
	go func() {
		done <- s.write(wctx, ev)
	}()

	timer := time.NewTimer(s.timeout + returnMargin)
	defer timer.Stop()

	var err error
	select {
	case err = <-done:
	case <-timer.C:
		err = oops.Code(CodeStoreUnavailable).
			With("table", s.table).
			With("reason", "timeout").
			Errorf("audit store write did not return within %s", s.timeout)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit store write failed")
	}
	return err
}

func (s *StoreSink) write(ctx context.Context, ev SafeEvent) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx, s.insertSQL, insertArgs(ev)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
			s.schemaReady.Store(false)
		}
		return oops.Code(CodeStoreUnavailable).
			With("table", s.table).
			With("reason", storeReason(err)).
			Wrapf(err, "insert audit event")
	}
	return nil
}

// Close releases the pool when the sink owns one.
func (s *StoreSink) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

func insertArgs(ev SafeEvent) []any {
	return []any{
		ev.String(KeyUsername),
		ev.String(KeyDisplayName),
		ev.Timestamp(),
		nullableString(ev, KeyStation),
		nullableDate(ev, KeySelectedDate),
		ev.Bool(KeyIsViewer),
		nullableString(ev, KeyAction),
		nullableString(ev, KeyOverrideValue),
	}
}

func nullableString(ev SafeEvent, key string) any {
	v, ok := ev.Get(key)
	if !ok || v == nil {
		return nil
	}
	if s, isString := v.(string); isString {
		if s == "" {
			return nil
		}
		return s
	}
	return fmt.Sprint(v)
}

func nullableDate(ev SafeEvent, key string) any {
	s := ev.String(key)
	if s == "" {
		return nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return d
}

// tableIdentifier quotes a table name, allowing one optional schema prefix.
func tableIdentifier(table string) (string, error) {
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return "", oops.Code("CONFIG_INVALID").With("table", table).Errorf("invalid audit table name")
	}
	for _, p := range parts {
		if p == "" {
			return "", oops.Code("CONFIG_INVALID").With("table", table).Errorf("invalid audit table name")
		}
	}
	return pgx.Identifier(parts).Sanitize(), nil
}

// storeReason maps a store error to a low-cardinality metric label.
func storeReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UndefinedTable:
			return "undefined_table"
		case pgerrcode.IsConnectionException(pgErr.Code):
			return "connection"
		case pgErr.Code == pgerrcode.InsufficientPrivilege:
			return "privilege"
		case pgerrcode.IsInsufficientResources(pgErr.Code):
			return "resources"
		case pgerrcode.IsInvalidAuthorizationSpecification(pgErr.Code):
			return "auth"
		default:
			return "query"
		}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return "unreachable"
	}
	return "unknown"
}
