// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/opsdash/pkg/errutil"
)

// WarnFileWrite is the only text a caller ever sees about a sink failure.
const WarnFileWrite = "Audit log could not be written. The action itself was not affected."

// Sink accepts redacted events.
type Sink interface {
	Append(ctx context.Context, ev SafeEvent) error
}

// Report describes what went wrong while recording, in terms safe to show
// to the user who triggered the event.
type Report struct {
	Warnings []string
}

// OK reports whether every attempted sink accepted the event.
func (r Report) OK() bool {
	return len(r.Warnings) == 0
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithLogger sets the operator logger.
func WithLogger(l *slog.Logger) LoggerOption {
	return func(lg *Logger) { lg.logger = l }
}

// Logger redacts events and hands them to the file and store sinks.
type Logger struct {
	redactor *Redactor
	file     Sink
	store    Sink
	logger   *slog.Logger
}

// NewLogger creates a Logger. store may be nil when no datastore is
// configured; a nil redactor uses the default patterns.
func NewLogger(redactor *Redactor, file, store Sink, opts ...LoggerOption) *Logger {
	if redactor == nil {
		redactor = DefaultRedactor()
	}
	if s, ok := store.(*StoreSink); ok && s == nil {
		store = nil
	}
	if f, ok := file.(*FileSink); ok && f == nil {
		file = nil
	}
	l := &Logger{
		redactor: redactor,
		file:     file,
		store:    store,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// HasStore reports whether a datastore sink is attached.
func (l *Logger) HasStore() bool {
	return l.store != nil
}

// Record redacts e and attempts every sink independently. File failures
// become one warning each; store failures are logged at debug and counted.
// Record never returns an error and never panics; a panicking sink counts
// as that sink failing.
func (l *Logger) Record(ctx context.Context, e Event) (rep Report) {
	defer func() {
		if p := recover(); p != nil {
			failuresCounter.WithLabelValues("logger", "panic").Inc()
			l.logger.ErrorContext(ctx, "audit record panicked", "action", string(e.Action), "panic", fmt.Sprint(p))
			rep.Warnings = []string{WarnFileWrite}
		}
	}()

	safe := l.redactor.Redact(e)
	eventsCounter.WithLabelValues(string(e.Action)).Inc()

	if l.file != nil {
		if err := appendTo(ctx, l.file, safe); err != nil {
			failuresCounter.WithLabelValues(sinkFile, reasonOf(err)).Inc()
			errutil.Log(ctx, l.logger, slog.LevelWarn, "audit file write failed", err)
			rep.Warnings = append(rep.Warnings, WarnFileWrite)
		}
	}

	if l.store != nil {
		if err := appendTo(ctx, l.store, safe); err != nil {
			failuresCounter.WithLabelValues(sinkStore, reasonOf(err)).Inc()
			errutil.Log(ctx, l.logger, slog.LevelDebug, "audit store write failed", err)
		}
	}

	return rep
}

// appendTo hands ev to sink and converts a panic into an error.
func appendTo(ctx context.Context, sink Sink, ev SafeEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = oops.Code("AUDIT_SINK_PANIC").With("reason", "panic").Errorf("audit sink panicked: %v", p)
		}
	}()
	return sink.Append(ctx, ev)
}

// reasonOf extracts the "reason" context value set by the sinks.
func reasonOf(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if r, isString := oopsErr.Context()["reason"].(string); isString && r != "" {
			return r
		}
	}
	return "unknown"
}
