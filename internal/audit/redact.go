// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package audit

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// DefaultRedactPatterns match record keys that must never be persisted.
// Matching is case-insensitive and applies at every nesting level.
var DefaultRedactPatterns = []string{
	"*password*",
	"*passwd*",
	"*pass",
	"*pwd*",
	"*passphrase*",
	"*secret*",
	"*token*",
	"*credential*",
	"*_key",
	"api_key",
	"authorization",
}

var coreKeys = map[string]bool{
	KeyUsername:    true,
	KeyDisplayName: true,
	KeyAction:      true,
	KeyTimestamp:   true,
	KeyIsViewer:    true,
}

// Redactor strips secret-shaped keys from events.
type Redactor struct {
	patterns []glob.Glob
}

// DefaultRedactor returns a Redactor using only DefaultRedactPatterns.
func DefaultRedactor() *Redactor {
	r := &Redactor{patterns: make([]glob.Glob, 0, len(DefaultRedactPatterns))}
	for _, p := range DefaultRedactPatterns {
		r.patterns = append(r.patterns, glob.MustCompile(p))
	}
	return r
}

// NewRedactor compiles DefaultRedactPatterns plus extra.
func NewRedactor(extra ...string) (*Redactor, error) {
	all := append(append([]string{}, DefaultRedactPatterns...), extra...)
	r := &Redactor{patterns: make([]glob.Glob, 0, len(all))}
	for _, p := range all {
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("pattern", p).
				Wrapf(err, "compile redact pattern")
		}
		r.patterns = append(r.patterns, g)
	}
	return r, nil
}

// Secret reports whether key matches a redaction pattern.
func (r *Redactor) Secret(key string) bool {
	k := strings.ToLower(key)
	for _, g := range r.patterns {
		if g.Match(k) {
			return true
		}
	}
	return false
}

// SafeEvent is a redacted record. Only Redact produces a populated one.
type SafeEvent struct {
	record    map[string]any
	action    Action
	timestamp time.Time
}

// Redact flattens e into a record and removes every secret-shaped key.
// Extras are normalised through JSON first, so struct fields are subject
// to the same key rules as map entries. An extra that cannot be encoded
// is dropped.
func (r *Redactor) Redact(e Event) SafeEvent {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC().Truncate(time.Second)

	rec := map[string]any{
		KeyUsername:    e.Username,
		KeyDisplayName: e.DisplayName,
		KeyAction:      string(e.Action),
		KeyTimestamp:   ts.Format(time.RFC3339),
		KeyIsViewer:    e.IsViewer,
	}

	for k, v := range e.Extras {
		if coreKeys[k] || r.Secret(k) {
			continue
		}
		norm, ok := normalize(v)
		if !ok {
			continue
		}
		rec[k] = r.scrub(norm)
	}

	return SafeEvent{record: rec, action: e.Action, timestamp: ts}
}

func normalize(v any) (any, bool) {
	switch v.(type) {
	case nil, string, bool, int, int64, float64:
		return v, true
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (r *Redactor) scrub(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			if r.Secret(k) {
				delete(t, k)
				continue
			}
			t[k] = r.scrub(inner)
		}
		return t
	case []any:
		for i := range t {
			t[i] = r.scrub(t[i])
		}
		return t
	default:
		return v
	}
}

// IsZero reports whether s was not produced by Redact.
func (s SafeEvent) IsZero() bool {
	return s.record == nil
}

// Action returns the event action.
func (s SafeEvent) Action() Action {
	return s.action
}

// Timestamp returns the event time, UTC, truncated to the second.
func (s SafeEvent) Timestamp() time.Time {
	return s.timestamp
}

// Get returns a top-level record value.
func (s SafeEvent) Get(key string) (any, bool) {
	v, ok := s.record[key]
	return v, ok
}

// String returns a top-level record value as a string, or "".
func (s SafeEvent) String(key string) string {
	v, _ := s.record[key].(string)
	return v
}

// Bool returns a top-level record value as a bool, or false.
func (s SafeEvent) Bool(key string) bool {
	v, _ := s.record[key].(bool)
	return v
}

// Record returns a shallow copy of the redacted record.
func (s SafeEvent) Record() map[string]any {
	out := make(map[string]any, len(s.record))
	for k, v := range s.record {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the record as a single JSON object with sorted keys.
func (s SafeEvent) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(s.record)
	if err != nil {
		return nil, oops.Code("AUDIT_ENCODE_FAILED").With("action", string(s.action)).Wrap(err)
	}
	return data, nil
}
