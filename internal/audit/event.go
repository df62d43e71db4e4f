// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package audit

import "time"

// Action names what happened.
type Action string

// Recorded actions.
const (
	ActionLogin           Action = "login"
	ActionLoginFailed     Action = "login_failed"
	ActionLogout          Action = "logout"
	ActionRunIngest       Action = "run_ingest"
	ActionOverrideStation Action = "override_station"
	ActionRunBackfill     Action = "run_backfill"
	ActionAdminTest       Action = "admin_test"
)

// Actions lists every known action in a stable order.
func Actions() []Action {
	return []Action{
		ActionLogin, ActionLoginFailed, ActionLogout,
		ActionRunIngest, ActionOverrideStation, ActionRunBackfill, ActionAdminTest,
	}
}

// Record keys. Core keys cannot be overridden by extras.
const (
	KeyUsername    = "username"
	KeyDisplayName = "display_name"
	KeyAction      = "action"
	KeyTimestamp   = "timestamp"
	KeyIsViewer    = "is_viewer"

	KeyStation         = "station"
	KeySelectedDate    = "selected_date"
	KeyOverrideValue   = "override_value"
	KeyValuePresent    = "value_present"
	KeyClientIP        = "client_ip"
	KeyAttemptedDigest = "attempted_username_digest"
)

// Event is an audit record as built by callers. It may contain anything;
// Redact decides what survives.
type Event struct {
	Username    string
	DisplayName string
	Action      Action
	Timestamp   time.Time
	IsViewer    bool
	Extras      map[string]any
}

// With returns a copy of e with key set in Extras.
func (e Event) With(key string, value any) Event {
	extras := make(map[string]any, len(e.Extras)+1)
	for k, v := range e.Extras {
		extras[k] = v
	}
	extras[key] = value
	e.Extras = extras
	return e
}
