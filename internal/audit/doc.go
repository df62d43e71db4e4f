// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package audit records login and admin-action events.
//
// Every event passes through a Redactor before any sink sees it. The only
// way to obtain a SafeEvent is Redactor.Redact, so sinks cannot be handed an
// unredacted record.
//
// Two sinks exist. FileSink appends one JSON object per line with a single
// O_APPEND write. StoreSink inserts into one Postgres table under a bounded
// timeout and is only built when a datastore is configured. Logger.Record
// tries both independently and reports failures as warnings; it never
// returns an error and never blocks past the store timeout.
package audit
