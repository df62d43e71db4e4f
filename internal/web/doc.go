// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package web serves the dashboard over HTTP.
//
// The session travels in a signed cookie. Every request first passes
// through loadSession, which resumes the cookie into an auth.Session or
// leaves the request anonymous. Admin endpoints sit behind requireAdmin;
// callers that are not admins get 403 before any audit event is built.
// Audit warnings are rendered in the sidebar and never change the status
// of the action that produced them.
package web
