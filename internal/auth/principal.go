// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"strings"

	"github.com/samber/oops"
)

// Role is the coarse permission level of a principal.
type Role string

// Known roles. Viewer is the most restrictive.
const (
	RoleViewer Role = "viewer"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a configured role string to a Role. An empty string is a
// viewer. Anything else that is not a known role is a config error.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleViewer:
		return RoleViewer, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", oops.Code(CodeConfigInvalid).
			With("role", s).
			Errorf("unknown role %q", s)
	}
}

// PrincipalConfig is one configured login. Secret is plaintext or an
// argon2id PHC string.
type PrincipalConfig struct {
	Username    string
	DisplayName string
	Email       string
	Role        string
	Secret      string //nolint:gosec // G117: config carrier, never serialized
}

// Principal is the read-only view of a configured identity. It never
// carries the secret.
type Principal struct {
	Username    string
	DisplayName string
	Email       string
	Role        Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalEntry struct {
	Principal
	secretHash string
}
