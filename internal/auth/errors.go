// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "github.com/samber/oops"

// Error codes returned by this package.
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeSessionInvalid     = "SESSION_INVALID"
	CodeSessionExpired     = "SESSION_EXPIRED"
)

// errInvalidCredentials is the single failure shape for Authenticate.
// Callers must not be able to tell an unknown user from a wrong password.
func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid username or password")
}
