// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth resolves dashboard identities and their coarse roles.
//
// # Principals
//
// Principals are defined only by configuration. NewResolver builds an
// immutable table from PrincipalConfig entries and refuses to produce a
// Resolver when no usable principal remains. Plaintext secrets are hashed
// with argon2id at construction, so every login runs the same verify.
//
// # Sessions
//
// Authenticate turns a username and password into a Session. Issue signs it
// as an HS256 token for the cookie and Resume validates such a token,
// re-deriving role and display name from the table. A token naming a
// principal that has since been removed does not resume.
//
// # Roles
//
// IsViewer and IsAdmin are exact complements. Anything the Resolver cannot
// place, including a nil session or an unknown username, is a viewer.
package auth
