// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

const tokenIssuer = "opsdash"

// Session is an authenticated dashboard visit.
type Session struct {
	ID            ulid.ULID
	Username      string
	DisplayName   string
	Role          Role
	EstablishedAt time.Time
	ExpiresAt     time.Time
}

// IsExpired reports whether the session has passed its expiry at t.
func (s *Session) IsExpired(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// Issue signs s as an HS256 session token.
func (r *Resolver) Issue(s *Session) (string, error) {
	if s == nil {
		return "", oops.Code(CodeSessionInvalid).Errorf("cannot issue token for nil session")
	}

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID.String(),
			Subject:   s.Username,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(s.EstablishedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.signingKey)
	if err != nil {
		return "", oops.Code("SESSION_SIGN_FAILED").With("session_id", s.ID.String()).Wrap(err)
	}
	return signed, nil
}

// Resume validates a session token and rebuilds the Session from the
// current principal table. Expired tokens return SESSION_EXPIRED; every
// other problem, including a principal that no longer exists, returns
// SESSION_INVALID.
func (r *Resolver) Resume(_ context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code(CodeSessionInvalid).Errorf("session token cannot be empty")
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return r.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code(CodeSessionExpired).Errorf("session has expired")
		}
		return nil, oops.Code(CodeSessionInvalid).Wrap(err)
	}

	id, err := ulid.ParseStrict(claims.ID)
	if err != nil {
		return nil, oops.Code(CodeSessionInvalid).With("claim", "jti").Wrap(err)
	}

	entry, ok := r.principals[claims.Subject]
	if !ok {
		return nil, oops.Code(CodeSessionInvalid).Errorf("session principal no longer configured")
	}

	return &Session{
		ID:            id,
		Username:      entry.Username,
		DisplayName:   entry.DisplayName,
		Role:          entry.Role,
		EstablishedAt: claims.IssuedAt.Time,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}
