// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
)

// DefaultSessionTTL matches the lifetime of the dashboard login cookie.
const DefaultSessionTTL = 7 * 24 * time.Hour

// MinSigningKeyLen is the shortest accepted HS256 session key, in bytes.
const MinSigningKeyLen = 32

// dummyPasswordHash is verified when a username is unknown so that failed
// logins do the same argon2id work whether or not the user exists.
// It is not a credential and will never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

var attemptsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "opsdash_auth_attempts_total",
	Help: "Total number of login attempts by outcome",
}, []string{"outcome"})

// Collectors returns the metrics owned by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{attemptsCounter}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHasher overrides the argon2id hasher.
func WithHasher(h PasswordHasher) Option {
	return func(r *Resolver) { r.hasher = h }
}

// WithSessionTTL sets the lifetime of issued session tokens.
func WithSessionTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLogger sets the logger for construction warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// Resolver owns the immutable principal table and the session key.
// It is safe for concurrent use.
type Resolver struct {
	principals map[string]principalEntry
	hasher     PasswordHasher
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewResolver builds the principal table. Entries missing a username or
// secret are skipped with a warning. An unknown role, a duplicate username,
// a short signing key, or an empty resulting table is a CONFIG_INVALID error.
func NewResolver(configs []PrincipalConfig, signingKey []byte, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		principals: make(map[string]principalEntry, len(configs)),
		hasher:     NewArgon2idHasher(),
		ttl:        DefaultSessionTTL,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if len(signingKey) < MinSigningKeyLen {
		return nil, oops.Code(CodeConfigInvalid).
			With("field", "session.signing_key").
			Errorf("session signing key must be at least %d bytes", MinSigningKeyLen)
	}
	r.signingKey = append([]byte(nil), signingKey...)

	for i, pc := range configs {
		if pc.Username == "" || pc.Secret == "" {
			r.logger.Warn("skipping principal with missing username or secret", "index", i, "username", pc.Username)
			continue
		}
		if _, dup := r.principals[pc.Username]; dup {
			return nil, oops.Code(CodeConfigInvalid).
				With("username", pc.Username).
				Errorf("duplicate principal %q", pc.Username)
		}

		role, err := ParseRole(pc.Role)
		if err != nil {
			return nil, oops.With("username", pc.Username).Wrap(err)
		}

		hash := pc.Secret
		if IsEncoded(hash) {
			if _, err := decodePHC(hash); err != nil {
				return nil, oops.Code(CodeConfigInvalid).
					With("username", pc.Username).
					Errorf("malformed password hash: %v", err)
			}
		} else {
			hash, err = r.hasher.Hash(pc.Secret)
			if err != nil {
				return nil, oops.Code(CodeConfigInvalid).
					With("username", pc.Username).
					Wrapf(err, "hash secret")
			}
		}

		display := pc.DisplayName
		if display == "" {
			display = pc.Username
		}
		r.principals[pc.Username] = principalEntry{
			Principal: Principal{
				Username:    pc.Username,
				DisplayName: display,
				Email:       pc.Email,
				Role:        role,
			},
			secretHash: hash,
		}
	}

	if len(r.principals) == 0 {
		return nil, oops.Code(CodeConfigInvalid).Errorf("no valid principals configured")
	}
	return r, nil
}

// Authenticate checks a username and password against the table. All
// failures return the same AUTH_INVALID_CREDENTIALS error, and an unknown
// username still runs one argon2id verify against a dummy hash.
func (r *Resolver) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	entry, exists := r.principals[username]

	target := dummyPasswordHash
	if exists {
		target = entry.secretHash
	}

	valid, verifyErr := r.hasher.Verify(password, target)
	if verifyErr != nil && exists {
		r.logger.WarnContext(ctx, "stored secret could not be verified", "username", username, "error", verifyErr)
	}

	if !exists || !valid || verifyErr != nil {
		attemptsCounter.WithLabelValues("failure").Inc()
		return nil, errInvalidCredentials()
	}

	attemptsCounter.WithLabelValues("success").Inc()

	now := r.now().UTC().Truncate(time.Second)
	return &Session{
		ID:            ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		Username:      entry.Username,
		DisplayName:   entry.DisplayName,
		Role:          entry.Role,
		EstablishedAt: now,
		ExpiresAt:     now.Add(r.ttl),
	}, nil
}

// Lookup returns the configured principal without its secret.
func (r *Resolver) Lookup(username string) (Principal, bool) {
	e, ok := r.principals[username]
	return e.Principal, ok
}

// Usernames returns the configured usernames in sorted order.
func (r *Resolver) Usernames() []string {
	names := make([]string, 0, len(r.principals))
	for name := range r.principals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsViewerName reports whether username is read-only. Unknown names are.
func (r *Resolver) IsViewerName(username string) bool {
	e, ok := r.principals[username]
	return !ok || e.Role != RoleAdmin
}

// IsAdminName is the complement of IsViewerName.
func (r *Resolver) IsAdminName(username string) bool {
	return !r.IsViewerName(username)
}

// IsViewer reports whether the session is read-only. A nil session is.
// The answer comes from the configured role, not the role in the session.
func (r *Resolver) IsViewer(s *Session) bool {
	if s == nil {
		return true
	}
	return r.IsViewerName(s.Username)
}

// IsAdmin is the complement of IsViewer.
func (r *Resolver) IsAdmin(s *Session) bool {
	return !r.IsViewer(s)
}
