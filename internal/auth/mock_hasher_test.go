// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/mock"
)

// mockHasher is a testify mock of auth.PasswordHasher.
type mockHasher struct {
	mock.Mock
}

func newMockHasher(t *testing.T) *mockHasher {
	t.Helper()
	m := &mockHasher{}
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *mockHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}
