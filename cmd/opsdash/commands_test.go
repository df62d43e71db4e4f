// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/opsdash/internal/audit"
	"github.com/holomush/opsdash/internal/auth"
	"github.com/holomush/opsdash/pkg/errutil"
)

func execute(t *testing.T, in string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCheckConfig_MasksSecrets(t *testing.T) {
	path := withTestConfig(t, testConfigYAML)

	out, _, err := execute(t, "", "--config", path, "check-config")
	require.NoError(t, err)

	assert.Contains(t, out, "configuration valid")
	assert.Contains(t, out, "********")
	assert.Contains(t, out, "display_name: Admin")
	for _, secret := range []string{"admin-pass", "viewer-pass", "0123456789abcdef", "pg-secret"} {
		assert.NotContains(t, out, secret)
	}
}

func TestCheckConfig_FlagOverride(t *testing.T) {
	path := withTestConfig(t, testConfigYAML)

	out, _, err := execute(t, "", "--config", path, "check-config", "--listen", "0.0.0.0:8080")
	require.NoError(t, err)
	assert.Contains(t, out, "0.0.0.0:8080")
}

func TestCheckConfig_Invalid(t *testing.T) {
	path := withTestConfig(t, `
principals:
  admin:
    role: admin
    password: admin-pass
`)

	_, errOut, err := execute(t, "", "--config", path, "check-config")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, errOut, "session.signing_key")
	assert.NotContains(t, errOut, "admin-pass")
}

func TestCheckConfig_MalformedPasswordHash(t *testing.T) {
	path := withTestConfig(t, strings.Replace(testConfigYAML, "password: admin-pass", `password: "$argon2id$not-a-hash"`, 1))

	_, errOut, err := execute(t, "", "--config", path, "check-config")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeConfigInvalid)
	errutil.AssertErrorContext(t, err, "username", "admin")
	assert.Contains(t, errOut, "configuration invalid")
}

func TestHashPassword(t *testing.T) {
	out, _, err := execute(t, "correct horse\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"), "got %q", hash)

	ok, err := auth.NewArgon2idHasher().Verify("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashPassword_Empty(t *testing.T) {
	for _, in := range []string{"", "\n", "\r\n"} {
		_, _, err := execute(t, in, "hash-password")
		require.Error(t, err, "input %q", in)
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	}
}

func TestConfigSchema(t *testing.T) {
	out, _, err := execute(t, "", "config-schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "schema has properties")
	for _, key := range []string{"principals", "session", "audit", "datastore", "server", "dashboard", "log"} {
		assert.Contains(t, props, key)
	}
}

func TestAuditSchema_NotConfigured(t *testing.T) {
	withTestConfig(t, testConfigYAML)

	err := runAuditSchemaWithDeps(context.Background(), NewAuditSchemaCmd(), nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "field", "datastore")
}

func TestAuditSchema_CreatesTable(t *testing.T) {
	withTestConfig(t, strings.Replace(testConfigYAML, "  password: pg-secret", "  password: pg-secret\n  host: db.internal", 1))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "user_login_events"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	var gotHost string
	deps := &AuditSchemaDeps{
		StoreOpener: func(_ context.Context, cfg audit.StoreConfig, opts ...audit.StoreOption) (*audit.StoreSink, error) {
			gotHost = cfg.Host
			return audit.NewStoreSink(mock, cfg.Table, cfg.Timeout, opts...)
		},
	}

	cmd := NewAuditSchemaCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)

	require.NoError(t, runAuditSchemaWithDeps(context.Background(), cmd, deps))
	assert.Equal(t, "db.internal", gotHost)
	assert.Equal(t, "audit table user_login_events ready\n", out.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditSchema_StoreFailure(t *testing.T) {
	withTestConfig(t, strings.Replace(testConfigYAML, "  password: pg-secret", "  password: pg-secret\n  host: db.internal", 1))

	deps := &AuditSchemaDeps{
		StoreOpener: func(context.Context, audit.StoreConfig, ...audit.StoreOption) (*audit.StoreSink, error) {
			return nil, errors.New("connection refused")
		},
	}

	err := runAuditSchemaWithDeps(context.Background(), NewAuditSchemaCmd(), deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
