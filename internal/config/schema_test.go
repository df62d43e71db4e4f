// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/opsdash/internal/config"
)

func TestGenerateSchema(t *testing.T) {
	data, err := config.GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, config.SchemaID, schema["$id"])
	assert.Equal(t, "opsdash configuration", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"principals", "session", "audit", "datastore", "server", "dashboard", "log"} {
		assert.Contains(t, props, key)
	}
}

func TestValidateYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{"empty document", "", false},
		{"valid", fileYAML, false},
		{"log format enum", "log:\n  format: xml\n", true},
		{"port out of range", "datastore:\n  port: 70000\n", true},
		{"wrong type", "server:\n  internal_mode: [1]\n", true},
		{"unknown nested key", "session:\n  cookie: x\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.ValidateYAML([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFormatSchemaError(t *testing.T) {
	assert.Empty(t, config.FormatSchemaError(nil))
	assert.Equal(t, "missing property", config.FormatSchemaError(errors.New("load: schema validation failed: missing property")))
	assert.Equal(t, "plain", config.FormatSchemaError(errors.New("plain")))
}
