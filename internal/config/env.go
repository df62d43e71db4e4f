// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/samber/oops"
)

// EnvPrefix marks environment variables read into the config. A double
// underscore separates levels: OPSDASH_DATASTORE__PASSWORD sets
// datastore.password.
const EnvPrefix = "OPSDASH_"

// envAliases maps legacy variable names to config keys. Prefixed
// variables win over aliases.
var envAliases = map[string]string{
	"DASHBOARD_LOGIN_LOG": "audit.path",
	"DATABASE_URL":        "datastore.url",
}

// listKeys are split on commas when set from the environment.
var listKeys = map[string]bool{
	"dashboard.stations":    true,
	"audit.redact_patterns": true,
}

// envProvider is a koanf.Provider over a fixed environment snapshot.
type envProvider struct {
	environ []string
}

// ReadBytes is not supported; the provider returns a map.
func (envProvider) ReadBytes() ([]byte, error) {
	return nil, oops.Errorf("env provider does not support ReadBytes")
}

// Read returns the nested config map built from the environment.
func (p envProvider) Read() (map[string]any, error) {
	flat := make(map[string]any)

	for _, kv := range p.environ {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || val == "" {
			continue
		}
		if key, isAlias := envAliases[name]; isAlias {
			flat[key] = envValue(key, val)
		}
	}

	for _, kv := range p.environ {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		if key := envKey(name); key != "" {
			flat[key] = envValue(key, val)
		}
	}

	return maps.Unflatten(flat, "."), nil
}

// envKey converts OPSDASH_A__B_C to a.b_c. It returns "" for names with
// empty segments.
func envKey(name string) string {
	rest := strings.TrimPrefix(name, EnvPrefix)
	if rest == "" {
		return ""
	}
	parts := strings.Split(strings.ToLower(rest), "__")
	for _, p := range parts {
		if p == "" {
			return ""
		}
	}
	return strings.Join(parts, ".")
}

func envValue(key, val string) any {
	if !listKeys[key] {
		return val
	}
	var out []any
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
