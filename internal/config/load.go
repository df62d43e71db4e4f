// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/opsdash/internal/xdg"
)

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"listen":        "server.addr",
	"metrics-addr":  "server.metrics_addr",
	"internal-mode": "server.internal_mode",
	"audit-path":    "audit.path",
	"log-format":    "log.format",
	"log-level":     "log.level",
}

// RegisterFlags adds the config override flags to fs. Only flags the user
// actually sets override lower layers.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("listen", d.Server.Addr, "dashboard listen address")
	fs.String("metrics-addr", d.Server.MetricsAddr, "metrics/health listen address (empty to disable)")
	fs.Bool("internal-mode", d.Server.InternalMode, "show admin-only tiles")
	fs.String("audit-path", d.Audit.Path, "audit JSONL file path")
	fs.String("log-format", d.Log.Format, "log format (json, text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
}

// Options controls Load.
type Options struct {
	// Path is an explicit config file. When empty, the XDG default is used
	// if it exists.
	Path string
	// Flags, when set, supplies the highest-precedence overrides.
	Flags *pflag.FlagSet
	// Environ overrides os.Environ, mainly for tests.
	Environ []string
}

// Load builds the Config from defaults, the YAML file, the environment,
// and changed flags, in that order, then validates it.
func Load(opts Options) (*Config, error) {
	cfg, err := LoadUnvalidated(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnvalidated is Load without the final Validate call.
func LoadUnvalidated(opts Options) (*Config, error) {
	k := koanf.New(".")

	path, err := resolvePath(opts.Path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
		if err != nil {
			return nil, oops.Code(CodeInvalid).With("path", path).Wrapf(err, "read config file")
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalid).With("path", path).Wrapf(err, "load config file")
		}
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	if err := k.Load(envProvider{environ: environ}, nil); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "load environment")
	}

	if opts.Flags != nil {
		fp := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, known := FlagKeys[f.Name]
			if !known || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(fp, nil); err != nil {
			return nil, oops.Code(CodeInvalid).Wrapf(err, "load flags")
		}
	}

	cfg := Default()
	// Lists replace defaults rather than merging element-wise.
	if k.Exists("dashboard.stations") {
		cfg.Dashboard.Stations = nil
	}
	if k.Exists("audit.redact_patterns") {
		cfg.Audit.RedactPatterns = nil
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "decode config")
	}
	return cfg, nil
}

func resolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	def, err := xdg.ConfigFile()
	if err != nil {
		return "", nil //nolint:nilerr // no home directory means no default file
	}
	if _, err := os.Stat(def); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code(CodeInvalid).With("path", def).Wrap(err)
	}
	return def, nil
}
