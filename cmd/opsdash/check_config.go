// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/opsdash/internal/auth"
	"github.com/holomush/opsdash/internal/config"
)

// NewCheckConfigCmd creates the check-config subcommand.
func NewCheckConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and print it with secrets masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheckConfig(cmd)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runCheckConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{Path: configFile, Flags: cmd.Flags()})
	if err != nil {
		reportConfigError(cmd.ErrOrStderr(), err)
		return err
	}

	// serve builds the resolver right after loading; fail the same way.
	if _, err := auth.NewResolver(cfg.PrincipalConfigs(), []byte(cfg.Session.SigningKey)); err != nil {
		reportConfigError(cmd.ErrOrStderr(), err)
		return err
	}

	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return oops.Wrapf(err, "encode config")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "# configuration valid")
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}
