// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/holomush/opsdash/internal/config"
	"github.com/holomush/opsdash/pkg/errutil"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the opsdash CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opsdash",
		Short: "opsdash - a login-gated operations dashboard",
		Long: `opsdash serves a small operations dashboard behind a login.
Viewer accounts are read-only; admin accounts can trigger pipeline actions.
Every login attempt and admin action is written to an audit log.`,
		SilenceUsage: true,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/opsdash/config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCheckConfigCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewAuditSchemaCmd())
	cmd.AddCommand(NewConfigSchemaCmd())

	return cmd
}

// reportConfigError prints an operator-facing message for a config error.
// Secrets never reach this output; validation messages name fields only.
func reportConfigError(w io.Writer, err error) {
	if errutil.Code(err) == config.CodeInvalid {
		fmt.Fprintf(w, "configuration invalid: %s\n", config.FormatSchemaError(err))
		return
	}
	fmt.Fprintf(w, "configuration error: %v\n", err)
}
