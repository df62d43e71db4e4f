// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/opsdash/internal/audit"
	"github.com/holomush/opsdash/internal/config"
)

const schemaTimeout = 10 * time.Second

// NewAuditSchemaCmd creates the audit-schema subcommand.
func NewAuditSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit-schema",
		Short: "Create the audit table in the configured datastore",
		Long: `Connect to the configured datastore and create the audit table if
it does not exist. Safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuditSchemaWithDeps(cmd.Context(), cmd, nil)
		},
	}
}

func runAuditSchemaWithDeps(ctx context.Context, cmd *cobra.Command, deps *AuditSchemaDeps) error {
	if deps == nil {
		deps = &AuditSchemaDeps{}
	}
	if deps.StoreOpener == nil {
		deps.StoreOpener = audit.OpenStoreSink
	}

	// Only the datastore and audit sections matter here.
	cfg, err := config.LoadUnvalidated(config.Options{Path: configFile})
	if err != nil {
		reportConfigError(cmd.ErrOrStderr(), err)
		return err
	}
	sc := cfg.StoreConfig()
	if !sc.Configured() {
		return oops.Code(config.CodeInvalid).With("field", "datastore").Errorf("no datastore configured")
	}

	store, err := deps.StoreOpener(ctx, sc)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "audit table %s ready\n", store.Table())
	return nil
}
