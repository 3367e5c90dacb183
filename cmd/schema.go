// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nlsql/cli/internal/render"
)

// schemaCmd uploads a database and prints its schema snapshot.
var schemaCmd = &cobra.Command{
	Use:   "schema <file.db> [table]",
	Short: "Upload a database and show its tables and contents",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		o := newOrchestrator()
		if err := openDatabase(ctx, o, cmd.ErrOrStderr(), args[0]); err != nil {
			return errReported
		}

		table := ""
		if len(args) == 2 {
			table = args[1]
		}
		return render.New(cmd.OutOrStdout(), cfg.Format).Schema(o.View().Schema, table)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
