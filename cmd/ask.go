// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nlsql/cli/internal/render"
)

// askCmd uploads a database and asks each question in turn.
var askCmd = &cobra.Command{
	Use:   "ask <file.db> <question>...",
	Short: "Upload a database and ask one or more questions",
	Long: `Upload a SQLite database and ask each question in order. Every question is
translated to SQL by the backend; the SQL and its result are printed in the
configured output format.`,
	Example: `  nlsql ask shop.db "how many customers?"
  nlsql ask shop.db "top 5 products by revenue" "customers without orders" --format markdown`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runAsk(ctx, cmd, args[0], args[1:])
	},
}

func runAsk(ctx context.Context, cmd *cobra.Command, path string, questions []string) error {
	o := newOrchestrator()
	r := render.New(cmd.OutOrStdout(), cfg.Format)

	if err := openDatabase(ctx, o, cmd.ErrOrStderr(), path); err != nil {
		return errReported
	}

	for _, q := range questions {
		if _, err := ask(ctx, o, r, q); err != nil {
			// Local guards (blank question) do not stop the remaining questions.
			render.New(cmd.ErrOrStderr(), render.FormatTable).Banner(o.View().Error)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(askCmd)
}
