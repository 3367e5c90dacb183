// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the nlsql CLI application.
// It implements subcommands for uploading a SQLite database to a natural-language
// SQL backend, browsing its schema and asking questions, using the Cobra CLI
// framework with a pterm-based terminal UI.
package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nlsql/cli/internal/backend"
	"nlsql/cli/internal/config"
	"nlsql/cli/internal/logging"
	"nlsql/cli/internal/xdg"
)

var (
	showVersion bool
	verbose     bool

	// cfg and logger are initialised by the root PersistentPreRunE.
	cfg    config.Config
	logger = zap.NewNop()
)

// errReported marks failures that were already shown to the user.
var errReported = stderrors.New("already reported")

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nlsql",
	Short: "Ask questions about a SQLite database in plain language",
	Long: `nlsql uploads a SQLite database to a natural-language SQL backend, shows its
tables and contents, and turns your questions into SQL that the backend runs.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	cfg = c

	opts := logging.Options{Level: cfg.LogLevel}
	if dir, err := xdg.StateDir(); err == nil {
		opts.Dir = dir
	}
	if verbose {
		opts.Console = os.Stderr
	}
	logger = logging.New(opts)
	logger.Debug("configuration loaded",
		zap.String("command", cmd.CommandPath()),
		zap.String("backend_url", logging.Mask(cfg.BackendURL)),
		zap.Duration("timeout", cfg.Timeout),
		zap.String("format", cfg.Format),
	)
	return nil
}

// newBackend creates the backend client from the loaded configuration.
func newBackend() backend.API {
	return backend.New(cfg.BackendURL, backend.Options{
		Endpoints: backend.DefaultEndpoints(),
		Timeout:   cfg.Timeout,
		Version:   Version,
		Logger:    logger,
	})
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !stderrors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, logging.PresentError("", err))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")

	pf := rootCmd.PersistentFlags()
	pf.String("backend-url", config.DefaultBackendURL, "Base URL of the natural-language SQL backend")
	pf.Duration("timeout", config.DefaultTimeout, "Timeout for each backend request")
	pf.String("format", config.DefaultFormat, "Output format: table, json, csv or markdown")
	pf.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Mirror logs to stderr")
}
