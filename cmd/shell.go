// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nlsql/cli/internal/errors"
	"nlsql/cli/internal/export"
	"nlsql/cli/internal/orchestrator"
	"nlsql/cli/internal/render"
	"nlsql/cli/internal/schema"
)

var shellCmd = &cobra.Command{
	Use:   "shell [file.db]",
	Short: "Interactive session: upload a database and ask questions",
	Long: `Start an interactive session. Pass a database to upload it right away, or use
.open inside the shell. Any line that is not a dot-command is sent as a question.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd, args)
	},
}

// shell holds the REPL state around one orchestrator.
type shell struct {
	o      *orchestrator.Orchestrator
	r      *render.Renderer
	rl     *readline.Instance
	out    io.Writer
	errOut io.Writer
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sh := &shell{
		o:      newOrchestrator(),
		r:      render.New(cmd.OutOrStdout(), cfg.Format),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.prompt(),
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    completerFor(nil),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()
	sh.rl = rl

	fmt.Fprintln(sh.out, pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint("nlsql shell")+
		pterm.NewStyle(pterm.FgGray).Sprintf(" (backend %s)", cfg.BackendURL))
	fmt.Fprintln(sh.out, "Type .help for commands, .quit to exit")
	fmt.Fprintln(sh.out)

	if len(args) == 1 {
		sh.open(ctx, args[0])
	}

	for {
		line, err := rl.Readline()
		if stderrors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			if quit := sh.dotCommand(ctx, line); quit {
				break
			}
			continue
		}
		sh.question(ctx, line)
	}
	return nil
}

func (sh *shell) prompt() string {
	v := sh.o.View()
	if v.Stage.SessionActive() {
		return "nlsql(" + v.SessionFile + ")> "
	}
	return "nlsql> "
}

// refresh updates prompt and completion after the session changed.
func (sh *shell) refresh() {
	if sh.rl == nil {
		return
	}
	sh.rl.SetPrompt(sh.prompt())
	sh.rl.Config.AutoComplete = completerFor(sh.o.View().Schema)
}

// open replaces the session only once the new file is accepted; Upload itself
// discards the previous session, schema and history.
func (sh *shell) open(ctx context.Context, path string) {
	if err := openDatabase(ctx, sh.o, sh.errOut, path); err == nil {
		v := sh.o.View()
		if sh.r.Format() == render.FormatTable {
			pterm.Success.Printf("Uploaded %s (%d tables)\n", v.SessionFile, v.Schema.Len())
		}
		_ = sh.r.Schema(v.Schema, "")
	}
	sh.refresh()
}

func (sh *shell) question(ctx context.Context, line string) {
	_, err := ask(ctx, sh.o, sh.r, line)
	switch {
	case err == nil:
	case errors.Is(err, errors.NoSession):
		fmt.Fprintln(sh.errOut, "No database uploaded yet. Use .open <file.db> first.")
	case errors.Is(err, errors.EmptyQuery), errors.Is(err, errors.Busy):
		render.New(sh.errOut, render.FormatTable).Banner(errMessage(sh.o, err))
	default:
		fmt.Fprintf(sh.errOut, "Error: %v\n", err)
	}
}

// dotCommand runs a shell command and reports whether the shell should exit.
func (sh *shell) dotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	arg := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printShellHelp(sh.out)

	case ".open":
		if arg == "" {
			fmt.Fprintln(sh.errOut, "Usage: .open <file.db>")
			break
		}
		sh.open(ctx, arg)

	case ".schema":
		v := sh.o.View()
		if v.Schema == nil {
			fmt.Fprintln(sh.errOut, "No database uploaded yet. Use .open <file.db> first.")
			break
		}
		if err := sh.r.Schema(v.Schema, arg); err != nil {
			fmt.Fprintf(sh.errOut, "Error: %v\n", err)
		}

	case ".history":
		entries := sh.o.View().History
		if len(entries) == 0 {
			fmt.Fprintln(sh.out, "No questions asked yet.")
			break
		}
		for _, e := range entries {
			_ = sh.r.Entry(e)
		}

	case ".export":
		if arg == "" {
			fmt.Fprintln(sh.errOut, "Usage: .export <path.md|path.json>")
			break
		}
		v := sh.o.View()
		if err := export.Write(arg, v.SessionFile, v.History, time.Now()); err != nil {
			fmt.Fprintf(sh.errOut, "Error: %v\n", err)
			break
		}
		logger.Info("history exported", zap.String("path", arg), zap.Int("entries", len(v.History)))
		if sh.r.Format() == render.FormatTable {
			pterm.Success.Printf("Exported %d entries to %s\n", len(v.History), arg)
		}

	case ".reset":
		sh.o.Reset()
		sh.refresh()
		fmt.Fprintln(sh.out, "Session cleared.")

	case ".dismiss":
		sh.o.DismissError()

	default:
		fmt.Fprintf(sh.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func errMessage(o *orchestrator.Orchestrator, err error) string {
	if msg := o.View().Error; msg != "" {
		return msg
	}
	var e *errors.E
	if stderrors.As(err, &e) {
		return e.UserMessage()
	}
	return err.Error()
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .open <file.db>    Upload a database (replaces the current session)
  .schema [table]    Show tables and their contents
  .history           Show answered questions, newest first
  .export <path>     Save the history as markdown, or JSON for a .json path
  .reset             Forget the session, schema and history
  .dismiss           Clear the current error
  .help              Show this help message
  .quit / .exit      Exit the shell

Any other line is sent to the backend as a question.
`
	fmt.Fprintln(w, help)
}

// completerFor offers dot-commands plus the table names of the snapshot.
func completerFor(snap *schema.Snapshot) *readline.PrefixCompleter {
	var tables []readline.PrefixCompleterInterface
	for _, name := range snap.Names() {
		tables = append(tables, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".open"),
		readline.PcItem(".schema", tables...),
		readline.PcItem(".history"),
		readline.PcItem(".export"),
		readline.PcItem(".reset"),
		readline.PcItem(".dismiss"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
	)
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
