// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package render draws orchestrator state on a terminal: history entries, the
// schema snapshot and blocking error banners. Tables go through go-pretty in the
// configured output format; messages are coloured with pterm.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pterm/pterm"

	"nlsql/cli/internal/history"
	"nlsql/cli/internal/result"
)

// Output formats.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Renderer writes to w in one output format.
type Renderer struct {
	w      io.Writer
	format string
}

// New creates a renderer; unknown formats fall back to FormatTable.
func New(w io.Writer, format string) *Renderer {
	switch format {
	case FormatJSON, FormatCSV, FormatMarkdown:
	default:
		format = FormatTable
	}
	return &Renderer{w: w, format: format}
}

// Format returns the active output format.
func (r *Renderer) Format() string { return r.format }

// Entry renders one history entry.
func (r *Renderer) Entry(e history.Entry) error {
	if r.format == FormatJSON {
		return r.encodeJSON(e)
	}

	switch r.format {
	case FormatTable:
		fmt.Fprintln(r.w, pterm.NewStyle(pterm.FgLightCyan).Sprint("? ")+pterm.NewStyle(pterm.Bold).Sprint(e.Question))
		if e.HasSQL() {
			fmt.Fprintln(r.w, pterm.NewStyle(pterm.FgGray).Sprint("  SQL: ")+pterm.NewStyle(pterm.FgLightBlue).Sprint(e.ExecutedSQL))
		}
	case FormatMarkdown:
		fmt.Fprintf(r.w, "**%s**\n\n", e.Question)
		if e.HasSQL() {
			fmt.Fprintf(r.w, "```sql\n%s\n```\n\n", e.ExecutedSQL)
		}
	case FormatCSV:
		fmt.Fprintf(r.w, "# %s\n", e.Question)
	}
	return r.Result(e.Result, e.Failed())
}

// Result renders a classified result. failed forces error colouring of messages.
func (r *Renderer) Result(res result.Result, failed bool) error {
	switch r.format {
	case FormatJSON:
		return r.encodeJSON(res)
	case FormatCSV:
		if res.Kind == result.KindTable {
			_, err := fmt.Fprintln(r.w, newTable(res.Table).RenderCSV())
			return err
		}
		_, err := fmt.Fprintln(r.w, res.Text())
		return err
	case FormatMarkdown:
		if res.Kind == result.KindTable && !res.Table.Empty() {
			_, err := fmt.Fprintf(r.w, "%s\n\n", newTable(res.Table).RenderMarkdown())
			return err
		}
		_, err := fmt.Fprintf(r.w, "_%s_\n\n", res.Text())
		return err
	}

	switch res.Kind {
	case result.KindTable:
		if res.Table.Empty() {
			fmt.Fprintln(r.w, pterm.NewStyle(pterm.FgGreen).Sprint("  "+result.NoRowsMessage))
			break
		}
		fmt.Fprintln(r.w, indent(newTable(res.Table).Render()))
		fmt.Fprintln(r.w, pterm.NewStyle(pterm.FgGray).Sprintf("  (%s)", res.Text()))
	case result.KindMessage:
		style := pterm.NewStyle(pterm.FgGreen)
		if failed || res.LooksLikeError() {
			style = pterm.NewStyle(pterm.FgRed)
		}
		fmt.Fprintln(r.w, style.Sprint("  "+res.Message))
	default:
		fmt.Fprintln(r.w, pterm.NewStyle(pterm.FgYellow).Sprint("  ⚠ "+result.UnrecognizedMessage))
	}
	fmt.Fprintln(r.w)
	return nil
}

// Banner renders the blocking error message.
func (r *Renderer) Banner(msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintln(r.w, pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Error: ")+pterm.NewStyle(pterm.FgRed).Sprint(msg))
}

func (r *Renderer) encodeJSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(t *result.Table) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	if t == nil {
		return tw
	}
	header := make(table.Row, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range t.Rows {
		cells := make(table.Row, len(row))
		for i, c := range row {
			cells[i] = FormatCell(c)
		}
		tw.AppendRow(cells)
	}
	return tw
}

// MarkdownTable renders t as a GitHub-flavoured markdown table.
func MarkdownTable(t *result.Table) string {
	return newTable(t).RenderMarkdown()
}

// FormatCell renders a cell value; SQL NULL prints as NULL.
func FormatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return "NULL"
	case string:
		return c
	case json.Number:
		return c.String()
	case bool:
		if c {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", c)
	}
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
