// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package render

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pterm/pterm"

	"nlsql/cli/internal/schema"
)

// Empty states of the schema browser.
const (
	NoTablesMessage   = "Database has no tables."
	EmptyTableMessage = "This table is empty."
)

type jsonTable struct {
	Name    string          `json:"name"`
	Columns []schema.Column `json:"columns,omitempty"`
	Headers []string        `json:"headers"`
	Rows    [][]any         `json:"rows"`
}

// Schema renders the snapshot. When only is non-empty just that table is drawn.
func (r *Renderer) Schema(snap *schema.Snapshot, only string) error {
	tables := snap.Tables()
	if only != "" {
		t, ok := snap.Table(only)
		if !ok {
			return fmt.Errorf("table %q not found; tables: %v", only, snap.Names())
		}
		tables = []schema.Table{t}
	}

	if r.format == FormatJSON {
		out := make([]jsonTable, 0, len(tables))
		for _, t := range tables {
			jt := jsonTable{Name: t.Name, Columns: t.Columns, Headers: t.Content.Headers, Rows: t.Content.Rows}
			if jt.Headers == nil {
				jt.Headers = []string{}
			}
			if jt.Rows == nil {
				jt.Rows = [][]any{}
			}
			out = append(out, jt)
		}
		return r.encodeJSON(out)
	}

	if len(tables) == 0 {
		_, err := fmt.Fprintln(r.w, NoTablesMessage)
		return err
	}

	for _, t := range tables {
		if err := r.schemaTable(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) schemaTable(t schema.Table) error {
	content := t.Content
	switch r.format {
	case FormatCSV:
		fmt.Fprintf(r.w, "# %s\n", t.Name)
		if t.Empty() {
			fmt.Fprintln(r.w, EmptyTableMessage)
			return nil
		}
		_, err := fmt.Fprintln(r.w, newTable(&content).RenderCSV())
		return err
	case FormatMarkdown:
		fmt.Fprintf(r.w, "### %s\n\n", t.Name)
		if len(t.Columns) > 0 {
			fmt.Fprintf(r.w, "%s\n\n", columnsTable(t.Columns).RenderMarkdown())
		}
		if t.Empty() {
			fmt.Fprintf(r.w, "_%s_\n\n", EmptyTableMessage)
			return nil
		}
		_, err := fmt.Fprintf(r.w, "%s\n\n", MarkdownTable(&content))
		return err
	}

	fmt.Fprintln(r.w, pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint(t.Name)+
		pterm.NewStyle(pterm.FgGray).Sprintf(" (%s)", rowCount(len(content.Rows))))
	if len(t.Columns) > 0 {
		fmt.Fprintln(r.w, indent(columnsTable(t.Columns).Render()))
	}
	if t.Empty() {
		fmt.Fprintln(r.w, pterm.NewStyle(pterm.FgGray).Sprint("  "+EmptyTableMessage))
	} else {
		fmt.Fprintln(r.w, indent(newTable(&content).Render()))
	}
	fmt.Fprintln(r.w)
	return nil
}

func columnsTable(cols []schema.Column) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Column", "Type"})
	for _, c := range cols {
		tw.AppendRow(table.Row{c.Name, c.Type})
	}
	return tw
}

func rowCount(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
