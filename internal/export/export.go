// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package export writes the query history to disk as a markdown transcript or JSON.
// Entries are written in the order the questions were asked.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nlsql/cli/internal/history"
	"nlsql/cli/internal/render"
	"nlsql/cli/internal/result"
)

// Document is the JSON export layout.
type Document struct {
	File       string          `json:"file"`
	ExportedAt time.Time       `json:"exported_at"`
	Entries    []history.Entry `json:"entries"`
}

// Write exports entries (newest first, as kept by the history) to path. The
// format follows the extension: .json writes JSON, anything else markdown.
func Write(path, fileName string, entries []history.Entry, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		b, err := BuildJSON(fileName, entries, now)
		if err != nil {
			return err
		}
		data = b
	} else {
		data = []byte(BuildMarkdown(fileName, entries, now))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// BuildMarkdown renders a transcript of entries.
func BuildMarkdown(fileName string, entries []history.Entry, now time.Time) string {
	var b strings.Builder
	b.WriteString("# nlsql transcript: " + fileName + "\n\n")
	b.WriteString("Exported " + now.UTC().Format(time.RFC3339) + "\n\n")

	if len(entries) == 0 {
		b.WriteString("_No questions asked._\n")
		return b.String()
	}

	for i, e := range chronological(entries) {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, e.Question)
		if e.HasSQL() {
			b.WriteString("```sql\n" + e.ExecutedSQL + "\n```\n\n")
		}
		switch e.Result.Kind {
		case result.KindTable:
			if e.Result.Table.Empty() {
				b.WriteString("_" + result.NoRowsMessage + "_\n\n")
				continue
			}
			b.WriteString(render.MarkdownTable(e.Result.Table) + "\n\n")
		case result.KindMessage:
			if e.Failed() || e.Result.LooksLikeError() {
				b.WriteString("> **Error:** " + e.Result.Message + "\n\n")
				continue
			}
			b.WriteString(e.Result.Message + "\n\n")
		default:
			b.WriteString("> " + result.UnrecognizedMessage + "\n\n")
		}
	}
	return strings.TrimSpace(b.String()) + "\n"
}

// BuildJSON renders entries as an indented Document.
func BuildJSON(fileName string, entries []history.Entry, now time.Time) ([]byte, error) {
	doc := Document{File: fileName, ExportedAt: now.UTC(), Entries: chronological(entries)}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return append(b, '\n'), nil
}

func chronological(entries []history.Entry) []history.Entry {
	out := make([]history.Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
