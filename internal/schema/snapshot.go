// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package schema holds the point-in-time snapshot of every table in an uploaded
// database: column definitions, headers and materialized rows.
//
// A snapshot is fetched once per session with SentinelQuery and is never updated
// by later questions, even ones that modify the database.
package schema

import (
	"nlsql/cli/internal/result"
)

// SentinelQuery is the reserved query string that asks the backend for the full
// schema and contents instead of translating a question.
const SentinelQuery = "__GET_SCHEMA_AND_CONTENT__"

// Column is a column definition as reported by the backend.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Table is one table of the snapshot.
type Table struct {
	Name    string
	Columns []Column
	Content result.Table
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Content.Rows) == 0 }

// Snapshot is an ordered, immutable set of tables. Accessors return copies.
type Snapshot struct {
	tables []Table
	index  map[string]int
}

// NewSnapshot builds a snapshot from tables in display order. Later duplicates
// of a name replace earlier ones in place.
func NewSnapshot(tables []Table) *Snapshot {
	s := &Snapshot{index: make(map[string]int, len(tables))}
	for _, t := range tables {
		if i, ok := s.index[t.Name]; ok {
			s.tables[i] = copyTable(t)
			continue
		}
		s.index[t.Name] = len(s.tables)
		s.tables = append(s.tables, copyTable(t))
	}
	return s
}

// Len returns the number of tables.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tables)
}

// Empty reports whether the database has no tables.
func (s *Snapshot) Empty() bool { return s.Len() == 0 }

// Names returns table names in backend order.
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.tables))
	for i, t := range s.tables {
		names[i] = t.Name
	}
	return names
}

// Table returns a copy of the named table.
func (s *Snapshot) Table(name string) (Table, bool) {
	if s == nil {
		return Table{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Table{}, false
	}
	return copyTable(s.tables[i]), true
}

// Tables returns copies of all tables in order.
func (s *Snapshot) Tables() []Table {
	if s == nil {
		return nil
	}
	out := make([]Table, len(s.tables))
	for i, t := range s.tables {
		out[i] = copyTable(t)
	}
	return out
}

func copyTable(t Table) Table {
	return Table{
		Name:    t.Name,
		Columns: append([]Column(nil), t.Columns...),
		Content: *t.Content.Clone(),
	}
}
