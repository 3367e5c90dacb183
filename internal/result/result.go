// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package result classifies the "result" member of a query response into exactly
// one of three shapes: a plain message, a table, or an unrecognized payload.
// Every backend response is classified before it reaches the history.
package result

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Messages shown for the non-message shapes.
const (
	NoRowsMessage       = "Query executed successfully, but returned no rows."
	UnrecognizedMessage = "Received unexpected result format."
)

// Kind tags which payload a Result carries.
type Kind int

const (
	KindMessage Kind = iota
	KindTable
	KindUnrecognized
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindTable:
		return "table"
	default:
		return "unrecognized"
	}
}

// Table is an ordered header list plus ordered rows. Cells are string,
// json.Number, bool or nil.
type Table struct {
	Headers []string
	Rows    [][]any
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t == nil || len(t.Rows) == 0 }

// Clone returns a deep copy of t. Cells are scalars, so copying each row is enough.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{Headers: append([]string(nil), t.Headers...)}
	if t.Rows != nil {
		out.Rows = make([][]any, len(t.Rows))
		for i, row := range t.Rows {
			out.Rows[i] = append([]any(nil), row...)
		}
	}
	return out
}

// Result holds exactly one payload selected by Kind.
type Result struct {
	Kind    Kind
	Message string
	Table   *Table
	// Raw keeps the undecodable payload of an unrecognized result for diagnostics.
	Raw json.RawMessage
}

// Clone returns a copy of r that shares no table or raw storage with it.
func (r Result) Clone() Result {
	r.Table = r.Table.Clone()
	if r.Raw != nil {
		r.Raw = append(json.RawMessage(nil), r.Raw...)
	}
	return r
}

// Message builds a message result.
func Message(s string) Result { return Result{Kind: KindMessage, Message: s} }

// FromTable builds a table result.
func FromTable(t *Table) Result { return Result{Kind: KindTable, Table: t} }

// Unrecognized builds an unrecognized result retaining raw.
func Unrecognized(raw []byte) Result {
	return Result{Kind: KindUnrecognized, Raw: append(json.RawMessage(nil), raw...)}
}

// Classify discriminates raw by shape alone.
func Classify(raw json.RawMessage) Result {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Unrecognized(raw)
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return Message(s)
		}
	case '{':
		if t, ok := decodeTable(trimmed); ok {
			return FromTable(t)
		}
	}
	return Unrecognized(raw)
}

// decodeTable accepts an object whose "headers" is an array of strings and whose
// "rows" is an array of arrays.
func decodeTable(data []byte) (*Table, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}
	rawHeaders, ok := obj["headers"]
	if !ok {
		return nil, false
	}
	rawRows, ok := obj["rows"]
	if !ok {
		return nil, false
	}

	var headers []string
	if err := json.Unmarshal(rawHeaders, &headers); err != nil || headers == nil {
		return nil, false
	}

	var rowList []json.RawMessage
	if err := json.Unmarshal(rawRows, &rowList); err != nil || rowList == nil {
		return nil, false
	}
	rows := make([][]any, 0, len(rowList))
	for _, r := range rowList {
		row, err := DecodeRow(r)
		if err != nil {
			return nil, false
		}
		rows = append(rows, row)
	}
	return &Table{Headers: headers, Rows: rows}, true
}

// DecodeRow decodes one JSON array into cells, keeping numbers as json.Number.
// Nested arrays or objects are rejected.
func DecodeRow(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var row []any
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errNotArray
	}
	for _, c := range row {
		switch c.(type) {
		case nil, string, bool, json.Number:
		default:
			return nil, errNestedCell
		}
	}
	return row, nil
}

// LooksLikeError reports whether a message result reads like a failure.
func (r Result) LooksLikeError() bool {
	if r.Kind != KindMessage {
		return false
	}
	lower := strings.ToLower(r.Message)
	return strings.Contains(lower, "error") || strings.Contains(lower, "failed")
}

// Text is the one-line summary used where a table cannot be drawn.
func (r Result) Text() string {
	switch r.Kind {
	case KindMessage:
		return r.Message
	case KindTable:
		if r.Table.Empty() {
			return NoRowsMessage
		}
		if len(r.Table.Rows) == 1 {
			return "1 row"
		}
		return fmt.Sprintf("%d rows", len(r.Table.Rows))
	default:
		return UnrecognizedMessage
	}
}

type wireResult struct {
	Kind    string          `json:"kind"`
	Message string          `json:"message,omitempty"`
	Headers *[]string       `json:"headers,omitempty"`
	Rows    *[][]any        `json:"rows,omitempty"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// MarshalJSON renders the tagged variant with an explicit "kind" member.
func (r Result) MarshalJSON() ([]byte, error) {
	w := wireResult{Kind: r.Kind.String()}
	switch r.Kind {
	case KindMessage:
		w.Message = r.Message
	case KindTable:
		headers, rows := []string{}, [][]any{}
		if r.Table != nil {
			if r.Table.Headers != nil {
				headers = r.Table.Headers
			}
			if r.Table.Rows != nil {
				rows = r.Table.Rows
			}
		}
		w.Headers, w.Rows = &headers, &rows
	default:
		w.Message = UnrecognizedMessage
		if json.Valid(r.Raw) {
			w.Raw = r.Raw
		}
	}
	return json.Marshal(w)
}
