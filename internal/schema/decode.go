// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"nlsql/cli/internal/backend"
	"nlsql/cli/internal/errors"
	"nlsql/cli/internal/result"
)

// FetchFailedMessage is the fallback when the backend gives no reason.
const FetchFailedMessage = "Failed to fetch schema"

// Decode turns the response to SentinelQuery into a snapshot. A response that is
// not 2xx, is malformed, carries an error (top level or inside result), or lacks
// db_details is a SchemaFetchFailed error. The message is the top-level error if
// present, else result.error, else FetchFailedMessage.
func Decode(resp *backend.ProcessResponse) (*Snapshot, error) {
	if resp == nil {
		return nil, errors.New(errors.SchemaFetchFailed, FetchFailedMessage)
	}
	if resp.Malformed {
		return nil, errors.Wrap(errors.SchemaFetchFailed, FetchFailedMessage,
			fmt.Errorf("status %d: response is not a JSON object", resp.StatusCode))
	}

	var inner struct {
		Error     json.RawMessage `json:"error"`
		DBDetails json.RawMessage `json:"db_details"`
	}
	resultIsObject := resp.HasResult() && bytes.HasPrefix(bytes.TrimSpace(resp.Result), []byte("{"))
	if resultIsObject {
		if err := json.Unmarshal(resp.Result, &inner); err != nil {
			resultIsObject = false
		}
	}
	innerErr := errorText(inner.Error)

	if !resp.OK() || resp.Error != "" || !resultIsObject || innerErr != "" || isNull(inner.DBDetails) {
		msg := FetchFailedMessage
		switch {
		case resp.Error != "":
			msg = resp.Error
		case innerErr != "":
			msg = innerErr
		}
		return nil, errors.Wrap(errors.SchemaFetchFailed, msg, fmt.Errorf("status %d", resp.StatusCode))
	}

	tables, err := decodeTables(inner.DBDetails)
	if err != nil {
		return nil, errors.Wrap(errors.SchemaFetchFailed, FetchFailedMessage, err)
	}
	return NewSnapshot(tables), nil
}

// decodeTables walks the db_details object token by token so table order
// follows the backend.
func decodeTables(data json.RawMessage) ([]Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("db_details is not an object")
	}

	var tables []Table
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		t, err := decodeTable(name, raw)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		tables = append(tables, t)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return tables, nil
}

func decodeTable(name string, raw json.RawMessage) (Table, error) {
	var body struct {
		Schema  []Column `json:"schema"`
		Content *struct {
			Headers []string          `json:"headers"`
			Rows    []json.RawMessage `json:"rows"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Table{}, err
	}

	t := Table{Name: name, Columns: body.Schema}
	if body.Content == nil {
		// Without content the columns still describe the headers.
		for _, c := range body.Schema {
			t.Content.Headers = append(t.Content.Headers, c.Name)
		}
		return t, nil
	}

	t.Content.Headers = body.Content.Headers
	for _, r := range body.Content.Rows {
		row, err := result.DecodeRow(r)
		if err != nil {
			return Table{}, err
		}
		t.Content.Rows = append(t.Content.Rows, row)
	}
	return t, nil
}

func errorText(v json.RawMessage) string {
	if isNull(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

func isNull(v json.RawMessage) bool {
	return len(v) == 0 || string(bytes.TrimSpace(v)) == "null"
}
