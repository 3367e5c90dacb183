// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlsql/cli/internal/config"
	"nlsql/cli/internal/render"
)

func TestMain(m *testing.M) {
	pterm.DisableColor()
	os.Exit(m.Run())
}

// fakeBackend serves the upload and process routes for shop.db.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/upload_db/", func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("file")
		if err != nil || filepath.Ext(hdr.Filename) != ".db" {
			_, _ = io.WriteString(w, `{"error":"Only .db files are allowed"}`)
			return
		}
		_, _ = io.WriteString(w, `{"session_token":"abc123"}`)
	})
	mux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("session_token") != "abc123" {
			_, _ = io.WriteString(w, `{"error":"Invalid session. Please re-upload the database."}`)
			return
		}
		switch r.URL.Query().Get("query") {
		case "__GET_SCHEMA_AND_CONTENT__":
			_, _ = io.WriteString(w, `{"executed_sql":null,"result":{"db_details":{"customers":{"schema":[{"name":"id","type":"INTEGER"},{"name":"name","type":"TEXT"}],"content":{"headers":["id","name"],"rows":[[1,"Ann"]]}}}}}`)
		case "how many customers?":
			_, _ = io.WriteString(w, `{"executed_sql":"SELECT COUNT(*) FROM customers","result":{"headers":["count"],"rows":[[1]]}}`)
		default:
			_, _ = io.WriteString(w, `{"executed_sql":null,"error":"AI_ERROR: could not translate"}`)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	db := filepath.Join(dir, "shop.db")
	require.NoError(t, os.WriteFile(db, []byte("SQLite format 3\x00"), 0o600))
	return db
}

func TestAskCommandJSON(t *testing.T) {
	srv := fakeBackend(t)
	db := isolate(t)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"ask", db, "how many customers?", "--backend-url", srv.URL, "--format", "json"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())

	var entry struct {
		Question    string         `json:"question"`
		ExecutedSQL string         `json:"executed_sql"`
		Result      map[string]any `json:"result"`
	}
	require.NoError(t, json.NewDecoder(&out).Decode(&entry))
	assert.Equal(t, "how many customers?", entry.Question)
	assert.Equal(t, "SELECT COUNT(*) FROM customers", entry.ExecutedSQL)
	assert.Equal(t, "table", entry.Result["kind"])
	assert.Empty(t, errOut.String())
}

func TestShellDotCommands(t *testing.T) {
	srv := fakeBackend(t)
	db := isolate(t)
	cfg = config.Config{BackendURL: srv.URL, Timeout: 5 * time.Second, Format: render.FormatTable}

	var out, errOut bytes.Buffer
	sh := &shell{o: newOrchestrator(), r: render.New(&out, render.FormatTable), out: &out, errOut: &errOut}
	ctx := context.Background()

	sh.question(ctx, "how many customers?")
	assert.Contains(t, errOut.String(), "No database uploaded yet")

	assert.False(t, sh.dotCommand(ctx, ".open "+db))
	require.True(t, sh.o.View().HasSession, errOut.String())
	assert.Equal(t, "nlsql(shop.db)> ", sh.prompt())
	assert.Contains(t, out.String(), "customers (1 row)")

	out.Reset()
	sh.question(ctx, "how many customers?")
	sh.question(ctx, "gibberish")
	assert.Contains(t, out.String(), "SQL: SELECT COUNT(*) FROM customers")
	assert.Contains(t, out.String(), "AI_ERROR: could not translate")
	assert.Len(t, sh.o.View().History, 2)

	exportPath := filepath.Join(t.TempDir(), "out", "history.md")
	assert.False(t, sh.dotCommand(ctx, ".export "+exportPath))
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## 1. how many customers?")

	errOut.Reset()
	assert.False(t, sh.dotCommand(ctx, ".open report.txt"))
	assert.Contains(t, errOut.String(), "Please select a valid .db file.")
	assert.True(t, sh.o.View().HasSession, "a rejected file keeps the current session")
	assert.Len(t, sh.o.View().History, 2)
	assert.Equal(t, "nlsql(shop.db)> ", sh.prompt())

	assert.False(t, sh.dotCommand(ctx, ".reset"))
	assert.False(t, sh.o.View().HasSession)
	assert.Equal(t, "nlsql> ", sh.prompt())

	errOut.Reset()
	assert.False(t, sh.dotCommand(ctx, ".open notes.txt"))
	assert.Contains(t, errOut.String(), "Please select a valid .db file.")

	assert.False(t, sh.dotCommand(ctx, ".bogus"))
	assert.Contains(t, errOut.String(), "Unknown command: .bogus")
	assert.True(t, sh.dotCommand(ctx, ".quit"))
}
