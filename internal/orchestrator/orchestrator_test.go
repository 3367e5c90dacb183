// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlsql/cli/internal/backend"
	"nlsql/cli/internal/errors"
	"nlsql/cli/internal/history"
	"nlsql/cli/internal/result"
)

const shopSchema = `{"customers":{"content":{"headers":["id","name"],"rows":[[1,"Ann"]]}}}`

func newShop(t *testing.T) (*Orchestrator, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	api.tokens["shop.db"] = "abc123"
	api.schemas["abc123"] = schemaResp(shopSchema)
	return New(api), api
}

func uploaded(t *testing.T) (*Orchestrator, *fakeAPI) {
	t.Helper()
	o, api := newShop(t)
	require.NoError(t, o.SelectFile(FileFromBytes("shop.db", []byte("SQLite format 3"))))
	require.NoError(t, o.Upload(context.Background()))
	return o, api
}

func TestSelectFile(t *testing.T) {
	o := New(newFakeAPI())

	require.NoError(t, o.SelectFile(FileFromBytes("data.db", nil)))
	v := o.View()
	assert.Equal(t, "data.db", v.SelectedFile)
	assert.True(t, v.CanUpload)
	assert.Empty(t, v.Error)

	err := o.SelectFile(FileFromBytes("report.txt", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.InvalidFileType))

	v = o.View()
	assert.Empty(t, v.SelectedFile, "rejected selection clears the previous one")
	assert.False(t, v.CanUpload)
	assert.Equal(t, InvalidFileMessage, v.Error)

	require.NoError(t, o.SelectFile(FileFromBytes("other.db", nil)))
	v = o.View()
	assert.Equal(t, "other.db", v.SelectedFile)
	assert.Empty(t, v.Error, "a valid selection clears the error")
}

func TestSelectFileSuffixIsCaseSensitive(t *testing.T) {
	o := New(newFakeAPI())
	assert.Error(t, o.SelectFile(FileFromBytes("DATA.DB", nil)))
	assert.Error(t, o.SelectFile(File{Name: "x.db"}), "a file without Open is rejected")
}

func TestUploadWithoutSelection(t *testing.T) {
	api := newFakeAPI()
	o := New(api)

	err := o.Upload(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NoFileSelected))
	assert.Equal(t, NoFileMessage, o.View().Error)
	assert.Empty(t, api.uploads)
}

func TestUploadShopScenario(t *testing.T) {
	o, api := uploaded(t)

	v := o.View()
	assert.Equal(t, StageIdle, v.Stage)
	assert.True(t, v.HasSession)
	assert.Equal(t, "shop.db", v.SessionFile)
	require.NotNil(t, v.Schema)
	assert.Equal(t, []string{"customers"}, v.Schema.Names())

	customers, ok := v.Schema.Table("customers")
	require.True(t, ok)
	require.Len(t, customers.Content.Rows, 1)
	assert.Equal(t, []any{json.Number("1"), "Ann"}, customers.Content.Rows[0])

	assert.Equal(t, []string{"shop.db"}, api.uploads)
	assert.Equal(t, []string{"__GET_SCHEMA_AND_CONTENT__"}, api.processed)
}

func TestUploadZeroTables(t *testing.T) {
	api := newFakeAPI()
	api.tokens["empty.db"] = "tok"
	api.schemas["tok"] = schemaResp(`{}`)
	o := New(api)

	require.NoError(t, o.SelectFile(FileFromBytes("empty.db", nil)))
	require.NoError(t, o.Upload(context.Background()))

	v := o.View()
	assert.Equal(t, StageIdle, v.Stage)
	assert.False(t, v.Uploading)
	assert.Empty(t, v.Error)
	require.NotNil(t, v.Schema)
	assert.True(t, v.Schema.Empty())
}

func TestUploadFailures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(api *fakeAPI)
		wantKind errors.Kind
		wantMsg  string
	}{
		{
			name:     "backend rejects file",
			setup:    func(api *fakeAPI) { delete(api.tokens, "shop.db") },
			wantKind: errors.UploadFailed,
			wantMsg:  "Only .db files are allowed",
		},
		{
			name: "upload transport failure",
			setup: func(api *fakeAPI) {
				api.uploadErr = errors.Wrap(errors.NetworkError, "Network Error: cannot reach the server (EOF)", fmt.Errorf("EOF"))
			},
			wantKind: errors.NetworkError,
			wantMsg:  "Network Error: cannot reach the server (EOF)",
		},
		{
			name:     "schema error field",
			setup:    func(api *fakeAPI) { api.schemas["abc123"] = jsonResp("", `{"error":"file is not a database"}`) },
			wantKind: errors.SchemaFetchFailed,
			wantMsg:  "file is not a database",
		},
		{
			name:     "schema transport failure",
			setup:    func(api *fakeAPI) { api.schemaErr = errors.Wrap(errors.NetworkError, "Network Error: timeout", context.DeadlineExceeded) },
			wantKind: errors.SchemaFetchFailed,
			wantMsg:  "Network Error: timeout",
		},
		{
			name:     "schema without db_details",
			setup:    func(api *fakeAPI) { api.schemas["abc123"] = jsonResp("", `{}`) },
			wantKind: errors.SchemaFetchFailed,
			wantMsg:  "Failed to fetch schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, api := newShop(t)
			tt.setup(api)

			require.NoError(t, o.SelectFile(FileFromBytes("shop.db", nil)))
			err := o.Upload(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, errors.KindOf(err))

			v := o.View()
			assert.Equal(t, StageNoSession, v.Stage)
			assert.False(t, v.HasSession)
			assert.Nil(t, v.Schema)
			assert.Equal(t, tt.wantMsg, v.Error)
			assert.Empty(t, v.History)
			assert.Equal(t, "shop.db", v.SelectedFile, "selection survives so the user can retry")
		})
	}
}

func TestUploadClearsPreviousHistory(t *testing.T) {
	o, _ := uploaded(t)
	_, err := o.SubmitQuery(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, o.View().History, 1)

	require.NoError(t, o.SelectFile(FileFromBytes("shop.db", nil)))
	require.NoError(t, o.Upload(context.Background()))
	assert.Empty(t, o.View().History)
}

func TestUploadResetUploadLeavesNoResidue(t *testing.T) {
	o, api := uploaded(t)
	api.tokens["inventory.db"] = "def456"
	api.schemas["def456"] = schemaResp(`{"items":{"content":{"headers":["sku"],"rows":[["A-1"],["B-2"]]}}}`)

	_, err := o.SubmitQuery(context.Background(), "how many customers?")
	require.NoError(t, err)

	o.Reset()
	v := o.View()
	assert.Equal(t, StageNoSession, v.Stage)
	assert.Nil(t, v.Schema)
	assert.Empty(t, v.History)
	assert.Empty(t, v.SelectedFile)
	assert.False(t, v.HasSession)

	o.Reset()
	assert.Equal(t, v, o.View(), "reset is idempotent")

	require.NoError(t, o.SelectFile(FileFromBytes("inventory.db", nil)))
	require.NoError(t, o.Upload(context.Background()))

	v = o.View()
	assert.Equal(t, []string{"items"}, v.Schema.Names())
	_, found := v.Schema.Table("customers")
	assert.False(t, found)
	assert.Equal(t, "inventory.db", v.SessionFile)
	assert.Empty(t, v.History)
}

func TestSubmitQueryCountScenario(t *testing.T) {
	o, api := uploaded(t)
	api.answers["how many customers?"] = jsonResp("SELECT COUNT(*) FROM customers", `{"headers":["count"],"rows":[[1]]}`)

	o.SetQueryText("  how many customers?  ")
	assert.True(t, o.View().CanSubmit)

	entry, err := o.SubmitCurrent(context.Background())
	require.NoError(t, err)

	v := o.View()
	require.Len(t, v.History, 1)
	first := v.History[0]
	assert.Equal(t, entry, first)
	assert.Equal(t, "how many customers?", first.Question)
	assert.True(t, first.HasSQL())
	assert.Equal(t, "SELECT COUNT(*) FROM customers", first.ExecutedSQL)
	require.Equal(t, result.KindTable, first.Result.Kind)
	assert.Len(t, first.Result.Table.Rows, 1)
	assert.Empty(t, first.Failure)
	assert.Empty(t, v.QueryText, "input cleared once a response arrives")
	assert.Equal(t, StageIdle, v.Stage)
	assert.Equal(t, "how many customers?", api.processed[len(api.processed)-1], "trimmed text is sent")
}

func TestSubmitQueryNetworkFailure(t *testing.T) {
	o, api := uploaded(t)
	api.processErr = &url.Error{Op: "Get", URL: "http://127.0.0.1:8000/process", Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}}

	entry, err := o.SubmitQuery(context.Background(), "how many customers?")
	require.NoError(t, err, "transport failures are recorded, not returned")

	assert.Equal(t, errors.NetworkError, entry.Failure)
	assert.Equal(t, result.KindMessage, entry.Result.Kind)
	assert.Contains(t, entry.Result.Message, "Network Error")
	assert.False(t, entry.HasSQL())

	v := o.View()
	require.Len(t, v.History, 1)
	assert.Equal(t, StageIdle, v.Stage)
	assert.Empty(t, v.Error, "query failures never block")
	assert.Equal(t, "how many customers?", v.QueryText, "text kept after a transport failure")
}

func TestSubmitQueryResultShapes(t *testing.T) {
	tests := []struct {
		name        string
		resp        *backend.ProcessResponse
		wantKind    result.Kind
		wantFailure errors.Kind
		wantText    string
	}{
		{name: "string result", resp: jsonResp("DELETE FROM t", `"Query executed successfully. Rows affected: 2"`), wantKind: result.KindMessage, wantText: "Query executed successfully. Rows affected: 2"},
		{name: "empty rows", resp: jsonResp("SELECT * FROM t", `{"headers":["id"],"rows":[]}`), wantKind: result.KindTable, wantText: result.NoRowsMessage},
		{name: "rows", resp: jsonResp("SELECT * FROM t", `{"headers":["id"],"rows":[[1],[2]]}`), wantKind: result.KindTable, wantText: "2 rows"},
		{name: "unrecognized", resp: jsonResp("SELECT 1", `[1,2,3]`), wantKind: result.KindUnrecognized, wantFailure: errors.UnrecognizedResultFormat, wantText: result.UnrecognizedMessage},
		{name: "backend error", resp: &backend.ProcessResponse{StatusCode: 200, Error: "AI function failed during execution: quota"}, wantKind: result.KindMessage, wantFailure: errors.QueryBackendError, wantText: "AI function failed during execution: quota"},
		{name: "nothing", resp: &backend.ProcessResponse{StatusCode: 200}, wantKind: result.KindMessage, wantFailure: errors.QueryBackendError, wantText: history.NoResultMessage},
		{name: "empty string result falls back to error", resp: &backend.ProcessResponse{StatusCode: 200, Result: json.RawMessage(`""`), Error: "boom"}, wantKind: result.KindMessage, wantFailure: errors.QueryBackendError, wantText: "boom"},
		{name: "malformed body", resp: &backend.ProcessResponse{StatusCode: 502, Malformed: true, Body: []byte("<html>")}, wantKind: result.KindUnrecognized, wantFailure: errors.UnrecognizedResultFormat, wantText: result.UnrecognizedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, api := uploaded(t)
			api.answers["q"] = tt.resp

			entry, err := o.SubmitQuery(context.Background(), "q")
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, entry.Result.Kind)
			assert.Equal(t, tt.wantFailure, entry.Failure)
			assert.Equal(t, tt.wantText, entry.Result.Text())
			assert.Empty(t, o.View().QueryText)
		})
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	api := newFakeAPI()
	api.tokens["shop.db"] = "abc123"
	api.schemas["abc123"] = schemaResp(shopSchema)
	o := New(api, WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	require.NoError(t, o.SelectFile(FileFromBytes("shop.db", nil)))
	require.NoError(t, o.Upload(context.Background()))

	questions := []string{"one", "two", "three", "four"}
	for _, q := range questions {
		_, err := o.SubmitQuery(context.Background(), q)
		require.NoError(t, err)
	}

	h := o.View().History
	require.Len(t, h, len(questions))
	for i, e := range h {
		assert.Equal(t, questions[len(questions)-1-i], e.Question)
		if i > 0 {
			assert.True(t, h[i-1].CompletedAt.After(e.CompletedAt))
		}
	}
}

func TestSubmitQueryGuards(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		o, api := uploaded(t)
		before := api.processCount()

		_, err := o.SubmitQuery(context.Background(), "   ")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.EmptyQuery))
		assert.Equal(t, before, api.processCount(), "no network call")
		assert.Equal(t, EmptyQueryMessage, o.View().Error)
		assert.Empty(t, o.View().History)
	})

	t.Run("no session", func(t *testing.T) {
		api := newFakeAPI()
		o := New(api)
		_, err := o.SubmitQuery(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.NoSession))
		assert.Zero(t, api.processCount())
	})

	t.Run("submission clears the banner", func(t *testing.T) {
		o, _ := uploaded(t)
		_, _ = o.SubmitQuery(context.Background(), "")
		require.NotEmpty(t, o.View().Error)
		_, err := o.SubmitQuery(context.Background(), "real question")
		require.NoError(t, err)
		assert.Empty(t, o.View().Error)
	})
}

func TestSecondSubmissionWhileInFlightIsBusy(t *testing.T) {
	o, api := uploaded(t)
	api.gate = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := o.SubmitQuery(context.Background(), "slow")
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool { return o.View().QueryInFlight }, time.Second, time.Millisecond)
	v := o.View()
	assert.False(t, v.CanSubmit)
	assert.False(t, v.CanUpload)

	_, err := o.SubmitQuery(context.Background(), "fast")
	assert.True(t, errors.Is(err, errors.Busy))
	require.NoError(t, o.SelectFile(FileFromBytes("shop.db", nil)))
	assert.True(t, errors.Is(o.Upload(context.Background()), errors.Busy))

	close(api.gate)
	wg.Wait()

	h := o.View().History
	require.Len(t, h, 1)
	assert.Equal(t, "slow", h[0].Question)
}

func TestResetDuringQueryDiscardsResult(t *testing.T) {
	o, api := uploaded(t)
	api.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := o.SubmitQuery(context.Background(), "slow")
		done <- err
	}()

	require.Eventually(t, func() bool { return o.View().QueryInFlight }, time.Second, time.Millisecond)
	o.Reset()
	close(api.gate)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	v := o.View()
	assert.Equal(t, StageNoSession, v.Stage)
	assert.Empty(t, v.History)
}

func TestDismissError(t *testing.T) {
	o := New(newFakeAPI())
	_ = o.SelectFile(FileFromBytes("notes.txt", nil))
	require.NotEmpty(t, o.View().Error)
	o.DismissError()
	assert.Empty(t, o.View().Error)
}

func TestSubscribe(t *testing.T) {
	o, _ := newShop(t)

	var stages []Stage
	unsubscribe := o.Subscribe(func(v View) { stages = append(stages, v.Stage) })

	require.NoError(t, o.SelectFile(FileFromBytes("shop.db", nil)))
	require.NoError(t, o.Upload(context.Background()))
	assert.Equal(t, []Stage{StageNoSession, StageUploading, StageIdle}, stages)

	unsubscribe()
	o.Reset()
	assert.Len(t, stages, 3)
}

func TestFileFromPath(t *testing.T) {
	f := FileFromPath("/tmp/does-not-exist/shop.db")
	assert.Equal(t, "shop.db", f.Name)

	o, api := newShop(t)
	require.NoError(t, o.SelectFile(f))
	err := o.Upload(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.UploadFailed))
	assert.Equal(t, StageNoSession, o.View().Stage)
	assert.Equal(t, "read shop.db: no such file or directory", o.View().Error)
	assert.Empty(t, api.uploads, "nothing reaches the backend")
}

func TestViewHistoryIsReadOnly(t *testing.T) {
	o, api := uploaded(t)
	api.answers["q"] = jsonResp("SELECT 1", `{"headers":["n"],"rows":[[1]]}`)
	_, err := o.SubmitQuery(context.Background(), "q")
	require.NoError(t, err)

	v := o.View()
	require.Len(t, v.History, 1)
	v.History[0].Result.Table.Rows = nil
	v.History[0].Result.Table.Headers[0] = "changed"

	stored := o.View().History[0].Result.Table
	assert.Equal(t, []string{"n"}, stored.Headers)
	assert.Equal(t, [][]any{{json.Number("1")}}, stored.Rows)
}

func TestStagePredicates(t *testing.T) {
	tests := []struct {
		stage         Stage
		sessionActive bool
		busy          bool
	}{
		{StageNoSession, false, false},
		{StageUploading, false, true},
		{StageIdle, true, false},
		{StageQuerying, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			assert.Equal(t, tt.sessionActive, tt.stage.SessionActive())
			assert.Equal(t, tt.busy, tt.stage.Busy())
		})
	}
}
