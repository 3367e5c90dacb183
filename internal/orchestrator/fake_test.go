// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"nlsql/cli/internal/backend"
	"nlsql/cli/internal/errors"
	"nlsql/cli/internal/schema"
)

// fakeAPI is an in-memory backend. Each uploaded file name maps to a token and each
// token to a schema response; questions are answered from answers.
type fakeAPI struct {
	mu sync.Mutex

	tokens     map[string]string
	uploadErr  error
	schemas    map[string]*backend.ProcessResponse
	schemaErr  error
	answers    map[string]*backend.ProcessResponse
	processErr error

	// gate, when set, blocks Process for ordinary questions until a value is received.
	gate chan struct{}

	uploads   []string
	processed []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tokens:  map[string]string{},
		schemas: map[string]*backend.ProcessResponse{},
		answers: map[string]*backend.ProcessResponse{},
	}
}

func (f *fakeAPI) Upload(_ context.Context, fileName string, body io.Reader) (string, error) {
	_, _ = io.ReadAll(body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, fileName)
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	token, ok := f.tokens[fileName]
	if !ok {
		return "", errors.New(errors.UploadFailed, "Only .db files are allowed")
	}
	return token, nil
}

func (f *fakeAPI) Process(ctx context.Context, token, query string) (*backend.ProcessResponse, error) {
	f.mu.Lock()
	f.processed = append(f.processed, query)
	gate := f.gate
	f.mu.Unlock()

	if query == schema.SentinelQuery {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.schemaErr != nil {
			return nil, f.schemaErr
		}
		if resp, ok := f.schemas[token]; ok {
			return resp, nil
		}
		return &backend.ProcessResponse{StatusCode: 200, Error: "Invalid session. Please re-upload the database."}, nil
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.processErr != nil {
		return nil, f.processErr
	}
	if resp, ok := f.answers[query]; ok {
		return resp, nil
	}
	return &backend.ProcessResponse{StatusCode: 200, Result: json.RawMessage(`"ok"`)}, nil
}

func (f *fakeAPI) processCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.processed)
}

func jsonResp(sql, result string) *backend.ProcessResponse {
	r := &backend.ProcessResponse{StatusCode: 200, ExecutedSQL: sql}
	if result != "" {
		r.Result = json.RawMessage(result)
	}
	return r
}

func schemaResp(dbDetails string) *backend.ProcessResponse {
	return jsonResp("", `{"db_details":`+dbDetails+`}`)
}
