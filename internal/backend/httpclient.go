package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nlsql/cli/internal/errors"
	"nlsql/cli/internal/httperrors"
	"nlsql/cli/internal/logging"
)

// UploadFailedMessage is shown when the backend rejects an upload without saying why.
const UploadFailedMessage = "Failed to upload file."

// maxBodyBytes caps how much of a response body is read. Schema snapshots carry
// every row of every table, so the cap is generous.
const maxBodyBytes = 64 << 20

// HTTP implements API over the backend's REST endpoints.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "http://127.0.0.1:8000")
	baseURL string
	// endpoints contains the URL paths for the upload and process routes
	endpoints Endpoints
	// client is the underlying HTTP client with configured timeout
	client    *http.Client
	userAgent string
	log       *zap.Logger
}

// newHTTP creates a new HTTP client with the given base URL and options.
func newHTTP(baseURL string, opts Options) *HTTP {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	endpoints := opts.Endpoints
	if endpoints.Upload == "" || endpoints.Process == "" {
		endpoints = DefaultEndpoints()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
		userAgent: "nlsql-cli/" + version,
		log:       log.Named("backend"),
	}
}

// setStandardHeaders applies the headers every backend request carries and
// returns the request id for log correlation.
func (h *HTTP) setStandardHeaders(req *http.Request) string {
	id := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("X-Request-ID", id)
	return id
}

// do sends req and reads the (capped) body. Transport failures come back as
// NetworkError-kind errors carrying a user-facing description.
func (h *HTTP) do(req *http.Request) (int, []byte, error) {
	id := h.setStandardHeaders(req)
	start := time.Now()
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", id),
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Warn("request failed", append(fields, zap.String("error", logging.Mask(err.Error())))...)
		return 0, nil, errors.Wrap(errors.NetworkError, "Network Error: "+httperrors.Describe(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		h.log.Warn("read response body", append(fields, zap.String("error", err.Error()))...)
		return 0, nil, errors.Wrap(errors.NetworkError, "Network Error: "+httperrors.Describe(err), err)
	}

	h.log.Debug("request completed", append(fields,
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)...)
	return resp.StatusCode, body, nil
}

// Upload posts the database as multipart field "file" to the upload endpoint.
func (h *HTTP) Upload(ctx context.Context, fileName string, body io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, body); err != nil {
		return "", fmt.Errorf("read %s: %w", fileName, err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+h.endpoints.Upload, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	status, data, err := h.do(req)
	if err != nil {
		return "", err
	}

	var out struct {
		SessionToken string `json:"session_token"`
		Error        string `json:"error"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", errors.Wrap(errors.UploadFailed, UploadFailedMessage, err)
	}
	if status < 200 || status >= 300 || out.Error != "" {
		msg := strings.TrimSpace(out.Error)
		if msg == "" {
			msg = UploadFailedMessage
		}
		return "", errors.Wrap(errors.UploadFailed, msg, fmt.Errorf("upload returned status %d", status))
	}
	if strings.TrimSpace(out.SessionToken) == "" {
		return "", errors.New(errors.UploadFailed, UploadFailedMessage)
	}

	h.log.Info("upload accepted", zap.String("file", fileName), zap.String("session", logging.MaskToken(out.SessionToken)))
	return out.SessionToken, nil
}

// Process issues GET <process>?session_token=&query= and decodes the body.
func (h *HTTP) Process(ctx context.Context, token, query string) (*ProcessResponse, error) {
	q := url.Values{}
	q.Set("session_token", token)
	q.Set("query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+h.endpoints.Process+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	status, data, err := h.do(req)
	if err != nil {
		return nil, err
	}
	return decodeProcess(status, data), nil
}

// decodeProcess is liberal in what it accepts: executed_sql may be null and error
// may be any JSON value.
func decodeProcess(status int, data []byte) *ProcessResponse {
	resp := &ProcessResponse{StatusCode: status}

	trimmed := bytes.TrimSpace(data)
	var raw struct {
		ExecutedSQL *string         `json:"executed_sql"`
		Result      json.RawMessage `json:"result"`
		Error       json.RawMessage `json:"error"`
	}
	if len(trimmed) == 0 || trimmed[0] != '{' || json.Unmarshal(trimmed, &raw) != nil {
		resp.Malformed = true
		resp.Body = data
		return resp
	}

	if raw.ExecutedSQL != nil {
		resp.ExecutedSQL = *raw.ExecutedSQL
	}
	if len(raw.Result) > 0 && string(raw.Result) != "null" {
		resp.Result = raw.Result
	}
	resp.Error = rawText(raw.Error)
	return resp
}

// rawText renders a JSON value as display text: strings unquoted, null empty,
// anything else as compact JSON.
func rawText(v json.RawMessage) string {
	if len(v) == 0 || string(v) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}
