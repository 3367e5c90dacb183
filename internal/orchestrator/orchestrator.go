// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package orchestrator sequences the client session: file selection, the composite
// upload-then-schema-fetch operation, and serialized question submission. It owns
// the session store, schema snapshot and query history and exposes them read-only
// through View.
//
// Upload and schema failures become the single blocking error message. Query
// failures never block: they are recorded as history entries.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"nlsql/cli/internal/backend"
	"nlsql/cli/internal/errors"
	"nlsql/cli/internal/history"
	"nlsql/cli/internal/logging"
	"nlsql/cli/internal/result"
	"nlsql/cli/internal/schema"
	"nlsql/cli/internal/session"
)

// User-facing messages for local validation failures.
const (
	InvalidFileMessage = "Please select a valid .db file."
	NoFileMessage      = "No file selected."
	EmptyQueryMessage  = "Please enter a query."
	NoSessionMessage   = "No active session. Upload a database first."
	BusyMessage        = "Another request is still in progress."
)

// ErrSuperseded is returned when a reset happened while a call was in flight.
// The call's outcome is discarded.
var ErrSuperseded = stderrors.New("superseded by reset")

// Orchestrator is safe for concurrent use. The lock is not held during network calls.
type Orchestrator struct {
	api backend.API
	log *zap.Logger
	now func() time.Time

	mu        sync.Mutex
	stage     Stage
	selected  *File
	session   session.Store
	schema    *schema.Snapshot
	history   history.Log
	queryText string
	errMsg    string
	// epoch is bumped by Reset and by each upload; completions from an older
	// epoch are discarded.
	epoch uint64

	subs    map[int]func(View)
	nextSub int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an orchestrator in StageNoSession.
func New(api backend.API, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:  api,
		log:  zap.NewNop(),
		now:  time.Now,
		subs: make(map[int]func(View)),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.Named("orchestrator")
	return o
}

// SelectFile records f for the next upload and clears any error. A name without
// the database suffix is rejected with InvalidFileType and clears the selection.
func (o *Orchestrator) SelectFile(f File) error {
	o.mu.Lock()
	var err error
	if f.valid() {
		sel := f
		o.selected = &sel
		o.errMsg = ""
	} else {
		o.selected = nil
		o.errMsg = InvalidFileMessage
		err = errors.New(errors.InvalidFileType, InvalidFileMessage)
	}
	o.mu.Unlock()

	o.log.Debug("file selected", zap.String("file", f.Name), zap.Bool("accepted", err == nil))
	o.notify()
	return err
}

// Upload sends the selected file and then fetches the schema snapshot. Both steps
// form one operation: on any failure the session is discarded, the stage returns
// to StageNoSession and the error message is set.
func (o *Orchestrator) Upload(ctx context.Context) error {
	o.mu.Lock()
	if o.stage.Busy() {
		o.mu.Unlock()
		return errors.New(errors.Busy, BusyMessage)
	}
	if o.selected == nil {
		o.errMsg = NoFileMessage
		o.mu.Unlock()
		o.notify()
		return errors.New(errors.NoFileSelected, NoFileMessage)
	}
	file := *o.selected
	o.stage = StageUploading
	o.errMsg = ""
	o.history.Clear()
	o.schema = nil
	o.session.Clear()
	o.epoch++
	epoch := o.epoch
	o.mu.Unlock()
	o.notify()

	o.log.Info("upload started", zap.String("file", file.Name))
	start := time.Now()

	token, snap, err := o.uploadAndFetch(ctx, file)
	if err != nil {
		return o.failUpload(epoch, file, err)
	}

	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		o.log.Debug("discarding upload result after reset", zap.String("file", file.Name))
		return ErrSuperseded
	}
	o.session.Set(token, file.Name)
	o.schema = snap
	o.stage = StageIdle
	o.mu.Unlock()

	o.log.Info("session established",
		zap.String("file", file.Name),
		zap.String("session", logging.MaskToken(token)),
		zap.Int("tables", snap.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	o.notify()
	return nil
}

func (o *Orchestrator) uploadAndFetch(ctx context.Context, file File) (string, *schema.Snapshot, error) {
	rc, err := file.Open()
	if err != nil {
		return "", nil, errors.Wrap(errors.UploadFailed, readFailedMessage(file.Name, err), err)
	}
	token, err := o.api.Upload(ctx, file.Name, rc)
	rc.Close()
	if err != nil {
		if errors.KindOf(err) == "" {
			err = errors.Wrap(errors.UploadFailed, backend.UploadFailedMessage, err)
		}
		return "", nil, err
	}

	resp, err := o.api.Process(ctx, token, schema.SentinelQuery)
	if err != nil {
		// The backend may still hold the session; the client only forgets it.
		return "", nil, errors.Wrap(errors.SchemaFetchFailed, userMessage(err), err)
	}
	snap, err := schema.Decode(resp)
	if err != nil {
		return "", nil, err
	}
	return token, snap, nil
}

func (o *Orchestrator) failUpload(epoch uint64, file File, err error) error {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return ErrSuperseded
	}
	o.stage = StageNoSession
	o.session.Clear()
	o.schema = nil
	o.errMsg = userMessage(err)
	o.mu.Unlock()

	o.log.Warn("upload failed",
		zap.String("file", file.Name),
		zap.String("kind", string(errors.KindOf(err))),
		zap.String("error", logging.Mask(err.Error())),
	)
	o.notify()
	return err
}

// SetQueryText updates the pending question text.
func (o *Orchestrator) SetQueryText(text string) {
	o.mu.Lock()
	o.queryText = text
	o.mu.Unlock()
	o.notify()
}

// SubmitCurrent submits the pending question text.
func (o *Orchestrator) SubmitCurrent(ctx context.Context) (history.Entry, error) {
	o.mu.Lock()
	text := o.queryText
	o.mu.Unlock()
	return o.SubmitQuery(ctx, text)
}

// SubmitQuery sends the trimmed text against the active session and records the
// outcome as the newest history entry. Backend and transport failures are part of
// the returned entry, not of the error; the error covers only the local guards
// (EmptyQuery, NoSession, Busy) and ErrSuperseded.
func (o *Orchestrator) SubmitQuery(ctx context.Context, text string) (history.Entry, error) {
	question := strings.TrimSpace(text)

	o.mu.Lock()
	o.queryText = text
	if o.stage.Busy() {
		o.mu.Unlock()
		return history.Entry{}, errors.New(errors.Busy, BusyMessage)
	}
	if question == "" {
		o.errMsg = EmptyQueryMessage
		o.mu.Unlock()
		o.notify()
		return history.Entry{}, errors.New(errors.EmptyQuery, EmptyQueryMessage)
	}
	if !o.session.Active() {
		o.mu.Unlock()
		return history.Entry{}, errors.New(errors.NoSession, NoSessionMessage)
	}
	o.stage = StageQuerying
	o.errMsg = ""
	token := o.session.Token()
	epoch := o.epoch
	o.mu.Unlock()
	o.notify()

	start := time.Now()
	resp, err := o.api.Process(ctx, token, question)
	entry := o.entryFor(question, resp, err)

	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		o.log.Debug("discarding query result after reset")
		return entry, ErrSuperseded
	}
	o.history.Prepend(entry)
	if err == nil {
		// A response arrived; a transport failure keeps the text for another try.
		o.queryText = ""
	}
	o.stage = StageIdle
	o.mu.Unlock()

	o.log.Info("query completed",
		zap.String("result", entry.Result.Kind.String()),
		zap.String("failure", string(entry.Failure)),
		zap.Bool("executed_sql", entry.HasSQL()),
		zap.Duration("elapsed", time.Since(start)),
	)
	o.notify()
	return entry, nil
}

// entryFor classifies a query outcome: the result if present, else the backend
// error, else NoResultMessage. Transport failures become a network-error message.
func (o *Orchestrator) entryFor(question string, resp *backend.ProcessResponse, err error) history.Entry {
	entry := history.Entry{Question: question, CompletedAt: o.now()}

	switch {
	case err != nil:
		msg := userMessage(err)
		if errors.KindOf(err) != errors.NetworkError {
			msg = "Network Error: " + msg
		}
		entry.Result = result.Message(msg)
		entry.Failure = errors.NetworkError
	case resp.Malformed:
		entry.Result = result.Unrecognized(resp.Body)
		entry.Failure = errors.UnrecognizedResultFormat
	case resp.HasResult():
		entry.ExecutedSQL = resp.ExecutedSQL
		entry.Result = result.Classify(resp.Result)
		if entry.Result.Kind == result.KindUnrecognized {
			entry.Failure = errors.UnrecognizedResultFormat
		}
	case resp.Error != "":
		entry.ExecutedSQL = resp.ExecutedSQL
		entry.Result = result.Message(resp.Error)
		entry.Failure = errors.QueryBackendError
	default:
		entry.ExecutedSQL = resp.ExecutedSQL
		entry.Result = result.Message(history.NoResultMessage)
		entry.Failure = errors.QueryBackendError
	}
	return entry
}

// Reset returns to StageNoSession, clearing session, schema, history, selection,
// query text and error. Any in-flight call is invalidated.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.epoch++
	o.stage = StageNoSession
	o.selected = nil
	o.session.Clear()
	o.schema = nil
	o.history.Clear()
	o.queryText = ""
	o.errMsg = ""
	o.mu.Unlock()

	o.log.Info("session reset")
	o.notify()
}

// DismissError clears the blocking error message.
func (o *Orchestrator) DismissError() {
	o.mu.Lock()
	o.errMsg = ""
	o.mu.Unlock()
	o.notify()
}

// View returns a snapshot of the current state.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewLocked()
}

func (o *Orchestrator) viewLocked() View {
	v := View{
		Stage:         o.stage,
		SessionFile:   o.session.FileName(),
		HasSession:    o.session.Active(),
		Schema:        o.schema,
		History:       o.history.Entries(),
		Uploading:     o.stage == StageUploading,
		QueryInFlight: o.stage == StageQuerying,
		QueryText:     o.queryText,
		Error:         o.errMsg,
	}
	if o.selected != nil {
		v.SelectedFile = o.selected.Name
	}
	v.CanUpload = o.selected != nil && !o.stage.Busy()
	v.CanSubmit = o.stage == StageIdle && strings.TrimSpace(o.queryText) != ""
	return v
}

// Subscribe registers fn to receive a View after every state change. fn runs on
// the goroutine that made the change and must not call back into mutating methods.
func (o *Orchestrator) Subscribe(fn func(View)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) notify() {
	o.mu.Lock()
	if len(o.subs) == 0 {
		o.mu.Unlock()
		return
	}
	v := o.viewLocked()
	fns := make([]func(View), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// readFailedMessage names the local file and the OS cause, dropping the full path.
func readFailedMessage(name string, err error) string {
	var pe *fs.PathError
	if stderrors.As(err, &pe) {
		err = pe.Err
	}
	return fmt.Sprintf("read %s: %v", name, err)
}

func userMessage(err error) string {
	var e *errors.E
	if stderrors.As(err, &e) {
		return logging.Mask(e.UserMessage())
	}
	return logging.Mask(err.Error())
}
