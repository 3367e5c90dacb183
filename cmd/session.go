// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	stderrors "errors"
	"io"

	"go.uber.org/zap"

	"nlsql/cli/internal/errors"
	"nlsql/cli/internal/history"
	"nlsql/cli/internal/httperrors"
	"nlsql/cli/internal/orchestrator"
	"nlsql/cli/internal/render"
)

// newOrchestrator wires the backend client and logs every state transition.
func newOrchestrator() *orchestrator.Orchestrator {
	o := orchestrator.New(newBackend(), orchestrator.WithLogger(logger))
	last := orchestrator.StageNoSession
	o.Subscribe(func(v orchestrator.View) {
		if v.Stage != last {
			logger.Debug("stage changed", zap.Stringer("from", last), zap.Stringer("to", v.Stage))
			last = v.Stage
		}
	})
	return o
}

// openDatabase selects path and uploads it, showing a spinner meanwhile. Failures
// are rendered as the blocking banner plus troubleshooting for transport errors.
func openDatabase(ctx context.Context, o *orchestrator.Orchestrator, errOut io.Writer, path string) error {
	f := orchestrator.FileFromPath(path)
	if err := o.SelectFile(f); err != nil {
		render.New(errOut, render.FormatTable).Banner(o.View().Error)
		return err
	}

	stop := startSpinner("Uploading " + f.Name)
	err := o.Upload(ctx)
	stop()
	if err == nil {
		return nil
	}
	if stderrors.Is(err, orchestrator.ErrSuperseded) {
		return err
	}

	msg := o.View().Error
	if msg == "" {
		msg = err.Error()
	}
	render.New(errOut, render.FormatTable).Banner(msg)
	if errors.Has(err, errors.NetworkError) {
		httperrors.Display(err, "uploading "+f.Name, httperrors.ExtractHostFromURL(cfg.BackendURL))
	}
	return err
}

// ask submits one question with a spinner and renders the resulting entry.
func ask(ctx context.Context, o *orchestrator.Orchestrator, r *render.Renderer, question string) (history.Entry, error) {
	stop := startSpinner("Thinking about: " + question)
	entry, err := o.SubmitQuery(ctx, question)
	stop()
	if err != nil {
		return entry, err
	}
	return entry, r.Entry(entry)
}
