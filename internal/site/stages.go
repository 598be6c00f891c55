package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/guidesite/internal/content"
	"git.home.luguber.info/inful/guidesite/internal/metrics"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildState carries mutable state across stages.
type BuildState struct {
	Builder *Builder
	Tree    *content.Tree
	Report  *Report
	start   time.Time
}

func newBuildState(b *Builder, report *Report) *BuildState {
	return &BuildState{Builder: b, Report: report, start: time.Now()}
}

type stageDef struct {
	name string
	fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Warning stage errors are recorded and execution
// continues.
func runStages(ctx context.Context, bs *BuildState, stages []stageDef) error {
	recorder := bs.Builder.recorder
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			bs.Report.addError(se)
			recorder.IncStageResult(st.name, metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[st.name] = dur
		recorder.ObserveStageDuration(st.name, dur)

		if err == nil {
			recorder.IncStageResult(st.name, metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Unknown errors are fatal by default.
			se = newFatalStageError(st.name, err)
		}
		switch se.Kind {
		case StageErrorWarning:
			bs.Report.addWarning(se)
			recorder.IncStageResult(st.name, metrics.ResultWarning)
		case StageErrorCanceled:
			bs.Report.addError(se)
			recorder.IncStageResult(st.name, metrics.ResultCanceled)
			return se
		default:
			bs.Report.addError(se)
			recorder.IncStageResult(st.name, metrics.ResultFatal)
			return se
		}
	}
	return nil
}
