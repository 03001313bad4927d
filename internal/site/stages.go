package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alescoulie/sitegen/internal/logfields"
	"github.com/alescoulie/sitegen/internal/metrics"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names.
const (
	StagePrepareOutput    StageName = "prepare_output"
	StageSyncContent      StageName = "sync_content"
	StageDiscoverContent  StageName = "discover_content"
	StageConvertDocuments StageName = "convert_documents"
	StageCopyStatic       StageName = "copy_static"
	StageRenderPages      StageName = "render_pages"
	StageRenderPosts      StageName = "render_posts"
	StageRenderBlog       StageName = "render_blog"
	StageRenderProjects   StageName = "render_projects"
	StageVerifyLinks      StageName = "verify_links"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Transient reports whether the underlying condition is likely to pass on a
// retry. Only content sync failures qualify; everything else is a property of
// the inputs.
func (e *StageError) Transient() bool {
	if e == nil || e.Kind == StageErrorCanceled {
		return false
	}
	return e.Stage == StageSyncContent
}

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 10)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a copy of the stage definitions; mutating the result does
// not affect the pipeline.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Warning stage errors are recorded and the run continues.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	rec := bs.Generator.recorder
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.StageErrorKinds[st.Name] = se.Kind
			bs.Report.AddIssue(IssueCanceled, st.Name, SeverityError, se.Error(), false, nil)
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		default:
		}
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Timings[st.Name] = dur
		bs.Report.StageDurations[string(st.Name)] = dur
		rec.ObserveStageDuration(string(st.Name), dur)
		if err == nil {
			sc := bs.Report.StageCounts[st.Name]
			sc.Success++
			bs.Report.StageCounts[st.Name] = sc
			rec.IncStageResult(string(st.Name), metrics.ResultSuccess)
			slog.Debug("Stage completed", logfields.Stage(string(st.Name)), logfields.DurationMS(float64(dur.Milliseconds())))
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Wrap unknown errors as fatal by default.
			se = newFatalStageError(st.Name, err)
			bs.Report.AddIssue(IssueGenericStageError, st.Name, SeverityError, se.Error(), false, nil)
		}
		bs.Report.StageErrorKinds[st.Name] = se.Kind
		sc := bs.Report.StageCounts[st.Name]
		switch se.Kind {
		case StageErrorWarning:
			sc.Warning++
		case StageErrorCanceled:
			sc.Canceled++
		case StageErrorFatal:
			sc.Fatal++
		}
		bs.Report.StageCounts[st.Name] = sc

		switch se.Kind {
		case StageErrorWarning:
			bs.Report.Warnings = append(bs.Report.Warnings, se)
			rec.IncStageResult(string(st.Name), metrics.ResultWarning)
			slog.Warn("Stage completed with warning", logfields.Stage(string(st.Name)), logfields.Error(se.Err))
			continue
		case StageErrorCanceled:
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.AddIssue(IssueCanceled, st.Name, SeverityError, se.Error(), false, nil)
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		default:
			bs.Report.Errors = append(bs.Report.Errors, se)
			rec.IncStageResult(string(st.Name), metrics.ResultFatal)
			return se
		}
	}
	return nil
}
