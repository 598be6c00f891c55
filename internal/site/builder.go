// Package site builds the published guideline site: it renders the content
// tree into an output directory, staged and promoted atomically.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/guidesite/internal/config"
	siteerrors "git.home.luguber.info/inful/guidesite/internal/errors"
	"git.home.luguber.info/inful/guidesite/internal/logfields"
	"git.home.luguber.info/inful/guidesite/internal/metrics"
)

// Builder renders a descriptor's content tree into the output directory.
type Builder struct {
	desc      *config.Descriptor
	root      string // project root: docs dir, assets dir and output dir resolve against it
	outputDir string
	stageDir  string
	recorder  metrics.Recorder
	renderer  *Renderer
}

// NewBuilder creates a builder for the project rooted at root.
func NewBuilder(desc *config.Descriptor, root string) (*Builder, error) {
	renderer, err := NewRenderer(desc)
	if err != nil {
		return nil, err
	}
	return &Builder{
		desc:      desc,
		root:      root,
		outputDir: filepath.Join(root, desc.Output.Directory),
		recorder:  metrics.NoopRecorder{},
		renderer:  renderer,
	}, nil
}

// SetRecorder injects a metrics recorder. Fluent for construction chains.
func (b *Builder) SetRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// DocsRoot is the absolute path of the docs directory.
func (b *Builder) DocsRoot() string { return filepath.Join(b.root, b.desc.DocsDir) }

// OutputDir is the absolute path of the final output directory.
func (b *Builder) OutputDir() string { return b.outputDir }

// Renderer exposes the page renderer, shared with the preview server.
func (b *Builder) Renderer() *Renderer { return b.renderer }

// Build runs the full build pipeline. The report is returned also on
// failure so callers can persist and inspect partial results.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	buildID := uuid.NewString()
	report := newReport(buildID)

	slog.Info("Starting site build",
		logfields.RunID(buildID),
		slog.String("docs", b.DocsRoot()),
		slog.String("output", b.outputDir))

	if err := b.beginStaging(); err != nil {
		return nil, siteerrors.WrapError(err, siteerrors.CategoryBuild, "begin staging")
	}

	bs := newBuildState(b, report)
	stages := []stageDef{
		{"prepare_output", stagePrepareOutput},
		{"discover", stageDiscover},
		{"verify_structure", stageVerifyStructure},
		{"render_content", stageRenderContent},
		{"copy_assets", stageCopyAssets},
		{"verify_output", stageVerifyOutput},
		{"write_config", stageWriteConfig},
		{"manifest", stageManifest},
	}

	if err := runStages(ctx, bs, stages); err != nil {
		b.abortStaging()
		report.deriveOutcome()
		var se *StageError
		if errors.As(err, &se) && se.Kind == StageErrorCanceled {
			report.Outcome = OutcomeCanceled
		}
		report.finish()
		b.recorder.ObserveBuildDuration(report.Duration())
		b.recorder.IncBuildOutcome(string(report.Outcome))
		return report, err
	}

	report.deriveOutcome()
	report.finish()
	if err := b.finalizeStaging(); err != nil {
		return report, siteerrors.WrapError(err, siteerrors.CategoryBuild, "finalize staging")
	}

	// Persist report (best effort) inside the final output directory.
	if err := report.Persist(b.outputDir); err != nil {
		slog.Warn("Failed to persist build report", logfields.Error(err))
	}

	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(string(report.Outcome))

	slog.Info("Site build completed",
		logfields.RunID(buildID),
		slog.String("outcome", string(report.Outcome)),
		slog.Int("pages", report.RenderedPages),
		logfields.DurationMS(report.Duration()))
	return report, nil
}

// beginStaging creates an isolated staging directory for atomic build output.
func (b *Builder) beginStaging() error {
	// Sibling of the output dir, never inside it.
	stage := b.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return err
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return err
	}
	b.stageDir = stage
	slog.Debug("Initialized staging directory", slog.String("staging", stage), slog.String("final", b.outputDir))
	return nil
}

// finalizeStaging promotes the staging directory to the final output
// location. With output.clean the existing output is replaced atomically:
//  1. Move existing output (if any) to output.prev.
//  2. Rename staging -> output.
//  3. Remove the backup best-effort.
//
// Without output.clean the staged files are overlaid onto the existing
// output, leaving files this build did not produce in place.
func (b *Builder) finalizeStaging() error {
	if b.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	if _, err := os.Stat(b.stageDir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	if !b.desc.Output.Clean {
		return b.overlayStaging()
	}

	prev := b.outputDir + ".prev"
	if _, err := os.Stat(prev); err == nil {
		for i := 0; i < 3; i++ {
			if err := os.RemoveAll(prev); err == nil {
				break
			}
			if i < 2 {
				time.Sleep(100 * time.Millisecond)
			}
		}
	}
	if _, err := os.Stat(b.outputDir); err == nil {
		if err := os.Rename(b.outputDir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(b.stageDir, b.outputDir); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	b.stageDir = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous output backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Info("Promoted staging directory", slog.String("output", b.outputDir))
	return nil
}

// overlayStaging copies staged files into the output directory without
// removing anything already there.
func (b *Builder) overlayStaging() error {
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := copyDir(b.stageDir, b.outputDir); err != nil {
		return fmt.Errorf("overlay staging: %w", err)
	}
	dir := b.stageDir
	b.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory", slog.String("staging", dir), logfields.Error(err))
	}
	slog.Info("Overlaid staging onto output directory", slog.String("output", b.outputDir))
	return nil
}

// abortStaging removes the staging directory after a failed build so no
// orphaned temp dirs accumulate.
func (b *Builder) abortStaging() {
	if b.stageDir == "" {
		return
	}
	dir := b.stageDir
	b.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", slog.String("staging", dir), logfields.Error(err))
	}
}
