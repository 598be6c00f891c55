package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

const reportFileName = "build-report.json"

// Report captures high-level metrics about one site build.
type Report struct {
	BuildID        string                   `json:"build_id"`
	Start          time.Time                `json:"start"`
	End            time.Time                `json:"end"`
	Outcome        BuildOutcome             `json:"outcome"`
	Docs           int                      `json:"docs"`
	Assets         int                      `json:"assets"`
	RenderedPages  int                      `json:"rendered_pages"`
	TreeHash       string                   `json:"tree_hash"`
	StageDurations map[string]time.Duration `json:"stage_durations"`
	Warnings       []string                 `json:"warnings"`
	Errors         []string                 `json:"errors"`
}

func newReport(buildID string) *Report {
	return &Report{
		BuildID:        buildID,
		Start:          time.Now(),
		StageDurations: make(map[string]time.Duration),
		Warnings:       []string{},
		Errors:         []string{},
	}
}

func (r *Report) addWarning(err error) { r.Warnings = append(r.Warnings, err.Error()) }
func (r *Report) addError(err error)   { r.Errors = append(r.Errors, err.Error()) }

// deriveOutcome sets the final outcome from accumulated errors and warnings.
func (r *Report) deriveOutcome() {
	switch {
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

func (r *Report) finish() { r.End = time.Now() }

// Duration is the wall-clock build time.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Persist writes the report as JSON inside the output directory.
func (r *Report) Persist(outputDir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	path := filepath.Join(outputDir, reportFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
