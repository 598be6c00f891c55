package check

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/guidesite/internal/config"
)

// Formatter formats check results for output.
type Formatter interface {
	Format(w io.Writer, result *Result, docsRoot string) error
}

// NewFormatter returns the formatter for the configured output format.
func NewFormatter(format config.CheckFormat) Formatter {
	if format == config.CheckFormatJSON {
		return &JSONFormatter{}
	}
	return &TextFormatter{}
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

// Format outputs results in human-readable text format.
func (f *TextFormatter) Format(w io.Writer, result *Result, docsRoot string) error {
	if _, err := fmt.Fprintf(w, "Checking site structure in: %s\n", docsRoot); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("─", 60)); err != nil {
		return err
	}

	for _, issue := range result.Issues {
		where := issue.Doc
		if where == "" {
			where = "site.yaml"
		}
		if _, err := fmt.Fprintf(w, "%-7s %s  [%s]\n        %s\n", issue.Severity, where, issue.Rule, issue.Message); err != nil {
			return err
		}
		if issue.Fix != "" {
			if _, err := fmt.Fprintf(w, "        fix: %s\n", issue.Fix); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintln(w, strings.Repeat("─", 60)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%d documents checked, %d errors, %d warnings\n",
		result.DocsTotal, result.ErrorCount(), result.WarningCount()); err != nil {
		return err
	}

	if result.HasErrors() {
		_, err := fmt.Fprintln(w, "Site structure is inconsistent with the descriptor.")
		return err
	}
	_, err := fmt.Fprintln(w, "Site structure is consistent.")
	return err
}

// JSONFormatter formats results as a JSON document for tooling.
type JSONFormatter struct{}

// Format outputs results as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, result *Result, docsRoot string) error {
	payload := struct {
		DocsRoot string `json:"docs_root"`
		*Result
		Errors   int `json:"errors"`
		Warnings int `json:"warnings"`
	}{
		DocsRoot: docsRoot,
		Result:   result,
		Errors:   result.ErrorCount(),
		Warnings: result.WarningCount(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
