package check

import (
	"git.home.luguber.info/inful/guidesite/internal/config"
	"git.home.luguber.info/inful/guidesite/internal/content"
)

// Severity indicates the importance level of a structural issue.
type Severity int

const (
	// SeverityInfo indicates informational findings.
	SeverityInfo Severity = iota
	// SeverityWarning indicates issues that should be fixed but don't block builds.
	SeverityWarning
	// SeverityError indicates structural inconsistencies that make the site
	// inconsistent with its descriptor.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue represents a single structural problem found between the descriptor
// and the content tree.
type Issue struct {
	Doc      string   `json:"doc,omitempty"` // Relative document path, "" for descriptor-level issues
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Fix      string   `json:"fix,omitempty"` // Suggested fix
}

// Result contains all issues found during a check run.
type Result struct {
	Issues    []Issue `json:"issues"`
	DocsTotal int     `json:"docs_total"` // Markdown documents examined
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Rule defines a structural check applied to the descriptor and content tree.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check validates the site and returns any issues found.
	Check(desc *config.Descriptor, tree *content.Tree) ([]Issue, error)
}
