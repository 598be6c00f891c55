package linkcheck

import "time"

// BrokenLinkEvent describes a broken external link discovered during
// verification. Events are published to NATS for downstream processing
// (for example, opening tracker issues).
type BrokenLinkEvent struct {
	// Link information
	URL    string `json:"url"`    // The broken link URL
	Status int    `json:"status"` // HTTP status code (0 for non-HTTP errors)
	Error  string `json:"error"`  // Error message

	// Source document metadata
	Doc     string `json:"doc"`               // Path relative to the docs root
	Route   string `json:"route"`             // Published route of the document
	Section string `json:"section,omitempty"` // Top-level guide the document belongs to
	Title   string `json:"title,omitempty"`   // Document title from front matter or heading

	// Verification metadata
	Timestamp     time.Time `json:"timestamp"`                // When the broken link was discovered
	LastChecked   time.Time `json:"last_checked"`             // When this link was last verified
	FailureCount  int       `json:"failure_count"`            // Number of consecutive failures
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"` // When this link first failed

	// Run context
	RunID string `json:"run_id,omitempty"`
}

// CacheEntry is a cached link verification result.
type CacheEntry struct {
	URL             string    `json:"url"`
	Status          int       `json:"status"`
	IsValid         bool      `json:"is_valid"`
	Error           string    `json:"error,omitempty"`
	LastChecked     time.Time `json:"last_checked"`
	FailureCount    int       `json:"failure_count"`
	FirstFailedAt   time.Time `json:"first_failed_at,omitempty"`
	ConsecutiveFail bool      `json:"consecutive_fail"`
}
