package config

import "strings"

// NavEntry is a single navigation menu entry: a label and the document it
// points at. Entry order in the descriptor determines menu order.
type NavEntry struct {
	Text string `yaml:"text"`
	Link string `yaml:"link"`
}

// OutputConfig describes where generated output is staged.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// LogLevel enumerates supported logging levels (mapped onto slog).
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// NormalizeLogLevel canonicalizes user input returning empty string if unknown.
func NormalizeLogLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogLevelDebug):
		return LogLevelDebug
	case string(LogLevelInfo):
		return LogLevelInfo
	case string(LogLevelWarn):
		return LogLevelWarn
	case string(LogLevelError):
		return LogLevelError
	default:
		return ""
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

func NormalizeLogFormat(raw string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogFormatJSON):
		return LogFormatJSON
	case string(LogFormatText):
		return LogFormatText
	default:
		return ""
	}
}

// LoggingConfig selects log verbosity and handler format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// CheckFormat enumerates supported checker output formats.
type CheckFormat string

const (
	CheckFormatText CheckFormat = "text"
	CheckFormatJSON CheckFormat = "json"
)

func NormalizeCheckFormat(raw string) CheckFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(CheckFormatText):
		return CheckFormatText
	case string(CheckFormatJSON):
		return CheckFormatJSON
	default:
		return ""
	}
}

// ChecksConfig tunes the structural checker.
type ChecksConfig struct {
	Format   CheckFormat `yaml:"format,omitempty"`
	Quiet    bool        `yaml:"quiet,omitempty"`    // Suppress warnings, only show errors
	Disabled []string    `yaml:"disabled,omitempty"` // Rule names to skip
}

// PreviewConfig tunes the local preview server.
type PreviewConfig struct {
	Port            int    `yaml:"port,omitempty"`
	RecheckInterval string `yaml:"recheck_interval,omitempty"` // duration string; "" disables periodic rechecks
}

// HistoryConfig enables the run history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // SQLite database path
}

// LinkCheckConfig tunes external link verification.
type LinkCheckConfig struct {
	Enabled         bool   `yaml:"enabled"`
	MaxConcurrent   int    `yaml:"max_concurrent,omitempty"`
	RequestTimeout  string `yaml:"request_timeout,omitempty"`
	FollowRedirects bool   `yaml:"follow_redirects,omitempty"`
	MaxRedirects    int    `yaml:"max_redirects,omitempty"`
	// NATS-backed result cache and broken-link eventing. Optional; when URL is
	// empty results are cached in memory for the run only.
	NATSURL          string `yaml:"nats_url,omitempty"`
	Subject          string `yaml:"subject,omitempty"`
	KVBucket         string `yaml:"kv_bucket,omitempty"`
	CacheTTL         string `yaml:"cache_ttl,omitempty"`
	CacheTTLFailures string `yaml:"cache_ttl_failures,omitempty"`
}
