package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	siteerrors "git.home.luguber.info/inful/guidesite/internal/errors"
)

// DefaultDescriptorPath is the conventional descriptor file name.
const DefaultDescriptorPath = "site.yaml"

// Load reads, normalizes, defaults, and validates a site descriptor.
func Load(path string) (*Descriptor, error) {
	loadEnvFiles()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, siteerrors.ConfigError(fmt.Sprintf("site descriptor not found: %s", path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryConfig, siteerrors.SeverityFatal, "read site descriptor")
	}

	// Expand environment variables in the YAML content before parsing.
	expanded := os.ExpandEnv(string(data))

	var desc Descriptor
	if err := yaml.Unmarshal([]byte(expanded), &desc); err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryConfig, siteerrors.SeverityFatal, "unmarshal site descriptor")
	}

	// Normalization pass (case-fold enumerations, path canonicalization, bounds)
	res := Normalize(&desc)
	for _, w := range res.Warnings {
		slog.Warn("descriptor normalization", "warning", w)
	}

	// Apply defaults (after normalization so canonical values drive defaults)
	applyDefaults(&desc)

	if err := Validate(&desc); err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryValidation, siteerrors.SeverityFatal, "descriptor validation failed")
	}

	return &desc, nil
}

// loadEnvFiles loads environment variables from .env/.env.local when present.
// Variables already set in the environment win.
func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("failed to load env file", "path", envPath, "error", err)
			continue
		}
		slog.Debug("loaded environment variables", "path", envPath)
		return
	}
}

// Init writes an example site descriptor.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return siteerrors.ConfigError(fmt.Sprintf("site descriptor already exists: %s (use --force to overwrite)", path))
	}

	example := Descriptor{
		Locale:      "en-US",
		Title:       "Development Guidelines",
		Description: "Coding style and architecture recommendations",
		BasePath:    "/guides/",
		DocsDir:     "docs",
		AssetsDir:   "public",
		Output: OutputConfig{
			Directory: "dist",
			Clean:     true,
		},
		Nav: []NavEntry{
			{Text: "Architecture", Link: "/architecture/README.md"},
			{Text: "Code style", Link: "/code-style/README.md"},
		},
		Repo:       "example/guidelines",
		DocsBranch: "master",
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
		Checks: &ChecksConfig{
			Format: CheckFormatText,
		},
		Preview: &PreviewConfig{
			Port: 8080,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal example descriptor: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryFileSystem, siteerrors.SeverityFatal, "write site descriptor")
	}

	return nil
}
