package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Descriptor is the site configuration record: the fixed parameters the
// generator needs to produce a deployable site. It is constructed once per
// run by Load and never mutated afterwards.
type Descriptor struct {
	Locale      string `yaml:"locale"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`

	// BasePath is the root path prefix the site is served under. Always
	// normalized to have leading and trailing slashes.
	BasePath string `yaml:"base_path"`

	DocsDir   string       `yaml:"docs_dir,omitempty"` // Content tree root
	AssetsDir string       `yaml:"assets_dir,omitempty"`
	Output    OutputConfig `yaml:"output"`

	Nav []NavEntry `yaml:"nav"`

	// Repo identifies the canonical source location ("host/owner/name" or a
	// full URL); it feeds edit-this-page links.
	Repo       string `yaml:"repo,omitempty"`
	DocsBranch string `yaml:"docs_branch,omitempty"`

	Logging   LoggingConfig    `yaml:"logging,omitempty"`
	Checks    *ChecksConfig    `yaml:"checks,omitempty"`
	Preview   *PreviewConfig   `yaml:"preview,omitempty"`
	History   *HistoryConfig   `yaml:"history,omitempty"`
	LinkCheck *LinkCheckConfig `yaml:"linkcheck,omitempty"`
}

// RepoWebURL returns the browsable URL for the configured repository, or ""
// when no repository is configured.
//
// "owner/name" and "host/owner/name" shorthands expand to https URLs;
// explicit URLs pass through with a trailing slash trimmed.
func (d *Descriptor) RepoWebURL() string {
	repo := strings.TrimSpace(d.Repo)
	if repo == "" {
		return ""
	}

	if strings.HasPrefix(repo, "http://") || strings.HasPrefix(repo, "https://") {
		return strings.TrimSuffix(repo, "/")
	}

	parts := strings.Split(repo, "/")
	if len(parts) == 2 {
		// Bare owner/name defaults to github.com, matching common shorthand.
		return "https://github.com/" + repo
	}
	return "https://" + strings.TrimSuffix(repo, "/")
}

// EditURL returns the edit-this-page URL for a document path relative to the
// docs root, or "" when no repository is configured.
func (d *Descriptor) EditURL(relPath string) string {
	base := d.RepoWebURL()
	if base == "" {
		return ""
	}

	branch := d.DocsBranch
	if branch == "" {
		branch = "master"
	}

	docs := strings.Trim(d.DocsDir, "/")
	if docs == "" {
		docs = "docs"
	}
	return fmt.Sprintf("%s/edit/%s/%s/%s", base, url.PathEscape(branch), docs, relPath)
}
