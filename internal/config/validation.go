package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Validate checks the descriptor for authoring errors. It assumes
// normalization and defaults have already been applied.
func Validate(d *Descriptor) error {
	v := &descriptorValidator{desc: d}
	return v.validate()
}

// descriptorValidator coordinates validation across descriptor domains.
type descriptorValidator struct {
	desc *Descriptor
}

func (v *descriptorValidator) validate() error {
	if err := v.validateIdentity(); err != nil {
		return err
	}
	if err := v.validatePaths(); err != nil {
		return err
	}
	if err := v.validateNav(); err != nil {
		return err
	}
	if err := v.validateRepo(); err != nil {
		return err
	}
	if err := v.validateHistory(); err != nil {
		return err
	}
	return v.validateLinkCheck()
}

func (v *descriptorValidator) validateIdentity() error {
	if strings.TrimSpace(v.desc.Title) == "" {
		return errors.New("title must not be empty")
	}

	if _, err := language.Parse(v.desc.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", v.desc.Locale, err)
	}

	return nil
}

func (v *descriptorValidator) validatePaths() error {
	if err := validatePathString("base_path", v.desc.BasePath); err != nil {
		return err
	}
	if !strings.HasPrefix(v.desc.BasePath, "/") {
		return fmt.Errorf("base_path must start with '/': %s", v.desc.BasePath)
	}

	if err := validatePathString("docs_dir", v.desc.DocsDir); err != nil {
		return err
	}
	if err := validatePathString("assets_dir", v.desc.AssetsDir); err != nil {
		return err
	}
	if err := validatePathString("output.directory", v.desc.Output.Directory); err != nil {
		return err
	}
	return nil
}

func validatePathString(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if strings.ContainsAny(value, " \t\n") {
		return fmt.Errorf("%s must not contain whitespace: %q", field, value)
	}
	for _, seg := range strings.Split(strings.Trim(value, "/"), "/") {
		if seg == ".." {
			return fmt.Errorf("%s must not contain '..': %q", field, value)
		}
	}
	return nil
}

func (v *descriptorValidator) validateNav() error {
	seen := make(map[string]bool, len(v.desc.Nav))
	for i, entry := range v.desc.Nav {
		if entry.Text == "" {
			return fmt.Errorf("nav[%d]: text must not be empty", i)
		}
		if entry.Link == "" {
			return fmt.Errorf("nav[%d] (%s): link must not be empty", i, entry.Text)
		}
		if !strings.HasPrefix(entry.Link, "/") {
			return fmt.Errorf("nav[%d] (%s): link must be root-relative, got %q", i, entry.Text, entry.Link)
		}
		if seen[entry.Link] {
			return fmt.Errorf("duplicate nav link: %s", entry.Link)
		}
		seen[entry.Link] = true
	}
	return nil
}

func (v *descriptorValidator) validateRepo() error {
	if strings.ContainsAny(v.desc.DocsBranch, " \t") {
		return fmt.Errorf("docs_branch must not contain whitespace: %q", v.desc.DocsBranch)
	}

	repo := v.desc.Repo
	if repo == "" {
		return nil // edit links simply disabled
	}

	if strings.HasPrefix(repo, "http://") || strings.HasPrefix(repo, "https://") {
		return nil
	}
	if strings.Count(repo, "/") < 1 {
		return fmt.Errorf("repo must be 'owner/name', 'host/owner/name', or a URL: %q", repo)
	}
	return nil
}

func (v *descriptorValidator) validateHistory() error {
	if v.desc.History == nil || !v.desc.History.Enabled {
		return nil
	}
	if v.desc.History.Path == "" {
		return errors.New("history.path is required when history is enabled")
	}
	return nil
}

func (v *descriptorValidator) validateLinkCheck() error {
	lc := v.desc.LinkCheck
	if lc == nil || !lc.Enabled {
		return nil
	}

	for field, value := range map[string]string{
		"linkcheck.request_timeout":    lc.RequestTimeout,
		"linkcheck.cache_ttl":          lc.CacheTTL,
		"linkcheck.cache_ttl_failures": lc.CacheTTLFailures,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %q: %w", field, value, err)
		}
	}
	return nil
}
