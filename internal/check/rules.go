package check

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/guidesite/internal/config"
	"git.home.luguber.info/inful/guidesite/internal/content"
	"git.home.luguber.info/inful/guidesite/internal/frontmatter"
	"git.home.luguber.info/inful/guidesite/internal/markdown"
)

// DescriptorPathsRule verifies the descriptor's path fields are non-empty,
// well-formed path strings.
type DescriptorPathsRule struct{}

func (r *DescriptorPathsRule) Name() string { return "descriptor-paths" }

func (r *DescriptorPathsRule) Check(desc *config.Descriptor, _ *content.Tree) ([]Issue, error) {
	var issues []Issue

	fields := map[string]string{
		"base_path":        desc.BasePath,
		"output.directory": desc.Output.Directory,
		"assets_dir":       desc.AssetsDir,
	}
	for field, value := range fields {
		if strings.TrimSpace(value) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Rule:     r.Name(),
				Message:  fmt.Sprintf("%s must not be empty", field),
			})
			continue
		}
		if strings.ContainsAny(value, " \t\n") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Rule:     r.Name(),
				Message:  fmt.Sprintf("%s contains whitespace: %q", field, value),
			})
		}
	}

	if desc.BasePath != "" && !strings.HasPrefix(desc.BasePath, "/") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Rule:     r.Name(),
			Message:  fmt.Sprintf("base_path must start with '/': %q", desc.BasePath),
		})
	}

	return issues, nil
}

// NavTargetRule verifies every navigation entry resolves to an existing
// document in the content tree.
type NavTargetRule struct{}

func (r *NavTargetRule) Name() string { return "nav-target-exists" }

func (r *NavTargetRule) Check(desc *config.Descriptor, tree *content.Tree) ([]Issue, error) {
	var issues []Issue

	for i, entry := range desc.Nav {
		if tree.Resolve("", entry.Link) == nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Rule:     r.Name(),
				Message:  fmt.Sprintf("nav[%d] %q points at %s which does not exist in the content tree", i, entry.Text, entry.Link),
				Fix:      "add the document or remove the navigation entry",
			})
		}
	}

	return issues, nil
}

// FrontMatterRule verifies that document front matter, when present, parses
// and carries well-typed rendering flags.
type FrontMatterRule struct{}

func (r *FrontMatterRule) Name() string { return "frontmatter-valid" }

func (r *FrontMatterRule) Check(_ *config.Descriptor, tree *content.Tree) ([]Issue, error) {
	var issues []Issue

	for _, doc := range tree.Documents() {
		if err := doc.LoadContent(); err != nil {
			return nil, err
		}

		_, _, _, err := doc.SplitFrontMatter()
		if err != nil {
			issues = append(issues, Issue{
				Doc:      doc.RelPath,
				Severity: SeverityError,
				Rule:     r.Name(),
				Message:  err.Error(),
			})
		}
	}

	return issues, nil
}

// EmptyDocRule verifies every document has a non-empty prose body.
type EmptyDocRule struct{}

func (r *EmptyDocRule) Name() string { return "doc-not-empty" }

func (r *EmptyDocRule) Check(_ *config.Descriptor, tree *content.Tree) ([]Issue, error) {
	var issues []Issue

	for _, doc := range tree.Documents() {
		if err := doc.LoadContent(); err != nil {
			return nil, err
		}

		body := doc.Content
		if _, b, had, _, err := frontmatter.Split(doc.Content); err == nil && had {
			body = b
		}

		if len(strings.TrimSpace(string(body))) == 0 {
			issues = append(issues, Issue{
				Doc:      doc.RelPath,
				Severity: SeverityError,
				Rule:     r.Name(),
				Message:  "document body is empty",
				Fix:      "write content or remove the document",
			})
		}
	}

	return issues, nil
}

// LinkResolvesRule verifies that internal Markdown links between documents
// resolve within the content tree. External URLs are out of scope here; the
// linkcheck service owns those.
type LinkResolvesRule struct{}

func (r *LinkResolvesRule) Name() string { return "link-resolves" }

func (r *LinkResolvesRule) Check(_ *config.Descriptor, tree *content.Tree) ([]Issue, error) {
	var issues []Issue

	for _, doc := range tree.Documents() {
		if err := doc.LoadContent(); err != nil {
			return nil, err
		}

		body := doc.Content
		if _, b, had, _, err := frontmatter.Split(doc.Content); err == nil && had {
			body = b
		}

		links, err := markdown.ExtractLinks(body, markdown.Options{})
		if err != nil {
			return nil, fmt.Errorf("extract links from %s: %w", doc.RelPath, err)
		}

		for _, link := range links {
			if !isInternalTarget(link.Destination) {
				continue
			}
			if tree.Resolve(doc.RelPath, link.Destination) == nil {
				issues = append(issues, Issue{
					Doc:      doc.RelPath,
					Severity: SeverityError,
					Rule:     r.Name(),
					Message:  fmt.Sprintf("link target %q does not resolve to a document", link.Destination),
					Fix:      "fix the link target or add the missing document",
				})
			}
		}
	}

	return issues, nil
}

// isInternalTarget reports whether a link destination should resolve inside
// the content tree.
func isInternalTarget(dest string) bool {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return false
	}
	if strings.HasPrefix(dest, "#") {
		return false // in-page anchor
	}
	if strings.Contains(dest, "://") {
		return false
	}
	for _, scheme := range []string{"mailto:", "tel:", "data:"} {
		if strings.HasPrefix(dest, scheme) {
			return false
		}
	}
	return true
}
