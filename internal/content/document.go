package content

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/guidesite/internal/frontmatter"
)

// Document represents a discovered guideline page or asset in the content tree.
type Document struct {
	Path      string // Absolute path to the file
	RelPath   string // Slash-separated path relative to the docs root, also the source of its route
	Section   string // Containing directory relative to the docs root ("" at root)
	Name      string // File name without extension
	Extension string // File extension including the dot
	IsAsset   bool   // True for images and other non-markdown files
	Content   []byte // File content (loaded on demand)
}

// LoadContent loads the document content from disk. Idempotent.
func (d *Document) LoadContent() error {
	if d.Content != nil {
		return nil
	}

	content, err := os.ReadFile(d.Path)
	if err != nil {
		return fmt.Errorf("read document %s: %w", d.RelPath, err)
	}

	d.Content = content
	return nil
}

// Route returns the site route this document is served under.
//
// Route shape:
//
//	code-style/naming.md   -> /code-style/naming.html
//	code-style/README.md   -> /code-style/
//	README.md              -> /
//	images/layers.png      -> /images/layers.png (assets keep their path)
func (d *Document) Route() string {
	if d.IsAsset {
		return "/" + d.RelPath
	}

	dir := path.Dir(d.RelPath)
	if strings.EqualFold(d.Name, "README") || strings.EqualFold(d.Name, "index") {
		if dir == "." {
			return "/"
		}
		return "/" + dir + "/"
	}

	if dir == "." {
		return "/" + d.Name + ".html"
	}
	return "/" + dir + "/" + d.Name + ".html"
}

// SplitFrontMatter splits the loaded content into parsed front matter fields,
// typed flags, and the Markdown body.
func (d *Document) SplitFrontMatter() (map[string]any, frontmatter.Flags, []byte, error) {
	if err := d.LoadContent(); err != nil {
		return nil, frontmatter.DefaultFlags(), nil, err
	}

	raw, body, had, _, err := frontmatter.Split(d.Content)
	if err != nil {
		return nil, frontmatter.DefaultFlags(), nil, fmt.Errorf("document %s: %w", d.RelPath, err)
	}
	if !had {
		return map[string]any{}, frontmatter.DefaultFlags(), body, nil
	}

	fields, err := frontmatter.ParseYAML(raw)
	if err != nil {
		return nil, frontmatter.DefaultFlags(), nil, fmt.Errorf("document %s: parse front matter: %w", d.RelPath, err)
	}

	flags, err := frontmatter.DecodeFlags(fields)
	if err != nil {
		return fields, flags, body, fmt.Errorf("document %s: %w", d.RelPath, err)
	}

	return fields, flags, body, nil
}

// IsMarkdownFile checks if a file is a markdown document.
func IsMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown"
}

// IsAssetFile checks if a file is a static asset carried alongside documents.
func IsAssetFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico",
		".pdf", ".css", ".js":
		return true
	}
	return false
}
