package site

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Attributes that carry references per element.
var refAttrs = map[string]string{
	"a":      "href",
	"img":    "src",
	"link":   "href",
	"script": "src",
}

// extractHTMLRefs parses rendered HTML and returns every reference carried
// by an anchor, image, stylesheet, or script element.
func extractHTMLRefs(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := refAttrs[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key == attr && a.Val != "" {
						refs = append(refs, a.Val)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

// stageVerifyOutput re-parses every rendered page and reports internal
// references that point at files the build did not emit. Broken internal
// references are a warning: the page set itself is already validated, so a
// dangling href here means a target outside the tree, not a missing page.
func stageVerifyOutput(ctx context.Context, bs *BuildState) error {
	emitted, pages, err := indexStagedFiles(bs.Builder.stageDir)
	if err != nil {
		return newFatalStageError("verify_output", err)
	}

	base := strings.TrimSuffix(bs.Builder.desc.BasePath, "/")

	var dangling []string
	for _, page := range pages {
		select {
		case <-ctx.Done():
			return newCanceledStageError("verify_output", ctx.Err())
		default:
		}

		refs, err := extractPageRefs(filepath.Join(bs.Builder.stageDir, filepath.FromSlash(page)))
		if err != nil {
			return newFatalStageError("verify_output", err)
		}
		for _, ref := range refs {
			target, internal := resolveInternalRef(base, page, ref)
			if !internal {
				continue
			}
			if !emitted[target] {
				dangling = append(dangling, fmt.Sprintf("%s -> %s", page, ref))
			}
		}
	}

	if len(dangling) > 0 {
		sort.Strings(dangling)
		return newWarnStageError("verify_output",
			fmt.Errorf("%d dangling internal references: %s", len(dangling), strings.Join(dangling, "; ")))
	}
	return nil
}

// indexStagedFiles walks the staging directory returning the set of emitted
// files (slash-relative) and the subset that are HTML pages.
func indexStagedFiles(stageDir string) (map[string]bool, []string, error) {
	emitted := map[string]bool{}
	var pages []string
	err := filepath.WalkDir(stageDir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(stageDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		emitted[rel] = true
		if strings.HasSuffix(rel, ".html") {
			pages = append(pages, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk staging directory: %w", err)
	}
	sort.Strings(pages)
	return emitted, pages, nil
}

func extractPageRefs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return extractHTMLRefs(f)
}

// resolveInternalRef maps a reference found in the page at pageRel to an
// emitted-file path. The second return is false for external or
// non-file references (other hosts, mailto, pure fragments).
func resolveInternalRef(base, pageRel, ref string) (string, bool) {
	if ref == "" || strings.Contains(ref, "://") ||
		strings.HasPrefix(ref, "mailto:") || strings.HasPrefix(ref, "tel:") ||
		strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "#") {
		return "", false
	}

	if i := strings.IndexAny(ref, "#?"); i >= 0 {
		ref = ref[:i]
	}
	if ref == "" {
		return "", false
	}

	var rel string
	if strings.HasPrefix(ref, "/") {
		// Absolute references must live under the site base path.
		if base != "" && !strings.HasPrefix(ref, base+"/") && ref != base {
			return ref, true
		}
		rel = strings.TrimPrefix(strings.TrimPrefix(ref, base), "/")
	} else {
		rel = path.Join(path.Dir(pageRel), ref)
	}

	if rel == "" || strings.HasSuffix(ref, "/") {
		rel = path.Join(rel, "index.html")
	}
	return path.Clean(rel), true
}
