package content

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	siteerrors "git.home.luguber.info/inful/guidesite/internal/errors"
	"git.home.luguber.info/inful/guidesite/internal/logfields"
)

// Tree is the discovered content hierarchy under a docs root.
//
// Directory nesting encodes the topic -> language grouping; the tree itself
// imposes no ordering between documents.
type Tree struct {
	Root string
	docs []Document
}

// Discover walks the docs root and collects markdown documents and assets.
//
// Hidden files and directories are skipped. Files that are neither markdown
// nor recognized assets are ignored.
func Discover(root string) (*Tree, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve docs root: %w", err)
	}

	tree := &Tree{Root: absRoot}

	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if strings.HasPrefix(d.Name(), ".") && p != absRoot {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		isMarkdown := IsMarkdownFile(p)
		isAsset := IsAssetFile(p)
		if !isMarkdown && !isAsset {
			return nil
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", p, err)
		}
		rel = filepath.ToSlash(rel)

		section := path.Dir(rel)
		if section == "." {
			section = ""
		}

		doc := Document{
			Path:      p,
			RelPath:   rel,
			Section:   section,
			Name:      strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			Extension: filepath.Ext(d.Name()),
			IsAsset:   isAsset,
		}
		tree.docs = append(tree.docs, doc)

		slog.Debug("Discovered content file", logfields.Doc(rel), slog.Bool("asset", isAsset))
		return nil
	})
	if err != nil {
		return nil, siteerrors.WrapError(err, siteerrors.CategoryContent, "walk docs root").WithContext("root", absRoot)
	}

	sort.Slice(tree.docs, func(i, j int) bool { return tree.docs[i].RelPath < tree.docs[j].RelPath })

	slog.Info("Content tree discovered", logfields.Path(absRoot), logfields.Count(len(tree.docs)))
	return tree, nil
}

// Documents returns the markdown documents in the tree, sorted by RelPath.
func (t *Tree) Documents() []*Document {
	var out []*Document
	for i := range t.docs {
		if !t.docs[i].IsAsset {
			out = append(out, &t.docs[i])
		}
	}
	return out
}

// Assets returns the non-markdown files in the tree, sorted by RelPath.
func (t *Tree) Assets() []*Document {
	var out []*Document
	for i := range t.docs {
		if t.docs[i].IsAsset {
			out = append(out, &t.docs[i])
		}
	}
	return out
}

// All returns every file in the tree, sorted by RelPath.
func (t *Tree) All() []*Document {
	out := make([]*Document, len(t.docs))
	for i := range t.docs {
		out[i] = &t.docs[i]
	}
	return out
}

// ByRelPath returns the document with the given slash-separated relative path.
func (t *Tree) ByRelPath(rel string) *Document {
	rel = path.Clean(strings.TrimPrefix(rel, "/"))
	for i := range t.docs {
		if t.docs[i].RelPath == rel {
			return &t.docs[i]
		}
	}
	return nil
}

// Resolve maps a link target to a document in the tree.
//
// Accepted target forms, in resolution order:
//   - a document path ("/code-style/README.md")
//   - a directory route ("/code-style/" resolving to its README)
//   - a derived route ("/code-style/naming.html")
//
// Relative targets are resolved against fromRel (the linking document's
// RelPath); absolute targets are resolved against the tree root.
func (t *Tree) Resolve(fromRel, target string) *Document {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil
	}

	// Strip fragment and query; anchors resolve to their page.
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	if target == "" && fromRel != "" {
		return t.ByRelPath(fromRel)
	}

	var rel string
	if strings.HasPrefix(target, "/") {
		rel = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		rel = path.Join(path.Dir(fromRel), target)
	}
	rel = strings.TrimPrefix(rel, "/")

	if doc := t.ByRelPath(rel); doc != nil {
		return doc
	}

	// Directory route: resolve to the section index.
	for _, index := range []string{"README.md", "index.md"} {
		if doc := t.ByRelPath(path.Join(rel, index)); doc != nil {
			return doc
		}
	}

	// Derived route form: map foo.html back to foo.md.
	if strings.HasSuffix(rel, ".html") {
		if doc := t.ByRelPath(strings.TrimSuffix(rel, ".html") + ".md"); doc != nil {
			return doc
		}
	}

	return nil
}

// Sections returns the distinct sections present in the tree, sorted.
func (t *Tree) Sections() []string {
	seen := map[string]struct{}{}
	for i := range t.docs {
		seen[t.docs[i].Section] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// LoadAll loads content for every file in the tree.
func (t *Tree) LoadAll() error {
	for i := range t.docs {
		if err := t.docs[i].LoadContent(); err != nil {
			return err
		}
	}
	return nil
}
