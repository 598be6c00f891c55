package check

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/guidesite/internal/config"
	"git.home.luguber.info/inful/guidesite/internal/content"
)

func fixtureSite(t *testing.T, files map[string]string) (*config.Descriptor, *content.Tree) {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}

	tree, err := content.Discover(root)
	require.NoError(t, err)

	desc := &config.Descriptor{
		Locale:    "en-US",
		Title:     "Guidelines",
		BasePath:  "/",
		DocsDir:   "docs",
		AssetsDir: "public",
		Output:    config.OutputConfig{Directory: "dist"},
		Nav: []config.NavEntry{
			{Text: "Architecture", Link: "/architecture/README.md"},
			{Text: "Code style", Link: "/code-style/README.md"},
		},
	}
	return desc, tree
}

func consistentFiles() map[string]string {
	return map[string]string{
		"README.md":                       "# Guidelines\n\n- [Code style](/code-style/README.md)\n",
		"architecture/README.md":          "# Architecture\n\nSee [code style](../code-style/README.md).\n",
		"code-style/README.md":            "---\nsidebar: false\n---\n# Code style\n\n[Platform](platform-language.md)\n",
		"code-style/platform-language.md": "# Platform language\n\nRules.\n",
	}
}

func TestRun_ConsistentSite_NoIssues(t *testing.T) {
	desc, tree := fixtureSite(t, consistentFiles())

	result, err := NewChecker(nil).Run(desc, tree)
	require.NoError(t, err)
	require.Empty(t, result.Issues)
	require.False(t, result.HasErrors())
	require.Equal(t, 4, result.DocsTotal)
}

func TestRun_RemovedNavTarget_FlagsInconsistency(t *testing.T) {
	files := consistentFiles()
	delete(files, "architecture/README.md")
	desc, tree := fixtureSite(t, files)

	result, err := NewChecker(nil).Run(desc, tree)
	require.NoError(t, err)
	require.True(t, result.HasErrors())

	var rules []string
	for _, issue := range result.Issues {
		rules = append(rules, issue.Rule)
	}
	require.Contains(t, rules, "nav-target-exists")
}

func TestRun_BrokenRelativeLink_Reported(t *testing.T) {
	files := consistentFiles()
	files["code-style/README.md"] = "# Code style\n\n[Missing](scripting-language.md)\n"
	desc, tree := fixtureSite(t, files)

	result, err := NewChecker(nil).Run(desc, tree)
	require.NoError(t, err)
	require.True(t, result.HasErrors())

	found := false
	for _, issue := range result.Issues {
		if issue.Rule == "link-resolves" {
			found = true
			require.Equal(t, "code-style/README.md", issue.Doc)
			require.Contains(t, issue.Message, "scripting-language.md")
		}
	}
	require.True(t, found)
}

func TestRun_ExternalLinks_NotFlagged(t *testing.T) {
	files := consistentFiles()
	files["architecture/README.md"] = "# Architecture\n\n[Spec](https://example.com/spec) <mailto:team@example.com>\n"
	desc, tree := fixtureSite(t, files)

	result, err := NewChecker(nil).Run(desc, tree)
	require.NoError(t, err)
	require.False(t, result.HasErrors())
}

func TestRun_EmptyDocument_Reported(t *testing.T) {
	files := consistentFiles()
	files["code-style/platform-language.md"] = "---\nsidebar: false\n---\n\n"
	desc, tree := fixtureSite(t, files)

	result, err := NewChecker(nil).Run(desc, tree)
	require.NoError(t, err)

	found := false
	for _, issue := range result.Issues {
		if issue.Rule == "doc-not-empty" {
			found = true
			require.Equal(t, "code-style/platform-language.md", issue.Doc)
		}
	}
	require.True(t, found)
}

func TestRun_MistypedSidebarFlag_Reported(t *testing.T) {
	files := consistentFiles()
	files["code-style/platform-language.md"] = "---\nsidebar: maybe\n---\n# Platform language\n"
	desc, tree := fixtureSite(t, files)

	result, err := NewChecker(nil).Run(desc, tree)
	require.NoError(t, err)

	found := false
	for _, issue := range result.Issues {
		if issue.Rule == "frontmatter-valid" {
			found = true
		}
	}
	require.True(t, found)
}

func TestRun_DisabledRule_Skipped(t *testing.T) {
	files := consistentFiles()
	delete(files, "architecture/README.md")
	files["README.md"] = "# Guidelines\n"
	desc, tree := fixtureSite(t, files)

	cfg := &config.ChecksConfig{Disabled: []string{"nav-target-exists", "link-resolves"}}
	result, err := NewChecker(cfg).Run(desc, tree)
	require.NoError(t, err)
	require.False(t, result.HasErrors())
}

func TestRun_DescriptorPathIssue_Reported(t *testing.T) {
	desc, tree := fixtureSite(t, consistentFiles())
	desc.AssetsDir = ""

	result, err := NewChecker(nil).Run(desc, tree)
	require.NoError(t, err)

	found := false
	for _, issue := range result.Issues {
		if issue.Rule == "descriptor-paths" {
			found = true
			require.Contains(t, issue.Message, "assets_dir")
		}
	}
	require.True(t, found)
}

func TestTextFormatter_SummarizesCounts(t *testing.T) {
	files := consistentFiles()
	delete(files, "architecture/README.md")
	files["README.md"] = "# Guidelines\n"
	desc, tree := fixtureSite(t, files)

	result, err := NewChecker(nil).Run(desc, tree)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(config.CheckFormatText).Format(&buf, result, tree.Root))
	out := buf.String()
	require.Contains(t, out, "nav-target-exists")
	require.Contains(t, out, "inconsistent")
}

func TestJSONFormatter_EmitsParsableDocument(t *testing.T) {
	desc, tree := fixtureSite(t, consistentFiles())

	result, err := NewChecker(nil).Run(desc, tree)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(config.CheckFormatJSON).Format(&buf, result, tree.Root))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	require.Equal(t, float64(0), payload["errors"])
	require.Equal(t, float64(4), payload["docs_total"])
}
