package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/guidesite/internal/config"
	"git.home.luguber.info/inful/guidesite/internal/content"
)

func fixtureProject(t *testing.T) (string, *config.Descriptor) {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"docs/README.md":                       "# Guidelines\n\nStart with [code style](/code-style/README.md).\n",
		"docs/architecture/README.md":          "# Architecture\n\nLayered design.\n",
		"docs/code-style/README.md":            "---\nsidebar: false\n---\n# Code style\n\nSee [platform](platform-language.md).\n",
		"docs/code-style/platform-language.md": "# Platform language\n\nNaming rules.\n",
		"docs/architecture/images/layers.png":  "\x89PNG fake",
		"public/logo.svg":                      "<svg/>",
	}
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}

	desc := &config.Descriptor{
		Locale:      "en-US",
		Title:       "Guidelines",
		Description: "Engineering guidelines",
		BasePath:    "/",
		DocsDir:     "docs",
		AssetsDir:   "public",
		Output:      config.OutputConfig{Directory: "dist"},
		Nav: []config.NavEntry{
			{Text: "Architecture", Link: "/architecture/README.md"},
			{Text: "Code style", Link: "/code-style/README.md"},
		},
		Repo:       "github.com/acme/guidelines",
		DocsBranch: "master",
	}
	return root, desc
}

func TestBuild_RendersTreeIntoOutput(t *testing.T) {
	root, desc := fixtureProject(t)

	builder, err := NewBuilder(desc, root)
	require.NoError(t, err)

	report, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.Outcome)
	require.Equal(t, 4, report.Docs)
	require.Equal(t, 4, report.RenderedPages)
	require.NotEmpty(t, report.BuildID)
	require.NotEmpty(t, report.TreeHash)

	out := filepath.Join(root, "dist")
	for _, rel := range []string{
		"index.html",
		"architecture/index.html",
		"code-style/index.html",
		"code-style/platform-language.html",
		"architecture/images/layers.png",
		"logo.svg",
		"site-config.json",
		"manifest.json",
		"build-report.json",
	} {
		require.FileExists(t, filepath.Join(out, rel), rel)
	}

	// Staging dir must not survive a successful build.
	require.NoDirExists(t, out+"_stage")
}

func TestBuild_CleanOutput_RemovesStaleFiles(t *testing.T) {
	root, desc := fixtureProject(t)
	desc.Output.Clean = true

	out := filepath.Join(root, "dist")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.html"), []byte("old"), 0o644))

	builder, err := NewBuilder(desc, root)
	require.NoError(t, err)
	_, err = builder.Build(context.Background())
	require.NoError(t, err)

	require.NoFileExists(t, filepath.Join(out, "stale.html"))
	require.FileExists(t, filepath.Join(out, "index.html"))
	require.NoDirExists(t, out+".prev")
}

func TestBuild_WithoutClean_PreservesUnmanagedFiles(t *testing.T) {
	root, desc := fixtureProject(t)
	require.False(t, desc.Output.Clean)

	out := filepath.Join(root, "dist")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "CNAME"), []byte("guides.example.com\n"), 0o644))

	builder, err := NewBuilder(desc, root)
	require.NoError(t, err)
	_, err = builder.Build(context.Background())
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(out, "CNAME"))
	require.FileExists(t, filepath.Join(out, "index.html"))
	require.NoDirExists(t, out+"_stage")
}

func TestBuild_Idempotent_SameTreeHash(t *testing.T) {
	root, desc := fixtureProject(t)

	builder, err := NewBuilder(desc, root)
	require.NoError(t, err)

	first, err := builder.Build(context.Background())
	require.NoError(t, err)
	second, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.TreeHash, second.TreeHash)

	data, err := os.ReadFile(filepath.Join(root, "dist", "manifest.json"))
	require.NoError(t, err)
	manifest, err := content.ManifestFromJSON(data)
	require.NoError(t, err)
	require.Equal(t, second.TreeHash, manifest.Hash)
}

func TestBuild_InconsistentStructure_FailsAndKeepsPreviousOutput(t *testing.T) {
	root, desc := fixtureProject(t)

	builder, err := NewBuilder(desc, root)
	require.NoError(t, err)
	_, err = builder.Build(context.Background())
	require.NoError(t, err)

	// Remove a nav target; the next build must fail without touching dist.
	require.NoError(t, os.Remove(filepath.Join(root, "docs", "architecture", "README.md")))

	report, err := builder.Build(context.Background())
	require.Error(t, err)
	require.Equal(t, OutcomeFailed, report.Outcome)
	require.FileExists(t, filepath.Join(root, "dist", "architecture", "index.html"))
	require.NoDirExists(t, filepath.Join(root, "dist_stage"))
}

func TestBuild_SidebarFlag_ControlsAside(t *testing.T) {
	root, desc := fixtureProject(t)

	builder, err := NewBuilder(desc, root)
	require.NoError(t, err)
	_, err = builder.Build(context.Background())
	require.NoError(t, err)

	withSidebar, err := os.ReadFile(filepath.Join(root, "dist", "code-style", "platform-language.html"))
	require.NoError(t, err)
	require.Contains(t, string(withSidebar), "<aside>")
	require.Contains(t, string(withSidebar), "Platform language")

	suppressed, err := os.ReadFile(filepath.Join(root, "dist", "code-style", "index.html"))
	require.NoError(t, err)
	require.NotContains(t, string(suppressed), "<aside>")
}

func TestBuild_Canceled_ReturnsCanceledOutcome(t *testing.T) {
	root, desc := fixtureProject(t)

	builder, err := NewBuilder(desc, root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := builder.Build(ctx)
	require.Error(t, err)
	require.Equal(t, OutcomeCanceled, report.Outcome)
	require.NoDirExists(t, filepath.Join(root, "dist"))
}

func TestRouteToFile(t *testing.T) {
	cases := map[string]string{
		"/":                               "index.html",
		"/architecture/":                  filepath.FromSlash("architecture/index.html"),
		"/code-style/naming.html":         filepath.FromSlash("code-style/naming.html"),
		"/architecture/images/layers.png": filepath.FromSlash("architecture/images/layers.png"),
	}
	for route, want := range cases {
		require.Equal(t, want, routeToFile(route), route)
	}
}

func TestRenderer_NavMarksActiveSection(t *testing.T) {
	root, desc := fixtureProject(t)
	tree, err := content.Discover(filepath.Join(root, "docs"))
	require.NoError(t, err)

	renderer, err := NewRenderer(desc)
	require.NoError(t, err)

	doc := tree.ByRelPath("code-style/platform-language.md")
	require.NotNil(t, doc)

	items := renderer.navItems(tree, doc)
	require.Len(t, items, 2)
	require.Equal(t, "/architecture/", items[0].Href)
	require.False(t, items[0].Active)
	require.Equal(t, "/code-style/", items[1].Href)
	require.True(t, items[1].Active)
}

func TestRenderer_BasePathPrefixesHrefs(t *testing.T) {
	_, desc := fixtureProject(t)
	desc.BasePath = "/guides/"

	renderer, err := NewRenderer(desc)
	require.NoError(t, err)
	require.Equal(t, "/guides/code-style/", renderer.Href("/code-style/"))
}
