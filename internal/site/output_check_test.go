package site

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractHTMLRefs_CollectsAnchorImageScriptLink(t *testing.T) {
	page := `<html><head>
<link rel="stylesheet" href="style.css">
<script src="/app.js"></script>
</head><body>
<a href="/code-style/">style</a>
<img src="images/layers.png">
</body></html>`

	refs, err := extractHTMLRefs(strings.NewReader(page))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"style.css", "/app.js", "/code-style/", "images/layers.png"}, refs)
}

func TestResolveInternalRef(t *testing.T) {
	cases := []struct {
		name     string
		base     string
		page     string
		ref      string
		want     string
		internal bool
	}{
		{"relative sibling", "", "architecture/index.html", "layering.html", "architecture/layering.html", true},
		{"relative parent", "", "architecture/index.html", "../logo.svg", "logo.svg", true},
		{"absolute directory", "", "index.html", "/code-style/", "code-style/index.html", true},
		{"site root", "", "code-style/index.html", "/", "index.html", true},
		{"base path stripped", "/guides", "index.html", "/guides/architecture/", "architecture/index.html", true},
		{"base path root", "/guides", "index.html", "/guides", "index.html", true},
		{"outside base path", "/guides", "index.html", "/elsewhere/page.html", "/elsewhere/page.html", true},
		{"fragment dropped", "", "index.html", "code-style/index.html#naming", "code-style/index.html", true},
		{"external", "", "index.html", "https://example.com/x", "", false},
		{"protocol relative", "", "index.html", "//cdn.example.com/x.js", "", false},
		{"mailto", "", "index.html", "mailto:docs@example.com", "", false},
		{"pure fragment", "", "index.html", "#top", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, internal := resolveInternalRef(tc.base, tc.page, tc.ref)
			require.Equal(t, tc.internal, internal)
			if tc.internal {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestBuild_RewritesDocumentLinksToRoutes(t *testing.T) {
	root, desc := fixtureProject(t)

	builder, err := NewBuilder(desc, root)
	require.NoError(t, err)
	_, err = builder.Build(context.Background())
	require.NoError(t, err)

	index, err := os.ReadFile(filepath.Join(root, "dist", "code-style", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(index), `href="/code-style/platform-language.html"`)
	require.NotContains(t, string(index), `href="platform-language.md"`)
}

func TestBuild_DanglingRawHTMLRef_ReportsWarning(t *testing.T) {
	root, desc := fixtureProject(t)

	// Raw HTML passes through the markdown renderer untouched, so the
	// structural checker never sees this reference.
	page := filepath.Join(root, "docs", "architecture", "README.md")
	require.NoError(t, os.WriteFile(page,
		[]byte("# Architecture\n\n<img src=\"images/missing.png\">\n"), 0o644))

	builder, err := NewBuilder(desc, root)
	require.NoError(t, err)

	report, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeWarning, report.Outcome)
	require.Len(t, report.Warnings, 1)
	require.Contains(t, report.Warnings[0], "architecture/index.html -> images/missing.png")
}