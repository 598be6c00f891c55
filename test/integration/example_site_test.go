package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/guidesite/internal/check"
	"git.home.luguber.info/inful/guidesite/internal/content"
	"git.home.luguber.info/inful/guidesite/internal/site"
)

// The shipped example site is the reference authoring layout. These tests
// keep it consistent with the descriptor and buildable end to end.

func TestExampleSite_StructuralCheck_NoIssues(t *testing.T) {
	root, desc := stageExampleSite(t)

	tree, err := content.Discover(filepath.Join(root, desc.DocsDir))
	require.NoError(t, err)

	result, err := check.NewChecker(desc.Checks).Run(desc, tree)
	require.NoError(t, err)
	require.Empty(t, result.Issues, "example site must pass its own structural check")
}

func TestExampleSite_Build_ProducesFullOutput(t *testing.T) {
	root, desc := stageExampleSite(t)

	builder, err := site.NewBuilder(desc, root)
	require.NoError(t, err)

	report, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, site.OutcomeSuccess, report.Outcome)

	for _, rel := range []string{
		"index.html",
		"architecture/index.html",
		"architecture/layering.html",
		"architecture/integration.html",
		"architecture/images/layers.png",
		"code-style/index.html",
		"code-style/platform-language.html",
		"code-style/scripting.html",
		"logo.svg",
		"site-config.json",
		"manifest.json",
	} {
		_, err := os.Stat(filepath.Join(root, desc.Output.Directory, rel))
		require.NoError(t, err, "expected %s in build output", rel)
	}
}

func TestExampleSite_Build_NavUsesBasePath(t *testing.T) {
	root, desc := stageExampleSite(t)

	builder, err := site.NewBuilder(desc, root)
	require.NoError(t, err)
	_, err = builder.Build(context.Background())
	require.NoError(t, err)

	page := readOutput(t, root, desc, "index.html")
	require.Contains(t, page, `href="/guidelines/architecture/"`)
	require.Contains(t, page, `href="/guidelines/code-style/"`)
}

func TestExampleSite_Build_SidebarFlagRespected(t *testing.T) {
	root, desc := stageExampleSite(t)

	builder, err := site.NewBuilder(desc, root)
	require.NoError(t, err)
	_, err = builder.Build(context.Background())
	require.NoError(t, err)

	withSidebar := readOutput(t, root, desc, "architecture", "layering.html")
	require.Contains(t, withSidebar, "<aside")

	suppressed := readOutput(t, root, desc, "architecture", "integration.html")
	require.NotContains(t, suppressed, "<aside")
}

func TestExampleSite_Build_Idempotent(t *testing.T) {
	root, desc := stageExampleSite(t)

	builder, err := site.NewBuilder(desc, root)
	require.NoError(t, err)

	first, err := builder.Build(context.Background())
	require.NoError(t, err)
	firstManifest := readOutput(t, root, desc, "manifest.json")

	second, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.TreeHash, second.TreeHash)
	require.Equal(t, firstManifest, readOutput(t, root, desc, "manifest.json"))
}

func TestExampleSite_Build_EditLinksPointAtRepo(t *testing.T) {
	root, desc := stageExampleSite(t)

	builder, err := site.NewBuilder(desc, root)
	require.NoError(t, err)
	_, err = builder.Build(context.Background())
	require.NoError(t, err)

	page := readOutput(t, root, desc, "code-style", "scripting.html")
	require.Contains(t, page, desc.EditURL("code-style/scripting.md"))
	require.True(t, strings.Contains(page, "github.com/example/platform-guidelines"))
}
