package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractLinks_InlineAndImage_Extracted(t *testing.T) {
	body := []byte("See [naming](naming.md) and ![diagram](images/layers.png).\n")

	links, err := ExtractLinks(body, Options{})
	require.NoError(t, err)

	dests := map[LinkKind][]string{}
	for _, l := range links {
		dests[l.Kind] = append(dests[l.Kind], l.Destination)
	}
	require.Contains(t, dests[LinkKindInline], "naming.md")
	require.Contains(t, dests[LinkKindImage], "images/layers.png")
}

func TestExtractLinks_AutoLink_Extracted(t *testing.T) {
	body := []byte("Docs live at <https://docs.example.com/guides>.\n")

	links, err := ExtractLinks(body, Options{})
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, LinkKindAuto, links[0].Kind)
	require.Equal(t, "https://docs.example.com/guides", links[0].Destination)
}

func TestExtractLinks_ReferenceDefinition_Extracted(t *testing.T) {
	body := []byte("See [style guide][sg].\n\n[sg]: ../code-style/README.md\n")

	links, err := ExtractLinks(body, Options{})
	require.NoError(t, err)

	var refDests []string
	for _, l := range links {
		if l.Kind == LinkKindReferenceDefinition {
			refDests = append(refDests, l.Destination)
		}
	}
	require.Equal(t, []string{"../code-style/README.md"}, refDests)
}

func TestExtractLinks_NoLinks_ReturnsEmpty(t *testing.T) {
	links, err := ExtractLinks([]byte("Plain prose only.\n"), Options{})
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestFirstHeading_ReturnsLevelOneText(t *testing.T) {
	body := []byte("# Query style\n\n## Details\n")
	require.Equal(t, "Query style", FirstHeading(body))
}

func TestFirstHeading_NoHeading_ReturnsEmpty(t *testing.T) {
	require.Equal(t, "", FirstHeading([]byte("prose only\n")))
}

func TestRenderHTML_RendersLinksAndTables(t *testing.T) {
	body := []byte("[home](/README.html)\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")

	out, err := RenderHTML(body, nil)
	require.NoError(t, err)
	require.Contains(t, string(out), `<a href="/README.html">home</a>`)
	require.Contains(t, string(out), "<table>")
}

func TestRenderHTML_RewriteAppliedToLinksAndImages(t *testing.T) {
	body := []byte("See [naming](naming.md) and ![diagram](images/layers.png).\n")

	out, err := RenderHTML(body, func(dest string) string {
		if dest == "naming.md" {
			return "/code-style/naming.html"
		}
		return dest
	})
	require.NoError(t, err)
	require.Contains(t, string(out), `<a href="/code-style/naming.html">naming</a>`)
	require.Contains(t, string(out), `src="images/layers.png"`)
}
