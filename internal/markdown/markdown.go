package markdown

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ExtractLinks parses a Markdown body (front matter already removed) and
// extracts link-like constructs.
//
// This is an analysis API; it does not attempt to re-render Markdown.
func ExtractLinks(body []byte, _ Options) ([]Link, error) {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Goldmark resolves reference-style links to a Link node with a Destination.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions are stored in the parse context (not represented as AST nodes).
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}

	return links, nil
}

// FirstHeading returns the text of the first level-1 heading in the body, or "".
func FirstHeading(body []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	title := ""
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || title != "" {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			var buf bytes.Buffer
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*gmast.Text); ok {
					buf.Write(t.Segment.Value(body))
				}
			}
			title = buf.String()
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

// LinkRewriteFunc maps a link destination from the Markdown source to the
// destination emitted in the HTML. Returning the input unchanged is valid.
type LinkRewriteFunc func(dest string) string

// linkRewriter rewrites link and image destinations during parsing, before
// the renderer sees them.
type linkRewriter struct {
	rewrite LinkRewriteFunc
}

func (t linkRewriter) Transform(doc *gmast.Document, _ text.Reader, _ parser.Context) {
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			node.Destination = []byte(t.rewrite(string(node.Destination)))
		case *gmast.Image:
			node.Destination = []byte(t.rewrite(string(node.Destination)))
		}
		return gmast.WalkContinue, nil
	})
}

// RenderHTML renders a Markdown body to HTML. A non-nil rewrite function is
// applied to every link and image destination, which is how source-relative
// document references become published routes.
//
// GFM tables and strikethrough are enabled to match what the production
// generator renders; raw HTML passes through unchanged.
func RenderHTML(body []byte, rewrite LinkRewriteFunc) ([]byte, error) {
	parserOpts := []parser.Option{}
	if rewrite != nil {
		parserOpts = append(parserOpts, parser.WithASTTransformers(
			util.Prioritized(linkRewriter{rewrite: rewrite}, 100),
		))
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
