package site

import (
	"bytes"
	"fmt"
	html "html/template"
	"sort"
	"strings"

	"git.home.luguber.info/inful/guidesite/internal/config"
	"git.home.luguber.info/inful/guidesite/internal/content"
	"git.home.luguber.info/inful/guidesite/internal/markdown"
)

// NavItem is a rendered navigation or sidebar entry.
type NavItem struct {
	Text   string
	Href   string
	Active bool
}

// Page is the template model for one rendered document.
type Page struct {
	Locale      string
	SiteTitle   string
	Description string
	Title       string
	Nav         []NavItem
	Sidebar     []NavItem
	ShowSidebar bool
	Body        html.HTML
	EditURL     string
	LiveReload  bool
}

const pageTemplate = `<!DOCTYPE html>
<html lang="{{.Locale}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if .Title}}{{.Title}} | {{end}}{{.SiteTitle}}</title>
{{if .Description}}<meta name="description" content="{{.Description}}">{{end}}
<style>
body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,sans-serif;margin:0;color:#2c3e50}
header{border-bottom:1px solid #eaecef;padding:0.7rem 1.5rem;display:flex;align-items:center}
header .site-title{font-weight:600;font-size:1.3rem;margin-right:auto}
header nav a{margin-left:1.5rem;text-decoration:none;color:inherit}
header nav a.active{color:#3eaf7c}
main{display:flex;max-width:60rem;margin:0 auto;padding:2rem 1.5rem}
aside{width:16rem;flex-shrink:0;padding-right:2rem}
aside ul{list-style:none;padding:0}
aside a{text-decoration:none;color:inherit;display:block;padding:0.25rem 0}
aside a.active{color:#3eaf7c;font-weight:600}
article{min-width:0;flex:1}
article pre{background:#f6f8fa;padding:1rem;overflow:auto}
footer{max-width:60rem;margin:0 auto;padding:1rem 1.5rem;border-top:1px solid #eaecef;font-size:0.9rem}
</style>
</head>
<body>
<header>
<span class="site-title">{{.SiteTitle}}</span>
<nav>{{range .Nav}}<a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Text}}</a>{{end}}</nav>
</header>
<main>
{{if .ShowSidebar}}<aside><ul>{{range .Sidebar}}<li><a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Text}}</a></li>{{end}}</ul></aside>{{end}}
<article>{{.Body}}</article>
</main>
{{if .EditURL}}<footer><a href="{{.EditURL}}">Edit this page</a></footer>{{end}}
{{if .LiveReload}}<script>new EventSource("/__livereload").onmessage=function(){location.reload()}</script>{{end}}
</body>
</html>
`

// Renderer turns markdown documents into standalone HTML pages using the
// descriptor's navigation and base path.
type Renderer struct {
	desc *config.Descriptor
	tmpl *html.Template
}

// RenderOptions adjust per-request rendering.
type RenderOptions struct {
	LiveReload bool
}

// NewRenderer compiles the page template for a descriptor.
func NewRenderer(desc *config.Descriptor) (*Renderer, error) {
	tmpl, err := html.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{desc: desc, tmpl: tmpl}, nil
}

// Href prefixes a route with the site base path.
func (r *Renderer) Href(route string) string {
	base := strings.TrimSuffix(r.desc.BasePath, "/")
	if base == "" {
		return route
	}
	return base + route
}

// RenderDocument renders one markdown document to a full HTML page.
func (r *Renderer) RenderDocument(tree *content.Tree, doc *content.Document, opts RenderOptions) ([]byte, error) {
	if err := doc.LoadContent(); err != nil {
		return nil, err
	}
	_, flags, body, err := doc.SplitFrontMatter()
	if err != nil {
		return nil, fmt.Errorf("front matter of %s: %w", doc.RelPath, err)
	}

	rendered, err := markdown.RenderHTML(body, r.routeRewriter(tree, doc))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", doc.RelPath, err)
	}

	title := flags.Title
	if title == "" {
		title = markdown.FirstHeading(body)
	}

	page := Page{
		Locale:      r.desc.Locale,
		SiteTitle:   r.desc.Title,
		Description: r.desc.Description,
		Title:       title,
		Nav:         r.navItems(tree, doc),
		ShowSidebar: flags.Sidebar,
		Body:        html.HTML(rendered),
		EditURL:     r.desc.EditURL(doc.RelPath),
		LiveReload:  opts.LiveReload,
	}
	if flags.Sidebar {
		page.Sidebar = r.sidebarItems(tree, doc)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("execute page template: %w", err)
	}
	return buf.Bytes(), nil
}

// routeRewriter maps markdown link destinations that point at other source
// documents to their published routes. Asset references and anything that
// does not resolve within the tree pass through unchanged.
func (r *Renderer) routeRewriter(tree *content.Tree, doc *content.Document) markdown.LinkRewriteFunc {
	return func(dest string) string {
		if dest == "" || strings.Contains(dest, "://") ||
			strings.HasPrefix(dest, "mailto:") || strings.HasPrefix(dest, "#") {
			return dest
		}

		path, fragment, _ := strings.Cut(dest, "#")
		if !strings.HasSuffix(path, ".md") {
			return dest
		}
		target := tree.Resolve(doc.RelPath, path)
		if target == nil {
			return dest
		}

		href := r.Href(target.Route())
		if fragment != "" {
			href += "#" + fragment
		}
		return href
	}
}

// navItems maps the descriptor's navigation entries to hrefs, marking the
// entry whose section contains the current document.
func (r *Renderer) navItems(tree *content.Tree, current *content.Document) []NavItem {
	items := make([]NavItem, 0, len(r.desc.Nav))
	for _, entry := range r.desc.Nav {
		href := entry.Link
		active := false
		if target := tree.Resolve("README.md", entry.Link); target != nil {
			href = r.Href(target.Route())
			active = current != nil && target.Section == current.Section && current.Section != ""
		}
		items = append(items, NavItem{Text: entry.Text, Href: href, Active: active})
	}
	return items
}

// sidebarItems lists the documents sharing the current document's section.
func (r *Renderer) sidebarItems(tree *content.Tree, current *content.Document) []NavItem {
	if current.Section == "" {
		return nil
	}

	var items []NavItem
	for _, doc := range tree.Documents() {
		if doc.Section != current.Section {
			continue
		}
		if _, flags, body, err := doc.SplitFrontMatter(); err == nil {
			text := flags.Title
			if text == "" {
				text = markdown.FirstHeading(body)
			}
			if text == "" {
				text = doc.Name
			}
			items = append(items, NavItem{
				Text:   text,
				Href:   r.Href(doc.Route()),
				Active: doc.RelPath == current.RelPath,
			})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Href < items[j].Href })
	return items
}
