package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/sefreader/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLExporter writes a standalone page: a nested outline <nav> linking to
// each chapter, then the Markdown rendering of the story.
type HTMLExporter struct{}

func (HTMLExporter) ContentType() string { return "text/html; charset=utf-8" }
func (HTMLExporter) Extension() string   { return ".html" }

func (HTMLExporter) Export(w io.Writer, doc *Document) error {
	var src bytes.Buffer
	if err := (MarkdownExporter{Anchors: true}).Export(&src, doc); err != nil {
		return err
	}

	md := goldmark.New(goldmark.WithParserOptions(parser.WithAttribute()))
	var body bytes.Buffer
	if err := md.Convert(src.Bytes(), &body); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	mainEl := element(atom.Main)
	nodes, err := html.ParseFragment(&body, mainEl)
	if err != nil {
		return fmt.Errorf("parse rendered body: %w", err)
	}
	for _, n := range nodes {
		mainEl.AppendChild(n)
	}

	page := &html.Node{Type: html.DocumentNode}
	page.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, html.Attribute{Key: "lang", Val: "ja"})
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	title := element(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: doc.Title})
	head.AppendChild(title)

	bodyEl := element(atom.Body)
	bodyEl.AppendChild(outlineNav(doc.Tree))
	bodyEl.AppendChild(mainEl)

	root.AppendChild(head)
	root.AppendChild(bodyEl)
	page.AppendChild(root)

	return html.Render(w, page)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

// outlineNav mirrors the tree as nested lists of in-page links.
func outlineNav(tree *doctree.DocTree) *html.Node {
	nav := element(atom.Nav, html.Attribute{Key: "class", Val: "outline"})
	nav.AppendChild(outlineList(tree.Children))
	return nav
}

func outlineList(nodes []*doctree.DocNode) *html.Node {
	ul := element(atom.Ul)
	for _, n := range nodes {
		li := element(atom.Li)
		a := element(atom.A, html.Attribute{Key: "href", Val: "#" + anchorID(n.Chapter)})
		if n.Placeholder {
			a.Attr = append(a.Attr, html.Attribute{Key: "class", Val: "missing"})
		}
		a.AppendChild(&html.Node{Type: html.TextNode, Data: n.Title})
		li.AppendChild(a)
		if len(n.Children) > 0 {
			li.AppendChild(outlineList(n.Children))
		}
		ul.AppendChild(li)
	}
	return ul
}
