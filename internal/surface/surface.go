// Package surface is an in-memory rendering surface built on the
// golang.org/x/net/html node tree. Markup inserted into an element is parsed
// as a fragment in that element's context, so content the HTML parser would
// drop in a real browser is dropped here too.
package surface

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/chunkgrid/internal/chunkmodel"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document owns a root element and counts forced layouts.
type Document struct {
	root    *html.Node
	layouts int
}

// Element is a handle to one element node of a Document.
type Element struct {
	n   *html.Node
	doc *Document
}

// New creates a document whose root element is <tag class="class">.
func New(tag, class string) *Document {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	if class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
	return &Document{root: n}
}

// Root returns the attachment element.
func (d *Document) Root() *Element {
	return &Element{n: d.root, doc: d}
}

// Layouts returns how many elements have been forced through layout.
func (d *Document) Layouts() int {
	return d.layouts
}

// SetInnerMarkup replaces the element's children with the parsed markup.
func (e *Element) SetInnerMarkup(markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), e.n)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	for c := e.n.FirstChild; c != nil; {
		next := c.NextSibling
		e.n.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		e.n.AppendChild(c)
	}
	return nil
}

// Children returns the element children, skipping text and comments.
func (e *Element) Children() []chunkmodel.Node {
	var out []chunkmodel.Node
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, &Element{n: c, doc: e.doc})
		}
	}
	return out
}

// SetHeight writes height:<px>px into the style attribute, keeping other
// declarations.
func (e *Element) SetHeight(px int) {
	e.setStyle("height", fmt.Sprintf("%dpx", px))
}

// Style returns the value of one style declaration.
func (e *Element) Style(prop string) string {
	for _, d := range parseStyle(e.Attr("style")) {
		if d[0] == prop {
			return d[1]
		}
	}
	return ""
}

func (e *Element) setStyle(prop, value string) {
	decls := parseStyle(e.Attr("style"))
	found := false
	for i := range decls {
		if decls[i][0] == prop {
			decls[i][1] = value
			found = true
		}
	}
	if !found {
		decls = append(decls, [2]string{prop, value})
	}
	var b strings.Builder
	for _, d := range decls {
		b.WriteString(d[0] + ":" + d[1] + ";")
	}
	e.setAttr("style", b.String())
}

func parseStyle(s string) [][2]string {
	var out [][2]string
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		out = append(out, [2]string{strings.TrimSpace(k), strings.TrimSpace(v)})
	}
	return out
}

// AddClass appends class unless it is already present.
func (e *Element) AddClass(class string) {
	if class == "" || e.HasClass(class) {
		return
	}
	cur := strings.TrimSpace(e.Attr("class"))
	if cur != "" {
		cur += " "
	}
	e.setAttr("class", cur+class)
}

// HasClass reports whether class appears in the class attribute.
func (e *Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.Attr("class")) {
		if c == class {
			return true
		}
	}
	return false
}

// ComputeLayout stands in for reading a computed style: it forces the
// element through layout before class changes are made.
func (e *Element) ComputeLayout() {
	e.doc.layouts++
}

// Attr returns the value of an attribute, or "".
func (e *Element) Attr(key string) string {
	for _, a := range e.n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func (e *Element) setAttr(key, val string) {
	for i := range e.n.Attr {
		if e.n.Attr[i].Key == key {
			e.n.Attr[i].Val = val
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: key, Val: val})
}

// Tag returns the element name.
func (e *Element) Tag() string {
	return e.n.Data
}

// Text returns the concatenated, trimmed text content.
func (e *Element) Text() string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(e.n)
	return strings.TrimSpace(buf.String())
}

// Render writes the element and its subtree as HTML.
func (e *Element) Render(w io.Writer) error {
	return html.Render(w, e.n)
}

// OuterHTML renders the element to a string.
func (e *Element) OuterHTML() string {
	var buf bytes.Buffer
	if err := e.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// InnerHTML renders the element's children to a string.
func (e *Element) InnerHTML() string {
	var buf bytes.Buffer
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}
