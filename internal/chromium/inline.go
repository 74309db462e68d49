package chromium

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// inlineCritical puts criticalCSS in a <style> in the head, ahead of the
// first stylesheet link, and switches every stylesheet link to load without
// blocking render. Each deferred link gets a <noscript> fallback.
func inlineCritical(page []byte, criticalCSS string) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("error parsing page: %w", err)
	}

	head := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Head })
	if head == nil {
		return nil, fmt.Errorf("page has no head element")
	}

	style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: criticalCSS})

	links := findAll(doc, isStylesheetLink)
	if len(links) > 0 && links[0].Parent == head {
		head.InsertBefore(style, links[0])
	} else {
		head.AppendChild(style)
	}

	for _, link := range links {
		if err := deferLink(link); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("error rendering page: %w", err)
	}
	return buf.Bytes(), nil
}

func deferLink(link *html.Node) error {
	var original bytes.Buffer
	if err := html.Render(&original, link); err != nil {
		return fmt.Errorf("error rendering link: %w", err)
	}

	media := attr(link, "media")
	if media == "" || media == "print" {
		media = "all"
	}
	setAttr(link, "media", "print")
	setAttr(link, "onload", "this.media='"+media+"'")

	// noscript content is raw text to the renderer.
	noscript := &html.Node{Type: html.ElementNode, Data: "noscript", DataAtom: atom.Noscript}
	noscript.AppendChild(&html.Node{Type: html.TextNode, Data: original.String()})
	link.Parent.InsertBefore(noscript, link.NextSibling)
	return nil
}

func isStylesheetLink(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Link {
		return false
	}
	if attr(n, "href") == "" {
		return false
	}
	for _, rel := range strings.Fields(strings.ToLower(attr(n, "rel"))) {
		if rel == "stylesheet" {
			return true
		}
	}
	return false
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
