package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Document is a simplified representation of a fetched page.
type Document struct {
	Title string
	// Blocks holds the normalized text of each paragraph-level element
	// (paragraphs, list items, headings, table cells, definitions) in
	// document order. Empty blocks are dropped.
	Blocks []string
}

var blockTags = map[string]bool{
	"p": true, "li": true, "dd": true, "dt": true, "td": true, "th": true,
	"blockquote": true, "figcaption": true, "caption": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// FromHTML extracts readable text blocks from HTML, preferring <main> or
// <article> and falling back to <body>. Script, navigation and cookie
// banners are skipped.
func FromHTML(input []byte) Document {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return Document{}
	}

	doc := Document{Title: collapseSpaces(strings.TrimSpace(findTitle(node)))}
	content := findFirst(node, "main")
	if content == nil {
		content = findFirst(node, "article")
	}
	if content == nil {
		content = findFirst(node, "body")
	}
	if content == nil {
		return doc
	}
	collectBlocks(&doc.Blocks, content)
	return doc
}

func findTitle(n *html.Node) string {
	head := findFirst(n, "head")
	if head == nil {
		return ""
	}
	t := findFirst(head, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

func findFirst(n *html.Node, tag string) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != nil {
				return
			}
		}
	}
	dfs(n)
	return res
}

func skipped(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch strings.ToLower(n.Data) {
	case "script", "style", "noscript", "nav", "footer", "iframe", "template":
		return true
	}
	return isBoilerplateContainer(n)
}

// collectBlocks appends the text of innermost block elements. A block that
// contains further blocks (a list item wrapping paragraphs) is descended
// into rather than emitted whole, so no text is reported twice.
func collectBlocks(out *[]string, n *html.Node) {
	if skipped(n) {
		return
	}
	if n.Type == html.ElementNode && blockTags[strings.ToLower(n.Data)] && !hasBlockDescendant(n) {
		var b strings.Builder
		collectText(&b, n)
		if s := collapseSpaces(strings.TrimSpace(b.String())); s != "" {
			*out = append(*out, s)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectBlocks(out, c)
	}
}

func hasBlockDescendant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (blockTags[strings.ToLower(c.Data)] || hasBlockDescendant(c)) {
			return true
		}
	}
	return false
}

func collectText(b *strings.Builder, n *html.Node) {
	if skipped(n) {
		return
	}
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		if strings.EqualFold(n.Data, "br") {
			b.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// isBoilerplateContainer returns true if the element looks like a cookie/consent banner.
func isBoilerplateContainer(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && !strings.HasPrefix(key, "data-") && key != "aria-label" && key != "role" {
			continue
		}
		val := strings.ToLower(attr.Val)
		if containsAny(val, []string{"cookie", "consent", "gdpr"}) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\u00a0' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
