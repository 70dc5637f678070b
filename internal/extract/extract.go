// Package extract turns fetched HTML into visible text and, when no model
// is available, into a best-effort call record read from page metadata.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is a parsed HTML document together with its visible text.
type Page struct {
	Doc  *goquery.Document
	Text string
}

// Parse builds a Page from UTF-8 HTML. The html parser recovers from almost
// any malformed markup, so errors are rare and mostly come from the reader.
func Parse(input []byte) (*Page, error) {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{Doc: goquery.NewDocumentFromNode(root), Text: VisibleText(root)}, nil
}

// VisibleText returns every text node outside script, style, noscript and
// template elements, each trimmed, joined by single spaces.
func VisibleText(n *html.Node) string {
	var parts []string
	collectText(n, &parts)
	return strings.Join(parts, " ")
}

func collectText(n *html.Node, parts *[]string) {
	if n == nil {
		return
	}
	switch n.Type {
	case html.ElementNode:
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "template":
			return
		}
	case html.TextNode:
		if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
			*parts = append(*parts, t)
		}
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
