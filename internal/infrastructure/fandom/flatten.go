package fandom

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

const contentClass = "mw-parser-output"

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"nav":      true,
	"footer":   true,
	"sup":      true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "tr": true, "td": true, "th": true, "caption": true,
	"blockquote": true, "pre": true, "figure": true, "figcaption": true,
	"br": true, "hr": true,
}

// Flatten parses an HTML document and returns its readable text, one block
// element per line. When the page has a MediaWiki content container only that
// subtree is used.
func Flatten(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", eris.Wrap(err, "parsing html")
	}

	root := findContent(doc)
	if root == nil {
		root = doc
	}

	var lines []string
	var current strings.Builder

	flush := func() {
		line := strings.Join(strings.Fields(current.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			current.WriteString(node.Data)
			current.WriteByte(' ')
			return
		case html.ElementNode:
			name := strings.ToLower(node.Data)
			if skippedElements[name] {
				return
			}
			block := blockElements[name]
			if block {
				flush()
			}
			for child := node.FirstChild; child != nil; child = child.NextSibling {
				walk(child)
			}
			if block {
				flush()
			}
			return
		case html.CommentNode, html.DoctypeNode:
			return
		}

		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	walk(root)
	flush()

	return strings.Join(lines, "\n"), nil
}

func findContent(node *html.Node) *html.Node {
	if node.Type == html.ElementNode && hasClass(node, contentClass) {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findContent(child); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(node *html.Node, class string) bool {
	for _, attr := range node.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, candidate := range strings.Fields(attr.Val) {
			if candidate == class {
				return true
			}
		}
	}
	return false
}
