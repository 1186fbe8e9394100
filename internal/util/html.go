package util

import (
	"bytes"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Tags whose content is never part of the text to classify.
var ignoredTags = map[string]bool{
	"script": true, "style": true, "head": true, "nav": true,
	"footer": true, "aside": true, "form": true, "noscript": true,
}

// IsHTMLFile reports whether path has an HTML extension.
func IsHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// HTMLToText extracts the visible text of an HTML document, one line per block element.
func HTMLToText(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", err
	}
	var lines []string
	for _, line := range strings.Split(extractText(root), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func extractText(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return strings.ReplaceAll(n.Data, "\u00A0", " ")
	case html.ElementNode:
		if ignoredTags[n.Data] {
			return ""
		}
	case html.DocumentNode:
	default:
		return ""
	}

	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		buf.WriteString(extractText(c))
		if c.NextSibling != nil {
			if isBlockElement(c) || isBlockElement(c.NextSibling) {
				buf.WriteString("\n")
			} else {
				buf.WriteString(" ")
			}
		}
	}
	return buf.String()
}

func isBlockElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "address", "article", "blockquote", "body", "dd", "div", "dl", "dt", "figcaption", "figure",
		"h1", "h2", "h3", "h4", "h5", "h6", "header", "hr", "li", "main", "ol", "p", "pre", "section",
		"table", "tr", "ul", "br":
		return true
	default:
		return false
	}
}
