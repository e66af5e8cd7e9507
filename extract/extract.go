// Package extract turns raw files into plain text by file extension.
// Extraction failures for non-critical formats yield empty text rather than
// a hard error, so ingestion can still succeed with zero passages.
package extract

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Text extracts plain text from the file at path based on its extension.
// Plain text and markdown are read as-is, HTML is stripped to its text
// content. Unknown extensions are read as plain text.
func Text(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		text, err := HTMLText(string(raw))
		if err != nil {
			// Fall back to the raw markup rather than failing extraction
			return string(raw), nil
		}
		return text, nil
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

// HTMLText strips markup from an HTML document, returning the visible text
// with newlines between block elements. Script and style contents are dropped.
func HTMLText(markup string) (string, error) {
	node, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if builder.Len() > 0 {
					builder.WriteString("\n")
				}
				builder.WriteString(text)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)

	return builder.String(), nil
}
