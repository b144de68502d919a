package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Extraction limits keep responses bounded on large pages.
const (
	maxContentText = 5000
	maxLinks       = 20
	maxImages      = 10
)

// ExtractContent parses raw page HTML and digests it into visible text,
// links, and images. Script, style, and other non-content elements are
// skipped.
func ExtractContent(rawHTML, title, url string) (*PageContent, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	content := &PageContent{Title: title, URL: url}
	var text strings.Builder
	collect(doc, &text, content)

	content.Text = strings.TrimSpace(text.String())
	if len(content.Text) > maxContentText {
		content.Text = content.Text[:maxContentText]
	}
	return content, nil
}

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"iframe":   true,
	"svg":      true,
}

func collect(n *html.Node, text *strings.Builder, content *PageContent) {
	switch n.Type {
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		switch n.Data {
		case "a":
			if href := attr(n, "href"); href != "" && len(content.Links) < maxLinks {
				content.Links = append(content.Links, Link{
					Text: strings.TrimSpace(nodeText(n)),
					Href: href,
				})
			}
		case "img":
			if src := attr(n, "src"); src != "" && len(content.Images) < maxImages {
				content.Images = append(content.Images, Image{
					Alt: attr(n, "alt"),
					Src: src,
				})
			}
		}
	case html.TextNode:
		if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
			if text.Len() > 0 {
				text.WriteByte(' ')
			}
			text.WriteString(trimmed)
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collect(child, text, content)
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
