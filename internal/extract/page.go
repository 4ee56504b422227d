// Package extract turns fetched HTML into the page content used for claim extraction.
package extract

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/ppiankov/satyamitra/internal/model"
)

const (
	// DefaultMaxText bounds the paragraph text kept per page
	DefaultMaxText = 5000

	// DefaultMaxImages bounds the image URLs kept per page
	DefaultMaxImages = 3

	noTitle = "No Title"
)

// PageExtractor extracts title, paragraph text and content images from HTML
type PageExtractor struct {
	maxText   int
	maxImages int
}

// NewPageExtractor creates an extractor; non-positive limits use the defaults
func NewPageExtractor(maxText, maxImages int) *PageExtractor {
	if maxText <= 0 {
		maxText = DefaultMaxText
	}
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	return &PageExtractor{maxText: maxText, maxImages: maxImages}
}

// Extract parses htmlContent fetched from pageURL
func (e *PageExtractor) Extract(htmlContent, pageURL string) (*model.Page, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	page := &model.Page{URL: pageURL}
	var paragraphs []string
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "title":
				if page.Title == "" {
					page.Title = visibleText(n)
				}
				return
			case "p":
				if text := visibleText(n); text != "" {
					paragraphs = append(paragraphs, text)
				}
				// images inside paragraphs still count
			case "img":
				if len(page.Images) < e.maxImages {
					if src := contentImage(base, attr(n, "src")); src != "" && !seen[src] {
						seen[src] = true
						page.Images = append(page.Images, src)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if page.Title == "" {
		page.Title = noTitle
	}
	page.Text = truncateRunes(strings.Join(paragraphs, " "), e.maxText)
	return page, nil
}

// visibleText returns the whitespace-collapsed text under n, skipping scripts and styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(buf.String()), " ")
}

// contentImage resolves src and drops icons and vector art
func contentImage(base *url.URL, src string) string {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}

	resolved := resolveURL(base, src)
	if resolved == "" {
		return ""
	}

	lower := strings.ToLower(resolved)
	if strings.Contains(lower, "icon") {
		return ""
	}
	path := lower
	if u, err := url.Parse(lower); err == nil {
		path = u.Path
	}
	if strings.HasSuffix(path, ".svg") || strings.HasSuffix(path, ".ico") {
		return ""
	}
	return resolved
}

// resolveURL resolves a relative reference against base, keeping only http(s)
func resolveURL(base *url.URL, href string) string {
	if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
