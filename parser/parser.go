package parser

import (
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// ParsedPage is the readable content of one scraped page.
type ParsedPage struct {
	Title    string
	Text     string
	TopImage string
}

// ParsePage extracts readable text from a scraped HTML page. Readability is
// the primary extractor; trafilatura handles pages readability cannot make
// sense of.
func ParsePage(htmlStr string) (*ParsedPage, error) {
	if page, err := parseWithReadability(htmlStr); err == nil && len(page.Text) > 0 {
		return page, nil
	}
	return parseWithTrafilatura(htmlStr)
}

func parseWithReadability(htmlStr string) (*ParsedPage, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return nil, err
	}

	article, err := readability.FromDocument(doc, nil)
	if err != nil {
		return nil, err
	}
	return &ParsedPage{
		Title:    article.Title,
		Text:     strings.TrimSpace(article.TextContent),
		TopImage: article.Image,
	}, nil
}

func parseWithTrafilatura(htmlStr string) (*ParsedPage, error) {
	opts := trafilatura.Options{
		IncludeImages: true,
	}

	article, err := trafilatura.Extract(strings.NewReader(htmlStr), opts)
	if err != nil {
		return nil, err
	}

	page := &ParsedPage{
		Text: strings.TrimSpace(article.ContentText),
	}
	if article.Metadata.Title != "" {
		page.Title = article.Metadata.Title
	}
	if article.Metadata.Image != "" {
		page.TopImage = article.Metadata.Image
	}
	return page, nil
}

// VisibleText flattens every text node of an HTML document, one line per
// node. Used for pages that are plain listings rather than articles.
func VisibleText(htmlStr string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String(), nil
}
