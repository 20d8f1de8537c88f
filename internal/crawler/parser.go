package crawler

import (
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/pdfharvest/internal/model"
)

// Parser extracts document entries and the next-page link from a listing page.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL

	// pdfPattern selects anchors that point at press-release PDFs.
	pdfPattern *regexp.Regexp

	// nextLabels are lowercased anchor texts that mark the next listing page.
	nextLabels map[string]bool

	// category is stored on every document record.
	category string
}

// ParseResult contains everything extracted from one listing page.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Documents are the PDF entries in document order.
	Documents []model.DocumentRecord

	// NextURL is the absolute URL of the first next-page anchor, or empty.
	NextURL string
}

// NewParser creates a Parser for a page fetched from baseURL.
func NewParser(baseURL string, pdfPattern *regexp.Regexp, nextLabels []string, category string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	labels := make(map[string]bool, len(nextLabels))
	for _, l := range nextLabels {
		labels[normalizeLabel(l)] = true
	}

	return &Parser{
		baseURL:    u,
		pdfPattern: pdfPattern,
		nextLabels: labels,
		category:   category,
	}, nil
}

// Parse parses HTML content and extracts document records and pagination.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Documents: make([]model.DocumentRecord, 0),
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link := p.resolveURL(strings.TrimSpace(href))
		if link == "" {
			return
		}

		if p.pdfPattern.MatchString(link) {
			result.Documents = append(result.Documents, p.documentFor(a, link))
			return
		}

		if result.NextURL == "" && p.nextLabels[normalizeLabel(a.Text())] {
			result.NextURL = link
		}
	})

	return result, nil
}

// documentFor builds the record of one PDF anchor.
func (p *Parser) documentFor(a *goquery.Selection, link string) model.DocumentRecord {
	title := collapseSpace(a.Text())
	if title == "" {
		title = fileNameOf(link)
	}

	var date *string
	if parent := a.Parent(); parent.Length() > 0 {
		date = ParseDate(blockText(parent.Nodes[0]))
	}

	rec := model.DocumentRecord{
		URL:           link,
		ListingURL:    p.baseURL.String(),
		Title:         model.Ptr(title),
		DatePublished: date,
		FileLinks:     []string{link},
	}
	if p.category != "" {
		rec.Category = model.Ptr(p.category)
	}
	return rec
}

// resolveURL resolves a href against the base URL.
// Only http and https links are returned; fragments are dropped.
func (p *Parser) resolveURL(href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// blockText returns the text of n with each non-blank text node trimmed and
// joined by a single space.
func blockText(n *html.Node) string {
	parts := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(parts, " ")
}

// fileNameOf returns the unescaped last path segment of a URL.
func fileNameOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	name := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}

// collapseSpace trims s and collapses inner whitespace runs to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeLabel prepares anchor text for next-label comparison.
func normalizeLabel(s string) string {
	return strings.ToLower(collapseSpace(s))
}
