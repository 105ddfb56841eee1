package htmlparse

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/seo-crawler/internal/metadata"
	"github.com/rohmanhakim/seo-crawler/pkg/failure"
	"github.com/rohmanhakim/seo-crawler/pkg/urlutil"
)

/*
Responsibilities
- Parse a fetched HTML body into the SEO signals the crawl manager needs
- Gate on content type: only text/html and application/xhtml+xml are parsed
- Tolerate malformed markup; never raise across the worker boundary

goquery (backed by golang.org/x/net/html) already ignores the contents of
HTML comments and recovers from unbalanced tags, so this package does not
need its own leniency layer — it only has to decide what to look for.
*/

type Parser struct {
	metadataSink metadata.MetadataSink
}

func NewParser(metadataSink metadata.MetadataSink) Parser {
	return Parser{metadataSink: metadataSink}
}

// Parse extracts title, meta description, canonical, headings, links, and
// images from body. pageURL is the URL the body was fetched from (used to
// resolve relative hrefs); baseURL is the crawl's seed URL (used for the
// internal/external link split). contentType is the response's
// Content-Type header value, gated before any parsing is attempted.
func (p Parser) Parse(pageURL, baseURL url.URL, contentType string, body []byte) (ParsedPage, failure.ClassifiedError) {
	if !isParseableContentType(contentType) {
		err := &ParseError{
			Message:   "skipping parse: content type " + contentType + " is not HTML",
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
		p.recordError(pageURL, err)
		return ParsedPage{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		parseErr := &ParseError{
			Message:   "failed to parse document: " + err.Error(),
			Retryable: false,
			Cause:     ErrCauseMalformed,
		}
		p.recordError(pageURL, parseErr)
		return ParsedPage{}, parseErr
	}

	page := ParsedPage{
		Title:           extractTitle(doc),
		MetaDescription: extractMetaDescription(doc),
		Canonical:       extractCanonical(doc, pageURL),
		Headings:        extractHeadings(doc),
		Images:          extractImages(doc),
	}
	page.InternalLinks, page.ExternalLinks = extractLinks(doc, pageURL, baseURL)

	return page, nil
}

func (p Parser) recordError(pageURL url.URL, err *ParseError) {
	if p.metadataSink == nil {
		return
	}
	p.metadataSink.RecordError(
		time.Now(),
		"htmlparse",
		"Parser.Parse",
		mapParseErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, pageURL.String())},
	)
}

func isParseableContentType(contentType string) bool {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if base == "" {
		// Absent Content-Type: best-effort parse rather than discard.
		return true
	}
	return base == "text/html" || base == "application/xhtml+xml"
}

func extractTitle(doc *goquery.Document) string {
	title := ""
	doc.Find("title").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}
		title = text
		return false
	})
	return title
}

func extractMetaDescription(doc *goquery.Document) string {
	description := ""
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, ok := s.Attr("name")
		if !ok || !strings.EqualFold(name, "description") {
			return true
		}
		content, _ := s.Attr("content")
		description = content
		return false
	})
	return description
}

func extractCanonical(doc *goquery.Document, pageURL url.URL) *url.URL {
	var canonical *url.URL
	doc.Find("link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, ok := s.Attr("rel")
		if !ok || !strings.EqualFold(rel, "canonical") {
			return true
		}
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return true
		}
		resolved, err := urlutil.Normalize(&pageURL, href)
		if err != nil {
			return true
		}
		parsed, err := url.Parse(resolved)
		if err != nil {
			return true
		}
		canonical = parsed
		return false
	})
	return canonical
}

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

func extractHeadings(doc *goquery.Document) []Heading {
	var headings []Heading
	doc.Find(strings.Join(headingTags, ",")).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		tag := goquery.NodeName(s)
		headings = append(headings, Heading{Tag: strings.ToLower(tag), Text: text})
	})
	return headings
}

func extractLinks(doc *goquery.Document, pageURL, baseURL url.URL) (internal, external []url.URL) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		resolved, err := urlutil.Normalize(&pageURL, href)
		if err != nil {
			return
		}
		parsed, err := url.Parse(resolved)
		if err != nil {
			return
		}
		if urlutil.SameHost(parsed, &baseURL) {
			internal = append(internal, *parsed)
		} else {
			external = append(external, *parsed)
		}
	})
	return internal, external
}

func extractImages(doc *goquery.Document) []string {
	var images []string
	doc.Find("img[alt]").Each(func(_ int, s *goquery.Selection) {
		alt, ok := s.Attr("alt")
		if !ok || alt == "" {
			return
		}
		images = append(images, alt)
	})
	return images
}
