package htmlparse

import "net/url"

// Heading is a single heading element in document order.
type Heading struct {
	Tag  string
	Text string
}

// ParsedPage holds every SEO signal extracted from one HTML document in a
// single pass.
type ParsedPage struct {
	Title           string
	MetaDescription string
	Canonical       *url.URL
	Headings        []Heading
	InternalLinks   []url.URL
	ExternalLinks   []url.URL
	Images          []string
}

// H1Count returns the number of h1 headings found, a derived field the
// crawl manager copies onto PageData.
func (p ParsedPage) H1Count() int {
	count := 0
	for _, h := range p.Headings {
		if h.Tag == "h1" {
			count++
		}
	}
	return count
}
