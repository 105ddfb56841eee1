package crawl

import (
	"net/url"
	"time"

	"github.com/rohmanhakim/seo-crawler/internal/htmlparse"
)

// PageData is the per-URL record emitted exactly once for every URL that
// leaves the frontier and is not short-circuited by robots or depth.
type PageData struct {
	URL             string
	Status          *int
	Title           string
	MetaDescription string
	Canonical       string
	Headings        []htmlparse.Heading
	InternalLinks   []string
	ExternalLinks   []string
	H1Count         int
	ContentHash     string
	ResponseTime    time.Duration
	RedirectTarget  string
	Error           string
}

// Edge is a (source, target) hyperlink relationship recorded when a URL is
// dequeued with a non-empty source, regardless of later fetch outcome.
type Edge struct {
	Source string
	Target string
}

// CrawlResult is the terminal snapshot of one Crawl call.
type CrawlResult struct {
	Pages []PageData
	Edges []Edge

	// DuplicateMap maps a content digest to every URL whose response body
	// produced it, restricted to digests shared by at least two URLs.
	DuplicateMap map[string][]string

	// BrokenLinks is the subset of Pages whose Status is >= 400.
	BrokenLinks []PageData
}

// ProgressCallback is invoked from a worker goroutine exactly once per
// emitted PageData. Implementations are responsible for their own
// synchronization if they touch shared state.
type ProgressCallback func(PageData)

func urlsToStrings(urls []url.URL) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		out = append(out, u.String())
	}
	return out
}
