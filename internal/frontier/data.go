package frontier

/*
 Frontier - manages crawl state & ordering
*/

import (
	"net/url"
	"time"
)

// CrawlToken
// Frontier-issued, per-URL crawl Token
// It represents: "This URL, at this depth, in this deterministic order, is next"
// It contains no semantic policy decisions.
// It represents ordering + depth metadata only.
type CrawlToken struct {
	url       url.URL
	depth     int
	sourceURL *url.URL
}

// NewCrawlToken creates a new CrawlToken with the given URL and depth.
// This constructor is provided for testing and internal use.
func NewCrawlToken(u url.URL, depth int) CrawlToken {
	return CrawlToken{
		url:   u,
		depth: depth,
	}
}

// NewCrawlTokenWithSource creates a CrawlToken that remembers the URL it was
// discovered from, so the caller can record an edge once the token is taken
// off the frontier.
func NewCrawlTokenWithSource(u url.URL, depth int, sourceURL *url.URL) CrawlToken {
	return CrawlToken{
		url:       u,
		depth:     depth,
		sourceURL: sourceURL,
	}
}

func (c *CrawlToken) URL() url.URL {
	return c.url
}

func (c *CrawlToken) Depth() int {
	return c.depth
}

// SourceURL returns the URL this token was discovered from, or nil for a
// seed URL with no originating page.
func (c *CrawlToken) SourceURL() *url.URL {
	return c.sourceURL
}

// CrawlAdmissionCandidate represents a URL submitted to the frontier by
// the crawl manager.
//
// Invariants:
// - Scheme and same-host filtering have been applied by the caller
// - Robots.txt and depth checks have NOT run yet (applied after Take)
// - Frontier MUST treat this as an admitted URL
// - Frontier MUST NOT re-evaluate admission semantics
type CrawlAdmissionCandidate struct {
	// frontier MUST assume this URL is already admitted.
	targetURL url.URL

	// is it seed url or discovered during crawling?
	sourceContext SourceContext

	// the page this candidate was discovered on; nil for seed URLs.
	sourceURL *url.URL

	// additional information about the URL
	discoveryMetadata DiscoveryMetadata
}

func NewCrawlAdmissionCandidate(
	targetUrl url.URL,
	sourceContext SourceContext,
	discoveryMetadata DiscoveryMetadata,
) CrawlAdmissionCandidate {
	return CrawlAdmissionCandidate{
		targetURL:         targetUrl,
		sourceContext:     sourceContext,
		discoveryMetadata: discoveryMetadata,
	}
}

// NewDiscoveredCandidate builds a candidate for a link found while
// processing sourceURL, preserving it so the frontier can report the edge
// once the candidate is taken.
func NewDiscoveredCandidate(
	targetUrl url.URL,
	sourceURL url.URL,
	discoveryMetadata DiscoveryMetadata,
) CrawlAdmissionCandidate {
	src := sourceURL
	return CrawlAdmissionCandidate{
		targetURL:         targetUrl,
		sourceContext:     SourceCrawl,
		sourceURL:         &src,
		discoveryMetadata: discoveryMetadata,
	}
}

func (c *CrawlAdmissionCandidate) TargetURL() url.URL {
	return c.targetURL
}

func (c *CrawlAdmissionCandidate) SourceContext() SourceContext {
	return c.sourceContext
}

func (c *CrawlAdmissionCandidate) SourceURL() *url.URL {
	return c.sourceURL
}

func (c *CrawlAdmissionCandidate) DiscoveryMetadata() DiscoveryMetadata {
	return c.discoveryMetadata
}

type SourceContext string

const (
	SourceSeed  = "Seed"
	SourceCrawl = "Crawl"
)

type DiscoveryMetadata struct {
	// the number of link hops from the seed: seed and sitemap URLs have
	// depth 0, a link found on a page has that page's depth + 1
	// TODO: implement delay overriding in both scheduler and frontier
	depth         int
	delayOverride *time.Duration
}

func NewDiscoveryMetadata(
	depth int,
	delayOverride *time.Duration,
) DiscoveryMetadata {
	return DiscoveryMetadata{
		depth:         depth,
		delayOverride: delayOverride,
	}
}

func (d DiscoveryMetadata) Depth() int {
	return d.depth
}

func (d DiscoveryMetadata) DelayOverride() *time.Duration {
	return d.delayOverride
}
