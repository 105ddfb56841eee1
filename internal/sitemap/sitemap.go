package sitemap

import (
	"encoding/xml"
	"net/url"

	"github.com/rohmanhakim/seo-crawler/pkg/urlutil"
)

/*
Responsibilities
- Parse a sitemap.xml body into candidate URLs
- Tolerate malformed or unexpected XML without raising to the caller

A document is either a urlset (a list of page URLs) or a sitemapindex (a
list of further sitemap URLs). Both are flattened into the same result:
this package does not recursively fetch nested sitemap indexes, so
sitemapindex entries come back indistinguishable from urlset entries. The
crawl manager enqueues whatever ParseSitemap returns as ordinary page
candidates.
*/

type locEntry struct {
	Loc string `xml:"loc"`
}

type urlSet struct {
	Entries []locEntry `xml:"url"`
}

type sitemapIndex struct {
	Entries []locEntry `xml:"sitemap"`
}

// ParseSitemap extracts every <loc> from a urlset or sitemapindex document,
// resolved against base. Malformed XML, or XML that is neither shape,
// yields an empty slice rather than an error.
func ParseSitemap(base url.URL, body []byte) []url.URL {
	var set urlSet
	if err := xml.Unmarshal(body, &set); err == nil && len(set.Entries) > 0 {
		return resolveEntries(base, set.Entries)
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Entries) > 0 {
		return resolveEntries(base, index.Entries)
	}

	return nil
}

func resolveEntries(base url.URL, entries []locEntry) []url.URL {
	urls := make([]url.URL, 0, len(entries))
	for _, entry := range entries {
		if entry.Loc == "" {
			continue
		}
		resolved, err := urlutil.Normalize(&base, entry.Loc)
		if err != nil {
			continue
		}
		parsed, err := url.Parse(resolved)
		if err != nil {
			continue
		}
		urls = append(urls, *parsed)
	}
	return urls
}
