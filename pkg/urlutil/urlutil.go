// Package urlutil provides the URL resolution, canonicalization, and
// same-host comparison primitives shared by the HTML parser, the sitemap
// parser, and the crawl manager.
package urlutil

import "net/url"

// Normalize resolves link against base using standard relative-URL
// resolution and drops any fragment, returning an absolute URL string with
// an empty fragment component. Relative links ("./x", "../x"),
// protocol-relative links ("//host/x"), and fragment-only links ("#frag")
// are all handled by the underlying net/url resolver; a fragment-only link
// resolves to base itself.
func Normalize(base *url.URL, link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", err
	}

	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""

	return resolved.String(), nil
}

// Canonicalize applies a deterministic normalization to a URL, producing a
// canonical form for deduplication and frontier bookkeeping.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Scheme is forced to "http" if it is anything other than http/https
//   - An empty path defaults to "/"
//   - Query parameters are preserved; an empty trailing "?" is dropped
//   - Fragments and userinfo are dropped
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: Canonicalize(Canonicalize(url)) == Canonicalize(url)
//   - Context-free: does not depend on crawl history
func Canonicalize(sourceUrl url.URL) url.URL {
	// Create a copy to avoid mutating the original
	canonical := sourceUrl

	canonical.Scheme = lowerASCII(canonical.Scheme)
	if canonical.Scheme != "http" && canonical.Scheme != "https" {
		canonical.Scheme = "http"
	}

	canonical.Host = lowerASCII(canonical.Host)

	if canonical.Path == "" {
		canonical.Path = "/"
	}

	// Drop fragment and userinfo; query is intentionally preserved.
	// A bare "?" with no query carries no parameters and is dropped.
	canonical.Fragment = ""
	canonical.RawFragment = ""
	canonical.User = nil
	canonical.ForceQuery = false

	return canonical
}

// SameHost reports whether urlA and urlB share the same authority
// (host plus optional port), compared case-sensitively with no suffix or
// subdomain collapsing.
func SameHost(urlA, urlB *url.URL) bool {
	return urlA.Host == urlB.Host
}

// AllowedScheme reports whether u has a scheme the crawler is willing to
// fetch: "http", "https", or empty (an empty scheme covers already-resolved
// same-document references).
func AllowedScheme(u *url.URL) bool {
	switch u.Scheme {
	case "", "http", "https":
		return true
	default:
		return false
	}
}

// lowerASCII converts ASCII characters to lowercase without allocating.
// This is faster than strings.ToLower for ASCII-only strings.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path, leaving a
// single "/" for a root path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
