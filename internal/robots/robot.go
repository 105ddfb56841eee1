package robots

import (
	"net/url"
	"strings"
	"time"
)

/*
Responsibilities

- Evaluate allow/disallow rules for a URL against a host's robots.txt
- Bias toward allow whenever the rules are absent, unparseable, or could
  not be matched against the crawler's user agent

Robots checks occur after a URL is taken from the frontier, before it is
fetched.
*/

// Rules is the crawler-facing evaluator for a single host's robots.txt
// grants. It answers allow/disallow per URL using the user-agent group that
// best matches the crawler's configured user agent.
type Rules struct {
	set ruleSet
}

// Build pairs a parsed robots.txt response with the crawling user agent,
// producing an immutable Rules value.
func Build(response RobotsResponse, userAgent string, fetchedAt time.Time) Rules {
	return Rules{set: MapResponseToRuleSet(response, userAgent, fetchedAt)}
}

// Permissive returns a Rules value that allows every path. It is used when
// no robots.txt body is available, the body is unparseable, or the robots
// subsystem could not be reached — biasing toward liveness rather than
// blocking the crawl on an absent policy.
func Permissive(host, userAgent string) Rules {
	return Rules{set: ruleSet{
		host:      host,
		userAgent: userAgent,
		sourceURL: "https://" + host + "/robots.txt",
	}}
}

// Allows reports whether target may be fetched under these rules. Any
// internal evaluation error is swallowed and treated as allow: the caller
// (crawl manager) uses this only as a pre-fetch gate, not a correctness
// proof.
func (r Rules) Allows(target url.URL) bool {
	return r.Evaluate(target).Allowed
}

// Evaluate runs the full robots-exclusion decision for target and reports
// why the decision was reached.
func (r Rules) Evaluate(target url.URL) Decision {
	crawlDelay := r.set.CrawlDelay()

	if !r.set.hasGroups {
		return Decision{Url: target, Allowed: true, Reason: EmptyRuleSet, CrawlDelay: crawlDelay}
	}
	if !r.set.matchedGroup {
		return Decision{Url: target, Allowed: true, Reason: UserAgentNotMatched, CrawlDelay: crawlDelay}
	}

	path := requestPath(target)

	allowMatched, allowLen := bestMatch(r.set.allowRules, path)
	disallowMatched, disallowLen := bestMatch(r.set.disallowRules, path)

	switch {
	case !allowMatched && !disallowMatched:
		return Decision{Url: target, Allowed: true, Reason: NoMatchingRules, CrawlDelay: crawlDelay}
	case allowMatched && (!disallowMatched || allowLen >= disallowLen):
		// Ties between an allow and a disallow rule of equal specificity
		// resolve in favor of allow.
		return Decision{Url: target, Allowed: true, Reason: AllowedByRobots, CrawlDelay: crawlDelay}
	default:
		return Decision{Url: target, Allowed: false, Reason: DisallowedByRobots, CrawlDelay: crawlDelay}
	}
}

func requestPath(target url.URL) string {
	path := target.Path
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return path
}

// bestMatch reports whether any rule matches path, and the length of the
// longest matching pattern — the tie-breaker between competing allow and
// disallow rules.
func bestMatch(rules []pathRule, path string) (matched bool, length int) {
	for _, rule := range rules {
		if !matchesPath(rule.prefix, path) {
			continue
		}
		matched = true
		if len(rule.prefix) > length {
			length = len(rule.prefix)
		}
	}
	return matched, length
}

// matchesPath reports whether a robots.txt path pattern matches path. The
// pattern may contain "*" wildcards, matching any sequence of characters
// including none, and may end in "$" to anchor the match to the end of
// path.
func matchesPath(pattern, path string) bool {
	anchored := strings.HasSuffix(pattern, "$")
	if anchored {
		pattern = strings.TrimSuffix(pattern, "$")
	}

	segments := strings.Split(pattern, "*")

	pos := 0
	for i, segment := range segments {
		if segment == "" {
			continue
		}
		idx := strings.Index(path[pos:], segment)
		if idx == -1 {
			return false
		}
		if i == 0 && idx != 0 {
			// The first literal segment must match at the very start: a
			// robots.txt pattern is always a prefix match unless preceded
			// by a wildcard.
			return false
		}
		pos += idx + len(segment)
	}

	if anchored && pos != len(path) {
		return false
	}
	return true
}
