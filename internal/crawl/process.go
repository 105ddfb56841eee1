package crawl

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rohmanhakim/seo-crawler/internal/fetcher"
	"github.com/rohmanhakim/seo-crawler/internal/frontier"
	"github.com/rohmanhakim/seo-crawler/internal/robots"
	"github.com/rohmanhakim/seo-crawler/pkg/failure"
	"github.com/rohmanhakim/seo-crawler/pkg/hashutil"
	"github.com/rohmanhakim/seo-crawler/pkg/retry"
	"github.com/rohmanhakim/seo-crawler/pkg/timeutil"
	"github.com/rohmanhakim/seo-crawler/pkg/urlutil"
)

// processToken runs the admission order for one dequeued token: robots
// check, depth check, edge append, concurrency permit, fetch, hash/dedupe,
// HTML-gate, parse, PageData emission, progress callback, and enqueue of
// qualifying internal links. The frontier has already checked and marked
// visited at Take time.
func (m *Manager) processToken(
	ctx context.Context,
	base url.URL,
	rules robots.Rules,
	state *crawlState,
	token frontier.CrawlToken,
	semaphore chan struct{},
) {
	target := token.URL()

	if !rules.Allows(target) {
		return
	}
	if token.Depth() > m.cfg.MaxDepth() {
		return
	}
	if source := token.SourceURL(); source != nil {
		state.addEdge(source.String(), target.String())
	}

	select {
	case semaphore <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-semaphore }()

	if m.rateLimiter != nil {
		if delay := m.rateLimiter.ResolveDelay(target.Host); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}

	page, enqueueLinks := m.fetchAndBuildPage(ctx, base, target, token.Depth())

	if m.rateLimiter != nil {
		m.rateLimiter.MarkLastFetchAsNow(target.Host)
	}

	state.addPage(page)

	if m.progress != nil {
		m.progress(page)
	}

	for _, link := range enqueueLinks {
		meta := frontier.NewDiscoveryMetadata(token.Depth()+1, nil)
		state.frontier.Submit(frontier.NewDiscoveredCandidate(link, target, meta))
	}
}

// fetchAndBuildPage performs the fetch and, on a non-empty HTML body,
// parses it. It returns the emitted PageData and the internal links that
// qualify for enqueueing (same-host, already guaranteed by the parser's
// split; allowed-scheme filtered here).
func (m *Manager) fetchAndBuildPage(ctx context.Context, base, target url.URL, depth int) (PageData, []url.URL) {
	fetchParam := fetcher.NewFetchParam(target, m.cfg.UserAgent())

	start := time.Now()
	fetchResult, err := m.fetcher.Fetch(ctx, depth, fetchParam, m.retryParam())
	elapsed := time.Since(start)

	page := PageData{URL: target.String(), ResponseTime: elapsed}

	if err != nil {
		page.Error = transportErrorTag(err)
		return page, nil
	}

	status := fetchResult.Code()
	page.Status = &status
	if redirected := fetchResult.RedirectedURL(); redirected != nil {
		page.RedirectTarget = redirected.String()
	}

	body := fetchResult.Body()
	if len(body) == 0 {
		return page, nil
	}

	page.ContentHash = hashutil.ContentDigest(body)

	contentType := fetchResult.Headers()["Content-Type"]
	parsed, parseErr := m.parser.Parse(target, base, contentType, body)
	if parseErr != nil {
		return page, nil
	}

	page.Title = parsed.Title
	page.MetaDescription = parsed.MetaDescription
	if parsed.Canonical != nil {
		page.Canonical = parsed.Canonical.String()
	}
	page.Headings = parsed.Headings
	page.H1Count = parsed.H1Count()
	page.InternalLinks = urlsToStrings(parsed.InternalLinks)
	page.ExternalLinks = urlsToStrings(parsed.ExternalLinks)

	return page, filterEnqueueable(parsed.InternalLinks)
}

func (m *Manager) retryParam() retry.RetryParam {
	backoff := timeutil.NewBackoffParam(m.cfg.BackoffInitialDuration(), m.cfg.BackoffMultiplier(), m.cfg.BackoffMaxDuration())
	return retry.NewRetryParam(m.cfg.BaseDelay(), m.cfg.Jitter(), m.cfg.RandomSeed(), m.cfg.MaxAttempt(), backoff)
}

// filterEnqueueable keeps only links the frontier is allowed to admit: the
// parser already restricted this slice to same-host links, so the
// remaining gate is scheme.
func filterEnqueueable(links []url.URL) []url.URL {
	filtered := make([]url.URL, 0, len(links))
	for _, link := range links {
		if !urlutil.AllowedScheme(&link) {
			continue
		}
		filtered = append(filtered, link)
	}
	return filtered
}

// transportErrorTag renders a transport-stage failure as a short tag,
// preferring "timeout" when the fetcher classified the failure as one.
func transportErrorTag(err failure.ClassifiedError) string {
	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		if fetchErr.Cause == fetcher.ErrCauseTimeout {
			return "timeout"
		}
		return fetchErr.Message
	}
	return err.Error()
}
