package crawl

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/rohmanhakim/seo-crawler/internal/config"
	"github.com/rohmanhakim/seo-crawler/internal/fetcher"
	"github.com/rohmanhakim/seo-crawler/internal/frontier"
	"github.com/rohmanhakim/seo-crawler/internal/htmlparse"
	"github.com/rohmanhakim/seo-crawler/internal/metadata"
	"github.com/rohmanhakim/seo-crawler/internal/robots"
	"github.com/rohmanhakim/seo-crawler/internal/robots/cache"
	"github.com/rohmanhakim/seo-crawler/internal/sitemap"
	"github.com/rohmanhakim/seo-crawler/pkg/limiter"
	"github.com/rohmanhakim/seo-crawler/pkg/timeutil"
	"github.com/rohmanhakim/seo-crawler/pkg/urlutil"
)

/*
Manager owns the frontier, worker pool, and every piece of shared crawl
state for the duration of a single Crawl call. The frontier and the
per-call crawl state are created fresh by every Crawl call; the robots.txt
cache and the rate limiter's per-host timings belong to the Manager and
carry over if Crawl is called again on the same Manager.

Data flow: seed -> robots fetch+parse -> sitemap fetch+parse -> frontier
seeded -> N workers pop (url, depth, source) -> fetch -> on HTML, parse ->
emit PageData, update edges/dupes/broken, enqueue new same-host internal
links at depth+1 -> terminate when the frontier drains.
*/
type Manager struct {
	cfg          config.Config
	metadataSink metadata.MetadataSink
	progress     ProgressCallback
	rateLimiter  limiter.RateLimiter

	fetcher       fetcher.HtmlFetcher
	robotsFetcher *robots.RobotsFetcher
	parser        htmlparse.Parser
}

// NewManager builds a Manager from cfg. metadataSink may be nil (defaults
// to a discard sink); progress may be nil (no callback invoked).
func NewManager(cfg config.Config, metadataSink metadata.MetadataSink, progress ProgressCallback) *Manager {
	if metadataSink == nil {
		metadataSink = metadata.NoopSink{}
	}

	httpClient := &http.Client{Timeout: cfg.Timeout()}

	htmlFetcher := fetcher.NewHtmlFetcher(metadataSink)
	htmlFetcher.Init(httpClient)

	robotsFetcher := robots.NewRobotsFetcherWithClient(metadataSink, cfg.UserAgent(), httpClient, cache.NewMemoryCache())

	rateLimiter := limiter.NewConcurrentRateLimiter()
	rateLimiter.SetBaseDelay(cfg.BaseDelay())
	rateLimiter.SetJitter(cfg.Jitter())
	rateLimiter.SetRandomSeed(cfg.RandomSeed())
	rateLimiter.SetBackoffParam(timeutil.NewBackoffParam(cfg.BackoffInitialDuration(), cfg.BackoffMultiplier(), cfg.BackoffMaxDuration()))

	return &Manager{
		cfg:           cfg,
		metadataSink:  metadataSink,
		progress:      progress,
		rateLimiter:   rateLimiter,
		fetcher:       htmlFetcher,
		robotsFetcher: robotsFetcher,
		parser:        htmlparse.NewParser(metadataSink),
	}
}

// WithRateLimiter overrides the politeness layer consulted before every
// fetch, e.g. to inject a test double. NewManager already installs a
// ConcurrentRateLimiter configured from cfg, so production callers only
// need this to substitute a different implementation.
func (m *Manager) WithRateLimiter(rl limiter.RateLimiter) *Manager {
	m.rateLimiter = rl
	return m
}

// Crawl runs the crawl to completion and returns the terminal snapshot. It
// blocks until the frontier drains or ctx is cancelled.
func (m *Manager) Crawl(ctx context.Context) CrawlResult {
	base := urlutil.Canonicalize(m.cfg.BaseURL())
	state := newCrawlState()

	seedMeta := frontier.NewDiscoveryMetadata(0, nil)
	state.frontier.Submit(frontier.NewCrawlAdmissionCandidate(base, frontier.SourceSeed, seedMeta))

	rules := m.fetchRobots(ctx, base)
	m.seedSitemap(ctx, base, state)

	threads := m.cfg.Threads()
	// A permit-granting channel of the same capacity as the worker pool.
	// Redundant with the worker count at this revision; kept as a distinct
	// gate so a future caller can decouple worker count from in-flight
	// request count without touching call sites.
	semaphore := make(chan struct{}, threads)

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.runWorker(ctx, base, rules, state, semaphore)
		}()
	}
	wg.Wait()

	return state.build()
}

func (m *Manager) runWorker(ctx context.Context, base url.URL, rules robots.Rules, state *crawlState, semaphore chan struct{}) {
	for {
		token, ok := state.frontier.Take(ctx)
		if !ok {
			return
		}
		m.processToken(ctx, base, rules, state, token, semaphore)
		state.frontier.Done()
	}
}

func (m *Manager) fetchRobots(ctx context.Context, base url.URL) robots.Rules {
	result, err := m.robotsFetcher.Fetch(ctx, base.Scheme, base.Host)
	var rules robots.Rules
	if err != nil {
		rules = robots.Permissive(base.Host, m.cfg.UserAgent())
	} else {
		rules = robots.Build(result.Response, m.cfg.UserAgent(), result.FetchedAt)
	}

	if m.rateLimiter != nil {
		if decision := rules.Evaluate(base); decision.CrawlDelay != nil {
			m.rateLimiter.SetCrawlDelay(base.Host, *decision.CrawlDelay)
		}
	}

	return rules
}

func (m *Manager) seedSitemap(ctx context.Context, base url.URL, state *crawlState) {
	sitemapURL := base
	sitemapURL.Path = "/sitemap.xml"
	sitemapURL.RawQuery = ""

	fetchParam := fetcher.NewFetchParam(sitemapURL, m.cfg.UserAgent())
	result, err := m.fetcher.Fetch(ctx, 0, fetchParam, m.retryParam())
	if err != nil {
		return
	}
	if result.Code() >= 400 || len(result.Body()) == 0 {
		return
	}

	for _, u := range sitemap.ParseSitemap(base, result.Body()) {
		if !urlutil.SameHost(&u, &base) {
			continue
		}
		meta := frontier.NewDiscoveryMetadata(0, nil)
		state.frontier.Submit(frontier.NewCrawlAdmissionCandidate(u, frontier.SourceSeed, meta))
	}
}
