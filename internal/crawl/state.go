package crawl

import (
	"sync"

	"github.com/rohmanhakim/seo-crawler/internal/frontier"
)

// crawlState holds every piece of shared mutable state workers append to
// during a single Crawl call. The frontier owns its own locking for
// admission and drain detection (spec.md §5 strategy (b), a single mutex);
// pages/edges/duplicateMap share a second mutex since they are mutated
// independently of frontier admission.
type crawlState struct {
	frontier *frontier.Frontier

	mu           sync.Mutex
	pages        []PageData
	edges        []Edge
	duplicateMap map[string][]string
}

func newCrawlState() *crawlState {
	return &crawlState{
		frontier:     frontier.NewFrontier(),
		duplicateMap: make(map[string][]string),
	}
}

func (s *crawlState) addPage(page PageData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages = append(s.pages, page)
	if page.ContentHash != "" {
		s.duplicateMap[page.ContentHash] = append(s.duplicateMap[page.ContentHash], page.URL)
	}
}

func (s *crawlState) addEdge(source, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edges = append(s.edges, Edge{Source: source, Target: target})
}

// build assembles the terminal CrawlResult, restricting DuplicateMap to
// hashes shared by at least two URLs.
func (s *crawlState) build() CrawlResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	duplicates := make(map[string][]string, len(s.duplicateMap))
	for hash, urls := range s.duplicateMap {
		if len(urls) >= 2 {
			duplicates[hash] = urls
		}
	}

	var broken []PageData
	for _, page := range s.pages {
		if page.Status != nil && *page.Status >= 400 {
			broken = append(broken, page)
		}
	}

	return CrawlResult{
		Pages:        s.pages,
		Edges:        s.edges,
		DuplicateMap: duplicates,
		BrokenLinks:  broken,
	}
}
