package frontier

import (
	"context"
	"net/url"
	"sync"
)

/*
Frontier owns the ordering and dedup bookkeeping for a single crawl.

Responsibilities
- Dedup admission candidates against the URLs already enqueued or visited
- Hand out CrawlToken values in FIFO discovery order
- Track outstanding (taken, not yet Done) tokens so Take can distinguish
  "nothing queued right now" from "the crawl is over"

Frontier does not evaluate scope, depth limits, or robots policy — a
CrawlAdmissionCandidate reaching Submit is assumed already admitted. It only
answers: has this URL been seen before, and what comes out next.
*/

// Frontier is safe for concurrent use by multiple worker goroutines.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue    *FIFOQueue[CrawlToken]
	enqueued Set[string]
	visited  Set[string]

	outstanding int
	closed      bool
}

// NewFrontier returns an empty Frontier ready to accept seed candidates.
func NewFrontier() *Frontier {
	f := &Frontier{
		queue:    NewFIFOQueue[CrawlToken](),
		enqueued: NewSet[string](),
		visited:  NewSet[string](),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func key(u url.URL) string {
	return u.String()
}

// Submit admits candidate onto the frontier if its target URL has not
// already been enqueued or visited. It reports whether the candidate was
// newly admitted; a false return means the URL was a duplicate and the
// candidate was dropped.
func (f *Frontier) Submit(candidate CrawlAdmissionCandidate) bool {
	target := candidate.TargetURL()
	k := key(target)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.enqueued.Contains(k) || f.visited.Contains(k) {
		return false
	}

	f.enqueued.Add(k)
	token := NewCrawlTokenWithSource(target, candidate.DiscoveryMetadata().Depth(), candidate.SourceURL())
	f.queue.Enqueue(token)
	f.cond.Signal()
	return true
}

// Take blocks until a token is available, the frontier drains (no token
// queued and no token outstanding), or ctx is cancelled. The second return
// value is false in the drained or cancelled case.
//
// A URL is marked visited at the moment it is taken, per the guarantee that
// it will be processed at most once; the caller must call Done when it has
// finished processing the token, whether or not the fetch succeeded.
func (f *Frontier) Take(ctx context.Context) (CrawlToken, bool) {
	done := make(chan struct{})
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				f.mu.Lock()
				f.cond.Broadcast()
				f.mu.Unlock()
			case <-done:
			}
		}()
		defer close(done)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if token, ok := f.queue.Dequeue(); ok {
			f.visited.Add(key(token.URL()))
			f.outstanding++
			return token, true
		}

		if f.drained() {
			return CrawlToken{}, false
		}

		if ctx != nil && ctx.Err() != nil {
			return CrawlToken{}, false
		}

		f.cond.Wait()
	}
}

// Done reports that a token obtained from Take has finished processing
// (successfully or not). It must be called exactly once per taken token so
// the frontier can detect drain.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.outstanding > 0 {
		f.outstanding--
	}
	if f.drained() {
		f.cond.Broadcast()
	}
}

// drained reports whether there is no work queued and no token currently
// being processed. Callers must hold f.mu.
func (f *Frontier) drained() bool {
	return f.queue.Size() == 0 && f.outstanding == 0
}

// Visited reports whether u has already been taken off the frontier for
// processing.
func (f *Frontier) Visited(u url.URL) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited.Contains(key(u))
}

// Enqueued reports whether u has ever entered the frontier, taken or not.
func (f *Frontier) Enqueued(u url.URL) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enqueued.Contains(key(u))
}

// QueueSize reports how many tokens are currently waiting to be taken.
func (f *Frontier) QueueSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Size()
}

// Outstanding reports how many taken tokens have not yet been marked Done.
func (f *Frontier) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outstanding
}
