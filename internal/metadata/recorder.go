package metadata

/*
Metadata Collected
- Fetch timestamps
- HTTP status codes
- Content hashes
- Crawl depth

Logging Goals
- Debuggable crawl behavior
- Post-run auditability
- Failure diagnostics

Structured logging is preferred.

Allowed:
- Primitive values
- Timestamps
- URLs (as values, not objects with behavior)
- Hashes
- Status codes
- Durations
- Identifiers (page ID, crawl ID)
*/

import (
	"io"
	"sync"
	"time"

	"github.com/go-logfmt/logfmt"
)

// MetadataSink receives observability events emitted during a crawl. It is
// the only channel through which crawl internals report fetch outcomes and
// errors; implementations must not be consulted for control-flow decisions.
type MetadataSink interface {
	RecordFetch(fetchUrl string, statusCode int, duration time.Duration, contentType string, retryCount int, crawlDepth int)
	RecordError(observedAt time.Time, packageName string, action string, cause ErrorCause, errorString string, attrs []Attribute)
}

// Recorder is a MetadataSink that writes one logfmt line per event to an
// underlying writer. Safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	enc *logfmt.Encoder
}

// NewRecorder returns a Recorder writing logfmt-encoded lines to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: logfmt.NewEncoder(w)}
}

func (r *Recorder) RecordFetch(fetchUrl string, statusCode int, duration time.Duration, contentType string, retryCount int, crawlDepth int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_ = r.enc.EncodeKeyvals(
		"event", "fetch",
		string(AttrTime), time.Now().Format(time.RFC3339Nano),
		string(AttrURL), fetchUrl,
		string(AttrHTTPStatus), statusCode,
		"duration_ms", duration.Milliseconds(),
		"content_type", contentType,
		"retry_count", retryCount,
		string(AttrDepth), crawlDepth,
	)
	_ = r.enc.EndRecord()
}

func (r *Recorder) RecordError(observedAt time.Time, packageName string, action string, cause ErrorCause, errorString string, attrs []Attribute) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keyvals := []interface{}{
		"event", "error",
		string(AttrTime), observedAt.Format(time.RFC3339Nano),
		"package", packageName,
		"action", action,
		"cause", cause.String(),
		"error", errorString,
	}
	for _, attr := range attrs {
		keyvals = append(keyvals, string(attr.Key), attr.Value)
	}

	_ = r.enc.EncodeKeyvals(keyvals...)
	_ = r.enc.EndRecord()
}

// NoopSink discards every event. Useful in tests and in call sites that
// have no interest in observability output.
type NoopSink struct{}

func (NoopSink) RecordFetch(string, int, time.Duration, string, int, int) {}

func (NoopSink) RecordError(time.Time, string, string, ErrorCause, string, []Attribute) {}
