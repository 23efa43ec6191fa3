// Package metrics provides lightweight, lock-minimal performance counters
// for the document masking engine.
//
// Counters use sync/atomic so hot paths (detector runs, span rewriting)
// incur no mutex contention. Latency statistics use a single mutex per
// dimension; they are updated at most once per document.
package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds all runtime counters for a running masking engine process.
// The zero value is valid and ready to use; prefer New() for clarity.
type Metrics struct {
	// Document counters
	DocumentsTotal atomic.Int64
	DocumentsText  atomic.Int64
	DocumentsPDF   atomic.Int64

	// Error counters
	ErrorsDetector atomic.Int64 // swallowed by the safe wrapper, counted here for visibility
	ErrorsRewriter atomic.Int64
	ErrorsIO       atomic.Int64

	// Span volume, by stage
	SpansDetected  atomic.Int64
	SpansRetained  atomic.Int64 // after aggregation + policy filter
	SpansRewritten atomic.Int64

	// Latency statistics (mutex-guarded because they accumulate floats)
	detectMu   sync.Mutex
	detectStat latencyStats

	rewriteMu   sync.Mutex
	rewriteStat latencyStats

	startTime time.Time
}

// New returns a new Metrics with the start time recorded.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordDetectLatency records the duration of one detector-registry run.
func (m *Metrics) RecordDetectLatency(d time.Duration) {
	m.detectMu.Lock()
	m.detectStat.record(float64(d.Microseconds()) / 1000.0)
	m.detectMu.Unlock()
}

// RecordRewriteLatency records the duration of one rewrite pass.
func (m *Metrics) RecordRewriteLatency(d time.Duration) {
	m.rewriteMu.Lock()
	m.rewriteStat.record(float64(d.Microseconds()) / 1000.0)
	m.rewriteMu.Unlock()
}

// Snapshot returns a point-in-time copy of all metrics, safe for JSON encoding.
func (m *Metrics) Snapshot() Snapshot {
	m.detectMu.Lock()
	detect := m.detectStat.snapshot()
	m.detectMu.Unlock()

	m.rewriteMu.Lock()
	rewrite := m.rewriteStat.snapshot()
	m.rewriteMu.Unlock()

	return Snapshot{
		Documents: DocumentSnapshot{
			Total: m.DocumentsTotal.Load(),
			Text:  m.DocumentsText.Load(),
			PDF:   m.DocumentsPDF.Load(),
		},
		Errors: ErrorSnapshot{
			Detector: m.ErrorsDetector.Load(),
			Rewriter: m.ErrorsRewriter.Load(),
			IO:       m.ErrorsIO.Load(),
		},
		Spans: SpanSnapshot{
			Detected:  m.SpansDetected.Load(),
			Retained:  m.SpansRetained.Load(),
			Rewritten: m.SpansRewritten.Load(),
		},
		Latency: LatencyGroup{
			DetectMs:  detect,
			RewriteMs: rewrite,
		},
		UptimeSecs: time.Since(m.startTime).Seconds(),
	}
}

// --- JSON-serialisable snapshot types ---

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Documents  DocumentSnapshot `json:"documents"`
	Errors     ErrorSnapshot    `json:"errors"`
	Spans      SpanSnapshot     `json:"spans"`
	Latency    LatencyGroup     `json:"latency"`
	UptimeSecs float64          `json:"uptimeSecs"`
}

// DocumentSnapshot holds document-level counters.
type DocumentSnapshot struct {
	Total int64 `json:"total"`
	Text  int64 `json:"text"`
	PDF   int64 `json:"pdf"`
}

// ErrorSnapshot holds error counters.
type ErrorSnapshot struct {
	Detector int64 `json:"detector"`
	Rewriter int64 `json:"rewriter"`
	IO       int64 `json:"io"`
}

// SpanSnapshot holds span volume counters by pipeline stage.
type SpanSnapshot struct {
	Detected  int64 `json:"detected"`
	Retained  int64 `json:"retained"`
	Rewritten int64 `json:"rewritten"`
}

// LatencyGroup groups the two latency dimensions.
type LatencyGroup struct {
	DetectMs  LatencySnapshot `json:"detectMs"`
	RewriteMs LatencySnapshot `json:"rewriteMs"`
}

// LatencySnapshot is a min/mean/max summary for one latency dimension.
type LatencySnapshot struct {
	Count  int64   `json:"count"`
	MinMs  float64 `json:"minMs"`
	MeanMs float64 `json:"meanMs"`
	MaxMs  float64 `json:"maxMs"`
}

// --- internal accumulator ---

type latencyStats struct {
	count int64
	sum   float64
	min   float64
	max   float64
}

func (s *latencyStats) record(ms float64) {
	s.count++
	s.sum += ms
	if s.count == 1 || ms < s.min {
		s.min = ms
	}
	if ms > s.max {
		s.max = ms
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func (s *latencyStats) snapshot() LatencySnapshot {
	if s.count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count:  s.count,
		MinMs:  round2(s.min),
		MeanMs: round2(s.sum / float64(s.count)),
		MaxMs:  round2(s.max),
	}
}
