package metrics

import (
	"testing"
	"time"
)

func TestNew_StartTimeSet(t *testing.T) {
	before := time.Now()
	m := New()
	after := time.Now()

	if m.startTime.Before(before) || m.startTime.After(after) {
		t.Errorf("startTime %v not in expected range [%v, %v]", m.startTime, before, after)
	}
}

func TestZeroValue_SnapshotSafe(t *testing.T) {
	var m Metrics
	s := m.Snapshot()
	if s.Documents.Total != 0 {
		t.Errorf("expected 0 total documents, got %d", s.Documents.Total)
	}
}

func TestDocumentCounters(t *testing.T) {
	m := New()
	m.DocumentsTotal.Add(10)
	m.DocumentsText.Add(7)
	m.DocumentsPDF.Add(3)

	s := m.Snapshot()
	if s.Documents.Total != 10 {
		t.Errorf("Total: got %d, want 10", s.Documents.Total)
	}
	if s.Documents.Text != 7 {
		t.Errorf("Text: got %d, want 7", s.Documents.Text)
	}
	if s.Documents.PDF != 3 {
		t.Errorf("PDF: got %d, want 3", s.Documents.PDF)
	}
}

func TestErrorCounters(t *testing.T) {
	m := New()
	m.ErrorsDetector.Add(3)
	m.ErrorsRewriter.Add(2)
	m.ErrorsIO.Add(1)

	s := m.Snapshot()
	if s.Errors.Detector != 3 {
		t.Errorf("Detector errors: got %d, want 3", s.Errors.Detector)
	}
	if s.Errors.Rewriter != 2 {
		t.Errorf("Rewriter errors: got %d, want 2", s.Errors.Rewriter)
	}
	if s.Errors.IO != 1 {
		t.Errorf("IO errors: got %d, want 1", s.Errors.IO)
	}
}

func TestSpanCounters(t *testing.T) {
	m := New()
	m.SpansDetected.Add(50)
	m.SpansRetained.Add(30)
	m.SpansRewritten.Add(30)

	s := m.Snapshot()
	if s.Spans.Detected != 50 {
		t.Errorf("SpansDetected: got %d, want 50", s.Spans.Detected)
	}
	if s.Spans.Retained != 30 {
		t.Errorf("SpansRetained: got %d, want 30", s.Spans.Retained)
	}
	if s.Spans.Rewritten != 30 {
		t.Errorf("SpansRewritten: got %d, want 30", s.Spans.Rewritten)
	}
}

func TestRecordDetectLatency_SingleSample(t *testing.T) {
	m := New()
	m.RecordDetectLatency(100 * time.Millisecond)

	s := m.Snapshot()
	if s.Latency.DetectMs.Count != 1 {
		t.Errorf("Count: got %d, want 1", s.Latency.DetectMs.Count)
	}
	if s.Latency.DetectMs.MinMs < 90 || s.Latency.DetectMs.MinMs > 110 {
		t.Errorf("MinMs: got %f, want ~100", s.Latency.DetectMs.MinMs)
	}
}

func TestRecordRewriteLatency_MinMaxMean(t *testing.T) {
	m := New()
	m.RecordRewriteLatency(50 * time.Millisecond)
	m.RecordRewriteLatency(150 * time.Millisecond)
	m.RecordRewriteLatency(100 * time.Millisecond)

	s := m.Snapshot()
	ls := s.Latency.RewriteMs
	if ls.Count != 3 {
		t.Errorf("Count: got %d, want 3", ls.Count)
	}
	if ls.MinMs > 60 {
		t.Errorf("MinMs too high: %f", ls.MinMs)
	}
	if ls.MaxMs < 140 {
		t.Errorf("MaxMs too low: %f", ls.MaxMs)
	}
	if ls.MeanMs < 90 || ls.MeanMs > 110 {
		t.Errorf("MeanMs: got %f, want ~100", ls.MeanMs)
	}
}

func TestSnapshotLatency_EmptyIsZeroValue(t *testing.T) {
	m := New()
	s := m.Snapshot()
	if s.Latency.DetectMs.Count != 0 {
		t.Errorf("empty detect latency count should be 0")
	}
	if s.Latency.RewriteMs.Count != 0 {
		t.Errorf("empty rewrite latency count should be 0")
	}
}

func TestSnapshot_UptimePositive(t *testing.T) {
	m := New()
	time.Sleep(5 * time.Millisecond)
	s := m.Snapshot()
	if s.UptimeSecs <= 0 {
		t.Errorf("UptimeSecs should be positive, got %f", s.UptimeSecs)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		input float64
		want  float64
	}{
		{1.236, 1.24},
		{1.234, 1.23},
		{100.0, 100.0},
		{0.0, 0.0},
	}
	for _, c := range cases {
		got := round2(c.input)
		if got != c.want {
			t.Errorf("round2(%f) = %f, want %f", c.input, got, c.want)
		}
	}
}

func TestLatencyStats_Record(t *testing.T) {
	var s latencyStats
	s.record(10)
	s.record(20)
	s.record(15)

	snap := s.snapshot()
	if snap.Count != 3 {
		t.Errorf("Count: got %d, want 3", snap.Count)
	}
	if snap.MinMs != 10 {
		t.Errorf("MinMs: got %f, want 10", snap.MinMs)
	}
	if snap.MaxMs != 20 {
		t.Errorf("MaxMs: got %f, want 20", snap.MaxMs)
	}
	if snap.MeanMs != 15 {
		t.Errorf("MeanMs: got %f, want 15", snap.MeanMs)
	}
}

func TestLatencyStats_Empty(t *testing.T) {
	var s latencyStats
	snap := s.snapshot()
	if snap.Count != 0 || snap.MinMs != 0 || snap.MaxMs != 0 || snap.MeanMs != 0 {
		t.Errorf("empty stats snapshot should be zero, got %+v", snap)
	}
}
