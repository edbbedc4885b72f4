package goSession

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricAuthSuccess)

	if got := m.Value(MetricAuthSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricAuthSuccess)
	m.Inc(MetricAuthSuccess)
	m.Inc(MetricAuthSuccess)

	if got := m.Value(MetricAuthSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Go(func() {
			for j := 0; j < perG; j++ {
				m.Inc(MetricSessionGet)
			}
		})
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricSessionGet); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		500 * time.Microsecond,
		2 * time.Millisecond,
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricAuthenticateLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricAuthenticateLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
	if want := 892*time.Millisecond + 500*time.Microsecond; snap.LatencySum != want {
		t.Fatalf("expected latency sum %v, got %v", want, snap.LatencySum)
	}
}

func TestMetricsLatencySumOnlyWhenEnabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricAuthenticateLatency, time.Second)
	if sum := m.Snapshot().LatencySum; sum != 0 {
		t.Fatalf("expected zero sum with latency disabled, got %v", sum)
	}

	m = NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricAuthenticateLatency, -time.Second)
	m.Observe(MetricAuthenticateLatency, 3*time.Millisecond)
	if sum := m.Snapshot().LatencySum; sum != 3*time.Millisecond {
		t.Fatalf("expected negative durations to add nothing, got %v", sum)
	}
}

func TestMetricsObserveIgnoresCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricAuthSuccess, time.Millisecond)

	if _, ok := m.Snapshot().Histograms[MetricAuthSuccess]; ok {
		t.Fatal("expected no histogram for a counter id")
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricAuthSuccess)
	m.Inc(MetricAuthTokenInvalid)
	m.Inc(MetricAuthTokenInvalid)
	m.Observe(MetricAuthenticateLatency, 200*time.Microsecond)

	snap := m.Snapshot()

	if snap.Counters[MetricAuthSuccess] != 1 {
		t.Fatalf("expected MetricAuthSuccess=1 got %d", snap.Counters[MetricAuthSuccess])
	}
	if snap.Counters[MetricAuthTokenInvalid] != 2 {
		t.Fatalf("expected MetricAuthTokenInvalid=2 got %d", snap.Counters[MetricAuthTokenInvalid])
	}
	if _, ok := snap.Counters[MetricAuthenticateLatency]; ok {
		t.Fatal("latency id must not appear as a counter")
	}
	if snap.Histograms[MetricAuthenticateLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricAuthenticateLatency][0])
	}
}

func TestEngineRecordsAuthAndSessionMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	engine, mr := buildTestEngine(t, cfg, nil)
	ctx := context.Background()

	token, err := engine.IssueFor(ctx, "42", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, _ = engine.Authenticate(ctx, "")
	_, _ = engine.Authenticate(ctx, "bad.token.here")
	sess, err := engine.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if err := sess.Set(ctx, "a", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, _ = sess.GetString(ctx, "missing")
	mr.Close()
	_, _ = sess.GetString(ctx, "a")

	snap := engine.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricTokenIssued:            1,
		MetricAuthTokenMissing:       1,
		MetricAuthTokenInvalid:       1,
		MetricAuthSuccess:            1,
		MetricSessionSet:             1,
		MetricSessionGet:             2,
		MetricSessionNotFound:        1,
		MetricSessionConnectionError: 1,
		MetricSessionStoreError:      0,
	}
	for id, v := range want {
		if snap.Counters[id] != v {
			t.Fatalf("metric %d: expected %d, got %d", id, v, snap.Counters[id])
		}
	}

	var observed uint64
	for _, v := range snap.Histograms[MetricAuthenticateLatency] {
		observed += v
	}
	if observed != 3 {
		t.Fatalf("expected 3 latency observations, got %d", observed)
	}
	if snap.LatencySum <= 0 {
		t.Fatalf("expected a positive latency sum, got %v", snap.LatencySum)
	}
}
