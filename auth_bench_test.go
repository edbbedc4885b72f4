package goSession

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newBenchmarkEngine(b *testing.B, metrics bool) (*Engine, func()) {
	b.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("benchmark-secret")
	cfg.Metrics.Enabled = metrics
	cfg.Metrics.EnableLatencyHistograms = metrics

	engine, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		_ = rdb.Close()
		mr.Close()
		b.Fatalf("build failed: %v", err)
	}

	return engine, func() {
		_ = engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func BenchmarkAuthenticate(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b, false)
	defer cleanup()

	token, err := engine.IssueFor(context.Background(), "42", nil)
	if err != nil {
		b.Fatalf("issue failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Authenticate(context.Background(), token); err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
	}
}

func BenchmarkAuthenticateWithMetrics(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b, true)
	defer cleanup()

	token, err := engine.IssueFor(context.Background(), "42", nil)
	if err != nil {
		b.Fatalf("issue failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := engine.Authenticate(context.Background(), token); err != nil {
				b.Errorf("authenticate failed: %v", err)
				return
			}
		}
	})
}

func BenchmarkIssueFor(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b, false)
	defer cleanup()

	data := map[string]any{"plan": "pro", "since": time.Unix(0, 0).UTC()}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.IssueFor(context.Background(), "42", data); err != nil {
			b.Fatalf("issue failed: %v", err)
		}
	}
}

func BenchmarkSessionSetGet(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b, false)
	defer cleanup()

	ctx := context.Background()
	token, err := engine.IssueFor(ctx, "42", nil)
	if err != nil {
		b.Fatalf("issue failed: %v", err)
	}
	sess, err := engine.Authenticate(ctx, token)
	if err != nil {
		b.Fatalf("authenticate failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := sess.Set(ctx, "counter", i); err != nil {
			b.Fatalf("set failed: %v", err)
		}
		if _, err := sess.GetInt64(ctx, "counter"); err != nil {
			b.Fatalf("get failed: %v", err)
		}
	}
}
