package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/session"
)

// meteredBackend counts session field traffic and classifies its failures.
type meteredBackend struct {
	next    session.Backend
	metrics *Metrics
}

func newMeteredBackend(next session.Backend, m *Metrics) session.Backend {
	if !m.Enabled() {
		return next
	}
	return &meteredBackend{next: next, metrics: m}
}

func (b *meteredBackend) GetField(ctx context.Context, key, field string) (string, error) {
	b.metrics.Inc(MetricSessionGet)
	value, err := b.next.GetField(ctx, key, field)
	b.record(err)
	return value, err
}

func (b *meteredBackend) SetField(ctx context.Context, key, field, value string) error {
	b.metrics.Inc(MetricSessionSet)
	err := b.next.SetField(ctx, key, field, value)
	b.record(err)
	return err
}

func (b *meteredBackend) record(err error) {
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotFound):
		b.metrics.Inc(MetricSessionNotFound)
	case errors.Is(err, session.ErrConnection):
		b.metrics.Inc(MetricSessionConnectionError)
	default:
		b.metrics.Inc(MetricSessionStoreError)
	}
}
