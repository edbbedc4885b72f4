package otel

import (
	"context"
	"errors"
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         goSession.MetricID
	instrument metric.Int64ObservableCounter
}

// latencyGauges flattens the Authenticate latency histogram into one cumulative gauge
// per bucket plus count and sum, named <name>_bucket_le_<bound>, <name>_count and
// <name>_sum.
type latencyGauges struct {
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	sum     metric.Float64ObservableGauge
}

// OTelExporter publishes engine snapshots as observable instruments. One callback
// reads MetricsSnapshot per collection cycle.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	latency      latencyGauges
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments for engine on meter. Call Close to unregister.
func NewOTelExporter(meter metric.Meter, engine *goSession.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := internaldefs.LatencyName + "_bucket_le_" + suffix
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Authenticate calls at or under this bound."))
		if err != nil {
			return nil, fmt.Errorf("create gauge %s: %w", name, err)
		}
		e.latency.buckets[i] = ins
		observables = append(observables, ins)
	}

	var err error
	if e.latency.count, err = meter.Int64ObservableGauge(internaldefs.LatencyName+"_count",
		metric.WithDescription("Authenticate calls observed.")); err != nil {
		return nil, fmt.Errorf("create latency count gauge: %w", err)
	}
	if e.latency.sum, err = meter.Float64ObservableGauge(internaldefs.LatencyName+"_sum",
		metric.WithDescription("Total Authenticate latency."), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create latency sum gauge: %w", err)
	}
	if e.auditDropped, err = meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp)); err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, e.latency.count, e.latency.sum, e.auditDropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	if len(snapshot.Counters) == 0 {
		return nil
	}

	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}

	raw, ok := snapshot.Histograms[goSession.MetricAuthenticateLatency]
	if !ok {
		return nil
	}
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
	for i, v := range cumulative {
		o.ObserveInt64(e.latency.buckets[i], int64(v))
	}
	o.ObserveInt64(e.latency.count, int64(cumulative[len(cumulative)-1]))
	o.ObserveFloat64(e.latency.sum, snapshot.LatencySum.Seconds())
	return nil
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
