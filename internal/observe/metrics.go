// Package observe provides OpenTelemetry metric instruments for the speech
// SDK. Metrics are recorded through the OTel Metrics API against whatever
// MeterProvider the host application installs globally; a package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for the SDK's
// own use. Tests should use [NewMetrics] with a ManualReader-backed provider
// to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for all SDK metrics.
const meterName = "github.com/tommy200519/cognitive-services-speech-sdk"

// Metrics holds the metric instruments for the SDK. All fields are safe for
// concurrent use — the underlying OTel types handle their own
// synchronisation.
type Metrics struct {
	// OperationDuration tracks the latency of blocking engine operations.
	// Attributes: operation.
	OperationDuration metric.Float64Histogram

	// EventsDispatched counts events delivered to subscribers.
	// Attributes: event.
	EventsDispatched metric.Int64Counter

	// CallbackFailures counts panics absorbed at the callback boundary and
	// stale-token dispatch drops. Attributes: event, cause.
	CallbackFailures metric.Int64Counter

	// OperationErrors counts failed engine operations. Attributes: operation.
	OperationErrors metric.Int64Counter

	// ActiveRecognizers tracks the number of live recognizer façades.
	ActiveRecognizers metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// utterance-scale recognition latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30,
}

// NewMetrics creates a fully initialised [Metrics] using the given
// MeterProvider. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.OperationDuration, err = m.Float64Histogram("speechsdk.operation.duration",
		metric.WithDescription("Latency of blocking engine operations."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EventsDispatched, err = m.Int64Counter("speechsdk.events.dispatched",
		metric.WithDescription("Total events delivered to subscribers, by event kind."),
	); err != nil {
		return nil, err
	}
	if met.CallbackFailures, err = m.Int64Counter("speechsdk.callback.failures",
		metric.WithDescription("Callback dispatches dropped or absorbed, by event kind and cause."),
	); err != nil {
		return nil, err
	}
	if met.OperationErrors, err = m.Int64Counter("speechsdk.operation.errors",
		metric.WithDescription("Failed engine operations, by operation."),
	); err != nil {
		return nil, err
	}
	if met.ActiveRecognizers, err = m.Int64UpDownCounter("speechsdk.active_recognizers",
		metric.WithDescription("Number of live recognizer instances."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordOperation records one engine operation: its latency and, when
// failed is true, an error counter increment.
func (m *Metrics) RecordOperation(ctx context.Context, operation string, seconds float64, failed bool) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.OperationDuration.Record(ctx, seconds, attrs)
	if failed {
		m.OperationErrors.Add(ctx, 1, attrs)
	}
}

// RecordDispatch records one delivered event.
func (m *Metrics) RecordDispatch(ctx context.Context, event string) {
	m.EventsDispatched.Add(ctx, 1,
		metric.WithAttributes(attribute.String("event", event)),
	)
}

// RecordCallbackFailure records a dropped or absorbed callback dispatch.
func (m *Metrics) RecordCallbackFailure(ctx context.Context, event, cause string) {
	m.CallbackFailures.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("event", event),
			attribute.String("cause", cause),
		),
	)
}
