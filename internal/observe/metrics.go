// Package observe provides application-wide observability primitives for
// Earmark: OpenTelemetry metrics and HTTP middleware built on them.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Earmark metrics.
const meterName = "github.com/mwalther/earmark"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// VerifyScore tracks the speaker-verification similarity of each
	// gated utterance.
	VerifyScore metric.Float64Histogram

	// PipelineDuration tracks end-to-end utterance processing latency.
	PipelineDuration metric.Float64Histogram

	// Utterances counts processed utterances. Use with attribute:
	//   attribute.String("outcome", ...)
	Utterances metric.Int64Counter

	// ParseResults counts temporal-phrase parse attempts. Use with
	// attribute: attribute.Bool("found", ...)
	ParseResults metric.Int64Counter

	// AccumulationSignals counts the draft store's unprocessed-drafts
	// accumulation signals.
	AccumulationSignals metric.Int64Counter

	// ConfirmedPhrases counts phrases fed back into the lexicon.
	ConfirmedPhrases metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for the
// pipeline, which is local CPU/file-bound work.
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// scoreBuckets defines histogram bucket boundaries for similarity scores
// in [0,1], finer-grained around the usual gate thresholds.
var scoreBuckets = []float64{
	0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.VerifyScore, err = m.Float64Histogram("earmark.speaker.verify_score",
		metric.WithDescription("Speaker-verification similarity per gated utterance."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineDuration, err = m.Float64Histogram("earmark.pipeline.duration",
		metric.WithDescription("End-to-end utterance processing latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Utterances, err = m.Int64Counter("earmark.utterances.processed",
		metric.WithDescription("Total processed utterances by outcome."),
	); err != nil {
		return nil, err
	}
	if met.ParseResults, err = m.Int64Counter("earmark.timeparse.results",
		metric.WithDescription("Total temporal-phrase parse attempts by result."),
	); err != nil {
		return nil, err
	}
	if met.AccumulationSignals, err = m.Int64Counter("earmark.drafts.accumulation_signals",
		metric.WithDescription("Total unprocessed-draft accumulation signals."),
	); err != nil {
		return nil, err
	}
	if met.ConfirmedPhrases, err = m.Int64Counter("earmark.lexicon.confirmed_phrases",
		metric.WithDescription("Total confirmed phrases fed back into the lexicon."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("earmark.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
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

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordUtterance records one processed utterance with its outcome.
func (m *Metrics) RecordUtterance(ctx context.Context, outcome string) {
	m.Utterances.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordVerifyScore records one speaker-verification similarity score.
func (m *Metrics) RecordVerifyScore(ctx context.Context, score float64) {
	m.VerifyScore.Record(ctx, score)
}

// RecordParseResult records one temporal-phrase parse attempt.
func (m *Metrics) RecordParseResult(ctx context.Context, found bool) {
	m.ParseResults.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("found", found)),
	)
}

// RecordAccumulationSignal records one unprocessed-draft accumulation
// signal.
func (m *Metrics) RecordAccumulationSignal(ctx context.Context) {
	m.AccumulationSignals.Add(ctx, 1)
}

// RecordConfirmedPhrase records one phrase fed back into the lexicon.
func (m *Metrics) RecordConfirmedPhrase(ctx context.Context) {
	m.ConfirmedPhrases.Add(ctx, 1)
}
