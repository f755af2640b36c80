// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package tracking records client metrics through OpenTelemetry.
package tracking

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// MeterName is the instrumentation scope of all client metrics.
	MeterName = "github.com/taisuii/async-requests"

	// Metric names follow the OpenTelemetry HTTP client conventions
	// where one exists.
	MetricAttemptDuration = "http.client.request.duration"
	MetricActiveRequests  = "http.client.active_requests"
	MetricRetries         = "requests.client.retries"
	MetricCalls           = "requests.client.calls"

	AttrHTTPRequestMethod  = "http.request.method"
	AttrHTTPResponseStatus = "http.response.status_code"
	AttrServerAddress      = "server.address"
	AttrErrorType          = "error.type"
	AttrOutcome            = "requests.outcome"
	AttrEphemeral          = "requests.ephemeral"
)

// Call outcomes reported on MetricCalls.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeCancelled = "cancelled"
)

var durationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
}

// Metrics holds the instruments of one client. A nil *Metrics records
// nothing.
type Metrics struct {
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	retries  metric.Int64Counter
	calls    metric.Int64Counter
}

// New creates the client instruments from mp, or from the global meter
// provider if mp is nil. Instruments that fail to initialise are
// reported on stderr and left out; metrics never break a call.
func New(mp metric.MeterProvider) *Metrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(MeterName)

	m := &Metrics{}
	var err error
	m.duration, err = meter.Float64Histogram(
		MetricAttemptDuration,
		metric.WithDescription("Duration of HTTP client request attempts"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	logMetricError(MetricAttemptDuration, err)

	m.active, err = meter.Int64UpDownCounter(
		MetricActiveRequests,
		metric.WithDescription("Number of in-flight HTTP client request attempts"),
		metric.WithUnit("{request}"),
	)
	logMetricError(MetricActiveRequests, err)

	m.retries, err = meter.Int64Counter(
		MetricRetries,
		metric.WithDescription("Number of retries scheduled after a failed attempt"),
		metric.WithUnit("{retry}"),
	)
	logMetricError(MetricRetries, err)

	m.calls, err = meter.Int64Counter(
		MetricCalls,
		metric.WithDescription("Number of logical calls by final outcome"),
		metric.WithUnit("{call}"),
	)
	logMetricError(MetricCalls, err)

	return m
}

// AttemptStarted counts an attempt as in flight.
func (m *Metrics) AttemptStarted(ctx context.Context, method, host string) {
	if m == nil || m.active == nil {
		return
	}
	m.active.Add(ctx, 1, metric.WithAttributes(baseAttributes(method, host)...))
}

// AttemptEnded records the duration of an attempt and removes it from
// the in-flight count. A zero status means no response was received;
// errType is empty for a successful attempt.
func (m *Metrics) AttemptEnded(ctx context.Context, method, host string, status int, errType string, ephemeral bool, d time.Duration) {
	if m == nil {
		return
	}
	base := baseAttributes(method, host)
	if m.active != nil {
		m.active.Add(ctx, -1, metric.WithAttributes(base...))
	}
	if m.duration == nil {
		return
	}
	attrs := append(base, attribute.Bool(AttrEphemeral, ephemeral))
	if status > 0 {
		attrs = append(attrs, attribute.Int(AttrHTTPResponseStatus, status))
	}
	if errType != "" {
		attrs = append(attrs, attribute.String(AttrErrorType, errType))
	}
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// Retry counts a scheduled retry.
func (m *Metrics) Retry(ctx context.Context, method, host, errType string) {
	if m == nil || m.retries == nil {
		return
	}
	attrs := append(baseAttributes(method, host), attribute.String(AttrErrorType, errType))
	m.retries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// CallEnded counts a finished logical call.
func (m *Metrics) CallEnded(ctx context.Context, method, host, outcome string) {
	if m == nil || m.calls == nil {
		return
	}
	attrs := append(baseAttributes(method, host), attribute.String(AttrOutcome, outcome))
	m.calls.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func baseAttributes(method, host string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrHTTPRequestMethod, method),
		attribute.String(AttrServerAddress, host),
	}
}

func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize client metric %s: %v\n", name, err)
	}
}
