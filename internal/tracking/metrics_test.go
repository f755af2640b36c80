// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeterProvider(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	return reader, provider
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != MeterName {
			continue
		}
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_Attempt(t *testing.T) {
	reader, provider := setupTestMeterProvider(t)
	m := New(provider)
	ctx := context.Background()

	m.AttemptStarted(ctx, "GET", "example.com")
	m.AttemptEnded(ctx, "GET", "example.com", 503, "status_error", false, 120*time.Millisecond)

	metrics := collect(t, reader)

	hist, ok := metrics[MetricAttemptDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected histogram data")
	require.Len(t, hist.DataPoints, 1)
	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(1), dp.Count)
	attrs := dp.Attributes.ToSlice()
	assertAttribute(t, attrs, AttrHTTPRequestMethod, "GET")
	assertAttribute(t, attrs, AttrServerAddress, "example.com")
	assertAttribute(t, attrs, AttrHTTPResponseStatus, int64(503))
	assertAttribute(t, attrs, AttrErrorType, "status_error")
	assertAttribute(t, attrs, AttrEphemeral, false)

	sum, ok := metrics[MetricActiveRequests].Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected sum data")
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestMetrics_AttemptWithoutResponse(t *testing.T) {
	reader, provider := setupTestMeterProvider(t)
	m := New(provider)

	m.AttemptStarted(context.Background(), "POST", "example.com")
	m.AttemptEnded(context.Background(), "POST", "example.com", 0, "timeout", true, time.Second)

	hist := collect(t, reader)[MetricAttemptDuration].Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	attrs := hist.DataPoints[0].Attributes.ToSlice()
	for _, kv := range attrs {
		assert.NotEqual(t, attribute.Key(AttrHTTPResponseStatus), kv.Key)
	}
	assertAttribute(t, attrs, AttrEphemeral, true)
}

func TestMetrics_RetriesAndCalls(t *testing.T) {
	reader, provider := setupTestMeterProvider(t)
	m := New(provider)
	ctx := context.Background()

	m.Retry(ctx, "GET", "example.com", "status_error")
	m.Retry(ctx, "GET", "example.com", "status_error")
	m.CallEnded(ctx, "GET", "example.com", OutcomeFailure)
	m.CallEnded(ctx, "GET", "example.com", OutcomeSuccess)

	metrics := collect(t, reader)

	retries := metrics[MetricRetries].Data.(metricdata.Sum[int64])
	require.Len(t, retries.DataPoints, 1)
	assert.Equal(t, int64(2), retries.DataPoints[0].Value)

	calls := metrics[MetricCalls].Data.(metricdata.Sum[int64])
	require.Len(t, calls.DataPoints, 2)
	byOutcome := map[string]int64{}
	for _, dp := range calls.DataPoints {
		v, ok := dp.Attributes.Value(attribute.Key(AttrOutcome))
		require.True(t, ok)
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{OutcomeFailure: 1, OutcomeSuccess: 1}, byOutcome)
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.AttemptStarted(ctx, "GET", "h")
		m.AttemptEnded(ctx, "GET", "h", 200, "", false, time.Millisecond)
		m.Retry(ctx, "GET", "h", "x")
		m.CallEnded(ctx, "GET", "h", OutcomeSuccess)
	})
}

func TestNew_GlobalProvider(t *testing.T) {
	assert.NotNil(t, New(nil))
}

func assertAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expected any) {
	t.Helper()
	for _, kv := range attrs {
		if string(kv.Key) == key {
			assert.Equal(t, expected, kv.Value.AsInterface(), "attribute %s", key)
			return
		}
	}
	t.Errorf("attribute %s not found", key)
}
