package gateway

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// Metric names.
const (
	MetricRequests        = "authgate.gateway.requests.total"
	MetricAuthorizerCalls = "authgate.gateway.authorizer.invocations.total"
	MetricDuration        = "authgate.gateway.request.duration"
)

type instruments struct {
	requests        metric.Int64Counter
	authorizerCalls metric.Int64Counter
	duration        metric.Float64Histogram
}

// newInstruments creates the gateway instruments. An instrument that cannot be
// created is replaced by a no-op so recording never fails.
func newInstruments(meter metric.Meter) instruments {
	var ins instruments
	var err error

	ins.requests, err = meter.Int64Counter(MetricRequests,
		metric.WithDescription("Requests on the protected resource by decision and cache use"))
	if err != nil {
		ins.requests = noop.Int64Counter{}
	}
	ins.authorizerCalls, err = meter.Int64Counter(MetricAuthorizerCalls,
		metric.WithDescription("Invocations of the authorizer, excluding cache hits"))
	if err != nil {
		ins.authorizerCalls = noop.Int64Counter{}
	}
	ins.duration, err = meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Duration of gateway requests in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		ins.duration = noop.Float64Histogram{}
	}
	return ins
}

func (ins instruments) recordRequest(ctx context.Context, decision string, cacheHit bool) {
	ins.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", decision),
		attribute.Bool("cache_hit", cacheHit),
	))
}

func (ins instruments) recordAuthorizerCall(ctx context.Context) {
	ins.authorizerCalls.Add(ctx, 1)
}

func (ins instruments) recordDuration(ctx context.Context, d time.Duration) {
	ins.duration.Record(ctx, d.Seconds())
}

func requestAttributes(requestID string, r *http.Request) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("request.id", requestID),
		attribute.String("http.method", r.Method),
		attribute.String("http.path", r.URL.Path),
	}
}

func endSpan(span trace.Span, status int, e effect, cacheHit bool) {
	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.String("auth.decision", string(e)),
		attribute.Bool("auth.cache_hit", cacheHit),
	)
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}
