package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lex00/authgate-aws-go/internal/authorizer"
	"github.com/lex00/authgate-aws-go/internal/backend"
)

// countingAuthorizer wraps a real or fake authorizer and counts invocations.
type countingAuthorizer struct {
	next  Authorizer
	calls atomic.Int64
	last  atomic.Value
}

func (c *countingAuthorizer) Handle(ctx context.Context, event events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	c.calls.Add(1)
	c.last.Store(event)
	return c.next.Handle(ctx, event)
}

type countingBackend struct {
	next  Backend
	calls atomic.Int64
	last  atomic.Value
}

func (c *countingBackend) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	c.calls.Add(1)
	c.last.Store(event)
	return c.next.Handle(ctx, event)
}

type authorizerFunc func(context.Context, events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error)

func (f authorizerFunc) Handle(ctx context.Context, e events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	return f(ctx, e)
}

type backendFunc func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

func (f backendFunc) Handle(ctx context.Context, e events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return f(ctx, e)
}

type fixture struct {
	gateway    *Gateway
	authorizer *countingAuthorizer
	backend    *countingBackend
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	auth := &countingAuthorizer{next: authorizer.NewHandler(nil)}
	back := &countingBackend{next: backend.NewHandler(nil)}
	g, err := New(auth, back, opts)
	require.NoError(t, err)
	return fixture{gateway: g, authorizer: auth, backend: back}
}

// do sends a request with headers set verbatim, so non-canonical casing
// such as "authorization" reaches the gateway unchanged.
func (f fixture) do(method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for name, value := range headers {
		req.Header[name] = []string{value}
	}
	rec := httptest.NewRecorder()
	f.gateway.ServeHTTP(rec, req)
	return rec
}

func TestScenario_ExactCaseHeaderAllowed(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, "/check", map[string]string{"Authorization": "allow"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Hello from API"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.EqualValues(t, 1, f.backend.calls.Load())
}

func TestScenario_LowerCaseHeaderAllowed(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, "/check", map[string]string{"authorization": "allow"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Hello from API"}`, rec.Body.String())

	event := f.authorizer.last.Load().(events.APIGatewayCustomAuthorizerRequestTypeRequest)
	assert.Equal(t, "allow", event.Headers["authorization"], "header casing is passed through")
}

func TestScenario_WrongTokenForbidden(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, "/check", map[string]string{"Authorization": "deny"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Forbidden"}`, rec.Body.String())
	assert.EqualValues(t, 0, f.backend.calls.Load(), "backend must not run on deny")
}

func TestScenario_MissingHeaderForbidden(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, "/check", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Forbidden"}`, rec.Body.String())
	assert.EqualValues(t, 0, f.backend.calls.Load())
}

func TestValueIsCaseSensitive(t *testing.T) {
	f := newFixture(t, Options{})

	for _, credential := range []string{"Allow", "ALLOW", ""} {
		rec := f.do(http.MethodGet, "/check", map[string]string{"Authorization": credential})
		assert.Equal(t, http.StatusForbidden, rec.Code, credential)
	}
	assert.EqualValues(t, 0, f.backend.calls.Load())
}

func TestUnknownRoutesAndMethods(t *testing.T) {
	f := newFixture(t, Options{})

	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/"},
		{http.MethodGet, "/other"},
		{http.MethodGet, "/check/deeper"},
		{http.MethodPost, "/check"},
		{http.MethodDelete, "/check"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := f.do(tt.method, tt.target, map[string]string{"Authorization": "allow"})
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.JSONEq(t, `{"message":"Missing Authentication Token"}`, rec.Body.String())
		})
	}
	assert.EqualValues(t, 0, f.authorizer.calls.Load())
	assert.EqualValues(t, 0, f.backend.calls.Load())
}

func TestAuthorizerEvent(t *testing.T) {
	f := newFixture(t, Options{Region: "eu-west-1", Account: "111122223333", APIID: "abc123", Stage: "prod"})

	rec := f.do(http.MethodGet, "/check?x=1", map[string]string{"Authorization": "allow"})
	require.Equal(t, http.StatusOK, rec.Code)

	event := f.authorizer.last.Load().(events.APIGatewayCustomAuthorizerRequestTypeRequest)
	assert.Equal(t, "REQUEST", event.Type)
	assert.Equal(t, "arn:aws:execute-api:eu-west-1:111122223333:abc123/prod/GET/check", event.MethodArn)
	assert.Equal(t, "/check", event.Resource)
	assert.Equal(t, "GET", event.HTTPMethod)
	assert.Equal(t, "1", event.QueryStringParameters["x"])
	assert.Equal(t, "abc123", event.RequestContext.APIID)

	proxy := f.backend.last.Load().(events.APIGatewayProxyRequest)
	assert.Equal(t, "user", proxy.RequestContext.Authorizer["principalId"])
	assert.Equal(t, event.RequestContext.RequestID, proxy.RequestContext.RequestID)
	assert.Equal(t, rec.Header().Get(RequestIDHeader), proxy.RequestContext.RequestID)
}

func TestCache_SkipsAuthorizerForSameCredential(t *testing.T) {
	f := newFixture(t, Options{ResultTTL: time.Minute})

	for i := 0; i < 5; i++ {
		rec := f.do(http.MethodGet, "/check", map[string]string{"Authorization": "allow"})
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.EqualValues(t, 1, f.authorizer.calls.Load())
	assert.EqualValues(t, 5, f.backend.calls.Load())

	for i := 0; i < 3; i++ {
		rec := f.do(http.MethodGet, "/check", map[string]string{"Authorization": "deny"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}
	assert.EqualValues(t, 2, f.authorizer.calls.Load(), "deny decisions are cached too")

	rec := f.do(http.MethodGet, "/check", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(http.MethodGet, "/check", map[string]string{"Authorization": ""})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.EqualValues(t, 3, f.authorizer.calls.Load(), "absent and empty share one entry")
}

func TestCache_KeyIsCaseInsensitiveOnHeaderName(t *testing.T) {
	f := newFixture(t, Options{ResultTTL: time.Minute})

	f.do(http.MethodGet, "/check", map[string]string{"Authorization": "allow"})
	rec := f.do(http.MethodGet, "/check", map[string]string{"authorization": "allow"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, f.authorizer.calls.Load())
}

func TestCache_Disabled(t *testing.T) {
	f := newFixture(t, Options{ResultTTL: 0})

	for i := 0; i < 3; i++ {
		f.do(http.MethodGet, "/check", map[string]string{"Authorization": "allow"})
	}
	assert.EqualValues(t, 3, f.authorizer.calls.Load())
}

func TestCache_Expires(t *testing.T) {
	f := newFixture(t, Options{ResultTTL: 50 * time.Millisecond})

	f.do(http.MethodGet, "/check", map[string]string{"Authorization": "allow"})
	f.do(http.MethodGet, "/check", map[string]string{"Authorization": "allow"})
	assert.EqualValues(t, 1, f.authorizer.calls.Load())

	time.Sleep(150 * time.Millisecond)

	rec := f.do(http.MethodGet, "/check", map[string]string{"Authorization": "allow"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, f.authorizer.calls.Load())
}

func TestCache_PolicyOnlyCoversIssuedResource(t *testing.T) {
	var issuedFor atomic.Value
	auth := &countingAuthorizer{next: authorizerFunc(func(_ context.Context, e events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
		if issuedFor.Load() == nil {
			issuedFor.Store(e.MethodArn)
		}
		return authorizer.Response(authorizer.Decision{
			PrincipalID: "user",
			Effect:      authorizer.Allow,
			Resource:    issuedFor.Load().(string),
		}), nil
	})}
	back := &countingBackend{next: backend.NewHandler(nil)}

	first, err := New(auth, back, Options{APIID: "one", ResultTTL: time.Minute})
	require.NoError(t, err)
	f := fixture{gateway: first, authorizer: auth, backend: back}

	rec := f.do(http.MethodGet, "/check", map[string]string{"Authorization": "allow"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Same cache entry, different method ARN: the cached Allow does not apply.
	f.gateway.opts.APIID = "two"
	rec = f.do(http.MethodGet, "/check", map[string]string{"Authorization": "allow"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.EqualValues(t, 1, auth.calls.Load())
}

func TestCache_ConcurrentRequests(t *testing.T) {
	f := newFixture(t, Options{ResultTTL: time.Minute})

	var wg sync.WaitGroup
	codes := make([]int, 50)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			credential := "allow"
			if i%2 == 1 {
				credential = "deny"
			}
			codes[i] = f.do(http.MethodGet, "/check", map[string]string{"Authorization": credential}).Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if i%2 == 0 {
			assert.Equal(t, http.StatusOK, code)
		} else {
			assert.Equal(t, http.StatusForbidden, code)
		}
	}
	assert.EqualValues(t, 25, f.backend.calls.Load())
}

func TestAuthorizerError(t *testing.T) {
	auth := authorizerFunc(func(context.Context, events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
		return events.APIGatewayCustomAuthorizerResponse{}, errors.New("boom")
	})
	back := &countingBackend{next: backend.NewHandler(nil)}
	g, err := New(auth, back, Options{ResultTTL: time.Minute})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	req.Header.Set("Authorization", "allow")
	g.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.EqualValues(t, 0, back.calls.Load())
	assert.Equal(t, 0, g.cache.Len(), "failures are not cached")
}

func TestBackendError(t *testing.T) {
	back := backendFunc(func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return events.APIGatewayProxyResponse{}, errors.New("crashed")
	})
	g, err := New(authorizer.NewHandler(nil), back, Options{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	req.Header.Set("Authorization", "allow")
	g.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestNew_Validation(t *testing.T) {
	auth := authorizer.NewHandler(nil)
	back := backend.NewHandler(nil)

	_, err := New(nil, back, Options{})
	assert.Error(t, err)
	_, err = New(auth, nil, Options{})
	assert.Error(t, err)
	_, err = New(auth, back, Options{ResultTTL: -time.Second})
	assert.Error(t, err)
	_, err = New(auth, back, Options{ResultTTL: 2 * time.Hour})
	assert.Error(t, err)
	_, err = New(auth, back, Options{Path: "a/b"})
	assert.Error(t, err)

	g, err := New(auth, back, Options{Path: "/status/"})
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:execute-api:us-east-1:123456789012:local/prod/GET/status", g.MethodArn(http.MethodGet))
}

func TestAccessLogAndMetrics(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	f := newFixture(t, Options{
		ResultTTL:     time.Minute,
		Logger:        zap.New(core),
		MeterProvider: provider,
	})

	f.do(http.MethodGet, "/check", map[string]string{"Authorization": "allow"})
	f.do(http.MethodGet, "/check", map[string]string{"Authorization": "allow"})
	f.do(http.MethodGet, "/check", map[string]string{"Authorization": "deny"})

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 3)
	first := entries[0].ContextMap()
	assert.Equal(t, "Allow", first["decision"])
	assert.Equal(t, false, first["cache_hit"])
	assert.EqualValues(t, 200, first["status"])
	assert.NotEmpty(t, first["request_id"])
	assert.Equal(t, true, entries[1].ContextMap()["cache_hit"])
	assert.Equal(t, "Deny", entries[2].ContextMap()["decision"])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	requests := sumByAttributes(t, rm, MetricRequests)
	assert.EqualValues(t, 1, requests[key("Allow", false)])
	assert.EqualValues(t, 1, requests[key("Allow", true)])
	assert.EqualValues(t, 1, requests[key("Deny", false)])

	calls := sumByAttributes(t, rm, MetricAuthorizerCalls)
	var total int64
	for _, v := range calls {
		total += v
	}
	assert.EqualValues(t, 2, total)
}

func key(decision string, cacheHit bool) attribute.Distinct {
	set := attribute.NewSet(
		attribute.String("decision", decision),
		attribute.Bool("cache_hit", cacheHit),
	)
	return set.Equivalent()
}

func sumByAttributes(t *testing.T, rm metricdata.ResourceMetrics, name string) map[attribute.Distinct]int64 {
	t.Helper()
	out := make(map[attribute.Distinct]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				attrs := dp.Attributes
				out[attrs.Equivalent()] += dp.Value
			}
		}
	}
	return out
}

func TestWildcardMatch(t *testing.T) {
	tests := []struct {
		pattern, s string
		want       bool
	}{
		{"arn:aws:execute-api:us-east-1:1:api/prod/GET/check", "arn:aws:execute-api:us-east-1:1:api/prod/GET/check", true},
		{"arn:aws:execute-api:us-east-1:1:api/*", "arn:aws:execute-api:us-east-1:1:api/prod/GET/check", true},
		{"arn:aws:execute-api:us-east-1:1:api/*/GET/*", "arn:aws:execute-api:us-east-1:1:api/prod/POST/check", false},
		{"arn:aws:execute-api:*:1:api/prod/?ET/check", "arn:aws:execute-api:eu-west-1:1:api/prod/GET/check", true},
		{"*", "", true},
		{"a*b", "a*xb", true},
		{"a*b*c", "a*b*xc", true},
		{"a?c", "abbc", false},
		{"abc", "abd", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.s, func(t *testing.T) {
			assert.Equal(t, tt.want, wildcardMatch(tt.pattern, tt.s))
		})
	}
}
