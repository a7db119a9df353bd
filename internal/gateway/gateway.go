// Package gateway emulates the API Gateway front door locally: it routes
// GET /check through the REQUEST authorizer, caches the returned policy per
// credential and dispatches allowed requests to the backend.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gorilla/mux"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lex00/authgate-aws-go/internal/config"
)

const instrumentationName = "github.com/lex00/authgate-aws-go/internal/gateway"

// RequestIDHeader carries the request id on every response.
const RequestIDHeader = "X-Amzn-RequestId"

// Response bodies of the managed gateway.
const (
	messageMissingToken = "Missing Authentication Token"
	messageForbidden    = "Forbidden"
	messageInternal     = "Internal server error"
)

// DefaultCacheSize bounds the number of cached credentials.
const DefaultCacheSize = 1024

// Authorizer is a REQUEST authorizer, such as authorizer.Handler.
type Authorizer interface {
	Handle(ctx context.Context, event events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error)
}

// Backend is a Lambda proxy integration, such as backend.Handler.
type Backend interface {
	Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// Options configures a Gateway. Zero values take the defaults noted.
type Options struct {
	Region  string // us-east-1
	Account string // 123456789012
	APIID   string // local
	Stage   string // prod
	// Path is the single protected resource, without the leading slash (check).
	Path string
	// ResultTTL is how long a policy is reused for the same credential.
	// Zero disables caching.
	ResultTTL time.Duration
	// CacheSize bounds the cache (DefaultCacheSize).
	CacheSize int

	Logger         *zap.Logger
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Gateway is an http.Handler fronting one authorized resource.
type Gateway struct {
	opts       Options
	authorizer Authorizer
	backend    Backend
	router     *mux.Router
	cache      *expirable.LRU[string, cachedPolicy]
	logger     *zap.Logger
	tracer     trace.Tracer
	metrics    instruments
}

// New builds a Gateway around the authorizer and backend.
func New(auth Authorizer, backend Backend, opts Options) (*Gateway, error) {
	if auth == nil {
		return nil, fmt.Errorf("authorizer is required")
	}
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if opts.ResultTTL < 0 || opts.ResultTTL > config.MaxResultTTL {
		return nil, fmt.Errorf("result ttl %s out of range [0, %s]", opts.ResultTTL, config.MaxResultTTL)
	}

	opts = withDefaults(opts)
	if strings.ContainsAny(opts.Path, "/{}") {
		return nil, fmt.Errorf("path %q must be a single segment", opts.Path)
	}

	g := &Gateway{
		opts:       opts,
		authorizer: auth,
		backend:    backend,
		logger:     opts.Logger,
		tracer:     opts.TracerProvider.Tracer(instrumentationName),
		metrics:    newInstruments(opts.MeterProvider.Meter(instrumentationName)),
	}
	if opts.ResultTTL > 0 {
		g.cache = expirable.NewLRU[string, cachedPolicy](opts.CacheSize, nil, opts.ResultTTL)
	}

	router := mux.NewRouter()
	router.HandleFunc("/"+opts.Path, g.handleCheck).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(g.handleUnknown)
	router.MethodNotAllowedHandler = http.HandlerFunc(g.handleUnknown)
	g.router = router

	return g, nil
}

func withDefaults(opts Options) Options {
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if opts.Account == "" {
		opts.Account = "123456789012"
	}
	if opts.APIID == "" {
		opts.APIID = config.DefaultAPIID
	}
	if opts.Stage == "" {
		opts.Stage = config.DefaultStage
	}
	opts.Path = strings.Trim(opts.Path, "/")
	if opts.Path == "" {
		opts.Path = "check"
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = otel.GetMeterProvider()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	return opts
}

// MethodArn returns the execute-api ARN of method on the protected resource.
func (g *Gateway) MethodArn(method string) string {
	return fmt.Sprintf("arn:aws:execute-api:%s:%s:%s/%s/%s/%s",
		g.opts.Region, g.opts.Account, g.opts.APIID, g.opts.Stage, method, g.opts.Path)
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.router.ServeHTTP(w, r)
}

// handleUnknown answers routes and methods that are not declared, the way API
// Gateway does for a REST API.
func (g *Gateway) handleUnknown(w http.ResponseWriter, r *http.Request) {
	requestID := newRequestID()
	writeMessage(w, requestID, http.StatusForbidden, messageMissingToken)
	g.logger.Info("request",
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", http.StatusForbidden),
		zap.String("outcome", "no_route"),
	)
	g.metrics.recordRequest(r.Context(), "no_route", false)
}

func (g *Gateway) handleCheck(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := newRequestID()

	ctx, span := g.tracer.Start(r.Context(), "gateway.request",
		trace.WithAttributes(requestAttributes(requestID, r)...))
	defer span.End()

	methodArn := g.MethodArn(r.Method)
	outcome, cacheHit := g.authorize(ctx, requestID, methodArn, r)

	status := http.StatusForbidden
	switch outcome.effect {
	case effectAllow:
		status = g.invokeBackend(ctx, w, requestID, r, outcome)
	case effectDeny:
		writeMessage(w, requestID, http.StatusForbidden, messageForbidden)
	default:
		status = http.StatusInternalServerError
		writeMessage(w, requestID, status, messageInternal)
	}

	latency := time.Since(start)
	g.logger.Info("request",
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("decision", string(outcome.effect)),
		zap.Bool("cache_hit", cacheHit),
		zap.Duration("latency", latency),
	)
	g.metrics.recordRequest(ctx, string(outcome.effect), cacheHit)
	g.metrics.recordDuration(ctx, latency)
	endSpan(span, status, outcome.effect, cacheHit)
}

// invokeBackend dispatches an allowed request and copies the proxy response
// to w. It returns the status written.
func (g *Gateway) invokeBackend(ctx context.Context, w http.ResponseWriter, requestID string, r *http.Request, outcome authOutcome) int {
	event, err := proxyEvent(r, requestID, g.opts, outcome)
	if err != nil {
		g.logger.Warn("reading request body", zap.String("request_id", requestID), zap.Error(err))
		writeMessage(w, requestID, http.StatusBadRequest, "Bad request")
		return http.StatusBadRequest
	}

	resp, err := g.backend.Handle(ctx, event)
	if err != nil {
		g.logger.Error("backend failed", zap.String("request_id", requestID), zap.Error(err))
		writeMessage(w, requestID, http.StatusBadGateway, messageInternal)
		return http.StatusBadGateway
	}

	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	for name, values := range resp.MultiValueHeaders {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	w.Header().Set(RequestIDHeader, requestID)

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if _, err := w.Write([]byte(resp.Body)); err != nil {
		g.logger.Warn("writing response", zap.String("request_id", requestID), zap.Error(err))
	}
	return status
}

func writeMessage(w http.ResponseWriter, requestID string, status int, message string) {
	// Marshalling a struct with one string field cannot fail.
	body, _ := json.Marshal(struct {
		Message string `json:"message"`
	}{message})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(RequestIDHeader, requestID)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
