package gateway

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
)

func newRequestID() string {
	return uuid.NewString()
}

// authorizerEvent builds the REQUEST authorizer input for r.
func authorizerEvent(r *http.Request, requestID, methodArn string, opts Options) events.APIGatewayCustomAuthorizerRequestTypeRequest {
	headers, multiHeaders := flatten(r.Header)
	query, multiQuery := flatten(r.URL.Query())

	return events.APIGatewayCustomAuthorizerRequestTypeRequest{
		Type:                            "REQUEST",
		MethodArn:                       methodArn,
		Resource:                        "/" + opts.Path,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         headers,
		MultiValueHeaders:               multiHeaders,
		QueryStringParameters:           query,
		MultiValueQueryStringParameters: multiQuery,
		RequestContext: events.APIGatewayCustomAuthorizerRequestTypeRequestContext{
			Path:         "/" + opts.Stage + r.URL.Path,
			AccountID:    opts.Account,
			Stage:        opts.Stage,
			RequestID:    requestID,
			ResourcePath: "/" + opts.Path,
			HTTPMethod:   r.Method,
			APIID:        opts.APIID,
			Identity: events.APIGatewayCustomAuthorizerRequestTypeRequestIdentity{
				SourceIP: sourceIP(r),
			},
		},
	}
}

// proxyEvent builds the Lambda proxy integration input for an allowed r.
func proxyEvent(r *http.Request, requestID string, opts Options, outcome authOutcome) (events.APIGatewayProxyRequest, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return events.APIGatewayProxyRequest{}, err
		}
	}

	headers, multiHeaders := flatten(r.Header)
	query, multiQuery := flatten(r.URL.Query())

	authContext := make(map[string]interface{}, len(outcome.context)+1)
	for k, v := range outcome.context {
		authContext[k] = v
	}
	authContext["principalId"] = outcome.principalID

	now := time.Now()
	return events.APIGatewayProxyRequest{
		Resource:                        "/" + opts.Path,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         headers,
		MultiValueHeaders:               multiHeaders,
		QueryStringParameters:           query,
		MultiValueQueryStringParameters: multiQuery,
		Body:                            string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			AccountID:        opts.Account,
			Stage:            opts.Stage,
			DomainName:       r.Host,
			RequestID:        requestID,
			Protocol:         r.Proto,
			ResourcePath:     "/" + opts.Path,
			Path:             "/" + opts.Stage + r.URL.Path,
			Authorizer:       authContext,
			HTTPMethod:       r.Method,
			RequestTime:      now.UTC().Format("02/Jan/2006:15:04:05 -0700"),
			RequestTimeEpoch: now.UnixMilli(),
			APIID:            opts.APIID,
			Identity: events.APIGatewayRequestIdentity{
				SourceIP: sourceIP(r),
			},
		},
	}, nil
}

// flatten splits multi-valued fields the way API Gateway does: the single
// value map keeps the last value. Names keep the casing they arrived with.
func flatten[M ~map[string][]string](values M) (map[string]string, map[string][]string) {
	if len(values) == 0 {
		return nil, nil
	}
	single := make(map[string]string, len(values))
	multi := make(map[string][]string, len(values))
	for name, vs := range values {
		if len(vs) == 0 {
			continue
		}
		single[name] = vs[len(vs)-1]
		multi[name] = append([]string(nil), vs...)
	}
	return single, multi
}

func sourceIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
