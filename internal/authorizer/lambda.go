package authorizer

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// PolicyVersion is the IAM policy language version.
const PolicyVersion = "2012-10-17"

// InvokeAction is the action granted or denied by the returned policy.
const InvokeAction = "execute-api:Invoke"

// Handler adapts Decide to a Lambda REQUEST authorizer.
type Handler struct {
	logger *zap.Logger
}

// NewHandler returns a Handler. A nil logger disables logging.
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger}
}

// Handle answers an API Gateway REQUEST authorizer event. A denial comes back
// as an explicit Deny policy, which API Gateway turns into a 403; the error
// return is reserved for failures of the handler itself and is always nil.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	if ce := h.logger.Check(zap.DebugLevel, "authorizer request"); ce != nil {
		ce.Write(
			zap.String("method_arn", event.MethodArn),
			zap.String("path", event.Path),
			zap.String("http_method", event.HTTPMethod),
			zap.Any("headers", redact(event.Headers)),
		)
	}

	d := Decide(FromEvent(event))
	h.logger.Info("authorizer decision",
		zap.String("effect", string(d.Effect)),
		zap.String("method_arn", event.MethodArn),
	)
	return Response(d), nil
}

// FromEvent converts a REQUEST authorizer event into a Request.
func FromEvent(event events.APIGatewayCustomAuthorizerRequestTypeRequest) Request {
	return Request{
		Headers:  event.Headers,
		Resource: event.MethodArn,
		Path:     event.Path,
		Method:   event.HTTPMethod,
	}
}

// Response renders d as an authorizer response with a single-statement policy.
func Response(d Decision) events.APIGatewayCustomAuthorizerResponse {
	principal := d.PrincipalID
	if principal == "" {
		principal = Principal
	}
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: principal,
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: PolicyVersion,
			Statement: []events.IAMPolicyStatement{
				{
					Action:   []string{InvokeAction},
					Effect:   string(d.Effect),
					Resource: []string{d.Resource},
				},
			},
		},
	}
}

// redact copies headers with the credential value masked.
func redact(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		if strings.EqualFold(name, HeaderName) {
			value = "[redacted]"
		}
		out[name] = value
	}
	return out
}
