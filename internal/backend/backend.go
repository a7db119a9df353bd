// Package backend answers requests that passed the authorizer.
package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// Message is the acknowledgement returned to every authorized caller.
const Message = "Hello from API"

// Body is the JSON payload of an AccessResponse.
type Body struct {
	Message string `json:"message"`
}

// AccessResponse is the result of handling an authorized request.
type AccessResponse struct {
	StatusCode int
	Body       Body
}

// Respond returns the fixed acknowledgement. It does not look at the request.
func Respond() AccessResponse {
	return AccessResponse{StatusCode: http.StatusOK, Body: Body{Message: Message}}
}

// JSON renders the body as {"message":"..."}.
func (r AccessResponse) JSON() []byte {
	// Marshalling a struct with one string field cannot fail.
	data, _ := json.Marshal(r.Body)
	return data
}

// Handler adapts Respond to a Lambda proxy integration.
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

// Handle answers an API Gateway proxy event.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp := Respond()
	h.logger.Debug("backend request",
		zap.String("request_id", event.RequestContext.RequestID),
		zap.String("path", event.Path),
		zap.String("http_method", event.HTTPMethod),
		zap.String("principal", principal(event)),
	)
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(resp.JSON()),
	}, nil
}

// principal reads the principal id the authorizer attached to the request.
func principal(event events.APIGatewayProxyRequest) string {
	if event.RequestContext.Authorizer == nil {
		return ""
	}
	id, _ := event.RequestContext.Authorizer["principalId"].(string)
	return id
}
