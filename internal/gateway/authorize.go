package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/lex00/authgate-aws-go/internal/authorizer"
)

type effect string

const (
	effectAllow effect = "Allow"
	effectDeny  effect = "Deny"
	effectError effect = "Error"
)

// cachedPolicy is what API Gateway keeps per credential: the authorizer's
// answer, re-evaluated against each request's method ARN.
type cachedPolicy struct {
	response events.APIGatewayCustomAuthorizerResponse
}

type authOutcome struct {
	effect      effect
	principalID string
	context     map[string]interface{}
}

// authorize resolves the decision for r, from the cache when possible.
// The second result reports a cache hit.
func (g *Gateway) authorize(ctx context.Context, requestID, methodArn string, r *http.Request) (authOutcome, bool) {
	event := authorizerEvent(r, requestID, methodArn, g.opts)
	key := authorizer.Credential(event.Headers)

	if g.cache != nil {
		if cached, ok := g.cache.Get(key); ok {
			return evaluate(cached.response, methodArn), true
		}
	}

	g.metrics.recordAuthorizerCall(ctx)
	resp, err := g.authorizer.Handle(ctx, event)
	if err != nil {
		g.logger.Error("authorizer failed", zap.String("request_id", requestID), zap.Error(err))
		return authOutcome{effect: effectError}, false
	}

	if g.cache != nil {
		g.cache.Add(key, cachedPolicy{response: resp})
	}
	return evaluate(resp, methodArn), false
}

// evaluate applies an authorizer policy to methodArn. An explicit Deny on a
// matching statement wins; otherwise a matching Allow is required.
func evaluate(resp events.APIGatewayCustomAuthorizerResponse, methodArn string) authOutcome {
	allowed := false
	for _, stmt := range resp.PolicyDocument.Statement {
		if !actionMatches(stmt.Action) || !resourceMatches(stmt.Resource, methodArn) {
			continue
		}
		switch stmt.Effect {
		case string(effectDeny):
			return authOutcome{effect: effectDeny}
		case string(effectAllow):
			allowed = true
		}
	}

	if !allowed {
		return authOutcome{effect: effectDeny}
	}
	return authOutcome{effect: effectAllow, principalID: resp.PrincipalID, context: resp.Context}
}

func actionMatches(actions []string) bool {
	for _, action := range actions {
		if wildcardMatch(action, authorizer.InvokeAction) {
			return true
		}
	}
	return false
}

func resourceMatches(resources []string, methodArn string) bool {
	for _, resource := range resources {
		if wildcardMatch(resource, methodArn) {
			return true
		}
	}
	return false
}

// wildcardMatch matches s against an IAM-style pattern where * matches any
// run of characters and ? matches exactly one.
func wildcardMatch(pattern, s string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return pattern == s
	}

	p, i := 0, 0
	star, mark := -1, 0
	for i < len(s) {
		switch {
		case p < len(pattern) && pattern[p] == '*':
			star, mark = p, i
			p++
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == s[i]):
			p++
			i++
		case star >= 0:
			p = star + 1
			mark++
			i = mark
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
