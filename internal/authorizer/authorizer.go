// Package authorizer decides whether a request may reach the backend.
//
// The check is a literal comparison of the Authorization header against
// AcceptToken. There is no signature, expiry or per-caller identity: the
// token is a development placeholder and must not guard production traffic.
package authorizer

import (
	"errors"
)

// AcceptToken is the only credential that is allowed.
const AcceptToken = "allow"

// Principal is the principal id reported on every Allow decision.
const Principal = "user"

// HeaderName is the header carrying the credential.
const HeaderName = "Authorization"

// ErrAuthorizationDenied is returned for every credential other than
// AcceptToken, including an absent header.
var ErrAuthorizationDenied = errors.New("authorization denied")

// Effect is the outcome of a decision.
type Effect string

const (
	Allow Effect = "Allow"
	Deny  Effect = "Deny"
)

// Request is the part of an inbound request the decision reads.
type Request struct {
	// Headers as received; name casing varies by transport.
	Headers map[string]string
	// Resource names the protected operation, usually a method ARN.
	Resource string
	Path     string
	Method   string
}

// Decision is the tagged result of Decide.
type Decision struct {
	PrincipalID string
	Effect      Effect
	Resource    string
}

// Allowed reports whether d grants access.
func (d Decision) Allowed() bool {
	return d.Effect == Allow
}

// Decide returns Allow with PrincipalID and Resource set when the credential
// equals AcceptToken exactly, and a bare Deny for the request's resource
// otherwise.
func Decide(req Request) Decision {
	if Credential(req.Headers) == AcceptToken {
		return Decision{PrincipalID: Principal, Effect: Allow, Resource: req.Resource}
	}
	return Decision{Effect: Deny, Resource: req.Resource}
}

// Authorize is Decide in error form: a denial is reported as
// ErrAuthorizationDenied and no Allow decision is returned with it.
func Authorize(req Request) (Decision, error) {
	d := Decide(req)
	if !d.Allowed() {
		return Decision{}, ErrAuthorizationDenied
	}
	return d, nil
}
