package oauthmodel

import (
	"fmt"
	"net/url"
)

// AuthorizationRequest holds the parameters sent to the provider's authorization endpoint.
// It is derived per flow start and never stored. It never carries the code verifier.
type AuthorizationRequest struct {
	// ClientID identifies this application at the provider.
	// Example: "abc"
	ClientID string

	// ResponseType is always "code".
	ResponseType ResponseType

	// RedirectURI is where the provider sends the user back.
	// Must byte-for-byte match the value registered with the provider and the value sent at the token step.
	// Example: "https://app.example/callback"
	RedirectURI string

	// Scope is the space-separated list of scopes requested.
	// Example: "accounts:read profiles:read"
	Scope string

	// CodeChallenge is BASE64URL(SHA256(code_verifier)).
	CodeChallenge string

	// CodeChallengeMethod is always S256.
	CodeChallengeMethod CodeMethodType

	// State is the opaque CSRF token round-tripped through the provider.
	State string

	// RedirectURL is the fully formed URL the browser should be sent to.
	RedirectURL string
}

// BuildRedirectURL composes the authorization endpoint URL with the request's query parameters.
// Query parameters already present on the endpoint are kept.
func (r *AuthorizationRequest) BuildRedirectURL(authorizeEndpoint string) (string, error) {
	u, err := url.Parse(authorizeEndpoint)
	if err != nil {
		return "", fmt.Errorf("parse authorize endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("authorize endpoint %q must be absolute: %w", authorizeEndpoint, ErrConfiguration)
	}

	q := u.Query()
	q.Set(ParamResponseType, string(r.ResponseType))
	q.Set(ParamClientID, r.ClientID)
	q.Set(ParamRedirectURI, r.RedirectURI)
	if r.Scope != "" {
		q.Set(ParamScope, r.Scope)
	}
	q.Set(ParamCodeChallenge, r.CodeChallenge)
	q.Set(ParamCodeChallengeMethod, string(r.CodeChallengeMethod))
	q.Set(ParamState, r.State)
	u.RawQuery = q.Encode()

	r.RedirectURL = u.String()
	return r.RedirectURL, nil
}
