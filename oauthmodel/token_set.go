package oauthmodel

import "time"

// TokenSet represents the result of a successful token endpoint request.
// It is owned by the caller once returned; this module never persists it on its own.
type TokenSet struct {
	// AccessToken is used to call the provider's protected APIs.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Optional: providers may omit it, or omit it on refresh when they do not rotate.
	// On a refresh response an empty value means "no new refresh token issued".
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType indicates how to use the access token, normally "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token, relative to IssuedAt.
	// Zero means the provider did not say.
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// Scope is the space-separated list of scopes granted.
	// May be less than requested if some scopes were denied.
	Scope string `json:"scope,omitempty"`

	// IssuedAt is set by this client when the token response is received.
	IssuedAt time.Time `json:"issued_at"`
}

// ExpiresAt returns the absolute expiry of the access token and false when the lifetime is unknown.
func (t *TokenSet) ExpiresAt() (time.Time, bool) {
	if t == nil || t.ExpiresIn <= 0 {
		return time.Time{}, false
	}
	return t.IssuedAt.Add(time.Duration(t.ExpiresIn) * time.Second), true
}

// Clone returns a copy so stores can hand out values without sharing memory.
func (t *TokenSet) Clone() *TokenSet {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
