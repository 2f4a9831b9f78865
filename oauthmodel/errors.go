package oauthmodel

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfiguration is returned before any network call or store write when credentials or endpoints are unset.
	ErrConfiguration = errors.New("oauth client is not configured")
	// ErrMalformedCallback is returned when the callback lacks code or state.
	ErrMalformedCallback = errors.New("malformed callback: missing code or state")
	// ErrProviderDenied matches a *ProviderDeniedError.
	ErrProviderDenied = errors.New("authorization denied by provider")
	// ErrInvalidState covers unknown, expired and replayed state values.
	ErrInvalidState = errors.New("invalid state")
	// ErrProviderError matches a *ProviderError.
	ErrProviderError = errors.New("token endpoint returned an error")
	// ErrTimeout is returned when the token endpoint did not answer within the configured timeout.
	ErrTimeout = errors.New("token endpoint request timed out")
	// ErrInvalidRequest is returned for empty codes, refresh tokens or malformed verifiers.
	ErrInvalidRequest = errors.New("invalid token request")
	// ErrMalformedTokenResponse is returned when a successful response cannot be used as a token.
	ErrMalformedTokenResponse = errors.New("malformed token response")
)

// ProviderDeniedError is produced when the provider redirects back with an error parameter,
// e.g. access_denied after the user refused consent. The flow must be restarted.
type ProviderDeniedError struct {
	Code        string
	Description string
}

func (e *ProviderDeniedError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("authorization denied by provider: %s", e.Code)
	}
	return fmt.Sprintf("authorization denied by provider: %s - %s", e.Code, e.Description)
}

func (e *ProviderDeniedError) Is(target error) bool {
	return target == ErrProviderDenied
}

// ProviderError carries a non-2xx token endpoint response.
// Callers branch on Code: invalid_grant means the user must re-authorize,
// a 5xx may be retried with backoff.
type ProviderError struct {
	Status      int
	Code        string
	Description string
	Body        []byte
}

func (e *ProviderError) Error() string {
	code := e.Code
	if code == "" {
		code = "unknown_error"
	}
	if e.Description == "" {
		return fmt.Sprintf("token endpoint returned HTTP %d: %s", e.Status, code)
	}
	return fmt.Sprintf("token endpoint returned HTTP %d: %s - %s", e.Status, code, e.Description)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderError
}

// Retryable reports whether the same request may succeed later.
// invalid_grant, invalid_client and other 4xx rejections are terminal.
func (e *ProviderError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

// IsRetryable reports whether a token request that failed with err may be retried by the caller.
// A timed out code exchange is not retryable: the provider may already have redeemed the code.
func IsRetryable(err error, grant GrantType) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return grant == RefreshTokenGrant
	}
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable()
	}
	return false
}
