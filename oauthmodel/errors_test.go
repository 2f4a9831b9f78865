package oauthmodel_test

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestProviderError_Matching(t *testing.T) {
	var err error = fmt.Errorf("exchange: %w", &oauthmodel.ProviderError{Status: 400, Code: "invalid_grant"})

	require.ErrorIs(t, err, oauthmodel.ErrProviderError)
	require.NotErrorIs(t, err, oauthmodel.ErrProviderDenied)

	var providerErr *oauthmodel.ProviderError
	require.True(t, errors.As(err, &providerErr))
	require.Equal(t, 400, providerErr.Status)
	require.Equal(t, "invalid_grant", providerErr.Code)
	require.Contains(t, err.Error(), "HTTP 400: invalid_grant")
}

func TestProviderDeniedError_Matching(t *testing.T) {
	err := &oauthmodel.ProviderDeniedError{Code: "access_denied", Description: "user said no"}
	require.ErrorIs(t, err, oauthmodel.ErrProviderDenied)
	require.Equal(t, "authorization denied by provider: access_denied - user said no", err.Error())
}

func TestIsRetryable(t *testing.T) {
	timeout := fmt.Errorf("refresh: %w", oauthmodel.ErrTimeout)

	tests := []struct {
		name  string
		err   error
		grant oauthmodel.GrantType
		want  bool
	}{
		{"nil", nil, oauthmodel.RefreshTokenGrant, false},
		{"timeout on refresh", timeout, oauthmodel.RefreshTokenGrant, true},
		{"timeout on exchange", timeout, oauthmodel.AuthorizationCodeGrant, false},
		{"invalid_grant", &oauthmodel.ProviderError{Status: 400, Code: "invalid_grant"}, oauthmodel.RefreshTokenGrant, false},
		{"server error", &oauthmodel.ProviderError{Status: 503}, oauthmodel.RefreshTokenGrant, true},
		{"rate limited", &oauthmodel.ProviderError{Status: 429}, oauthmodel.AuthorizationCodeGrant, true},
		{"configuration", oauthmodel.ErrConfiguration, oauthmodel.RefreshTokenGrant, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, oauthmodel.IsRetryable(tt.err, tt.grant))
		})
	}
}

func TestAuthorizationRequest_BuildRedirectURL(t *testing.T) {
	req := &oauthmodel.AuthorizationRequest{
		ClientID:            "abc",
		ResponseType:        oauthmodel.CodeResponseType,
		RedirectURI:         "https://app.example/callback",
		Scope:               "accounts:read profiles:read",
		CodeChallenge:       "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		CodeChallengeMethod: oauthmodel.CodeMethodTypeS256,
		State:               "state-1",
	}

	t.Run("keeps existing query", func(t *testing.T) {
		redirect, err := req.BuildRedirectURL("https://provider.example/oauth/authorize?prompt=consent")
		require.NoError(t, err)
		require.Equal(t, redirect, req.RedirectURL)

		u, err := url.Parse(redirect)
		require.NoError(t, err)
		q := u.Query()
		require.Equal(t, "consent", q.Get("prompt"))
		require.Equal(t, "code", q.Get("response_type"))
		require.Equal(t, "abc", q.Get("client_id"))
		require.Equal(t, "https://app.example/callback", q.Get("redirect_uri"))
		require.Equal(t, "accounts:read profiles:read", q.Get("scope"))
		require.Equal(t, "S256", q.Get("code_challenge_method"))
		require.Equal(t, "state-1", q.Get("state"))
		require.False(t, q.Has("code_verifier"))
	})

	t.Run("relative endpoint", func(t *testing.T) {
		_, err := req.BuildRedirectURL("/oauth/authorize")
		require.ErrorIs(t, err, oauthmodel.ErrConfiguration)
	})
}
