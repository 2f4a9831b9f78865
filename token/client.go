// Package token talks to the provider's token endpoint and manages the lifetime of the
// tokens it returns.
package token

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-pkce-client/internal/config"
	"github.com/jrsteele09/go-pkce-client/metrics"
	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/jrsteele09/go-pkce-client/pkce"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const tracerName = "github.com/jrsteele09/go-pkce-client/token"

// Client performs authorization_code and refresh_token grants against the configured
// token endpoint, authenticating with HTTP Basic client credentials.
// It keeps no per-call state and is safe for concurrent use.
type Client struct {
	config    config.OAuthConfig
	transport http.RoundTripper
	nowTime   func() time.Time
	tracer    trace.Tracer
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithNowTime sets the now time function used for IssuedAt (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// WithTransport sets the round tripper used for token requests.
// The request timeout always comes from the OAuth configuration.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

// NewClient creates a token endpoint client from the OAuth configuration.
func NewClient(cfg config.OAuthConfig, options ...ClientOption) *Client {
	c := &Client{
		config:    cfg,
		transport: http.DefaultTransport,
		nowTime:   time.Now,
		tracer:    otel.Tracer(tracerName),
	}
	for _, option := range options {
		option(c)
	}
	c.transport = otelhttp.NewTransport(c.transport)
	return c
}

// ExchangeCode redeems an authorization code together with the verifier of the flow that
// produced it. An empty redirectURI falls back to the configured one.
// A timeout here is terminal: the provider may already have consumed the code.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*oauthmodel.TokenSet, error) {
	if err := c.checkConfiguration(); err != nil {
		return nil, fmt.Errorf("[Client.ExchangeCode] %w", err)
	}
	if code == "" {
		return nil, fmt.Errorf("[Client.ExchangeCode] %w: code is empty", oauthmodel.ErrInvalidRequest)
	}
	if err := pkce.ValidVerifier(codeVerifier); err != nil {
		return nil, fmt.Errorf("[Client.ExchangeCode] %w: %w", oauthmodel.ErrInvalidRequest, err)
	}
	if redirectURI == "" {
		redirectURI = c.config.GetRedirectURI()
	}

	oauthCfg := c.oauth2Config(redirectURI)
	return c.retrieve(ctx, oauthmodel.AuthorizationCodeGrant, func(ctx context.Context) (*oauth2.Token, error) {
		return oauthCfg.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	}, "")
}

// Refresh obtains a new access token. When the provider does not return a new refresh token
// the result's RefreshToken is empty; the caller's RotationPolicy decides what that means.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauthmodel.TokenSet, error) {
	if err := c.checkConfiguration(); err != nil {
		return nil, fmt.Errorf("[Client.Refresh] %w", err)
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("[Client.Refresh] %w: refresh token is empty", oauthmodel.ErrInvalidRequest)
	}

	oauthCfg := c.oauth2Config("")
	return c.retrieve(ctx, oauthmodel.RefreshTokenGrant, func(ctx context.Context) (*oauth2.Token, error) {
		return oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	}, refreshToken)
}

func (c *Client) checkConfiguration() error {
	switch {
	case c.config.GetClientID() == "":
		return fmt.Errorf("%w: client id is not set", oauthmodel.ErrConfiguration)
	case c.config.GetClientSecret() == "":
		return fmt.Errorf("%w: client secret is not set", oauthmodel.ErrConfiguration)
	case c.config.GetTokenEndpoint() == "":
		return fmt.Errorf("%w: token endpoint is not set", oauthmodel.ErrConfiguration)
	}
	return nil
}

func (c *Client) oauth2Config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.config.GetClientID(),
		ClientSecret: c.config.GetClientSecret(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.config.GetAuthorizeEndpoint(),
			TokenURL:  c.config.GetTokenEndpoint(),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		RedirectURL: redirectURI,
	}
}

// retrieve runs one token request. presented is the refresh token sent, if any.
func (c *Client) retrieve(ctx context.Context, grant oauthmodel.GrantType, fetch func(context.Context) (*oauth2.Token, error), presented string) (*oauthmodel.TokenSet, error) {
	ctx, span := c.tracer.Start(ctx, "token."+string(grant),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("oauth.grant_type", string(grant))),
	)
	defer span.End()

	recorder := &statusRecorder{
		base:         c.transport,
		clientID:     c.config.GetClientID(),
		clientSecret: c.config.GetClientSecret(),
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Transport: recorder,
		Timeout:   c.config.GetTokenTimeout(),
	})

	start := time.Now()
	tok, err := fetch(ctx)
	elapsed := time.Since(start)
	metrics.TokenRequestDuration.WithLabelValues(string(grant)).Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("http.response.status_code", recorder.Status()))

	var ts *oauthmodel.TokenSet
	if err == nil {
		ts, err = c.toTokenSet(grant, tok, presented)
	} else {
		err = mapRetrieveError(grant, recorder.Status(), err)
	}
	metrics.TokenRequests.WithLabelValues(string(grant), metrics.OutcomeFor(err)).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, metrics.OutcomeFor(err))
		log.Debug().Str("grant_type", string(grant)).Int("status", recorder.Status()).Dur("elapsed", elapsed).Err(err).Msg("token request failed")
		return nil, err
	}

	log.Debug().Str("grant_type", string(grant)).Int64("expires_in", ts.ExpiresIn).Dur("elapsed", elapsed).Msg("token request succeeded")
	return ts, nil
}

func (c *Client) toTokenSet(grant oauthmodel.GrantType, tok *oauth2.Token, presented string) (*oauthmodel.TokenSet, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, fmt.Errorf("%s: %w: access_token missing", grant, oauthmodel.ErrMalformedTokenResponse)
	}

	now := c.nowTime()
	ts := &oauthmodel.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
		IssuedAt:     now,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		ts.Scope = scope
	}
	if ts.ExpiresIn <= 0 {
		ts.ExpiresIn = expiresInFromExtra(tok)
	}
	if ts.ExpiresIn <= 0 && !tok.Expiry.IsZero() {
		ts.ExpiresIn = int64(tok.Expiry.Sub(now).Round(time.Second) / time.Second)
	}
	if ts.ExpiresIn <= 0 {
		ts.ExpiresIn = expiresInFromJWT(tok.AccessToken, now)
	}

	// x/oauth2 copies the presented refresh token into the result when the response
	// has none. Report that case as "not issued".
	if grant == oauthmodel.RefreshTokenGrant && tok.RefreshToken == presented {
		if raw, _ := tok.Extra("refresh_token").(string); raw != presented {
			ts.RefreshToken = ""
		}
	}
	return ts, nil
}

// expiresInFromExtra reads expires_in from the raw response. x/oauth2 only fills
// Token.ExpiresIn for JSON bodies; form-encoded bodies and string values land here.
func expiresInFromExtra(tok *oauth2.Token) int64 {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case string:
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return secs
	}
	return 0
}

// expiresInFromJWT reads the unverified exp claim of a JWT access token.
// The value is informational; the token is never trusted on the strength of it.
func expiresInFromJWT(accessToken string, now time.Time) int64 {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	secs := int64(claims.ExpiresAt.Time.Sub(now) / time.Second)
	if secs < 1 {
		// already expired; keep the lifetime known so it reports as expiring
		return 1
	}
	return secs
}

func mapRetrieveError(grant oauthmodel.GrantType, status int, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		providerErr := &oauthmodel.ProviderError{
			Status:      status,
			Code:        retrieveErr.ErrorCode,
			Description: retrieveErr.ErrorDescription,
			Body:        retrieveErr.Body,
		}
		if retrieveErr.Response != nil {
			providerErr.Status = retrieveErr.Response.StatusCode
		}
		return providerErr
	}
	if isTimeout(err) {
		return fmt.Errorf("%s: %w", grant, oauthmodel.ErrTimeout)
	}
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return fmt.Errorf("%s: %w", grant, oauthmodel.ErrMalformedTokenResponse)
	}
	return fmt.Errorf("%s: token request: %w", grant, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// statusRecorder remembers the status of the last response so a 2xx that x/oauth2
// could not parse can be told apart from a transport failure.
// It also sends the client credentials as base64(client_id:client_secret) without the
// form-encoding x/oauth2 applies to them first.
type statusRecorder struct {
	base         http.RoundTripper
	clientID     string
	clientSecret string
	status       atomic.Int32
}

func (r *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	if r.clientID != "" {
		req = req.Clone(req.Context())
		req.SetBasicAuth(r.clientID, r.clientSecret)
	}
	resp, err := r.base.RoundTrip(req)
	if resp != nil {
		r.status.Store(int32(resp.StatusCode))
	}
	return resp, err
}

func (r *statusRecorder) Status() int {
	return int(r.status.Load())
}
