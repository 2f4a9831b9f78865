package config

import (
	"strings"
	"time"
)

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetScope() string
	GetAuthorizeEndpoint() string
	GetTokenEndpoint() string
	GetTokenTimeout() time.Duration
	GetStateTTL() time.Duration
	GetExpirySkew() time.Duration
	GetRefreshRotation() string
}

const (
	RefreshRotationRetain = "retain"
	RefreshRotationDrop   = "drop"
)

// OAuth holds the provider registration of this confidential client.
type OAuth struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`

	// RedirectURI must byte-for-byte match the value registered with the provider.
	RedirectURI string `env:"REDIRECT_URI" envDefault:"http://localhost:5000/auth/callback" validate:"required,url"`

	// Scope is space separated, e.g. "accounts:read profiles:read".
	Scope string `env:"SCOPES" envDefault:"accounts:read profiles:read"`

	AuthorizeEndpoint string `env:"AUTHORIZE_ENDPOINT" validate:"omitempty,url"`
	TokenEndpoint     string `env:"TOKEN_ENDPOINT" validate:"omitempty,url"`

	TokenTimeout    time.Duration `env:"TOKEN_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	StateTTL        time.Duration `env:"STATE_TTL" envDefault:"10m" validate:"gt=0"`
	ExpirySkew      time.Duration `env:"EXPIRY_SKEW" envDefault:"60s" validate:"gte=0"`
	RefreshRotation string        `env:"REFRESH_ROTATION" envDefault:"retain" validate:"oneof=retain drop"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientID() string {
	return o.ClientID
}

func (o OAuth) GetClientSecret() string {
	return o.ClientSecret
}

func (o OAuth) GetRedirectURI() string {
	return o.RedirectURI
}

// GetScope normalises whitespace so the scope is sent as single-space separated tokens.
func (o OAuth) GetScope() string {
	return strings.Join(strings.Fields(o.Scope), " ")
}

func (o OAuth) GetAuthorizeEndpoint() string {
	return o.AuthorizeEndpoint
}

func (o OAuth) GetTokenEndpoint() string {
	return o.TokenEndpoint
}

func (o OAuth) GetTokenTimeout() time.Duration {
	if o.TokenTimeout <= 0 {
		return 30 * time.Second
	}
	return o.TokenTimeout
}

func (o OAuth) GetStateTTL() time.Duration {
	if o.StateTTL <= 0 {
		return 10 * time.Minute
	}
	return o.StateTTL
}

func (o OAuth) GetExpirySkew() time.Duration {
	return o.ExpirySkew
}

func (o OAuth) GetRefreshRotation() string {
	if o.RefreshRotation == "" {
		return RefreshRotationRetain
	}
	return o.RefreshRotation
}
