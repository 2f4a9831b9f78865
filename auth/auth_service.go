// Package auth runs the front half of the authorization code flow: building the provider
// redirect and validating the callback that comes back from it.
package auth

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-pkce-client/flowstate"
	"github.com/jrsteele09/go-pkce-client/internal/config"
	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/pkg/errors"
)

// Service starts authorization flows and validates their callbacks.
// It holds no per-flow state; everything between the two steps lives in the flowstate.Repo.
type Service struct {
	config  config.OAuthConfig
	flows   flowstate.Repo
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(cfg config.OAuthConfig, flows flowstate.Repo, options ...ServiceOption) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("[NewService] config is required")
	}
	if flows == nil {
		return nil, errors.New("[NewService] flow state repo is required")
	}

	s := &Service{
		config:  cfg,
		flows:   flows,
		nowTime: time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// checkConfiguration is run before anything is generated or stored.
func (s *Service) checkConfiguration() error {
	switch {
	case s.config.GetClientID() == "":
		return fmt.Errorf("%w: client id is not set", oauthmodel.ErrConfiguration)
	case s.config.GetClientSecret() == "":
		return fmt.Errorf("%w: client secret is not set", oauthmodel.ErrConfiguration)
	case s.config.GetAuthorizeEndpoint() == "":
		return fmt.Errorf("%w: authorize endpoint is not set", oauthmodel.ErrConfiguration)
	case s.config.GetRedirectURI() == "":
		return fmt.Errorf("%w: redirect uri is not set", oauthmodel.ErrConfiguration)
	}
	return nil
}
