package auth

import (
	"context"

	"github.com/jrsteele09/go-pkce-client/flowstate"
	"github.com/jrsteele09/go-pkce-client/metrics"
	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/jrsteele09/go-pkce-client/pkce"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FlowOption attaches caller context to a pending flow. None of it is sent to the provider.
type FlowOption func(*flowOptions)

type flowOptions struct {
	userID    string
	returnURL string
}

// WithUserID records which local user the tokens of this flow belong to.
func WithUserID(userID string) FlowOption {
	return func(o *flowOptions) {
		o.userID = userID
	}
}

// WithReturnURL records where to send the browser once the callback succeeds.
func WithReturnURL(returnURL string) FlowOption {
	return func(o *flowOptions) {
		o.returnURL = returnURL
	}
}

// StartFlow generates a state and a PKCE pair, stores the pending flow, and returns the
// authorization request including the URL to redirect the user agent to.
// The code verifier never leaves the store.
func (s *Service) StartFlow(ctx context.Context, opts ...FlowOption) (*oauthmodel.AuthorizationRequest, error) {
	if err := s.checkConfiguration(); err != nil {
		return nil, errors.Wrap(err, "[Service.StartFlow]")
	}

	var fo flowOptions
	for _, opt := range opts {
		opt(&fo)
	}

	state, err := pkce.GenerateState()
	if err != nil {
		return nil, errors.Wrap(err, "[Service.StartFlow] generate state")
	}
	pair, err := pkce.NewPair()
	if err != nil {
		return nil, errors.Wrap(err, "[Service.StartFlow] generate pkce pair")
	}

	req := &oauthmodel.AuthorizationRequest{
		ClientID:            s.config.GetClientID(),
		ResponseType:        oauthmodel.CodeResponseType,
		RedirectURI:         s.config.GetRedirectURI(),
		Scope:               s.config.GetScope(),
		CodeChallenge:       pair.Challenge,
		CodeChallengeMethod: pair.Method,
		State:               state,
	}
	// Build before storing so a bad endpoint leaves nothing behind.
	if _, err := req.BuildRedirectURL(s.config.GetAuthorizeEndpoint()); err != nil {
		return nil, errors.Wrap(err, "[Service.StartFlow]")
	}

	flow := &flowstate.PendingFlow{
		State:        state,
		CodeVerifier: pair.Verifier,
		RedirectURI:  req.RedirectURI,
		UserID:       fo.userID,
		ReturnURL:    fo.returnURL,
		CreatedAt:    s.nowTime(),
	}
	if err := s.flows.Put(ctx, flow, s.config.GetStateTTL()); err != nil {
		return nil, errors.Wrap(err, "[Service.StartFlow] store pending flow")
	}

	metrics.FlowsStarted.Inc()
	log.Debug().Str("user_id", fo.userID).Dur("ttl", s.config.GetStateTTL()).Msg("authorization flow started")
	return req, nil
}
