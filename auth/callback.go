package auth

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-pkce-client/flowstate"
	"github.com/jrsteele09/go-pkce-client/metrics"
	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CallbackResult is a validated callback, ready for the token exchange.
type CallbackResult struct {
	Code         string
	CodeVerifier string
	RedirectURI  string
	UserID       string
	ReturnURL    string
}

// HandleCallback validates the parameters the provider redirected back with and consumes
// the pending flow they belong to. A state can be consumed at most once.
func (s *Service) HandleCallback(ctx context.Context, params url.Values) (*CallbackResult, error) {
	result, err := s.handleCallback(ctx, params)
	metrics.Callbacks.WithLabelValues(metrics.OutcomeFor(err)).Inc()
	return result, err
}

func (s *Service) handleCallback(ctx context.Context, params url.Values) (*CallbackResult, error) {
	// A provider error wins over everything else and leaves the pending flow alone.
	if errCode := params.Get(oauthmodel.ParamError); errCode != "" {
		log.Warn().Str("error", errCode).Msg("authorization denied by provider")
		return nil, &oauthmodel.ProviderDeniedError{
			Code:        errCode,
			Description: params.Get(oauthmodel.ParamErrorDescription),
		}
	}

	code := params.Get(oauthmodel.ParamCode)
	state := params.Get(oauthmodel.ParamState)
	if code == "" || state == "" {
		return nil, errors.Wrap(oauthmodel.ErrMalformedCallback, "[Service.HandleCallback]")
	}

	flow, err := s.flows.Take(ctx, state)
	if err != nil {
		if errors.Is(err, flowstate.ErrStateNotFound) {
			// unknown, expired or replayed: possible CSRF
			log.Warn().Msg("callback state did not match a pending flow")
			return nil, errors.Wrap(oauthmodel.ErrInvalidState, "[Service.HandleCallback]")
		}
		return nil, errors.Wrap(err, "[Service.HandleCallback] take pending flow")
	}

	log.Debug().Str("user_id", flow.UserID).Dur("age", s.nowTime().Sub(flow.CreatedAt)).Msg("authorization callback accepted")
	return &CallbackResult{
		Code:         code,
		CodeVerifier: flow.CodeVerifier,
		RedirectURI:  flow.RedirectURI,
		UserID:       flow.UserID,
		ReturnURL:    flow.ReturnURL,
	}, nil
}
