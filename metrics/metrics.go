// Package metrics holds the Prometheus collectors for the authorization flow and token endpoint calls.
package metrics

import (
	"errors"

	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Callback outcomes
const (
	OutcomeSuccess      = "success"
	OutcomeDenied       = "denied"
	OutcomeMalformed    = "malformed"
	OutcomeInvalidState = "invalid_state"
	OutcomeProviderErr  = "provider_error"
	OutcomeTimeout      = "timeout"
	OutcomeError        = "error"
)

var (
	// FlowsStarted counts authorization redirects issued.
	FlowsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pkceclient_flows_started_total",
			Help: "The total number of authorization flows started.",
		},
	)

	// Callbacks counts callbacks by outcome.
	Callbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkceclient_callbacks_total",
			Help: "The total number of authorization callbacks handled, by outcome.",
		},
		[]string{"outcome"},
	)

	// TokenRequests counts token endpoint calls by grant type and outcome.
	TokenRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkceclient_token_requests_total",
			Help: "The total number of token endpoint requests, by grant type and outcome.",
		},
		[]string{"grant_type", "outcome"},
	)

	// TokenRequestDuration is a histogram of token endpoint latency.
	TokenRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pkceclient_token_request_duration_seconds",
			Help:    "A histogram of token endpoint request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"grant_type"},
	)

	// FlowsPurged counts expired pending flows removed by the janitor.
	FlowsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pkceclient_flows_purged_total",
			Help: "The total number of expired pending flows purged.",
		},
	)
)

// OutcomeFor maps an error from the auth service or token client to an outcome label.
func OutcomeFor(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, oauthmodel.ErrProviderDenied):
		return OutcomeDenied
	case errors.Is(err, oauthmodel.ErrMalformedCallback), errors.Is(err, oauthmodel.ErrMalformedTokenResponse):
		return OutcomeMalformed
	case errors.Is(err, oauthmodel.ErrInvalidState):
		return OutcomeInvalidState
	case errors.Is(err, oauthmodel.ErrProviderError):
		return OutcomeProviderErr
	case errors.Is(err, oauthmodel.ErrTimeout):
		return OutcomeTimeout
	}
	return OutcomeError
}
