package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/jrsteele09/go-pkce-client/token"
	"github.com/rs/zerolog"
)

const contentTypeJSON = "application/json; charset=utf-8"

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"app":    s.config.GetAppName(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

// writeFlowError maps auth and token errors to responses. Descriptions are fixed strings:
// error values can reach the provider's body, and that never goes back to the browser.
func writeFlowError(w http.ResponseWriter, r *http.Request, err error) {
	logger := zerolog.Ctx(r.Context())

	var denied *oauthmodel.ProviderDeniedError
	var providerErr *oauthmodel.ProviderError
	switch {
	case errors.As(err, &denied):
		writeJSONError(w, denied.Code, "authorization was not granted", http.StatusBadRequest)
	case errors.Is(err, oauthmodel.ErrMalformedCallback):
		writeJSONError(w, "invalid_request", "callback is missing code or state", http.StatusBadRequest)
	case errors.Is(err, oauthmodel.ErrInvalidState):
		writeJSONError(w, "invalid_state", "unknown, expired or already used state", http.StatusBadRequest)
	case errors.Is(err, oauthmodel.ErrInvalidRequest):
		writeJSONError(w, "invalid_request", "token request is invalid", http.StatusBadRequest)
	case errors.As(err, &providerErr):
		logger.Warn().Int("provider_status", providerErr.Status).Str("provider_error", providerErr.Code).Msg("token endpoint rejected request")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":             "provider_error",
			"error_description": "token endpoint returned an error",
			"provider_status":   providerErr.Status,
			"provider_error":    providerErr.Code,
			"retryable":         providerErr.Retryable(),
		})
	case errors.Is(err, oauthmodel.ErrTimeout):
		logger.Warn().Err(err).Msg("token endpoint timed out")
		writeJSONError(w, "timeout", "token endpoint did not respond in time", http.StatusGatewayTimeout)
	case errors.Is(err, oauthmodel.ErrMalformedTokenResponse):
		logger.Warn().Err(err).Msg("unusable token response")
		writeJSONError(w, "invalid_token_response", "token endpoint returned an unusable response", http.StatusBadGateway)
	case errors.Is(err, token.ErrTokenNotFound):
		writeJSONError(w, "not_found", "no tokens stored for user", http.StatusNotFound)
	case errors.Is(err, token.ErrNoRefreshToken):
		writeJSONError(w, "reauthorization_required", "no refresh token available", http.StatusConflict)
	case errors.Is(err, oauthmodel.ErrConfiguration):
		logger.Error().Err(err).Msg("oauth client is not configured")
		writeJSONError(w, "server_error", "oauth client is not configured", http.StatusInternalServerError)
	default:
		logger.Error().Err(err).Msg("request failed")
		writeJSONError(w, "server_error", "internal error", http.StatusInternalServerError)
	}
}
