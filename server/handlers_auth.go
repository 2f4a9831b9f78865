package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-pkce-client/auth"
	"github.com/jrsteele09/go-pkce-client/internal/utils"
	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/rs/zerolog"
)

const maxRefreshBody = 1 << 16

// StartHandler redirects the browser to the provider's authorization endpoint.
// Optional query parameters: user_id, return_url (a local path).
func (s *Server) StartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts []auth.FlowOption
		if userID := r.URL.Query().Get("user_id"); userID != "" {
			opts = append(opts, auth.WithUserID(userID))
		}
		if returnURL := r.URL.Query().Get("return_url"); returnURL != "" {
			if !isLocalPath(returnURL) {
				writeJSONError(w, "invalid_request", "return_url must be a local path", http.StatusBadRequest)
				return
			}
			opts = append(opts, auth.WithReturnURL(returnURL))
		}

		req, err := s.auth.StartFlow(r.Context(), opts...)
		if err != nil {
			writeFlowError(w, r, err)
			return
		}
		http.Redirect(w, r, req.RedirectURL, http.StatusFound)
	}
}

// CallbackHandler validates the provider redirect and exchanges the code.
// Both GET (query) and POST (form_post response mode) are accepted.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "failed to parse callback parameters", http.StatusBadRequest)
			return
		}

		result, err := s.auth.HandleCallback(r.Context(), r.Form)
		if err != nil {
			writeFlowError(w, r, err)
			return
		}

		ts, err := s.tokens.ExchangeCode(r.Context(), result.Code, result.CodeVerifier, result.RedirectURI)
		if err != nil {
			writeFlowError(w, r, err)
			return
		}

		if result.UserID != "" {
			if err := s.users.Save(r.Context(), result.UserID, ts); err != nil {
				writeFlowError(w, r, err)
				return
			}
			zerolog.Ctx(r.Context()).Info().Str("user_id", result.UserID).Msg("tokens stored for user")
			if result.ReturnURL != "" {
				http.Redirect(w, r, result.ReturnURL, http.StatusFound)
				return
			}
			writeJSON(w, http.StatusOK, tokenStatus(result.UserID, ts))
			return
		}

		// Without a user to store them for, tokens are only shown in development.
		if s.env == devEnv {
			writeJSON(w, http.StatusOK, ts)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

// RefreshHandler refreshes either a refresh token given in the body, returning the new
// token set, or the stored tokens of a user, returning only their status.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body refreshRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRefreshBody)).Decode(&body); err != nil {
			writeJSONError(w, "invalid_request", "body must be a JSON object", http.StatusBadRequest)
			return
		}

		switch {
		case body.RefreshToken != "":
			ts, err := s.tokens.Refresh(r.Context(), body.RefreshToken)
			if err != nil {
				writeFlowError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, ts)
		case body.UserID != "":
			ts, err := s.users.ForceRefresh(r.Context(), body.UserID)
			if err != nil {
				writeFlowError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, tokenStatus(body.UserID, ts))
		default:
			writeJSONError(w, "invalid_request", "refresh_token or user_id is required", http.StatusBadRequest)
		}
	}
}

type tokenStatusResponse struct {
	Status          string     `json:"status"`
	UserID          string     `json:"user_id"`
	Scope           string     `json:"scope,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	HasRefreshToken bool       `json:"has_refresh_token"`
}

func tokenStatus(userID string, ts *oauthmodel.TokenSet) tokenStatusResponse {
	resp := tokenStatusResponse{
		Status:          "ok",
		UserID:          userID,
		Scope:           ts.Scope,
		HasRefreshToken: ts.RefreshToken != "",
	}
	if expiresAt, ok := ts.ExpiresAt(); ok {
		resp.ExpiresAt = utils.Ptr(expiresAt)
	}
	return resp
}

// isLocalPath accepts "/path?query" but not scheme-relative or absolute URLs.
func isLocalPath(s string) bool {
	if !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/\\") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme == "" && u.Host == ""
}
