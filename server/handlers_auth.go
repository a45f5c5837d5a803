package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nverhoeven/taskpilot/principal"
)

// MicrosoftConfigHandler exposes the public OAuth settings the frontend needs
// to start the authorization code flow.
func (s *Server) MicrosoftConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"client_id":    s.config.GetMicrosoftClientID(),
			"redirect_uri": s.config.GetMicrosoftRedirectURI(),
			"scopes":       s.config.GetMicrosoftScopes(),
			"auth_url":     s.config.GetMicrosoftAuthURL(),
		})
	}
}

type authTokenRequest struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
}

// AuthTokenHandler completes the PKCE flow: exchange the authorization code,
// resolve the user's profile, create the session and set its cookie.
func (s *Server) AuthTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid request body", nil)
			return
		}
		if req.Code == "" || req.CodeVerifier == "" {
			writeError(w, http.StatusUnprocessableEntity, "code and code_verifier are required", nil)
			return
		}

		token, err := s.msAuth.ExchangeCode(r.Context(), req.Code, req.CodeVerifier)
		if err != nil {
			writeUpstreamError(w, err, "token exchange failed", "raw")
			return
		}

		userInfo, err := s.msAuth.UserInfo(r.Context(), token.AccessToken)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch user profile", "raw")
			return
		}

		// The id_token claims only enrich the profile; /me is authoritative.
		identity, err := s.msAuth.Identity(r.Context(), token.IDToken)
		if err != nil {
			log.Warn().Err(err).Msg("unable to parse id_token, continuing with profile only")
		}

		sealedAccess, err := s.sealer.Seal(token.AccessToken)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "unable to store session", nil)
			return
		}
		sealedRefresh, err := s.sealer.Seal(token.RefreshToken)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "unable to store session", nil)
			return
		}

		name := userInfo.DisplayName
		if name == "" {
			name = identity.Name
		}

		p := principal.Principal{
			ID:             uuid.NewString(),
			Name:           name,
			Email:          userInfo.EmailAddress(),
			MicrosoftEmail: userInfo.EmailAddress(),
			MicrosoftID:    userInfo.ID,
			AccessToken:    sealedAccess,
			RefreshToken:   sealedRefresh,
			TokenExpiresAt: token.ExpiresAt,
			CreatedAt:      time.Now(),
		}

		sessionID := generateRandomString(32)
		if err := s.principals.Upsert(sessionID, p); err != nil {
			writeError(w, http.StatusInternalServerError, "unable to store session", nil)
			return
		}

		s.SetSessionCookie(w, r, sessionID)
		writeJSON(w, http.StatusOK, map[string]any{
			"user": map[string]any{
				"id":    p.ID,
				"name":  p.Name,
				"email": p.Email,
			},
			"expires_in": token.ExpiresIn,
		})
	}
}

// AuthUserHandler returns the signed-in user's profile.
func (s *Server) AuthUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := currentPrincipal(r)
		if !ok {
			writeReauthRequired(w, "not authenticated")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"user": map[string]any{
				"id":              p.ID,
				"name":            p.Name,
				"email":           p.Email,
				"microsoft_email": p.MicrosoftEmail,
				"microsoft_id":    p.MicrosoftID,
			},
		})
	}
}

// LogoutHandler drops the session and its token cache entry.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err == nil && cookie.Value != "" {
			if p, err := s.principals.Get(cookie.Value); err == nil {
				s.msAuth.InvalidateCachedToken(p.ID)
			}
			if err := s.principals.Delete(cookie.Value); err != nil {
				log.Warn().Err(err).Msg("unable to delete session")
			}
		}

		s.ClearSessionCookie(w, r)
		writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
	}
}
