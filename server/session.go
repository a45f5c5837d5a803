package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nverhoeven/taskpilot/principal"
)

const (
	// sessionCookieName is the cookie that binds a browser to its principal
	sessionCookieName = "taskpilot_session"

	// sessionMaxAge matches the refresh token lifetime rather than the
	// short-lived access token
	sessionMaxAge = 30 * 24 * 60 * 60
)

type contextKey string

const principalContextKey contextKey = "principal"

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (s *Server) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	isSecure := getScheme(r) == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionMaxAge,
	})
}

func (s *Server) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// RequireSession resolves the session cookie to a principal and stores it on
// the request context. Requests without a valid session get a reauth 401.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			writeReauthRequired(w, "not authenticated")
			return
		}

		p, err := s.principals.Get(cookie.Value)
		if err != nil {
			writeReauthRequired(w, "not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, p)
		next(w, r.WithContext(ctx))
	}
}

// currentPrincipal returns the principal loaded by RequireSession.
func currentPrincipal(r *http.Request) (principal.Principal, bool) {
	p, ok := r.Context().Value(principalContextKey).(principal.Principal)
	return p, ok
}

// accessTokenFor unseals the principal's tokens and returns a valid plain
// access token, refreshing through the identity provider when needed.
func (s *Server) accessTokenFor(ctx context.Context, p principal.Principal) (string, error) {
	accessToken, err := s.sealer.Open(p.AccessToken)
	if err != nil {
		return "", err
	}
	refreshToken, err := s.sealer.Open(p.RefreshToken)
	if err != nil {
		return "", err
	}
	return s.msAuth.EnsureValidToken(ctx, p.ID, accessToken, refreshToken, p.TokenExpiresAt)
}

// SaveTokens persists rotated tokens back onto the owning principal. It is
// called by the auth client after a successful refresh.
func (s *Server) SaveTokens(userID, accessToken, refreshToken string, expiresAt time.Time) error {
	sessionID, p, err := s.principals.FindByUserID(userID)
	if err != nil {
		return err
	}

	sealedAccess, err := s.sealer.Seal(accessToken)
	if err != nil {
		return err
	}
	sealedRefresh, err := s.sealer.Seal(refreshToken)
	if err != nil {
		return err
	}

	p.AccessToken = sealedAccess
	p.RefreshToken = sealedRefresh
	p.TokenExpiresAt = expiresAt

	if err := s.principals.Upsert(sessionID, p); err != nil {
		return err
	}
	log.Debug().Str("user_id", userID).Time("expires_at", expiresAt).Msg("persisted rotated tokens")
	return nil
}
