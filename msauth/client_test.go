package msauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
	"github.com/nverhoeven/taskpilot/internal/kvstore"
	"github.com/nverhoeven/taskpilot/msauth"
)

type testMSConfig struct {
	tokenURL  string
	graphBase string
}

func (c testMSConfig) GetMicrosoftClientID() string     { return "client-id" }
func (c testMSConfig) GetMicrosoftClientSecret() string { return "client-secret" }
func (c testMSConfig) GetMicrosoftRedirectURI() string  { return "http://localhost:3000/callback" }
func (c testMSConfig) GetMicrosoftScopes() string {
	return "https://graph.microsoft.com/user.read offline_access"
}
func (c testMSConfig) GetMicrosoftAuthURL() string  { return c.tokenURL + "/authorize" }
func (c testMSConfig) GetMicrosoftTokenURL() string { return c.tokenURL }
func (c testMSConfig) GetMicrosoftIssuer() string   { return c.tokenURL }
func (c testMSConfig) GetGraphBaseURL() string      { return c.graphBase }

type tokenSinkFake struct {
	mu      sync.Mutex
	userID  string
	access  string
	refresh string
	expiry  time.Time
	calls   int
}

func (s *tokenSinkFake) SaveTokens(userID, accessToken, refreshToken string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.access = accessToken
	s.refresh = refreshToken
	s.expiry = expiresAt
	s.calls++
	return nil
}

type tokenEndpoint struct {
	mu           sync.Mutex
	requests     int
	status       int
	accessToken  string
	refreshToken string
	expiresIn    int
}

func (e *tokenEndpoint) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.requests++
		status := e.status
		e.mu.Unlock()

		if status != 0 && status != http.StatusOK {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"access_token": e.accessToken,
			"token_type":   "Bearer",
			"expires_in":   e.expiresIn,
		}
		if e.refreshToken != "" {
			resp["refresh_token"] = e.refreshToken
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (e *tokenEndpoint) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requests
}

func TestExchangeCode(t *testing.T) {
	endpoint := &tokenEndpoint{accessToken: "new-access", refreshToken: "new-refresh", expiresIn: 3600}
	srv := httptest.NewServer(endpoint.handler())
	defer srv.Close()

	client := msauth.New(testMSConfig{tokenURL: srv.URL}, kvstore.NewInMemoryStore(), nil)

	tok, err := client.ExchangeCode(context.Background(), "auth-code", "verifier")
	require.NoError(t, err)
	require.Equal(t, "new-access", tok.AccessToken)
	require.Equal(t, "new-refresh", tok.RefreshToken)
	require.Equal(t, 3600, tok.ExpiresIn)
}

func TestExchangeCodeRejected(t *testing.T) {
	endpoint := &tokenEndpoint{status: http.StatusBadRequest}
	srv := httptest.NewServer(endpoint.handler())
	defer srv.Close()

	client := msauth.New(testMSConfig{tokenURL: srv.URL}, kvstore.NewInMemoryStore(), nil)

	_, err := client.ExchangeCode(context.Background(), "bad-code", "verifier")
	require.Error(t, err)

	var authErr *apperrors.UpstreamAuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, http.StatusBadRequest, authErr.StatusCode)
}

func TestEnsureValidTokenUnexpired(t *testing.T) {
	endpoint := &tokenEndpoint{accessToken: "unused"}
	srv := httptest.NewServer(endpoint.handler())
	defer srv.Close()

	now := time.Now()
	client := msauth.New(testMSConfig{tokenURL: srv.URL}, kvstore.NewInMemoryStore(), nil,
		msauth.WithNowFunc(func() time.Time { return now }))

	tok, err := client.EnsureValidToken(context.Background(), "user-1", "current", "refresh", now.Add(10*time.Minute))
	require.NoError(t, err)
	require.Equal(t, "current", tok)
	require.Zero(t, endpoint.count(), "unexpired token must not trigger any network call")
}

func TestEnsureValidTokenRefreshesOncePerCacheMiss(t *testing.T) {
	endpoint := &tokenEndpoint{accessToken: "refreshed", refreshToken: "rotated", expiresIn: 3600}
	srv := httptest.NewServer(endpoint.handler())
	defer srv.Close()

	now := time.Now()
	sink := &tokenSinkFake{}
	cache := kvstore.NewInMemoryStore(kvstore.WithNowFunc(func() time.Time { return now }))
	client := msauth.New(testMSConfig{tokenURL: srv.URL}, cache, sink,
		msauth.WithNowFunc(func() time.Time { return now }))

	expiredAt := now.Add(-time.Minute)

	tok, err := client.EnsureValidToken(context.Background(), "user-1", "stale", "refresh", expiredAt)
	require.NoError(t, err)
	require.Equal(t, "refreshed", tok)
	require.Equal(t, 1, endpoint.count())

	// Rotation persisted to the sink.
	require.Equal(t, 1, sink.calls)
	require.Equal(t, "user-1", sink.userID)
	require.Equal(t, "rotated", sink.refresh)

	// A second call inside the cache TTL is served from the cache.
	tok, err = client.EnsureValidToken(context.Background(), "user-1", "stale", "refresh", expiredAt)
	require.NoError(t, err)
	require.Equal(t, "refreshed", tok)
	require.Equal(t, 1, endpoint.count())

	// Invalidation forces a fresh refresh.
	client.InvalidateCachedToken("user-1")
	_, err = client.EnsureValidToken(context.Background(), "user-1", "stale", "refresh", expiredAt)
	require.NoError(t, err)
	require.Equal(t, 2, endpoint.count())
}

func TestEnsureValidTokenKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	endpoint := &tokenEndpoint{accessToken: "refreshed", expiresIn: 3600} // no refresh_token in response
	srv := httptest.NewServer(endpoint.handler())
	defer srv.Close()

	now := time.Now()
	sink := &tokenSinkFake{}
	client := msauth.New(testMSConfig{tokenURL: srv.URL}, kvstore.NewInMemoryStore(), sink,
		msauth.WithNowFunc(func() time.Time { return now }))

	_, err := client.EnsureValidToken(context.Background(), "user-1", "stale", "original-refresh", now.Add(-time.Second))
	require.NoError(t, err)
	require.Equal(t, "original-refresh", sink.refresh)
}

func TestEnsureValidTokenRefreshFailure(t *testing.T) {
	endpoint := &tokenEndpoint{status: http.StatusUnauthorized}
	srv := httptest.NewServer(endpoint.handler())
	defer srv.Close()

	now := time.Now()
	client := msauth.New(testMSConfig{tokenURL: srv.URL}, kvstore.NewInMemoryStore(), nil,
		msauth.WithNowFunc(func() time.Time { return now }))

	_, err := client.EnsureValidToken(context.Background(), "user-1", "stale", "refresh", now.Add(-time.Second))
	require.ErrorIs(t, err, apperrors.ErrReauthRequired)
}

func TestUserInfo(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer the-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":                "graph-id",
			"displayName":       "Jo Bloggs",
			"userPrincipalName": "jo@example.com",
		})
	}))
	defer graph.Close()

	client := msauth.New(testMSConfig{tokenURL: graph.URL, graphBase: graph.URL}, kvstore.NewInMemoryStore(), nil)

	info, err := client.UserInfo(context.Background(), "the-token")
	require.NoError(t, err)
	require.Equal(t, "graph-id", info.ID)
	require.Equal(t, "jo@example.com", info.EmailAddress(), "email falls back to userPrincipalName")
}
