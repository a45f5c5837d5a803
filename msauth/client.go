// Package msauth owns the Microsoft identity platform token lifecycle:
// authorization-code exchange (PKCE), refresh-token grants, expiry tracking
// and the short-TTL access-token cache.
package msauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/nverhoeven/taskpilot/internal/config"
	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
	"github.com/nverhoeven/taskpilot/internal/kvstore"
)

const (
	// refreshSafetyMargin is subtracted from the provider-reported lifetime
	// when caching an access token, so a cached token is never handed out
	// moments before it expires upstream.
	refreshSafetyMargin = 5 * time.Minute

	// minCacheTTL floors the cache TTL for providers that report lifetimes
	// shorter than the safety margin.
	minCacheTTL = 5 * time.Second

	defaultExpiresIn = 3600
)

// Token is the normalized result of a token-endpoint grant.
type Token struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresIn    int
	ExpiresAt    time.Time
}

// TokenSink receives rotated tokens so they can be persisted back onto the
// session principal.
type TokenSink interface {
	SaveTokens(userID, accessToken, refreshToken string, expiresAt time.Time) error
}

type Client struct {
	oauth      *oauth2.Config
	tokenURL   string
	issuer     string
	graphBase  string
	httpClient *http.Client
	cache      kvstore.Store
	sink       TokenSink
	nowFunc    func() time.Time

	verifierOnce sync.Once
	verifier     idTokenVerifier
}

type ClientOption func(*Client)

func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = h
	}
}

// New creates a token lifecycle client. sink may be nil when token rotation
// does not need to be persisted (tests).
func New(cfg config.MicrosoftConfig, cache kvstore.Store, sink TokenSink, options ...ClientOption) *Client {
	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.GetMicrosoftClientID(),
			ClientSecret: cfg.GetMicrosoftClientSecret(),
			RedirectURL:  cfg.GetMicrosoftRedirectURI(),
			Scopes:       strings.Fields(cfg.GetMicrosoftScopes()),
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.GetMicrosoftAuthURL(),
				TokenURL: cfg.GetMicrosoftTokenURL(),
			},
		},
		tokenURL:   cfg.GetMicrosoftTokenURL(),
		issuer:     cfg.GetMicrosoftIssuer(),
		graphBase:  cfg.GetGraphBaseURL(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
		nowFunc:    time.Now,
	}
	c.sink = sink

	for _, opt := range options {
		opt(c)
	}
	return c
}

// ExchangeCode swaps an authorization code for tokens using PKCE.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.oauth.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return nil, &apperrors.UpstreamAuthError{StatusCode: rerr.Response.StatusCode, Body: rerr.Body}
		}
		return nil, errors.Wrap(err, "msauth.ExchangeCode")
	}

	expiresIn := defaultExpiresIn
	if v, ok := tok.Extra("expires_in").(float64); ok && v > 0 {
		expiresIn = int(v)
	}

	idToken, _ := tok.Extra("id_token").(string)

	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      idToken,
		ExpiresIn:    expiresIn,
		ExpiresAt:    c.nowFunc().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

// Refresh exchanges a refresh token for a new access token. A single attempt,
// no retries.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"scope":         {strings.Join(c.oauth.Scopes, " ")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "msauth.Refresh new request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "msauth.Refresh do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "msauth.Refresh read body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperrors.UpstreamAuthError{StatusCode: resp.StatusCode, Body: body}
	}

	var parsed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IDToken      string `json:"id_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "msauth.Refresh decode body")
	}
	if parsed.AccessToken == "" {
		return nil, &apperrors.UpstreamAuthError{StatusCode: resp.StatusCode, Body: body}
	}

	expiresIn := parsed.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	return &Token{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		IDToken:      parsed.IDToken,
		ExpiresIn:    expiresIn,
		ExpiresAt:    c.nowFunc().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

// EnsureValidToken returns a bearer token that is valid right now.
//
// An unexpired token is returned unchanged without any network call. Otherwise
// the side cache is consulted, and on a miss a single refresh grant is issued:
// the new token is cached with TTL = lifetime - safety margin, the rotation is
// persisted through the TokenSink, and the new token returned. Any refresh
// failure means the caller must demand re-authentication.
//
// There is no locking around the cache read / refresh / cache write sequence:
// two concurrent requests holding the same expired token may both refresh.
// The provider tolerates redundant refreshes, so this is a known race, not a
// correctness problem.
func (c *Client) EnsureValidToken(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) (string, error) {
	if !c.nowFunc().After(expiresAt) {
		return accessToken, nil
	}

	if v, ok := c.cache.Get(accessTokenCacheKey(userID)); ok {
		if cached, ok := v.(string); ok && cached != "" {
			return cached, nil
		}
	}

	tok, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		return "", apperrors.Wrapf(apperrors.ErrReauthRequired, "refresh failed: %v", err)
	}

	ttl := time.Duration(tok.ExpiresIn)*time.Second - refreshSafetyMargin
	if ttl < minCacheTTL {
		ttl = minCacheTTL
	}
	c.cache.Put(accessTokenCacheKey(userID), tok.AccessToken, ttl)

	// Providers do not always rotate the refresh token; keep the old one then.
	newRefresh := tok.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}

	if c.sink != nil {
		if err := c.sink.SaveTokens(userID, tok.AccessToken, newRefresh, tok.ExpiresAt); err != nil {
			return "", errors.Wrap(err, "msauth.EnsureValidToken save tokens")
		}
	}

	return tok.AccessToken, nil
}

// InvalidateCachedToken drops the cached access token for a user, forcing the
// next EnsureValidToken call past the cache.
func (c *Client) InvalidateCachedToken(userID string) {
	c.cache.Forget(accessTokenCacheKey(userID))
}

func accessTokenCacheKey(userID string) string {
	return fmt.Sprintf("user_%s_access_token", userID)
}
