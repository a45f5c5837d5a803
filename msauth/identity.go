package msauth

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// Identity carries the claims we keep from a Microsoft id_token. These only
// enrich the session principal; the Graph /me call remains the authoritative
// profile source.
type Identity struct {
	ObjectID          string
	PreferredUsername string
	Name              string
	Email             string
}

type idTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// Identity extracts claims from the id_token returned by a code exchange.
// When OIDC discovery for the issuer is available the token signature is
// verified; otherwise the claims are parsed unverified, which is acceptable
// because nothing security-relevant is derived from them.
func (c *Client) Identity(ctx context.Context, rawIDToken string) (Identity, error) {
	if rawIDToken == "" {
		return Identity{}, nil
	}

	if v := c.idTokenVerifier(ctx); v != nil {
		idToken, err := v.Verify(ctx, rawIDToken)
		if err != nil {
			log.Warn().Err(err).Msg("id_token verification failed, falling back to unverified claims")
		} else {
			var claims struct {
				Oid               string `json:"oid"`
				PreferredUsername string `json:"preferred_username"`
				Name              string `json:"name"`
				Email             string `json:"email"`
			}
			if err := idToken.Claims(&claims); err == nil {
				return Identity{
					ObjectID:          claims.Oid,
					PreferredUsername: claims.PreferredUsername,
					Name:              claims.Name,
					Email:             claims.Email,
				}, nil
			}
		}
	}

	return parseUnverifiedIdentity(rawIDToken)
}

func parseUnverifiedIdentity(rawIDToken string) (Identity, error) {
	token, _, err := jwt.NewParser().ParseUnverified(rawIDToken, jwt.MapClaims{})
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, nil
	}

	oid, _ := claims["oid"].(string)
	preferredUsername, _ := claims["preferred_username"].(string)
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)

	return Identity{
		ObjectID:          oid,
		PreferredUsername: preferredUsername,
		Name:              name,
		Email:             email,
	}, nil
}

// idTokenVerifier lazily resolves the OIDC provider for the configured issuer.
// Discovery is attempted once; a failure is logged and the client falls back
// to unverified claim parsing for the process lifetime.
func (c *Client) idTokenVerifier(ctx context.Context) idTokenVerifier {
	c.verifierOnce.Do(func() {
		provider, err := oidc.NewProvider(ctx, c.issuer)
		if err != nil {
			log.Warn().Err(err).Str("issuer", c.issuer).Msg("OIDC discovery failed, id_token claims will not be verified")
			return
		}
		c.verifier = provider.Verifier(&oidc.Config{ClientID: c.oauth.ClientID})
	})
	return c.verifier
}
