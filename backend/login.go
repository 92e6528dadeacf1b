package backend

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// LoginConfig describes the identity provider's token endpoint.
type LoginConfig struct {
	TokenURL string
	ClientID string

	// HTTPClient is used for the token request when set.
	HTTPClient *http.Client
}

func (c LoginConfig) oauth() *oauth2.Config {
	return &oauth2.Config{
		ClientID: c.ClientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (c LoginConfig) context(ctx context.Context) context.Context {
	if c.HTTPClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
	}
	return ctx
}

// PasswordLogin exchanges a username and password for a bearer token using
// the OAuth2 resource-owner password grant.
func PasswordLogin(ctx context.Context, cfg LoginConfig, username, password string) (*oauth2.Token, error) {
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("login: token URL not configured")
	}
	tok, err := cfg.oauth().PasswordCredentialsToken(cfg.context(ctx), username, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return tok, nil
}

// TokenSource returns a source that yields tok until it expires and refreshes
// it through the provider when a refresh token is present.
func TokenSource(ctx context.Context, cfg LoginConfig, tok *oauth2.Token) oauth2.TokenSource {
	return cfg.oauth().TokenSource(cfg.context(ctx), tok)
}
