package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Discovery is the subset of the OpenID provider metadata this service uses.
type Discovery struct {
	Issuer        string `json:"issuer"`
	JWKSURI       string `json:"jwks_uri"`
	TokenEndpoint string `json:"token_endpoint"`
}

// Discover fetches the provider's /.well-known/openid-configuration document.
func Discover(ctx context.Context, httpClient *http.Client, issuer string) (*Discovery, error) {
	discoveryURL := strings.TrimSuffix(issuer, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}

	var d Discovery
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	if d.JWKSURI == "" {
		return nil, fmt.Errorf("discovery document has no jwks_uri")
	}
	return &d, nil
}

// Client obtains service tokens with the OAuth2 client credentials grant.
type Client struct {
	config *clientcredentials.Config
}

// NewClient creates a client for tokenURL.
func NewClient(tokenURL, clientID, clientSecret string, scopes ...string) *Client {
	return &Client{config: &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}}
}

// Token fetches an access token.
func (c *Client) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := c.config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain client credentials token: %w", err)
	}
	return tok, nil
}

// HTTPClient returns a client that attaches a bearer token to every request,
// refreshing it as needed.
func (c *Client) HTTPClient(ctx context.Context) *http.Client {
	return c.config.Client(ctx)
}
