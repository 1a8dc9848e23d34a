package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skaldby/link-broker/internal/config"
	"github.com/skaldby/link-broker/internal/models"
)

// providerTimeout bounds every HTTP call made against a provider endpoint.
const providerTimeout = 15 * time.Second

// Endpoints holds the provider URLs one client talks to. Zero fields fall
// back to the provider's production URLs; tests point them at local fake
// servers.
type Endpoints struct {
	AuthURL    string
	TokenURL   string
	ProfileURL string
	APIBaseURL string
}

func (e Endpoints) merged(def Endpoints) Endpoints {
	if e.AuthURL == "" {
		e.AuthURL = def.AuthURL
	}
	if e.TokenURL == "" {
		e.TokenURL = def.TokenURL
	}
	if e.ProfileURL == "" {
		e.ProfileURL = def.ProfileURL
	}
	if e.APIBaseURL == "" {
		e.APIBaseURL = def.APIBaseURL
	}
	return e
}

// Token holds a provider token response from the exchange or refresh
// endpoint. ExpiresIn is zero for providers whose tokens do not expire.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// Profile identifies the external account behind an access token
type Profile struct {
	AccountID string
	Login     string
}

// Client performs the HTTP exchanges for one OAuth provider: authorize URL
// construction, code-for-token exchange, token refresh, profile lookup and
// authorized resource reads.
type Client struct {
	provider     models.Provider
	cfg          config.ProviderConfig
	endpoints    Endpoints
	scopes       string
	authParams   url.Values // provider-specific extras for the authorize URL
	exchangeForm func(c *Client, code, state string) url.Values
	parseProfile func(body []byte) (*Profile, error)
	httpClient   *http.Client
}

// Clients indexes provider clients by provider name
type Clients map[models.Provider]*Client

// NewClients builds the provider index used by the linker, the token
// manager and the proxy handlers
func NewClients(clients ...*Client) Clients {
	m := make(Clients, len(clients))
	for _, c := range clients {
		m[c.provider] = c
	}
	return m
}

// Provider returns which provider this client talks to
func (c *Client) Provider() models.Provider {
	return c.provider
}

// Configured reports whether client credentials and the redirect URI are
// all present. Flows that need credentials refuse to run without them.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// AuthorizeURL builds the provider authorization URL carrying the state
// token and the client's fixed scope set
func (c *Client) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.cfg.ClientID)
	params.Set("redirect_uri", c.cfg.RedirectURI)
	params.Set("scope", c.scopes)
	params.Set("state", state)
	for key, values := range c.authParams {
		for _, v := range values {
			params.Set(key, v)
		}
	}
	return c.endpoints.AuthURL + "?" + params.Encode()
}

// Exchange swaps an authorization code for a token set. Some providers
// report errors inside a 200 response, so a 2xx body without access_token
// still fails ErrTokenExchange.
func (c *Client) Exchange(ctx context.Context, code, state string) (*Token, error) {
	data := c.exchangeForm(c, code, state)

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoints.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w with status %d: %s", ErrTokenExchange, resp.StatusCode, string(body))
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrTokenExchange, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: response missing access_token", ErrTokenExchange)
	}

	return &token, nil
}

// Refresh exchanges a refresh token for a new access token. A valid
// response carries access_token and a positive expires_in; the refresh
// token itself may or may not be rotated by the provider.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoints.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w with status %d: %s", ErrRefreshFailed, resp.StatusCode, string(body))
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrRefreshFailed, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: response missing access_token", ErrRefreshFailed)
	}
	if token.ExpiresIn <= 0 {
		return nil, fmt.Errorf("%w: response missing expires_in", ErrRefreshFailed)
	}

	return &token, nil
}

// Profile fetches the provider's account identity for an access token
func (c *Client) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	body, status, err := c.authorizedGet(ctx, c.endpoints.ProfileURL, accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileLookup, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w with status %d: %s", ErrProfileLookup, status, string(body))
	}

	profile, err := c.parseProfile(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileLookup, err)
	}
	return profile, nil
}

// Get performs an authorized GET against path below the provider's API
// base and returns the raw JSON body untouched. Proxy endpoints use this
// to pass provider payloads through verbatim.
func (c *Client) Get(ctx context.Context, path, accessToken string, query url.Values) ([]byte, error) {
	body, status, err := c.authorizedGet(ctx, c.endpoints.APIBaseURL+path, accessToken, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", c.provider, ErrUpstream, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s: %w with status %d: %s", c.provider, ErrUpstream, status, string(body))
	}
	return body, nil
}

func (c *Client) authorizedGet(ctx context.Context, rawURL, accessToken string, query url.Values) ([]byte, int, error) {
	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %v", err)
	}
	return body, resp.StatusCode, nil
}
