package oauth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/skaldby/link-broker/internal/config"
	"github.com/skaldby/link-broker/internal/models"
)

// githubScopes is the fixed scope set requested on every GitHub link
const githubScopes = "read:user"

// NewGitHub creates the GitHub provider client. Zero fields in endpoints
// keep the production URLs.
//
// GitHub differs from Spotify in three ways the client carries as data:
// the authorize URL adds allow_signup=true and no response_type, the code
// exchange echoes the state parameter instead of a grant_type, and issued
// tokens normally record no expiry at all.
func NewGitHub(cfg config.ProviderConfig, endpoints Endpoints) *Client {
	return &Client{
		provider: models.ProviderGitHub,
		cfg:      cfg,
		endpoints: endpoints.merged(Endpoints{
			AuthURL:    "https://github.com/login/oauth/authorize",
			TokenURL:   "https://github.com/login/oauth/access_token",
			ProfileURL: "https://api.github.com/user",
			APIBaseURL: "https://api.github.com",
		}),
		scopes:       githubScopes,
		authParams:   url.Values{"allow_signup": {"true"}},
		exchangeForm: githubExchangeForm,
		parseProfile: parseGitHubProfile,
		httpClient:   &http.Client{Timeout: providerTimeout},
	}
}

func githubExchangeForm(c *Client, code, state string) url.Values {
	data := url.Values{}
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", c.cfg.RedirectURI)
	data.Set("state", state)
	return data
}

// parseGitHubProfile reads the numeric account id and login from a /user
// response. The account id is stored in its decimal string form.
func parseGitHubProfile(body []byte) (*Profile, error) {
	var payload struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %v", err)
	}
	if payload.ID == 0 {
		return nil, fmt.Errorf("profile response missing id")
	}
	return &Profile{
		AccountID: strconv.FormatInt(payload.ID, 10),
		Login:     payload.Login,
	}, nil
}
