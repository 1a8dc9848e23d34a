package oauth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/skaldby/link-broker/internal/config"
	"github.com/skaldby/link-broker/internal/models"
)

// spotifyScopes is the fixed scope set requested on every Spotify link
const spotifyScopes = "user-read-recently-played"

// NewSpotify creates the Spotify provider client. Zero fields in endpoints
// keep the production URLs.
func NewSpotify(cfg config.ProviderConfig, endpoints Endpoints) *Client {
	return &Client{
		provider: models.ProviderSpotify,
		cfg:      cfg,
		endpoints: endpoints.merged(Endpoints{
			AuthURL:    "https://accounts.spotify.com/authorize",
			TokenURL:   "https://accounts.spotify.com/api/token",
			ProfileURL: "https://api.spotify.com/v1/me",
			APIBaseURL: "https://api.spotify.com",
		}),
		scopes:       spotifyScopes,
		authParams:   url.Values{"response_type": {"code"}},
		exchangeForm: spotifyExchangeForm,
		parseProfile: parseSpotifyProfile,
		httpClient:   &http.Client{Timeout: providerTimeout},
	}
}

func spotifyExchangeForm(c *Client, code, _ string) url.Values {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", c.cfg.RedirectURI)
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)
	return data
}

// parseSpotifyProfile reads the account id from a /v1/me response
func parseSpotifyProfile(body []byte) (*Profile, error) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %v", err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("profile response missing id")
	}
	return &Profile{AccountID: payload.ID}, nil
}
