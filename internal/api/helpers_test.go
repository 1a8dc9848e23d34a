package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skaldby/link-broker/internal/config"
	"github.com/skaldby/link-broker/internal/oauth"
	"github.com/skaldby/link-broker/internal/store"
)

// providerStub fakes one provider's token, profile and resource endpoints.
// Tests flip its fields to steer individual responses.
type providerStub struct {
	exchangeResponse map[string]any
	exchangeStatus   int
	refreshResponse  map[string]any
	refreshStatus    int
	profileResponse  map[string]any
	profileStatus    int
	apiResponse      string
	apiStatus        int

	refreshCalls atomic.Int32
	lastAPIAuth  string
	lastAPIQuery url.Values
}

func (p *providerStub) tokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		response, status := p.exchangeResponse, p.exchangeStatus
		if r.PostForm.Get("grant_type") == "refresh_token" {
			p.refreshCalls.Add(1)
			response, status = p.refreshResponse, p.refreshStatus
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(response)
	}
}

func (p *providerStub) profileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(p.profileStatus)
		json.NewEncoder(w).Encode(p.profileResponse)
	}
}

func (p *providerStub) apiHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.lastAPIAuth = r.Header.Get("Authorization")
		p.lastAPIQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(p.apiStatus)
		w.Write([]byte(p.apiResponse))
	}
}

// testEnv wires the full router over the in-memory store and stubbed
// providers, the same shape main assembles in production.
type testEnv struct {
	cfg     *config.Config
	store   *store.Memory
	ledger  *oauth.StateLedger
	handler http.Handler
	spotify *providerStub
	github  *providerStub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	spotify := &providerStub{
		exchangeResponse: map[string]any{
			"access_token":  "spotify-at",
			"token_type":    "Bearer",
			"refresh_token": "spotify-rt",
			"expires_in":    3600,
			"scope":         "user-read-recently-played",
		},
		exchangeStatus:  http.StatusOK,
		refreshResponse: map[string]any{"access_token": "spotify-at-refreshed", "expires_in": 3600},
		refreshStatus:   http.StatusOK,
		profileResponse: map[string]any{"id": "spotify-acct-1"},
		profileStatus:   http.StatusOK,
		apiResponse:     `{"items":[{"track":{"name":"song"}}]}`,
		apiStatus:       http.StatusOK,
	}
	github := &providerStub{
		exchangeResponse: map[string]any{
			"access_token": "gho_token",
			"token_type":   "bearer",
			"scope":        "read:user",
		},
		exchangeStatus:  http.StatusOK,
		refreshResponse: map[string]any{"access_token": "gho_refreshed", "expires_in": 3600},
		refreshStatus:   http.StatusOK,
		profileResponse: map[string]any{"id": 583231, "login": "octocat"},
		profileStatus:   http.StatusOK,
		apiResponse:     `{"id":583231,"login":"octocat","name":"The Octocat"}`,
		apiStatus:       http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/spotify/token", spotify.tokenHandler())
	mux.HandleFunc("/spotify/me", spotify.profileHandler())
	mux.HandleFunc("/spotify/v1/me/player/recently-played", spotify.apiHandler())
	mux.HandleFunc("/github/token", github.tokenHandler())
	mux.HandleFunc("/github/profile", github.profileHandler())
	mux.HandleFunc("/github/user", github.apiHandler())

	providers := httptest.NewServer(mux)
	t.Cleanup(providers.Close)

	cfg := &config.Config{
		Port:            8080,
		AppBaseURL:      "http://localhost:8080",
		StateTTLSeconds: 300,
		CORSOrigins:     []string{"*"},
		OAuth: config.OAuthConfig{
			Spotify: config.ProviderConfig{
				ClientID:     "spotify-id",
				ClientSecret: "spotify-secret",
				RedirectURI:  "http://localhost:8080/oauth/spotify/callback",
			},
			GitHub: config.ProviderConfig{
				ClientID:     "github-id",
				ClientSecret: "github-secret",
				RedirectURI:  "http://localhost:8080/oauth/github/callback",
			},
		},
	}

	st := store.NewMemory()
	clients := oauth.NewClients(
		oauth.NewSpotify(cfg.OAuth.Spotify, oauth.Endpoints{
			AuthURL:    providers.URL + "/spotify/authorize",
			TokenURL:   providers.URL + "/spotify/token",
			ProfileURL: providers.URL + "/spotify/me",
			APIBaseURL: providers.URL + "/spotify",
		}),
		oauth.NewGitHub(cfg.OAuth.GitHub, oauth.Endpoints{
			AuthURL:    providers.URL + "/github/authorize",
			TokenURL:   providers.URL + "/github/token",
			ProfileURL: providers.URL + "/github/profile",
			APIBaseURL: providers.URL + "/github",
		}),
	)
	ledger := oauth.NewStateLedger(time.Duration(cfg.StateTTLSeconds) * time.Second)
	linker := oauth.NewLinker(st, ledger, clients)
	tokens := oauth.NewTokenManager(st, clients)

	return &testEnv{
		cfg:     cfg,
		store:   st,
		ledger:  ledger,
		handler: NewRouter(cfg, st, linker, tokens, clients),
		spotify: spotify,
		github:  github,
	}
}

// do runs one request through the router
func (env *testEnv) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

// connect starts a linking flow and returns the state parameter from the
// provider redirect
func (env *testEnv) connect(t *testing.T, provider, appUserID string) string {
	t.Helper()

	target := "/connect/" + provider
	if appUserID != "" {
		target += "?app_user_id=" + url.QueryEscape(appUserID)
	}
	rec := env.do(http.MethodGet, target)
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code, rec.Body.String())

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

// link runs a complete linking flow and returns the callback response
func (env *testEnv) link(t *testing.T, provider, appUserID string) CallbackResponse {
	t.Helper()

	state := env.connect(t, provider, appUserID)
	rec := env.do(http.MethodGet, "/oauth/"+provider+"/callback?code=test-code&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response CallbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return response
}
