package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/skaldby/link-broker/internal/models"
	"github.com/skaldby/link-broker/internal/oauth"
)

// HandleSpotifyRecentlyPlayed proxies the linked account's recently played
// feed, refreshing the stored credential first if it is about to expire
func HandleSpotifyRecentlyPlayed(tokens *oauth.TokenManager, spotify *oauth.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "limit must be 1..50", http.StatusBadRequest)
				return
			}
			limit = parsed
		}
		if limit < 1 || limit > 50 {
			http.Error(w, "limit must be 1..50", http.StatusBadRequest)
			return
		}

		sel, ok := selectorFromQuery(r, "spotify_user_id")
		if !ok {
			http.Error(w, "app_user_id or spotify_user_id required", http.StatusBadRequest)
			return
		}

		accessToken, err := tokens.AccessToken(r.Context(), models.ProviderSpotify, sel)
		if err != nil {
			writeError(w, err)
			return
		}

		query := url.Values{}
		query.Set("limit", strconv.Itoa(limit))
		body, err := spotify.Get(r.Context(), "/v1/me/player/recently-played", accessToken, query)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

// HandleGitHubUser proxies the linked account's GitHub profile
func HandleGitHubUser(tokens *oauth.TokenManager, github *oauth.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel, ok := selectorFromQuery(r, "github_user_id")
		if !ok {
			http.Error(w, "app_user_id or github_user_id required", http.StatusBadRequest)
			return
		}

		accessToken, err := tokens.AccessToken(r.Context(), models.ProviderGitHub, sel)
		if err != nil {
			writeError(w, err)
			return
		}

		body, err := github.Get(r.Context(), "/user", accessToken, nil)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

// selectorFromQuery builds the credential selector from the request.
// app_user_id wins when both identifiers are present.
func selectorFromQuery(r *http.Request, accountParam string) (oauth.Selector, bool) {
	if id := r.URL.Query().Get("app_user_id"); id != "" {
		return oauth.ByUser(id), true
	}
	if id := r.URL.Query().Get(accountParam); id != "" {
		return oauth.ByProviderAccount(id), true
	}
	return oauth.Selector{}, false
}
