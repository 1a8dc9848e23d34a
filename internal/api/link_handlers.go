package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/skaldby/link-broker/internal/config"
	"github.com/skaldby/link-broker/internal/models"
	"github.com/skaldby/link-broker/internal/oauth"
)

// CallbackResponse is returned once a provider handshake has completed
type CallbackResponse struct {
	Status            string `json:"status"`
	AppUserID         string `json:"app_user_id"`
	ProviderAccountID string `json:"provider_account_id"`
	Login             string `json:"login,omitempty"`
	Next              string `json:"next"`
}

// HandleConnect starts the linking flow and redirects to the provider's
// consent page
func HandleConnect(linker *oauth.Linker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, ok := models.ParseProvider(chi.URLParam(r, "provider"))
		if !ok {
			http.Error(w, oauth.ErrUnknownProvider.Error(), http.StatusBadRequest)
			return
		}

		authorizeURL, err := linker.Begin(r.Context(), provider, r.URL.Query().Get("app_user_id"))
		if err != nil {
			writeError(w, err)
			return
		}

		http.Redirect(w, r, authorizeURL, http.StatusTemporaryRedirect)
	}
}

// HandleCallback completes the linking flow when the provider redirects back
func HandleCallback(linker *oauth.Linker, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, ok := models.ParseProvider(chi.URLParam(r, "provider"))
		if !ok {
			http.Error(w, oauth.ErrUnknownProvider.Error(), http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		if code == "" || state == "" {
			http.Error(w, "code and state are required", http.StatusBadRequest)
			return
		}

		result, err := linker.Complete(r.Context(), provider, code, state)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(CallbackResponse{
			Status:            "linked",
			AppUserID:         result.AppUserID,
			ProviderAccountID: result.ProviderAccountID,
			Login:             result.Login,
			Next:              nextURL(cfg.AppBaseURL, result),
		})
	}
}

// nextURL points the caller at the proxy endpoint that will exercise the
// freshly stored credential
func nextURL(baseURL string, result *oauth.LinkResult) string {
	query := "?app_user_id=" + url.QueryEscape(result.AppUserID)
	switch result.Provider {
	case models.ProviderSpotify:
		return baseURL + "/spotify/recently-played" + query
	case models.ProviderGitHub:
		return baseURL + "/github/user" + query
	}
	return baseURL
}
