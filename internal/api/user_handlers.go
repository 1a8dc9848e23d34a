package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skaldby/link-broker/internal/models"
	"github.com/skaldby/link-broker/internal/oauth"
)

// LinkSummary is one entry in a user's link listing. Tokens never appear
// here; only the public identity of the linked account is exposed.
type LinkSummary struct {
	Provider          models.Provider `json:"provider"`
	ProviderAccountID string          `json:"provider_account_id"`
	Scope             string          `json:"scope,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ListLinksResponse is the body of GET /users/{user_id}/links
type ListLinksResponse struct {
	UserID string        `json:"user_id"`
	Links  []LinkSummary `json:"links"`
}

// HandleCreateUser mints a new application user
func HandleCreateUser(store oauth.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := store.CreateUser(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"user_id": user.ID})
	}
}

// HandleListLinks returns the provider links currently held by a user
func HandleListLinks(store oauth.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")

		links, err := store.ListLinks(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}

		summaries := make([]LinkSummary, len(links))
		for i, link := range links {
			summaries[i] = LinkSummary{
				Provider:          link.Provider,
				ProviderAccountID: link.ProviderAccountID,
				Scope:             link.Scope,
				UpdatedAt:         link.UpdatedAt,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ListLinksResponse{UserID: userID, Links: summaries})
	}
}
