package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/skaldby/link-broker/internal/oauth"
)

// writeError maps flow errors onto HTTP statuses: caller mistakes are 400,
// missing links are 404, provider failures are 502, everything else is 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, oauth.ErrInvalidState), errors.Is(err, oauth.ErrUnknownProvider):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, oauth.ErrNotLinked):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, oauth.ErrTokenExchange),
		errors.Is(err, oauth.ErrProfileLookup),
		errors.Is(err, oauth.ErrRefreshFailed),
		errors.Is(err, oauth.ErrUpstream):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, oauth.ErrProviderNotConfigured):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		log.Printf("API: unexpected error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
