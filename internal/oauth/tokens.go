package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/skaldby/link-broker/internal/models"
)

// skewMargin is subtracted from a credential's recorded expiry when
// deciding whether to refresh, so a token is renewed before the provider
// itself starts rejecting it.
const skewMargin = 60 * time.Second

// Selector picks the link a token request refers to: either the
// application user or the provider-side account id. Exactly one mode is
// set; an empty selector resolves to ErrNotLinked.
type Selector struct {
	userID    string
	accountID string
}

// ByUser selects a link through the application user id
func ByUser(userID string) Selector {
	return Selector{userID: userID}
}

// ByProviderAccount selects a link through the provider account id
func ByProviderAccount(accountID string) Selector {
	return Selector{accountID: accountID}
}

// TokenManager serves provider access tokens from the store, refreshing
// them through the provider when the stored credential is within the skew
// margin of its expiry. Refresh is lazy: it fires on first use past the
// margin, never on a timer.
type TokenManager struct {
	store   Store
	clients Clients

	now func() time.Time // replaceable in tests
}

// NewTokenManager creates a new token lifecycle manager
func NewTokenManager(store Store, clients Clients) *TokenManager {
	return &TokenManager{
		store:   store,
		clients: clients,
		now:     time.Now,
	}
}

// AccessToken resolves the selector to a stored link and returns an access
// token currently usable against the provider.
//
// Links without refresh capability and links still comfortably inside
// their lifetime are served without any network call. A stale link
// triggers exactly one refresh exchange; the refreshed credential is
// persisted before the token is returned. A failed refresh leaves the
// stored credential untouched as the last-known-good record.
func (m *TokenManager) AccessToken(ctx context.Context, provider models.Provider, sel Selector) (string, error) {
	link, err := m.resolve(ctx, provider, sel)
	if err != nil {
		return "", err
	}

	if !link.Refreshable() {
		return link.AccessToken, nil
	}
	if m.now().Before(link.ExpiresAt.Add(-skewMargin)) {
		return link.AccessToken, nil
	}

	client := m.clients[provider]
	if client == nil || !client.Configured() {
		return "", fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	token, err := client.Refresh(ctx, link.RefreshToken)
	if err != nil {
		return "", err
	}

	// Providers that rotate refresh tokens return a new one; the others
	// omit the field and the stored token stays valid.
	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = link.RefreshToken
	}
	expiresAt := m.now().Add(time.Duration(token.ExpiresIn) * time.Second)

	updated := *link
	updated.AccessToken = token.AccessToken
	updated.RefreshToken = refreshToken
	updated.ExpiresAt = &expiresAt
	if err := m.store.UpsertLink(ctx, &updated); err != nil {
		return "", fmt.Errorf("failed to persist refreshed credentials: %w", err)
	}

	return token.AccessToken, nil
}

// resolve maps the selector to a stored link, reporting absence uniformly
// for both modes
func (m *TokenManager) resolve(ctx context.Context, provider models.Provider, sel Selector) (*models.ProviderLink, error) {
	switch {
	case sel.userID != "":
		link, err := m.store.LinkByUser(ctx, sel.userID, provider)
		if err == ErrNotLinked {
			return nil, fmt.Errorf("app_user_id %w to %s", ErrNotLinked, provider)
		}
		return link, err
	case sel.accountID != "":
		link, err := m.store.LinkByProviderAccount(ctx, provider, sel.accountID)
		if err == ErrNotLinked {
			return nil, fmt.Errorf("%s_user_id %w", provider, ErrNotLinked)
		}
		return link, err
	default:
		return nil, ErrNotLinked
	}
}
