package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/skaldby/link-broker/internal/models"
)

// LinkResult reports a completed handshake back to the callback handler
type LinkResult struct {
	AppUserID         string
	Provider          models.Provider
	ProviderAccountID string
	Login             string
}

// Linker drives the linking handshake end to end: connect redirect out,
// provider callback in, code exchange, profile lookup, link upsert.
type Linker struct {
	store   Store
	ledger  *StateLedger
	clients Clients

	now func() time.Time // replaceable in tests
}

// NewLinker creates a new linking orchestrator
func NewLinker(store Store, ledger *StateLedger, clients Clients) *Linker {
	return &Linker{
		store:   store,
		ledger:  ledger,
		clients: clients,
		now:     time.Now,
	}
}

// Begin resolves or creates the application user, issues a one-time state
// bound to it and returns the provider authorization URL to redirect the
// caller to. An empty appUserID creates a fresh user; a supplied id is
// inserted if the store has never seen it.
func (l *Linker) Begin(ctx context.Context, provider models.Provider, appUserID string) (string, error) {
	client := l.clients[provider]
	if client == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if !client.Configured() {
		return "", fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	if appUserID == "" {
		user, err := l.store.CreateUser(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to create user: %w", err)
		}
		appUserID = user.ID
	} else if err := l.store.EnsureUser(ctx, appUserID); err != nil {
		return "", fmt.Errorf("failed to ensure user %s: %w", appUserID, err)
	}

	state, err := l.ledger.Issue(appUserID)
	if err != nil {
		return "", err
	}

	return client.AuthorizeURL(state), nil
}

// Complete finishes the handshake when the provider redirects back:
// redeems the state, exchanges the code, resolves the provider account
// identity and upserts the link. The state is consumed even when a later
// step fails, so a failed handshake always restarts at Begin; no link is
// written on failure.
func (l *Linker) Complete(ctx context.Context, provider models.Provider, code, state string) (*LinkResult, error) {
	client := l.clients[provider]
	if client == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if !client.Configured() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	appUserID, err := l.ledger.Redeem(state)
	if err != nil {
		return nil, err
	}

	token, err := client.Exchange(ctx, code, state)
	if err != nil {
		return nil, err
	}

	profile, err := client.Profile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	link := &models.ProviderLink{
		UserID:            appUserID,
		Provider:          provider,
		ProviderAccountID: profile.AccountID,
		AccessToken:       token.AccessToken,
		RefreshToken:      token.RefreshToken,
		Scope:             token.Scope,
	}
	if token.ExpiresIn > 0 {
		expiresAt := l.now().Add(time.Duration(token.ExpiresIn) * time.Second)
		link.ExpiresAt = &expiresAt
	}

	if err := l.store.UpsertLink(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	return &LinkResult{
		AppUserID:         appUserID,
		Provider:          provider,
		ProviderAccountID: profile.AccountID,
		Login:             profile.Login,
	}, nil
}
