package oauth

import (
	"context"

	"github.com/skaldby/link-broker/internal/models"
)

// Store is the persistence capability the linking flow and the token
// lifecycle depend on. Implementations keep at most one link per
// (user, provider) and at most one per (provider, provider_account_id);
// upserting a link that claims an account already owned by another user
// transfers the account to the writer.
type Store interface {
	// CreateUser inserts a new application user and returns it.
	CreateUser(ctx context.Context) (*models.AppUser, error)

	// EnsureUser inserts the given user id if it does not exist yet.
	EnsureUser(ctx context.Context, userID string) error

	// ListLinks returns the user's links ordered by provider name. An
	// unknown user yields an empty list, not an error.
	ListLinks(ctx context.Context, userID string) ([]models.ProviderLink, error)

	// LinkByUser resolves the user's link for one provider, or ErrNotLinked.
	LinkByUser(ctx context.Context, userID string, provider models.Provider) (*models.ProviderLink, error)

	// LinkByProviderAccount resolves a link by the provider-side account
	// id, or ErrNotLinked.
	LinkByProviderAccount(ctx context.Context, provider models.Provider, accountID string) (*models.ProviderLink, error)

	// UpsertLink writes the link, replacing any previous link for the same
	// (user, provider) pair and displacing any other user's claim to the
	// same provider account. Sets the link's UpdatedAt.
	UpsertLink(ctx context.Context, link *models.ProviderLink) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
