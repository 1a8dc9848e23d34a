package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skaldby/link-broker/internal/models"
	"github.com/skaldby/link-broker/internal/oauth"
)

type linkKey struct {
	userID   string
	provider models.Provider
}

// Memory implements oauth.Store in process memory. It backs development
// deployments without a database and the handler tests, mirroring the
// postgres store's semantics including the single-record ownership
// transfer on account re-link.
type Memory struct {
	mu    sync.Mutex
	users map[string]models.AppUser
	links map[linkKey]models.ProviderLink

	now func() time.Time
}

var _ oauth.Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]models.AppUser),
		links: make(map[linkKey]models.ProviderLink),
		now:   time.Now,
	}
}

// CreateUser inserts a new application user
func (s *Memory) CreateUser(ctx context.Context) (*models.AppUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := models.AppUser{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
	}
	s.users[user.ID] = user
	return &user, nil
}

// EnsureUser inserts the user id if it does not exist yet
func (s *Memory) EnsureUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		s.users[userID] = models.AppUser{ID: userID, CreatedAt: s.now().UTC()}
	}
	return nil
}

// ListLinks returns the user's links ordered by provider name
func (s *Memory) ListLinks(ctx context.Context, userID string) ([]models.ProviderLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	links := []models.ProviderLink{}
	for key, link := range s.links {
		if key.userID == userID {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].Provider < links[j].Provider
	})
	return links, nil
}

// LinkByUser resolves the user's link for one provider
func (s *Memory) LinkByUser(ctx context.Context, userID string, provider models.Provider) (*models.ProviderLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[linkKey{userID: userID, provider: provider}]
	if !ok {
		return nil, oauth.ErrNotLinked
	}
	return &link, nil
}

// LinkByProviderAccount resolves a link by the provider-side account id
func (s *Memory) LinkByProviderAccount(ctx context.Context, provider models.Provider, accountID string) (*models.ProviderLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, link := range s.links {
		if key.provider == provider && link.ProviderAccountID == accountID {
			return &link, nil
		}
	}
	return nil, oauth.ErrNotLinked
}

// UpsertLink writes the link, displacing any other user's claim to the
// same provider account
func (s *Memory) UpsertLink(ctx context.Context, link *models.ProviderLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, existing := range s.links {
		if key.provider == link.Provider &&
			existing.ProviderAccountID == link.ProviderAccountID &&
			key.userID != link.UserID {
			delete(s.links, key)
		}
	}

	link.UpdatedAt = s.now().UTC()
	s.links[linkKey{userID: link.UserID, provider: link.Provider}] = *link
	return nil
}

// Ping reports the store as always reachable
func (s *Memory) Ping(ctx context.Context) error {
	return nil
}
