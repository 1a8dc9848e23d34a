package oauth

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/skaldby/link-broker/internal/models"
)

// fakeStore is an in-memory Store double for exercising the linking and
// token flows without a database. It mirrors the real stores' ownership
// transfer on upsert and can be primed to fail writes.
type fakeStore struct {
	mu      sync.Mutex
	users   map[string]bool
	links   map[string]models.ProviderLink
	upserts int

	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]bool),
		links: make(map[string]models.ProviderLink),
	}
}

func fakeKey(userID string, provider models.Provider) string {
	return userID + "/" + string(provider)
}

func (s *fakeStore) CreateUser(ctx context.Context) (*models.AppUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("user-%d", len(s.users)+1)
	s.users[id] = true
	return &models.AppUser{ID: id, CreatedAt: time.Now().UTC()}, nil
}

func (s *fakeStore) EnsureUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[userID] = true
	return nil
}

func (s *fakeStore) ListLinks(ctx context.Context, userID string) ([]models.ProviderLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	links := []models.ProviderLink{}
	for _, link := range s.links {
		if link.UserID == userID {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].Provider < links[j].Provider
	})
	return links, nil
}

func (s *fakeStore) LinkByUser(ctx context.Context, userID string, provider models.Provider) (*models.ProviderLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[fakeKey(userID, provider)]
	if !ok {
		return nil, ErrNotLinked
	}
	return &link, nil
}

func (s *fakeStore) LinkByProviderAccount(ctx context.Context, provider models.Provider, accountID string) (*models.ProviderLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, link := range s.links {
		if link.Provider == provider && link.ProviderAccountID == accountID {
			return &link, nil
		}
	}
	return nil, ErrNotLinked
}

func (s *fakeStore) UpsertLink(ctx context.Context, link *models.ProviderLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upsertErr != nil {
		return s.upsertErr
	}

	for key, existing := range s.links {
		if existing.Provider == link.Provider &&
			existing.ProviderAccountID == link.ProviderAccountID &&
			existing.UserID != link.UserID {
			delete(s.links, key)
		}
	}

	link.UpdatedAt = time.Now().UTC()
	s.links[fakeKey(link.UserID, link.Provider)] = *link
	s.upserts++
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error {
	return nil
}

// seed installs a link directly, bypassing upsert bookkeeping
func (s *fakeStore) seed(link models.ProviderLink) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[link.UserID] = true
	s.links[fakeKey(link.UserID, link.Provider)] = link
}

// get returns the stored link for inspection
func (s *fakeStore) get(userID string, provider models.Provider) (models.ProviderLink, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[fakeKey(userID, provider)]
	return link, ok
}
