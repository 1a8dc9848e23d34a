package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// StateLedger issues and redeems the one-time state tokens that bind an
// outbound provider redirect to the application user who initiated it.
// Entries live in process memory behind a mutex. Redemption is destructive
// and re-checks expiry, so periodic compaction is memory hygiene only.
type StateLedger struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	ttl     time.Duration

	now func() time.Time // replaceable in tests
}

type stateEntry struct {
	appUserID string
	expiresAt time.Time
}

// NewStateLedger creates a ledger whose entries expire after ttl
func NewStateLedger(ttl time.Duration) *StateLedger {
	return &StateLedger{
		entries: make(map[string]stateEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GenerateState generates a random state parameter for CSRF protection
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Issue binds a fresh state token to appUserID and records its absolute
// expiry. The token is returned for embedding in the authorize URL.
func (l *StateLedger) Issue(appUserID string) (string, error) {
	token, err := GenerateState()
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[token] = stateEntry{
		appUserID: appUserID,
		expiresAt: l.now().Add(l.ttl),
	}
	return token, nil
}

// Redeem removes the entry for token and returns the application user id
// bound to it. Unknown, expired and already-redeemed tokens all fail with
// ErrInvalidState; expired entries are deleted on the way out, so a second
// redemption of any token fails regardless of timing.
func (l *StateLedger) Redeem(token string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[token]
	if !ok {
		return "", ErrInvalidState
	}
	delete(l.entries, token)

	if l.now().After(entry.expiresAt) {
		return "", ErrInvalidState
	}
	return entry.appUserID, nil
}

// Compact drops expired entries and reports how many were removed
func (l *StateLedger) Compact() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for token, entry := range l.entries {
		if now.After(entry.expiresAt) {
			delete(l.entries, token)
			removed++
		}
	}
	return removed
}

// Pending reports the number of unredeemed entries currently held
func (l *StateLedger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
