package tokencache

import (
	"context"
	"sync"
	"time"

	"github.com/mdm-gateway/mdm-gateway/internal/domain/enrollment"
)

// Store is an in-memory expiring token store. Entries live for the
// configured TTL; expired entries are dropped lazily on read and in bulk by
// DeleteExpired, which the server runs on a background ticker.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*enrollment.Token
	ttl     time.Duration
	now     func() time.Time
}

// New creates a token store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*enrollment.Token),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put stores a token, stamping CreatedAt/ExpiresAt when unset.
func (s *Store) Put(_ context.Context, token *enrollment.Token) error {
	now := s.now().UTC()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	if token.ExpiresAt.IsZero() {
		token.ExpiresAt = token.CreatedAt.Add(s.ttl)
	}
	t := *token
	s.mu.Lock()
	s.entries[t.Value] = &t
	s.mu.Unlock()
	return nil
}

// Get returns the token for a value, or (nil, nil) when missing or expired.
func (s *Store) Get(_ context.Context, value string) (*enrollment.Token, error) {
	s.mu.RLock()
	t, ok := s.entries[value]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if t.IsExpired(s.now().UTC()) {
		s.mu.Lock()
		delete(s.entries, value)
		s.mu.Unlock()
		return nil, nil
	}
	out := *t
	return &out, nil
}

// DeleteExpired evicts every expired entry and reports how many were
// removed.
func (s *Store) DeleteExpired(_ context.Context) (int, error) {
	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for value, t := range s.entries {
		if t.IsExpired(now) {
			delete(s.entries, value)
			removed++
		}
	}
	return removed, nil
}
