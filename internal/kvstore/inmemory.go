package kvstore

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// InMemoryStore is a thread-safe in-memory implementation of Store.
// Expired entries are dropped lazily on read.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	nowFunc func() time.Time
}

type StoreOption func(*InMemoryStore)

func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *InMemoryStore) {
		s.nowFunc = now
	}
}

// NewInMemoryStore creates a new in-memory TTL store
func NewInMemoryStore(options ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{
		entries: make(map[string]entry),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Get returns the value for key if present and unexpired
func (s *InMemoryStore) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if s.nowFunc().After(e.expiresAt) {
		s.Forget(key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key for ttl. A non-positive ttl stores nothing.
func (s *InMemoryStore) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.nowFunc().Add(ttl)}
}

// Forget removes key from the store
func (s *InMemoryStore) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}
