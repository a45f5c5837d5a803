package principal

import (
	"fmt"
	"sync"
)

// InMemoryRepo is an in-memory implementation of Repo. Session state is the
// only persisted data in the gateway and it lives for the process lifetime.
type InMemoryRepo struct {
	mu         sync.RWMutex
	principals map[string]Principal
}

// NewInMemoryRepo creates a new in-memory principal repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		principals: make(map[string]Principal),
	}
}

// Upsert creates or updates the principal for a session
func (r *InMemoryRepo) Upsert(sessionID string, p Principal) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.principals[sessionID] = p
	return nil
}

// Get retrieves the principal for a session
func (r *InMemoryRepo) Get(sessionID string) (Principal, error) {
	if sessionID == "" {
		return Principal{}, fmt.Errorf("sessionID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.principals[sessionID]
	if !ok {
		return Principal{}, fmt.Errorf("session not found")
	}
	return p, nil
}

// FindByUserID locates a principal and its session by user id
func (r *InMemoryRepo) FindByUserID(userID string) (string, Principal, error) {
	if userID == "" {
		return "", Principal{}, fmt.Errorf("userID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for sessionID, p := range r.principals {
		if p.ID == userID {
			return sessionID, p, nil
		}
	}
	return "", Principal{}, fmt.Errorf("user not found")
}

// Delete removes the principal for a session
func (r *InMemoryRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.principals, sessionID)
	return nil
}
