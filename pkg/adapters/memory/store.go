// Package memory provides an in-memory ports.HistoryStore, used by tests and
// as the fallback when no persistence backend is configured.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/tellatale/pkg/domain"
)

// Store implements ports.HistoryStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Identity
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Identity),
	}
}

// cloneIdentity deep-copies an identity so callers can never reach the
// store's live slices by pointer.
func cloneIdentity(id *domain.Identity) *domain.Identity {
	out := *id
	out.CredentialHash = append([]byte(nil), id.CredentialHash...)
	out.History = make([]domain.SavedStory, len(id.History))
	for i, s := range id.History {
		out.History[i] = domain.SavedStory{Story: s.Story.Clone(), Timestamp: s.Timestamp}
	}
	return &out
}

// Register creates a new identity with an empty history.
func (s *Store) Register(ctx context.Context, username, credential string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[username]; exists {
		return nil, domain.ErrUsernameTaken
	}
	id, err := domain.NewIdentity(username, credential)
	if err != nil {
		return nil, err
	}
	s.data[username] = id
	return cloneIdentity(id), nil
}

// Authenticate returns the identity on an exact credential match.
func (s *Store) Authenticate(ctx context.Context, username, credential string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.data[username]
	if !ok || !id.VerifyCredential(credential) {
		return nil, domain.ErrInvalidCredentials
	}
	return cloneIdentity(id), nil
}

// Get loads an identity by username.
func (s *Store) Get(ctx context.Context, username string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.data[username]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return cloneIdentity(id), nil
}

// Upsert saves a story into the identity's history.
func (s *Store) Upsert(ctx context.Context, username string, story domain.SavedStory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.data[username]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	id.PutStory(domain.SavedStory{Story: story.Story.Clone(), Timestamp: story.Timestamp})
	return nil
}

// Remove deletes a saved story from the identity's history.
func (s *Store) Remove(ctx context.Context, username, storyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.data[username]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	return id.RemoveStory(storyID)
}
