// Package file provides a ports.HistoryStore backed by a single JSON file,
// the zero-infrastructure default for local play.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/tellatale/pkg/domain"
)

// Store implements ports.HistoryStore on the local filesystem. All identities
// live in one JSON document; every operation is a read-modify-write of the
// whole file under a process-local lock.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a file store. If path is empty it defaults to
// ".tellatale/identities.json".
func NewStore(path string) *Store {
	if path == "" {
		path = filepath.Join(".tellatale", "identities.json")
	}
	return &Store{path: path}
}

func (s *Store) load() (map[string]*domain.Identity, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*domain.Identity), nil
		}
		return nil, fmt.Errorf("failed to read identity file: %w", err)
	}
	identities := make(map[string]*domain.Identity)
	if err := json.Unmarshal(data, &identities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity file: %w", err)
	}
	return identities, nil
}

func (s *Store) save(identities map[string]*domain.Identity) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to ensure identity directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(identities, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal identities: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write identity file: %w", err)
	}
	return nil
}

// Register creates a new identity with an empty history.
func (s *Store) Register(ctx context.Context, username, credential string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities, err := s.load()
	if err != nil {
		return nil, err
	}
	if _, exists := identities[username]; exists {
		return nil, domain.ErrUsernameTaken
	}
	id, err := domain.NewIdentity(username, credential)
	if err != nil {
		return nil, err
	}
	identities[username] = id
	if err := s.save(identities); err != nil {
		return nil, err
	}
	return id, nil
}

// Authenticate returns the identity on an exact credential match.
func (s *Store) Authenticate(ctx context.Context, username, credential string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities, err := s.load()
	if err != nil {
		return nil, err
	}
	id, ok := identities[username]
	if !ok || !id.VerifyCredential(credential) {
		return nil, domain.ErrInvalidCredentials
	}
	return id, nil
}

// Get loads an identity by username.
func (s *Store) Get(ctx context.Context, username string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities, err := s.load()
	if err != nil {
		return nil, err
	}
	id, ok := identities[username]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return id, nil
}

// Upsert saves a story into the identity's history.
func (s *Store) Upsert(ctx context.Context, username string, story domain.SavedStory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities, err := s.load()
	if err != nil {
		return err
	}
	id, ok := identities[username]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	id.PutStory(story)
	return s.save(identities)
}

// Remove deletes a saved story from the identity's history.
func (s *Store) Remove(ctx context.Context, username, storyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities, err := s.load()
	if err != nil {
		return err
	}
	id, ok := identities[username]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	if err := id.RemoveStory(storyID); err != nil {
		return err
	}
	return s.save(identities)
}
