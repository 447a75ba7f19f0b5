// Package redis provides a ports.HistoryStore backed by Redis, for shared
// deployments where several hosts serve the same readers.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/tellatale/pkg/domain"
)

// Store implements ports.HistoryStore using Redis. Each identity is one JSON
// value; history mutations run under WATCH so concurrent writers never lose
// an update.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix for identity records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "tellatale:identity:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(username string) string {
	return s.prefix + username
}

func (s *Store) get(ctx context.Context, c backend.Cmdable, username string) (*domain.Identity, error) {
	val, err := c.Get(ctx, s.key(username)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to get identity from redis: %w", err)
	}
	var id domain.Identity
	if err := json.Unmarshal([]byte(val), &id); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity: %w", err)
	}
	return &id, nil
}

// Register creates a new identity with an empty history. SetNX keeps the
// username claim atomic across processes.
func (s *Store) Register(ctx context.Context, username, credential string) (*domain.Identity, error) {
	id, err := domain.NewIdentity(username, credential)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal identity: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(username), data, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to register identity: %w", err)
	}
	if !ok {
		return nil, domain.ErrUsernameTaken
	}
	return id, nil
}

// Authenticate returns the identity on an exact credential match.
func (s *Store) Authenticate(ctx context.Context, username, credential string) (*domain.Identity, error) {
	id, err := s.get(ctx, s.client, username)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !id.VerifyCredential(credential) {
		return nil, domain.ErrInvalidCredentials
	}
	return id, nil
}

// Get loads an identity by username.
func (s *Store) Get(ctx context.Context, username string) (*domain.Identity, error) {
	return s.get(ctx, s.client, username)
}

// Upsert saves a story into the identity's history.
func (s *Store) Upsert(ctx context.Context, username string, story domain.SavedStory) error {
	return s.mutate(ctx, username, func(id *domain.Identity) error {
		id.PutStory(story)
		return nil
	})
}

// Remove deletes a saved story from the identity's history.
func (s *Store) Remove(ctx context.Context, username, storyID string) error {
	return s.mutate(ctx, username, func(id *domain.Identity) error {
		return id.RemoveStory(storyID)
	})
}

// mutate runs a read-modify-write of one identity under WATCH, retrying when
// another writer touches the record mid-transaction.
func (s *Store) mutate(ctx context.Context, username string, fn func(*domain.Identity) error) error {
	key := s.key(username)
	txn := func(tx *backend.Tx) error {
		id, err := s.get(ctx, tx, username)
		if err != nil {
			return err
		}
		if err := fn(id); err != nil {
			return err
		}
		data, err := json.Marshal(id)
		if err != nil {
			return fmt.Errorf("failed to marshal identity: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err := s.client.Watch(ctx, txn, key)
		if !errors.Is(err, backend.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("failed to update identity %q: too much contention", username)
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
