package ports

import (
	"context"

	"github.com/aretw0/tellatale/pkg/domain"
)

// HistoryStore persists identities and their saved-story history.
//
// Granularity is whole-identity read-modify-write: adapters load the record,
// mutate the history through the domain.Identity helpers and write it back.
type HistoryStore interface {
	// Register creates an identity with an empty history.
	// Returns domain.ErrUsernameTaken if the username exists.
	Register(ctx context.Context, username, credential string) (*domain.Identity, error)

	// Authenticate returns the identity on an exact credential match,
	// otherwise domain.ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, credential string) (*domain.Identity, error)

	// Get loads an identity by username.
	// Returns domain.ErrIdentityNotFound if it does not exist.
	Get(ctx context.Context, username string) (*domain.Identity, error)

	// Upsert saves a story into the identity's history: replace in place when
	// the ID exists, prepend otherwise. Returns domain.ErrIdentityNotFound
	// for unknown usernames; callers treat that as a no-op signal.
	Upsert(ctx context.Context, username string, story domain.SavedStory) error

	// Remove deletes a saved story from the identity's history.
	Remove(ctx context.Context, username, storyID string) error
}
