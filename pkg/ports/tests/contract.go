package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/ports"
)

// HistoryStoreContractTest is a reusable suite verifying that an adapter
// complies with ports.HistoryStore. Every adapter runs it against a fresh,
// empty store.
func HistoryStoreContractTest(t *testing.T, store ports.HistoryStore) {
	t.Helper()
	ctx := context.Background()

	saved := func(id, title string) domain.SavedStory {
		return domain.SavedStory{
			Story: domain.Story{
				ID:    id,
				Title: title,
				Genre: domain.GenreFantasy,
				Segments: []domain.Segment{
					{ID: id + "-seg", Text: "Once upon a time.", Choices: []domain.Choice{{Text: "Go on", Consequence: "More story"}}},
				},
				Personality: domain.DefaultProfile(),
			},
			Timestamp: time.Unix(1700000000, 0).UTC(),
		}
	}

	t.Run("Register_Success", func(t *testing.T) {
		id, err := store.Register(ctx, "elara", "open-sesame")
		if err != nil {
			t.Fatalf("unexpected register error: %v", err)
		}
		if id.Username != "elara" {
			t.Errorf("username mismatch: got %q", id.Username)
		}
		if len(id.History) != 0 {
			t.Errorf("expected empty history, got %d entries", len(id.History))
		}
	})

	t.Run("Register_Duplicate", func(t *testing.T) {
		if _, err := store.Register(ctx, "elara", "another"); !errors.Is(err, domain.ErrUsernameTaken) {
			t.Errorf("expected ErrUsernameTaken, got %v", err)
		}
	})

	t.Run("Authenticate_Success", func(t *testing.T) {
		id, err := store.Authenticate(ctx, "elara", "open-sesame")
		if err != nil {
			t.Fatalf("unexpected authenticate error: %v", err)
		}
		if id.Username != "elara" {
			t.Errorf("username mismatch: got %q", id.Username)
		}
	})

	t.Run("Authenticate_BadCredential", func(t *testing.T) {
		if _, err := store.Authenticate(ctx, "elara", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("Authenticate_UnknownUser", func(t *testing.T) {
		if _, err := store.Authenticate(ctx, "nobody", "whatever"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("Upsert_UnknownIdentity", func(t *testing.T) {
		if err := store.Upsert(ctx, "nobody", saved("s1", "Lost")); !errors.Is(err, domain.ErrIdentityNotFound) {
			t.Errorf("expected ErrIdentityNotFound, got %v", err)
		}
	})

	t.Run("Upsert_PrependsNewIDs", func(t *testing.T) {
		if err := store.Upsert(ctx, "elara", saved("s1", "First")); err != nil {
			t.Fatalf("unexpected upsert error: %v", err)
		}
		if err := store.Upsert(ctx, "elara", saved("s2", "Second")); err != nil {
			t.Fatalf("unexpected upsert error: %v", err)
		}

		id, err := store.Get(ctx, "elara")
		if err != nil {
			t.Fatalf("unexpected get error: %v", err)
		}
		if len(id.History) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(id.History))
		}
		if id.History[0].ID != "s2" || id.History[1].ID != "s1" {
			t.Errorf("expected most-recent-first [s2 s1], got [%s %s]", id.History[0].ID, id.History[1].ID)
		}
	})

	t.Run("Upsert_ReplacesInPlace", func(t *testing.T) {
		if err := store.Upsert(ctx, "elara", saved("s1", "First, revised")); err != nil {
			t.Fatalf("unexpected upsert error: %v", err)
		}

		id, err := store.Get(ctx, "elara")
		if err != nil {
			t.Fatalf("unexpected get error: %v", err)
		}
		if len(id.History) != 2 {
			t.Fatalf("expected length unchanged at 2, got %d", len(id.History))
		}
		if id.History[0].ID != "s2" {
			t.Errorf("expected s2 to keep position 0, got %s", id.History[0].ID)
		}
		if id.History[1].ID != "s1" || id.History[1].Title != "First, revised" {
			t.Errorf("expected s1 replaced in place, got %s %q", id.History[1].ID, id.History[1].Title)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := store.Remove(ctx, "elara", "s1"); err != nil {
			t.Fatalf("unexpected remove error: %v", err)
		}
		id, err := store.Get(ctx, "elara")
		if err != nil {
			t.Fatalf("unexpected get error: %v", err)
		}
		if len(id.History) != 1 || id.History[0].ID != "s2" {
			t.Errorf("expected only s2 left, got %d entries", len(id.History))
		}
		if err := store.Remove(ctx, "elara", "s1"); !errors.Is(err, domain.ErrStoryNotFound) {
			t.Errorf("expected ErrStoryNotFound, got %v", err)
		}
	})

	t.Run("Get_Unknown", func(t *testing.T) {
		if _, err := store.Get(ctx, "nobody"); !errors.Is(err, domain.ErrIdentityNotFound) {
			t.Errorf("expected ErrIdentityNotFound, got %v", err)
		}
	})
}
