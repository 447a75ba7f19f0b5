package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tellatale/pkg/adapters/file"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/ports/tests"
)

func TestFileStore_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identities.json")
	tests.HistoryStoreContractTest(t, file.NewStore(path))
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "identities.json")

	first := file.NewStore(path)
	_, err := first.Register(ctx, "elara", "secret")
	require.NoError(t, err)
	require.NoError(t, first.Upsert(ctx, "elara", domain.SavedStory{
		Story:     domain.Story{ID: "s1", Title: "The Glass Orchard"},
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}))

	// A fresh instance over the same path sees everything.
	second := file.NewStore(path)
	id, err := second.Authenticate(ctx, "elara", "secret")
	require.NoError(t, err)
	require.Len(t, id.History, 1)
	assert.Equal(t, "The Glass Orchard", id.History[0].Title)
}

func TestFileStore_FilePermissions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "identities.json")

	store := file.NewStore(path)
	_, err := store.Register(ctx, "elara", "secret")
	require.NoError(t, err)

	// Credential hashes live in this file; keep it owner-only.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
