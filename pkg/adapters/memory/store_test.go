package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tellatale/pkg/adapters/memory"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	tests.HistoryStoreContractTest(t, memory.NewStore())
}

func TestMemoryStore_ReadIsolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, err := store.Register(ctx, "elara", "secret")
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, "elara", domain.SavedStory{
		Story: domain.Story{
			ID:       "s1",
			Title:    "The Glass Orchard",
			Segments: []domain.Segment{{ID: "seg", Text: "It begins."}},
		},
		Timestamp: time.Now(),
	}))

	id, err := store.Get(ctx, "elara")
	require.NoError(t, err)
	id.History[0].Title = "tampered"
	id.History[0].Segments[0].Text = "tampered"

	again, err := store.Get(ctx, "elara")
	require.NoError(t, err)
	assert.Equal(t, "The Glass Orchard", again.History[0].Title)
	assert.Equal(t, "It begins.", again.History[0].Segments[0].Text)
}
