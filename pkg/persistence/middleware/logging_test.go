package middleware_test

import (
	"bytes"
	"context"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tellatale/pkg/adapters/memory"
	"github.com/aretw0/tellatale/pkg/persistence/middleware"
	"github.com/aretw0/tellatale/pkg/ports/tests"
)

func TestLoggingMiddleware_PreservesContract(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	store := middleware.Chain(memory.NewStore(), middleware.NewLoggingMiddleware(logger))
	tests.HistoryStoreContractTest(t, store)
}

func TestLoggingMiddleware_LogsFailuresWithoutCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := middleware.Chain(memory.NewStore(), middleware.NewLoggingMiddleware(logger))

	ctx := context.Background()
	_, err := store.Register(ctx, "elara", "super-secret")
	require.NoError(t, err)
	_, err = store.Authenticate(ctx, "elara", "wrong-guess")
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "op=register")
	assert.Contains(t, out, "op=authenticate")
	assert.Contains(t, out, "username=elara")
	assert.NotContains(t, out, "super-secret")
	assert.NotContains(t, out, "wrong-guess")
}
