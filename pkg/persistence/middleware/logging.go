package middleware

import (
	"context"
	"time"

	"log/slog"

	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.HistoryStore
	logger *slog.Logger
}

// NewLoggingMiddleware creates a middleware that logs every store operation
// with its duration and outcome. Credentials never reach the log.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) log(op, username string, start time.Time, err error) {
	attrs := []any{"op", op, "username", username, "duration", time.Since(start)}
	if err != nil {
		m.logger.Warn("history store operation failed", append(attrs, "err", err)...)
		return
	}
	m.logger.Debug("history store operation", attrs...)
}

func (m *loggingMiddleware) Register(ctx context.Context, username, credential string) (*domain.Identity, error) {
	start := time.Now()
	id, err := m.next.Register(ctx, username, credential)
	m.log("register", username, start, err)
	return id, err
}

func (m *loggingMiddleware) Authenticate(ctx context.Context, username, credential string) (*domain.Identity, error) {
	start := time.Now()
	id, err := m.next.Authenticate(ctx, username, credential)
	m.log("authenticate", username, start, err)
	return id, err
}

func (m *loggingMiddleware) Get(ctx context.Context, username string) (*domain.Identity, error) {
	start := time.Now()
	id, err := m.next.Get(ctx, username)
	m.log("get", username, start, err)
	return id, err
}

func (m *loggingMiddleware) Upsert(ctx context.Context, username string, story domain.SavedStory) error {
	start := time.Now()
	err := m.next.Upsert(ctx, username, story)
	m.log("upsert", username, start, err)
	return err
}

func (m *loggingMiddleware) Remove(ctx context.Context, username, storyID string) error {
	start := time.Now()
	err := m.next.Remove(ctx, username, storyID)
	m.log("remove", username, start, err)
	return err
}
