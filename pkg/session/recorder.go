// Package session ties a signed-in identity to the story in play: it
// autosaves finished rounds into the identity's history and serves that
// history back for browsing and resuming.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/tellatale/internal/logging"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/ports"
)

// Recorder tracks who is signed in and persists story snapshots on their
// behalf. Recording while signed out is a silent no-op so anonymous play
// never touches the store.
type Recorder struct {
	store  ports.HistoryStore
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	active string
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLogger configures a logger for deferred save errors.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithClock overrides the timestamp source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder creates a recorder over a history store, signed out.
func NewRecorder(store ports.HistoryStore, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SignUp registers a new identity and signs it in.
func (r *Recorder) SignUp(ctx context.Context, username, credential string) (*domain.Identity, error) {
	id, err := r.store.Register(ctx, username, credential)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.active = id.Username
	r.mu.Unlock()
	return id, nil
}

// SignIn authenticates an existing identity and signs it in.
func (r *Recorder) SignIn(ctx context.Context, username, credential string) (*domain.Identity, error) {
	id, err := r.store.Authenticate(ctx, username, credential)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.active = id.Username
	r.mu.Unlock()
	return id, nil
}

// SignOut clears the active identity. Pending stories stay in memory only.
func (r *Recorder) SignOut() {
	r.mu.Lock()
	r.active = ""
	r.mu.Unlock()
}

// Active returns the signed-in username, or "" when signed out.
func (r *Recorder) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Record snapshots a story into the active identity's history. Signed out, or
// with a nil story, it does nothing. A vanished identity is logged and
// swallowed; autosave must never interrupt play.
func (r *Recorder) Record(ctx context.Context, story *domain.Story) error {
	username := r.Active()
	if username == "" || story == nil {
		return nil
	}
	saved := domain.SavedStory{Story: story.Clone(), Timestamp: r.now()}
	err := r.store.Upsert(ctx, username, saved)
	if errors.Is(err, domain.ErrIdentityNotFound) {
		r.logger.Warn("identity vanished, skipping autosave", "username", username, "story_id", story.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record story: %w", err)
	}
	r.logger.Debug("story recorded", "username", username, "story_id", story.ID)
	return nil
}

// History returns the active identity's saved stories, most recent first.
func (r *Recorder) History(ctx context.Context) ([]domain.SavedStory, error) {
	username := r.Active()
	if username == "" {
		return nil, domain.ErrIdentityNotFound
	}
	id, err := r.store.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	return id.History, nil
}

// Recall fetches one saved story from the active identity's history.
func (r *Recorder) Recall(ctx context.Context, storyID string) (*domain.SavedStory, error) {
	username := r.Active()
	if username == "" {
		return nil, domain.ErrIdentityNotFound
	}
	id, err := r.store.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	return id.FindStory(storyID)
}

// Forget removes a saved story from the active identity's history.
func (r *Recorder) Forget(ctx context.Context, storyID string) error {
	username := r.Active()
	if username == "" {
		return domain.ErrIdentityNotFound
	}
	return r.store.Remove(ctx, username, storyID)
}
