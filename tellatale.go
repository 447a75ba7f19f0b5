package tellatale

import (
	"context"

	"log/slog"

	"github.com/aretw0/tellatale/internal/logging"
	"github.com/aretw0/tellatale/internal/runtime"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/ports"
	"github.com/aretw0/tellatale/pkg/session"
)

// Version is the library version, also reported by the CLI and MCP server.
const Version = "0.1.0"

// Engine is the high-level entry point for the TellATale library. It wraps
// the internal session runtime and, when a history store is configured, an
// autosaving recorder.
type Engine struct {
	runtime  *runtime.Engine
	recorder *session.Recorder
	store    ports.HistoryStore
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHistoryStore enables identity management and autosave on the given
// store.
func WithHistoryStore(store ports.HistoryStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// New initializes a TellATale Engine over a generation backend.
func New(gen ports.Generator, opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store != nil {
		eng.recorder = session.NewRecorder(eng.store, session.WithLogger(eng.logger))
	}
	eng.runtime = runtime.NewEngine(gen,
		runtime.WithLogger(eng.logger),
		runtime.WithHooks(eng.hooks),
	)
	return eng
}

// Configure stages the setup for a new story.
func (e *Engine) Configure(cfg domain.Config) error {
	return e.runtime.Configure(cfg)
}

// Start runs the opening generation round and autosaves the result.
func (e *Engine) Start(ctx context.Context) (*domain.Segment, error) {
	segment, err := e.runtime.Start(ctx)
	if err != nil {
		return nil, err
	}
	e.autosave(ctx)
	return segment, nil
}

// Choose submits a choice by index and runs a continuation round.
func (e *Engine) Choose(ctx context.Context, index int) (*domain.Segment, error) {
	segment, err := e.runtime.Choose(ctx, index)
	if err != nil {
		return nil, err
	}
	e.autosave(ctx)
	return segment, nil
}

// Reset abandons the current story. Pass confirm once segments exist.
func (e *Engine) Reset(confirm bool) error {
	return e.runtime.Reset(confirm)
}

// Load resumes a previously saved story.
func (e *Engine) Load(saved domain.SavedStory) error {
	return e.runtime.Load(saved)
}

// Snapshot returns a deep copy of the story in play, or nil.
func (e *Engine) Snapshot() *domain.Story {
	return e.runtime.Snapshot()
}

// Personality returns the protagonist's current soul profile.
func (e *Engine) Personality() domain.PersonalityProfile {
	return e.runtime.Personality()
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() domain.Phase {
	return e.runtime.Phase()
}

// Recorder returns the identity/autosave coordinator, or nil when no history
// store was configured.
func (e *Engine) Recorder() *session.Recorder {
	return e.recorder
}

// Runtime exposes the underlying session engine for adapters.
func (e *Engine) Runtime() *runtime.Engine {
	return e.runtime
}

func (e *Engine) autosave(ctx context.Context) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ctx, e.runtime.Snapshot()); err != nil {
		e.logger.Warn("autosave failed", "err", err)
	}
}
