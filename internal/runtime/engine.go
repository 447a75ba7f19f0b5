// Package runtime implements the session state machine: one coordinator that
// sequences generation rounds, merges concurrent results into immutable
// segments and evolves the personality profile from the reader's choices.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/tellatale/internal/logging"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/ports"
)

// historyWindow is how many recent segments feed the continuation prompt.
const historyWindow = 3

// Engine owns one storytelling session. All mutation happens on the
// coordinating call; the generating flag rejects concurrent rounds, and the
// mutex only protects flag reads against hosts that poll snapshots.
type Engine struct {
	gen    ports.Generator
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	newID  func() string

	mu         sync.Mutex
	phase      domain.Phase
	generating bool
	config     *domain.Config
	story      *domain.Story
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger. Defaults to no-op.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers lifecycle observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithIDFunc overrides ID generation, mainly for deterministic tests.
func WithIDFunc(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// NewEngine creates an idle engine bound to a generator.
func NewEngine(gen ports.Generator, opts ...Option) *Engine {
	e := &Engine{
		gen:    gen,
		logger: logging.NewNop(),
		newID:  uuid.NewString,
		phase:  domain.PhaseIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() domain.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Generating reports whether a round is in flight.
func (e *Engine) Generating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generating
}

// Snapshot returns a deep copy of the story, or nil when no story is active.
func (e *Engine) Snapshot() *domain.Story {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.story == nil {
		return nil
	}
	clone := e.story.Clone()
	return &clone
}

// Personality returns the active profile, or the default when idle.
func (e *Engine) Personality() domain.PersonalityProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.story == nil {
		return domain.DefaultProfile()
	}
	return e.story.Personality
}

// Config returns a copy of the staged config, or nil when none is set.
func (e *Engine) Config() *domain.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.config == nil {
		return nil
	}
	cfg := *e.config
	return &cfg
}

// Configure stages a validated config and moves to the configuring phase.
// Rejected while a round is in flight.
func (e *Engine) Configure(cfg domain.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generating {
		return domain.ErrBusy
	}
	e.config = &cfg
	if e.phase == domain.PhaseIdle {
		e.phase = domain.PhaseConfiguring
	}
	return nil
}

// Start runs the opening round for the staged config: one seed generation,
// then the illustration/narration fan-out, then the first segment.
//
// On seed failure the config is discarded and the session returns to idle.
// Enrichment failures never fail the round; they only leave assets absent.
func (e *Engine) Start(ctx context.Context) (*domain.Segment, error) {
	e.mu.Lock()
	if e.generating {
		e.mu.Unlock()
		return nil, domain.ErrBusy
	}
	if e.config == nil {
		e.mu.Unlock()
		return nil, domain.ErrInvalidConfig
	}
	cfg := *e.config
	storyID := e.newID()
	e.story = &domain.Story{
		ID:          storyID,
		Genre:       cfg.Genre,
		Segments:    []domain.Segment{},
		Personality: domain.DefaultProfile(),
	}
	e.generating = true
	e.phase = domain.PhaseGenerating
	e.mu.Unlock()

	e.fireRoundStart(ctx, storyID, domain.RoundSeed)

	seed, err := e.gen.GenerateSeed(ctx, cfg)
	if err == nil {
		err = validateDraft(&seed.Draft)
	}
	if err != nil {
		e.mu.Lock()
		e.generating = false
		e.phase = domain.PhaseIdle
		e.config = nil
		e.story = nil
		e.mu.Unlock()
		wrapped := fmt.Errorf("%w: %v", domain.ErrSeedGeneration, err)
		e.logger.Error("seed round failed", "story_id", storyID, "err", err)
		e.fireRoundEnd(ctx, storyID, domain.RoundSeed, wrapped)
		return nil, wrapped
	}

	segment := e.buildSegment(&seed.Draft)
	e.enrich(ctx, storyID, &segment)

	e.mu.Lock()
	e.story.Title = seed.Title
	e.story.Segments = append(e.story.Segments, segment)
	index := len(e.story.Segments) - 1
	e.generating = false
	e.phase = domain.PhasePresenting
	e.mu.Unlock()

	e.logger.Info("story started", "story_id", storyID, "title", seed.Title, "genre", cfg.Genre)
	e.fireSegment(ctx, storyID, segment, index)
	e.fireRoundEnd(ctx, storyID, domain.RoundSeed, nil)
	return &segment, nil
}

// Choose submits the choice at the given index of the current segment and
// runs a continuation round.
//
// Trait analysis and continuation run concurrently. A trait failure degrades
// silently to the prior profile; a continuation failure fails the round and
// leaves the story at its last good segment.
func (e *Engine) Choose(ctx context.Context, index int) (*domain.Segment, error) {
	e.mu.Lock()
	if e.generating {
		e.mu.Unlock()
		return nil, domain.ErrBusy
	}
	if e.phase != domain.PhasePresenting || e.story == nil || len(e.story.Segments) == 0 {
		e.mu.Unlock()
		return nil, domain.ErrNoStory
	}
	current := e.story.Segments[len(e.story.Segments)-1]
	if current.Concluded() {
		e.mu.Unlock()
		return nil, domain.ErrStoryConcluded
	}
	if index < 0 || index >= len(current.Choices) {
		e.mu.Unlock()
		return nil, domain.ErrUnknownChoice
	}
	choice := current.Choices[index]
	cfg := *e.config
	profile := e.story.Personality
	storyID := e.story.ID
	texts := e.story.Texts()
	e.generating = true
	e.phase = domain.PhaseGenerating
	e.mu.Unlock()

	e.fireRoundStart(ctx, storyID, domain.RoundContinuation)

	recent := texts
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}

	var (
		wg       sync.WaitGroup
		draft    *ports.Draft
		contErr  error
		shifted  *domain.PersonalityProfile
		shiftErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		draft, contErr = e.gen.GenerateContinuation(ctx, recent, choice, cfg)
		if contErr == nil {
			contErr = validateDraft(draft)
		}
	}()
	go func() {
		defer wg.Done()
		shifted, shiftErr = e.gen.AnalyzeTraitShift(ctx, profile, choice, strings.Join(texts, " "))
	}()
	wg.Wait()

	if contErr != nil {
		e.mu.Lock()
		e.generating = false
		e.phase = domain.PhasePresenting
		e.mu.Unlock()
		wrapped := fmt.Errorf("%w: %v", domain.ErrContinuation, contErr)
		e.logger.Error("continuation round failed", "story_id", storyID, "err", contErr)
		e.fireRoundEnd(ctx, storyID, domain.RoundContinuation, wrapped)
		return nil, wrapped
	}

	segment := e.buildSegment(draft)
	e.enrich(ctx, storyID, &segment)

	var traitBefore, traitAfter domain.PersonalityProfile
	traitShifted := false

	e.mu.Lock()
	if shiftErr == nil && shifted != nil {
		next := *shifted
		next.Traits = next.Traits.Clamp()
		traitBefore = e.story.Personality
		traitAfter = next
		traitShifted = true
		e.story.Personality = next
	}
	e.story.Segments = append(e.story.Segments, segment)
	index = len(e.story.Segments) - 1
	e.generating = false
	e.phase = domain.PhasePresenting
	e.mu.Unlock()

	if shiftErr != nil {
		// Deliberate asymmetry: the narrative continues, the soul stands still.
		e.logger.Warn("trait analysis failed, keeping prior profile", "story_id", storyID, "err", shiftErr)
	}
	if traitShifted {
		e.fireTraitShift(ctx, storyID, traitBefore, traitAfter)
	}

	e.logger.Info("segment appended", "story_id", storyID, "segment_id", segment.ID, "choice", choice.Text)
	e.fireSegment(ctx, storyID, segment, index)
	e.fireRoundEnd(ctx, storyID, domain.RoundContinuation, nil)
	return &segment, nil
}

// Reset abandons the session from any phase. When at least one segment
// exists the caller must confirm, or ErrConfirmRequired is returned and
// nothing changes. The profile falls back to the default with the story.
func (e *Engine) Reset(confirm bool) error {
	e.mu.Lock()
	if e.generating {
		e.mu.Unlock()
		return domain.ErrBusy
	}
	if e.story != nil && len(e.story.Segments) > 0 && !confirm {
		e.mu.Unlock()
		return domain.ErrConfirmRequired
	}
	var storyID string
	if e.story != nil {
		storyID = e.story.ID
	}
	e.story = nil
	e.config = nil
	e.phase = domain.PhaseIdle
	e.mu.Unlock()

	if storyID != "" {
		e.logger.Info("story abandoned", "story_id", storyID)
	}
	if e.hooks.OnReset != nil {
		e.hooks.OnReset(context.Background(), storyID)
	}
	return nil
}

// Load replaces the whole in-memory session with a persisted snapshot. The
// story keeps its ID so later saves overwrite instead of duplicating. The
// session resumes presenting; a concluded last segment only blocks Choose.
func (e *Engine) Load(saved domain.SavedStory) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generating {
		return domain.ErrBusy
	}
	story := saved.Story.Clone()
	e.story = &story
	// The original config is not persisted; resume under a wanderer's guise.
	e.config = &domain.Config{
		Genre:           story.Genre,
		Archetype:       domain.ArchetypeHero,
		ProtagonistName: "Chronicle Traveler",
		Setting:         "The Past",
		Tone:            "Nostalgic",
	}
	e.phase = domain.PhasePresenting
	return nil
}

func (e *Engine) buildSegment(draft *ports.Draft) domain.Segment {
	choices := make([]domain.Choice, len(draft.Choices))
	copy(choices, draft.Choices)
	return domain.Segment{
		ID:           e.newID(),
		Text:         draft.Text,
		VisualPrompt: draft.VisualPrompt,
		Choices:      choices,
	}
}

func validateDraft(draft *ports.Draft) error {
	if draft == nil || draft.Text == "" {
		return fmt.Errorf("empty narrative text")
	}
	return nil
}

func (e *Engine) fireRoundStart(ctx context.Context, storyID string, kind domain.RoundKind) {
	if e.hooks.OnRoundStart != nil {
		e.hooks.OnRoundStart(ctx, &domain.RoundEvent{StoryID: storyID, Kind: kind})
	}
}

func (e *Engine) fireRoundEnd(ctx context.Context, storyID string, kind domain.RoundKind, err error) {
	if e.hooks.OnRoundEnd != nil {
		e.hooks.OnRoundEnd(ctx, &domain.RoundEvent{StoryID: storyID, Kind: kind, Err: err})
	}
}

func (e *Engine) fireSegment(ctx context.Context, storyID string, segment domain.Segment, index int) {
	if e.hooks.OnSegment != nil {
		e.hooks.OnSegment(ctx, &domain.SegmentEvent{StoryID: storyID, Segment: segment, Index: index})
	}
}

func (e *Engine) fireTraitShift(ctx context.Context, storyID string, before, after domain.PersonalityProfile) {
	if e.hooks.OnTraitShift != nil {
		e.hooks.OnTraitShift(ctx, &domain.TraitEvent{StoryID: storyID, Before: before, After: after})
	}
}
