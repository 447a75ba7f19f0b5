package runtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tellatale/internal/runtime"
	"github.com/aretw0/tellatale/internal/testutils"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/ports"
)

func fantasyConfig() domain.Config {
	return domain.Config{
		Genre:           domain.GenreFantasy,
		Archetype:       domain.ArchetypeHero,
		ProtagonistName: "Elara",
		Setting:         "a floating city",
		Tone:            "Epic",
	}
}

func startStory(t *testing.T, eng *runtime.Engine, cfg domain.Config) *domain.Segment {
	t.Helper()
	require.NoError(t, eng.Configure(cfg))
	seg, err := eng.Start(context.Background())
	require.NoError(t, err)
	return seg
}

func TestStart_SeedAndEnrichment(t *testing.T) {
	// Scenario A: successful seed and both enrichments.
	gen := testutils.NewStubGenerator()
	eng := runtime.NewEngine(gen)

	require.NoError(t, eng.Configure(fantasyConfig()))
	assert.Equal(t, domain.PhaseConfiguring, eng.Phase())

	seg, err := eng.Start(context.Background())
	require.NoError(t, err)

	story := eng.Snapshot()
	require.NotNil(t, story)
	assert.Equal(t, "The Sky Throne", story.Title)
	assert.Len(t, story.Segments, 1)
	assert.NotEmpty(t, seg.ImageRef)
	assert.NotEmpty(t, seg.AudioRef)
	assert.Len(t, seg.Choices, 3)
	assert.Equal(t, domain.PhasePresenting, eng.Phase())
	assert.Equal(t, domain.DefaultProfile(), eng.Personality())
}

func TestStart_SeedFailureReturnsToIdle(t *testing.T) {
	// Scenario B: seed generation fails, config is discarded.
	gen := testutils.NewStubGenerator()
	gen.FailSeed = true
	eng := runtime.NewEngine(gen)

	require.NoError(t, eng.Configure(fantasyConfig()))
	_, err := eng.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSeedGeneration)

	assert.Equal(t, domain.PhaseIdle, eng.Phase())
	assert.Nil(t, eng.Snapshot())
	assert.Nil(t, eng.Config())
	// No enrichment may run for a failed seed.
	assert.Zero(t, gen.CallCount("illustration"))
	assert.Zero(t, gen.CallCount("narration"))
}

func TestStart_EmptySeedTextIsMalformed(t *testing.T) {
	gen := testutils.NewStubGenerator()
	gen.SeedResult.Text = ""
	eng := runtime.NewEngine(gen)

	require.NoError(t, eng.Configure(fantasyConfig()))
	_, err := eng.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrSeedGeneration)
	assert.Equal(t, domain.PhaseIdle, eng.Phase())
}

func TestConfigure_Validation(t *testing.T) {
	eng := runtime.NewEngine(testutils.NewStubGenerator())

	err := eng.Configure(domain.Config{Genre: domain.GenreNoir, Setting: "a rainy city"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	err = eng.Configure(domain.Config{Genre: domain.GenreNoir, ProtagonistName: "Sam"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	assert.Equal(t, domain.PhaseIdle, eng.Phase())
}

func TestChoose_AppendsAndShiftsTraits(t *testing.T) {
	gen := testutils.NewStubGenerator()
	eng := runtime.NewEngine(gen)
	startStory(t, eng, fantasyConfig())

	seg, err := eng.Choose(context.Background(), 0)
	require.NoError(t, err)
	assert.NotEmpty(t, seg.Text)

	story := eng.Snapshot()
	assert.Len(t, story.Segments, 2)
	assert.Equal(t, domain.PhasePresenting, eng.Phase())
	assert.Equal(t, *gen.ShiftResult, eng.Personality())
}

func TestChoose_TraitFailureKeepsProfile(t *testing.T) {
	// Scenario C: continuation succeeds while trait analysis fails.
	gen := testutils.NewStubGenerator()
	gen.FailShift = true
	eng := runtime.NewEngine(gen)
	startStory(t, eng, fantasyConfig())

	before := eng.Personality()
	_, err := eng.Choose(context.Background(), 1)
	require.NoError(t, err)

	story := eng.Snapshot()
	assert.Len(t, story.Segments, 2)
	assert.Equal(t, before, eng.Personality())
	assert.Equal(t, domain.PhasePresenting, eng.Phase())
}

func TestChoose_ContinuationFailureKeepsStory(t *testing.T) {
	gen := testutils.NewStubGenerator()
	gen.FailContinuation = true
	eng := runtime.NewEngine(gen)
	startStory(t, eng, fantasyConfig())

	before := eng.Snapshot()
	_, err := eng.Choose(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrContinuation)

	after := eng.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, domain.PhasePresenting, eng.Phase())
	assert.False(t, eng.Generating(), "flag must be cleared so the choice can be retried")

	// The same choice can be retried once the backend recovers.
	gen.FailContinuation = false
	_, err = eng.Choose(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, eng.Snapshot().Segments, 2)
}

func TestChoose_TraitsClampedToRange(t *testing.T) {
	gen := testutils.NewStubGenerator()
	gen.ShiftResult = &domain.PersonalityProfile{
		Traits:         domain.TraitVector{Valiance: 140, Empathy: -20, Shadow: 101, Logic: 100, Chaos: -1},
		Summary:        "A storm beyond all measure.",
		ArchetypeMatch: "Trickster",
	}
	eng := runtime.NewEngine(gen)
	startStory(t, eng, fantasyConfig())

	_, err := eng.Choose(context.Background(), 2)
	require.NoError(t, err)

	got := eng.Personality()
	assert.True(t, got.Traits.InRange())
	assert.Equal(t, domain.TraitVector{Valiance: 100, Empathy: 0, Shadow: 100, Logic: 100, Chaos: 0}, got.Traits)
	assert.Equal(t, "A storm beyond all measure.", got.Summary)
}

func TestChoose_EnrichmentIndependence(t *testing.T) {
	cases := []struct {
		name                 string
		failImage, failAudio bool
	}{
		{"IllustrationFails", true, false},
		{"NarrationFails", false, true},
		{"BothFail", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := testutils.NewStubGenerator()
			gen.FailIllustration = tc.failImage
			gen.FailNarration = tc.failAudio
			eng := runtime.NewEngine(gen)

			seg := startStory(t, eng, fantasyConfig())
			assert.Equal(t, tc.failImage, seg.ImageRef == "")
			assert.Equal(t, tc.failAudio, seg.AudioRef == "")
			assert.Equal(t, domain.PhasePresenting, eng.Phase())
		})
	}
}

func TestChoose_RejectsForeignAndMissingChoices(t *testing.T) {
	gen := testutils.NewStubGenerator()
	eng := runtime.NewEngine(gen)
	startStory(t, eng, fantasyConfig())

	_, err := eng.Choose(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrUnknownChoice)
	_, err = eng.Choose(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrUnknownChoice)
	assert.Len(t, eng.Snapshot().Segments, 1)
}

func TestChoose_ConcludedStory(t *testing.T) {
	gen := testutils.NewStubGenerator()
	eng := runtime.NewEngine(gen)
	require.NoError(t, eng.Load(domain.SavedStory{Story: domain.Story{
		ID:    "finished",
		Title: "The Last Page",
		Genre: domain.GenreFairyTale,
		Segments: []domain.Segment{
			{ID: "end", Text: "And they lived happily ever after.", Choices: []domain.Choice{}},
		},
		Personality: domain.DefaultProfile(),
	}}))

	_, err := eng.Choose(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrStoryConcluded)
	assert.Equal(t, domain.PhasePresenting, eng.Phase())
}

func TestSegmentHistory_AppendOnly(t *testing.T) {
	gen := testutils.NewStubGenerator()
	eng := runtime.NewEngine(gen)
	startStory(t, eng, fantasyConfig())

	before := eng.Snapshot()
	beforeJSON, err := json.Marshal(before.Segments)
	require.NoError(t, err)

	_, err = eng.Choose(context.Background(), 0)
	require.NoError(t, err)

	after := eng.Snapshot()
	require.Len(t, after.Segments, 2)
	prefixJSON, err := json.Marshal(after.Segments[:1])
	require.NoError(t, err)
	assert.Equal(t, beforeJSON, prefixJSON, "existing segments must stay byte-identical")
}

// blockingGenerator parks continuation rounds until released, so tests can
// observe the in-flight state.
type blockingGenerator struct {
	*testutils.StubGenerator
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingGenerator) GenerateContinuation(ctx context.Context, history []string, choice domain.Choice, cfg domain.Config) (*ports.Draft, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.StubGenerator.GenerateContinuation(ctx, history, choice, cfg)
}

func TestChoose_SecondChoiceWhileGeneratingIsRejected(t *testing.T) {
	// Scenario D: submitting while the flag is set is a no-op.
	gen := &blockingGenerator{
		StubGenerator: testutils.NewStubGenerator(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	eng := runtime.NewEngine(gen)
	startStory(t, eng, fantasyConfig())

	done := make(chan error, 1)
	go func() {
		_, err := eng.Choose(context.Background(), 0)
		done <- err
	}()

	<-gen.entered
	assert.True(t, eng.Generating())
	_, err := eng.Choose(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(gen.release)
	require.NoError(t, <-done)

	// Exactly one segment was appended by the single accepted round.
	assert.Len(t, eng.Snapshot().Segments, 2)
	assert.Equal(t, 1, gen.CallCount("continuation"))
}

func TestReset_ConfirmationGate(t *testing.T) {
	gen := testutils.NewStubGenerator()
	eng := runtime.NewEngine(gen)
	startStory(t, eng, fantasyConfig())

	err := eng.Reset(false)
	assert.ErrorIs(t, err, domain.ErrConfirmRequired)
	assert.NotNil(t, eng.Snapshot())

	require.NoError(t, eng.Reset(true))
	assert.Equal(t, domain.PhaseIdle, eng.Phase())
	assert.Nil(t, eng.Snapshot())
	assert.Equal(t, domain.DefaultProfile(), eng.Personality())
}

func TestReset_WithoutSegmentsNeedsNoConfirmation(t *testing.T) {
	eng := runtime.NewEngine(testutils.NewStubGenerator())
	require.NoError(t, eng.Configure(fantasyConfig()))
	require.NoError(t, eng.Reset(false))
	assert.Equal(t, domain.PhaseIdle, eng.Phase())
}

func TestLoad_ReplacesSessionAndKeepsID(t *testing.T) {
	gen := testutils.NewStubGenerator()
	eng := runtime.NewEngine(gen)
	startStory(t, eng, fantasyConfig())

	saved := domain.SavedStory{Story: domain.Story{
		ID:    "chronicle-7",
		Title: "The Clockwork Rose",
		Genre: domain.GenreSteampunk,
		Segments: []domain.Segment{
			{ID: "s1", Text: "Gears turn beneath the rose garden.", Choices: testutils.ThreeChoices()},
		},
		Personality: domain.PersonalityProfile{
			Traits:         domain.TraitVector{Valiance: 70, Empathy: 30, Shadow: 40, Logic: 80, Chaos: 10},
			Summary:        "A mind of brass and steam.",
			ArchetypeMatch: "Seeker",
		},
	}}
	require.NoError(t, eng.Load(saved))

	story := eng.Snapshot()
	assert.Equal(t, "chronicle-7", story.ID)
	assert.Equal(t, "The Clockwork Rose", story.Title)
	assert.Equal(t, saved.Personality, eng.Personality())
	assert.Equal(t, domain.PhasePresenting, eng.Phase())

	// Play continues from the restored snapshot.
	_, err := eng.Choose(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, eng.Snapshot().Segments, 2)
	assert.Equal(t, "chronicle-7", eng.Snapshot().ID)
}

func TestHooks_FireAcrossARound(t *testing.T) {
	gen := testutils.NewStubGenerator()
	gen.FailNarration = true

	var mu sync.Mutex
	var rounds []domain.RoundKind
	var misses []string
	segments := 0
	shifts := 0

	eng := runtime.NewEngine(gen, runtime.WithHooks(domain.LifecycleHooks{
		OnRoundStart: func(_ context.Context, ev *domain.RoundEvent) {
			mu.Lock()
			rounds = append(rounds, ev.Kind)
			mu.Unlock()
		},
		OnSegment: func(_ context.Context, ev *domain.SegmentEvent) {
			mu.Lock()
			segments++
			mu.Unlock()
		},
		OnTraitShift: func(_ context.Context, ev *domain.TraitEvent) {
			mu.Lock()
			shifts++
			mu.Unlock()
		},
		OnEnrichmentMiss: func(_ context.Context, ev *domain.EnrichmentEvent) {
			mu.Lock()
			misses = append(misses, ev.Asset)
			mu.Unlock()
		},
	}))

	startStory(t, eng, fantasyConfig())
	_, err := eng.Choose(context.Background(), 0)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.RoundKind{domain.RoundSeed, domain.RoundContinuation}, rounds)
	assert.Equal(t, 2, segments)
	assert.Equal(t, 1, shifts)
	assert.Equal(t, []string{"narration", "narration"}, misses)
}

func TestStart_WithoutConfigIsRejected(t *testing.T) {
	gen := testutils.NewStubGenerator()
	eng := runtime.NewEngine(gen)
	_, err := eng.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestErrBusyIsDistinguishable(t *testing.T) {
	assert.False(t, errors.Is(domain.ErrBusy, domain.ErrContinuation))
	assert.False(t, errors.Is(domain.ErrSeedGeneration, domain.ErrContinuation))
}
