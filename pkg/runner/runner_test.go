package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tellatale/internal/runtime"
	"github.com/aretw0/tellatale/internal/testutils"
	"github.com/aretw0/tellatale/pkg/adapters/memory"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/runner"
	"github.com/aretw0/tellatale/pkg/session"
)

func testConfig() domain.Config {
	return domain.Config{
		Genre:           domain.GenreFantasy,
		Archetype:       domain.ArchetypeHero,
		ProtagonistName: "Elara",
		Setting:         "a floating city",
	}
}

func TestRunner_PlayOneChoiceAndQuit(t *testing.T) {
	gen := testutils.NewStubGenerator()
	eng := runtime.NewEngine(gen)
	var out bytes.Buffer

	run := runner.New(eng, runner.WithIO(strings.NewReader("1\nquit\n"), &out))
	require.NoError(t, run.Run(context.Background(), testConfig()))

	text := out.String()
	assert.Contains(t, text, "The Sky Throne")
	assert.Contains(t, text, "The floating city of Aerthos")
	assert.Contains(t, text, "The spire groans")
	assert.Contains(t, text, "Until the next tale.")
	assert.Len(t, eng.Snapshot().Segments, 2)
}

func TestRunner_SoulCommandShowsProfile(t *testing.T) {
	eng := runtime.NewEngine(testutils.NewStubGenerator())
	var out bytes.Buffer

	run := runner.New(eng, runner.WithIO(strings.NewReader("soul\nexit\n"), &out))
	require.NoError(t, run.Run(context.Background(), testConfig()))

	assert.Contains(t, out.String(), "Soul Mirror")
	assert.Contains(t, out.String(), "The Unwritten")
}

func TestRunner_RejectsBadInputAndRecovers(t *testing.T) {
	eng := runtime.NewEngine(testutils.NewStubGenerator())
	var out bytes.Buffer

	run := runner.New(eng, runner.WithIO(strings.NewReader("sideways\n9\n1\nexit\n"), &out))
	require.NoError(t, run.Run(context.Background(), testConfig()))

	assert.Contains(t, out.String(), "Pick a numbered path")
	assert.Contains(t, out.String(), "That path does not exist.")
	assert.Len(t, eng.Snapshot().Segments, 2)
}

func TestRunner_ContinuationFailureKeepsSessionAlive(t *testing.T) {
	gen := testutils.NewStubGenerator()
	gen.FailContinuation = true
	eng := runtime.NewEngine(gen)
	var out bytes.Buffer

	run := runner.New(eng, runner.WithIO(strings.NewReader("1\nexit\n"), &out))
	require.NoError(t, run.Run(context.Background(), testConfig()))

	assert.Contains(t, out.String(), "try that path again")
	assert.Len(t, eng.Snapshot().Segments, 1)
}

func TestRunner_EOFEndsCleanly(t *testing.T) {
	eng := runtime.NewEngine(testutils.NewStubGenerator())
	var out bytes.Buffer

	run := runner.New(eng, runner.WithIO(strings.NewReader(""), &out))
	require.NoError(t, run.Run(context.Background(), testConfig()))
}

func TestRunner_AutosavesEveryRound(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := session.NewRecorder(store)
	_, err := rec.SignUp(ctx, "elara", "secret")
	require.NoError(t, err)

	eng := runtime.NewEngine(testutils.NewStubGenerator())
	var out bytes.Buffer
	run := runner.New(eng,
		runner.WithIO(strings.NewReader("1\nquit\n"), &out),
		runner.WithRecorder(rec),
	)
	require.NoError(t, run.Run(ctx, testConfig()))

	history, err := rec.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1, "one story saved, updated in place")
	assert.Len(t, history[0].Segments, 2)
}

func TestRunner_ResumeContinuesSavedStory(t *testing.T) {
	eng := runtime.NewEngine(testutils.NewStubGenerator())
	var out bytes.Buffer

	saved := domain.SavedStory{
		Story: domain.Story{
			ID:    "chronicle-1",
			Title: "The Clockwork Rose",
			Genre: domain.GenreSteampunk,
			Segments: []domain.Segment{
				{ID: "s1", Text: "Gears turn beneath the garden.", Choices: testutils.ThreeChoices()},
			},
			Personality: domain.DefaultProfile(),
		},
		Timestamp: time.Now(),
	}

	run := runner.New(eng, runner.WithIO(strings.NewReader("1\nexit\n"), &out))
	require.NoError(t, run.Resume(context.Background(), saved))

	assert.Contains(t, out.String(), "The Clockwork Rose")
	assert.Len(t, eng.Snapshot().Segments, 2)
	assert.Equal(t, "chronicle-1", eng.Snapshot().ID)
}

func TestRunner_ConcludedStoryEndsLoop(t *testing.T) {
	gen := testutils.NewStubGenerator()
	gen.Continuation.Choices = nil
	eng := runtime.NewEngine(gen)
	var out bytes.Buffer

	run := runner.New(eng, runner.WithIO(strings.NewReader("1\n"), &out))
	require.NoError(t, run.Run(context.Background(), testConfig()))

	assert.Contains(t, out.String(), "The chronicle is complete.")
}
