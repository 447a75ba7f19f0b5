package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/aretw0/tellatale/internal/adapters/http"
	"github.com/aretw0/tellatale/internal/runtime"
	"github.com/aretw0/tellatale/internal/testutils"
	"github.com/aretw0/tellatale/pkg/adapters/memory"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/observability"
	"github.com/aretw0/tellatale/pkg/session"
)

type fixture struct {
	handler http.Handler
	gen     *testutils.StubGenerator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gen := testutils.NewStubGenerator()
	metrics := observability.NewMetrics()
	eng := runtime.NewEngine(gen, runtime.WithHooks(metrics.Hooks()))
	rec := session.NewRecorder(memory.NewStore())
	return &fixture{
		handler: httpadapter.NewHandler(eng, rec, httpadapter.WithRegistry(metrics.Registry())),
		gen:     gen,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func validConfig() domain.Config {
	return domain.Config{
		Genre:           domain.GenreFantasy,
		Archetype:       domain.ArchetypeHero,
		ProtagonistName: "Elara",
		Setting:         "a floating city",
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
	assert.Contains(t, rr.Body.String(), string(domain.PhaseIdle))
}

func TestStoryLifecycle(t *testing.T) {
	f := newFixture(t)

	// No story yet.
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/story", nil).Code)

	rr := f.do(t, http.MethodPost, "/story", validConfig())
	require.Equal(t, http.StatusCreated, rr.Code)
	var story domain.Story
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &story))
	assert.Equal(t, "The Sky Throne", story.Title)
	require.Len(t, story.Segments, 1)

	rr = f.do(t, http.MethodPost, "/story/choices", map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, rr.Code)
	var round struct {
		Segment domain.Segment            `json:"segment"`
		Soul    domain.PersonalityProfile `json:"soul"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &round))
	assert.NotEmpty(t, round.Segment.Text)
	assert.Equal(t, 62, round.Soul.Traits.Valiance)

	// Reset requires confirmation once segments exist.
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodDelete, "/story", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/story?confirm=true", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/story", nil).Code)
}

func TestStartStory_InvalidConfig(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/story", domain.Config{Genre: domain.GenreNoir})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStartStory_SeedFailureIsBadGateway(t *testing.T) {
	f := newFixture(t)
	f.gen.FailSeed = true
	rr := f.do(t, http.MethodPost, "/story", validConfig())
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestChoose_Errors(t *testing.T) {
	f := newFixture(t)

	// No story.
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/story/choices", map[string]int{"index": 0}).Code)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/story", validConfig()).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/story/choices", map[string]int{"index": 7}).Code)

	f.gen.FailContinuation = true
	assert.Equal(t, http.StatusBadGateway, f.do(t, http.MethodPost, "/story/choices", map[string]int{"index": 0}).Code)
}

func TestSoulEndpoint(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/story/soul", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "The Unwritten")
}

func TestAuthAndHistoryFlow(t *testing.T) {
	f := newFixture(t)
	creds := map[string]string{"username": "elara", "credential": "secret"}

	assert.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/auth/register", creds).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/auth/register", creds).Code)

	// Signed in; starting a story autosaves it.
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/story", validConfig()).Code)

	rr := f.do(t, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var history []domain.SavedStory
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history, 1)
	storyID := history[0].ID

	// Recall, resume, forget.
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/history/"+storyID, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/history/"+storyID+"/resume", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/history/"+storyID, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/history/"+storyID, nil).Code)

	// Logout; history is gone from this surface.
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/auth/logout", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/history", nil).Code)
}

func TestLogin_WrongCredential(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/auth/register", map[string]string{"username": "elara", "credential": "secret"}).Code)

	rr := f.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "elara", "credential": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/story", validConfig()).Code)

	rr := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "tellatale_rounds_total")
	assert.Contains(t, rr.Body.String(), `kind="seed"`)
}
