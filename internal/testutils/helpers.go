// Package testutils provides a scriptable Generator stub. The inference
// boundary is non-deterministic in production, so every test that exercises
// the engine drives it through this stub instead.
package testutils

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/ports"
)

// ErrStub is the failure injected by the stub's Fail* switches.
var ErrStub = errors.New("stub generator failure")

// ThreeChoices returns a well-formed choice set for fixtures.
func ThreeChoices() []domain.Choice {
	return []domain.Choice{
		{Text: "Climb the spire", Consequence: "A test of nerve"},
		{Text: "Bargain with the warden", Consequence: "Words over steel"},
		{Text: "Slip into the undercity", Consequence: "The dark keeps secrets"},
	}
}

// StubGenerator implements ports.Generator with canned responses and
// per-operation failure switches. Safe for concurrent use.
type StubGenerator struct {
	mu sync.Mutex

	SeedResult   *ports.Seed
	Continuation *ports.Draft
	ShiftResult  *domain.PersonalityProfile

	FailSeed         bool
	FailContinuation bool
	FailIllustration bool
	FailNarration    bool
	FailShift        bool

	// Calls counts invocations per operation name.
	Calls map[string]int
}

// NewStubGenerator returns a stub with sensible defaults: a titled seed,
// a continuation and a trait shift, all succeeding.
func NewStubGenerator() *StubGenerator {
	return &StubGenerator{
		SeedResult: &ports.Seed{
			Title: "The Sky Throne",
			Draft: ports.Draft{
				Text:         "The floating city of Aerthos hums beneath your boots.",
				VisualPrompt: "A city adrift among clouds at dawn",
				Choices:      ThreeChoices(),
			},
		},
		Continuation: &ports.Draft{
			Text:         "The spire groans as you begin to climb.",
			VisualPrompt: "A lone figure scaling a crystal spire",
			Choices:      ThreeChoices(),
		},
		ShiftResult: &domain.PersonalityProfile{
			Traits:         domain.TraitVector{Valiance: 62, Empathy: 48, Shadow: 12, Logic: 47, Chaos: 25},
			Summary:        "A spark of courage flares against the wind.",
			ArchetypeMatch: "Hero",
		},
		Calls: make(map[string]int),
	}
}

func (s *StubGenerator) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls[op]++
}

// CallCount returns how often an operation was invoked.
func (s *StubGenerator) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[op]
}

func (s *StubGenerator) GenerateSeed(ctx context.Context, cfg domain.Config) (*ports.Seed, error) {
	s.record("seed")
	if s.FailSeed {
		return nil, fmt.Errorf("seed: %w", ErrStub)
	}
	seed := *s.SeedResult
	return &seed, nil
}

func (s *StubGenerator) GenerateContinuation(ctx context.Context, history []string, choice domain.Choice, cfg domain.Config) (*ports.Draft, error) {
	s.record("continuation")
	if s.FailContinuation {
		return nil, fmt.Errorf("continuation: %w", ErrStub)
	}
	draft := *s.Continuation
	return &draft, nil
}

func (s *StubGenerator) GenerateIllustration(ctx context.Context, visualPrompt string) (string, error) {
	s.record("illustration")
	if s.FailIllustration {
		return "", fmt.Errorf("illustration: %w", ErrStub)
	}
	return "image:" + visualPrompt, nil
}

func (s *StubGenerator) GenerateNarration(ctx context.Context, text string) (string, error) {
	s.record("narration")
	if s.FailNarration {
		return "", fmt.Errorf("narration: %w", ErrStub)
	}
	return "audio:" + text, nil
}

func (s *StubGenerator) AnalyzeTraitShift(ctx context.Context, profile domain.PersonalityProfile, choice domain.Choice, history string) (*domain.PersonalityProfile, error) {
	s.record("shift")
	if s.FailShift {
		return nil, fmt.Errorf("trait shift: %w", ErrStub)
	}
	shift := *s.ShiftResult
	return &shift, nil
}

var _ ports.Generator = (*StubGenerator)(nil)
