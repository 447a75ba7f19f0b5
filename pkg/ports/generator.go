package ports

import (
	"context"

	"github.com/aretw0/tellatale/pkg/domain"
)

// Draft is a textually complete segment as returned by generation, before
// enrichment assigns it an ID and optional assets.
type Draft struct {
	Text         string
	VisualPrompt string
	Choices      []domain.Choice
}

// Seed is the opening draft plus the story title.
type Seed struct {
	Draft
	Title string
}

// Generator is the stateless contract with the generative backend.
//
// GenerateSeed and GenerateContinuation fail hard on malformed or empty
// responses. GenerateIllustration, GenerateNarration and AnalyzeTraitShift
// are best-effort: the engine converts their failures into absent assets or
// an unchanged profile, never into a session failure.
type Generator interface {
	// GenerateSeed produces the opening segment for a config.
	GenerateSeed(ctx context.Context, cfg domain.Config) (*Seed, error)

	// GenerateContinuation produces the next segment given recent narrative
	// history and the choice the reader took.
	GenerateContinuation(ctx context.Context, history []string, choice domain.Choice, cfg domain.Config) (*Draft, error)

	// GenerateIllustration turns a visual prompt into an image asset
	// reference.
	GenerateIllustration(ctx context.Context, visualPrompt string) (string, error)

	// GenerateNarration turns narrative text into an audio asset reference.
	GenerateNarration(ctx context.Context, text string) (string, error)

	// AnalyzeTraitShift proposes a replacement personality profile from the
	// current one, the chosen branch and the concatenated history. Outputs
	// are advisory: the engine clamps the traits before accepting them.
	AnalyzeTraitShift(ctx context.Context, profile domain.PersonalityProfile, choice domain.Choice, history string) (*domain.PersonalityProfile, error)
}
