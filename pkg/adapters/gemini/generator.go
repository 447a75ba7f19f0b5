// Package gemini implements ports.Generator on the Gemini API: structured
// JSON for narrative and trait analysis, inline blobs for illustration and
// narration.
package gemini

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/ports"
)

// Default model per operation. Narrative and trait analysis share the text
// model; illustration and narration get dedicated ones.
const (
	DefaultTextModel      = "gemini-3-flash-preview"
	DefaultImageModel     = "gemini-2.5-flash-image"
	DefaultNarrationModel = "gemini-2.5-flash-preview-tts"
)

// Generator is a Gemini-backed ports.Generator.
type Generator struct {
	client *genai.Client

	textModel      string
	imageModel     string
	narrationModel string
}

type Option func(*Generator)

// WithTextModel overrides the narrative/trait model.
func WithTextModel(model string) Option {
	return func(g *Generator) {
		g.textModel = model
	}
}

// WithImageModel overrides the illustration model.
func WithImageModel(model string) Option {
	return func(g *Generator) {
		g.imageModel = model
	}
}

// WithNarrationModel overrides the narration model.
func WithNarrationModel(model string) Option {
	return func(g *Generator) {
		g.narrationModel = model
	}
}

// New creates a generator with a fresh API client.
func New(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return NewFromClient(client, opts...), nil
}

// NewFromClient creates a generator from an existing client.
func NewFromClient(client *genai.Client, opts ...Option) *Generator {
	g := &Generator{
		client:         client,
		textModel:      DefaultTextModel,
		imageModel:     DefaultImageModel,
		narrationModel: DefaultNarrationModel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Close closes the underlying API client.
func (g *Generator) Close() error {
	return g.client.Close()
}

// GenerateSeed asks for a titled opening segment as structured JSON.
func (g *Generator) GenerateSeed(ctx context.Context, cfg domain.Config) (*ports.Seed, error) {
	raw, err := g.generateJSON(ctx, seedSchema, seedPrompt(cfg))
	if err != nil {
		return nil, err
	}
	return decodeSeed(raw)
}

// GenerateContinuation asks for the next segment given the recent narrative
// and the reader's choice.
func (g *Generator) GenerateContinuation(ctx context.Context, history []string, choice domain.Choice, cfg domain.Config) (*ports.Draft, error) {
	raw, err := g.generateJSON(ctx, draftSchema, continuationPrompt(history, choice, cfg))
	if err != nil {
		return nil, err
	}
	return decodeDraft(raw)
}

// AnalyzeTraitShift asks for an updated personality profile after a choice.
func (g *Generator) AnalyzeTraitShift(ctx context.Context, profile domain.PersonalityProfile, choice domain.Choice, history string) (*domain.PersonalityProfile, error) {
	raw, err := g.generateJSON(ctx, profileSchema, traitPrompt(profile, choice, history))
	if err != nil {
		return nil, err
	}
	return decodeProfile(raw)
}

// GenerateIllustration renders the visual prompt and returns the image as a
// data URI.
func (g *Generator) GenerateIllustration(ctx context.Context, visualPrompt string) (string, error) {
	model := g.client.GenerativeModel(g.imageModel)
	resp, err := model.GenerateContent(ctx, genai.Text(illustrationPrompt(visualPrompt)))
	if err != nil {
		return "", fmt.Errorf("illustration request failed: %w", err)
	}
	return firstBlobURI(resp)
}

// GenerateNarration voices the segment text and returns the audio as a data
// URI.
func (g *Generator) GenerateNarration(ctx context.Context, text string) (string, error) {
	model := g.client.GenerativeModel(g.narrationModel)
	resp, err := model.GenerateContent(ctx, genai.Text(narrationPrompt(text)))
	if err != nil {
		return "", fmt.Errorf("narration request failed: %w", err)
	}
	return firstBlobURI(resp)
}

// generateJSON runs one structured-output request on the text model and
// returns the raw JSON payload.
func (g *Generator) generateJSON(ctx context.Context, schema *genai.Schema, prompt string) ([]byte, error) {
	model := g.client.GenerativeModel(g.textModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	var out string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				out += string(txt)
			}
		}
	}
	if out == "" {
		return "", fmt.Errorf("empty model response")
	}
	return out, nil
}

func firstBlobURI(resp *genai.GenerateContentResponse) (string, error) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok {
				encoded := base64.StdEncoding.EncodeToString(blob.Data)
				return fmt.Sprintf("data:%s;base64,%s", blob.MIMEType, encoded), nil
			}
		}
	}
	return "", fmt.Errorf("no inline media in model response")
}

var _ ports.Generator = (*Generator)(nil)
