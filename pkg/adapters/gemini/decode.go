package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/ports"
)

// Payload shapes matching the response schemas. Decoding goes through
// mapstructure with weak typing because the model reports trait values as
// JSON numbers, which arrive as floats.
type choicePayload struct {
	Text        string `mapstructure:"text"`
	Consequence string `mapstructure:"consequence"`
}

type seedPayload struct {
	Title        string          `mapstructure:"title"`
	Text         string          `mapstructure:"text"`
	VisualPrompt string          `mapstructure:"visualPrompt"`
	Choices      []choicePayload `mapstructure:"choices"`
}

type draftPayload struct {
	Text         string          `mapstructure:"text"`
	VisualPrompt string          `mapstructure:"visualPrompt"`
	Choices      []choicePayload `mapstructure:"choices"`
}

type traitsPayload struct {
	Valiance int `mapstructure:"valiance"`
	Empathy  int `mapstructure:"empathy"`
	Shadow   int `mapstructure:"shadow"`
	Logic    int `mapstructure:"logic"`
	Chaos    int `mapstructure:"chaos"`
}

type profilePayload struct {
	Traits         traitsPayload `mapstructure:"traits"`
	Summary        string        `mapstructure:"summary"`
	ArchetypeMatch string        `mapstructure:"archetypeMatch"`
}

func decodePayload(raw []byte, out any) error {
	var intermediate map[string]any
	if err := json.Unmarshal(raw, &intermediate); err != nil {
		return fmt.Errorf("malformed model response: %w", err)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(intermediate); err != nil {
		return fmt.Errorf("unexpected model response shape: %w", err)
	}
	return nil
}

func toChoices(payload []choicePayload) []domain.Choice {
	choices := make([]domain.Choice, len(payload))
	for i, c := range payload {
		choices[i] = domain.Choice{Text: c.Text, Consequence: c.Consequence}
	}
	return choices
}

func decodeSeed(raw []byte) (*ports.Seed, error) {
	var payload seedPayload
	if err := decodePayload(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Text == "" || payload.Title == "" {
		return nil, fmt.Errorf("model response missing title or text")
	}
	return &ports.Seed{
		Title: payload.Title,
		Draft: ports.Draft{
			Text:         payload.Text,
			VisualPrompt: payload.VisualPrompt,
			Choices:      toChoices(payload.Choices),
		},
	}, nil
}

func decodeDraft(raw []byte) (*ports.Draft, error) {
	var payload draftPayload
	if err := decodePayload(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Text == "" {
		return nil, fmt.Errorf("model response missing text")
	}
	return &ports.Draft{
		Text:         payload.Text,
		VisualPrompt: payload.VisualPrompt,
		Choices:      toChoices(payload.Choices),
	}, nil
}

func decodeProfile(raw []byte) (*domain.PersonalityProfile, error) {
	var payload profilePayload
	if err := decodePayload(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Summary == "" {
		return nil, fmt.Errorf("model response missing soul summary")
	}
	profile := domain.PersonalityProfile{
		Traits: domain.TraitVector{
			Valiance: payload.Traits.Valiance,
			Empathy:  payload.Traits.Empathy,
			Shadow:   payload.Traits.Shadow,
			Logic:    payload.Traits.Logic,
			Chaos:    payload.Traits.Chaos,
		},
		Summary:        payload.Summary,
		ArchetypeMatch: payload.ArchetypeMatch,
	}
	profile.Traits = profile.Traits.Clamp()
	return &profile, nil
}
