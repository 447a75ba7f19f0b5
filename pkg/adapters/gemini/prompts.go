package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/aretw0/tellatale/pkg/domain"
)

func seedPrompt(cfg domain.Config) string {
	return fmt.Sprintf(`Start a new immersive %q story.
Protagonist Name: %s.
Protagonist Archetype: %s.
Setting: %s.
Tone: %s.

Instruction: Lean heavily into %q tropes.
Provide the story title, the first narrative segment, a visual description for an illustrator, and 3 possible branching choices.`,
		cfg.Genre, cfg.ProtagonistName, cfg.Archetype, cfg.Setting, cfg.Tone, cfg.Genre)
}

func continuationPrompt(history []string, choice domain.Choice, cfg domain.Config) string {
	return fmt.Sprintf(`Continue the story in the %q genre. The reader chose: %q (%s).
Protagonist: %s, acting as the %q.

Context of recent events:
%s

Instruction: The narrative should reflect the "soul" of the protagonist.
If they are making bold choices, increase the epic scale. If they are logical, add complexity.
Provide the next narrative segment, a visual description for an illustrator, and 3 new branching choices.`,
		cfg.Genre, choice.Text, choice.Consequence, cfg.ProtagonistName, cfg.Archetype,
		strings.Join(history, "\n\n"))
}

func traitPrompt(profile domain.PersonalityProfile, choice domain.Choice, history string) string {
	traits, _ := json.Marshal(profile.Traits)
	return fmt.Sprintf(`You are a psychological narrative analyzer.
The player just made this choice: %q (%s).
Context of their journey so far: %s
Current Personality: %s

Update their soul traits (0-100) based on this choice.
Valiance (bravery), Empathy (kindness), Shadow (selfishness/ruthlessness), Logic (cold reasoning), Chaos (unpredictability).
Also provide a one-sentence mystical summary of their soul's current state.`,
		choice.Text, choice.Consequence, history, traits)
}

func illustrationPrompt(visualPrompt string) string {
	return "High fantasy/Cinematic style, masterpiece, sharp focus, atmospheric lighting: " + visualPrompt
}

func narrationPrompt(text string) string {
	return "Read this story segment with a mysterious, captivating voice: " + text
}

var choiceSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"text":        {Type: genai.TypeString},
		"consequence": {Type: genai.TypeString},
	},
	Required: []string{"text", "consequence"},
}

var seedSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":        {Type: genai.TypeString},
		"text":         {Type: genai.TypeString},
		"visualPrompt": {Type: genai.TypeString},
		"choices":      {Type: genai.TypeArray, Items: choiceSchema},
	},
	Required: []string{"title", "text", "visualPrompt", "choices"},
}

var draftSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"text":         {Type: genai.TypeString},
		"visualPrompt": {Type: genai.TypeString},
		"choices":      {Type: genai.TypeArray, Items: choiceSchema},
	},
	Required: []string{"text", "visualPrompt", "choices"},
}

var profileSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"traits": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"valiance": {Type: genai.TypeNumber},
				"empathy":  {Type: genai.TypeNumber},
				"shadow":   {Type: genai.TypeNumber},
				"logic":    {Type: genai.TypeNumber},
				"chaos":    {Type: genai.TypeNumber},
			},
			Required: []string{"valiance", "empathy", "shadow", "logic", "chaos"},
		},
		"summary":        {Type: genai.TypeString},
		"archetypeMatch": {Type: genai.TypeString},
	},
	Required: []string{"traits", "summary", "archetypeMatch"},
}
