package domain

import "time"

// Genre presets offered by the configuration surface.
const (
	GenreFantasy   = "Fantasy"
	GenreSciFi     = "Sci-Fi"
	GenreMystery   = "Mystery"
	GenreHorror    = "Horror"
	GenreFairyTale = "Fairy Tale"
	GenreSteampunk = "Steampunk"
	GenreCyberpunk = "Cyberpunk"
	GenreNoir      = "Noir"
)

// Archetype presets for the protagonist.
const (
	ArchetypeHero      = "Hero"
	ArchetypeTrickster = "Trickster"
	ArchetypeMentor    = "Mentor"
	ArchetypeOutcast   = "Outcast"
	ArchetypeSeeker    = "Seeker"
)

// Genres lists the supported genre presets in display order.
func Genres() []string {
	return []string{
		GenreFantasy, GenreSciFi, GenreMystery, GenreHorror,
		GenreFairyTale, GenreSteampunk, GenreCyberpunk, GenreNoir,
	}
}

// Archetypes lists the supported archetype presets in display order.
func Archetypes() []string {
	return []string{ArchetypeHero, ArchetypeTrickster, ArchetypeMentor, ArchetypeOutcast, ArchetypeSeeker}
}

// Config is the user-provided setup for a new story.
type Config struct {
	Genre           string `json:"genre" yaml:"genre"`
	Archetype       string `json:"archetype" yaml:"archetype"`
	ProtagonistName string `json:"protagonistName" yaml:"protagonist_name"`
	Setting         string `json:"setting" yaml:"setting"`
	Tone            string `json:"tone" yaml:"tone"`
}

// Validate checks the minimum a seed generation needs to work with.
func (c Config) Validate() error {
	if c.ProtagonistName == "" {
		return ErrInvalidConfig
	}
	if c.Setting == "" {
		return ErrInvalidConfig
	}
	return nil
}

// Choice is one branching option offered by a segment. It is owned by the
// segment that offers it and never changes.
type Choice struct {
	Text        string `json:"text"`
	Consequence string `json:"consequence"`
}

// Segment is one unit of narrative plus the choices branching from it.
// Narrative and choices are fixed at creation; only the asset references may
// be filled in, at most once each, by the enrichment fan-out.
type Segment struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	VisualPrompt string   `json:"visualPrompt"`
	Choices      []Choice `json:"choices"`
	ImageRef     string   `json:"imageRef,omitempty"`
	AudioRef     string   `json:"audioRef,omitempty"`
}

// Concluded reports whether the segment offers no further choices.
func (s Segment) Concluded() bool {
	return len(s.Choices) == 0
}

// Story is the in-memory state of one storytelling session. Segments is
// append-only and never reordered; the current segment is always the last.
type Story struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Genre       string             `json:"genre"`
	Segments    []Segment          `json:"segments"`
	Personality PersonalityProfile `json:"personality"`
}

// Current returns the last segment, or nil if the story has none.
func (s *Story) Current() *Segment {
	if s == nil || len(s.Segments) == 0 {
		return nil
	}
	return &s.Segments[len(s.Segments)-1]
}

// Texts returns the narrative text of every segment in order.
func (s *Story) Texts() []string {
	if s == nil {
		return nil
	}
	texts := make([]string, len(s.Segments))
	for i, seg := range s.Segments {
		texts[i] = seg.Text
	}
	return texts
}

// Clone returns a deep copy so callers can hold snapshots without aliasing
// the live slices.
func (s *Story) Clone() Story {
	if s == nil {
		return Story{}
	}
	out := *s
	out.Segments = make([]Segment, len(s.Segments))
	copy(out.Segments, s.Segments)
	for i := range out.Segments {
		choices := make([]Choice, len(out.Segments[i].Choices))
		copy(choices, out.Segments[i].Choices)
		out.Segments[i].Choices = choices
	}
	return out
}

// SavedStory is a persisted snapshot of a story, keyed by the story ID.
type SavedStory struct {
	Story
	Timestamp time.Time `json:"timestamp"`
}
