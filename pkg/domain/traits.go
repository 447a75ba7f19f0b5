package domain

// TraitVector is a point-in-time snapshot of the protagonist's soul across
// five dimensions. Every field is constrained to [0, 100]; values coming back
// from inference must pass through Clamp before being accepted.
type TraitVector struct {
	Valiance int `json:"valiance"` // bravery
	Empathy  int `json:"empathy"`  // kindness
	Shadow   int `json:"shadow"`   // selfishness, ruthlessness
	Logic    int `json:"logic"`    // cold reasoning
	Chaos    int `json:"chaos"`    // unpredictability
}

// Clamp returns a copy with every dimension forced into [0, 100].
func (t TraitVector) Clamp() TraitVector {
	return TraitVector{
		Valiance: clamp(t.Valiance),
		Empathy:  clamp(t.Empathy),
		Shadow:   clamp(t.Shadow),
		Logic:    clamp(t.Logic),
		Chaos:    clamp(t.Chaos),
	}
}

// InRange reports whether all dimensions already sit inside [0, 100].
func (t TraitVector) InRange() bool {
	return t == t.Clamp()
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// PersonalityProfile pairs the trait vector with display-only flavor text.
// Profiles are immutable: a new profile replaces the old one wholesale.
type PersonalityProfile struct {
	Traits         TraitVector `json:"traits"`
	Summary        string      `json:"summary"`
	ArchetypeMatch string      `json:"archetypeMatch"`
}

// DefaultProfile is the fixed profile every new story starts from.
func DefaultProfile() PersonalityProfile {
	return PersonalityProfile{
		Traits:         TraitVector{Valiance: 50, Empathy: 50, Shadow: 10, Logic: 50, Chaos: 20},
		Summary:        "A soul yet to be tested, standing at the precipice of destiny.",
		ArchetypeMatch: "The Unwritten",
	}
}
