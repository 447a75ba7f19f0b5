package domain

// Phase defines where a session sits in its lifecycle.
type Phase string

const (
	// PhaseIdle means no config has been chosen yet.
	PhaseIdle Phase = "idle"
	// PhaseConfiguring means a config is staged but no segments exist.
	PhaseConfiguring Phase = "configuring"
	// PhaseGenerating means a round is in flight; no choice may be submitted.
	PhaseGenerating Phase = "generating"
	// PhasePresenting means the current segment awaits a choice.
	PhasePresenting Phase = "presenting"
)
