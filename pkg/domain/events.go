package domain

import "context"

// RoundKind distinguishes the two generation rounds.
type RoundKind string

const (
	RoundSeed         RoundKind = "seed"
	RoundContinuation RoundKind = "continuation"
)

// RoundEvent describes the start or end of a generation round.
type RoundEvent struct {
	StoryID string
	Kind    RoundKind
	Err     error // nil on success
}

// SegmentEvent fires when a segment is appended to the story.
type SegmentEvent struct {
	StoryID string
	Segment Segment
	Index   int
}

// TraitEvent fires when the personality profile is replaced.
type TraitEvent struct {
	StoryID string
	Before  PersonalityProfile
	After   PersonalityProfile
}

// EnrichmentEvent fires when an enrichment request fails and the segment is
// degraded to a missing asset.
type EnrichmentEvent struct {
	StoryID   string
	SegmentID string
	Asset     string // "illustration" or "narration"
	Err       error
}

// LifecycleHooks defines optional observability callbacks. Nil hooks are
// skipped. Hooks run on the round's coordinating flow; keep them cheap.
type LifecycleHooks struct {
	OnRoundStart     func(context.Context, *RoundEvent)
	OnRoundEnd       func(context.Context, *RoundEvent)
	OnSegment        func(context.Context, *SegmentEvent)
	OnTraitShift     func(context.Context, *TraitEvent)
	OnEnrichmentMiss func(context.Context, *EnrichmentEvent)
	OnReset          func(context.Context, string)
}

// MergeHooks fans every event out to all given hook sets in order.
func MergeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRoundStart: func(ctx context.Context, ev *RoundEvent) {
			for _, h := range hooks {
				if h.OnRoundStart != nil {
					h.OnRoundStart(ctx, ev)
				}
			}
		},
		OnRoundEnd: func(ctx context.Context, ev *RoundEvent) {
			for _, h := range hooks {
				if h.OnRoundEnd != nil {
					h.OnRoundEnd(ctx, ev)
				}
			}
		},
		OnSegment: func(ctx context.Context, ev *SegmentEvent) {
			for _, h := range hooks {
				if h.OnSegment != nil {
					h.OnSegment(ctx, ev)
				}
			}
		},
		OnTraitShift: func(ctx context.Context, ev *TraitEvent) {
			for _, h := range hooks {
				if h.OnTraitShift != nil {
					h.OnTraitShift(ctx, ev)
				}
			}
		},
		OnEnrichmentMiss: func(ctx context.Context, ev *EnrichmentEvent) {
			for _, h := range hooks {
				if h.OnEnrichmentMiss != nil {
					h.OnEnrichmentMiss(ctx, ev)
				}
			}
		},
		OnReset: func(ctx context.Context, storyID string) {
			for _, h := range hooks {
				if h.OnReset != nil {
					h.OnReset(ctx, storyID)
				}
			}
		},
	}
}
