package runtime

import (
	"context"
	"sync"

	"github.com/aretw0/tellatale/pkg/domain"
)

// enrich runs the illustration and narration requests together and joins
// them independently: each may fail without touching the other, and a failed
// request leaves the asset reference empty. The segment is final only after
// both have settled, so the fields are never written twice.
func (e *Engine) enrich(ctx context.Context, storyID string, segment *domain.Segment) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ref, err := e.gen.GenerateIllustration(ctx, segment.VisualPrompt)
		if err != nil {
			e.missEnrichment(ctx, storyID, segment.ID, "illustration", err)
			return
		}
		segment.ImageRef = ref
	}()

	go func() {
		defer wg.Done()
		ref, err := e.gen.GenerateNarration(ctx, segment.Text)
		if err != nil {
			e.missEnrichment(ctx, storyID, segment.ID, "narration", err)
			return
		}
		segment.AudioRef = ref
	}()

	wg.Wait()
}

func (e *Engine) missEnrichment(ctx context.Context, storyID, segmentID, asset string, err error) {
	e.logger.Warn("enrichment failed, segment degrades gracefully",
		"story_id", storyID,
		"segment_id", segmentID,
		"asset", asset,
		"err", err,
	)
	if e.hooks.OnEnrichmentMiss != nil {
		e.hooks.OnEnrichmentMiss(ctx, &domain.EnrichmentEvent{
			StoryID:   storyID,
			SegmentID: segmentID,
			Asset:     asset,
			Err:       err,
		})
	}
}
