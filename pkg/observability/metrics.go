// Package observability exposes engine lifecycle activity as Prometheus
// metrics. It subscribes through domain.LifecycleHooks, so the engine itself
// stays free of any metrics dependency.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/tellatale/pkg/domain"
)

// Metrics aggregates per-round counters. Create one per registry.
type Metrics struct {
	registry *prometheus.Registry

	rounds           *prometheus.CounterVec
	segments         prometheus.Counter
	traitShifts      prometheus.Counter
	enrichmentMiss   *prometheus.CounterVec
	storiesAbandoned prometheus.Counter
}

// NewMetrics creates the counters on a fresh registry, so tests and multiple
// servers never collide on the global default.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tellatale_rounds_total",
			Help: "Generation rounds by kind and outcome.",
		}, []string{"kind", "outcome"}),
		segments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tellatale_segments_total",
			Help: "Story segments appended.",
		}),
		traitShifts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tellatale_trait_shifts_total",
			Help: "Accepted personality profile updates.",
		}),
		enrichmentMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tellatale_enrichment_misses_total",
			Help: "Enrichment requests that failed, by asset.",
		}, []string{"asset"}),
		storiesAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tellatale_stories_abandoned_total",
			Help: "Stories discarded through reset.",
		}),
	}
	registry.MustRegister(m.rounds, m.segments, m.traitShifts, m.enrichmentMiss, m.storiesAbandoned)
	return m
}

// Registry returns the backing registry for serving /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Hooks returns lifecycle hooks feeding these counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoundEnd: func(_ context.Context, ev *domain.RoundEvent) {
			outcome := "ok"
			if ev.Err != nil {
				outcome = "error"
			}
			m.rounds.WithLabelValues(string(ev.Kind), outcome).Inc()
		},
		OnSegment: func(_ context.Context, _ *domain.SegmentEvent) {
			m.segments.Inc()
		},
		OnTraitShift: func(_ context.Context, _ *domain.TraitEvent) {
			m.traitShifts.Inc()
		},
		OnEnrichmentMiss: func(_ context.Context, ev *domain.EnrichmentEvent) {
			m.enrichmentMiss.WithLabelValues(ev.Asset).Inc()
		},
		OnReset: func(_ context.Context, storyID string) {
			if storyID != "" {
				m.storiesAbandoned.Inc()
			}
		},
	}
}
