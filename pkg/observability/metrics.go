package observability

import (
	"context"

	"github.com/aretw0/grove/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the policies do.
type Metrics struct {
	Activations   *prometheus.CounterVec
	Deactivations *prometheus.CounterVec
	Handled       *prometheus.CounterVec
	Annotations   *prometheus.CounterVec
	Active        *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grove_activations_total",
				Help: "Total number of policy activations",
			},
			[]string{"policy"},
		),
		Deactivations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grove_deactivations_total",
				Help: "Total number of policy deactivations by reason",
			},
			[]string{"policy", "reason"},
		),
		Handled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grove_events_handled_total",
				Help: "Total number of host events handled",
			},
			[]string{"policy", "event"},
		),
		Annotations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grove_annotations_total",
				Help: "Total number of presentation changes issued",
			},
			[]string{"policy", "kind"},
		),
		Active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "grove_policy_active",
				Help: "Whether a policy has handlers attached",
			},
			[]string{"policy"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Activations, m.Deactivations, m.Handled, m.Annotations, m.Active)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m, chained after next.
func (m *Metrics) Hooks(next domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActivate: func(ctx context.Context, e *domain.InstanceEvent) {
			m.Activations.WithLabelValues(e.Policy).Inc()
			m.Active.WithLabelValues(e.Policy).Set(1)
			if next.OnActivate != nil {
				next.OnActivate(ctx, e)
			}
		},
		OnDeactivate: func(ctx context.Context, e *domain.InstanceEvent) {
			m.Deactivations.WithLabelValues(e.Policy, e.Reason).Inc()
			m.Active.WithLabelValues(e.Policy).Set(0)
			if next.OnDeactivate != nil {
				next.OnDeactivate(ctx, e)
			}
		},
		OnHandled: func(ctx context.Context, e *domain.HandledEvent) {
			m.Handled.WithLabelValues(e.Policy, string(e.Type)).Inc()
			if next.OnHandled != nil {
				next.OnHandled(ctx, e)
			}
		},
		OnAnnotate: func(ctx context.Context, e *domain.AnnotationEvent) {
			m.Annotations.WithLabelValues(e.Policy, string(e.Kind)).Inc()
			if next.OnAnnotate != nil {
				next.OnAnnotate(ctx, e)
			}
		},
	}
}
