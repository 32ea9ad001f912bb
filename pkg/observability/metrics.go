package observability

import (
	"context"
	"sync"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the streaming scheduler.
type Metrics struct {
	sections  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
	flushes   prometheus.Counter
	bytes     prometheus.Counter
	responses *prometheus.CounterVec
	ttfb      prometheus.Histogram

	mu      sync.Mutex
	started map[domain.RequestID]time.Time
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turbo_sections_total",
				Help: "Sections resolved, by outcome",
			},
			[]string{"section", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "turbo_section_duration_seconds",
				Help:    "Time from section start to its terminal outcome",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"section"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turbo_fallbacks_total",
				Help: "Fallbacks applied, by mode",
			},
			[]string{"section", "mode"},
		),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "turbo_flushes_total",
			Help: "Transport flushes",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "turbo_streamed_bytes_total",
			Help: "Bytes flushed to clients",
		}),
		responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turbo_responses_total",
				Help: "Responses by terminal status",
			},
			[]string{"status", "reason"},
		),
		ttfb: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "turbo_time_to_first_flush_seconds",
			Help:    "Time from the first section start to the first flush",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		started: make(map[domain.RequestID]time.Time),
	}
	reg.MustRegister(m.sections, m.duration, m.fallbacks, m.flushes, m.bytes, m.responses, m.ttfb)
	return m
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSectionStarted: func(_ context.Context, e *domain.SectionStarted) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.started[e.RequestID]; !ok {
				m.started[e.RequestID] = e.Timestamp
			}
		},
		OnSectionFinished: func(_ context.Context, e *domain.SectionFinished) {
			m.sections.WithLabelValues(e.Name, string(e.OutcomeKind)).Inc()
			m.duration.WithLabelValues(e.Name).Observe(e.Elapsed.Seconds())
		},
		OnFallbackApplied: func(_ context.Context, e *domain.FallbackApplied) {
			m.fallbacks.WithLabelValues(e.Name, string(e.Mode)).Inc()
		},
		OnFlush: func(_ context.Context, e *domain.Flush) {
			m.flushes.Inc()
			m.bytes.Add(float64(e.ByteCount))

			m.mu.Lock()
			start, ok := m.started[e.RequestID]
			if ok {
				// Only the first flush of a response is observed.
				m.started[e.RequestID] = time.Time{}
			}
			m.mu.Unlock()
			if ok && !start.IsZero() {
				m.ttfb.Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
		OnResponseCompleted: func(_ context.Context, e *domain.ResponseCompleted) {
			m.responses.WithLabelValues(string(e.Status), "").Inc()
			m.forget(e.RequestID)
		},
		OnResponseAborted: func(_ context.Context, e *domain.ResponseAborted) {
			m.responses.WithLabelValues(string(domain.StatusAborted), e.Reason).Inc()
			m.forget(e.RequestID)
		},
	}
}

func (m *Metrics) forget(id domain.RequestID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.started, id)
}
