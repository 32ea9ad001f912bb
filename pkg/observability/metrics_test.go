package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/internal/logging"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, RequestID: "req-1"}
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnSectionStarted(ctx, &domain.SectionStarted{EventBase: base(domain.EventSectionStarted), Name: "hero"})
	hooks.OnFlush(ctx, &domain.Flush{EventBase: base(domain.EventFlush), Seq: 1, ByteCount: 120})
	hooks.OnFlush(ctx, &domain.Flush{EventBase: base(domain.EventFlush), Seq: 2, ByteCount: 30})
	hooks.OnSectionFinished(ctx, &domain.SectionFinished{
		EventBase:   base(domain.EventSectionFinished),
		Name:        "hero",
		OutcomeKind: domain.OutcomeTimedOut,
		Elapsed:     20 * time.Millisecond,
		Attempts:    2,
	})
	hooks.OnFallbackApplied(ctx, &domain.FallbackApplied{EventBase: base(domain.EventFallbackApplied), Name: "hero", Mode: domain.FallbackPlaceholder})
	hooks.OnResponseCompleted(ctx, &domain.ResponseCompleted{EventBase: base(domain.EventResponseCompleted), Status: domain.StatusCompleted})

	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(`
# HELP turbo_sections_total Sections resolved, by outcome
# TYPE turbo_sections_total counter
turbo_sections_total{outcome="timed_out",section="hero"} 1
# HELP turbo_fallbacks_total Fallbacks applied, by mode
# TYPE turbo_fallbacks_total counter
turbo_fallbacks_total{mode="placeholder",section="hero"} 1
`), "turbo_sections_total", "turbo_fallbacks_total"))

	count, err := testutil.GatherAndCount(reg, "turbo_flushes_total", "turbo_streamed_bytes_total", "turbo_time_to_first_flush_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(`
# HELP turbo_streamed_bytes_total Bytes flushed to clients
# TYPE turbo_streamed_bytes_total counter
turbo_streamed_bytes_total 150
`), "turbo_streamed_bytes_total"))
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LogHooks(logging.NewWithWriter(&buf, slog.LevelDebug, "text"))

	hooks.OnFallbackApplied(context.Background(), &domain.FallbackApplied{
		EventBase: base(domain.EventFallbackApplied),
		Name:      "reviews",
		Mode:      domain.FallbackSkip,
	})
	hooks.OnResponseAborted(context.Background(), &domain.ResponseAborted{
		EventBase: base(domain.EventResponseAborted),
		Reason:    "cancelled",
	})

	out := buf.String()
	assert.Contains(t, out, "fallback_applied")
	assert.Contains(t, out, "section=reviews")
	assert.Contains(t, out, "mode=skip")
	assert.Contains(t, out, "reason=cancelled")
}
