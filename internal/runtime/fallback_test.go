package runtime_test

import (
	"errors"
	"testing"

	"github.com/edisonylee/turbocommerce-sub001/internal/runtime"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestDefaultFallback(t *testing.T) {
	failed := domain.SectionOutcome{Name: "x", Kind: domain.OutcomeFailed, Err: errors.New("boom")}
	timedOut := domain.SectionOutcome{Name: "x", Kind: domain.OutcomeTimedOut}
	ready := domain.SectionOutcome{Name: "x", Kind: domain.OutcomeReady, Fragment: domain.Fragment("ok")}

	tests := []struct {
		name          string
		opts          []domain.SectionOption
		outcome       domain.SectionOutcome
		prefixFlushed bool
		want          runtime.Resolution
	}{
		{
			name:    "ready passes the fragment through",
			opts:    []domain.SectionOption{domain.WithSkip()},
			outcome: ready,
			want:    runtime.Resolution{Content: []byte("ok")},
		},
		{
			name:    "placeholder content",
			opts:    []domain.SectionOption{domain.WithPlaceholder("<p>soon</p>")},
			outcome: timedOut,
			want:    runtime.Resolution{Content: []byte("<p>soon</p>"), Mode: domain.FallbackPlaceholder},
		},
		{
			name:    "empty placeholder uses error fragment",
			outcome: failed,
			want:    runtime.Resolution{Content: runtime.ErrorFragment("x"), Mode: domain.FallbackPlaceholder},
		},
		{
			name:    "skip",
			opts:    []domain.SectionOption{domain.WithSkip()},
			outcome: failed,
			want:    runtime.Resolution{Mode: domain.FallbackSkip},
		},
		{
			name:    "abort before prefix flush",
			opts:    []domain.SectionOption{domain.WithAbort()},
			outcome: failed,
			want:    runtime.Resolution{Mode: domain.FallbackAbort, Abort: true},
		},
		{
			name:          "abort after prefix flush degrades",
			opts:          []domain.SectionOption{domain.WithAbort()},
			outcome:       timedOut,
			prefixFlushed: true,
			want:          runtime.Resolution{Content: runtime.ErrorFragment("x"), Mode: domain.FallbackPlaceholder},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec := domain.NewSection("x", 0, nil, tt.opts...)
			got := runtime.DefaultFallback{}.Resolve(sec, tt.outcome, tt.prefixFlushed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorFragment_Escapes(t *testing.T) {
	assert.Equal(t, `<div class="section-error">Failed to load section: &lt;b&gt;</div>`, string(runtime.ErrorFragment("<b>")))
}
