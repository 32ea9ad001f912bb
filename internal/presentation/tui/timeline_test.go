package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edisonylee/turbocommerce-sub001/internal/runtime"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

func TestTimelinePlain(t *testing.T) {
	res := &runtime.Result{
		RequestID: "req-1",
		Status:    domain.StatusCompleted,
		Events: []domain.StreamEvent{
			{Seq: 1, Section: domain.ShellPrefixName, Bytes: []byte("<main>")},
			{Seq: 2, Section: "hero", Bytes: []byte("<h1>hi</h1>")},
			{Seq: 3, Section: domain.ShellSuffixName, Bytes: []byte("</main>")},
		},
		Decisions: []runtime.Decision{
			{Outcome: domain.SectionOutcome{Name: "hero", Kind: domain.OutcomeReady, Attempts: 1, Elapsed: 12 * time.Millisecond}},
			{
				Outcome:  domain.SectionOutcome{Name: "ads", Kind: domain.OutcomeTimedOut, Attempts: 2, Err: errors.New("slow")},
				Fallback: domain.FallbackSkip,
			},
		},
		Written: 24,
	}

	var buf bytes.Buffer
	NewPrinter(&buf, false).Timeline(res)
	out := buf.String()

	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "request req-1")
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "attempts=2  fallback=skip  slow")
	assert.True(t, strings.HasSuffix(out, "status completed, 24 bytes\n"))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestPlainRenderer(t *testing.T) {
	out, err := NewRenderer(false)("# title")
	assert.NoError(t, err)
	assert.Equal(t, "# title", out)
}
