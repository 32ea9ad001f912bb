package runtime

import (
	"fmt"
	"html"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// Resolution is the content a section contributes to its slot.
type Resolution struct {
	// Content is nil when the slot is skipped.
	Content []byte

	// Mode is the fallback that produced Content; empty for a ready section.
	Mode domain.FallbackMode

	// Abort fails the whole response. Only set before the shell prefix flush.
	Abort bool
}

// FallbackStrategy turns a section outcome into slot content.
type FallbackStrategy interface {
	Resolve(sec domain.Section, outcome domain.SectionOutcome, prefixFlushed bool) Resolution
}

// DefaultFallback applies each section's configured Fallback:
//
//	placeholder  configured content, or the generic error fragment when empty
//	skip         nothing, including the slot wrapper
//	abort        fail the response before the first flush, placeholder after
type DefaultFallback struct{}

var _ FallbackStrategy = DefaultFallback{}

// Resolve implements FallbackStrategy.
func (DefaultFallback) Resolve(sec domain.Section, outcome domain.SectionOutcome, prefixFlushed bool) Resolution {
	if outcome.Ready() {
		return Resolution{Content: outcome.Fragment}
	}

	switch sec.Fallback.Mode {
	case domain.FallbackSkip:
		return Resolution{Mode: domain.FallbackSkip}
	case domain.FallbackAbort:
		if !prefixFlushed {
			return Resolution{Mode: domain.FallbackAbort, Abort: true}
		}
		return Resolution{Content: ErrorFragment(sec.Name), Mode: domain.FallbackPlaceholder}
	default:
		content := sec.Fallback.Content
		if len(content) == 0 {
			content = ErrorFragment(sec.Name)
		}
		return Resolution{Content: content, Mode: domain.FallbackPlaceholder}
	}
}

// ErrorFragment is the generic content for a section that failed without a
// configured placeholder.
func ErrorFragment(name string) []byte {
	return fmt.Appendf(nil, `<div class="section-error">Failed to load section: %s</div>`, html.EscapeString(name))
}
