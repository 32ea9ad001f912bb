package domain

import (
	"context"
	"time"
)

// Fragment is the rendered content of a successful section.
type Fragment []byte

// Renderer produces a section's fragment for one request.
// Implementations must honour ctx cancellation; they never see the response sink.
type Renderer interface {
	Render(ctx context.Context, rc RequestContext) (Fragment, error)
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc func(ctx context.Context, rc RequestContext) (Fragment, error)

// Render calls f(ctx, rc).
func (f RenderFunc) Render(ctx context.Context, rc RequestContext) (Fragment, error) {
	return f(ctx, rc)
}

// Section is an immutable unit of deferred work registered with a workload.
type Section struct {
	Name     string
	Index    int
	Renderer Renderer
	Timeout  time.Duration
	Retry    RetryPolicy
	Fallback Fallback

	// Blocking holds the shell prefix until this section resolves, which
	// allows an Abort fallback to fail the response with an error status.
	Blocking bool
}

// SectionOption configures a Section built with NewSection.
type SectionOption func(*Section)

// WithTimeout bounds each render attempt.
func WithTimeout(d time.Duration) SectionOption {
	return func(s *Section) {
		s.Timeout = d
	}
}

// WithRetry sets the retry policy.
func WithRetry(p RetryPolicy) SectionOption {
	return func(s *Section) {
		s.Retry = p
	}
}

// WithPlaceholder substitutes content when the section cannot complete.
func WithPlaceholder(content string) SectionOption {
	return func(s *Section) {
		s.Fallback = Fallback{Mode: FallbackPlaceholder, Content: []byte(content)}
	}
}

// WithSkip omits the slot when the section cannot complete.
func WithSkip() SectionOption {
	return func(s *Section) {
		s.Fallback = Fallback{Mode: FallbackSkip}
	}
}

// WithAbort fails the response if the section cannot complete before the
// shell prefix has been flushed.
func WithAbort() SectionOption {
	return func(s *Section) {
		s.Fallback = Fallback{Mode: FallbackAbort}
	}
}

// AsBlocking marks the section as Blocking.
func AsBlocking() SectionOption {
	return func(s *Section) {
		s.Blocking = true
	}
}

// NewSection builds a Section with the default timeout, no retries and the
// generic placeholder fallback.
func NewSection(name string, index int, r Renderer, opts ...SectionOption) Section {
	s := Section{
		Name:     name,
		Index:    index,
		Renderer: r,
		Timeout:  DefaultSectionTimeout,
		Retry:    NoRetry(),
		Fallback: Fallback{Mode: FallbackPlaceholder},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Attempts returns the maximum number of render attempts.
func (s Section) Attempts() int {
	return 1 + max(s.Retry.Retries, 0)
}

// Sections is the registry of a workload's sections keyed by name.
type Sections map[string]Section

// NewSections indexes sections by name. Later duplicates overwrite earlier ones;
// Validate reports slot/section mismatches.
func NewSections(sections ...Section) Sections {
	reg := make(Sections, len(sections))
	for _, s := range sections {
		reg[s.Name] = s
	}
	return reg
}
