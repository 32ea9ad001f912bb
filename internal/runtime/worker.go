package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// errAttemptTimeout marks an attempt that exceeded the section timeout.
var errAttemptTimeout = errors.New("attempt timed out")

// runSection executes every attempt of a section and returns its single
// terminal outcome. It never touches the sink.
func runSection(ctx context.Context, rc domain.RequestContext, sec domain.Section) domain.SectionOutcome {
	start := time.Now()
	timeout := sec.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultSectionTimeout
	}

	out := domain.SectionOutcome{Name: sec.Name, Index: sec.Index}
	for attempt := 0; attempt < sec.Attempts(); attempt++ {
		if attempt > 0 {
			delay := sec.Retry.Backoff.Delay(attempt - 1)
			if !budgetAllows(ctx, delay) || !sleep(ctx, delay) {
				break
			}
		}

		frag, err := renderAttempt(ctx, rc, sec.Renderer, timeout)
		out.Attempts = attempt + 1
		out.Elapsed = time.Since(start)

		switch {
		case err == nil:
			out.Kind = domain.OutcomeReady
			out.Fragment = frag
			out.Err = nil
			return out
		case ctx.Err() != nil:
			out.Kind = domain.OutcomeFailed
			out.Err = domain.NewSectionError(sec.Name, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err()))
			return out
		case errors.Is(err, errAttemptTimeout):
			out.Kind = domain.OutcomeTimedOut
			out.Err = domain.NewSectionError(sec.Name, fmt.Errorf("%w after %s", domain.ErrFetchTimeout, timeout))
		default:
			out.Kind = domain.OutcomeFailed
			out.Err = domain.NewSectionError(sec.Name, err)
		}
	}

	if out.Attempts == 0 {
		// Cancelled before the first attempt could start.
		out.Kind = domain.OutcomeFailed
		out.Err = domain.NewSectionError(sec.Name, domain.ErrCancelled)
	}
	out.Elapsed = time.Since(start)
	return out
}

type attemptResult struct {
	frag domain.Fragment
	err  error
}

// renderAttempt runs one render bounded by timeout. A result that arrives
// after the deadline is discarded.
func renderAttempt(ctx context.Context, rc domain.RequestContext, r domain.Renderer, timeout time.Duration) (domain.Fragment, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- attemptResult{err: fmt.Errorf("%w: panic: %v", domain.ErrHandler, p)}
			}
		}()
		frag, err := r.Render(actx, rc)
		done <- attemptResult{frag: frag, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && ctx.Err() == nil && errors.Is(res.err, context.DeadlineExceeded) && actx.Err() != nil {
			return nil, errAttemptTimeout
		}
		return res.frag, res.err
	case <-actx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errAttemptTimeout
	}
}

// budgetAllows reports whether the request deadline leaves room for a retry.
func budgetAllows(ctx context.Context, delay time.Duration) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return ctx.Err() == nil
	}
	return time.Until(deadline) > delay
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
