package domain

import (
	"fmt"
	"time"
)

// BackoffKind selects the delay strategy between retry attempts.
type BackoffKind string

const (
	BackoffNone        BackoffKind = "none"
	BackoffFixed       BackoffKind = "fixed"
	BackoffExponential BackoffKind = "exponential"
)

// Backoff computes the delay before a retry attempt.
type Backoff struct {
	Kind BackoffKind
	Base time.Duration
	Max  time.Duration
}

// DefaultExponentialBackoff starts at 50ms and caps at 500ms.
var DefaultExponentialBackoff = Backoff{Kind: BackoffExponential, Base: 50 * time.Millisecond, Max: 500 * time.Millisecond}

// Delay returns the wait before retry number attempt (0-indexed).
func (b Backoff) Delay(attempt int) time.Duration {
	switch b.Kind {
	case BackoffFixed:
		return b.Base
	case BackoffExponential:
		d := b.Base
		for i := 0; i < attempt && (b.Max == 0 || d < b.Max); i++ {
			d *= 2
		}
		if b.Max > 0 && d > b.Max {
			return b.Max
		}
		return d
	default:
		return 0
	}
}

// RetryPolicy bounds how many times a failed or timed-out section is re-attempted.
type RetryPolicy struct {
	Retries int
	Backoff Backoff
}

// NoRetry is the policy of a single attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{Backoff: Backoff{Kind: BackoffNone}}
}

// Retry allows n additional attempts without delay.
func Retry(n int) RetryPolicy {
	return RetryPolicy{Retries: n, Backoff: Backoff{Kind: BackoffNone}}
}

// WithBackoff returns a copy of p using b between attempts.
func (p RetryPolicy) WithBackoff(b Backoff) RetryPolicy {
	p.Backoff = b
	return p
}

// FallbackMode decides what replaces a section that cannot complete.
type FallbackMode string

const (
	FallbackPlaceholder FallbackMode = "placeholder"
	FallbackSkip        FallbackMode = "skip"
	FallbackAbort       FallbackMode = "abort"
)

// ParseFallbackMode converts a configuration string into a FallbackMode.
func ParseFallbackMode(s string) (FallbackMode, error) {
	switch m := FallbackMode(s); m {
	case FallbackPlaceholder, FallbackSkip, FallbackAbort:
		return m, nil
	case "":
		return FallbackPlaceholder, nil
	default:
		return "", fmt.Errorf("unknown fallback mode %q", s)
	}
}

// Fallback describes a section's degraded rendering.
// Content is only used by FallbackPlaceholder; empty content selects the
// generic error fragment.
type Fallback struct {
	Mode    FallbackMode
	Content []byte
}

// OrderingMode selects how resolved sections are ordered on the wire.
type OrderingMode string

const (
	// OrderDocument emits sections in document order.
	OrderDocument OrderingMode = "document"
	// OrderReady emits sections as soon as they resolve.
	OrderReady OrderingMode = "ready"
)

// ParseOrderingMode converts a configuration string into an OrderingMode.
func ParseOrderingMode(s string) (OrderingMode, error) {
	switch m := OrderingMode(s); m {
	case OrderDocument, OrderReady:
		return m, nil
	case "":
		return OrderDocument, nil
	default:
		return "", fmt.Errorf("unknown ordering mode %q", s)
	}
}
