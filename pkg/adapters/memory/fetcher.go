package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// Fixture is the canned response of one dependency.
type Fixture struct {
	Value   []byte
	Latency time.Duration
	Err     error

	// FailFirst makes the first n calls fail before Value is served.
	FailFirst int
}

// Fetcher implements ports.Fetcher from fixtures, simulating latency.
// Fixtures are keyed by tag and key; a fixture registered with an empty key
// serves every key of its tag. Safe for concurrent use.
type Fetcher struct {
	mu       sync.Mutex
	fixtures map[fixtureKey]Fixture
	calls    map[fixtureKey]int
}

type fixtureKey struct {
	tag domain.DependencyTag
	key string
}

// NewFetcher creates a fetcher without fixtures.
func NewFetcher() *Fetcher {
	return &Fetcher{
		fixtures: make(map[fixtureKey]Fixture),
		calls:    make(map[fixtureKey]int),
	}
}

// Set registers the fixture for tag and key.
func (f *Fetcher) Set(tag domain.DependencyTag, key string, fx Fixture) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixtures[fixtureKey{tag, key}] = fx
	return f
}

// Calls returns how many attempts were made against tag and key.
func (f *Fetcher) Calls(tag domain.DependencyTag, key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[fixtureKey{tag, key}]
}

// Fetch serves the fixture, retrying failed and timed out attempts as allowed
// by req.Retry.
func (f *Fetcher) Fetch(ctx context.Context, req domain.FetchRequest) (domain.FetchResult, error) {
	start := time.Now()
	var err error
	for attempt := 0; attempt <= req.Retry.Retries; attempt++ {
		if attempt > 0 {
			if !wait(ctx, req.Retry.Backoff.Delay(attempt-1)) {
				break
			}
		}

		var value []byte
		value, err = f.attempt(ctx, req)
		if err == nil {
			return domain.FetchResult{Value: value, Duration: time.Since(start)}, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return domain.FetchResult{Duration: time.Since(start)}, err
}

func (f *Fetcher) attempt(ctx context.Context, req domain.FetchRequest) ([]byte, error) {
	fx, key, ok := f.lookup(req.Tag, req.Key)
	if !ok {
		return nil, fmt.Errorf("%w: no fixture for %s/%s", domain.ErrFetchFailed, req.Tag, req.Key)
	}

	f.mu.Lock()
	f.calls[key]++
	call := f.calls[key]
	f.mu.Unlock()

	total := req.Timeout.Total
	if total <= 0 {
		total = req.Tag.DefaultTimeout()
	}
	actx, cancel := context.WithTimeout(ctx, total)
	defer cancel()
	if !wait(actx, fx.Latency) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s/%s after %s", domain.ErrFetchTimeout, req.Tag, req.Key, total)
	}

	switch {
	case fx.Err != nil:
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, fx.Err)
	case call <= fx.FailFirst:
		return nil, fmt.Errorf("%w: %s/%s attempt %d", domain.ErrFetchFailed, req.Tag, req.Key, call)
	}
	return fx.Value, nil
}

func (f *Fetcher) lookup(tag domain.DependencyTag, key string) (Fixture, fixtureKey, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fx, ok := f.fixtures[fixtureKey{tag, key}]; ok {
		return fx, fixtureKey{tag, key}, true
	}
	fx, ok := f.fixtures[fixtureKey{tag: tag}]
	return fx, fixtureKey{tag, key}, ok
}

func wait(ctx context.Context, d time.Duration) bool {
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
