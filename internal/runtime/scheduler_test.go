package runtime_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/internal/runtime"
	"github.com/edisonylee/turbocommerce-sub001/pkg/adapters/memory"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// after renders body once d elapsed, honouring cancellation.
func after(d time.Duration, body string) domain.RenderFunc {
	return func(ctx context.Context, _ domain.RequestContext) (domain.Fragment, error) {
		select {
		case <-time.After(d):
			return domain.Fragment(body), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func failing(err error) domain.RenderFunc {
	return func(context.Context, domain.RequestContext) (domain.Fragment, error) {
		return nil, err
	}
}

func testShell(names ...string) domain.Shell {
	slots := make([]domain.SectionSlot, len(names))
	for i, name := range names {
		slots[i] = domain.NewSlot(name, i)
	}
	return domain.Shell{Prefix: "<main>", Slots: slots, Suffix: "</main>"}
}

func wrap(name, body string) string {
	return string(domain.NewSlot(name, 0).Wrap([]byte(body)))
}

func sectionNames(events []domain.StreamEvent) []string {
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.Section
	}
	return names
}

func assertContiguous(t *testing.T, events []domain.StreamEvent) {
	t.Helper()
	for i, ev := range events {
		assert.Equal(t, uint64(i+1), ev.Seq, "event %d (%s) out of sequence", i, ev.Section)
	}
}

func run(t *testing.T, s *runtime.Scheduler, shell domain.Shell, sections domain.Sections) (*runtime.Result, *memory.Transport, error) {
	t.Helper()
	tr := memory.NewTransport()
	rc := domain.NewRequestContext("GET", "/test")
	res, err := s.Run(context.Background(), rc, shell, sections, tr)
	require.NotNil(t, res)
	return res, tr, err
}

func TestScheduler_DocumentOrder(t *testing.T) {
	shell := testShell("a", "b")
	sections := domain.NewSections(
		domain.NewSection("a", 0, after(50*time.Millisecond, "<p>A</p>")),
		domain.NewSection("b", 1, after(10*time.Millisecond, "<p>B</p>")),
	)

	res, tr, err := run(t, runtime.NewScheduler(), shell, sections)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Equal(t, "<main>"+wrap("a", "<p>A</p>")+wrap("b", "<p>B</p>")+"</main>", tr.String())
	if diff := cmp.Diff([]string{domain.ShellPrefixName, "a", "b", domain.ShellSuffixName}, sectionNames(res.Events)); diff != "" {
		t.Errorf("unexpected emission order (-want +got):\n%s", diff)
	}
	assertContiguous(t, res.Events)
	assert.Equal(t, len(tr.String()), res.Written)
}

func TestScheduler_ReadyOrder(t *testing.T) {
	shell := testShell("a", "b")
	sections := domain.NewSections(
		domain.NewSection("a", 0, after(50*time.Millisecond, "<p>A</p>")),
		domain.NewSection("b", 1, after(10*time.Millisecond, "<p>B</p>")),
	)

	res, tr, err := run(t, runtime.NewScheduler(runtime.WithOrdering(runtime.NewReadyOrder)), shell, sections)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.ShellPrefixName, "b", "a", domain.ShellSuffixName}, sectionNames(res.Events))
	assertContiguous(t, res.Events)

	out := tr.String()
	assert.True(t, strings.HasPrefix(out, "<main>"+
		`<div id="slot-a" data-slot="a"></div>`+"\n"+
		`<div id="slot-b" data-slot="b"></div>`+"\n"))
	assert.Contains(t, out, `<template data-slot="b">`+wrap("b", "<p>B</p>")+"</template>\n")
	assert.Less(t, strings.Index(out, `data-slot="b">`), strings.Index(out, `<template data-slot="a">`))
}

func TestScheduler_TieBreakByDocumentIndex(t *testing.T) {
	// The prefix flush stalls until both sections completed, so their
	// completions land in the same scheduling tick.
	tr := &stallingTransport{Transport: memory.NewTransport(), stall: 150 * time.Millisecond}
	shell := testShell("a", "b")
	sections := domain.NewSections(
		domain.NewSection("a", 0, after(30*time.Millisecond, "A")),
		domain.NewSection("b", 1, after(5*time.Millisecond, "B")),
	)

	s := runtime.NewScheduler(runtime.WithOrdering(runtime.NewReadyOrder))
	res, err := s.Run(context.Background(), domain.NewRequestContext("GET", "/"), shell, sections, tr)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.ShellPrefixName, "a", "b", domain.ShellSuffixName}, sectionNames(res.Events))
}

func TestScheduler_TimeoutWithRetry(t *testing.T) {
	shell := testShell("slow")
	sections := domain.NewSections(
		domain.NewSection("slow", 0, after(150*time.Millisecond, "never"),
			domain.WithTimeout(100*time.Millisecond),
			domain.WithRetry(domain.Retry(1)),
			domain.WithPlaceholder("<p>later</p>"),
		),
	)

	start := time.Now()
	res, tr, err := run(t, runtime.NewScheduler(), shell, sections)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	require.Len(t, res.Decisions, 1)
	out := res.Decisions[0].Outcome
	assert.Equal(t, domain.OutcomeTimedOut, out.Kind)
	assert.Equal(t, 2, out.Attempts)
	assert.ErrorIs(t, out.Err, domain.ErrFetchTimeout)
	assert.Equal(t, domain.FallbackPlaceholder, res.Decisions[0].Fallback)
	assert.Equal(t, "<main>"+wrap("slow", "<p>later</p>")+"</main>", tr.String())
	assert.NotContains(t, tr.String(), "never")
}

func TestScheduler_RetrySucceeds(t *testing.T) {
	var calls atomic.Int32
	flaky := domain.RenderFunc(func(context.Context, domain.RequestContext) (domain.Fragment, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return domain.Fragment("ok"), nil
	})
	sections := domain.NewSections(domain.NewSection("x", 0, flaky, domain.WithRetry(domain.Retry(2))))

	res, tr, err := run(t, runtime.NewScheduler(), testShell("x"), sections)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Decisions[0].Outcome.Attempts)
	assert.Equal(t, "<main>"+wrap("x", "ok")+"</main>", tr.String())
}

func TestScheduler_Fallbacks(t *testing.T) {
	boom := errors.New("boom")

	t.Run("Skip omits the slot", func(t *testing.T) {
		sections := domain.NewSections(
			domain.NewSection("a", 0, after(0, "A")),
			domain.NewSection("b", 1, failing(boom), domain.WithSkip()),
			domain.NewSection("c", 2, after(0, "C")),
		)
		res, tr, err := run(t, runtime.NewScheduler(), testShell("a", "b", "c"), sections)
		require.NoError(t, err)

		assert.Equal(t, "<main>"+wrap("a", "A")+wrap("c", "C")+"</main>", tr.String())
		assert.NotContains(t, tr.String(), `data-section="b"`)
		assertContiguous(t, res.Events)
	})

	t.Run("Placeholder without content uses the error fragment", func(t *testing.T) {
		sections := domain.NewSections(domain.NewSection("b", 0, failing(boom)))
		_, tr, err := run(t, runtime.NewScheduler(), testShell("b"), sections)
		require.NoError(t, err)
		assert.Equal(t, "<main>"+wrap("b", string(runtime.ErrorFragment("b")))+"</main>", tr.String())
	})

	t.Run("Abort after prefix degrades to placeholder", func(t *testing.T) {
		sections := domain.NewSections(domain.NewSection("b", 0, failing(boom), domain.WithAbort()))
		res, tr, err := run(t, runtime.NewScheduler(), testShell("b"), sections)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, res.Status)
		assert.Equal(t, domain.FallbackPlaceholder, res.Decisions[0].Fallback)
		assert.Contains(t, tr.String(), "Failed to load section: b")
	})

	t.Run("Abort on a blocking section fails before any write", func(t *testing.T) {
		sections := domain.NewSections(
			domain.NewSection("a", 0, after(0, "A")),
			domain.NewSection("b", 1, failing(boom), domain.WithAbort(), domain.AsBlocking()),
		)
		res, tr, err := run(t, runtime.NewScheduler(), testShell("a", "b"), sections)
		require.Error(t, err)

		assert.ErrorIs(t, err, domain.ErrSectionAborted)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, domain.StatusAborted, res.Status)
		assert.Equal(t, "section_aborted", res.Reason)
		assert.False(t, res.PrefixFlushed())
		assert.Empty(t, tr.String())
		assert.Zero(t, tr.Flushes())
	})
}

func TestScheduler_BlockingHoldsPrefix(t *testing.T) {
	sections := domain.NewSections(
		domain.NewSection("a", 0, after(0, "A")),
		domain.NewSection("b", 1, after(60*time.Millisecond, "B"), domain.AsBlocking()),
	)
	res, tr, err := run(t, runtime.NewScheduler(), testShell("a", "b"), sections)
	require.NoError(t, err)

	chunks := tr.Chunks()
	require.NotEmpty(t, chunks)
	assert.Equal(t, "<main>", string(chunks[0]))
	assert.Equal(t, "<main>"+wrap("a", "A")+wrap("b", "B")+"</main>", tr.String())
	assertContiguous(t, res.Events)
}

func TestScheduler_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var finished atomic.Bool
	slow := domain.RenderFunc(func(ctx context.Context, _ domain.RequestContext) (domain.Fragment, error) {
		<-ctx.Done()
		finished.Store(true)
		return nil, ctx.Err()
	})
	sections := domain.NewSections(domain.NewSection("a", 0, slow, domain.WithTimeout(5*time.Second)))

	time.AfterFunc(30*time.Millisecond, cancel)
	tr := memory.NewTransport()
	res, err := runtime.NewScheduler().Run(ctx, domain.NewRequestContext("GET", "/"), testShell("a"), sections, tr)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.StatusAborted, res.Status)
	assert.Equal(t, "cancelled", res.Reason)
	assert.Equal(t, "<main>", tr.String())
	assert.Eventually(t, finished.Load, time.Second, 5*time.Millisecond, "worker should observe cancellation")
}

func TestScheduler_TransportFailure(t *testing.T) {
	tr := memory.NewTransport(memory.FailAfterFlushes(1))
	sections := domain.NewSections(
		domain.NewSection("a", 0, after(10*time.Millisecond, "A")),
		domain.NewSection("b", 1, after(20*time.Millisecond, "B")),
	)

	res, err := runtime.NewScheduler().Run(context.Background(), domain.NewRequestContext("GET", "/"), testShell("a", "b"), sections, tr)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransportClosed)
	assert.Equal(t, domain.StatusAborted, res.Status)
	assert.Equal(t, "transport_closed", res.Reason)
	assert.Equal(t, "<main>", tr.String())
}

func TestScheduler_MaxInFlight(t *testing.T) {
	var current, peak atomic.Int32
	track := domain.RenderFunc(func(ctx context.Context, _ domain.RequestContext) (domain.Fragment, error) {
		n := current.Add(1)
		defer current.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return domain.Fragment("x"), nil
	})

	names := []string{"s0", "s1", "s2", "s3", "s4"}
	var secs []domain.Section
	for i, name := range names {
		secs = append(secs, domain.NewSection(name, i, track))
	}

	res, _, err := run(t, runtime.NewScheduler(runtime.WithMaxInFlight(2)), testShell(names...), domain.NewSections(secs...))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestScheduler_BufferLimitEscalates(t *testing.T) {
	big := strings.Repeat("b", 100)
	sections := domain.NewSections(
		domain.NewSection("a", 0, after(2*time.Second, "A"),
			domain.WithTimeout(3*time.Second),
			domain.WithPlaceholder("<p>a</p>"),
		),
		domain.NewSection("b", 1, after(0, big)),
	)

	start := time.Now()
	res, tr, err := run(t, runtime.NewScheduler(runtime.WithMaxBufferedBytes(64)), testShell("a", "b"), sections)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "<main>"+wrap("a", "<p>a</p>")+wrap("b", big)+"</main>", tr.String())

	var escalated domain.SectionOutcome
	for _, d := range res.Decisions {
		if d.Outcome.Name == "a" {
			escalated = d.Outcome
		}
	}
	assert.Equal(t, domain.OutcomeFailed, escalated.Kind)
	assert.ErrorIs(t, escalated.Err, domain.ErrBufferLimit)
}

func TestScheduler_FlushPolicies(t *testing.T) {
	sections := func() domain.Sections {
		return domain.NewSections(
			domain.NewSection("a", 0, after(0, "A")),
			domain.NewSection("b", 1, after(0, "B")),
		)
	}
	want := "<main>" + wrap("a", "A") + wrap("b", "B") + "</main>"

	tests := []struct {
		name       string
		policy     runtime.FlushPolicy
		wantChunks int
	}{
		{name: "per event", policy: runtime.PerEvent{}, wantChunks: 4},
		{name: "size", policy: runtime.SizeThreshold{Bytes: 1 << 20}, wantChunks: 2},
		{name: "time", policy: runtime.TimeThreshold{Delay: time.Second}, wantChunks: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, tr, err := run(t, runtime.NewScheduler(runtime.WithFlushPolicy(tt.policy)), testShell("a", "b"), sections())
			require.NoError(t, err)
			assert.Equal(t, want, tr.String(), "flush policy must not change content")
			assert.Len(t, tr.Chunks(), tt.wantChunks)
			assert.Equal(t, "<main>", string(tr.Chunks()[0]), "shell prefix is always flushed first")
		})
	}
}

func TestScheduler_TimeThresholdFlushesOnTimer(t *testing.T) {
	sections := domain.NewSections(
		domain.NewSection("a", 0, after(0, "A")),
		domain.NewSection("b", 1, after(150*time.Millisecond, "B")),
	)
	_, tr, err := run(t, runtime.NewScheduler(runtime.WithFlushPolicy(runtime.TimeThreshold{Delay: 20 * time.Millisecond})), testShell("a", "b"), sections)
	require.NoError(t, err)

	chunks := tr.Chunks()
	require.Len(t, chunks, 3)
	assert.Equal(t, wrap("a", "A"), string(chunks[1]))
}

func TestScheduler_InvalidShell(t *testing.T) {
	sections := domain.NewSections(domain.NewSection("a", 0, after(0, "A")))
	res, tr, err := run(t, runtime.NewScheduler(), testShell("a", "missing"), sections)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrShellRender)
	assert.Equal(t, domain.StatusAborted, res.Status)
	assert.Equal(t, "shell_render", res.Reason)
	assert.Empty(t, tr.String())
}

func TestScheduler_NoSections(t *testing.T) {
	res, tr, err := run(t, runtime.NewScheduler(), domain.Shell{Prefix: "<p>", Suffix: "</p>"}, domain.Sections{})
	require.NoError(t, err)
	assert.Equal(t, "<p></p>", tr.String())
	assert.Len(t, res.Events, 2)
}

func TestScheduler_LifecycleHooks(t *testing.T) {
	var mu sync.Mutex
	var started, finished, fallbacks []string
	var flushes int
	var completed domain.ResponseStatus

	hooks := domain.LifecycleHooks{
		OnSectionStarted: func(_ context.Context, e *domain.SectionStarted) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, e.Name)
		},
		OnSectionFinished: func(_ context.Context, e *domain.SectionFinished) {
			mu.Lock()
			defer mu.Unlock()
			finished = append(finished, e.Name+":"+string(e.OutcomeKind))
		},
		OnFallbackApplied: func(_ context.Context, e *domain.FallbackApplied) {
			mu.Lock()
			defer mu.Unlock()
			fallbacks = append(fallbacks, e.Name+":"+string(e.Mode))
		},
		OnFlush: func(_ context.Context, e *domain.Flush) {
			mu.Lock()
			defer mu.Unlock()
			flushes++
		},
		OnResponseCompleted: func(_ context.Context, e *domain.ResponseCompleted) {
			mu.Lock()
			defer mu.Unlock()
			completed = e.Status
		},
	}

	sections := domain.NewSections(
		domain.NewSection("a", 0, after(0, "A")),
		domain.NewSection("b", 1, after(20*time.Millisecond, ""), domain.WithTimeout(5*time.Millisecond), domain.WithSkip()),
	)
	_, _, err := run(t, runtime.NewScheduler(runtime.WithLifecycleHooks(hooks)), testShell("a", "b"), sections)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b"}, started)
	assert.ElementsMatch(t, []string{"a:ready", "b:timed_out"}, finished)
	assert.Equal(t, []string{"b:skip"}, fallbacks)
	assert.Equal(t, 3, flushes)
	assert.Equal(t, domain.StatusCompleted, completed)
}

func TestScheduler_ResponseAbortedHook(t *testing.T) {
	var reason string
	hooks := domain.LifecycleHooks{
		OnResponseAborted: func(_ context.Context, e *domain.ResponseAborted) {
			reason = e.Reason
		},
	}
	_, _, err := run(t, runtime.NewScheduler(runtime.WithLifecycleHooks(hooks)), testShell("ghost"), domain.Sections{})
	require.Error(t, err)
	assert.Equal(t, "shell_render", reason)
}

// stallingTransport delays its first Flush.
type stallingTransport struct {
	*memory.Transport
	stall time.Duration
	once  sync.Once
}

func (s *stallingTransport) Flush() error {
	s.once.Do(func() { time.Sleep(s.stall) })
	return s.Transport.Flush()
}
