package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Defaults for the scheduler resource bounds.
const (
	DefaultMaxInFlight      = 8
	DefaultMaxBufferedBytes = 1 << 20
)

// Scheduler drives the sections of one response into a single streaming sink.
// A Scheduler is immutable after construction and safe for concurrent use;
// every Run owns its own per-response state.
type Scheduler struct {
	ordering    OrderingFactory
	fallback    FallbackStrategy
	flush       FlushPolicy
	maxInFlight int
	maxBuffered int
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithOrdering selects the ordering strategy factory.
func WithOrdering(f OrderingFactory) Option {
	return func(s *Scheduler) {
		s.ordering = f
	}
}

// WithFallbackStrategy replaces the default fallback decision table.
func WithFallbackStrategy(f FallbackStrategy) Option {
	return func(s *Scheduler) {
		s.fallback = f
	}
}

// WithFlushPolicy selects when appended events are flushed.
func WithFlushPolicy(p FlushPolicy) Option {
	return func(s *Scheduler) {
		s.flush = p
	}
}

// WithMaxInFlight bounds how many sections render concurrently.
// Sections beyond the limit queue in document order.
func WithMaxInFlight(n int) Option {
	return func(s *Scheduler) {
		s.maxInFlight = n
	}
}

// WithMaxBufferedBytes bounds ready-but-unflushed content. When ordering
// holds back more than n bytes, the blocking section is escalated to its fallback.
func WithMaxBufferedBytes(n int) Option {
	return func(s *Scheduler) {
		s.maxBuffered = n
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Scheduler) {
		s.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler creates a Scheduler with document ordering, the default
// fallback table and per-event flushing.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		ordering:    NewDocumentOrder,
		fallback:    DefaultFallback{},
		flush:       PerEvent{},
		maxInFlight: DefaultMaxInFlight,
		maxBuffered: DefaultMaxBufferedBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.maxInFlight <= 0 {
		s.maxInFlight = DefaultMaxInFlight
	}
	if s.maxBuffered <= 0 {
		s.maxBuffered = DefaultMaxBufferedBytes
	}
	return s
}

// Decision records how one section resolved and what replaced it.
type Decision struct {
	Outcome  domain.SectionOutcome
	Fallback domain.FallbackMode
}

// Result is the terminal report of one response.
type Result struct {
	RequestID domain.RequestID
	Status    domain.ResponseStatus
	Events    []domain.StreamEvent

	// Decisions lists section resolutions in the order the scheduler applied them.
	Decisions []Decision

	// Reason explains an Aborted status.
	Reason string

	// Written is the number of bytes delivered to the transport.
	Written int
}

// Run streams shell and sections to t. t must not be written by anyone else
// for the lifetime of the call.
//
// Section failures never fail the response; they degrade through the
// fallback strategy. Run returns an error, with an Aborted result, when the
// shell is invalid, the transport fails, ctx is cancelled or an Abort-mode
// section fails before the shell prefix was flushed.
func (s *Scheduler) Run(ctx context.Context, rc domain.RequestContext, shell domain.Shell, sections domain.Sections, t ports.Transport) (*Result, error) {
	ctx = domain.ContextWithRequestID(ctx, rc.ID)
	resp := newResponse(s, rc, shell, sections, t)

	if err := domain.Validate(shell, sections); err != nil {
		return resp.abort(ctx, err)
	}
	return resp.run(ctx)
}

type completion struct {
	pos     int
	outcome domain.SectionOutcome
}

// response is the per-request state of Run. Only the scheduler goroutine
// touches it, except for the completion channel and section contexts.
type response struct {
	*Scheduler
	rc       domain.RequestContext
	shell    domain.Shell
	sections []domain.Section
	sink     *StreamingSink
	order    OrderingStrategy
	result   *Result

	seq           uint64
	resolved      []bool
	remaining     int
	blockingLeft  int
	prefixFlushed bool
	held          []Entry
	heldBytes     int
	cancels       []context.CancelFunc
	completions   chan completion
	flushTimer    *time.Timer
}

func newResponse(s *Scheduler, rc domain.RequestContext, shell domain.Shell, sections domain.Sections, t ports.Transport) *response {
	ordered := make([]domain.Section, 0, len(shell.Slots))
	for _, slot := range shell.Slots {
		ordered = append(ordered, sections[slot.Ref])
	}
	return &response{
		Scheduler: s,
		rc:        rc,
		shell:     shell,
		sections:  ordered,
		sink:      NewStreamingSink(t),
		result:    &Result{RequestID: rc.ID},
	}
}

func (r *response) run(parent context.Context) (*Result, error) {
	ctx, cancel := context.WithCancel(parent)
	n := len(r.sections)

	r.order = r.ordering(r.shell)
	r.resolved = make([]bool, n)
	r.remaining = n
	r.completions = make(chan completion, n)
	r.cancels = make([]context.CancelFunc, n)
	sectionCtxs := make([]context.Context, n)
	for i, sec := range r.sections {
		sectionCtxs[i], r.cancels[i] = context.WithCancel(ctx)
		if sec.Blocking {
			r.blockingLeft++
		}
	}

	var g errgroup.Group
	defer func() {
		cancel()
		_ = g.Wait()
		if r.flushTimer != nil {
			r.flushTimer.Stop()
		}
	}()

	sem := semaphore.NewWeighted(int64(r.maxInFlight))
	g.Go(func() error {
		r.dispatch(ctx, &g, sem, sectionCtxs)
		return nil
	})

	if r.blockingLeft == 0 {
		if err := r.writePrefix(ctx); err != nil {
			return r.abort(ctx, err)
		}
	}

	for r.remaining > 0 {
		batch, err := r.tick(ctx)
		if err != nil {
			return r.abort(ctx, err)
		}
		for _, c := range batch {
			if err := r.resolve(ctx, c); err != nil {
				return r.abort(ctx, err)
			}
		}
	}

	if err := r.emit(ctx, r.order.Drain()); err != nil {
		return r.abort(ctx, err)
	}
	return r.complete(ctx)
}

// dispatch starts sections in document order, bounded by the in-flight limit.
func (r *response) dispatch(ctx context.Context, g *errgroup.Group, sem *semaphore.Weighted, sectionCtxs []context.Context) {
	for pos, sec := range r.sections {
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		sctx := sectionCtxs[pos]
		if sctx.Err() != nil {
			// Resolved by escalation before it could start.
			sem.Release(1)
			continue
		}

		if r.hooks.OnSectionStarted != nil {
			r.hooks.OnSectionStarted(ctx, &domain.SectionStarted{
				EventBase: r.base(domain.EventSectionStarted),
				Name:      sec.Name,
			})
		}
		r.logger.Debug("section started", "section", sec.Name, "request_id", r.rc.ID)

		g.Go(func() error {
			defer sem.Release(1)
			r.completions <- completion{pos: pos, outcome: runSection(sctx, r.rc, sec)}
			return nil
		})
	}
}

// tick waits for the next scheduling tick: every completion available at
// the moment the first one is received, sorted by document position.
func (r *response) tick(ctx context.Context) ([]completion, error) {
	var timer <-chan time.Time
	if r.flushTimer != nil {
		timer = r.flushTimer.C
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("response cancelled: %w", ctx.Err())
	case <-timer:
		r.flushTimer = nil
		return nil, r.flushNow(ctx)
	case c := <-r.completions:
		batch := []completion{c}
		for {
			select {
			case c := <-r.completions:
				batch = append(batch, c)
				continue
			default:
			}
			break
		}
		slices.SortFunc(batch, func(a, b completion) int { return a.pos - b.pos })
		return batch, nil
	}
}

func (r *response) resolve(ctx context.Context, c completion) error {
	if r.resolved[c.pos] {
		// Late result of a section already resolved by escalation.
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("response cancelled: %w", err)
	}

	r.resolved[c.pos] = true
	r.remaining--
	r.cancels[c.pos]()
	sec := r.sections[c.pos]
	out := c.outcome

	if r.hooks.OnSectionFinished != nil {
		r.hooks.OnSectionFinished(ctx, &domain.SectionFinished{
			EventBase:   r.base(domain.EventSectionFinished),
			Name:        sec.Name,
			OutcomeKind: out.Kind,
			Elapsed:     out.Elapsed,
			Attempts:    out.Attempts,
		})
	}

	res := r.fallback.Resolve(sec, out, r.prefixFlushed)
	r.result.Decisions = append(r.result.Decisions, Decision{Outcome: out, Fallback: res.Mode})

	if res.Abort {
		return fmt.Errorf("%w: %w", domain.ErrSectionAborted, out.Err)
	}
	if res.Mode != "" {
		r.logger.Warn("section fallback applied", "section", sec.Name, "mode", res.Mode, "outcome", out.Kind, "err", out.Err)
		if r.hooks.OnFallbackApplied != nil {
			r.hooks.OnFallbackApplied(ctx, &domain.FallbackApplied{
				EventBase: r.base(domain.EventFallbackApplied),
				Name:      sec.Name,
				Mode:      res.Mode,
			})
		}
	} else {
		r.logger.Debug("section ready", "section", sec.Name, "elapsed", out.Elapsed, "attempts", out.Attempts)
	}

	entry := Entry{Name: sec.Name, Pos: c.pos, Index: sec.Index}
	if res.Content != nil {
		entry.Body = r.shell.Slots[c.pos].Wrap(res.Content)
	}
	ready := r.order.Accept(entry)

	if sec.Blocking {
		r.blockingLeft--
	}
	if !r.prefixFlushed {
		for _, e := range ready {
			r.heldBytes += len(e.Body)
		}
		r.held = append(r.held, ready...)
		if r.blockingLeft > 0 {
			return r.enforceBound(ctx)
		}
		if err := r.writePrefix(ctx); err != nil {
			return err
		}
		ready, r.held, r.heldBytes = r.held, nil, 0
	}

	if err := r.emit(ctx, ready); err != nil {
		return err
	}
	return r.enforceBound(ctx)
}

// enforceBound escalates the section holding back buffered content while the
// buffered bytes exceed the configured maximum.
func (r *response) enforceBound(ctx context.Context) error {
	for {
		_, buffered := r.order.Buffered()
		if buffered+r.heldBytes <= r.maxBuffered {
			return nil
		}

		pos, ok := r.blocker()
		if !ok {
			return nil
		}
		r.logger.Warn("escalating blocking section", "section", r.sections[pos].Name, "buffered_bytes", buffered+r.heldBytes)
		escalated := completion{pos: pos, outcome: domain.SectionOutcome{
			Name:  r.sections[pos].Name,
			Index: r.sections[pos].Index,
			Kind:  domain.OutcomeFailed,
			Err:   domain.NewSectionError(r.sections[pos].Name, domain.ErrBufferLimit),
		}}
		if err := r.resolve(ctx, escalated); err != nil {
			return err
		}
	}
}

func (r *response) blocker() (int, bool) {
	if !r.prefixFlushed {
		for pos, sec := range r.sections {
			if sec.Blocking && !r.resolved[pos] {
				return pos, true
			}
		}
		return 0, false
	}
	name, ok := r.order.Blocker()
	if !ok {
		return 0, false
	}
	for pos, sec := range r.sections {
		if sec.Name == name && !r.resolved[pos] {
			return pos, true
		}
	}
	return 0, false
}

func (r *response) writePrefix(ctx context.Context) error {
	prefix := append([]byte(r.shell.Prefix), r.order.Prelude()...)
	if err := r.appendEvent(ctx, domain.ShellPrefixName, prefix); err != nil {
		return err
	}
	if err := r.flushNow(ctx); err != nil {
		return err
	}
	r.prefixFlushed = true
	return nil
}

func (r *response) emit(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if e.Body == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("response cancelled: %w", err)
		}
		if err := r.appendEvent(ctx, e.Name, e.Body); err != nil {
			return err
		}
	}
	return nil
}

func (r *response) appendEvent(ctx context.Context, name string, b []byte) error {
	r.seq++
	ev := domain.StreamEvent{Section: name, Bytes: b, Seq: r.seq}
	if err := r.sink.Append(ev); err != nil {
		return err
	}
	r.result.Events = append(r.result.Events, ev)

	pending := r.sink.Pending()
	if r.flush.ShouldFlush(pending) || pending >= r.maxBuffered {
		return r.flushNow(ctx)
	}
	if d := r.flush.MaxDelay(); d > 0 && r.flushTimer == nil {
		r.flushTimer = time.NewTimer(d)
	}
	return nil
}

func (r *response) flushNow(ctx context.Context) error {
	if r.flushTimer != nil {
		r.flushTimer.Stop()
		r.flushTimer = nil
	}
	n, err := r.sink.Flush()
	if err != nil {
		return err
	}
	if n > 0 && r.hooks.OnFlush != nil {
		r.hooks.OnFlush(ctx, &domain.Flush{
			EventBase: r.base(domain.EventFlush),
			Seq:       r.seq,
			ByteCount: n,
		})
	}
	return nil
}

func (r *response) complete(ctx context.Context) (*Result, error) {
	if err := r.appendEvent(ctx, domain.ShellSuffixName, []byte(r.shell.Suffix)); err != nil {
		return r.abort(ctx, err)
	}
	if err := r.flushNow(ctx); err != nil {
		return r.abort(ctx, err)
	}
	r.sink.Close()

	r.result.Status = domain.StatusCompleted
	r.result.Written = r.sink.Written()
	r.logger.Debug("response completed", "request_id", r.rc.ID, "events", len(r.result.Events), "bytes", r.result.Written)
	if r.hooks.OnResponseCompleted != nil {
		r.hooks.OnResponseCompleted(ctx, &domain.ResponseCompleted{
			EventBase: r.base(domain.EventResponseCompleted),
			Status:    domain.StatusCompleted,
		})
	}
	return r.result, nil
}

// abort terminates the response without further writes.
func (r *response) abort(ctx context.Context, err error) (*Result, error) {
	for _, cancel := range r.cancels {
		cancel()
	}
	r.sink.Close()

	r.result.Status = domain.StatusAborted
	r.result.Reason = abortReason(err)
	r.result.Written = r.sink.Written()
	r.logger.Warn("response aborted", "request_id", r.rc.ID, "reason", r.result.Reason, "err", err)
	if r.hooks.OnResponseAborted != nil {
		r.hooks.OnResponseAborted(context.WithoutCancel(ctx), &domain.ResponseAborted{
			EventBase: r.base(domain.EventResponseAborted),
			Reason:    r.result.Reason,
		})
	}
	return r.result, err
}

// PrefixFlushed reports whether an aborted result already committed bytes to
// the client, in which case no error status can be sent.
func (res *Result) PrefixFlushed() bool { return res.Written > 0 }

func abortReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrShellRender):
		return "shell_render"
	case errors.Is(err, domain.ErrSectionAborted):
		return "section_aborted"
	case errors.Is(err, domain.ErrTransportClosed):
		return "transport_closed"
	case errors.Is(err, domain.ErrWriteFailed):
		return "write_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func (r *response) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, RequestID: r.rc.ID}
}
