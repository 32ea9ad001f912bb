package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/internal/runtime"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
)

// Recorder captures recordings and persists them to a store.
// Safe for concurrent use by many responses.
type Recorder struct {
	store  ports.RecordingStore
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[domain.RequestID]*domain.Recording
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder creates a Recorder saving into store.
func NewRecorder(store ports.RecordingStore, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   store,
		now:     time.Now,
		pending: make(map[domain.RequestID]*domain.Recording),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Store returns the backing store.
func (r *Recorder) Store() ports.RecordingStore { return r.store }

// Begin starts recording the response of rc.
func (r *Recorder) Begin(rc domain.RequestContext, workload string, mode domain.OrderingMode) {
	if mode == "" {
		mode = domain.OrderDocument
	}
	rec := &domain.Recording{
		Version:    domain.RecordingVersion,
		RequestID:  rc.ID,
		Workload:   workload,
		Method:     rc.Method,
		Path:       rc.Path,
		Params:     rc.Params(),
		Query:      rc.Query(),
		Headers:    rc.Headers(),
		RecordedAt: r.now().UTC(),
		Ordering:   mode,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[rc.ID] = rec
}

// Fetcher decorates next so that fetches issued on behalf of a recorded
// response are captured. The response is identified by the RequestID the
// scheduler attaches to the render context.
func (r *Recorder) Fetcher(next ports.Fetcher) ports.Fetcher {
	return &recordingFetcher{recorder: r, next: next}
}

type recordingFetcher struct {
	recorder *Recorder
	next     ports.Fetcher
}

func (f *recordingFetcher) Fetch(ctx context.Context, req domain.FetchRequest) (domain.FetchResult, error) {
	start := time.Now()
	res, err := f.next.Fetch(ctx, req)

	id, ok := domain.RequestIDFrom(ctx)
	if !ok {
		return res, err
	}

	entry := domain.RecordedFetch{
		Tag:        req.Tag,
		Key:        req.Key,
		DurationUS: time.Since(start).Microseconds(),
	}
	switch {
	case err == nil:
		entry.Value = res.Value
	case errors.Is(err, domain.ErrFetchTimeout), errors.Is(err, context.DeadlineExceeded):
		entry.Timeout = true
		entry.Error = err.Error()
	default:
		entry.Error = err.Error()
	}
	f.recorder.appendFetch(id, entry)
	return res, err
}

func (r *Recorder) appendFetch(id domain.RequestID, entry domain.RecordedFetch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.pending[id]; ok {
		rec.Fetches = append(rec.Fetches, entry)
	}
}

// Finish completes the recording of id with the scheduler result and saves it.
func (r *Recorder) Finish(ctx context.Context, id domain.RequestID, res *runtime.Result) (*domain.Recording, error) {
	r.mu.Lock()
	rec, ok := r.pending[id]
	delete(r.pending, id)
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no recording in progress for %s", id)
	}

	if res != nil {
		rec.Status = res.Status
		rec.Events = res.Events
		rec.Sections = make([]domain.RecordedSection, 0, len(res.Decisions))
		for _, d := range res.Decisions {
			s := domain.RecordedSection{
				Name:     d.Outcome.Name,
				Outcome:  d.Outcome.Kind,
				Attempts: d.Outcome.Attempts,
				Fallback: d.Fallback,
			}
			if d.Outcome.Err != nil {
				s.Error = d.Outcome.Err.Error()
			}
			rec.Sections = append(rec.Sections, s)
		}
	}

	if err := r.store.Save(ctx, rec); err != nil {
		return rec, fmt.Errorf("failed to save recording %s: %w", id, err)
	}
	r.logger.Debug("recording saved", "request_id", id, "fetches", len(rec.Fetches), "events", len(rec.Events))
	return rec, nil
}

// Discard drops an in-progress recording without saving it.
func (r *Recorder) Discard(id domain.RequestID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}
