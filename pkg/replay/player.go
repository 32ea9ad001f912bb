package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/internal/runtime"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// ErrReplayMismatch is returned by Verify when a replayed response differs
// from its recording.
var ErrReplayMismatch = errors.New("replay diverged from recording")

// Player replays one recording.
type Player struct {
	rec *domain.Recording

	mu     sync.Mutex
	queues map[fetchKey][]domain.RecordedFetch
}

type fetchKey struct {
	tag domain.DependencyTag
	key string
}

// NewPlayer prepares rec for playback.
func NewPlayer(rec *domain.Recording) (*Player, error) {
	if rec.Version != domain.RecordingVersion {
		return nil, fmt.Errorf("unsupported recording version %d", rec.Version)
	}
	queues := make(map[fetchKey][]domain.RecordedFetch)
	for _, f := range rec.Fetches {
		k := fetchKey{f.Tag, f.Key}
		queues[k] = append(queues[k], f)
	}
	return &Player{rec: rec, queues: queues}, nil
}

// Recording returns the recording being played.
func (p *Player) Recording() *domain.Recording { return p.rec }

// RequestContext rebuilds the recorded request.
func (p *Player) RequestContext() domain.RequestContext {
	return domain.NewRequestContext(p.rec.Method, p.rec.Path,
		domain.WithRequestID(p.rec.RequestID),
		domain.WithParams(p.rec.Params),
		domain.WithQuery(p.rec.Query),
		domain.WithHeaders(p.rec.Headers),
	)
}

// Ordering releases sections in the recorded emission order.
func (p *Player) Ordering() runtime.OrderingFactory {
	return runtime.Scripted(p.rec.Ordering, p.rec.EmissionOrder())
}

// Fetcher serves recorded fetch results. Results for the same tag and key
// are served in the order they were recorded.
func (p *Player) Fetcher() ports.Fetcher { return playerFetcher{p} }

type playerFetcher struct{ p *Player }

func (f playerFetcher) Fetch(ctx context.Context, req domain.FetchRequest) (domain.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.FetchResult{}, err
	}

	f.p.mu.Lock()
	k := fetchKey{req.Tag, req.Key}
	queue := f.p.queues[k]
	if len(queue) == 0 {
		f.p.mu.Unlock()
		return domain.FetchResult{}, fmt.Errorf("%w: no recorded fetch for %s/%s", domain.ErrFetchFailed, req.Tag, req.Key)
	}
	next := queue[0]
	f.p.queues[k] = queue[1:]
	f.p.mu.Unlock()

	res := domain.FetchResult{Duration: time.Duration(next.DurationUS) * time.Microsecond}
	switch {
	case next.Timeout:
		return res, fmt.Errorf("%w: replayed %s", domain.ErrFetchTimeout, next.Error)
	case next.Error != "":
		return res, fmt.Errorf("%w: replayed %s", domain.ErrFetchFailed, next.Error)
	}
	res.Value = next.Value
	return res, nil
}

// Wrap returns w with its sections adjusted to the recording: sections that
// did not complete fail immediately without retries, so they resolve through
// the same fallback as when recorded.
func (p *Player) Wrap(w ports.Workload) ports.Workload {
	return &replayWorkload{Workload: w, p: p}
}

type replayWorkload struct {
	ports.Workload
	p *Player
}

func (w *replayWorkload) Build(ctx context.Context, rc domain.RequestContext) (domain.Shell, domain.Sections, error) {
	shell, sections, err := w.Workload.Build(ctx, rc)
	if err != nil {
		return shell, sections, err
	}

	out := make(domain.Sections, len(sections))
	for key, sec := range sections {
		recorded, ok := w.p.rec.Section(sec.Name)
		if ok && recorded.Outcome != domain.OutcomeReady {
			sec.Renderer = recordedFailure(recorded)
			sec.Retry = domain.NoRetry()
		}
		out[key] = sec
	}
	return shell, out, nil
}

func recordedFailure(s domain.RecordedSection) domain.RenderFunc {
	return func(context.Context, domain.RequestContext) (domain.Fragment, error) {
		return nil, fmt.Errorf("%w: replayed %s: %s", domain.ErrFetchFailed, s.Outcome, s.Error)
	}
}

// Verify compares a replayed result with the recording.
func (p *Player) Verify(res *runtime.Result) error {
	if res == nil {
		return fmt.Errorf("%w: no result", ErrReplayMismatch)
	}
	if res.Status != p.rec.Status {
		return fmt.Errorf("%w: status %s, recorded %s", ErrReplayMismatch, res.Status, p.rec.Status)
	}
	if diff := cmp.Diff(p.rec.Events, res.Events, cmpopts.EquateEmpty()); diff != "" {
		return fmt.Errorf("%w (-recorded +replayed):\n%s", ErrReplayMismatch, diff)
	}
	return nil
}
