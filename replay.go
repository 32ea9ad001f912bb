package turbo

import (
	"context"
	"fmt"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
	"github.com/edisonylee/turbocommerce-sub001/pkg/registry"
	"github.com/edisonylee/turbocommerce-sub001/pkg/replay"
)

// Replay re-renders a recording without touching live dependencies. build
// must construct the recorded workload over the fetcher it is given. The
// replayed events are compared with the recording; a divergence is reported
// as replay.ErrReplayMismatch alongside the replayed Result.
//
// opts may tune logging, hooks and flushing. Ordering, registry and
// recorder settings are replaced by the recording's.
func Replay(ctx context.Context, rec *domain.Recording, build func(ports.Fetcher) ports.Workload, t ports.Transport, opts ...Option) (*Result, error) {
	player, err := replay.NewPlayer(rec)
	if err != nil {
		return nil, err
	}
	w := player.Wrap(build(player.Fetcher()))
	if w.Name() != rec.Workload {
		return nil, fmt.Errorf("replay: recording is for %q, built %q", rec.Workload, w.Name())
	}

	opts = append(opts,
		WithRegistry(registry.NewRegistry(w)),
		WithOrdering(rec.Ordering),
		WithOrderingFactory(player.Ordering()),
		func(e *Engine) { e.recorder = nil },
	)
	eng, err := New(opts...)
	if err != nil {
		return nil, err
	}

	res, runErr := eng.Render(ctx, rec.Workload, player.RequestContext(), t)
	if err := player.Verify(res); err != nil {
		return res, err
	}
	return res, runErr
}
