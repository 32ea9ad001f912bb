package cli

import (
	"context"
	"fmt"
	"io"

	turbo "github.com/edisonylee/turbocommerce-sub001"
	"github.com/edisonylee/turbocommerce-sub001/pkg/adapters/file"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
)

// LoadRecording reads a recording from a JSON file when path is set, or from
// the configured store by request id.
func (a *App) LoadRecording(ctx context.Context, id, path string) (*domain.Recording, error) {
	if path != "" {
		return file.ReadFile(path)
	}
	store, err := a.RecordingStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.Load(ctx, domain.RequestID(id))
}

// Replay re-renders rec into body and verifies it against the recording.
func (a *App) Replay(ctx context.Context, rec *domain.Recording, body io.Writer) (*turbo.Result, error) {
	if _, ok := a.Catalog[rec.Workload]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWorkloadNotFound, rec.Workload)
	}
	build := func(f ports.Fetcher) ports.Workload {
		w, _ := a.Catalog.New(rec.Workload, f)
		return w
	}
	tr := newWriterTransport(body)
	return turbo.Replay(ctx, rec, build, tr, turbo.WithLogger(a.Logger))
}
