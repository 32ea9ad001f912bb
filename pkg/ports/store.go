package ports

import (
	"context"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// RecordingStore persists replay recordings.
type RecordingStore interface {
	// Save persists the recording under its RequestID.
	Save(ctx context.Context, rec *domain.Recording) error

	// Load retrieves a recording.
	// Returns domain.ErrRecordingNotFound if it does not exist.
	Load(ctx context.Context, id domain.RequestID) (*domain.Recording, error)

	// Delete removes a recording.
	Delete(ctx context.Context, id domain.RequestID) error

	// List returns the stored recording ids.
	List(ctx context.Context) ([]domain.RequestID, error)
}
