package ports

import (
	"context"
	"testing"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecordingStoreContract runs a suite of tests to verify that a
// RecordingStore implementation adheres to the interface contract.
func RunRecordingStoreContract(t *testing.T, store RecordingStore) {
	ctx := context.Background()
	id := domain.RequestID("contract-" + time.Now().Format("20060102150405.000"))

	newRecording := func(id domain.RequestID) *domain.Recording {
		return &domain.Recording{
			Version:   domain.RecordingVersion,
			RequestID: id,
			Workload:  "contract",
			Method:    "GET",
			Path:      "/pages/contract",
			Fetches: []domain.RecordedFetch{
				{Tag: domain.TagPricing, Key: "sku-1", Value: []byte(`{"price":10}`), DurationUS: 1200},
				{Tag: domain.TagReviews, Key: "sku-1", Error: "boom", DurationUS: 40},
			},
			Sections: []domain.RecordedSection{
				{Name: "pricing", Outcome: domain.OutcomeReady, Attempts: 1},
				{Name: "reviews", Outcome: domain.OutcomeFailed, Attempts: 2, Fallback: domain.FallbackPlaceholder, Error: "boom"},
			},
			Events: []domain.StreamEvent{
				{Section: domain.ShellPrefixName, Bytes: []byte("<main>"), Seq: 1},
				{Section: "pricing", Bytes: []byte("<p>10</p>"), Seq: 2},
				{Section: domain.ShellSuffixName, Bytes: []byte("</main>"), Seq: 3},
			},
			Status: domain.StatusCompleted,
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		rec := newRecording(id)
		require.NoError(t, store.Save(ctx, rec), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.Workload, loaded.Workload)
		assert.Equal(t, rec.Fetches, loaded.Fetches)
		assert.Equal(t, rec.Sections, loaded.Sections)
		assert.Equal(t, rec.Events, loaded.Events)
		assert.Equal(t, []string{"pricing"}, loaded.EmissionOrder())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+id)
		assert.ErrorIs(t, err, domain.ErrRecordingNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newRecording(id)))
		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrRecordingNotFound, "Load after Delete should return ErrRecordingNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := id+"-1", id+"-2"
		require.NoError(t, store.Save(ctx, newRecording(id1)))
		require.NoError(t, store.Save(ctx, newRecording(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
