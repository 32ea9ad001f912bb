package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/pkg/adapters/memory"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_ServesFixture(t *testing.T) {
	f := memory.NewFetcher().
		Set(domain.TagPricing, "", memory.Fixture{Value: []byte(`{"price":10}`)})

	res, err := f.Fetch(context.Background(), domain.DefaultFetchRequest(domain.TagPricing, "sku-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":10}`, string(res.Value))
	assert.Equal(t, 1, f.Calls(domain.TagPricing, "sku-1"))
}

func TestFetcher_MissingFixture(t *testing.T) {
	f := memory.NewFetcher()

	_, err := f.Fetch(context.Background(), domain.FetchRequest{Tag: domain.TagCMS, Key: "home"})
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestFetcher_Timeout(t *testing.T) {
	f := memory.NewFetcher().
		Set(domain.TagAds, "slot", memory.Fixture{Latency: 200 * time.Millisecond})

	req := domain.FetchRequest{Tag: domain.TagAds, Key: "slot", Timeout: domain.TimeoutFromTotal(20 * time.Millisecond)}
	_, err := f.Fetch(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrFetchTimeout)
}

func TestFetcher_RetriesUntilSuccess(t *testing.T) {
	f := memory.NewFetcher().
		Set(domain.TagInventory, "sku-1", memory.Fixture{Value: []byte("ok"), FailFirst: 2})

	req := domain.FetchRequest{
		Tag:     domain.TagInventory,
		Key:     "sku-1",
		Timeout: domain.TimeoutFromTotal(50 * time.Millisecond),
		Retry:   domain.Retry(2),
	}
	res, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(res.Value))
	assert.Equal(t, 3, f.Calls(domain.TagInventory, "sku-1"))
}

func TestFetcher_WrapsFixtureError(t *testing.T) {
	boom := errors.New("upstream 503")
	f := memory.NewFetcher().
		Set(domain.TagReviews, "", memory.Fixture{Err: boom})

	_, err := f.Fetch(context.Background(), domain.FetchRequest{Tag: domain.TagReviews, Key: "x"})
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.ErrorIs(t, err, boom)
}
