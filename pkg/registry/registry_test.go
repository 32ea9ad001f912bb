package registry_test

import (
	"context"
	"testing"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWorkload string

func (s stubWorkload) Name() string { return string(s) }

func (s stubWorkload) Build(context.Context, domain.RequestContext) (domain.Shell, domain.Sections, error) {
	return domain.Shell{}, nil, nil
}

func TestRegistry(t *testing.T) {
	reg := registry.NewRegistry(stubWorkload("landing"))
	reg.Register(stubWorkload("product-page"))

	w, err := reg.Get("landing")
	require.NoError(t, err)
	assert.Equal(t, "landing", w.Name())

	_, err = reg.Get("checkout")
	assert.ErrorIs(t, err, domain.ErrWorkloadNotFound)

	assert.Equal(t, []string{"landing", "product-page"}, reg.Names())
}
