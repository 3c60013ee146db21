package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	indexed []uuid.UUID
	hits    []uuid.UUID
	err     error
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.indexed = append(f.indexed, p.ID)
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []uuid.UUID, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.hits)), f.hits, nil
}

func productReq(title string) transport.CreateProductRequest {
	return transport.CreateProductRequest{
		Title:       title,
		Description: "a fine " + title,
		Price:       decimal.RequireFromString("19.99"),
		Brand:       "Acme",
		Category:    "Tools",
	}
}

func TestCatalogService_CreateAndPatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ix := &fakeIndex{}
	pub := &fakePublisher{}
	svc := &CatalogService{Repo: newTestRepo(t), Index: ix, Events: pub}

	p, err := svc.Create(ctx, productReq("hammer"))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock, "stock defaults to one")
	assert.Equal(t, []uuid.UUID{p.ID}, ix.indexed)
	assert.Equal(t, []string{TopicProductEvents}, pub.topics())

	zero := 0
	req := productReq("anvil")
	req.Stock = &zero
	p2, err := svc.Create(ctx, req)
	require.NoError(t, err)
	got, err := svc.Get(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	bad := productReq("saw")
	bad.Price = decimal.NewFromInt(-1)
	_, err = svc.Create(ctx, bad)
	require.ErrorIs(t, err, ErrValidation)

	title := "claw hammer"
	stock := 7
	patched, err := svc.Patch(ctx, p.ID, transport.PatchProductRequest{Title: &title, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, "claw hammer", patched.Title)
	assert.Equal(t, 7, patched.Stock)
	assert.Equal(t, "Acme", patched.Brand)
	assert.True(t, decimal.RequireFromString("19.99").Equal(patched.Price))

	negative := -2
	_, err = svc.Patch(ctx, p.ID, transport.PatchProductRequest{Stock: &negative})
	require.ErrorIs(t, err, ErrValidation)
	got, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)

	_, err = svc.Patch(ctx, uuid.New(), transport.PatchProductRequest{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_IndexFailureKeepsProduct(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := &CatalogService{Repo: newTestRepo(t), Index: &fakeIndex{err: errors.New("es down")}}

	p, err := svc.Create(ctx, productReq("chisel"))
	require.NoError(t, err)
	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
}

func TestCatalogService_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := &CatalogService{Repo: newTestRepo(t)}
	for _, title := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, productReq(title))
		require.NoError(t, err)
	}
	garden := productReq("rake")
	garden.Category = "Garden"
	_, err := svc.Create(ctx, garden)
	require.NoError(t, err)

	total, items, err := svc.List(ctx, "", 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, items, 2)

	total, items, err = svc.List(ctx, "garden", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "rake", items[0].Title)
}

func TestCatalogService_Search(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newTestRepo(t)
	drill := seedProduct(t, r, "Power Drill", 80, 3)
	saw := seedProduct(t, r, "Hand Saw", 20, 3)
	seedProduct(t, r, "Garden Hose", 15, 3)

	t.Run("index order is kept", func(t *testing.T) {
		svc := &CatalogService{Repo: r, Index: &fakeIndex{hits: []uuid.UUID{saw.ID, uuid.New(), drill.ID}}}
		total, items, err := svc.Search(ctx, "tool", 0, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, items, 2)
		assert.Equal(t, saw.ID, items[0].ID)
		assert.Equal(t, drill.ID, items[1].ID)
	})

	t.Run("database fallback", func(t *testing.T) {
		svc := &CatalogService{Repo: r, Index: &fakeIndex{err: errors.New("es down")}}
		total, items, err := svc.Search(ctx, "DRILL", 0, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, drill.ID, items[0].ID)
	})

	t.Run("no index", func(t *testing.T) {
		svc := &CatalogService{Repo: r}
		total, _, err := svc.Search(ctx, "acme", 0, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total, "brand matches too")

		_, _, err = svc.Search(ctx, "  ", 0, 10)
		require.ErrorIs(t, err, ErrValidation)
	})
}
