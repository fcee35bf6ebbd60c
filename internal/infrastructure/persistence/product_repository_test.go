package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storemirror/backend/internal/domain/mirror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProductRepository_CreateAndFind(t *testing.T) {
	db := setupMirrorTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("round trips a product with images", func(t *testing.T) {
		created := seedProduct(t, repo, 501, "Cool Hat", "HAT-1", "19.99")

		found, err := repo.FindByExternalID(ctx, 501)

		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "Cool Hat", found.Name)
		assert.Equal(t, "19.99", found.Price)
		require.Len(t, found.Images, 1)
		assert.Equal(t, int64(5010), found.Images[0].ID)
		assert.False(t, found.CreatedAt.IsZero())
	})

	t.Run("rejects a second product with the same external id", func(t *testing.T) {
		dup := mirror.NewProductFromRemote(&mirror.RemoteProduct{ID: 501, Name: "Other Hat"})

		err := repo.Create(ctx, dup)

		assert.ErrorIs(t, err, mirror.ErrDuplicateProduct)
	})

	t.Run("reports a missing product", func(t *testing.T) {
		found, err := repo.FindByExternalID(ctx, 999)

		assert.Nil(t, found)
		assert.ErrorIs(t, err, mirror.ErrProductNotFound)
	})

	t.Run("surfaces an unreadable images column", func(t *testing.T) {
		seedProduct(t, repo, 503, "Broken Hat", "HAT-3", "9.99")
		require.NoError(t, db.Exec("UPDATE products SET images = ? WHERE external_id = ?", `[{"id":`, 503).Error)

		found, err := repo.FindByExternalID(ctx, 503)

		assert.Nil(t, found)
		require.Error(t, err)
		assert.NotErrorIs(t, err, mirror.ErrProductNotFound)
		assert.Contains(t, err.Error(), "malformed images")
	})
}

func TestGormProductRepository_List(t *testing.T) {
	db := setupMirrorTestDB(t)
	repo := NewGormProductRepository(db)
	orders := NewGormOrderRepository(db)
	ctx := context.Background()

	hat := seedProduct(t, repo, 501, "Cool Hat", "HAT-1", "19.99")
	scarf := seedProduct(t, repo, 502, "Warm Scarf", "SCF_1", "100.00")
	seedProduct(t, repo, 503, "Plain Mug", "MUG-1", "")
	created := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	_, err := orders.Upsert(ctx, newTestOrder(1, "19.99", created, testLine{"Cool Hat", hat}))
	require.NoError(t, err)
	_, err = orders.Upsert(ctx, newTestOrder(2, "39.98", created, testLine{"Cool Hat", hat}, testLine{"Cool Hat", hat}))
	require.NoError(t, err)
	_, err = orders.Upsert(ctx, newTestOrder(3, "100.00", created, testLine{"Warm Scarf", scarf}))
	require.NoError(t, err)

	names := func(page *mirror.Page[mirror.ProductSummary]) []string {
		out := make([]string, 0, len(page.Data))
		for _, p := range page.Data {
			out = append(out, p.Name)
		}
		return out
	}

	t.Run("defaults to name ascending with order counts", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.ProductFilter{Page: mirror.PageRequest{Page: 1, PageSize: 10}})

		require.NoError(t, err)
		assert.Equal(t, []string{"Cool Hat", "Plain Mug", "Warm Scarf"}, names(page))
		assert.Equal(t, int64(2), page.Data[0].OrderCount)
		assert.Equal(t, int64(0), page.Data[1].OrderCount)
		assert.Equal(t, int64(1), page.Data[2].OrderCount)
		assert.Equal(t, int64(3), page.Pagination.TotalRecords)
	})

	t.Run("sorts by price numerically with empty prices first", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.ProductFilter{
			SortBy:    mirror.ProductSortByPrice,
			SortOrder: mirror.SortAsc,
			Page:      mirror.PageRequest{Page: 1, PageSize: 10},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"Plain Mug", "Cool Hat", "Warm Scarf"}, names(page))
	})

	t.Run("searches sku with a literal underscore", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.ProductFilter{Search: "scf_", Page: mirror.PageRequest{Page: 1, PageSize: 10}})

		require.NoError(t, err)
		assert.Equal(t, []string{"Warm Scarf"}, names(page))
	})

	t.Run("pages products", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.ProductFilter{Page: mirror.PageRequest{Page: 2, PageSize: 2}})

		require.NoError(t, err)
		assert.Equal(t, []string{"Warm Scarf"}, names(page))
		assert.Equal(t, 2, page.Pagination.TotalPages)
		assert.Equal(t, 2, page.Pagination.CurrentPage)
		assert.False(t, page.Pagination.HasNext)
	})
}

func TestGormProductRepository_Unreferenced(t *testing.T) {
	db := setupMirrorTestDB(t)
	repo := NewGormProductRepository(db)
	orders := NewGormOrderRepository(db)
	ctx := context.Background()

	hat := seedProduct(t, repo, 501, "Cool Hat", "HAT-1", "19.99")
	scarf := seedProduct(t, repo, 502, "Warm Scarf", "SCF-1", "25.00")
	mug := seedProduct(t, repo, 503, "Plain Mug", "MUG-1", "8.00")

	_, err := orders.Upsert(ctx, newTestOrder(1, "19.99", time.Now().UTC(), testLine{"Cool Hat", hat}))
	require.NoError(t, err)

	orphans, err := repo.FindUnreferenced(ctx, []uuid.UUID{hat.ID, scarf.ID, mug.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{scarf.ID, mug.ID}, orphans)

	// the mug gains a reference before deletion runs
	_, err = orders.Upsert(ctx, newTestOrder(2, "8.00", time.Now().UTC(), testLine{"Plain Mug", mug}))
	require.NoError(t, err)

	deleted, err := repo.DeleteUnreferenced(ctx, orphans)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByExternalID(ctx, 502)
	assert.ErrorIs(t, err, mirror.ErrProductNotFound)
	_, err = repo.FindByExternalID(ctx, 503)
	assert.NoError(t, err)

	empty, err := repo.FindUnreferenced(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
