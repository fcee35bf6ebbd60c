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

func TestGormOrderRepository_Upsert(t *testing.T) {
	db := setupMirrorTestDB(t)
	products := NewGormProductRepository(db)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	hat := seedProduct(t, products, 501, "Cool Hat", "HAT-1", "19.99")
	scarf := seedProduct(t, products, 502, "Warm Scarf", "SCF-1", "25.00")
	created := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("inserts a new order", func(t *testing.T) {
		order := newTestOrder(1001, "19.99", created, testLine{"Cool Hat", hat})

		isNew, err := repo.Upsert(ctx, order)

		require.NoError(t, err)
		assert.True(t, isNew)

		found, err := repo.FindByOID(ctx, 1001)
		require.NoError(t, err)
		assert.Equal(t, order.ID, found.ID)
		assert.Equal(t, "19.99", found.Total)
		require.Len(t, found.LineItems, 1)
		require.NotNil(t, found.LineItems[0].Product)
		assert.Equal(t, "Cool Hat", found.LineItems[0].Product.Name)
		assert.Equal(t, int64(501), found.LineItems[0].Product.ExternalID)
	})

	t.Run("replaces an existing order and keeps its id", func(t *testing.T) {
		before, err := repo.FindByOID(ctx, 1001)
		require.NoError(t, err)

		update := newTestOrder(1001, "44.99", created,
			testLine{"Warm Scarf", scarf},
			testLine{"Cool Hat", hat},
		)
		update.Status = mirror.OrderStatusCompleted

		isNew, err := repo.Upsert(ctx, update)

		require.NoError(t, err)
		assert.False(t, isNew)
		assert.Equal(t, before.ID, update.ID)

		after, err := repo.FindByOID(ctx, 1001)
		require.NoError(t, err)
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, mirror.OrderStatusCompleted, after.Status)
		assert.Equal(t, "44.99", after.Total)
		require.Len(t, after.LineItems, 2)
		assert.Equal(t, "Warm Scarf", after.LineItems[0].Name)
		assert.Equal(t, "Cool Hat", after.LineItems[1].Name)

		var lineCount int64
		require.NoError(t, db.Table("order_line_items").Count(&lineCount).Error)
		assert.Equal(t, int64(2), lineCount)
	})

	t.Run("accepts an order without line items", func(t *testing.T) {
		isNew, err := repo.Upsert(ctx, newTestOrder(1002, "0.00", created))
		require.NoError(t, err)
		assert.True(t, isNew)

		found, err := repo.FindByOID(ctx, 1002)
		require.NoError(t, err)
		assert.Empty(t, found.LineItems)
	})

	t.Run("rejects an unresolved line item", func(t *testing.T) {
		order := newTestOrder(1003, "19.99", created, testLine{"Cool Hat", hat})
		order.LineItems[0].ProductID = uuid.Nil

		_, err := repo.Upsert(ctx, order)

		assert.ErrorIs(t, err, mirror.ErrDanglingProductReference)
		_, err = repo.FindByOID(ctx, 1003)
		assert.ErrorIs(t, err, mirror.ErrOrderNotFound)
	})

	t.Run("rejects a product removed after resolution", func(t *testing.T) {
		order := newTestOrder(1004, "19.99", created, testLine{"Cool Hat", hat}, testLine{"Cool Hat", hat})
		order.LineItems[1].ProductID = uuid.New()

		_, err := repo.Upsert(ctx, order)

		assert.ErrorIs(t, err, mirror.ErrDanglingProductReference)
		_, err = repo.FindByOID(ctx, 1004)
		assert.ErrorIs(t, err, mirror.ErrOrderNotFound)
	})
}

func TestGormOrderRepository_FindByOID_NotFound(t *testing.T) {
	repo := NewGormOrderRepository(setupMirrorTestDB(t))

	order, err := repo.FindByOID(context.Background(), 42)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, mirror.ErrOrderNotFound)
}

func TestGormOrderRepository_List(t *testing.T) {
	db := setupMirrorTestDB(t)
	products := NewGormProductRepository(db)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	hat := seedProduct(t, products, 501, "Cool Hat", "HAT-1", "19.99")
	discount := seedProduct(t, products, 502, "50% Off Voucher", "VCH-50", "5.00")
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	// totals deliberately differ in string and numeric order
	seed := []struct {
		oid   int64
		total string
		line  testLine
	}{
		{2001, "9.50", testLine{"Cool Hat", hat}},
		{2002, "100.00", testLine{"Cool Hat", hat}},
		{2003, "25.00", testLine{"50% Off Voucher", discount}},
		{2004, "12.00", testLine{"Cool Hat", hat}},
		{2005, "7.25", testLine{"Cool Hat", hat}},
	}
	for i, s := range seed {
		_, err := repo.Upsert(ctx, newTestOrder(s.oid, s.total, base.Add(time.Duration(i)*time.Hour), s.line))
		require.NoError(t, err)
	}

	oids := func(page *mirror.Page[mirror.Order]) []int64 {
		out := make([]int64, 0, len(page.Data))
		for _, o := range page.Data {
			out = append(out, o.OID)
		}
		return out
	}

	t.Run("defaults to newest first", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.OrderFilter{Page: mirror.PageRequest{Page: 1, PageSize: 10}})

		require.NoError(t, err)
		assert.Equal(t, []int64{2005, 2004, 2003, 2002, 2001}, oids(page))
		assert.Equal(t, int64(5), page.Pagination.TotalRecords)
		assert.Equal(t, 1, page.Pagination.TotalPages)
		assert.False(t, page.Pagination.HasNext)
		require.NotNil(t, page.Data[0].LineItems[0].Product)
	})

	t.Run("sorts by total numerically", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.OrderFilter{
			SortBy:    mirror.OrderSortByTotal,
			SortOrder: mirror.SortDesc,
			Page:      mirror.PageRequest{Page: 1, PageSize: 10},
		})

		require.NoError(t, err)
		assert.Equal(t, []int64{2002, 2003, 2004, 2001, 2005}, oids(page))
	})

	t.Run("pages are consistent with the total", func(t *testing.T) {
		var all []int64
		for p := 1; p <= 3; p++ {
			page, err := repo.List(ctx, mirror.OrderFilter{
				SortBy:    mirror.OrderSortByTotal,
				SortOrder: mirror.SortAsc,
				Page:      mirror.PageRequest{Page: p, PageSize: 2},
			})
			require.NoError(t, err)
			assert.Equal(t, int64(5), page.Pagination.TotalRecords)
			assert.Equal(t, 3, page.Pagination.TotalPages)
			assert.Equal(t, p, page.Pagination.CurrentPage)
			assert.Equal(t, p < 3, page.Pagination.HasNext)
			all = append(all, oids(page)...)
		}
		assert.Equal(t, []int64{2005, 2001, 2004, 2003, 2002}, all)
	})

	t.Run("page beyond the end is empty but keeps the total", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.OrderFilter{Page: mirror.PageRequest{Page: 9, PageSize: 2}})

		require.NoError(t, err)
		assert.Empty(t, page.Data)
		assert.NotNil(t, page.Data)
		assert.Equal(t, int64(5), page.Pagination.TotalRecords)
		assert.False(t, page.Pagination.HasNext)
	})

	t.Run("searches line item names case-insensitively", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.OrderFilter{Search: "cool HAT", Page: mirror.PageRequest{Page: 1, PageSize: 10}})

		require.NoError(t, err)
		assert.Equal(t, int64(4), page.Pagination.TotalRecords)
	})

	t.Run("treats wildcard characters literally", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.OrderFilter{Search: "50%", Page: mirror.PageRequest{Page: 1, PageSize: 10}})

		require.NoError(t, err)
		assert.Equal(t, []int64{2003}, oids(page))
	})

	t.Run("matches a numeric search against the order id", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.OrderFilter{Search: "2004", Page: mirror.PageRequest{Page: 1, PageSize: 10}})

		require.NoError(t, err)
		assert.Equal(t, []int64{2004}, oids(page))
	})

	t.Run("searches billing email", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.OrderFilter{Search: "ADA@example", Page: mirror.PageRequest{Page: 1, PageSize: 10}})

		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Pagination.TotalRecords)
	})

	t.Run("filters by product", func(t *testing.T) {
		id := discount.ID
		page, err := repo.List(ctx, mirror.OrderFilter{ProductID: &id, Page: mirror.PageRequest{Page: 1, PageSize: 10}})

		require.NoError(t, err)
		assert.Equal(t, []int64{2003}, oids(page))
	})

	t.Run("filters by status", func(t *testing.T) {
		page, err := repo.List(ctx, mirror.OrderFilter{
			Status: string(mirror.OrderStatusCompleted),
			Page:   mirror.PageRequest{Page: 1, PageSize: 10},
		})

		require.NoError(t, err)
		assert.Empty(t, page.Data)
		assert.Equal(t, int64(0), page.Pagination.TotalRecords)
		assert.Equal(t, 0, page.Pagination.TotalPages)
	})
}

func TestGormOrderRepository_StaleOrders(t *testing.T) {
	db := setupMirrorTestDB(t)
	products := NewGormProductRepository(db)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	hat := seedProduct(t, products, 501, "Cool Hat", "HAT-1", "19.99")
	scarf := seedProduct(t, products, 502, "Warm Scarf", "SCF-1", "25.00")
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.Upsert(ctx, newTestOrder(3001, "44.99", created, testLine{"Cool Hat", hat}, testLine{"Warm Scarf", scarf}))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, newTestOrder(3002, "19.99", created, testLine{"Cool Hat", hat}))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, newTestOrder(3003, "0.00", created))
	require.NoError(t, err)

	cutoff := time.Now().UTC().AddDate(0, -3, 0)
	ageOrder(t, db, 3001, cutoff.AddDate(0, 0, -10))
	ageOrder(t, db, 3003, cutoff.AddDate(0, 0, -1))

	stale, err := repo.FindStale(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, int64(3001), stale[0].OID)
	assert.ElementsMatch(t, []uuid.UUID{hat.ID, scarf.ID}, stale[0].ProductIDs)
	assert.Equal(t, int64(3003), stale[1].OID)
	assert.Empty(t, stale[1].ProductIDs)

	// 3003 is refreshed between selection and deletion
	ageOrder(t, db, 3003, time.Now().UTC())

	deleted, err := repo.DeleteStale(ctx, []uuid.UUID{stale[0].ID, stale[1].ID}, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByOID(ctx, 3001)
	assert.ErrorIs(t, err, mirror.ErrOrderNotFound)
	_, err = repo.FindByOID(ctx, 3003)
	assert.NoError(t, err)

	var lineCount int64
	require.NoError(t, db.Table("order_line_items").Count(&lineCount).Error)
	assert.Equal(t, int64(1), lineCount)
}
