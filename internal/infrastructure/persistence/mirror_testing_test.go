package persistence

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storemirror/backend/internal/domain/mirror"
	"github.com/storemirror/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMirrorTestDB opens an in-memory SQLite database with the mirror schema.
// A single connection keeps every query on the same in-memory database.
func setupMirrorTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := GormConfig(logger.Discard)
	cfg.PrepareStmt = false
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func seedProduct(t *testing.T, repo *GormProductRepository, externalID int64, name, sku, price string) *mirror.Product {
	t.Helper()
	p := mirror.NewProductFromRemote(&mirror.RemoteProduct{
		ID:    externalID,
		Name:  name,
		SKU:   sku,
		Price: price,
		Slug:  name,
		Images: []mirror.Image{
			{ID: externalID * 10, Src: "https://shop.example.com/img.png", Name: name, Alt: name},
		},
	})
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

type testLine struct {
	name    string
	product *mirror.Product
}

func newTestOrder(oid int64, total string, created time.Time, lines ...testLine) *mirror.Order {
	remote := &mirror.RemoteOrder{
		ID:          oid,
		Number:      "#" + strconv.FormatInt(oid, 10),
		OrderKey:    "wc_order_key",
		Status:      string(mirror.OrderStatusProcessing),
		DateCreated: created.UTC(),
		Total:       total,
		Billing: mirror.Address{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
		},
		Shipping: mirror.Address{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Address1:  "12 Analytical Row",
		},
	}
	ids := make(map[int64]uuid.UUID)
	for i, l := range lines {
		remote.LineItems = append(remote.LineItems, mirror.RemoteLineItem{
			ID:        oid*100 + int64(i),
			Name:      l.name,
			ProductID: l.product.ExternalID,
			Quantity:  1,
			Total:     l.product.Price,
			Price:     l.product.Price,
		})
		ids[l.product.ExternalID] = l.product.ID
	}
	return mirror.NewOrderFromRemote(remote, ids)
}

// ageOrder moves an order's updated_at into the past
func ageOrder(t *testing.T, db *gorm.DB, oid int64, updatedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Exec("UPDATE orders SET updated_at = ? WHERE oid = ?", updatedAt.UTC(), oid).Error)
}
