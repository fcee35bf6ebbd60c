package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storemirror/backend/internal/domain/mirror"
	"github.com/storemirror/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements mirror.OrderRepository using GORM
type GormOrderRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Upsert inserts the order, or replaces every column and line item of the order with the same OID.
// The local id and creation time of an existing order are preserved.
func (r *GormOrderRepository) Upsert(ctx context.Context, order *mirror.Order) (bool, error) {
	if err := order.Validate(); err != nil {
		return false, err
	}

	model := models.OrderModelFromDomain(order)
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireProducts(tx, order); err != nil {
			return err
		}

		var existing models.OrderModel
		err := tx.Select("id", "created_at").Where("oid = ?", order.OID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			return r.insert(tx, model)
		case err != nil:
			return err
		}

		model.SetID(existing.ID)
		model.CreatedAt = existing.CreatedAt
		return r.replace(tx, model)
	})
	if err != nil {
		return false, fmt.Errorf("failed to upsert order %d: %w", order.OID, err)
	}

	order.ID = model.ID
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return created, nil
}

// requireProducts fails with ErrDanglingProductReference when a product the order
// references was removed after it was resolved, e.g. by a sweep running alongside the sync.
func requireProducts(tx *gorm.DB, order *mirror.Order) error {
	ids := order.ProductIDs()
	if len(ids) == 0 {
		return nil
	}
	var found int64
	if err := tx.Model(&models.ProductModel{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
		return err
	}
	if found != int64(len(ids)) {
		return fmt.Errorf("%w: order %d references %d products, %d exist",
			mirror.ErrDanglingProductReference, order.OID, len(ids), found)
	}
	return nil
}

func (r *GormOrderRepository) insert(tx *gorm.DB, model *models.OrderModel) error {
	if model.ID == uuid.Nil {
		model.SetID(uuid.New())
	}
	now := r.now()
	model.CreatedAt = now
	model.UpdatedAt = now
	if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
		return err
	}
	return r.insertLineItems(tx, model.LineItems)
}

func (r *GormOrderRepository) replace(tx *gorm.DB, model *models.OrderModel) error {
	model.UpdatedAt = r.now()
	if err := tx.Model(&models.OrderModel{}).
		Where("id = ?", model.ID).
		Updates(model.UpdateColumns(model.UpdatedAt)).Error; err != nil {
		return err
	}
	if err := tx.Where("order_id = ?", model.ID).Delete(&models.LineItemModel{}).Error; err != nil {
		return err
	}
	return r.insertLineItems(tx, model.LineItems)
}

func (r *GormOrderRepository) insertLineItems(tx *gorm.DB, items []models.LineItemModel) error {
	if len(items) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&items).Error
}

// FindByOID finds an order by its remote id with line item products populated
func (r *GormOrderRepository) FindByOID(ctx context.Context, oid int64) (*mirror.Order, error) {
	var model models.OrderModel
	err := preloadLineItems(r.db.WithContext(ctx)).Where("oid = ?", oid).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mirror.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order %d: %w", oid, err)
	}
	order, err := model.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("failed to read order %d: %w", oid, err)
	}
	return order, nil
}

func preloadLineItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("LineItems.Product")
}

// orderFacetRow is one row of the faceted order list statement
type orderFacetRow struct {
	totalRecords int64
	id           uuid.NullUUID
}

// List returns a page of orders with line item products populated.
// The total and the page slice come from one statement over the same filtered set.
func (r *GormOrderRepository) List(ctx context.Context, filter mirror.OrderFilter) (*mirror.Page[mirror.Order], error) {
	sortExpr := ValidateSortField(string(filter.SortBy), OrderSortFields, string(mirror.OrderSortByDateCreated))
	sortDir := ValidateSortOrder(string(filter.SortOrder), "DESC")
	limit, offset := filter.Page.Limit(), filter.Page.Offset()

	where, args := orderFilterConditions(filter)
	query := fmt.Sprintf(`
WITH filtered AS (
	SELECT o.id, ROW_NUMBER() OVER (ORDER BY %s %s, o.oid ASC) AS rn
	FROM orders o
	WHERE %s
),
total AS (
	SELECT COUNT(*) AS total_records FROM filtered
)
SELECT total.total_records, filtered.id
FROM total
LEFT JOIN filtered ON filtered.rn > ? AND filtered.rn <= ?
ORDER BY filtered.rn`, sortExpr, sortDir, strings.Join(where, " AND "))
	args = append(args, offset, offset+limit)

	var page *mirror.Page[mirror.Order]
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		facet, err := scanOrderFacet(tx, query, args)
		if err != nil {
			return err
		}

		var total int64
		ids := make([]uuid.UUID, 0, len(facet))
		for _, row := range facet {
			total = row.totalRecords
			if row.id.Valid {
				ids = append(ids, row.id.UUID)
			}
		}

		byID := make(map[uuid.UUID]*models.OrderModel, len(ids))
		if len(ids) > 0 {
			var rows []models.OrderModel
			if err := preloadLineItems(tx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
				return err
			}
			for i := range rows {
				byID[rows[i].ID] = &rows[i]
			}
		}

		data := make([]mirror.Order, 0, len(ids))
		for _, id := range ids {
			m, ok := byID[id]
			if !ok {
				continue
			}
			order, err := m.ToDomain()
			if err != nil {
				return err
			}
			data = append(data, *order)
		}
		page = mirror.NewPage(data, total, filter.Page)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return page, nil
}

// orderFilterConditions builds the WHERE conditions for an order filter.
// Search fields are ORed together and ANDed with the status and product filters.
func orderFilterConditions(filter mirror.OrderFilter) ([]string, []any) {
	where := []string{"1 = 1"}
	var args []any

	if filter.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, filter.Status)
	}
	if filter.ProductID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM order_line_items lp WHERE lp.order_id = o.id AND lp.product_id = ?)")
		args = append(args, *filter.ProductID)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		columns := []string{
			"o.number",
			"o.billing_first_name",
			"o.billing_last_name",
			"o.billing_email",
			"o.shipping_first_name",
			"o.shipping_last_name",
			"o.shipping_address_1",
		}
		ors := make([]string, 0, len(columns)+2)
		for _, col := range columns {
			ors = append(ors, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, col))
			args = append(args, pattern)
		}
		ors = append(ors, `EXISTS (SELECT 1 FROM order_line_items ls WHERE ls.order_id = o.id AND LOWER(ls.name) LIKE ? ESCAPE '\')`)
		args = append(args, pattern)
		if oid, err := strconv.ParseInt(search, 10, 64); err == nil {
			ors = append(ors, "o.oid = ?")
			args = append(args, oid)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	return where, args
}

func scanOrderFacet(tx *gorm.DB, query string, args []any) ([]orderFacetRow, error) {
	rows, err := tx.Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orderFacetRow
	for rows.Next() {
		var row orderFacetRow
		if err := rows.Scan(&row.totalRecords, &row.id); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// staleOrderRow is one (order, referenced product) pair of a stale order
type staleOrderRow struct {
	ID        uuid.UUID     `gorm:"column:id"`
	OID       int64         `gorm:"column:oid"`
	ProductID uuid.NullUUID `gorm:"column:product_id"`
}

// FindStale returns the orders last updated before cutoff, each with its distinct referenced products
func (r *GormOrderRepository) FindStale(ctx context.Context, cutoff time.Time) ([]mirror.StaleOrder, error) {
	var rows []staleOrderRow
	err := r.db.WithContext(ctx).
		Table("orders o").
		Select("DISTINCT o.id, o.oid, li.product_id").
		Joins("LEFT JOIN order_line_items li ON li.order_id = o.id").
		Where("o.updated_at < ?", cutoff).
		Order("o.oid ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stale orders: %w", err)
	}

	stale := make([]mirror.StaleOrder, 0)
	index := make(map[uuid.UUID]int)
	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			i = len(stale)
			index[row.ID] = i
			stale = append(stale, mirror.StaleOrder{ID: row.ID, OID: row.OID, ProductIDs: []uuid.UUID{}})
		}
		if row.ProductID.Valid {
			stale[i].ProductIDs = append(stale[i].ProductIDs, row.ProductID.UUID)
		}
	}
	return stale, nil
}

// DeleteStale deletes the given orders and their line items.
// Orders refreshed since they were selected (updated_at >= cutoff) are kept.
func (r *GormOrderRepository) DeleteStale(ctx context.Context, ids []uuid.UUID, cutoff time.Time) (int64, error) {
	var deleted int64
	for _, batch := range chunk(ids, inClauseChunkSize) {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			stillStale := tx.Model(&models.OrderModel{}).
				Select("id").
				Where("id IN ? AND updated_at < ?", batch, cutoff)
			if err := tx.Where("order_id IN (?)", stillStale).Delete(&models.LineItemModel{}).Error; err != nil {
				return err
			}
			result := tx.Where("id IN ? AND updated_at < ?", batch, cutoff).Delete(&models.OrderModel{})
			if result.Error != nil {
				return result.Error
			}
			deleted += result.RowsAffected
			return nil
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete stale orders: %w", err)
		}
	}
	return deleted, nil
}

// Ensure GormOrderRepository implements mirror.OrderRepository
var _ mirror.OrderRepository = (*GormOrderRepository)(nil)
