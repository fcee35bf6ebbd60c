package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/storemirror/backend/internal/domain/mirror"
	"github.com/storemirror/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements mirror.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByExternalID finds a product by its remote id
func (r *GormProductRepository) FindByExternalID(ctx context.Context, externalID int64) (*mirror.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mirror.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product %d: %w", externalID, err)
	}
	product, err := model.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("failed to read product %d: %w", externalID, err)
	}
	return product, nil
}

// Create inserts a new product.
// A unique violation on external_id is reported as mirror.ErrDuplicateProduct.
func (r *GormProductRepository) Create(ctx context.Context, product *mirror.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	model := models.ProductModelFromDomain(product)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: external id %d", mirror.ErrDuplicateProduct, product.ExternalID)
		}
		return fmt.Errorf("failed to create product %d: %w", product.ExternalID, err)
	}
	product.CreatedAt = model.CreatedAt
	product.UpdatedAt = model.UpdatedAt
	return nil
}

// productFacetRow is one row of the faceted product list statement
type productFacetRow struct {
	totalRecords int64
	id           uuid.NullUUID
	orderCount   sql.NullInt64
}

// List returns a page of products with their order counts.
// The total and the page slice come from one statement over the same filtered set.
func (r *GormProductRepository) List(ctx context.Context, filter mirror.ProductFilter) (*mirror.Page[mirror.ProductSummary], error) {
	sortExpr := ValidateSortField(string(filter.SortBy), ProductSortFields, string(mirror.ProductSortByName))
	sortDir := ValidateSortOrder(string(filter.SortOrder), "ASC")
	limit, offset := filter.Page.Limit(), filter.Page.Offset()

	where := []string{"1 = 1"}
	var args []any
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		where = append(where, `(LOWER(p.name) LIKE ? ESCAPE '\' OR LOWER(p.sku) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := fmt.Sprintf(`
WITH order_counts AS (
	SELECT li.product_id, COUNT(DISTINCT li.order_id) AS order_count
	FROM order_line_items li
	GROUP BY li.product_id
),
filtered AS (
	SELECT p.id, COALESCE(oc.order_count, 0) AS order_count,
		ROW_NUMBER() OVER (ORDER BY %s %s, p.external_id ASC) AS rn
	FROM products p
	LEFT JOIN order_counts oc ON oc.product_id = p.id
	WHERE %s
),
total AS (
	SELECT COUNT(*) AS total_records FROM filtered
)
SELECT total.total_records, filtered.id, filtered.order_count
FROM total
LEFT JOIN filtered ON filtered.rn > ? AND filtered.rn <= ?
ORDER BY filtered.rn`, sortExpr, sortDir, strings.Join(where, " AND "))
	args = append(args, offset, offset+limit)

	var page *mirror.Page[mirror.ProductSummary]
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		facet, err := scanProductFacet(tx, query, args)
		if err != nil {
			return err
		}

		var total int64
		ids := make([]uuid.UUID, 0, len(facet))
		counts := make(map[uuid.UUID]int64, len(facet))
		for _, row := range facet {
			total = row.totalRecords
			if !row.id.Valid {
				continue
			}
			ids = append(ids, row.id.UUID)
			counts[row.id.UUID] = row.orderCount.Int64
		}

		byID := make(map[uuid.UUID]*models.ProductModel, len(ids))
		if len(ids) > 0 {
			var rows []models.ProductModel
			if err := tx.Where("id IN ?", ids).Find(&rows).Error; err != nil {
				return err
			}
			for i := range rows {
				byID[rows[i].ID] = &rows[i]
			}
		}

		data := make([]mirror.ProductSummary, 0, len(ids))
		for _, id := range ids {
			m, ok := byID[id]
			if !ok {
				continue
			}
			product, err := m.ToDomain()
			if err != nil {
				return err
			}
			data = append(data, mirror.ProductSummary{Product: *product, OrderCount: counts[id]})
		}
		page = mirror.NewPage(data, total, filter.Page)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return page, nil
}

func scanProductFacet(tx *gorm.DB, query string, args []any) ([]productFacetRow, error) {
	rows, err := tx.Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []productFacetRow
	for rows.Next() {
		var row productFacetRow
		if err := rows.Scan(&row.totalRecords, &row.id, &row.orderCount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FindUnreferenced returns the ids among the given products that no line item references
func (r *GormProductRepository) FindUnreferenced(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	orphans := make([]uuid.UUID, 0)
	for _, batch := range chunk(ids, inClauseChunkSize) {
		var found []uuid.UUID
		err := r.db.WithContext(ctx).
			Model(&models.ProductModel{}).
			Where("id IN ?", batch).
			Where(unreferencedProductCondition).
			Pluck("id", &found).Error
		if err != nil {
			return nil, fmt.Errorf("failed to find unreferenced products: %w", err)
		}
		orphans = append(orphans, found...)
	}
	return orphans, nil
}

// DeleteUnreferenced deletes the given products, skipping any that became referenced again
func (r *GormProductRepository) DeleteUnreferenced(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var deleted int64
	for _, batch := range chunk(ids, inClauseChunkSize) {
		result := r.db.WithContext(ctx).
			Where("id IN ?", batch).
			Where(unreferencedProductCondition).
			Delete(&models.ProductModel{})
		if result.Error != nil {
			return deleted, fmt.Errorf("failed to delete unreferenced products: %w", result.Error)
		}
		deleted += result.RowsAffected
	}
	return deleted, nil
}

const unreferencedProductCondition = "NOT EXISTS (SELECT 1 FROM order_line_items li WHERE li.product_id = products.id)"

// Ensure GormProductRepository implements mirror.ProductRepository
var _ mirror.ProductRepository = (*GormProductRepository)(nil)
