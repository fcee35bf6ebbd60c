package mirror

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SortOrder is the direction of a list sort
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// IsValid returns true if the sort order is asc or desc
func (s SortOrder) IsValid() bool {
	return s == SortAsc || s == SortDesc
}

// OrderSortField is a sortable order field
type OrderSortField string

const (
	OrderSortByTotal       OrderSortField = "total"
	OrderSortByDateCreated OrderSortField = "date_created"
)

// ProductSortField is a sortable product field
type ProductSortField string

const (
	ProductSortByName  ProductSortField = "name"
	ProductSortByPrice ProductSortField = "price"
)

// OrderFilter selects, sorts and pages orders
type OrderFilter struct {
	// Search matches number, billing/shipping names, billing email, shipping address
	// line and line item names; a numeric search also matches OID exactly
	Search string
	// Status is matched exactly when set
	Status string
	// ProductID restricts to orders with a line item referencing this local product
	ProductID *uuid.UUID
	SortBy    OrderSortField
	SortOrder SortOrder
	Page      PageRequest
}

// ProductFilter selects, sorts and pages products
type ProductFilter struct {
	// Search matches name and SKU
	Search    string
	SortBy    ProductSortField
	SortOrder SortOrder
	Page      PageRequest
}

// StaleOrder is an order selected for retention deletion
type StaleOrder struct {
	ID         uuid.UUID
	OID        int64
	ProductIDs []uuid.UUID
}

// ProductRepository is the mirror store port for products
type ProductRepository interface {
	// FindByExternalID returns ErrProductNotFound when no product has the external id
	FindByExternalID(ctx context.Context, externalID int64) (*Product, error)
	// Create inserts a product; returns ErrDuplicateProduct on an external id conflict
	Create(ctx context.Context, product *Product) error
	// List returns a page of products annotated with their order counts
	List(ctx context.Context, filter ProductFilter) (*Page[ProductSummary], error)
	// FindUnreferenced returns the subset of ids no line item references
	FindUnreferenced(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	// DeleteUnreferenced deletes the given products that are still unreferenced
	DeleteUnreferenced(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// OrderRepository is the mirror store port for orders
type OrderRepository interface {
	// Upsert inserts the order or fully replaces the order with the same OID.
	// It reports whether a new row was created.
	Upsert(ctx context.Context, order *Order) (bool, error)
	// FindByOID returns the order with products populated, or ErrOrderNotFound
	FindByOID(ctx context.Context, oid int64) (*Order, error)
	// List returns a page of orders with products populated
	List(ctx context.Context, filter OrderFilter) (*Page[Order], error)
	// FindStale returns orders last updated before cutoff with their referenced products
	FindStale(ctx context.Context, cutoff time.Time) ([]StaleOrder, error)
	// DeleteStale deletes the given orders if they are still older than cutoff
	DeleteStale(ctx context.Context, ids []uuid.UUID, cutoff time.Time) (int64, error)
}
