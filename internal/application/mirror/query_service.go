package mirror

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storemirror/backend/internal/domain/mirror"
	"github.com/storemirror/backend/internal/domain/shared"
)

// OrderQueryService serves the order read API
type OrderQueryService struct {
	orderRepo mirror.OrderRepository
}

// NewOrderQueryService creates a new OrderQueryService
func NewOrderQueryService(orderRepo mirror.OrderRepository) *OrderQueryService {
	return &OrderQueryService{orderRepo: orderRepo}
}

// ListOrders returns a filtered, sorted page of orders with their products inlined
func (s *OrderQueryService) ListOrders(ctx context.Context, q ListOrdersQuery) (*PageResponse[OrderResponse], error) {
	filter, err := q.toFilter()
	if err != nil {
		return nil, err
	}

	page, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := make([]OrderResponse, 0, len(page.Data))
	for i := range page.Data {
		data = append(data, ToOrderResponse(&page.Data[i]))
	}
	return &PageResponse[OrderResponse]{Data: data, Pagination: page.Pagination}, nil
}

// GetOrderByOID returns a single order by its remote id
func (s *OrderQueryService) GetOrderByOID(ctx context.Context, oid int64) (*OrderResponse, error) {
	if oid <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "order id must be a positive number")
	}
	order, err := s.orderRepo.FindByOID(ctx, oid)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

func (q ListOrdersQuery) toFilter() (mirror.OrderFilter, error) {
	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
	q.SortOrder = strings.ToLower(strings.TrimSpace(q.SortOrder))
	q.ProductID = strings.TrimSpace(q.ProductID)
	if err := validateQuery(q); err != nil {
		return mirror.OrderFilter{}, err
	}

	filter := mirror.OrderFilter{
		Search:    strings.TrimSpace(q.Search),
		Status:    strings.TrimSpace(q.Status),
		SortBy:    mirror.OrderSortByDateCreated,
		SortOrder: mirror.SortDesc,
		Page:      pageRequest(q.Page, q.Limit),
	}
	if q.SortBy != "" {
		filter.SortBy = mirror.OrderSortField(q.SortBy)
	}
	if q.SortOrder != "" {
		filter.SortOrder = mirror.SortOrder(q.SortOrder)
	}
	if q.ProductID != "" {
		id, err := uuid.Parse(q.ProductID)
		if err != nil {
			return mirror.OrderFilter{}, shared.NewDomainError("INVALID_INPUT", "productId must be a valid UUID")
		}
		filter.ProductID = &id
	}
	return filter, nil
}

// ProductQueryService serves the product read API
type ProductQueryService struct {
	productRepo mirror.ProductRepository
}

// NewProductQueryService creates a new ProductQueryService
func NewProductQueryService(productRepo mirror.ProductRepository) *ProductQueryService {
	return &ProductQueryService{productRepo: productRepo}
}

// ListProducts returns a filtered, sorted page of products with their order counts
func (s *ProductQueryService) ListProducts(ctx context.Context, q ListProductsQuery) (*PageResponse[ProductResponse], error) {
	filter, err := q.toFilter()
	if err != nil {
		return nil, err
	}

	page, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := make([]ProductResponse, 0, len(page.Data))
	for i := range page.Data {
		data = append(data, ToProductSummaryResponse(&page.Data[i]))
	}
	return &PageResponse[ProductResponse]{Data: data, Pagination: page.Pagination}, nil
}

func (q ListProductsQuery) toFilter() (mirror.ProductFilter, error) {
	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
	q.SortOrder = strings.ToLower(strings.TrimSpace(q.SortOrder))
	if err := validateQuery(q); err != nil {
		return mirror.ProductFilter{}, err
	}

	filter := mirror.ProductFilter{
		Search:    strings.TrimSpace(q.Search),
		SortBy:    mirror.ProductSortByName,
		SortOrder: mirror.SortAsc,
		Page:      pageRequest(q.Page, q.Limit),
	}
	if q.SortBy != "" {
		filter.SortBy = mirror.ProductSortField(q.SortBy)
	}
	if q.SortOrder != "" {
		filter.SortOrder = mirror.SortOrder(q.SortOrder)
	}
	return filter, nil
}

// pageRequest applies the paging defaults to raw query values
func pageRequest(page, limit int) mirror.PageRequest {
	if page == 0 {
		page = mirror.DefaultPage
	}
	if limit == 0 {
		limit = mirror.DefaultPageSize
	}
	return mirror.PageRequest{Page: page, PageSize: limit}
}
