package mirror

import (
	"time"

	"github.com/google/uuid"
	"github.com/storemirror/backend/internal/domain/mirror"
)

// ---------------------------------------------------------------------------
// Query DTOs
// ---------------------------------------------------------------------------

// ListOrdersQuery is the order list request
type ListOrdersQuery struct {
	Search    string `form:"search" json:"search" validate:"max=200"`
	Status    string `form:"status" json:"status" validate:"max=50"`
	ProductID string `form:"productId" json:"productId" validate:"omitempty,uuid"`
	SortBy    string `form:"sortBy" json:"sortBy" validate:"omitempty,oneof=total date_created"`
	SortOrder string `form:"sortOrder" json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" json:"page" validate:"max=10000"`
	Limit     int    `form:"limit" json:"limit" validate:"max=100"`
}

// ListProductsQuery is the product list request
type ListProductsQuery struct {
	Search    string `form:"search" json:"search" validate:"max=200"`
	SortBy    string `form:"sortBy" json:"sortBy" validate:"omitempty,oneof=name price"`
	SortOrder string `form:"sortOrder" json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" json:"page" validate:"max=10000"`
	Limit     int    `form:"limit" json:"limit" validate:"max=100"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// ImageResponse is a product image in API responses
type ImageResponse struct {
	ID   int64  `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

// ProductResponse is a product in API responses
type ProductResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  int64           `json:"productId"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	SKU        string          `json:"sku"`
	Price      string          `json:"price"`
	Images     []ImageResponse `json:"images"`
	OrderCount *int64          `json:"orderCount,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// LineItemResponse is an order line item with its product inlined
type LineItemResponse struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	ProductID      int64            `json:"product_id"`
	Quantity       int              `json:"quantity"`
	Total          string           `json:"total"`
	Price          string           `json:"price"`
	LocalProductID uuid.UUID        `json:"localProductId"`
	ProductDetails *ProductResponse `json:"productDetails,omitempty"`
}

// OrderResponse is an order in API responses
type OrderResponse struct {
	ID           uuid.UUID          `json:"id"`
	OID          int64              `json:"oid"`
	Number       string             `json:"number"`
	OrderKey     string             `json:"order_key"`
	Status       string             `json:"status"`
	DateCreated  time.Time          `json:"date_created"`
	Total        string             `json:"total"`
	CustomerID   int64              `json:"customer_id"`
	CustomerNote string             `json:"customer_note"`
	Billing      mirror.Address     `json:"billing"`
	Shipping     mirror.Address     `json:"shipping"`
	LineItems    []LineItemResponse `json:"line_items"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// PageResponse is one page of results with its pagination metadata
type PageResponse[T any] struct {
	Data       []T               `json:"data"`
	Pagination mirror.Pagination `json:"pagination"`
}

// ---------------------------------------------------------------------------
// Conversion functions
// ---------------------------------------------------------------------------

// ToProductResponse converts a domain Product to a response DTO
func ToProductResponse(p *mirror.Product) ProductResponse {
	images := make([]ImageResponse, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ImageResponse(img))
	}
	return ProductResponse{
		ID:        p.ID,
		ProductID: p.ExternalID,
		Name:      p.Name,
		Slug:      p.Slug,
		SKU:       p.SKU,
		Price:     p.Price,
		Images:    images,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToProductSummaryResponse converts a product with its order count to a response DTO
func ToProductSummaryResponse(s *mirror.ProductSummary) ProductResponse {
	resp := ToProductResponse(&s.Product)
	count := s.OrderCount
	resp.OrderCount = &count
	return resp
}

// ToOrderResponse converts a domain Order to a response DTO
func ToOrderResponse(o *mirror.Order) OrderResponse {
	items := make([]LineItemResponse, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		item := LineItemResponse{
			ID:             li.ExternalID,
			Name:           li.Name,
			ProductID:      li.ExternalProductID,
			Quantity:       li.Quantity,
			Total:          li.Total,
			Price:          li.Price,
			LocalProductID: li.ProductID,
		}
		if li.Product != nil {
			p := ToProductResponse(li.Product)
			item.ProductDetails = &p
		}
		items = append(items, item)
	}
	return OrderResponse{
		ID:           o.ID,
		OID:          o.OID,
		Number:       o.Number,
		OrderKey:     o.OrderKey,
		Status:       o.Status.String(),
		DateCreated:  o.DateCreated,
		Total:        o.Total,
		CustomerID:   o.CustomerID,
		CustomerNote: o.CustomerNote,
		Billing:      o.Billing,
		Shipping:     o.Shipping,
		LineItems:    items,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}
