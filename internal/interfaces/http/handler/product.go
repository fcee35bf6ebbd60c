package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	mirrorapp "github.com/storemirror/backend/internal/application/mirror"
	"github.com/storemirror/backend/internal/interfaces/http/dto"
)

// ProductQuerier serves the product read model
type ProductQuerier interface {
	ListProducts(ctx context.Context, q mirrorapp.ListProductsQuery) (*mirrorapp.PageResponse[mirrorapp.ProductResponse], error)
}

// ProductHandler handles the mirrored product endpoints
type ProductHandler struct {
	BaseHandler
	products ProductQuerier
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products ProductQuerier) *ProductHandler {
	return &ProductHandler{products: products}
}

// List returns a page of products with their order counts
// GET /api/v1/products?search=&sortBy=&sortOrder=&page=&limit=
func (h *ProductHandler) List(c *gin.Context) {
	var q mirrorapp.ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "invalid query parameters")
		return
	}

	page, err := h.products.ListProducts(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPagedResponse(page.Data, page.Pagination))
}
