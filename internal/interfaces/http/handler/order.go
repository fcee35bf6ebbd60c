package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	mirrorapp "github.com/storemirror/backend/internal/application/mirror"
	"github.com/storemirror/backend/internal/interfaces/http/dto"
)

// OrderQuerier serves the order read model
type OrderQuerier interface {
	ListOrders(ctx context.Context, q mirrorapp.ListOrdersQuery) (*mirrorapp.PageResponse[mirrorapp.OrderResponse], error)
	GetOrderByOID(ctx context.Context, oid int64) (*mirrorapp.OrderResponse, error)
}

// OrderHandler handles the mirrored order endpoints
type OrderHandler struct {
	BaseHandler
	orders OrderQuerier
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderQuerier) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List returns a page of orders
// GET /api/v1/orders?search=&status=&productId=&sortBy=&sortOrder=&page=&limit=
func (h *OrderHandler) List(c *gin.Context) {
	var q mirrorapp.ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "invalid query parameters")
		return
	}

	page, err := h.orders.ListOrders(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPagedResponse(page.Data, page.Pagination))
}

// GetByOID returns one order by its remote id
// GET /api/v1/orders/:oid
func (h *OrderHandler) GetByOID(c *gin.Context) {
	oid, err := strconv.ParseInt(c.Param("oid"), 10, 64)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "order id must be a number")
		return
	}

	order, err := h.orders.GetOrderByOID(c.Request.Context(), oid)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
