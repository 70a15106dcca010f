package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockflow/internal/core/id"
	"stockflow/internal/domain"
	po "stockflow/internal/domain/documents/purchase_order"
	"stockflow/internal/domain/documents/reception"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// OrderService is the purchase order API used by the handler.
type OrderService interface {
	CreateOrder(ctx context.Context, in po.CreateInput) (*po.Order, error)
	GetByID(ctx context.Context, orderID id.ID) (*po.Order, error)
	GetByNumber(ctx context.Context, number string) (*po.Order, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*po.Order], error)
	SetStatus(ctx context.Context, orderID id.ID, to po.Status) (*po.Order, error)
}

// ReceptionService is the reception API used by the handler.
type ReceptionService interface {
	ReceiveItems(ctx context.Context, orderID id.ID, items []reception.ItemReceipt) (*po.Order, error)
	CompleteReception(ctx context.Context, orderID id.ID, in reception.CompleteInput) (*po.Order, error)
}

// PurchaseOrderHandler handles purchase order and reception requests.
type PurchaseOrderHandler struct {
	*BaseHandler
	orders    OrderService
	reception ReceptionService
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, orders OrderService, reception ReceptionService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: base, orders: orders, reception: reception}
}

// Create handles POST /orders.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, order)
}

// List handles GET /orders.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

// Get handles GET /orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// GetByNumber handles GET /orders/by-number/:number.
func (h *PurchaseOrderHandler) GetByNumber(c *gin.Context) {
	order, err := h.orders.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// SetStatus handles POST /orders/:id/status.
func (h *PurchaseOrderHandler) SetStatus(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.SetOrderStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orders.SetStatus(c.Request.Context(), orderID, po.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// Receive handles POST /orders/:id/receive.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReceiveItemsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	items, err := req.ToReceipts()
	if err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.reception.ReceiveItems(c.Request.Context(), orderID, items)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// CompleteReception handles POST /orders/:id/complete-reception.
func (h *PurchaseOrderHandler) CompleteReception(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.CompleteReceptionRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.reception.CompleteReception(c.Request.Context(), orderID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}
