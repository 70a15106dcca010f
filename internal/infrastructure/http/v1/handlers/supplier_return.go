package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockflow/internal/core/id"
	"stockflow/internal/domain"
	sr "stockflow/internal/domain/documents/supplier_return"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// ReturnService is the supplier return API used by the handler.
type ReturnService interface {
	Create(ctx context.Context, in sr.CreateInput) (*sr.Return, error)
	SaveDraft(ctx context.Context, in sr.CreateInput) (*sr.Return, error)
	UpdateDraft(ctx context.Context, returnID id.ID, in sr.CreateInput) (*sr.Return, error)
	Submit(ctx context.Context, returnID id.ID) (*sr.Return, error)
	Approve(ctx context.Context, returnID id.ID) (*sr.Return, error)
	Ship(ctx context.Context, returnID id.ID) (*sr.Return, error)
	MarkReceived(ctx context.Context, returnID id.ID) (*sr.Return, error)
	Complete(ctx context.Context, returnID id.ID) (*sr.Return, error)
	Cancel(ctx context.Context, returnID id.ID, reason *string) (*sr.Return, error)
	SetStatus(ctx context.Context, returnID id.ID, to sr.Status, reason *string) (*sr.Return, error)
	ItemAction(ctx context.Context, returnID, itemID id.ID, in sr.ItemActionInput) (*sr.Return, error)
	DeleteDraft(ctx context.Context, returnID id.ID) error
	GetByID(ctx context.Context, returnID id.ID) (*sr.Return, error)
	GetByNumber(ctx context.Context, number string) (*sr.Return, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*sr.Return], error)
	History(ctx context.Context, returnID id.ID) ([]sr.HistoryEntry, error)
}

// SupplierReturnHandler handles supplier return requests.
type SupplierReturnHandler struct {
	*BaseHandler
	service ReturnService
}

// NewSupplierReturnHandler creates a new supplier return handler.
func NewSupplierReturnHandler(base *BaseHandler, service ReturnService) *SupplierReturnHandler {
	return &SupplierReturnHandler{BaseHandler: base, service: service}
}

func (h *SupplierReturnHandler) bindInput(c *gin.Context) (sr.CreateInput, bool) {
	var req dto.ReturnRequest
	if !h.BindJSON(c, &req) {
		return sr.CreateInput{}, false
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return sr.CreateInput{}, false
	}
	return in, true
}

// Create handles POST /returns.
func (h *SupplierReturnHandler) Create(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}
	ret, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, ret)
}

// SaveDraft handles POST /returns/draft.
func (h *SupplierReturnHandler) SaveDraft(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}
	ret, err := h.service.SaveDraft(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, ret)
}

// UpdateDraft handles PUT /returns/:id.
func (h *SupplierReturnHandler) UpdateDraft(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	in, ok := h.bindInput(c)
	if !ok {
		return
	}
	ret, err := h.service.UpdateDraft(c.Request.Context(), returnID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ret)
}

// List handles GET /returns.
func (h *SupplierReturnHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

// Get handles GET /returns/:id.
func (h *SupplierReturnHandler) Get(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	ret, err := h.service.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ret)
}

// GetByNumber handles GET /returns/by-number/:number.
func (h *SupplierReturnHandler) GetByNumber(c *gin.Context) {
	ret, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ret)
}

// History handles GET /returns/:id/history.
func (h *SupplierReturnHandler) History(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	entries, err := h.service.History(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []sr.HistoryEntry{}
	}
	h.OK(c, entries)
}

type transitionFunc func(ctx context.Context, returnID id.ID) (*sr.Return, error)

func (h *SupplierReturnHandler) transition(fn transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		returnID, ok := h.PathID(c, "id")
		if !ok {
			return
		}
		ret, err := fn(c.Request.Context(), returnID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, ret)
	}
}

// Submit handles POST /returns/:id/submit.
func (h *SupplierReturnHandler) Submit(c *gin.Context) { h.transition(h.service.Submit)(c) }

// Approve handles POST /returns/:id/approve.
func (h *SupplierReturnHandler) Approve(c *gin.Context) { h.transition(h.service.Approve)(c) }

// Ship handles POST /returns/:id/ship.
func (h *SupplierReturnHandler) Ship(c *gin.Context) { h.transition(h.service.Ship)(c) }

// MarkReceived handles POST /returns/:id/receive.
func (h *SupplierReturnHandler) MarkReceived(c *gin.Context) { h.transition(h.service.MarkReceived)(c) }

// Complete handles POST /returns/:id/complete.
func (h *SupplierReturnHandler) Complete(c *gin.Context) { h.transition(h.service.Complete)(c) }

// Cancel handles POST /returns/:id/cancel with an optional reason.
func (h *SupplierReturnHandler) Cancel(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusReasonRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	ret, err := h.service.Cancel(c.Request.Context(), returnID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ret)
}

// SetStatus handles POST /returns/:id/status.
func (h *SupplierReturnHandler) SetStatus(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.SetReturnStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ret, err := h.service.SetStatus(c.Request.Context(), returnID, sr.Status(req.Status), req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ret)
}

// ItemAction handles POST /returns/:id/items/:itemId/action.
func (h *SupplierReturnHandler) ItemAction(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.PathID(c, "itemId")
	if !ok {
		return
	}
	var req dto.ItemActionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ret, err := h.service.ItemAction(c.Request.Context(), returnID, itemID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ret)
}

// Delete handles DELETE /returns/:id. Only drafts can be deleted.
func (h *SupplierReturnHandler) Delete(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteDraft(c.Request.Context(), returnID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
