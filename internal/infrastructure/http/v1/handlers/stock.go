package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockflow/internal/domain/registers/stock"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// StockReader reads the stock journal.
type StockReader interface {
	ListMovements(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error)
}

// StockHandler handles stock ledger requests.
type StockHandler struct {
	*BaseHandler
	ledger StockReader
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, ledger StockReader) *StockHandler {
	return &StockHandler{BaseHandler: base, ledger: ledger}
}

// Movements handles GET /stock/:productId/movements.
func (h *StockHandler) Movements(c *gin.Context) {
	productID, ok := h.PathID(c, "productId")
	if !ok {
		return
	}
	var q dto.PageQuery
	if !h.BindQuery(c, &q) {
		return
	}

	movements, err := h.ledger.ListMovements(c.Request.Context(), stock.MovementFilter{
		ProductID: productID,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	if movements == nil {
		movements = []stock.Movement{}
	}
	h.OK(c, movements)
}
