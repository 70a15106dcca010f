package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockflow/internal/core/id"
	"stockflow/internal/domain"
	"stockflow/internal/domain/activity"
	"stockflow/internal/infrastructure/http/v1/dto"
)

const defaultActivityLimit = 50

// ActivityReader reads the activity log of one entity.
type ActivityReader interface {
	ListForEntity(ctx context.Context, entityKind string, entityID id.ID, limit int) ([]activity.Entry, error)
}

// ActivityHandler serves activity entries of a fixed entity kind.
type ActivityHandler struct {
	*BaseHandler
	reader     ActivityReader
	entityKind string
}

// NewActivityHandler creates a handler for entries of entityKind.
func NewActivityHandler(base *BaseHandler, reader ActivityReader, entityKind string) *ActivityHandler {
	return &ActivityHandler{BaseHandler: base, reader: reader, entityKind: entityKind}
}

// List handles GET /<entity>/:id/activity.
func (h *ActivityHandler) List(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if !h.BindQuery(c, &q) {
		return
	}
	limit := q.Limit
	if limit == 0 || limit > domain.MaxLimit {
		limit = defaultActivityLimit
	}

	entries, err := h.reader.ListForEntity(c.Request.Context(), h.entityKind, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	h.OK(c, entries)
}
