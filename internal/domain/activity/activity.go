// Package activity records user-visible activity entries. Recording is
// fire-and-forget: a failing sink never fails the operation it describes.
package activity

import (
	"context"
	"time"

	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
	"stockflow/pkg/logger"
)

// Action names an activity entry.
type Action string

const (
	ActionOrderCreated       Action = "order_created"
	ActionOrderStatusUpdate  Action = "order_status_update"
	ActionOrderReceived      Action = "order_received"
	ActionReturnCreated      Action = "return_created"
	ActionReturnStatusUpdate Action = "return_status_update"
	ActionReturnDeleted      Action = "return_deleted"
)

// Entry is one activity log row.
type Entry struct {
	ID         id.ID          `json:"id"`
	Action     Action         `json:"action"`
	EntityKind string         `json:"entityKind"`
	EntityID   id.ID          `json:"entityId"`
	UserID     string         `json:"userId"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Sink persists entries.
type Sink interface {
	Insert(ctx context.Context, e *Entry) error
}

// Recorder writes entries to a sink and swallows its failures.
// A nil *Recorder discards everything.
type Recorder struct {
	sink Sink
}

// NewRecorder creates a Recorder.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Record stores e, filling ID, actor and timestamp when missing.
// Call it after the describing transaction committed.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.sink == nil {
		return
	}
	if id.IsNil(e.ID) {
		e.ID = id.New()
	}
	if e.UserID == "" {
		e.UserID = appctx.GetUserID(ctx)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	if err := r.sink.Insert(ctx, &e); err != nil {
		logger.Warn(ctx, "activity entry dropped",
			"action", e.Action,
			"entity_id", e.EntityID,
			"error", err,
		)
	}
}
