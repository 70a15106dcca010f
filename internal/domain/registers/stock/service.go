package stock

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/domain"
	"stockflow/pkg/logger"
)

// Service is the stock ledger. Reception, return approval, item acceptance
// and return cancellation all change Product.quantity through Adjust and
// nothing else writes that column.
type Service struct {
	repo      Repository
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new stock ledger.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Adjust applies adj and returns the new on-hand quantity.
//
// It joins the caller's transaction when there is one. The product row is
// locked for the read-modify-write, so concurrent adjustments of the same
// product serialize instead of losing an update. With AllowNegative unset a
// result below zero fails with INSUFFICIENT_STOCK and nothing is written.
func (s *Service) Adjust(ctx context.Context, adj Adjustment) (int64, error) {
	if err := adj.Validate(); err != nil {
		return 0, err
	}

	var after int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetQuantityForUpdate(ctx, adj.ProductID)
		if err != nil {
			return fmt.Errorf("lock product %s: %w", adj.ProductID, err)
		}

		after = current + adj.Delta
		if adj.Delta == 0 {
			return nil
		}
		if after < 0 && !adj.AllowNegative {
			return apperror.NewInsufficientStock(adj.ProductID.String(), current, -adj.Delta)
		}

		if err := s.repo.SetQuantity(ctx, adj.ProductID, after); err != nil {
			return fmt.Errorf("set quantity: %w", err)
		}

		return s.repo.CreateMovement(ctx, &Movement{
			ID:            id.New(),
			ProductID:     adj.ProductID,
			Delta:         adj.Delta,
			QuantityAfter: after,
			Reason:        adj.Reason,
			DocumentKind:  adj.DocumentKind,
			DocumentID:    adj.DocumentID,
			CreatedBy:     appctx.GetUserID(ctx),
			CreatedAt:     s.now(),
		})
	})
	if err != nil {
		return 0, err
	}

	logger.Debug(ctx, "stock adjusted",
		"product_id", adj.ProductID,
		"delta", adj.Delta,
		"quantity", after,
		"reason", adj.Reason,
	)

	return after, nil
}

// ListMovements returns the journal of a product.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if id.IsNil(filter.ProductID) {
		return nil, apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if filter.Limit <= 0 || filter.Limit > domain.MaxLimit {
		filter.Limit = domain.DefaultLimit
	}
	return s.repo.ListMovements(ctx, filter)
}
