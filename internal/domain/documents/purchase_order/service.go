package purchase_order

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
	"stockflow/internal/core/numerator"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
	"stockflow/internal/domain/activity"
	"stockflow/internal/domain/catalog"
	"stockflow/pkg/logger"
)

// EntityKind names purchase orders in activity entries and errors.
const EntityKind = "purchase_order"

// CreateInput describes a new order.
type CreateInput struct {
	SupplierID   id.ID
	OrderDate    time.Time
	ExpectedDate *time.Time
	Notes        *string
	Items        []ItemInput
}

// ItemInput is one requested line. CostPrice overrides the catalog cost when set.
type ItemInput struct {
	ProductID id.ID
	Quantity  int64
	CostPrice *types.Money
}

// Service provides business operations for purchase orders.
type Service struct {
	repo      Repository
	catalog   catalog.Reader
	numerator numerator.Generator
	txManager tx.Manager
	activity  *activity.Recorder
	now       func() time.Time
}

// NewService creates a new purchase order service.
func NewService(
	repo Repository,
	catalogReader catalog.Reader,
	numerator numerator.Generator,
	txManager tx.Manager,
	recorder *activity.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalogReader,
		numerator: numerator,
		txManager: txManager,
		activity:  recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder validates input, snapshots line costs and stores a pending
// order with its items in one transaction.
func (s *Service) CreateOrder(ctx context.Context, in CreateInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, apperror.NewValidation("order must contain at least one item").
			WithDetail("field", "items")
	}
	if _, err := catalog.RequireSupplier(ctx, s.catalog, in.SupplierID); err != nil {
		return nil, err
	}

	productIDs := make([]id.ID, len(in.Items))
	for i, item := range in.Items {
		productIDs[i] = item.ProductID
	}
	products, err := catalog.ResolveProducts(ctx, s.catalog, productIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = now
	}

	order := NewOrder(in.SupplierID, appctx.GetUserID(ctx), orderDate, now)
	order.ExpectedDate = in.ExpectedDate
	order.Notes = in.Notes

	for i, item := range in.Items {
		product := products[item.ProductID]
		cost, err := resolveCost(i, item, product)
		if err != nil {
			return nil, err
		}
		order.AddItem(item.ProductID, item.Quantity, cost)
	}

	if err := order.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := s.numerator.Claim(ctx, numerator.KindOrder, func(ctx context.Context, n numerator.Number) error {
			order.AssignNumber(n)
			return s.txManager.RunNested(ctx, func(ctx context.Context) error {
				return s.repo.Create(ctx, order)
			})
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if err := s.repo.SaveItems(ctx, order.ID, order.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.Entry{
		Action:     activity.ActionOrderCreated,
		EntityKind: EntityKind,
		EntityID:   order.ID,
		Details: map[string]any{
			"order_number": order.OrderNumber,
			"total_items":  order.TotalItems,
			"total_amount": order.TotalAmount.StringFixed(types.MoneyPlaces),
		},
	})

	logger.Info(ctx, "purchase order created",
		"id", order.ID,
		"number", order.OrderNumber,
		"items", len(order.Items),
		"total_amount", order.TotalAmount.StringFixed(types.MoneyPlaces))

	return order, nil
}

// resolveCost rejects non-procurable products, then picks the line cost.
// An explicit cost only replaces the catalog snapshot.
func resolveCost(index int, item ItemInput, product catalog.Product) (types.Money, error) {
	if !product.HasProcurableCost() {
		return types.Zero(), apperror.NewValidation("product has no positive cost price").
			WithDetail("field", "items").
			WithDetail("index", index).
			WithDetail("productId", product.ID.String())
	}
	if item.CostPrice == nil {
		return *product.CostPrice, nil
	}
	if !item.CostPrice.IsPositive() {
		return types.Zero(), apperror.NewValidation("cost price must be positive").
			WithDetail("field", "items").
			WithDetail("index", index)
	}
	return *item.CostPrice, nil
}

// GetByID retrieves an order with items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, order)
}

// GetByNumber retrieves an order with items by its order number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	order, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, order)
}

func (s *Service) withItems(ctx context.Context, order *Order) (*Order, error) {
	items, err := s.repo.GetItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	order.Items = items
	return order, nil
}

// List returns order headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Order], error) {
	for _, st := range filter.Statuses {
		if !Status(st).IsValid() {
			return domain.ListResult[*Order]{}, apperror.NewValidation("unknown order status").
				WithDetail("field", "status").
				WithDetail("value", st)
		}
	}
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// SetStatus moves an order along the state machine. Reception is the only
// way into received, so that target is rejected here.
func (s *Service) SetStatus(ctx context.Context, orderID id.ID, to Status) (*Order, error) {
	if !to.IsValid() {
		return nil, apperror.NewValidation("unknown order status").
			WithDetail("field", "status").
			WithDetail("value", string(to))
	}
	if to == StatusReceived {
		return nil, apperror.NewValidation("orders are received through reception").
			WithDetail("field", "status")
	}

	var from Status
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if !from.CanTransitionTo(to) {
			return apperror.NewInvalidTransition(EntityKind, string(from), string(to))
		}

		changed, err := s.repo.UpdateStatus(ctx, orderID, []Status{from}, to, s.now())
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !changed {
			return apperror.NewInvalidTransition(EntityKind, string(from), string(to))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.Entry{
		Action:     activity.ActionOrderStatusUpdate,
		EntityKind: EntityKind,
		EntityID:   orderID,
		Details:    map[string]any{"from": from, "to": to},
	})

	logger.Info(ctx, "purchase order status changed",
		"id", orderID,
		"from", from,
		"to", to)

	return s.GetByID(ctx, orderID)
}

// MarkSent moves a pending order to sent.
func (s *Service) MarkSent(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.SetStatus(ctx, orderID, StatusSent)
}

// MarkWaiting moves a sent order to waiting_for_delivery.
func (s *Service) MarkWaiting(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.SetStatus(ctx, orderID, StatusWaitingForDelivery)
}

// Cancel cancels an order that has not been received.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.SetStatus(ctx, orderID, StatusCancelled)
}
