package supplier_return

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
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
	"stockflow/internal/domain/registers/stock"
	"stockflow/pkg/logger"
)

// EntityKind names supplier returns in activity entries and errors.
const EntityKind = "supplier_return"

// StockAdjuster is the stock ledger as seen by returns.
type StockAdjuster interface {
	Adjust(ctx context.Context, adj stock.Adjustment) (int64, error)
}

// CreateInput describes a return or a draft edit.
type CreateInput struct {
	SupplierID   id.ID
	ReturnReason string
	ReturnNotes  *string
	Items        []ItemInput
}

// ItemInput is one requested line. CostPrice overrides the catalog cost when set.
type ItemInput struct {
	ProductID    id.ID
	Quantity     int64
	CostPrice    *types.Money
	ReturnReason *string
}

// ItemActionInput records a disposition. Quantity is read for accept_partial only.
type ItemActionInput struct {
	Action   Action
	Quantity int64
}

// Service provides business operations for supplier returns.
type Service struct {
	repo      Repository
	catalog   catalog.Reader
	stock     StockAdjuster
	numerator numerator.Generator
	txManager tx.Manager
	activity  *activity.Recorder
	policy    atomic.Pointer[ReturnPolicyConfig]
	now       func() time.Time
}

// NewService creates a new supplier return service.
func NewService(
	repo Repository,
	catalogReader catalog.Reader,
	ledger StockAdjuster,
	numerator numerator.Generator,
	txManager tx.Manager,
	recorder *activity.Recorder,
	policy ReturnPolicyConfig,
) *Service {
	s := &Service{
		repo:      repo,
		catalog:   catalogReader,
		stock:     ledger,
		numerator: numerator,
		txManager: txManager,
		activity:  recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.policy.Store(&policy)
	return s
}

// SetPolicy replaces the return policy for subsequent operations.
func (s *Service) SetPolicy(policy ReturnPolicyConfig) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	s.policy.Store(&policy)
	return nil
}

func (s *Service) currentPolicy() ReturnPolicyConfig {
	return *s.policy.Load()
}

// Create stores a complete return in the policy's initial status.
// An approved return deducts its quantities from stock in the same transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Return, error) {
	return s.create(ctx, in, s.currentPolicy().InitialStatus())
}

// SaveDraft stores an incomplete return. Only supplier and reason are required.
func (s *Service) SaveDraft(ctx context.Context, in CreateInput) (*Return, error) {
	return s.create(ctx, in, StatusDraft)
}

func (s *Service) create(ctx context.Context, in CreateInput, status Status) (*Return, error) {
	ret, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	if status == StatusDraft {
		err = ret.ValidateDraft(ctx)
	} else {
		err = ret.Validate(ctx)
	}
	if err != nil {
		return nil, err
	}

	actor := appctx.GetUserID(ctx)
	ret.Status = status
	if status == StatusApproved {
		approvedAt := ret.CreatedAt
		ret.ApprovedBy = &actor
		ret.ApprovedAt = &approvedAt
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if status == StatusApproved {
			if err := s.deductStock(ctx, ret, false); err != nil {
				return err
			}
		}

		_, err := s.numerator.Claim(ctx, numerator.KindReturn, func(ctx context.Context, n numerator.Number) error {
			ret.AssignNumber(n)
			return s.txManager.RunNested(ctx, func(ctx context.Context) error {
				return s.repo.Create(ctx, ret)
			})
		})
		if err != nil {
			return fmt.Errorf("create return: %w", err)
		}

		if len(ret.Items) > 0 {
			if err := s.repo.SaveItems(ctx, ret.ID, ret.Items); err != nil {
				return fmt.Errorf("save items: %w", err)
			}
		}

		return s.repo.AppendHistory(ctx, &HistoryEntry{
			ID:        id.New(),
			ReturnID:  ret.ID,
			NewStatus: status,
			ChangedBy: actor,
			CreatedAt: ret.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.Entry{
		Action:     activity.ActionReturnCreated,
		EntityKind: EntityKind,
		EntityID:   ret.ID,
		Details: map[string]any{
			"return_number": ret.ReturnNumber,
			"status":        ret.Status,
			"total_items":   ret.TotalItems,
			"total_amount":  ret.TotalAmount.StringFixed(types.MoneyPlaces),
		},
	})

	logger.Info(ctx, "supplier return created",
		"id", ret.ID,
		"number", ret.ReturnNumber,
		"status", ret.Status,
		"stock_applied", ret.StockApplied)

	return ret, nil
}

// build resolves supplier and products and assembles an unsaved return.
func (s *Service) build(ctx context.Context, in CreateInput) (*Return, error) {
	if _, err := catalog.RequireSupplier(ctx, s.catalog, in.SupplierID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ReturnReason) == "" {
		return nil, apperror.NewValidation("return reason is required").
			WithDetail("field", "returnReason")
	}

	ret := NewReturn(in.SupplierID, appctx.GetUserID(ctx), in.ReturnReason, s.now())
	ret.ReturnNotes = in.ReturnNotes
	if err := s.fillItems(ctx, ret, in.Items); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) fillItems(ctx context.Context, ret *Return, items []ItemInput) error {
	if len(items) == 0 {
		return nil
	}
	productIDs := make([]id.ID, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}
	products, err := catalog.ResolveProducts(ctx, s.catalog, productIDs)
	if err != nil {
		return err
	}

	for _, item := range items {
		cost := types.Zero()
		switch {
		case item.CostPrice != nil:
			cost = *item.CostPrice
		case products[item.ProductID].CostPrice != nil:
			cost = *products[item.ProductID].CostPrice
		}
		ret.AddItem(item.ProductID, item.Quantity, cost, item.ReturnReason)
	}
	return nil
}

// UpdateDraft replaces the editable fields and lines of a draft.
func (s *Service) UpdateDraft(ctx context.Context, returnID id.ID, in CreateInput) (*Return, error) {
	draft, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := draft.ValidateDraft(ctx); err != nil {
		return nil, err
	}

	var ret *Return
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		ret, err = s.repo.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if ret.Status != StatusDraft {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "only draft returns can be edited").
				WithDetail("status", ret.Status)
		}

		ret.SupplierID = draft.SupplierID
		ret.ReturnReason = draft.ReturnReason
		ret.ReturnNotes = draft.ReturnNotes
		ret.ReplaceItems()
		for _, item := range draft.Items {
			ret.AddItem(item.ProductID, item.Quantity, item.CostPrice, item.ReturnReason)
		}
		ret.Touch(s.now())

		if err := s.repo.ReplaceItems(ctx, ret.ID, ret.Items); err != nil {
			return fmt.Errorf("replace items: %w", err)
		}
		return s.repo.Update(ctx, ret)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "supplier return draft updated", "id", ret.ID, "items", len(ret.Items))
	return ret, nil
}

// Submit moves a complete draft into the policy's initial status.
func (s *Service) Submit(ctx context.Context, returnID id.ID) (*Return, error) {
	to := s.currentPolicy().InitialStatus()
	return s.changeStatus(ctx, returnID, to, nil, func(ctx context.Context, ret *Return) error {
		if err := ret.Validate(ctx); err != nil {
			return err
		}
		if to == StatusApproved {
			return s.deductStock(ctx, ret, true)
		}
		return nil
	})
}

// Approve moves a return to approved and deducts its quantities from stock.
// The whole approval fails without side effects when stock is insufficient.
func (s *Service) Approve(ctx context.Context, returnID id.ID) (*Return, error) {
	return s.changeStatus(ctx, returnID, StatusApproved, nil, func(ctx context.Context, ret *Return) error {
		if err := ret.Validate(ctx); err != nil {
			return err
		}
		return s.deductStock(ctx, ret, true)
	})
}

// Ship marks an approved return as shipped to the supplier.
func (s *Service) Ship(ctx context.Context, returnID id.ID) (*Return, error) {
	return s.changeStatus(ctx, returnID, StatusShipped, nil, nil)
}

// MarkReceived records that the supplier received the goods.
func (s *Service) MarkReceived(ctx context.Context, returnID id.ID) (*Return, error) {
	return s.changeStatus(ctx, returnID, StatusReceived, nil, nil)
}

// Complete closes a received return.
func (s *Service) Complete(ctx context.Context, returnID id.ID) (*Return, error) {
	return s.changeStatus(ctx, returnID, StatusCompleted, nil, nil)
}

// Cancel cancels a return that has not shipped, restoring whatever stock it deducted.
func (s *Service) Cancel(ctx context.Context, returnID id.ID, reason *string) (*Return, error) {
	return s.changeStatus(ctx, returnID, StatusCancelled, reason, s.restoreStock)
}

// SetStatus dispatches a requested target status to the matching operation.
func (s *Service) SetStatus(ctx context.Context, returnID id.ID, to Status, reason *string) (*Return, error) {
	switch to {
	case StatusApproved:
		return s.Approve(ctx, returnID)
	case StatusShipped:
		return s.Ship(ctx, returnID)
	case StatusReceived:
		return s.MarkReceived(ctx, returnID)
	case StatusCompleted:
		return s.Complete(ctx, returnID)
	case StatusCancelled:
		return s.Cancel(ctx, returnID, reason)
	case StatusPending:
		if s.currentPolicy().InitialStatus() != StatusPending {
			return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "submitted returns start approved under the current policy").
				WithDetail("status", string(StatusPending))
		}
		return s.Submit(ctx, returnID)
	case StatusProcessed:
		return nil, apperror.NewValidation("returns are processed through item actions").
			WithDetail("field", "status")
	}
	return nil, apperror.NewValidation("unknown return status").
		WithDetail("field", "status").
		WithDetail("value", string(to))
}

// changeStatus locks the return, runs effect and records the transition,
// all in one transaction.
func (s *Service) changeStatus(
	ctx context.Context,
	returnID id.ID,
	to Status,
	reason *string,
	effect func(ctx context.Context, ret *Return) error,
) (*Return, error) {
	var ret *Return
	var from Status
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		ret, err = s.lockWithItems(ctx, returnID)
		if err != nil {
			return err
		}
		from = ret.Status
		if !from.CanTransitionTo(to) {
			return apperror.NewInvalidTransition(EntityKind, string(from), string(to))
		}
		if effect != nil {
			if err := effect(ctx, ret); err != nil {
				return err
			}
		}
		return s.transition(ctx, ret, to, reason)
	})
	if err != nil {
		return nil, err
	}

	s.recordStatusChange(ctx, ret, from, reason)
	return ret, nil
}

func (s *Service) lockWithItems(ctx context.Context, returnID id.ID) (*Return, error) {
	ret, err := s.repo.GetForUpdate(ctx, returnID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItems(ctx, returnID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	ret.Items = items
	return ret, nil
}

// transition stamps the new status, persists the header and appends history.
func (s *Service) transition(ctx context.Context, ret *Return, to Status, reason *string) error {
	from := ret.Status
	now := s.now()
	actor := appctx.GetUserID(ctx)

	ret.Status = to
	ret.Touch(now)
	switch to {
	case StatusApproved:
		ret.ApprovedBy = &actor
		ret.ApprovedAt = &now
	case StatusShipped:
		ret.ShippedAt = &now
	case StatusCompleted:
		ret.CompletedAt = &now
	}

	if err := s.repo.Update(ctx, ret); err != nil {
		return fmt.Errorf("update return: %w", err)
	}
	return s.repo.AppendHistory(ctx, &HistoryEntry{
		ID:        id.New(),
		ReturnID:  ret.ID,
		OldStatus: &from,
		NewStatus: to,
		ChangedBy: actor,
		Reason:    reason,
		CreatedAt: now,
	})
}

func (s *Service) recordStatusChange(ctx context.Context, ret *Return, from Status, reason *string) {
	details := map[string]any{"from": from, "to": ret.Status}
	if reason != nil {
		details["reason"] = *reason
	}
	s.activity.Record(ctx, activity.Entry{
		Action:     activity.ActionReturnStatusUpdate,
		EntityKind: EntityKind,
		EntityID:   ret.ID,
		Details:    details,
	})

	logger.Info(ctx, "supplier return status changed",
		"id", ret.ID,
		"from", from,
		"to", ret.Status,
		"stock_applied", ret.StockApplied)
}

// deductStock takes the not yet applied quantity of every undisposed line out
// of stock. Disposed lines keep what their item action settled on.
// With persist set, changed lines are written back.
func (s *Service) deductStock(ctx context.Context, ret *Return, persist bool) error {
	for i := range ret.Items {
		item := &ret.Items[i]
		if item.IsDisposed() {
			continue
		}
		pending := item.Quantity - item.StockAppliedQuantity
		if pending <= 0 {
			continue
		}
		_, err := s.stock.Adjust(ctx, stock.Adjustment{
			ProductID:     item.ProductID,
			Delta:         -pending,
			AllowNegative: s.currentPolicy().AllowNegativeStock,
			Reason:        stock.ReasonReturnApproval,
			DocumentKind:  stock.DocumentSupplierReturn,
			DocumentID:    ret.ID,
		})
		if err != nil {
			return err
		}
		item.StockAppliedQuantity = item.Quantity
		if persist {
			if err := s.repo.UpdateItem(ctx, item); err != nil {
				return fmt.Errorf("update item: %w", err)
			}
		}
	}
	ret.syncStockApplied()
	return nil
}

// restoreStock gives back exactly what the return deducted.
func (s *Service) restoreStock(ctx context.Context, ret *Return) error {
	for i := range ret.Items {
		item := &ret.Items[i]
		if item.StockAppliedQuantity <= 0 {
			continue
		}
		_, err := s.stock.Adjust(ctx, stock.Adjustment{
			ProductID:     item.ProductID,
			Delta:         item.StockAppliedQuantity,
			AllowNegative: true,
			Reason:        stock.ReasonReturnCancellation,
			DocumentKind:  stock.DocumentSupplierReturn,
			DocumentID:    ret.ID,
		})
		if err != nil {
			return err
		}
		item.StockAppliedQuantity = 0
		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
	}
	ret.syncStockApplied()
	return nil
}

// ItemAction records a disposition for one line. Accepting aligns the stock
// deducted for the line with the accepted quantity. When the last line is
// disposed the return becomes processed.
func (s *Service) ItemAction(ctx context.Context, returnID, itemID id.ID, in ItemActionInput) (*Return, error) {
	if !in.Action.IsValid() {
		return nil, apperror.NewValidation("unknown item action").
			WithDetail("field", "action").
			WithDetail("value", string(in.Action))
	}

	var ret *Return
	var from Status
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		ret, err = s.lockWithItems(ctx, returnID)
		if err != nil {
			return err
		}
		from = ret.Status
		if !ret.Status.AcceptsDispositions() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "items cannot be processed in this status").
				WithDetail("status", ret.Status)
		}

		item, ok := ret.Item(itemID)
		if !ok {
			return apperror.NewNotFound("return_item", itemID)
		}
		if item.IsDisposed() {
			return apperror.NewAlreadyProcessed("return_item", itemID)
		}

		accepted, err := acceptedQuantity(item, in)
		if err != nil {
			return err
		}
		if in.Action.Disposition() == DispositionAccepted {
			if err := s.reconcileAccepted(ctx, ret, item, accepted); err != nil {
				return err
			}
		}

		disposition := in.Action.Disposition()
		item.ActionTaken = &disposition
		item.AcceptedQuantity = accepted
		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		ret.syncStockApplied()

		if ret.AllItemsDisposed() {
			reason := "all items processed"
			return s.transition(ctx, ret, StatusProcessed, &reason)
		}
		ret.Touch(s.now())
		return s.repo.Update(ctx, ret)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "supplier return item processed",
		"id", returnID,
		"item_id", itemID,
		"action", in.Action)

	if ret.Status != from {
		s.recordStatusChange(ctx, ret, from, nil)
	}
	return ret, nil
}

func acceptedQuantity(item *Item, in ItemActionInput) (int64, error) {
	switch in.Action {
	case ActionAcceptAll:
		return item.Quantity, nil
	case ActionAcceptPartial:
		if in.Quantity < 1 || in.Quantity > item.Quantity {
			return 0, apperror.NewValidation("accepted quantity must be between 1 and the returned quantity").
				WithDetail("field", "quantity").
				WithDetail("max", item.Quantity)
		}
		return in.Quantity, nil
	}
	return 0, nil
}

// reconcileAccepted moves stock so that exactly accepted units stay deducted
// for the line.
func (s *Service) reconcileAccepted(ctx context.Context, ret *Return, item *Item, accepted int64) error {
	delta := item.StockAppliedQuantity - accepted
	if delta == 0 {
		return nil
	}
	_, err := s.stock.Adjust(ctx, stock.Adjustment{
		ProductID:     item.ProductID,
		Delta:         delta,
		AllowNegative: delta > 0 || s.currentPolicy().AllowNegativeStock,
		Reason:        stock.ReasonReturnItemAccept,
		DocumentKind:  stock.DocumentSupplierReturn,
		DocumentID:    ret.ID,
	})
	if err != nil {
		return err
	}
	item.StockAppliedQuantity = accepted
	return nil
}

// DeleteDraft removes a draft. Only its creator may delete it.
func (s *Service) DeleteDraft(ctx context.Context, returnID id.ID) error {
	var number string
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ret, err := s.repo.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if ret.Status != StatusDraft {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "only draft returns can be deleted").
				WithDetail("status", ret.Status)
		}
		if ret.CreatedBy != appctx.GetUserID(ctx) {
			return apperror.NewForbidden("only the creator can delete a draft return")
		}
		number = ret.ReturnNumber
		return s.repo.Delete(ctx, returnID)
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, activity.Entry{
		Action:     activity.ActionReturnDeleted,
		EntityKind: EntityKind,
		EntityID:   returnID,
		Details:    map[string]any{"return_number": number},
	})
	logger.Info(ctx, "supplier return draft deleted", "id", returnID, "number", number)
	return nil
}

// GetByID retrieves a return with items.
func (s *Service) GetByID(ctx context.Context, returnID id.ID) (*Return, error) {
	ret, err := s.repo.GetByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, ret)
}

// GetByNumber retrieves a return with items by its return number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Return, error) {
	ret, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, ret)
}

func (s *Service) withItems(ctx context.Context, ret *Return) (*Return, error) {
	items, err := s.repo.GetItems(ctx, ret.ID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	ret.Items = items
	return ret, nil
}

// List returns return headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Return], error) {
	for _, st := range filter.Statuses {
		if !Status(st).IsValid() {
			return domain.ListResult[*Return]{}, apperror.NewValidation("unknown return status").
				WithDetail("field", "status").
				WithDetail("value", st)
		}
	}
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// History returns the status history of a return, oldest first.
func (s *Service) History(ctx context.Context, returnID id.ID) ([]HistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, returnID); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, returnID)
}
