// Package reception receives goods against purchase orders and credits stock.
package reception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
	"stockflow/internal/core/numerator"
	"stockflow/internal/core/tx"
	"stockflow/internal/domain/activity"
	po "stockflow/internal/domain/documents/purchase_order"
	"stockflow/internal/domain/registers/stock"
	"stockflow/pkg/logger"
)

// StockAdjuster is the stock ledger as seen by reception.
type StockAdjuster interface {
	Adjust(ctx context.Context, adj stock.Adjustment) (int64, error)
}

// ItemReceipt is the cumulative received quantity reported for one line.
type ItemReceipt struct {
	ItemID           id.ID
	ReceivedQuantity int64
}

// CompleteInput closes reception of an order. Items may be empty when the
// lines were already received progressively.
type CompleteInput struct {
	Items                 []ItemReceipt
	SupplierInvoiceNumber *string
	Notes                 *string
}

// Service processes receipts of purchase orders.
type Service struct {
	orders    po.Repository
	stock     StockAdjuster
	numerator numerator.Generator
	txManager tx.Manager
	activity  *activity.Recorder
	now       func() time.Time
}

// NewService creates a new reception service.
func NewService(
	orders po.Repository,
	ledger StockAdjuster,
	numerator numerator.Generator,
	txManager tx.Manager,
	recorder *activity.Recorder,
) *Service {
	return &Service{
		orders:    orders,
		stock:     ledger,
		numerator: numerator,
		txManager: txManager,
		activity:  recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ReceiveItems records received quantities while the order stays open.
// It can be called repeatedly; stock is credited by the increase only.
func (s *Service) ReceiveItems(ctx context.Context, orderID id.ID, items []ItemReceipt) (*po.Order, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidation("at least one item is required").WithDetail("field", "items")
	}

	var order *po.Order
	var credited int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := ensureReceivable(order); err != nil {
			return err
		}

		if order.Items, err = s.orders.GetItems(ctx, orderID); err != nil {
			return fmt.Errorf("get items: %w", err)
		}

		credited, err = s.applyReceipts(ctx, order, items)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order items received",
		"id", orderID,
		"number", order.OrderNumber,
		"credited", credited)

	return order, nil
}

// CompleteReception finishes reception: the order moves to received, an
// invoice number is assigned and any final quantities are credited.
//
// The status change is the first statement and is conditional on the order
// still being receivable, so of two concurrent completions exactly one
// proceeds; the other observes received and fails with ALREADY_PROCESSED
// before touching stock.
func (s *Service) CompleteReception(ctx context.Context, orderID id.ID, in CompleteInput) (*po.Order, error) {
	stamp := po.ReceptionStamp{
		ReceivedBy:            appctx.GetUserID(ctx),
		ReceivedDate:          s.now(),
		SupplierInvoiceNumber: trimmed(in.SupplierInvoiceNumber),
		InvoiceNotes:          trimmed(in.Notes),
	}

	var order *po.Order
	var credited int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		claimed, err := s.orders.MarkReceived(ctx, orderID, stamp)
		if err != nil {
			return fmt.Errorf("mark received: %w", err)
		}
		if !claimed {
			current, err := s.orders.GetByID(ctx, orderID)
			if err != nil {
				return err
			}
			return ensureReceivable(current)
		}

		if order, err = s.orders.GetByID(ctx, orderID); err != nil {
			return err
		}
		if order.Items, err = s.orders.GetItems(ctx, orderID); err != nil {
			return fmt.Errorf("get items: %w", err)
		}

		if credited, err = s.applyReceipts(ctx, order, in.Items); err != nil {
			return err
		}

		invoice, err := s.numerator.Claim(ctx, numerator.KindInvoice, func(ctx context.Context, n numerator.Number) error {
			return s.txManager.RunNested(ctx, func(ctx context.Context) error {
				return s.orders.SetInvoiceNumber(ctx, orderID, n)
			})
		})
		if err != nil {
			return fmt.Errorf("assign invoice number: %w", err)
		}
		order.InvoiceNumber = &invoice.Value
		order.InvoiceScope = &invoice.Scope
		order.InvoiceSeq = invoice.Seq
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.Entry{
		Action:     activity.ActionOrderReceived,
		EntityKind: po.EntityKind,
		EntityID:   orderID,
		Details: map[string]any{
			"order_number":   order.OrderNumber,
			"invoice_number": *order.InvoiceNumber,
			"fully_received": order.IsFullyReceived(),
		},
	})

	logger.Info(ctx, "purchase order received",
		"id", orderID,
		"number", order.OrderNumber,
		"invoice", *order.InvoiceNumber,
		"credited", credited)

	return order, nil
}

// ensureReceivable maps the state of an order that cannot be received to an error.
func ensureReceivable(order *po.Order) error {
	switch {
	case order.Status.IsReceivable():
		return nil
	case order.Status == po.StatusReceived:
		return apperror.NewAlreadyProcessed(po.EntityKind, order.ID.String())
	default:
		return apperror.NewInvalidTransition(po.EntityKind, string(order.Status), string(po.StatusReceived))
	}
}

// applyReceipts sets received quantities on the order lines and credits the
// stock ledger with each increase. Quantities are clamped to
// [already received, ordered]: received goods are never un-received here.
func (s *Service) applyReceipts(ctx context.Context, order *po.Order, receipts []ItemReceipt) (int64, error) {
	var credited int64
	for i, r := range receipts {
		item, ok := order.Item(r.ItemID)
		if !ok {
			return 0, apperror.NewValidation("item does not belong to the order").
				WithDetail("field", "items").
				WithDetail("index", i).
				WithDetail("itemId", r.ItemID.String())
		}

		target := clamp(r.ReceivedQuantity, item.ReceivedQuantity, item.Quantity)
		delta := target - item.ReceivedQuantity
		if delta == 0 {
			continue
		}

		if err := s.orders.UpdateReceivedQuantity(ctx, item.ID, target); err != nil {
			return 0, fmt.Errorf("update received quantity: %w", err)
		}
		_, err := s.stock.Adjust(ctx, stock.Adjustment{
			ProductID:     item.ProductID,
			Delta:         delta,
			AllowNegative: true,
			Reason:        stock.ReasonOrderReception,
			DocumentKind:  stock.DocumentPurchaseOrder,
			DocumentID:    order.ID,
		})
		if err != nil {
			return 0, err
		}

		item.ReceivedQuantity = target
		credited += delta
	}
	return credited, nil
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
