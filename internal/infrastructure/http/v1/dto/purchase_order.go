package dto

import (
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	po "stockflow/internal/domain/documents/purchase_order"
	"stockflow/internal/domain/documents/reception"
)

// CreateOrderRequest represents a request to create a purchase order.
type CreateOrderRequest struct {
	SupplierID   string             `json:"supplierId" binding:"required"`
	OrderDate    *time.Time         `json:"orderDate,omitempty"`
	ExpectedDate *time.Time         `json:"expectedDate,omitempty"`
	Notes        *string            `json:"notes,omitempty"`
	Items        []OrderItemRequest `json:"items"`
}

// OrderItemRequest is one requested line. CostPrice overrides the catalog cost.
type OrderItemRequest struct {
	ProductID string       `json:"productId"`
	Quantity  int64        `json:"quantity"`
	CostPrice *types.Money `json:"costPrice,omitempty"`
}

// ToInput converts the request to service input.
func (r *CreateOrderRequest) ToInput() (po.CreateInput, error) {
	supplierID, err := id.ParseField("supplierId", r.SupplierID)
	if err != nil {
		return po.CreateInput{}, err
	}

	in := po.CreateInput{
		SupplierID:   supplierID,
		ExpectedDate: r.ExpectedDate,
		Notes:        r.Notes,
		Items:        make([]po.ItemInput, 0, len(r.Items)),
	}
	if r.OrderDate != nil {
		in.OrderDate = *r.OrderDate
	}

	for _, item := range r.Items {
		productID, err := id.ParseField("productId", item.ProductID)
		if err != nil {
			return po.CreateInput{}, err
		}
		in.Items = append(in.Items, po.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			CostPrice: item.CostPrice,
		})
	}
	return in, nil
}

// SetOrderStatusRequest changes the status of an order.
type SetOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ItemReceiptRequest is the cumulative received quantity of one line.
type ItemReceiptRequest struct {
	ItemID           string `json:"itemId" binding:"required"`
	ReceivedQuantity int64  `json:"receivedQuantity"`
}

// ReceiveItemsRequest records a progressive receipt.
type ReceiveItemsRequest struct {
	Items []ItemReceiptRequest `json:"items"`
}

// CompleteReceptionRequest closes reception of an order.
type CompleteReceptionRequest struct {
	Items                 []ItemReceiptRequest `json:"items,omitempty"`
	SupplierInvoiceNumber *string              `json:"supplierInvoiceNumber,omitempty"`
	Notes                 *string              `json:"notes,omitempty"`
}

func toReceipts(items []ItemReceiptRequest) ([]reception.ItemReceipt, error) {
	out := make([]reception.ItemReceipt, 0, len(items))
	for _, item := range items {
		itemID, err := id.ParseField("itemId", item.ItemID)
		if err != nil {
			return nil, err
		}
		out = append(out, reception.ItemReceipt{ItemID: itemID, ReceivedQuantity: item.ReceivedQuantity})
	}
	return out, nil
}

// ToReceipts converts the request to service input.
func (r *ReceiveItemsRequest) ToReceipts() ([]reception.ItemReceipt, error) {
	return toReceipts(r.Items)
}

// ToInput converts the request to service input.
func (r *CompleteReceptionRequest) ToInput() (reception.CompleteInput, error) {
	items, err := toReceipts(r.Items)
	if err != nil {
		return reception.CompleteInput{}, err
	}
	return reception.CompleteInput{
		Items:                 items,
		SupplierInvoiceNumber: r.SupplierInvoiceNumber,
		Notes:                 r.Notes,
	}, nil
}
