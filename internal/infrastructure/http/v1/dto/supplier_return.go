package dto

import (
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	sr "stockflow/internal/domain/documents/supplier_return"
)

// ReturnRequest creates a return or replaces a draft.
type ReturnRequest struct {
	SupplierID   string              `json:"supplierId" binding:"required"`
	ReturnReason string              `json:"returnReason"`
	ReturnNotes  *string             `json:"returnNotes,omitempty"`
	Items        []ReturnItemRequest `json:"items"`
}

// ReturnItemRequest is one returned line. CostPrice overrides the catalog cost.
type ReturnItemRequest struct {
	ProductID    string       `json:"productId"`
	Quantity     int64        `json:"quantity"`
	CostPrice    *types.Money `json:"costPrice,omitempty"`
	ReturnReason *string      `json:"returnReason,omitempty"`
}

// ToInput converts the request to service input.
func (r *ReturnRequest) ToInput() (sr.CreateInput, error) {
	supplierID, err := id.ParseField("supplierId", r.SupplierID)
	if err != nil {
		return sr.CreateInput{}, err
	}

	in := sr.CreateInput{
		SupplierID:   supplierID,
		ReturnReason: r.ReturnReason,
		ReturnNotes:  r.ReturnNotes,
		Items:        make([]sr.ItemInput, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		productID, err := id.ParseField("productId", item.ProductID)
		if err != nil {
			return sr.CreateInput{}, err
		}
		in.Items = append(in.Items, sr.ItemInput{
			ProductID:    productID,
			Quantity:     item.Quantity,
			CostPrice:    item.CostPrice,
			ReturnReason: item.ReturnReason,
		})
	}
	return in, nil
}

// StatusReasonRequest optionally explains a status change.
type StatusReasonRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// ItemActionRequest records the supplier's disposition of one line.
type ItemActionRequest struct {
	Action   string `json:"action" binding:"required"`
	Quantity int64  `json:"quantity"`
}

// ToInput converts the request to service input.
func (r *ItemActionRequest) ToInput() sr.ItemActionInput {
	return sr.ItemActionInput{Action: sr.Action(r.Action), Quantity: r.Quantity}
}

// SetReturnStatusRequest moves a return to an explicit status.
type SetReturnStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Reason *string `json:"reason,omitempty"`
}
