package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain"
	sr "stockflow/internal/domain/documents/supplier_return"
)

func TestListQuery_ToFilter(t *testing.T) {
	supplierID := id.New()
	q := ListQuery{Search: "PO-", Status: []string{"sent"}, SupplierID: supplierID.String(), Limit: 10}

	filter, err := q.ToFilter()
	require.NoError(t, err)
	require.NotNil(t, filter.SupplierID)
	assert.Equal(t, supplierID, *filter.SupplierID)
	assert.Equal(t, []string{"sent"}, filter.Statuses)
	assert.Equal(t, 10, filter.Limit)

	q.SupplierID = "acme"
	_, err = q.ToFilter()
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestFromListResult_NeverNullItems(t *testing.T) {
	resp := FromListResult(domain.ListResult[int]{TotalCount: 0, Limit: 50})
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestCreateOrderRequest_ToInput(t *testing.T) {
	productID := id.New()
	req := CreateOrderRequest{
		SupplierID: id.New().String(),
		Items:      []OrderItemRequest{{ProductID: productID.String(), Quantity: 2}},
	}

	in, err := req.ToInput()
	require.NoError(t, err)
	assert.True(t, in.OrderDate.IsZero())
	require.Len(t, in.Items, 1)
	assert.Equal(t, productID, in.Items[0].ProductID)

	req.Items[0].ProductID = "x"
	_, err = req.ToInput()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "productId", appErr.Details["field"])
}

func TestReceiptRequests(t *testing.T) {
	itemID := id.New()
	receive := ReceiveItemsRequest{Items: []ItemReceiptRequest{{ItemID: itemID.String(), ReceivedQuantity: 4}}}

	receipts, err := receive.ToReceipts()
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, int64(4), receipts[0].ReceivedQuantity)

	complete := CompleteReceptionRequest{Items: []ItemReceiptRequest{{ItemID: "nope"}}}
	_, err = complete.ToInput()
	assert.Error(t, err)
}

func TestReturnRequests(t *testing.T) {
	req := ReturnRequest{
		SupplierID:   id.New().String(),
		ReturnReason: "damaged",
		Items:        []ReturnItemRequest{{ProductID: id.New().String(), Quantity: 1}},
	}
	in, err := req.ToInput()
	require.NoError(t, err)
	assert.Equal(t, "damaged", in.ReturnReason)

	action := ItemActionRequest{Action: "accept_partial", Quantity: 2}
	assert.Equal(t, sr.ItemActionInput{Action: sr.ActionAcceptPartial, Quantity: 2}, action.ToInput())
}
