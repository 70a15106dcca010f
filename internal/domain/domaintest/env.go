package domaintest

import (
	"context"
	"testing"

	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
	"stockflow/internal/core/numerator"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/activity"
	"stockflow/internal/domain/catalog"
	"stockflow/internal/domain/registers/stock"
)

// TestUserID is the actor carried by Context.
const TestUserID = "user-1"

// Env wires the fakes the document services share.
type Env struct {
	Tx        *TxManager
	Stock     *StockRepo
	Ledger    *stock.Service
	Catalog   *Catalog
	Sink      *ActivitySink
	Recorder  *activity.Recorder
	Orders    *OrderRepo
	Returns   *ReturnRepo
	Numerator *numerator.MockGenerator
}

// NewEnv creates an Env with empty stores.
func NewEnv(t testing.TB) *Env {
	t.Helper()
	e := &Env{
		Stock:     NewStockRepo(),
		Catalog:   NewCatalog(),
		Sink:      &ActivitySink{},
		Orders:    NewOrderRepo(),
		Returns:   NewReturnRepo(),
		Numerator: numerator.NewMockGenerator(),
	}
	e.Tx = NewTxManager(e.Stock, e.Orders, e.Returns)
	e.Ledger = stock.NewService(e.Stock, e.Tx)
	e.Recorder = activity.NewRecorder(e.Sink)
	return e
}

// AddProduct registers a product with a cost price and an on-hand quantity.
// An empty cost leaves the product without a cost price.
func (e *Env) AddProduct(name, cost string, quantity int64) id.ID {
	p := catalog.Product{ID: id.New(), Name: name, Quantity: quantity}
	if cost != "" {
		c := types.MustMoney(cost)
		p.CostPrice = &c
	}
	e.Catalog.AddProduct(p)
	e.Stock.Put(p.ID, quantity)
	return p.ID
}

// Context returns a context carrying the test user.
func Context() context.Context {
	return ContextAs(TestUserID)
}

// ContextAs returns a context carrying userID.
func ContextAs(userID string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID})
}
