package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/activity"
	"stockflow/internal/domain/auth"
	po "stockflow/internal/domain/documents/purchase_order"
	"stockflow/internal/domain/documents/reception"
	sr "stockflow/internal/domain/documents/supplier_return"
	"stockflow/internal/domain/domaintest"
	"stockflow/internal/infrastructure/http/v1/middleware"
	"stockflow/pkg/logger"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type activityReader struct {
	kind string
}

func (r *activityReader) ListForEntity(_ context.Context, kind string, entityID id.ID, _ int) ([]activity.Entry, error) {
	r.kind = kind
	return []activity.Entry{{ID: id.New(), Action: activity.ActionOrderCreated, EntityKind: kind, EntityID: entityID}}, nil
}

type apiFixture struct {
	t        *testing.T
	router   *gin.Engine
	env      *domaintest.Env
	jwt      *auth.JWTService
	token    string
	supplier id.ID
	widget   id.ID
	activity *activityReader
	db       *pinger
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := domaintest.NewEnv(t)
	f := &apiFixture{
		t:        t,
		env:      env,
		jwt:      auth.NewJWTService(auth.DefaultJWTConfig("test-secret", "stockflow")),
		supplier: env.Catalog.AddSupplier("Acme"),
		widget:   env.AddProduct("Widget", "10.00", 20),
		activity: &activityReader{},
		db:       &pinger{},
	}

	f.router = NewRouter(RouterConfig{
		DB:           f.db,
		Logger:       logger.NewNop(),
		JWTValidator: f.jwt,
		Orders:       po.NewService(env.Orders, env.Catalog, env.Numerator, env.Tx, env.Recorder),
		Reception:    reception.NewService(env.Orders, env.Ledger, env.Numerator, env.Tx, env.Recorder),
		Returns:      sr.NewService(env.Returns, env.Catalog, env.Ledger, env.Numerator, env.Tx, env.Recorder, sr.DefaultReturnPolicy()),
		Ledger:       env.Ledger,
		Activity:     f.activity,
		Debug:        true,
	})
	f.token = f.tokenFor(appctx.UserContext{UserID: "user-1", IsAdmin: true})
	return f
}

func (f *apiFixture) tokenFor(user appctx.UserContext) string {
	token, _, err := f.jwt.GenerateAccessToken(user)
	require.NoError(f.t, err)
	return token
}

func (f *apiFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	return f.doAs(f.token, method, path, body)
}

func (f *apiFixture) doAs(token, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[middleware.ErrorBody](t, w).Error.Code
}

func (f *apiFixture) createOrder(quantity int64) po.Order {
	w := f.do(http.MethodPost, "/api/v1/orders", map[string]any{
		"supplierId": f.supplier.String(),
		"items": []map[string]any{
			{"productId": f.widget.String(), "quantity": quantity},
		},
	})
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[po.Order](f.t, w)
}

func (f *apiFixture) createReturn(quantity int64) sr.Return {
	w := f.do(http.MethodPost, "/api/v1/returns", map[string]any{
		"supplierId":   f.supplier.String(),
		"returnReason": "damaged",
		"items": []map[string]any{
			{"productId": f.widget.String(), "quantity": quantity},
		},
	})
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[sr.Return](f.t, w)
}

func TestHealth(t *testing.T) {
	f := newAPI(t)

	assert.Equal(t, http.StatusOK, f.doAs("", http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, f.doAs("", http.MethodGet, "/health/ready", nil).Code)

	f.db.err = errors.New("connection refused")
	assert.Equal(t, http.StatusServiceUnavailable, f.doAs("", http.MethodGet, "/health/ready", nil).Code)
}

func TestAuthAndPermissions(t *testing.T) {
	f := newAPI(t)

	w := f.doAs("", http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, errorCode(t, w))

	w = f.doAs("garbage", http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	reader := f.tokenFor(appctx.UserContext{UserID: "clerk", Permissions: []string{"orders:read"}})
	assert.Equal(t, http.StatusOK, f.doAs(reader, http.MethodGet, "/api/v1/orders", nil).Code)

	w = f.doAs(reader, http.MethodPost, "/api/v1/orders", map[string]any{"supplierId": f.supplier.String()})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.CodeForbidden, errorCode(t, w))

	w = f.doAs(reader, http.MethodPost, "/api/v1/returns/"+id.New().String()+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrders_CreateReadAndList(t *testing.T) {
	f := newAPI(t)
	order := f.createOrder(3)

	assert.Equal(t, po.StatusPending, order.Status)
	assert.Equal(t, int64(3), order.TotalItems)
	assert.Equal(t, "30", order.TotalAmount.String())
	require.Len(t, order.Items, 1)

	w := f.do(http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.OrderNumber, decode[po.Order](t, w).OrderNumber)

	w = f.do(http.MethodGet, "/api/v1/orders/by-number/"+order.OrderNumber, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.ID, decode[po.Order](t, w).ID)

	w = f.do(http.MethodGet, "/api/v1/orders?status=pending&supplierId="+f.supplier.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Items      []po.Order `json:"items"`
		TotalCount int64      `json:"totalCount"`
	}](t, w)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Len(t, page.Items, 1)
}

func TestOrders_ValidationErrors(t *testing.T) {
	f := newAPI(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"malformed supplier id", map[string]any{"supplierId": "nope"}, http.StatusBadRequest, apperror.CodeValidation},
		{"missing supplier", map[string]any{"items": []any{}}, http.StatusBadRequest, apperror.CodeValidation},
		{"no items", map[string]any{"supplierId": f.supplier.String()}, http.StatusBadRequest, apperror.CodeValidation},
		{"unknown supplier", map[string]any{
			"supplierId": id.New().String(),
			"items":      []map[string]any{{"productId": f.widget.String(), "quantity": 1}},
		}, http.StatusBadRequest, apperror.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/v1/orders", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	w := f.do(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrders_StatusAndReception(t *testing.T) {
	f := newAPI(t)
	order := f.createOrder(5)
	path := "/api/v1/orders/" + order.ID.String()

	w := f.do(http.MethodPost, path+"/status", map[string]any{"status": "sent"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, po.StatusSent, decode[po.Order](t, w).Status)

	w = f.do(http.MethodPost, path+"/status", map[string]any{"status": "received"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, errorCode(t, w))

	w = f.do(http.MethodPost, path+"/status", map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeInvalidTransition, errorCode(t, w))

	w = f.do(http.MethodPost, path+"/receive", map[string]any{
		"items": []map[string]any{{"itemId": order.Items[0].ID.String(), "receivedQuantity": 2}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(22), f.env.Stock.Quantity(f.widget))

	w = f.do(http.MethodPost, path+"/complete-reception", map[string]any{
		"items":                 []map[string]any{{"itemId": order.Items[0].ID.String(), "receivedQuantity": 5}},
		"supplierInvoiceNumber": "ACME-77",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[po.Order](t, w)
	assert.Equal(t, po.StatusReceived, done.Status)
	assert.NotNil(t, done.InvoiceNumber)
	require.NotNil(t, done.SupplierInvoiceNumber)
	assert.Equal(t, "ACME-77", *done.SupplierInvoiceNumber)
	assert.Equal(t, int64(25), f.env.Stock.Quantity(f.widget))

	w = f.do(http.MethodPost, path+"/complete-reception", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeAlreadyProcessed, errorCode(t, w))

	w = f.do(http.MethodGet, "/api/v1/stock/"+f.widget.String()+"/movements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 2)
}

func TestReturns_ApproveAndCancel(t *testing.T) {
	f := newAPI(t)
	ret := f.createReturn(4)
	path := "/api/v1/returns/" + ret.ID.String()
	assert.Equal(t, sr.StatusPending, ret.Status)

	w := f.do(http.MethodPost, path+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(16), f.env.Stock.Quantity(f.widget))

	w = f.do(http.MethodPost, path+"/cancel", map[string]any{"reason": "supplier refused"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, sr.StatusCancelled, decode[sr.Return](t, w).Status)
	assert.Equal(t, int64(20), f.env.Stock.Quantity(f.widget))

	w = f.do(http.MethodGet, path+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]sr.HistoryEntry](t, w)
	require.Len(t, history, 3)
	require.NotNil(t, history[2].Reason)
	assert.Equal(t, "supplier refused", *history[2].Reason)

	w = f.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeBusinessRule, errorCode(t, w))
}

func TestReturns_ItemAction(t *testing.T) {
	f := newAPI(t)
	ret := f.createReturn(4)
	path := "/api/v1/returns/" + ret.ID.String()

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, path+"/approve", nil).Code)

	action := path + "/items/" + ret.Items[0].ID.String() + "/action"
	w := f.do(http.MethodPost, action, map[string]any{"action": "accept_partial", "quantity": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, action, map[string]any{"action": "accept_partial", "quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	processed := decode[sr.Return](t, w)
	assert.Equal(t, sr.StatusProcessed, processed.Status)
	assert.Equal(t, int64(3), processed.Items[0].AcceptedQuantity)
	assert.Equal(t, int64(17), f.env.Stock.Quantity(f.widget))

	w = f.do(http.MethodPost, action, map[string]any{"action": "reject"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReturns_Drafts(t *testing.T) {
	f := newAPI(t)

	w := f.do(http.MethodPost, "/api/v1/returns/draft", map[string]any{
		"supplierId": f.supplier.String(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[sr.Return](t, w)
	assert.Equal(t, sr.StatusDraft, draft.Status)
	path := "/api/v1/returns/" + draft.ID.String()

	w = f.do(http.MethodPut, path, map[string]any{
		"supplierId":   f.supplier.String(),
		"returnReason": "wrong item",
		"items":        []map[string]any{{"productId": f.widget.String(), "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[sr.Return](t, w).Items, 1)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, path, nil).Code)
}

func TestActivityRoutes(t *testing.T) {
	f := newAPI(t)
	orderID := id.New()

	w := f.do(http.MethodGet, "/api/v1/orders/"+orderID.String()+"/activity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]activity.Entry](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, orderID, entries[0].EntityID)
	assert.Equal(t, po.EntityKind, f.activity.kind)

	f.do(http.MethodGet, "/api/v1/returns/"+orderID.String()+"/activity", nil)
	assert.Equal(t, sr.EntityKind, f.activity.kind)
}
