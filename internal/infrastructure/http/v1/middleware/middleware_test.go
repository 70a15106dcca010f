package middleware

import (
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
)

type staticValidator struct {
	user *appctx.UserContext
	err  error
}

func (v staticValidator) ValidateToken(string) (*appctx.UserContext, error) {
	return v.user, v.err
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler())
	r.GET("/", handlers...)
	return r
}

func serve(r *gin.Engine, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func body(t *testing.T, w *httptest.ResponseRecorder) ErrorPayload {
	t.Helper()
	var b ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b), w.Body.String())
	return b.Error
}

func TestErrorHandler(t *testing.T) {
	t.Run("app error keeps code and details", func(t *testing.T) {
		r := newEngine(func(c *gin.Context) {
			_ = c.Error(apperror.NewInsufficientStock("p-1", 2, 5))
		})
		w := serve(r, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		payload := body(t, w)
		assert.Equal(t, apperror.CodeInsufficientStock, payload.Code)
		assert.NotEmpty(t, payload.Details)
	})

	t.Run("plain error is hidden", func(t *testing.T) {
		r := newEngine(func(c *gin.Context) {
			_ = c.Error(errors.New("pq: connection reset"))
		})
		w := serve(r, http.Header{HeaderRequestID: {"req-42"}})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		payload := body(t, w)
		assert.Equal(t, apperror.CodeInternal, payload.Code)
		assert.NotContains(t, payload.Message, "connection reset")
		assert.Equal(t, "req-42", payload.Details["request_id"])
	})

	t.Run("written response is left alone", func(t *testing.T) {
		r := newEngine(func(c *gin.Context) {
			c.Status(http.StatusAccepted)
			c.Writer.WriteHeaderNow()
			_ = c.Error(errors.New("late"))
		})
		assert.Equal(t, http.StatusAccepted, serve(r, nil).Code)
	})
}

func TestRecovery(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		panic("boom")
	})
	w := serve(r, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body(t, w).Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestTrace_EchoesHeaders(t *testing.T) {
	var seen string
	r := newEngine(func(c *gin.Context) {
		seen = appctx.GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := serve(r, http.Header{HeaderTraceID: {"trace-1"}})
	assert.Equal(t, "trace-1", seen)
	assert.Equal(t, "trace-1", w.Header().Get(HeaderTraceID))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestAuth(t *testing.T) {
	user := &appctx.UserContext{UserID: "u-1", Permissions: []string{"orders:read"}}

	tests := []struct {
		name      string
		header    string
		validator staticValidator
		status    int
	}{
		{"missing header", "", staticValidator{user: user}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", staticValidator{user: user}, http.StatusUnauthorized},
		{"rejected token", "Bearer bad", staticValidator{err: errors.New("expired")}, http.StatusUnauthorized},
		{"allowed", "Bearer good", staticValidator{user: user}, http.StatusOK},
		{"lacks permission", "bearer good", staticValidator{user: &appctx.UserContext{UserID: "u-2"}}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(Auth(tt.validator), RequirePermission("orders:read"), func(c *gin.Context) {
				assert.Equal(t, tt.validator.user.UserID, appctx.GetUserID(c.Request.Context()))
				c.Status(http.StatusOK)
			})
			header := http.Header{}
			if tt.header != "" {
				header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.status, serve(r, header).Code)
		})
	}
}

func TestRequirePermission_WithoutUser(t *testing.T) {
	r := newEngine(RequirePermission("orders:read"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := serve(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, body(t, w).Code)
}
