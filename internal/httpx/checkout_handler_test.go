package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchkit/storefront/internal/auth"
	"github.com/merchkit/storefront/internal/checkout"
)

type fakePlacer struct {
	got checkout.PlaceOrderInput
	res checkout.PlaceOrderResult
	err error
}

func (f *fakePlacer) PlaceOrder(ctx context.Context, in checkout.PlaceOrderInput) (checkout.PlaceOrderResult, error) {
	f.got = in
	return f.res, f.err
}

func doPlaceOrder(t *testing.T, placer *fakePlacer, body string, identity *auth.Identity) *httptest.ResponseRecorder {
	t.Helper()
	h := &CheckoutHandler{Placer: placer, Service: "test"}

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	if identity != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *identity))
	}
	rec := httptest.NewRecorder()
	http.HandlerFunc(h.placeOrder).ServeHTTP(rec, req)
	return rec
}

func TestPlaceOrderHandler_Success(t *testing.T) {
	placer := &fakePlacer{res: checkout.PlaceOrderResult{
		OrderID:       "ord-1",
		TotalCents:    50000,
		PaymentStatus: checkout.PaymentPending,
	}}
	body := `{"items":[{"product_id":"p7","qty":2}],"address_id":"addr-1","payment_method":"cod"}`

	rec := doPlaceOrder(t, placer, body, &auth.Identity{UserID: "user-1", Role: "customer"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp PlaceOrderResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ord-1", resp.OrderID)
	assert.Equal(t, int64(50000), resp.TotalCents)
	assert.Equal(t, checkout.PaymentPending, resp.PaymentStatus)
	assert.False(t, resp.Idempotent)

	// identity comes from the auth context, never the body
	assert.Equal(t, "user-1", placer.got.UserID)
}

func TestPlaceOrderHandler_IdempotencyKeyHeader(t *testing.T) {
	placer := &fakePlacer{res: checkout.PlaceOrderResult{OrderID: "ord-1"}}
	h := &CheckoutHandler{Placer: placer, Service: "test"}

	req := httptest.NewRequest(http.MethodPost, "/api/orders",
		bytes.NewBufferString(`{"items":[{"product_id":"p7","qty":1}],"address_id":"a","payment_method":"upi"}`))
	req.Header.Set("Idempotency-Key", "retry-7")
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "u1"}))
	rec := httptest.NewRecorder()
	http.HandlerFunc(h.placeOrder).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "retry-7", placer.got.IdempotencyKey)
}

func TestPlaceOrderHandler_ErrorMapping(t *testing.T) {
	body := `{"items":[{"product_id":"p7","qty":1}],"address_id":"a","payment_method":"cod"}`
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"invalid order", checkout.ErrInvalidOrder, http.StatusBadRequest},
		{"no valid products", checkout.ErrNoValidProducts, http.StatusBadRequest},
		{"insufficient stock", &checkout.InsufficientStockError{ProductID: "p7", Requested: 3}, http.StatusBadRequest},
		{"duplicate payment", checkout.ErrDuplicatePayment, http.StatusConflict},
		{"storage fault", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doPlaceOrder(t, &fakePlacer{err: tt.err}, body, &auth.Identity{UserID: "u1"})
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestPlaceOrderHandler_InsufficientStockNamesProduct(t *testing.T) {
	placer := &fakePlacer{err: &checkout.InsufficientStockError{ProductID: "p7", Requested: 3}}
	body := `{"items":[{"product_id":"p7","qty":3}],"address_id":"a","payment_method":"cod"}`

	rec := doPlaceOrder(t, placer, body, &auth.Identity{UserID: "u1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "p7", resp["product_id"])
	assert.Contains(t, resp["error"], "insufficient stock")
}

func TestPlaceOrderHandler_InternalErrorIsOpaque(t *testing.T) {
	placer := &fakePlacer{err: context.DeadlineExceeded}
	body := `{"items":[{"product_id":"p7","qty":1}],"address_id":"a","payment_method":"cod"}`

	rec := doPlaceOrder(t, placer, body, &auth.Identity{UserID: "u1"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deadline")
}

func TestPlaceOrderHandler_NoIdentity(t *testing.T) {
	rec := doPlaceOrder(t, &fakePlacer{}, `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceOrderHandler_BadJSON(t *testing.T) {
	rec := doPlaceOrder(t, &fakePlacer{}, `{nope`, &auth.Identity{UserID: "u1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
