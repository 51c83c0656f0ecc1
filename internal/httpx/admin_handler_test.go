package httpx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchkit/storefront/internal/catalog"
)

type fakeRestocker struct {
	productID string
	qty       int
	err       error
}

func (f *fakeRestocker) Restock(ctx context.Context, productID string, qty int) error {
	f.productID = productID
	f.qty = qty
	return f.err
}

func doRestock(t *testing.T, inv *fakeRestocker, productID, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	(&AdminHandler{Inventory: inv}).Register(r)

	req := httptest.NewRequest(http.MethodPost,
		"/api/admin/inventory/"+productID+"/restock", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRestock_Success(t *testing.T) {
	inv := &fakeRestocker{}
	rec := doRestock(t, inv, "p7", `{"qty":25}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p7", inv.productID)
	assert.Equal(t, 25, inv.qty)
}

func TestRestock_RejectsNonPositiveQty(t *testing.T) {
	for _, body := range []string{`{"qty":0}`, `{"qty":-3}`, `{}`} {
		inv := &fakeRestocker{}
		rec := doRestock(t, inv, "p7", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Empty(t, inv.productID, body)
	}
}

func TestRestock_UnknownProduct(t *testing.T) {
	inv := &fakeRestocker{err: catalog.ErrNotFound}
	rec := doRestock(t, inv, "ghost", `{"qty":5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRestock_BadJSON(t *testing.T) {
	rec := doRestock(t, &fakeRestocker{}, "p7", `{"qty":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
