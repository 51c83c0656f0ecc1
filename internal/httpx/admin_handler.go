package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/merchkit/storefront/internal/catalog"
)

// Restocker is the inventory write the admin surface needs.
type Restocker interface {
	Restock(ctx context.Context, productID string, qty int) error
}

type AdminHandler struct {
	Inventory Restocker
}

type RestockReq struct {
	Qty int `json:"qty"`
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Post("/api/admin/inventory/{productID}/restock", h.restock)
}

func (h *AdminHandler) restock(w http.ResponseWriter, r *http.Request) {
	var req RestockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Qty <= 0 {
		writeError(w, http.StatusBadRequest, "qty must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err := h.Inventory.Restock(ctx, chi.URLParam(r, "productID"), req.Qty)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to restock")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Stock updated successfully"})
}
