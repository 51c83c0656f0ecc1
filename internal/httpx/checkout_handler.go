package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/merchkit/storefront/internal/auth"
	"github.com/merchkit/storefront/internal/checkout"
	kafkax "github.com/merchkit/storefront/internal/kafka"
	"github.com/merchkit/storefront/internal/orders"
	"github.com/merchkit/storefront/internal/redisx"
)

// OrderPlacer is what the handler needs from the coordinator.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, in checkout.PlaceOrderInput) (checkout.PlaceOrderResult, error)
}

type CheckoutHandler struct {
	Placer   OrderPlacer
	Producer *kafkax.Producer
	Redis    *redis.Client
	Service  string
}

type PlaceOrderReq struct {
	Items          []checkout.ItemInput `json:"items"`
	AddressID      string               `json:"address_id"`
	PaymentMethod  string               `json:"payment_method"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
}

type PlaceOrderResp struct {
	OrderID       string `json:"order_id"`
	TotalCents    int64  `json:"total_cents"`
	PaymentStatus string `json:"payment_status"`
	Idempotent    bool   `json:"idempotent"`
	Message       string `json:"message"`
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.Post("/api/orders", h.placeOrder)
}

func (h *CheckoutHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req PlaceOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Placer.PlaceOrder(ctx, checkout.PlaceOrderInput{
		UserID:         id.UserID,
		Items:          req.Items,
		AddressID:      req.AddressID,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.writePlaceError(w, r, err)
		return
	}

	if !res.Idempotent {
		h.cacheResult(ctx, req.IdempotencyKey, res)
		h.publishPlaced(r, id, req, res)
	}

	writeJSON(w, http.StatusCreated, PlaceOrderResp{
		OrderID:       res.OrderID,
		TotalCents:    res.TotalCents,
		PaymentStatus: res.PaymentStatus,
		Idempotent:    res.Idempotent,
		Message:       "Order placed successfully",
	})
}

func (h *CheckoutHandler) writePlaceError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *checkout.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
		})
	case errors.Is(err, checkout.ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrDuplicatePayment):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("place order: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to place order")
	}
}

func (h *CheckoutHandler) cacheResult(ctx context.Context, idemKey string, res checkout.PlaceOrderResult) {
	if h.Redis == nil {
		return
	}
	if idemKey != "" {
		key := fmt.Sprintf(redisx.KeyIdemPlaceOrder, idemKey)
		_ = h.Redis.Set(ctx, key, res.OrderID, redisx.TTLIdempotency).Err()
	}
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, res.OrderID)
	_ = h.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, orders.StatusPlaced), redisx.TTLStatusCache).Err()
}

func (h *CheckoutHandler) publishPlaced(r *http.Request, id auth.Identity, req PlaceOrderReq, res checkout.PlaceOrderResult) {
	if h.Producer == nil {
		return
	}
	items := make([]orders.Item, 0, len(res.Lines))
	for _, l := range res.Lines {
		items = append(items, orders.Item{ProductID: l.ProductID, Qty: l.Qty, PriceCents: l.PriceCents})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: res.OrderID,
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:       res.OrderID,
			UserID:        id.UserID,
			AddressID:     req.AddressID,
			Items:         items,
			TotalCents:    res.TotalCents,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: res.PaymentStatus,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(res.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
