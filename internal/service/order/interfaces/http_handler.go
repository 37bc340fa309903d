package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/logger"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/redis"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/application"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain/port"

	inventorydomain "github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/domain"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const callbackDedupTTL = 24 * time.Hour

// OrderHandler exposes cart, checkout, order and payment-callback endpoints.
type OrderHandler struct {
	lifecycle *application.OrderLifecycle
	cart      port.CartService
	dedup     *redis.Client
}

func NewOrderHandler(lifecycle *application.OrderLifecycle, cart port.CartService, dedup *redis.Client) *OrderHandler {
	return &OrderHandler{lifecycle: lifecycle, cart: cart, dedup: dedup}
}

// RegisterRoutes installs all routes on the ServeMux.
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /cart", h.getCart)
	mux.HandleFunc("POST /cart/items", h.addCartItem)
	mux.HandleFunc("DELETE /cart/items/{productID}", h.removeCartItem)
	mux.HandleFunc("DELETE /cart", h.clearCart)

	mux.HandleFunc("POST /checkout", h.checkout)
	mux.HandleFunc("GET /orders/{id}", h.getOrder)
	mux.HandleFunc("POST /orders/{id}/status", h.updateStatus)
	mux.HandleFunc("POST /orders/{id}/cancel", h.cancel)

	mux.HandleFunc("POST /payments/callback", h.paymentCallback)
}

func (h *OrderHandler) getCart(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	items, err := h.cart.GetLineItems(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *OrderHandler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string  `json:"user_id"`
		ProductID string  `json:"product_id"`
		VariantID string  `json:"variant_id"`
		Quantity  int     `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.ProductID == "" || req.Quantity <= 0 {
		http.Error(w, "user_id, product_id and positive quantity are required", http.StatusBadRequest)
		return
	}
	err := h.cart.AddItem(r.Context(), req.UserID, domain.LineItem{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	err := h.cart.RemoveItem(r.Context(), userID, r.PathValue("productID"), r.URL.Query().Get("variant_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if err := h.cart.Clear(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	order, err := h.lifecycle.Checkout(ctx, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, application.CheckoutResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
	})
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.lifecycle.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status  string `json:"status"`
		ActorID string `json:"actor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	order, err := h.lifecycle.UpdateStatus(r.Context(), r.PathValue("id"), domain.Status(req.Status), req.ActorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason  string `json:"reason"`
		ActorID string `json:"actor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	order, err := h.lifecycle.Cancel(r.Context(), r.PathValue("id"), req.Reason, req.ActorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// paymentCallback is the single entry point the payment gateway reaches.
// Gateways retry aggressively, so the transaction id is deduplicated before
// any state is touched.
func (h *OrderHandler) paymentCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID       string `json:"order_id"`
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OrderID == "" || req.TransactionID == "" {
		http.Error(w, "order_id and transaction_id are required", http.StatusBadRequest)
		return
	}

	first, err := h.dedup.Dedup(r.Context(), "payments:callback:"+req.TransactionID, callbackDedupTTL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !first {
		w.WriteHeader(http.StatusOK) // replay; already applied
		return
	}

	order, err := h.lifecycle.RecordPayment(r.Context(), req.OrderID, domain.PaymentStatus(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus.String(),
	})
}

// writeError maps domain errors onto HTTP statuses; stock and transition
// conflicts are client-visible 4xx, everything unexpected is a 500.
func (h *OrderHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var insufficient *inventorydomain.InsufficientStockError
	var invalidTransition *domain.InvalidTransitionError

	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "insufficient_stock",
			"product_id": insufficient.ProductID,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
	case errors.As(err, &invalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrConcurrentModification):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
