package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/application"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/domain"
)

// StockHandler exposes the admin-facing stock endpoints: seeding records,
// receiving inventory and availability queries.
type StockHandler struct {
	ledger *application.StockLedger
}

func NewStockHandler(ledger *application.StockLedger) *StockHandler {
	return &StockHandler{ledger: ledger}
}

func (h *StockHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /stock", h.createRecord)
	mux.HandleFunc("POST /stock/{id}/receive", h.receive)
	mux.HandleFunc("GET /stock/availability", h.availability)
}

func (h *StockHandler) createRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID         string `json:"product_id"`
		VariantID         string `json:"variant_id"`
		Location          string `json:"location"`
		OnHand            int    `json:"on_hand"`
		LowStockThreshold int    `json:"low_stock_threshold"`
		ReorderLevel      int    `json:"reorder_level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProductID == "" || req.Location == "" || req.OnHand < 0 {
		http.Error(w, "product_id, location and non-negative on_hand are required", http.StatusBadRequest)
		return
	}

	record := &domain.StockRecord{
		ProductID:         req.ProductID,
		VariantID:         req.VariantID,
		Location:          req.Location,
		OnHand:            req.OnHand,
		LowStockThreshold: req.LowStockThreshold,
		ReorderLevel:      req.ReorderLevel,
	}
	if err := h.ledger.CreateRecord(r.Context(), record); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *StockHandler) receive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delta == 0 {
		http.Error(w, "non-zero delta is required", http.StatusBadRequest)
		return
	}

	record, err := h.ledger.AdjustOnHand(r.Context(), id, req.Delta)
	if err != nil {
		status := http.StatusInternalServerError
		var insufficient *domain.InsufficientStockError
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			status = http.StatusNotFound
		case errors.As(err, &insufficient):
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *StockHandler) availability(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return
	}
	available, err := h.ledger.GetAvailable(r.Context(), productID, r.URL.Query().Get("variant_id"), r.URL.Query().Get("location"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"available": available})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
