package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/nandusaji2001/ServConnect-sub001/internal/api/v1/dto"
	"github.com/nandusaji2001/ServConnect-sub001/internal/middleware"
	"github.com/nandusaji2001/ServConnect-sub001/internal/model"
	"github.com/nandusaji2001/ServConnect-sub001/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// OrderHandler handles user and vendor order endpoints.
type OrderHandler struct {
	orderSvc service.OrderService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc service.OrderService, v *validator.Validate, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, validate: v, logger: logger}
}

// RegisterRoutes mounts the order endpoints. Vendor routes additionally
// require the vendor role.
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/orders", authMw(http.HandlerFunc(h.handleOrders)))
	mux.Handle("/orders/", authMw(http.HandlerFunc(h.handleOrderByID)))
	mux.Handle("/vendor/orders", authMw(middleware.RequireRole(model.RoleVendor, http.HandlerFunc(h.listVendorOrders))))
	mux.Handle("/vendor/orders/", authMw(middleware.RequireRole(model.RoleVendor, http.HandlerFunc(h.handleVendorOrderByID))))
}

func (h *OrderHandler) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.placeOrder(w, r)
	case http.MethodGet:
		h.listUserOrders(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *OrderHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req dto.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.orderSvc.PlaceManual(r.Context(), userID, req.VendorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, service.ErrVendorNotFound):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrBookingPending):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error().Err(err).Msg("failed to place order")
			http.Error(w, "failed to place order", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(order)
}

func (h *OrderHandler) listUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit, ok := parseLimit(w, r, 20)
	if !ok {
		return
	}

	orders, err := h.orderSvc.ListUserOrders(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list orders")
		http.Error(w, "failed to list orders", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func (h *OrderHandler) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/orders/")
	switch {
	case r.Method == http.MethodGet && !strings.Contains(rest, "/"):
		h.getOrder(w, r, rest)
	case r.Method == http.MethodPost && strings.HasSuffix(rest, "/verify-delivery"):
		h.verifyDelivery(w, r, strings.TrimSuffix(rest, "/verify-delivery"))
	default:
		http.NotFound(w, r)
	}
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	order, err := h.orderSvc.GetForUser(r.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("failed to get order")
		http.Error(w, "failed to get order", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

// verifyDelivery lets a vendor submit a post-delivery weight check for one of
// their orders, the same check a device reading performs automatically.
func (h *OrderHandler) verifyDelivery(w http.ResponseWriter, r *http.Request, orderID string) {
	vendorID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || vendorID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	role, _ := r.Context().Value(middleware.RoleContextKey).(string)
	if role != model.RoleVendor {
		http.Error(w, "Forbidden: insufficient role", http.StatusForbidden)
		return
	}

	var req dto.VerifyDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.orderSvc.GetForVendor(r.Context(), vendorID, orderID); err != nil {
		h.writeOrderError(w, err, "failed to verify delivery")
		return
	}

	verified, err := h.orderSvc.VerifyDelivery(r.Context(), orderID, req.Weight)
	if err != nil {
		h.writeOrderError(w, err, "failed to verify delivery")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.VerifyDeliveryResponse{Verified: verified})
}

func (h *OrderHandler) listVendorOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	vendorID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || vendorID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit, ok := parseLimit(w, r, 50)
	if !ok {
		return
	}
	onlyOpen := r.URL.Query().Get("pending") == "true"

	orders, err := h.orderSvc.ListVendorOrders(r.Context(), vendorID, limit, onlyOpen)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list vendor orders")
		http.Error(w, "failed to list vendor orders", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func (h *OrderHandler) handleVendorOrderByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/vendor/orders/")
	if r.Method == http.MethodPut && strings.HasSuffix(rest, "/status") {
		h.updateOrderStatus(w, r, strings.TrimSuffix(rest, "/status"))
		return
	}
	http.NotFound(w, r)
}

func (h *OrderHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request, orderID string) {
	vendorID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || vendorID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.orderSvc.UpdateStatus(r.Context(), vendorID, orderID, model.OrderStatus(req.Status), req.Message)
	if err != nil {
		h.writeOrderError(w, err, "failed to update order status")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

func (h *OrderHandler) writeOrderError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNotOrderVendor):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrUnknownOrderStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error().Err(err).Msg(fallback)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

func parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 200 {
		http.Error(w, "invalid limit parameter", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
