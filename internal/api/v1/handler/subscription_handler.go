package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nandusaji2001/ServConnect-sub001/internal/api/v1/dto"
	"github.com/nandusaji2001/ServConnect-sub001/internal/middleware"
	"github.com/nandusaji2001/ServConnect-sub001/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// SubscriptionHandler handles subscription configuration, the dashboard, and
// the vendor directory.
type SubscriptionHandler struct {
	subSvc   service.SubscriptionService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subSvc service.SubscriptionService, v *validator.Validate, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subSvc: subSvc, validate: v, logger: logger}
}

// RegisterRoutes mounts the subscription endpoints.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/subscription", authMw(http.HandlerFunc(h.handleSubscription)))
	mux.Handle("/dashboard", authMw(http.HandlerFunc(h.getDashboard)))
	mux.Handle("/vendors", authMw(http.HandlerFunc(h.listVendors)))
}

func (h *SubscriptionHandler) handleSubscription(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getSubscription(w, r)
	case http.MethodPost:
		h.configureSubscription(w, r)
	case http.MethodDelete:
		h.deleteSubscription(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SubscriptionHandler) configureSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req dto.ConfigureSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := h.subSvc.Configure(r.Context(), userID, service.SubscriptionConfig{
		Phone:                   req.Phone,
		DeliveryAddress:         req.DeliveryAddress,
		IsAutoBookingEnabled:    req.IsAutoBookingEnabled,
		PreferredVendorID:       req.PreferredVendorID,
		ThresholdPercentage:     req.ThresholdPercentage,
		FullCylinderWeightGrams: req.FullCylinderWeightGrams,
		TareCylinderWeightGrams: req.TareCylinderWeightGrams,
		DeviceID:                req.DeviceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, service.ErrVendorNotFound):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrInvalidCalibration):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error().Err(err).Msg("failed to configure subscription")
			http.Error(w, "failed to configure subscription", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

func (h *SubscriptionHandler) getSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sub, err := h.subSvc.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get subscription")
		http.Error(w, "failed to get subscription", http.StatusInternalServerError)
		return
	}
	if sub == nil {
		http.Error(w, "no gas subscription", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

func (h *SubscriptionHandler) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	deleted, err := h.subSvc.Delete(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to delete subscription")
		http.Error(w, "failed to delete subscription", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "no gas subscription", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SubscriptionHandler) getDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	dash, err := h.subSvc.GetDashboard(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoSubscription) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("failed to build dashboard")
		http.Error(w, "failed to build dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dash)
}

func (h *SubscriptionHandler) listVendors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	vendors, err := h.subSvc.ListVendors(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list vendors")
		http.Error(w, "failed to list vendors", http.StatusInternalServerError)
		return
	}

	resp := make([]dto.VendorResponse, 0, len(vendors))
	for i := range vendors {
		v := &vendors[i]
		address := v.Address
		if v.BusinessAddress != nil && *v.BusinessAddress != "" {
			address = *v.BusinessAddress
		}
		resp = append(resp, dto.VendorResponse{
			ID:      v.ID,
			Name:    v.DisplayName(),
			Phone:   v.Phone,
			Address: address,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
