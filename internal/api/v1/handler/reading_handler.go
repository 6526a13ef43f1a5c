package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nandusaji2001/ServConnect-sub001/internal/api/v1/dto"
	"github.com/nandusaji2001/ServConnect-sub001/internal/middleware"
	"github.com/nandusaji2001/ServConnect-sub001/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ReadingHandler handles the device ingestion endpoint and reading queries.
type ReadingHandler struct {
	readingSvc service.ReadingService
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewReadingHandler creates a new ReadingHandler.
func NewReadingHandler(readingSvc service.ReadingService, v *validator.Validate, logger zerolog.Logger) *ReadingHandler {
	return &ReadingHandler{readingSvc: readingSvc, validate: v, logger: logger}
}

// RegisterRoutes mounts the reading endpoints. The ingestion endpoint is
// unauthenticated: devices identify themselves by device id only.
func (h *ReadingHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/readings", http.HandlerFunc(h.ingestReading))
	mux.Handle("/readings/recent", authMw(http.HandlerFunc(h.getRecentReadings)))
	mux.Handle("/readings/latest", authMw(http.HandlerFunc(h.getLatestReading)))
}

func (h *ReadingHandler) ingestReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.ReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	reading, err := h.readingSvc.IngestReading(r.Context(), req.DeviceID, req.Weight, req.BatteryLevel)
	if err != nil {
		h.logger.Error().Err(err).Str("device_id", req.DeviceID).Msg("failed to ingest reading")
		http.Error(w, "failed to ingest reading", http.StatusInternalServerError)
		return
	}

	resp := dto.ReadingResponse{
		Success:       true,
		GasPercentage: reading.GasPercentage,
		Status:        reading.Status,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *ReadingHandler) getRecentReadings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	count := 50
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "invalid count parameter", http.StatusBadRequest)
			return
		}
		count = n
	}

	readings, err := h.readingSvc.RecentReadings(r.Context(), userID, count)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list readings")
		http.Error(w, "failed to list readings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(readings)
}

func (h *ReadingHandler) getLatestReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	reading, err := h.readingSvc.LatestReading(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get latest reading")
		http.Error(w, "failed to get latest reading", http.StatusInternalServerError)
		return
	}
	if reading == nil {
		http.Error(w, "no readings recorded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reading)
}
