package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nandusaji2001/ServConnect-sub001/internal/api/v1/dto"
	"github.com/nandusaji2001/ServConnect-sub001/internal/middleware"
	"github.com/nandusaji2001/ServConnect-sub001/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type stubReadingService struct {
	lastDeviceID string
	lastWeight   float64
	readings     []model.Reading
}

func (s *stubReadingService) IngestReading(_ context.Context, deviceID string, weightKg float64, _ *int) (*model.Reading, error) {
	s.lastDeviceID = deviceID
	s.lastWeight = weightKg
	return &model.Reading{DeviceID: deviceID, WeightGrams: weightKg * 1000, GasPercentage: 42.0, Status: model.GasStatusHalf}, nil
}

func (s *stubReadingService) RecentReadings(_ context.Context, userID string, count int) ([]model.Reading, error) {
	return s.readings, nil
}

func (s *stubReadingService) LatestReading(_ context.Context, userID string) (*model.Reading, error) {
	if len(s.readings) == 0 {
		return nil, nil
	}
	return &s.readings[0], nil
}

// passthroughAuth injects a fixed user, standing in for the JWT middleware.
func passthroughAuth(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newReadingMux(svc *stubReadingService) *http.ServeMux {
	h := NewReadingHandler(svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, passthroughAuth("user-1"))
	return mux
}

func TestIngestReadingEndpoint(t *testing.T) {
	svc := &stubReadingService{}
	mux := newReadingMux(svc)

	body := `{"weight": 1.25, "deviceId": "ESP32-001"}`
	req := httptest.NewRequest(http.MethodPost, "/readings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp dto.ReadingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || resp.GasPercentage != 42.0 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if svc.lastDeviceID != "ESP32-001" || svc.lastWeight != 1.25 {
		t.Errorf("service called with (%q, %v)", svc.lastDeviceID, svc.lastWeight)
	}
}

func TestIngestReadingRejectsBadPayloads(t *testing.T) {
	mux := newReadingMux(&stubReadingService{})

	tests := []struct {
		name string
		body string
	}{
		{"not json", `weight=1.25`},
		{"missing weight", `{"deviceId": "ESP32-001"}`},
		{"zero weight", `{"weight": 0}`},
		{"negative weight", `{"weight": -0.5}`},
		{"battery out of range", `{"weight": 1.0, "batteryLevel": 150}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/readings", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestIngestReadingMethodNotAllowed(t *testing.T) {
	mux := newReadingMux(&stubReadingService{})

	req := httptest.NewRequest(http.MethodGet, "/readings", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRecentReadingsEndpoint(t *testing.T) {
	svc := &stubReadingService{readings: []model.Reading{
		{ID: "r1", UserID: "user-1", DeviceID: "ESP32-001", WeightGrams: 1500, Status: model.GasStatusGood},
	}}
	mux := newReadingMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/readings/recent?count=10", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got []model.Reading
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r1" {
		t.Errorf("unexpected readings: %+v", got)
	}
}

func TestRecentReadingsRejectsBadCount(t *testing.T) {
	mux := newReadingMux(&stubReadingService{})

	for _, raw := range []string{"0", "-1", "9999", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/readings/recent?count="+raw, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("count=%s: status = %d, want 400", raw, rec.Code)
		}
	}
}

func TestLatestReadingNotFound(t *testing.T) {
	mux := newReadingMux(&stubReadingService{})

	req := httptest.NewRequest(http.MethodGet, "/readings/latest", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
