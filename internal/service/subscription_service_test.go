package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nandusaji2001/ServConnect-sub001/internal/model"

	"github.com/rs/zerolog"
)

func newTestSubscriptionService(subRepo *fakeSubRepo, orderRepo *fakeOrderRepo) SubscriptionService {
	return NewSubscriptionService(subRepo, orderRepo, newFakeUserRepo(testUser(), testVendor()), zerolog.Nop())
}

func TestConfigureAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	subRepo := newFakeSubRepo()
	svc := newTestSubscriptionService(subRepo, newFakeOrderRepo())

	sub, err := svc.Configure(ctx, "user-1", SubscriptionConfig{})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if sub.ThresholdPercentage != 20 || sub.FullCylinderWeightGrams != 2000 || sub.TareCylinderWeightGrams != 500 {
		t.Errorf("defaults not applied: %+v", sub)
	}
	// Contact details come from the profile when omitted.
	if sub.UserPhone != "9900112233" || sub.DeliveryAddress != "12 Hill Road" {
		t.Errorf("profile fallback not applied: phone %q address %q", sub.UserPhone, sub.DeliveryAddress)
	}
	if sub.UserName != "Anjali Nair" || sub.UserEmail != "anjali@example.com" {
		t.Errorf("identity snapshot wrong: %q %q", sub.UserName, sub.UserEmail)
	}
}

func TestConfigureRejectsBadCalibration(t *testing.T) {
	ctx := context.Background()
	svc := newTestSubscriptionService(newFakeSubRepo(), newFakeOrderRepo())

	tests := []struct {
		name string
		full float64
		tare float64
	}{
		{"tare equals full", 2000, 2000},
		{"tare above full", 2000, 2500},
		{"negative full", -2000, 500},
		{"negative tare", 2000, -500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Configure(ctx, "user-1", SubscriptionConfig{
				FullCylinderWeightGrams: tt.full,
				TareCylinderWeightGrams: tt.tare,
			})
			if !errors.Is(err, ErrInvalidCalibration) {
				t.Errorf("got %v, want ErrInvalidCalibration", err)
			}
		})
	}

	// The narrowest valid calibration still configures.
	if _, err := svc.Configure(ctx, "user-1", SubscriptionConfig{
		FullCylinderWeightGrams: 2000,
		TareCylinderWeightGrams: 1999,
	}); err != nil {
		t.Errorf("valid calibration rejected: %v", err)
	}
}

func TestConfigureResolvesVendorName(t *testing.T) {
	ctx := context.Background()
	svc := newTestSubscriptionService(newFakeSubRepo(), newFakeOrderRepo())

	sub, err := svc.Configure(ctx, "user-1", SubscriptionConfig{PreferredVendorID: strPtr("vendor-1")})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if sub.PreferredVendorName == nil || *sub.PreferredVendorName != "Kumar Gas Agency" {
		t.Errorf("vendor name not resolved: %v", sub.PreferredVendorName)
	}

	if _, err := svc.Configure(ctx, "user-1", SubscriptionConfig{PreferredVendorID: strPtr("ghost")}); !errors.Is(err, ErrVendorNotFound) {
		t.Errorf("unknown vendor: got %v, want ErrVendorNotFound", err)
	}
	if _, err := svc.Configure(ctx, "ghost", SubscriptionConfig{}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: got %v, want ErrUserNotFound", err)
	}
}

func TestConfigurePreservesRuntimeState(t *testing.T) {
	ctx := context.Background()
	sub := testSubscription()
	sub.IsBookingPending = true
	sub.CurrentPendingOrderID = strPtr("order-7")
	subRepo := newFakeSubRepo(sub)
	svc := newTestSubscriptionService(subRepo, newFakeOrderRepo())

	updated, err := svc.Configure(ctx, "user-1", SubscriptionConfig{ThresholdPercentage: 30})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if updated.ThresholdPercentage != 30 {
		t.Errorf("threshold not updated: %v", updated.ThresholdPercentage)
	}
	if !updated.IsBookingPending || updated.CurrentPendingOrderID == nil {
		t.Error("reconfiguration clobbered the pending booking state")
	}
}

func TestGetDashboard(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	sub := testSubscription()
	sub.LastRecordedWeightGrams = 900
	sub.LastGasPercentage = 26.7
	sub.LastReadingAt = &now
	sub.CurrentPendingOrderID = strPtr("order-1")

	order := &model.Order{ID: "order-1", UserID: "user-1", VendorID: "vendor-1", Status: model.OrderAccepted}
	svc := newTestSubscriptionService(newFakeSubRepo(sub), newFakeOrderRepo(order))

	dash, err := svc.GetDashboard(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if dash.CurrentGasPercentage != 26.7 || dash.CurrentWeightGrams != 900 {
		t.Errorf("cached figures wrong: %+v", dash)
	}
	// 900/2000 = 45% of full weight.
	if dash.GasStatus != model.GasStatusHalf {
		t.Errorf("status = %q, want Half", dash.GasStatus)
	}
	if dash.CurrentOrder == nil || dash.CurrentOrder.ID != "order-1" {
		t.Error("current order not resolved")
	}
}

func TestGetDashboardNoReadingsYet(t *testing.T) {
	ctx := context.Background()
	svc := newTestSubscriptionService(newFakeSubRepo(testSubscription()), newFakeOrderRepo())

	dash, err := svc.GetDashboard(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if dash.GasStatus != "No Data" {
		t.Errorf("status = %q, want No Data", dash.GasStatus)
	}
}

func TestGetDashboardWithoutSubscription(t *testing.T) {
	ctx := context.Background()
	svc := newTestSubscriptionService(newFakeSubRepo(), newFakeOrderRepo())

	if _, err := svc.GetDashboard(ctx, "user-1"); !errors.Is(err, ErrNoSubscription) {
		t.Errorf("got %v, want ErrNoSubscription", err)
	}
}

func TestDeleteSubscription(t *testing.T) {
	ctx := context.Background()
	svc := newTestSubscriptionService(newFakeSubRepo(testSubscription()), newFakeOrderRepo())

	deleted, err := svc.Delete(ctx, "user-1")
	if err != nil || !deleted {
		t.Fatalf("Delete: (%v, %v), want (true, nil)", deleted, err)
	}
	deleted, err = svc.Delete(ctx, "user-1")
	if err != nil || deleted {
		t.Errorf("second Delete: (%v, %v), want (false, nil)", deleted, err)
	}
}

func TestListVendors(t *testing.T) {
	ctx := context.Background()
	svc := newTestSubscriptionService(newFakeSubRepo(), newFakeOrderRepo())

	vendors, err := svc.ListVendors(ctx)
	if err != nil {
		t.Fatalf("ListVendors: %v", err)
	}
	if len(vendors) != 1 || vendors[0].ID != "vendor-1" {
		t.Errorf("unexpected vendors: %+v", vendors)
	}
}
