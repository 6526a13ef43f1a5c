package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nandusaji2001/ServConnect-sub001/internal/metrics"
	"github.com/nandusaji2001/ServConnect-sub001/internal/model"
	"github.com/nandusaji2001/ServConnect-sub001/internal/pgmq"
	"github.com/nandusaji2001/ServConnect-sub001/internal/repository"

	"github.com/rs/zerolog"
)

// DefaultDeviceID is the sentinel used when a payload carries no device id.
const DefaultDeviceID = "ESP32-DEFAULT"

// lowGasAlertInterval dampens repeat low-gas alerts for the same episode.
const lowGasAlertInterval = 24 * time.Hour

// TrimJob is the retention queue payload consumed by the orchestrator.
type TrimJob struct {
	UserID string `json:"user_id"`
}

// TrimEnqueuer hands retention work off the ingestion path.
type TrimEnqueuer interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

var _ TrimEnqueuer = (*pgmq.Client)(nil)

// ReadingService ingests device weight readings: it resolves the owning
// subscription, derives percentage and status, persists the reading, and runs
// the threshold monitor and delivery verification against the result.
type ReadingService interface {
	// IngestReading never fails for a structurally valid payload from an
	// unknown device; such readings are stored unattached for later claiming.
	IngestReading(ctx context.Context, deviceID string, weightKg float64, batteryLevel *int) (*model.Reading, error)
	RecentReadings(ctx context.Context, userID string, count int) ([]model.Reading, error)
	LatestReading(ctx context.Context, userID string) (*model.Reading, error)
}

type readingService struct {
	subs          repository.SubscriptionRepository
	readings      repository.ReadingRepository
	orderSvc      OrderService
	notifier      Notifier
	trimQueue     string
	trimEnqueuer  TrimEnqueuer
	readingLogger zerolog.Logger
}

// NewReadingService creates a new ReadingService.
func NewReadingService(
	subs repository.SubscriptionRepository,
	readings repository.ReadingRepository,
	orderSvc OrderService,
	notifier Notifier,
	trimEnqueuer TrimEnqueuer,
	trimQueue string,
	logger zerolog.Logger,
) ReadingService {
	return &readingService{
		subs:          subs,
		readings:      readings,
		orderSvc:      orderSvc,
		notifier:      notifier,
		trimQueue:     trimQueue,
		trimEnqueuer:  trimEnqueuer,
		readingLogger: logger.With().Str("service", "ReadingService").Logger(),
	}
}

func (s *readingService) IngestReading(ctx context.Context, deviceID string, weightKg float64, batteryLevel *int) (*model.Reading, error) {
	if deviceID == "" {
		deviceID = DefaultDeviceID
	}
	weightGrams := weightKg * 1000

	sub, err := s.subs.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		// Unknown device: record the reading unattached so it can be claimed
		// once a subscription binds this device id. Not an error.
		s.readingLogger.Warn().Str("device_id", deviceID).Msg("No subscription found for device")
		reading := &model.Reading{
			DeviceID:     deviceID,
			WeightGrams:  weightGrams,
			Status:       model.GasStatusUnregistered,
			Timestamp:    time.Now().UTC(),
			BatteryLevel: batteryLevel,
		}
		if err := s.readings.Insert(ctx, reading); err != nil {
			return nil, err
		}
		metrics.ReadingsIngested.WithLabelValues(model.GasStatusUnregistered).Inc()
		return reading, nil
	}

	percentage := GasPercentage(weightGrams, sub.TareCylinderWeightGrams, sub.FullCylinderWeightGrams)
	status := GasStatus(weightGrams, sub.FullCylinderWeightGrams)

	reading := &model.Reading{
		UserID:        sub.UserID,
		DeviceID:      deviceID,
		WeightGrams:   weightGrams,
		GasPercentage: percentage,
		Status:        status,
		Timestamp:     time.Now().UTC(),
		BatteryLevel:  batteryLevel,
	}
	if err := s.readings.Insert(ctx, reading); err != nil {
		return nil, err
	}

	previousStatus := sub.PreviousGasStatus
	if previousStatus == "" {
		previousStatus = model.GasStatusUnknown
	}

	if err := s.subs.UpdateLastReading(ctx, sub.UserID, weightGrams, percentage, status, reading.Timestamp); err != nil {
		s.readingLogger.Error().Err(err).Str("user_id", sub.UserID).Msg("Failed to update cached reading fields")
	}
	sub.LastRecordedWeightGrams = weightGrams
	sub.LastGasPercentage = percentage
	sub.PreviousGasStatus = status

	s.maybeSendLowGasAlert(ctx, sub, reading, previousStatus)
	createdOrderID := s.maybeTriggerAutoBooking(ctx, sub, reading)
	s.maybeVerifyDelivery(ctx, sub, reading, createdOrderID)
	s.enqueueTrim(ctx, sub.UserID)

	metrics.ReadingsIngested.WithLabelValues(status).Inc()
	return reading, nil
}

// maybeTriggerAutoBooking starts at most one automatic reorder per depletion
// episode. Guards: auto-booking enabled, preferred vendor configured, no
// booking pending, percentage strictly below the threshold. The pending-flag
// claim is a conditional update, so concurrent readings cannot double-order.
// Returns the id of the order it created, if any.
func (s *readingService) maybeTriggerAutoBooking(ctx context.Context, sub *model.Subscription, reading *model.Reading) string {
	if !sub.IsAutoBookingEnabled {
		return ""
	}
	if sub.PreferredVendorID == nil {
		return ""
	}
	if sub.IsBookingPending {
		return ""
	}
	if reading.GasPercentage >= sub.ThresholdPercentage {
		return ""
	}

	claimed, err := s.subs.TryClaimPendingBooking(ctx, sub.UserID)
	if err != nil {
		s.readingLogger.Error().Err(err).Str("user_id", sub.UserID).Msg("Failed to claim pending booking")
		return ""
	}
	if !claimed {
		// Another reading won the claim between our snapshot and now.
		return ""
	}

	order, err := s.orderSvc.Create(ctx, sub.UserID, *sub.PreferredVendorID, true, &reading.GasPercentage, &reading.WeightGrams)
	if err != nil {
		// Release the claim so a later reading can retry; the subscription
		// must never stay flagged pending without a corresponding order.
		s.readingLogger.Error().Err(err).Str("user_id", sub.UserID).Msg("Failed to create automatic order")
		if rerr := s.subs.ReleasePendingBooking(ctx, sub.UserID); rerr != nil {
			s.readingLogger.Error().Err(rerr).Str("user_id", sub.UserID).Msg("Failed to release pending booking after create failure")
		}
		return ""
	}

	now := time.Now().UTC()
	if err := s.subs.SetPendingOrder(ctx, sub.UserID, order.ID, now); err != nil {
		// A pending flag without an order reference would block verification
		// forever, so give the claim back rather than hold it blind.
		s.readingLogger.Error().Err(err).Str("order_id", order.ID).Msg("Failed to record pending order id, releasing claim")
		if rerr := s.subs.ReleasePendingBooking(ctx, sub.UserID); rerr != nil {
			s.readingLogger.Error().Err(rerr).Str("user_id", sub.UserID).Msg("Failed to release pending booking after bookkeeping failure")
		}
	} else {
		sub.IsBookingPending = true
		sub.CurrentPendingOrderID = &order.ID
		sub.LastAutoTriggerAt = &now
	}

	metrics.AutoOrdersTriggered.Inc()
	s.readingLogger.Info().
		Str("user_id", sub.UserID).
		Str("order_id", order.ID).
		Float64("gas_percentage", reading.GasPercentage).
		Float64("threshold", sub.ThresholdPercentage).
		Msg("Auto-booking triggered")

	vendorName := ""
	if sub.PreferredVendorName != nil {
		vendorName = *sub.PreferredVendorName
	}
	s.notifier.Notify(ctx, sub.UserID, "Low Gas Alert - Order Placed",
		fmt.Sprintf("Your gas level is at %.1f%%. An automatic order has been placed with %s.", reading.GasPercentage, vendorName),
		CategoryAutoBookingTriggered, order.ID, "/GasSubscription/OrderDetails/"+order.ID)
	s.notifier.Notify(ctx, *sub.PreferredVendorID, "New Gas Order (Auto-Triggered)",
		fmt.Sprintf("New automatic gas order from %s. Gas level: %.1f%%", sub.UserName, reading.GasPercentage),
		CategoryAutoBookingTriggered, order.ID, "/Vendor/GasOrders")
	return order.ID
}

// maybeVerifyDelivery closes the loop on a pending order when a later reading
// shows the weight jump of a fresh cylinder. Skipped for an order created by
// this very reading. Best-effort: failures never fail ingestion.
func (s *readingService) maybeVerifyDelivery(ctx context.Context, sub *model.Subscription, reading *model.Reading, createdOrderID string) {
	if !sub.IsBookingPending || sub.CurrentPendingOrderID == nil {
		return
	}
	orderID := *sub.CurrentPendingOrderID
	if orderID == "" || orderID == createdOrderID {
		return
	}
	if _, err := s.orderSvc.VerifyDelivery(ctx, orderID, reading.WeightGrams/1000); err != nil {
		s.readingLogger.Error().Err(err).Str("order_id", orderID).Msg("Delivery verification attempt failed")
	}
}

// maybeSendLowGasAlert notifies the user when the display status drops into
// Low or Critical, at most once per 24 hours. Independent of auto-booking.
func (s *readingService) maybeSendLowGasAlert(ctx context.Context, sub *model.Subscription, reading *model.Reading, previousStatus string) {
	if reading.Status != model.GasStatusLow && reading.Status != model.GasStatusCritical {
		return
	}
	dropped := previousStatus == model.GasStatusUnknown || statusPriority(previousStatus) > statusPriority(reading.Status)
	if !dropped {
		return
	}
	if sub.LastLowGasAlertAt != nil && time.Since(*sub.LastLowGasAlertAt) < lowGasAlertInterval {
		return
	}

	body := fmt.Sprintf("Your gas level is getting low (%.1f%%). Consider ordering a new cylinder.", reading.GasPercentage)
	if reading.Status == model.GasStatusCritical {
		body = fmt.Sprintf("Your gas is critically low (%.1f%%) and may run out soon!", reading.GasPercentage)
	}
	s.notifier.Notify(ctx, sub.UserID, "Gas Level "+reading.Status, body, CategoryLowGasAlert, "", "/GasSubscription")

	now := time.Now().UTC()
	if err := s.subs.SetLowGasAlertAt(ctx, sub.UserID, now); err != nil {
		s.readingLogger.Error().Err(err).Str("user_id", sub.UserID).Msg("Failed to stamp low gas alert time")
	}
	sub.LastLowGasAlertAt = &now
}

func (s *readingService) enqueueTrim(ctx context.Context, userID string) {
	payload, err := json.Marshal(TrimJob{UserID: userID})
	if err != nil {
		s.readingLogger.Error().Err(err).Msg("Failed to marshal trim job")
		return
	}
	if err := s.trimEnqueuer.Send(ctx, s.trimQueue, payload); err != nil {
		// Housekeeping only; ingestion already succeeded.
		s.readingLogger.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue retention trim job")
	}
}

func (s *readingService) RecentReadings(ctx context.Context, userID string, count int) ([]model.Reading, error) {
	return s.readings.ListByUserID(ctx, userID, count)
}

func (s *readingService) LatestReading(ctx context.Context, userID string) (*model.Reading, error) {
	return s.readings.LatestByUserID(ctx, userID)
}
