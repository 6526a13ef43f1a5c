package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nandusaji2001/ServConnect-sub001/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository defines the interface for gas subscription data.
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.Subscription, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*model.Subscription, error)
	// Upsert creates the subscription on first configuration write and updates
	// the configuration fields afterwards, leaving runtime state untouched.
	Upsert(ctx context.Context, s *model.Subscription) error
	Delete(ctx context.Context, userID string) (bool, error)
	// UpdateLastReading refreshes the cached last-reading fields and the
	// previous status label after each ingested reading.
	UpdateLastReading(ctx context.Context, userID string, weightGrams, percentage float64, status string, at time.Time) error
	// TryClaimPendingBooking atomically flips is_booking_pending to true and
	// reports whether this caller won the claim. Two concurrent low readings
	// for the same subscription resolve here: only one sees true.
	TryClaimPendingBooking(ctx context.Context, userID string) (bool, error)
	// SetPendingOrder records the order created under a successful claim.
	SetPendingOrder(ctx context.Context, userID, orderID string, triggeredAt time.Time) error
	// ReleasePendingBooking clears the pending flag and order reference.
	ReleasePendingBooking(ctx context.Context, userID string) error
	SetLowGasAlertAt(ctx context.Context, userID string, at time.Time) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `
	id, user_id, user_name, user_email, user_phone, delivery_address,
	is_auto_booking_enabled, preferred_vendor_id, preferred_vendor_name,
	threshold_percentage, full_cylinder_weight_grams, tare_cylinder_weight_grams,
	device_id, last_recorded_weight_grams, last_gas_percentage, last_reading_at,
	is_booking_pending, current_pending_order_id, last_auto_trigger_at,
	previous_gas_status, last_low_gas_alert_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.UserName, &s.UserEmail, &s.UserPhone, &s.DeliveryAddress,
		&s.IsAutoBookingEnabled, &s.PreferredVendorID, &s.PreferredVendorName,
		&s.ThresholdPercentage, &s.FullCylinderWeightGrams, &s.TareCylinderWeightGrams,
		&s.DeviceID, &s.LastRecordedWeightGrams, &s.LastGasPercentage, &s.LastReadingAt,
		&s.IsBookingPending, &s.CurrentPendingOrderID, &s.LastAutoTriggerAt,
		&s.PreviousGasStatus, &s.LastLowGasAlertAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning subscription row: %w", err)
	}
	return &s, nil
}

func (r *subscriptionRepo) GetByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	query := `SELECT` + subscriptionColumns + ` FROM gas_subscriptions WHERE user_id = $1`
	return scanSubscription(r.pool.QueryRow(ctx, query, userID))
}

func (r *subscriptionRepo) GetByDeviceID(ctx context.Context, deviceID string) (*model.Subscription, error) {
	query := `SELECT` + subscriptionColumns + ` FROM gas_subscriptions WHERE device_id = $1`
	return scanSubscription(r.pool.QueryRow(ctx, query, deviceID))
}

func (r *subscriptionRepo) Upsert(ctx context.Context, s *model.Subscription) error {
	query := `
		INSERT INTO gas_subscriptions (
			user_id, user_name, user_email, user_phone, delivery_address,
			is_auto_booking_enabled, preferred_vendor_id, preferred_vendor_name,
			threshold_percentage, full_cylinder_weight_grams, tare_cylinder_weight_grams,
			device_id, previous_gas_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			user_phone = EXCLUDED.user_phone,
			delivery_address = EXCLUDED.delivery_address,
			is_auto_booking_enabled = EXCLUDED.is_auto_booking_enabled,
			preferred_vendor_id = EXCLUDED.preferred_vendor_id,
			preferred_vendor_name = EXCLUDED.preferred_vendor_name,
			threshold_percentage = EXCLUDED.threshold_percentage,
			full_cylinder_weight_grams = EXCLUDED.full_cylinder_weight_grams,
			tare_cylinder_weight_grams = EXCLUDED.tare_cylinder_weight_grams,
			device_id = EXCLUDED.device_id,
			updated_at = NOW()
		RETURNING` + subscriptionColumns
	got, err := scanSubscription(r.pool.QueryRow(ctx, query,
		s.UserID, s.UserName, s.UserEmail, s.UserPhone, s.DeliveryAddress,
		s.IsAutoBookingEnabled, s.PreferredVendorID, s.PreferredVendorName,
		s.ThresholdPercentage, s.FullCylinderWeightGrams, s.TareCylinderWeightGrams,
		s.DeviceID, model.GasStatusUnknown,
	))
	if err != nil {
		return fmt.Errorf("upserting subscription for user %s: %w", s.UserID, err)
	}
	*s = *got
	return nil
}

func (r *subscriptionRepo) Delete(ctx context.Context, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM gas_subscriptions WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("deleting subscription for user %s: %w", userID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *subscriptionRepo) UpdateLastReading(ctx context.Context, userID string, weightGrams, percentage float64, status string, at time.Time) error {
	query := `
		UPDATE gas_subscriptions
		SET last_recorded_weight_grams = $2,
		    last_gas_percentage = $3,
		    previous_gas_status = $4,
		    last_reading_at = $5,
		    updated_at = NOW()
		WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, query, userID, weightGrams, percentage, status, at); err != nil {
		return fmt.Errorf("updating last reading for user %s: %w", userID, err)
	}
	return nil
}

// TryClaimPendingBooking is the per-subscription exclusivity point for
// automatic ordering: the conditional WHERE makes check-and-set one atomic
// statement, so concurrent readings cannot both win.
func (r *subscriptionRepo) TryClaimPendingBooking(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE gas_subscriptions
		SET is_booking_pending = TRUE,
		    updated_at = NOW()
		WHERE user_id = $1
		  AND is_booking_pending = FALSE`
	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("claiming pending booking for user %s: %w", userID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *subscriptionRepo) SetPendingOrder(ctx context.Context, userID, orderID string, triggeredAt time.Time) error {
	query := `
		UPDATE gas_subscriptions
		SET current_pending_order_id = $2,
		    last_auto_trigger_at = $3,
		    updated_at = NOW()
		WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, query, userID, orderID, triggeredAt); err != nil {
		return fmt.Errorf("setting pending order for user %s: %w", userID, err)
	}
	return nil
}

func (r *subscriptionRepo) ReleasePendingBooking(ctx context.Context, userID string) error {
	query := `
		UPDATE gas_subscriptions
		SET is_booking_pending = FALSE,
		    current_pending_order_id = NULL,
		    updated_at = NOW()
		WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("releasing pending booking for user %s: %w", userID, err)
	}
	return nil
}

func (r *subscriptionRepo) SetLowGasAlertAt(ctx context.Context, userID string, at time.Time) error {
	query := `UPDATE gas_subscriptions SET last_low_gas_alert_at = $2 WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, query, userID, at); err != nil {
		return fmt.Errorf("stamping low gas alert for user %s: %w", userID, err)
	}
	return nil
}
