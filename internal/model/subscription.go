package model

import "time"

// Gas level status labels derived from the full-weight percentage bands.
const (
	GasStatusFull     = "Full"
	GasStatusGood     = "Good"
	GasStatusHalf     = "Half"
	GasStatusLow      = "Low"
	GasStatusCritical = "Critical"
	GasStatusUnknown  = "Unknown"

	// GasStatusUnregistered tags readings from devices with no subscription.
	GasStatusUnregistered = "Unregistered Device"
)

// Subscription holds one user's gas monitoring configuration plus the mutable
// runtime state updated on every reading and order transition.
type Subscription struct {
	ID                      string     `db:"id" json:"id"`
	UserID                  string     `db:"user_id" json:"user_id"`
	UserName                string     `db:"user_name" json:"user_name"`
	UserEmail               string     `db:"user_email" json:"user_email"`
	UserPhone               string     `db:"user_phone" json:"user_phone"`
	DeliveryAddress         string     `db:"delivery_address" json:"delivery_address"`
	IsAutoBookingEnabled    bool       `db:"is_auto_booking_enabled" json:"is_auto_booking_enabled"`
	PreferredVendorID       *string    `db:"preferred_vendor_id" json:"preferred_vendor_id"`
	PreferredVendorName     *string    `db:"preferred_vendor_name" json:"preferred_vendor_name"`
	ThresholdPercentage     float64    `db:"threshold_percentage" json:"threshold_percentage"`
	FullCylinderWeightGrams float64    `db:"full_cylinder_weight_grams" json:"full_cylinder_weight_grams"`
	TareCylinderWeightGrams float64    `db:"tare_cylinder_weight_grams" json:"tare_cylinder_weight_grams"`
	DeviceID                *string    `db:"device_id" json:"device_id"`
	LastRecordedWeightGrams float64    `db:"last_recorded_weight_grams" json:"last_recorded_weight_grams"`
	LastGasPercentage       float64    `db:"last_gas_percentage" json:"last_gas_percentage"`
	LastReadingAt           *time.Time `db:"last_reading_at" json:"last_reading_at"`
	IsBookingPending        bool       `db:"is_booking_pending" json:"is_booking_pending"`
	CurrentPendingOrderID   *string    `db:"current_pending_order_id" json:"current_pending_order_id"`
	LastAutoTriggerAt       *time.Time `db:"last_auto_trigger_at" json:"last_auto_trigger_at"`
	PreviousGasStatus       string     `db:"previous_gas_status" json:"previous_gas_status"`
	LastLowGasAlertAt       *time.Time `db:"last_low_gas_alert_at" json:"last_low_gas_alert_at"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}
