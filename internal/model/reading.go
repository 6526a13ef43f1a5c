package model

import "time"

// Reading is an immutable weight sample from an IoT scale device. UserID is
// empty for readings from devices no subscription has claimed yet.
type Reading struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	DeviceID      string    `db:"device_id" json:"device_id"`
	WeightGrams   float64   `db:"weight_grams" json:"weight_grams"`
	GasPercentage float64   `db:"gas_percentage" json:"gas_percentage"`
	Status        string    `db:"status" json:"status"`
	Timestamp     time.Time `db:"ts" json:"timestamp"`
	BatteryLevel  *int      `db:"battery_level" json:"battery_level"`
}
