package model

import "time"

// OrderStatus is the lifecycle state of a gas cylinder order.
type OrderStatus string

const (
	OrderPending        OrderStatus = "Pending"
	OrderAccepted       OrderStatus = "Accepted"
	OrderOutForDelivery OrderStatus = "OutForDelivery"
	OrderDelivered      OrderStatus = "Delivered"
	OrderCancelled      OrderStatus = "Cancelled"
	OrderRejected       OrderStatus = "Rejected"
)

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled || s == OrderRejected
}

// Valid reports whether s is one of the known lifecycle states.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAccepted, OrderOutForDelivery, OrderDelivered, OrderCancelled, OrderRejected:
		return true
	}
	return false
}

// Order is one reorder attempt. User, vendor, and pricing details are
// snapshotted at creation so later profile edits never rewrite history.
type Order struct {
	ID                      string      `db:"id" json:"id"`
	UserID                  string      `db:"user_id" json:"user_id"`
	UserName                string      `db:"user_name" json:"user_name"`
	UserEmail               string      `db:"user_email" json:"user_email"`
	UserPhone               string      `db:"user_phone" json:"user_phone"`
	DeliveryAddress         string      `db:"delivery_address" json:"delivery_address"`
	VendorID                string      `db:"vendor_id" json:"vendor_id"`
	VendorName              string      `db:"vendor_name" json:"vendor_name"`
	IsAutoTriggered         bool        `db:"is_auto_triggered" json:"is_auto_triggered"`
	TriggerGasPercentage    *float64    `db:"trigger_gas_percentage" json:"trigger_gas_percentage"`
	GasItemID               *string     `db:"gas_item_id" json:"gas_item_id"`
	GasItemName             string      `db:"gas_item_name" json:"gas_item_name"`
	PriceCents              int64       `db:"price_cents" json:"price_cents"`
	Status                  OrderStatus `db:"status" json:"status"`
	VendorMessage           *string     `db:"vendor_message" json:"vendor_message"`
	CreatedAt               time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt               *time.Time  `db:"updated_at" json:"updated_at"`
	AcceptedAt              *time.Time  `db:"accepted_at" json:"accepted_at"`
	OutForDeliveryAt        *time.Time  `db:"out_for_delivery_at" json:"out_for_delivery_at"`
	DeliveredAt             *time.Time  `db:"delivered_at" json:"delivered_at"`
	PreDeliveryWeightGrams  *float64    `db:"pre_delivery_weight_grams" json:"pre_delivery_weight_grams"`
	PostDeliveryWeightGrams *float64    `db:"post_delivery_weight_grams" json:"post_delivery_weight_grams"`
	IsDeliveryVerified      bool        `db:"is_delivery_verified" json:"is_delivery_verified"`
}
