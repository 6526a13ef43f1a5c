package dto

// ConfigureSubscriptionRequest creates or updates the caller's gas monitoring
// configuration. Omitted numeric fields get sensible defaults.
type ConfigureSubscriptionRequest struct {
	Phone                   string  `json:"phone" validate:"omitempty,max=32"`
	DeliveryAddress         string  `json:"delivery_address" validate:"omitempty,max=512"`
	IsAutoBookingEnabled    bool    `json:"is_auto_booking_enabled"`
	PreferredVendorID       *string `json:"preferred_vendor_id" validate:"omitempty,uuid4"`
	ThresholdPercentage     float64 `json:"threshold_percentage" validate:"omitempty,gt=0,lte=100"`
	FullCylinderWeightGrams float64 `json:"full_cylinder_weight_grams" validate:"omitempty,gt=0"`
	TareCylinderWeightGrams float64 `json:"tare_cylinder_weight_grams" validate:"omitempty,gte=0"`
	DeviceID                *string `json:"device_id" validate:"omitempty,max=128"`
}

// VendorResponse is one entry in the gas vendor directory.
type VendorResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}
