package dto

// PlaceOrderRequest places a manual gas order with a chosen vendor.
type PlaceOrderRequest struct {
	VendorID string `json:"vendor_id" validate:"required,uuid4"`
}

// UpdateOrderStatusRequest is the vendor's transition request.
type UpdateOrderStatusRequest struct {
	Status  string  `json:"status" validate:"required"`
	Message *string `json:"message" validate:"omitempty,max=512"`
}

// VerifyDeliveryRequest submits a raw cylinder weight, in kilograms, to check
// against the order's pre-delivery baseline.
type VerifyDeliveryRequest struct {
	Weight float64 `json:"weight" validate:"required,gt=0"`
}

// VerifyDeliveryResponse reports the verification outcome.
type VerifyDeliveryResponse struct {
	Verified bool `json:"verified"`
}
