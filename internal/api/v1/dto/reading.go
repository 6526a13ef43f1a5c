package dto

// ReadingRequest is the payload posted by ESP32 weight sensors. Weight is in
// kilograms; DeviceID may be omitted by older firmware.
type ReadingRequest struct {
	Weight       float64 `json:"weight" validate:"required,gt=0"`
	DeviceID     string  `json:"deviceId"`
	BatteryLevel *int    `json:"batteryLevel,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// ReadingResponse acknowledges an ingested reading to the device.
type ReadingResponse struct {
	Success       bool    `json:"success"`
	GasPercentage float64 `json:"gas_percentage"`
	Status        string  `json:"status"`
}
