package booking

import "encoding/json"

type CreateBookingRequest struct {
	SlotID            int64    `json:"slot_id" binding:"required"`
	RequestedWeightKg *float64 `json:"requested_weight_kg"`
	RequestedItems    *int     `json:"requested_items"`

	PickupMethod    string `json:"pickup_method" binding:"required"`
	PickupAddress   string `json:"pickup_address"`
	DeliveryMethod  string `json:"delivery_method" binding:"required"`
	DeliveryAddress string `json:"delivery_address"`

	ParcelMeta json.RawMessage `json:"parcel_meta"`
	ImageURLs  []string        `json:"image_urls"`
}

type QuoteRequest struct {
	SlotID            int64    `json:"slot_id" binding:"required"`
	RequestedWeightKg *float64 `json:"requested_weight_kg"`
	RequestedItems    *int     `json:"requested_items"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}
