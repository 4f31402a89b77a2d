package domain

import (
	"time"

	"gorm.io/datatypes"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
	BookingInTransit BookingStatus = "in_transit"
	BookingDelivered BookingStatus = "delivered"
)

// Terminal reports whether no further transition may leave the status.
func (s BookingStatus) Terminal() bool {
	return s == BookingRejected || s == BookingCancelled || s == BookingDelivered
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type DeliveryMethod string

const (
	MethodPickup  DeliveryMethod = "pickup"
	MethodDropoff DeliveryMethod = "dropoff"
	MethodCourier DeliveryMethod = "courier"
)

// PriceBreakdown is the customer-facing decomposition of a charge, in minor
// currency units. It is frozen at creation time: a later change to the slot's
// rates or the company's plan never alters a persisted breakdown.
type PriceBreakdown struct {
	Base          int64 `json:"base"`
	AdminFee      int64 `json:"admin_fee"`
	ProcessingFee int64 `json:"processing_fee"`
	Total         int64 `json:"total"`
	CommissionBps int   `json:"commission_bps"`
}

// Booking is a customer's reservation against a slot for a given quantity.
// Bookings are never hard-deleted.
type Booking struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"` // BKG-YYYY-XXXXXXX

	SlotID     int64 `json:"slot_id" validate:"required"`
	CustomerID int64 `json:"customer_id" validate:"required"`
	CompanyID  int64 `json:"company_id"`

	// Requested quantity for the slot's pricing model; the one not matching
	// the model stays nil. Kept so capacity release on reject/cancel uses the
	// originally reserved amount, never a re-derived one.
	RequestedWeightKg *float64 `json:"requested_weight_kg,omitempty"`
	RequestedItems    *int     `json:"requested_items,omitempty"`

	Price PriceBreakdown `json:"price"`

	Status           BookingStatus `json:"status"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	CapacityReleased bool          `json:"-"`

	PickupMethod    DeliveryMethod `json:"pickup_method"`
	PickupAddress   string         `json:"pickup_address,omitempty"`
	DeliveryMethod  DeliveryMethod `json:"delivery_method"`
	DeliveryAddress string         `json:"delivery_address,omitempty"`

	ParcelMeta datatypes.JSON `json:"parcel_meta,omitempty"`
	ImageURLs  datatypes.JSON `json:"image_urls,omitempty"`
	LabelURL   string         `json:"label_url,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}
