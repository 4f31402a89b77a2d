package domain

import "time"

type ExtraChargeStatus string

const (
	ExtraChargePending   ExtraChargeStatus = "pending"
	ExtraChargePaid      ExtraChargeStatus = "paid"
	ExtraChargeDeclined  ExtraChargeStatus = "declined"
	ExtraChargeCancelled ExtraChargeStatus = "cancelled"
	ExtraChargeExpired   ExtraChargeStatus = "expired"
)

// Terminal reports whether the charge may still change state. Everything but
// pending is terminal.
func (s ExtraChargeStatus) Terminal() bool {
	return s != ExtraChargePending
}

// ExtraCharge is a post-booking additional charge the customer must approve
// before its expiry. Created by the owning company, paid or declined by the
// customer, cancelled by the company, or expired by the background sweep.
// Never deleted.
type ExtraCharge struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"` // ECH-YYYY-XXXXXXX
	BookingID int64  `json:"booking_id"`

	Description string         `json:"description"`
	Price       PriceBreakdown `json:"price"`

	Status    ExtraChargeStatus `json:"status"`
	ChargeID  string            `json:"charge_id,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the charge is past its expiry at the given instant.
func (e *ExtraCharge) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
