package domain

import "time"

type PaymentState string

const (
	PaymentStateCreated  PaymentState = "created"
	PaymentStatePending  PaymentState = "pending"
	PaymentStatePaid     PaymentState = "paid"
	PaymentStateFailed   PaymentState = "failed"
	PaymentStateRefunded PaymentState = "refunded"
)

// Payment is the one-to-one processor-side record for a booking charge.
type Payment struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"` // PAY-YYYY-XXXXXXX
	BookingID int64  `json:"booking_id"`

	ChargeID    string `json:"charge_id,omitempty"` // processor charge reference
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`

	Status      PaymentState `json:"status"`
	CheckoutURL string       `json:"checkout_url,omitempty"`
	RawCallback string       `json:"-"`
	FailReason  string       `json:"fail_reason,omitempty"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
