package domain

import "time"

// PlanTier is a carrier company's subscription tier. It decides the platform
// commission rate and whether the admin fee is platform margin or deducted
// from the company's payout.
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanStarter PlanTier = "starter"
	PlanPro     PlanTier = "pro"
)

// Company is a carrier offering slots on fixed lanes.
type Company struct {
	ID      int64    `json:"id"`
	OwnerID int64    `json:"owner_id"`
	Name    string   `json:"name" validate:"required"`
	Plan    PlanTier `json:"plan"`

	// Destination account at the payment processor for fee-split checkouts.
	ProcessorAccount string `json:"processor_account,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
