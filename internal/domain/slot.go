package domain

import "time"

type PricingModel string

const (
	PricingFlat    PricingModel = "flat"
	PricingPerKg   PricingModel = "per_kg"
	PricingPerItem PricingModel = "per_item"
)

// Slot is a scheduled transport capacity offering on a fixed lane.
// The remaining_* counters are the capacity ledger: the source of truth for
// oversell prevention, mutated only inside a transaction that also writes the
// dependent booking row.
type Slot struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id" validate:"required"`
	Origin    string `json:"origin" validate:"required"`
	Dest      string `json:"dest" validate:"required"`

	DepartureAt time.Time    `json:"departure_at"`
	Pricing     PricingModel `json:"pricing_model"`

	// Rates in major currency units; only the one matching Pricing is set.
	PriceFlat    *float64 `json:"price_flat,omitempty"`
	PricePerKg   *float64 `json:"price_per_kg,omitempty"`
	PricePerItem *float64 `json:"price_per_item,omitempty"`

	// Independent nullable capacity counters. A flat-priced slot carries
	// neither; its only capacity control is Published.
	RemainingWeightKg *float64 `json:"remaining_weight_kg,omitempty"`
	RemainingItems    *int     `json:"remaining_items,omitempty"`

	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CapacityBearing reports whether the slot tracks a quantity at all.
func (s *Slot) CapacityBearing() bool {
	return s.Pricing != PricingFlat
}
