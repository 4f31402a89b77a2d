package catalog

import "time"

type CreateCompanyRequest struct {
	Name             string `json:"name" binding:"required"`
	Plan             string `json:"plan"`
	ProcessorAccount string `json:"processor_account"`
}

type UpdateCompanyRequest struct {
	Name             *string `json:"name"`
	Plan             *string `json:"plan"`
	ProcessorAccount *string `json:"processor_account"`
}

type CreateSlotRequest struct {
	Origin      string    `json:"origin" binding:"required"`
	Dest        string    `json:"dest" binding:"required"`
	DepartureAt time.Time `json:"departure_at" binding:"required"`

	PricingModel string   `json:"pricing_model" binding:"required"`
	PriceFlat    *float64 `json:"price_flat"`
	PricePerKg   *float64 `json:"price_per_kg"`
	PricePerItem *float64 `json:"price_per_item"`

	CapacityWeightKg *float64 `json:"capacity_weight_kg"`
	CapacityItems    *int     `json:"capacity_items"`
}

type SearchSlotsRequest struct {
	Origin        string    `form:"origin"`
	Dest          string    `form:"dest"`
	DepartureFrom time.Time `form:"departure_from" time_format:"2006-01-02"`
	DepartureTo   time.Time `form:"departure_to" time_format:"2006-01-02"`
	Limit         int       `form:"limit"`
	Offset        int       `form:"offset"`
}
