// Package pricing holds the pure price and fee math. Nothing here touches the
// store or the processor; everything is computable for an unpaid booking.
package pricing

import (
	"errors"

	"shipslot/internal/domain"
)

var (
	ErrRateNotSet         = errors.New("pricing: rate not set for model")
	ErrQuantityMissing    = errors.New("pricing: quantity missing for model")
	ErrQuantityValidation = errors.New("pricing: quantity must be positive")
	ErrUnknownModel       = errors.New("pricing: unknown pricing model")
)

const (
	// DefaultCommissionBps is the platform commission when the company's plan
	// does not override it: 1500 basis points = 15%.
	DefaultCommissionBps = 1500
)

// Price computes the base amount in major currency units for a requested
// quantity under the slot's pricing model. Rates and quantities are nullable;
// a missing rate for the active model is a rate error, a missing or
// non-positive quantity is a validation error.
func Price(model domain.PricingModel, perKgRate, perItemRate, flatRate *float64, weightKg *float64, items *int) (float64, error) {
	switch model {
	case domain.PricingFlat:
		if flatRate == nil {
			return 0, ErrRateNotSet
		}
		return *flatRate, nil
	case domain.PricingPerKg:
		if perKgRate == nil || *perKgRate <= 0 {
			return 0, ErrRateNotSet
		}
		if weightKg == nil {
			return 0, ErrQuantityMissing
		}
		if *weightKg <= 0 {
			return 0, ErrQuantityValidation
		}
		return *perKgRate * *weightKg, nil
	case domain.PricingPerItem:
		if perItemRate == nil || *perItemRate <= 0 {
			return 0, ErrRateNotSet
		}
		if items == nil {
			return 0, ErrQuantityMissing
		}
		if *items <= 0 {
			return 0, ErrQuantityValidation
		}
		return *perItemRate * float64(*items), nil
	default:
		return 0, ErrUnknownModel
	}
}

// PriceForSlot is the Price call wired to a slot's stored rates.
func PriceForSlot(s *domain.Slot, weightKg *float64, items *int) (float64, error) {
	return Price(s.Pricing, s.PricePerKg, s.PricePerItem, s.PriceFlat, weightKg, items)
}

// MinorUnits converts a major-unit amount to minor units, rounding half away
// from zero.
func MinorUnits(amount float64) int64 {
	if amount < 0 {
		return -MinorUnits(-amount)
	}
	return int64(amount*100 + 0.5)
}

// FeePolicy describes the processor's percentage-plus-fixed fee structure and
// the platform commission applied on top of a base amount.
type FeePolicy struct {
	CommissionBps  int   // platform commission, basis points
	ProcessorBps   int   // processor percentage fee, basis points
	ProcessorFixed int64 // processor fixed fee, minor units
}

// Quote grosses up a base amount (minor units) into the customer-facing total
// so the platform never under-collects after the processor takes its cut:
//
//	adminFee      = round(base * commission)
//	total         = ceil((base + adminFee + fixed) / (1 - processorPct))
//	processingFee = total - base - adminFee
//
// The rounding always goes against the customer, never against the platform.
func (p FeePolicy) Quote(base int64) domain.PriceBreakdown {
	bps := p.CommissionBps
	if bps <= 0 {
		bps = DefaultCommissionBps
	}
	adminFee := roundHalfUp(base*int64(bps), 10000)

	net := base + adminFee + p.ProcessorFixed
	den := int64(10000 - p.ProcessorBps)
	total := ceilDiv(net*10000, den)

	return domain.PriceBreakdown{
		Base:          base,
		AdminFee:      adminFee,
		ProcessingFee: total - base - adminFee,
		Total:         total,
		CommissionBps: bps,
	}
}

// CommissionForPlan returns the frozen commission rate for a company plan.
// The tier is evaluated at charge-creation time and stored on the booking or
// extra charge so a later plan change never alters a persisted breakdown.
func CommissionForPlan(plan domain.PlanTier) int {
	switch plan {
	case domain.PlanStarter:
		return 1200
	case domain.PlanPro:
		return 1000
	default:
		return DefaultCommissionBps
	}
}

// AdminFeeDeducted reports whether the admin fee is taken out of the
// company's payout (fee-split checkout) rather than kept as pure platform
// margin on top.
func AdminFeeDeducted(plan domain.PlanTier) bool {
	return plan == domain.PlanFree
}

func roundHalfUp(num, den int64) int64 {
	return (num + den/2) / den
}

func ceilDiv(num, den int64) int64 {
	return (num + den - 1) / den
}
