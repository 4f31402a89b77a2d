package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shipslot/internal/domain"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestPrice_FlatModel(t *testing.T) {
	got, err := Price(domain.PricingFlat, nil, nil, fptr(100), nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 100.0, got)

	_, err = Price(domain.PricingFlat, nil, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrRateNotSet)
}

func TestPrice_PerKgModel(t *testing.T) {
	got, err := Price(domain.PricingPerKg, fptr(5), nil, nil, fptr(10), nil)
	assert.NoError(t, err)
	assert.Equal(t, 50.0, got)

	_, err = Price(domain.PricingPerKg, nil, nil, nil, fptr(10), nil)
	assert.ErrorIs(t, err, ErrRateNotSet)

	_, err = Price(domain.PricingPerKg, fptr(5), nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrQuantityMissing)

	_, err = Price(domain.PricingPerKg, fptr(5), nil, nil, fptr(-1), nil)
	assert.ErrorIs(t, err, ErrQuantityValidation)
}

func TestPrice_PerItemModel(t *testing.T) {
	got, err := Price(domain.PricingPerItem, nil, fptr(2.5), nil, nil, iptr(4))
	assert.NoError(t, err)
	assert.Equal(t, 10.0, got)

	_, err = Price(domain.PricingPerItem, nil, fptr(2.5), nil, nil, nil)
	assert.ErrorIs(t, err, ErrQuantityMissing)

	_, err = Price(domain.PricingPerItem, nil, nil, nil, nil, iptr(4))
	assert.ErrorIs(t, err, ErrRateNotSet)

	_, err = Price(domain.PricingPerItem, nil, fptr(2.5), nil, nil, iptr(0))
	assert.ErrorIs(t, err, ErrQuantityValidation)
}

func TestPrice_UnknownModel(t *testing.T) {
	_, err := Price(domain.PricingModel("hourly"), nil, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(10000), MinorUnits(100))
	assert.Equal(t, int64(1050), MinorUnits(10.5))
	assert.Equal(t, int64(1), MinorUnits(0.005))
}

func TestQuote_BreakdownIdentity(t *testing.T) {
	p := FeePolicy{CommissionBps: 1500, ProcessorBps: 290, ProcessorFixed: 30}

	for _, base := range []int64{1, 99, 100, 2500, 9999, 100000, 7777777} {
		b := p.Quote(base)
		assert.Equal(t, base, b.Base)
		assert.Equal(t, b.Total-b.Base-b.AdminFee, b.ProcessingFee, "base=%d", base)
		assert.GreaterOrEqual(t, b.ProcessingFee, int64(0), "base=%d", base)
	}
}

func TestQuote_DefaultCommission(t *testing.T) {
	b := FeePolicy{ProcessorBps: 290, ProcessorFixed: 30}.Quote(10000)
	assert.Equal(t, 1500, b.CommissionBps)
	assert.Equal(t, int64(1500), b.AdminFee)
}

func TestQuote_MonotonicInBase(t *testing.T) {
	p := FeePolicy{CommissionBps: 1500, ProcessorBps: 365}

	prev := int64(-1)
	for base := int64(0); base <= 5000; base += 7 {
		b := p.Quote(base)
		assert.GreaterOrEqual(t, b.Total, prev, "base=%d", base)
		prev = b.Total
	}
}

func TestQuote_NeverUnderCollects(t *testing.T) {
	p := FeePolicy{CommissionBps: 1500, ProcessorBps: 290, ProcessorFixed: 30}

	for _, base := range []int64{1, 50, 999, 12345, 1000000} {
		b := p.Quote(base)
		// what the processor leaves after its percentage-plus-fixed cut
		netTimes10000 := b.Total*(10000-290) - 30*10000
		assert.GreaterOrEqual(t, netTimes10000, (b.Base+b.AdminFee)*10000, "base=%d", base)
	}
}

func TestCommissionForPlan(t *testing.T) {
	assert.Equal(t, 1500, CommissionForPlan(domain.PlanFree))
	assert.Equal(t, 1200, CommissionForPlan(domain.PlanStarter))
	assert.Equal(t, 1000, CommissionForPlan(domain.PlanPro))
	assert.True(t, AdminFeeDeducted(domain.PlanFree))
	assert.False(t, AdminFeeDeducted(domain.PlanPro))
}
