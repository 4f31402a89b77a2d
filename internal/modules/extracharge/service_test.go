package extracharge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"shipslot/internal/domain"
	"shipslot/internal/modules/payment"
	"shipslot/internal/modules/pricing"
	"shipslot/internal/pkg/sequence"
)

type MockExtraChargeRepo struct {
	mock.Mock
}

func (m *MockExtraChargeRepo) Create(ctx context.Context, e *domain.ExtraCharge) error {
	args := m.Called(ctx, e)
	if e != nil && args.Error(0) == nil {
		e.ID = 77
	}
	return args.Error(0)
}

func (m *MockExtraChargeRepo) GetByID(ctx context.Context, id int64) (*domain.ExtraCharge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtraCharge), args.Error(1)
}

func (m *MockExtraChargeRepo) GetByChargeID(ctx context.Context, chargeID string) (*domain.ExtraCharge, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtraCharge), args.Error(1)
}

func (m *MockExtraChargeRepo) ListByBooking(ctx context.Context, bookingID int64) ([]domain.ExtraCharge, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExtraCharge), args.Error(1)
}

func (m *MockExtraChargeRepo) TransitionIf(ctx context.Context, id int64, from, to domain.ExtraChargeStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockExtraChargeRepo) SetChargeID(ctx context.Context, id int64, chargeID string) error {
	args := m.Called(ctx, id, chargeID)
	return args.Error(0)
}

func (m *MockExtraChargeRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockBookingReader struct {
	mock.Mock
}

func (m *MockBookingReader) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockCompanyReader struct {
	mock.Mock
}

func (m *MockCompanyReader) GetByID(ctx context.Context, id int64) (*domain.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

type MockAllocator struct {
	mock.Mock
}

func (m *MockAllocator) Allocate(ctx context.Context, fam sequence.Family) (string, error) {
	args := m.Called(ctx, fam)
	return args.String(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, target int64, typ domain.NotificationType, title, body string, meta map[string]any) error {
	args := m.Called(ctx, target, typ, title, body, meta)
	return args.Error(0)
}

type MockCheckoutOpener struct {
	mock.Mock
}

func (m *MockCheckoutOpener) CreateCharge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ChargeResult), args.Error(1)
}

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

type chargeDeps struct {
	charges   *MockExtraChargeRepo
	bookings  *MockBookingReader
	companies *MockCompanyReader
	allocator *MockAllocator
	notifs    *MockNotifier
	proc      *MockCheckoutOpener
}

func newChargeService() (*Service, *chargeDeps) {
	d := &chargeDeps{
		charges:   new(MockExtraChargeRepo),
		bookings:  new(MockBookingReader),
		companies: new(MockCompanyReader),
		allocator: new(MockAllocator),
		notifs:    new(MockNotifier),
		proc:      new(MockCheckoutOpener),
	}
	fees := pricing.FeePolicy{ProcessorBps: 290, ProcessorFixed: 30}
	svc := NewService(d.charges, d.bookings, d.companies, d.allocator, d.notifs,
		d.proc, fees, "thb", 72*time.Hour, nil)
	svc.now = func() time.Time { return testNow }
	return svc, d
}

func acceptedBooking() *domain.Booking {
	return &domain.Booking{
		ID:         999,
		Reference:  "BKG-2026-0000001",
		CustomerID: 42,
		CompanyID:  5,
		Status:     domain.BookingAccepted,
	}
}

func pendingCharge() *domain.ExtraCharge {
	return &domain.ExtraCharge{
		ID:        77,
		Reference: "ECH-2026-0000001",
		BookingID: 999,
		Price: domain.PriceBreakdown{
			Base: 2000, AdminFee: 300, ProcessingFee: 99, Total: 2399, CommissionBps: 1500,
		},
		Status:    domain.ExtraChargePending,
		ExpiresAt: testNow.Add(24 * time.Hour),
	}
}

func TestService_Create_FreezesCommission(t *testing.T) {
	svc, d := newChargeService()

	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(acceptedBooking(), nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7, Plan: domain.PlanStarter}, nil)
	d.allocator.On("Allocate", mock.Anything, sequence.FamilyExtraCharge).
		Return("ECH-2026-0000001", nil)
	d.charges.On("Create", mock.Anything, mock.Anything).Return(nil)
	d.notifs.On("Notify", mock.Anything, int64(42), domain.NotifExtraCharge,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	e, err := svc.Create(context.Background(), 7, CreateExtraChargeRequest{
		BookingID:   999,
		Description: "oversized parcel",
		Amount:      20,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.ExtraChargePending, e.Status)
	assert.Equal(t, int64(2000), e.Price.Base)
	assert.Equal(t, 1200, e.Price.CommissionBps)
	assert.Equal(t, testNow.Add(72*time.Hour), e.ExpiresAt)
	assert.Equal(t, e.Price.Total, e.Price.Base+e.Price.AdminFee+e.Price.ProcessingFee)
}

func TestService_Create_NotOwner(t *testing.T) {
	svc, d := newChargeService()

	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(acceptedBooking(), nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7}, nil)

	_, err := svc.Create(context.Background(), 8, CreateExtraChargeRequest{
		BookingID: 999, Description: "x", Amount: 5,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_Create_InactiveBooking(t *testing.T) {
	svc, d := newChargeService()

	for _, status := range []domain.BookingStatus{
		domain.BookingPending, domain.BookingCancelled, domain.BookingRejected,
	} {
		b := acceptedBooking()
		b.Status = status
		d.bookings.ExpectedCalls = nil
		d.companies.ExpectedCalls = nil
		d.bookings.On("GetByID", mock.Anything, int64(999)).Return(b, nil)
		d.companies.On("GetByID", mock.Anything, int64(5)).
			Return(&domain.Company{ID: 5, OwnerID: 7}, nil)

		_, err := svc.Create(context.Background(), 7, CreateExtraChargeRequest{
			BookingID: 999, Description: "x", Amount: 5,
		})
		assert.ErrorIs(t, err, ErrBookingInactive, "status %s", status)
	}
}

func TestService_Pay_Success_FeeSplit(t *testing.T) {
	svc, d := newChargeService()

	d.charges.On("GetByID", mock.Anything, int64(77)).Return(pendingCharge(), nil)
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(acceptedBooking(), nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7, Plan: domain.PlanFree, ProcessorAccount: "acct_x"}, nil)
	d.proc.On("CreateCharge", mock.Anything, mock.MatchedBy(func(req payment.ChargeRequest) bool {
		return req.AmountMinor == 2399 &&
			req.Destination == "acct_x" &&
			req.PlatformFeeMinor == 300
	})).Return(&payment.ChargeResult{ChargeID: "chrg_1", AuthorizeURI: "https://pay/1"}, nil)
	d.charges.On("SetChargeID", mock.Anything, int64(77), "chrg_1").Return(nil)

	res, err := svc.Pay(context.Background(), 77, 42, PayExtraChargeRequest{SourceID: "src_1"})

	assert.NoError(t, err)
	assert.Equal(t, "chrg_1", res.ChargeID)
	assert.Equal(t, "https://pay/1", res.AuthorizeURI)
}

func TestService_Pay_Expired(t *testing.T) {
	svc, d := newChargeService()

	e := pendingCharge()
	e.ExpiresAt = testNow.Add(-time.Minute)
	d.charges.On("GetByID", mock.Anything, int64(77)).Return(e, nil)
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(acceptedBooking(), nil)
	d.charges.On("TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargeExpired).Return(true, nil)

	_, err := svc.Pay(context.Background(), 77, 42, PayExtraChargeRequest{SourceID: "src_1"})

	assert.ErrorIs(t, err, ErrExpired)
	d.charges.AssertCalled(t, "TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargeExpired)
	d.proc.AssertNotCalled(t, "CreateCharge", mock.Anything, mock.Anything)
}

func TestService_Pay_ForeignCustomer(t *testing.T) {
	svc, d := newChargeService()

	d.charges.On("GetByID", mock.Anything, int64(77)).Return(pendingCharge(), nil)
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(acceptedBooking(), nil)

	_, err := svc.Pay(context.Background(), 77, 43, PayExtraChargeRequest{SourceID: "src_1"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_Decline_OneShot(t *testing.T) {
	svc, d := newChargeService()

	d.charges.On("GetByID", mock.Anything, int64(77)).Return(pendingCharge(), nil)
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(acceptedBooking(), nil)
	d.charges.On("TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargeDeclined).Return(true, nil).Once()
	d.charges.On("TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargeDeclined).Return(false, nil)

	_, err := svc.Decline(context.Background(), 77, 42)
	assert.NoError(t, err)

	_, err = svc.Decline(context.Background(), 77, 42)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestService_Decline_Expired(t *testing.T) {
	svc, d := newChargeService()

	e := pendingCharge()
	e.ExpiresAt = testNow.Add(-time.Hour)
	d.charges.On("GetByID", mock.Anything, int64(77)).Return(e, nil)
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(acceptedBooking(), nil)
	d.charges.On("TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargeExpired).Return(true, nil)

	_, err := svc.Decline(context.Background(), 77, 42)

	assert.ErrorIs(t, err, ErrExpired)
	d.charges.AssertCalled(t, "TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargeExpired)
	d.charges.AssertNotCalled(t, "TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargeDeclined)
}

func TestService_CancelByCompany(t *testing.T) {
	svc, d := newChargeService()

	d.charges.On("GetByID", mock.Anything, int64(77)).Return(pendingCharge(), nil)
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(acceptedBooking(), nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7}, nil)
	d.charges.On("TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargeCancelled).Return(true, nil)

	_, err := svc.CancelByCompany(context.Background(), 77, 7)
	assert.NoError(t, err)

	_, err = svc.CancelByCompany(context.Background(), 77, 8)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_CancelByCompany_Expired(t *testing.T) {
	svc, d := newChargeService()

	e := pendingCharge()
	e.ExpiresAt = testNow.Add(-time.Hour)
	d.charges.On("GetByID", mock.Anything, int64(77)).Return(e, nil)
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(acceptedBooking(), nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7}, nil)
	d.charges.On("TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargeExpired).Return(true, nil)

	_, err := svc.CancelByCompany(context.Background(), 77, 7)

	assert.ErrorIs(t, err, ErrExpired)
	d.charges.AssertNotCalled(t, "TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargeCancelled)
}

func TestService_HandleChargePaid(t *testing.T) {
	svc, d := newChargeService()

	d.charges.On("GetByChargeID", mock.Anything, "chrg_1").Return(pendingCharge(), nil)
	d.charges.On("TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargePaid).Return(true, nil).Once()
	d.charges.On("TransitionIf", mock.Anything, int64(77),
		domain.ExtraChargePending, domain.ExtraChargePaid).Return(false, nil)

	assert.NoError(t, svc.HandleChargePaid(context.Background(), "chrg_1"))
	// duplicate delivery is a no-op, not an error
	assert.NoError(t, svc.HandleChargePaid(context.Background(), "chrg_1"))
}

func TestService_HandleChargePaid_UnknownCharge(t *testing.T) {
	svc, d := newChargeService()

	d.charges.On("GetByChargeID", mock.Anything, "chrg_other").
		Return(nil, gorm.ErrRecordNotFound)

	assert.NoError(t, svc.HandleChargePaid(context.Background(), "chrg_other"))
}

func TestService_ListByBooking_LazyExpire(t *testing.T) {
	svc, d := newChargeService()

	stale := *pendingCharge()
	stale.ID = 78
	stale.ExpiresAt = testNow.Add(-time.Hour)
	fresh := *pendingCharge()

	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(acceptedBooking(), nil)
	d.charges.On("ListByBooking", mock.Anything, int64(999)).
		Return([]domain.ExtraCharge{stale, fresh}, nil)
	d.charges.On("TransitionIf", mock.Anything, int64(78),
		domain.ExtraChargePending, domain.ExtraChargeExpired).Return(true, nil)

	charges, err := svc.ListByBooking(context.Background(), 999, 42)

	assert.NoError(t, err)
	assert.Equal(t, domain.ExtraChargeExpired, charges[0].Status)
	assert.Equal(t, domain.ExtraChargePending, charges[1].Status)
}

func TestService_Sweep(t *testing.T) {
	svc, d := newChargeService()

	d.charges.On("ExpireDue", mock.Anything, testNow).Return(int64(3), nil)

	n, err := svc.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
