package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shipslot/internal/domain"
	"shipslot/internal/modules/pricing"
	"shipslot/internal/pkg/sequence"
	"shipslot/internal/repository"
)

// Mock repositories

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreateReserved(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	if b != nil && args.Error(0) == nil {
		b.ID = 999 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockBookingRepository) ReleaseCapacity(ctx context.Context, bookingID int64) (bool, error) {
	args := m.Called(ctx, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockBookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockBookingRepository) SetLabelURL(ctx context.Context, id int64, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *MockBookingRepository) ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]domain.Booking, error) {
	args := m.Called(ctx, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]domain.Booking, error) {
	args := m.Called(ctx, companyID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockSlotRepository struct {
	mock.Mock
}

func (m *MockSlotRepository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Slot), args.Error(1)
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

type MockLabelGenerator struct {
	mock.Mock
}

func (m *MockLabelGenerator) Generate(ctx context.Context, b *domain.Booking) (string, error) {
	args := m.Called(ctx, b)
	return args.String(0), args.Error(1)
}

type MockImageDeleter struct {
	mock.Mock
}

func (m *MockImageDeleter) DeleteImages(ctx context.Context, urls []string) error {
	args := m.Called(ctx, urls)
	return args.Error(0)
}

type MockRefundInitiator struct {
	mock.Mock
}

func (m *MockRefundInitiator) RefundBooking(ctx context.Context, bookingID int64) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

type testDeps struct {
	bookings  *MockBookingRepository
	slots     *MockSlotRepository
	companies *MockCompanyReader
	allocator *MockAllocator
	notifs    *MockNotifier
	labels    *MockLabelGenerator
	images    *MockImageDeleter
	refunds   *MockRefundInitiator
}

func newTestService() (*Service, *testDeps) {
	d := &testDeps{
		bookings:  new(MockBookingRepository),
		slots:     new(MockSlotRepository),
		companies: new(MockCompanyReader),
		allocator: new(MockAllocator),
		notifs:    new(MockNotifier),
		labels:    new(MockLabelGenerator),
		images:    new(MockImageDeleter),
		refunds:   new(MockRefundInitiator),
	}
	fees := pricing.FeePolicy{ProcessorBps: 290, ProcessorFixed: 30}
	svc := NewService(d.bookings, d.slots, d.companies, d.allocator, d.notifs,
		d.labels, d.images, d.refunds, fees, nil)
	return svc, d
}

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func perKgSlot() *domain.Slot {
	return &domain.Slot{
		ID:                10,
		CompanyID:         5,
		Pricing:           domain.PricingPerKg,
		PricePerKg:        ptrF(5.0),
		RemainingWeightKg: ptrF(100),
		Published:         true,
	}
}

func TestService_CreateBooking_Success(t *testing.T) {
	svc, d := newTestService()

	d.slots.On("GetByID", mock.Anything, int64(10)).Return(perKgSlot(), nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 1, Plan: domain.PlanFree}, nil)
	d.allocator.On("Allocate", mock.Anything, sequence.FamilyBooking).
		Return("BKG-2026-0000001", nil)
	d.bookings.On("CreateReserved", mock.Anything, mock.Anything).Return(nil)
	d.notifs.On("Notify", mock.Anything, int64(1), domain.NotifBookingCreated,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	b, err := svc.CreateBooking(context.Background(), 42, CreateBookingRequest{
		SlotID:            10,
		RequestedWeightKg: ptrF(10),
		PickupMethod:      "dropoff",
		DeliveryMethod:    "courier",
		DeliveryAddress:   "somewhere",
	})

	assert.NoError(t, err)
	assert.Equal(t, "BKG-2026-0000001", b.Reference)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, domain.PaymentUnpaid, b.PaymentStatus)

	// 10 kg at 5.00/kg = 5000 minor units; free plan commission 15%.
	assert.Equal(t, int64(5000), b.Price.Base)
	assert.Equal(t, int64(750), b.Price.AdminFee)
	assert.Equal(t, int64(5953), b.Price.Total)
	assert.Equal(t, b.Price.Total-b.Price.Base-b.Price.AdminFee, b.Price.ProcessingFee)
	assert.Equal(t, 1500, b.Price.CommissionBps)

	d.notifs.AssertCalled(t, "Notify", mock.Anything, int64(1), domain.NotifBookingCreated,
		mock.Anything, mock.Anything, mock.Anything)
}

func TestService_CreateBooking_UnpublishedSlot(t *testing.T) {
	svc, d := newTestService()

	slot := perKgSlot()
	slot.Published = false
	d.slots.On("GetByID", mock.Anything, int64(10)).Return(slot, nil)

	_, err := svc.CreateBooking(context.Background(), 42, CreateBookingRequest{
		SlotID:            10,
		RequestedWeightKg: ptrF(10),
		PickupMethod:      "dropoff",
		DeliveryMethod:    "courier",
	})

	assert.ErrorIs(t, err, ErrSlotNotPublished)
	d.bookings.AssertNotCalled(t, "CreateReserved", mock.Anything, mock.Anything)
}

func TestService_CreateBooking_WrongQuantityKind(t *testing.T) {
	svc, d := newTestService()
	d.slots.On("GetByID", mock.Anything, int64(10)).Return(perKgSlot(), nil)

	// items on a per-kg slot
	_, err := svc.CreateBooking(context.Background(), 42, CreateBookingRequest{
		SlotID:         10,
		RequestedItems: ptrI(3),
		PickupMethod:   "dropoff",
		DeliveryMethod: "courier",
	})
	assert.ErrorIs(t, err, ErrValidation)

	// no quantity at all
	_, err = svc.CreateBooking(context.Background(), 42, CreateBookingRequest{
		SlotID:         10,
		PickupMethod:   "dropoff",
		DeliveryMethod: "courier",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_CreateBooking_CapacityExceeded(t *testing.T) {
	svc, d := newTestService()

	slot := perKgSlot()
	slot.RemainingWeightKg = ptrF(5)
	d.slots.On("GetByID", mock.Anything, int64(10)).Return(slot, nil)

	_, err := svc.CreateBooking(context.Background(), 42, CreateBookingRequest{
		SlotID:            10,
		RequestedWeightKg: ptrF(10),
		PickupMethod:      "dropoff",
		DeliveryMethod:    "courier",
	})

	assert.ErrorIs(t, err, ErrInsufficientCapacity)
	d.allocator.AssertNotCalled(t, "Allocate", mock.Anything, mock.Anything)
}

func TestService_CreateBooking_LostRace(t *testing.T) {
	svc, d := newTestService()

	// The advisory check passes but the transactional decrement loses.
	d.slots.On("GetByID", mock.Anything, int64(10)).Return(perKgSlot(), nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 1, Plan: domain.PlanPro}, nil)
	d.allocator.On("Allocate", mock.Anything, sequence.FamilyBooking).
		Return("BKG-2026-0000002", nil)
	d.bookings.On("CreateReserved", mock.Anything, mock.Anything).
		Return(repository.ErrInsufficientCapacity)

	_, err := svc.CreateBooking(context.Background(), 42, CreateBookingRequest{
		SlotID:            10,
		RequestedWeightKg: ptrF(10),
		PickupMethod:      "dropoff",
		DeliveryMethod:    "courier",
	})

	assert.ErrorIs(t, err, ErrInsufficientCapacity)
	d.notifs.AssertNotCalled(t, "Notify",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_PreviewQuote_FlatSlot(t *testing.T) {
	svc, d := newTestService()

	slot := &domain.Slot{
		ID:        11,
		CompanyID: 5,
		Pricing:   domain.PricingFlat,
		PriceFlat: ptrF(100),
		Published: true,
	}
	d.slots.On("GetByID", mock.Anything, int64(11)).Return(slot, nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 1, Plan: domain.PlanStarter}, nil)

	q, err := svc.PreviewQuote(context.Background(), QuoteRequest{SlotID: 11})

	assert.NoError(t, err)
	assert.Equal(t, int64(10000), q.Base)
	assert.Equal(t, 1200, q.CommissionBps)
	assert.Equal(t, q.Total, q.Base+q.AdminFee+q.ProcessingFee)
}

func pendingBooking() *domain.Booking {
	return &domain.Booking{
		ID:                999,
		Reference:         "BKG-2026-0000001",
		SlotID:            10,
		CustomerID:        42,
		CompanyID:         5,
		RequestedWeightKg: ptrF(10),
		Status:            domain.BookingPending,
		PaymentStatus:     domain.PaymentPaid,
	}
}

func TestService_Accept_Success(t *testing.T) {
	svc, d := newTestService()

	b := pendingBooking()
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(b, nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7}, nil)
	d.bookings.On("UpdateStatus", mock.Anything, int64(999), domain.BookingAccepted).Return(nil)
	d.labels.On("Generate", mock.Anything, mock.Anything).Return("https://labels/999.pdf", nil)
	d.bookings.On("SetLabelURL", mock.Anything, int64(999), "https://labels/999.pdf").Return(nil)
	d.notifs.On("Notify", mock.Anything, int64(42), domain.NotifBookingAccepted,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Accept(context.Background(), 999, 7)

	assert.NoError(t, err)
	d.bookings.AssertCalled(t, "UpdateStatus", mock.Anything, int64(999), domain.BookingAccepted)
	d.bookings.AssertCalled(t, "SetLabelURL", mock.Anything, int64(999), "https://labels/999.pdf")
}

func TestService_Accept_UnpaidBlocked(t *testing.T) {
	svc, d := newTestService()

	b := pendingBooking()
	b.PaymentStatus = domain.PaymentUnpaid
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(b, nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7}, nil)

	_, err := svc.Accept(context.Background(), 999, 7)

	assert.ErrorIs(t, err, ErrPaymentRequired)
	d.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Accept_NotOwner(t *testing.T) {
	svc, d := newTestService()

	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(pendingBooking(), nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7}, nil)

	_, err := svc.Accept(context.Background(), 999, 8)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_Accept_LabelFailureDoesNotBlock(t *testing.T) {
	svc, d := newTestService()

	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(pendingBooking(), nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7}, nil)
	d.bookings.On("UpdateStatus", mock.Anything, int64(999), domain.BookingAccepted).Return(nil)
	d.labels.On("Generate", mock.Anything, mock.Anything).Return("", assert.AnError)
	d.notifs.On("Notify", mock.Anything, int64(42), domain.NotifBookingAccepted,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Accept(context.Background(), 999, 7)

	assert.NoError(t, err)
	d.bookings.AssertNotCalled(t, "SetLabelURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Reject_ReleasesAndRefunds(t *testing.T) {
	svc, d := newTestService()

	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(pendingBooking(), nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7}, nil)
	d.bookings.On("UpdateStatus", mock.Anything, int64(999), domain.BookingRejected).Return(nil)
	d.bookings.On("ReleaseCapacity", mock.Anything, int64(999)).Return(true, nil)
	d.refunds.On("RefundBooking", mock.Anything, int64(999)).Return(nil)
	d.notifs.On("Notify", mock.Anything, int64(42), domain.NotifBookingRejected,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Reject(context.Background(), 999, 7)

	assert.NoError(t, err)
	d.bookings.AssertCalled(t, "ReleaseCapacity", mock.Anything, int64(999))
	d.refunds.AssertCalled(t, "RefundBooking", mock.Anything, int64(999))
}

func TestService_Reject_UnpaidSkipsRefund(t *testing.T) {
	svc, d := newTestService()

	b := pendingBooking()
	b.PaymentStatus = domain.PaymentUnpaid
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(b, nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7}, nil)
	d.bookings.On("UpdateStatus", mock.Anything, int64(999), domain.BookingRejected).Return(nil)
	d.bookings.On("ReleaseCapacity", mock.Anything, int64(999)).Return(true, nil)
	d.notifs.On("Notify", mock.Anything, int64(42), domain.NotifBookingRejected,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Reject(context.Background(), 999, 7)

	assert.NoError(t, err)
	d.refunds.AssertNotCalled(t, "RefundBooking", mock.Anything, mock.Anything)
}

func TestService_Reject_RefundFailureDoesNotBlock(t *testing.T) {
	svc, d := newTestService()

	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(pendingBooking(), nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7}, nil)
	d.bookings.On("UpdateStatus", mock.Anything, int64(999), domain.BookingRejected).Return(nil)
	d.bookings.On("ReleaseCapacity", mock.Anything, int64(999)).Return(true, nil)
	d.refunds.On("RefundBooking", mock.Anything, int64(999)).Return(assert.AnError)
	d.notifs.On("Notify", mock.Anything, int64(42), domain.NotifBookingRejected,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Reject(context.Background(), 999, 7)
	assert.NoError(t, err)
}

func TestService_Cancel_ByCustomer(t *testing.T) {
	svc, d := newTestService()

	b := pendingBooking()
	b.Status = domain.BookingAccepted
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(b, nil)
	d.bookings.On("UpdateStatus", mock.Anything, int64(999), domain.BookingCancelled).Return(nil)
	d.bookings.On("ReleaseCapacity", mock.Anything, int64(999)).Return(true, nil)
	d.notifs.On("Notify", mock.Anything, int64(42), domain.NotifBookingCancelled,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Cancel(context.Background(), 999, 42, domain.RoleCustomer, "changed plans")

	assert.NoError(t, err)
	d.bookings.AssertCalled(t, "ReleaseCapacity", mock.Anything, int64(999))
	// cancellation never refunds inline
	d.refunds.AssertNotCalled(t, "RefundBooking", mock.Anything, mock.Anything)
}

func TestService_Cancel_ForeignCustomer(t *testing.T) {
	svc, d := newTestService()

	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(pendingBooking(), nil)

	_, err := svc.Cancel(context.Background(), 999, 43, domain.RoleCustomer, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_Cancel_AlreadyReleasedIsFine(t *testing.T) {
	svc, d := newTestService()

	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(pendingBooking(), nil)
	d.bookings.On("UpdateStatus", mock.Anything, int64(999), domain.BookingCancelled).Return(nil)
	d.bookings.On("ReleaseCapacity", mock.Anything, int64(999)).Return(false, nil)
	d.notifs.On("Notify", mock.Anything, int64(42), domain.NotifBookingCancelled,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Cancel(context.Background(), 999, 42, domain.RoleCustomer, "")
	assert.NoError(t, err)
}

func TestService_TerminalStatesAreFrozen(t *testing.T) {
	svc, d := newTestService()

	for _, status := range []domain.BookingStatus{
		domain.BookingRejected, domain.BookingCancelled, domain.BookingDelivered,
	} {
		b := pendingBooking()
		b.Status = status
		d.bookings.ExpectedCalls = nil
		d.companies.ExpectedCalls = nil
		d.bookings.On("GetByID", mock.Anything, int64(999)).Return(b, nil)
		d.companies.On("GetByID", mock.Anything, int64(5)).
			Return(&domain.Company{ID: 5, OwnerID: 7}, nil)

		_, err := svc.Accept(context.Background(), 999, 7)
		assert.ErrorIs(t, err, ErrInvalidStatusTransition, "accept from %s", status)

		_, err = svc.Cancel(context.Background(), 999, 42, domain.RoleCustomer, "")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition, "cancel from %s", status)
	}
}

func TestService_DeliveryPath(t *testing.T) {
	svc, d := newTestService()

	b := pendingBooking()
	b.Status = domain.BookingAccepted
	d.bookings.On("GetByID", mock.Anything, int64(999)).Return(b, nil)
	d.companies.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Company{ID: 5, OwnerID: 7}, nil)
	d.bookings.On("UpdateStatus", mock.Anything, int64(999), domain.BookingInTransit).Return(nil)

	_, err := svc.MarkInTransit(context.Background(), 999, 7)
	assert.NoError(t, err)

	b.Status = domain.BookingInTransit
	d.bookings.On("UpdateStatus", mock.Anything, int64(999), domain.BookingDelivered).Return(nil)
	d.notifs.On("Notify", mock.Anything, int64(42), domain.NotifBookingDelivered,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err = svc.MarkDelivered(context.Background(), 999, 7)
	assert.NoError(t, err)

	// in_transit cannot be cancelled
	_, err = svc.Cancel(context.Background(), 999, 42, domain.RoleCustomer, "")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}
