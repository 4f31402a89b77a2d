package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shipslot/internal/domain"
	"shipslot/internal/modules/pricing"
	"shipslot/internal/pkg/sequence"
)

type Service struct {
	payments  paymentRepo
	bookings  bookingStore
	companies companyReader
	allocator refAllocator
	proc      Processor
	currency  string
	loggerf   func(format string, args ...interface{})
}

func NewService(payments paymentRepo, bookings bookingStore, companies companyReader, allocator refAllocator, proc Processor, currency string, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	if currency == "" {
		currency = "thb"
	}
	return &Service{
		payments:  payments,
		bookings:  bookings,
		companies: companies,
		allocator: allocator,
		proc:      proc,
		currency:  currency,
		loggerf:   loggerf,
	}
}

// CreateCheckout opens a processor checkout for a pending, unpaid booking.
// Processor failures here are surfaced and blocking: without a checkout the
// customer cannot pay. The admin-fee disposition is evaluated against the
// company's plan now, at charge-request time.
func (s *Service) CreateCheckout(ctx context.Context, bookingID, customerID int64, sourceID, returnURI string) (*domain.Payment, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, ErrNotFound
	}
	if b.Status != domain.BookingPending || b.PaymentStatus != domain.PaymentUnpaid {
		return nil, ErrNotPayable
	}

	req := ChargeRequest{
		AmountMinor:    b.Price.Total,
		Currency:       s.currency,
		Description:    fmt.Sprintf("Booking %s", b.Reference),
		SourceID:       sourceID,
		ReturnURI:      returnURI,
		IdempotencyKey: uuid.NewString(),
	}
	if company, err := s.companies.GetByID(ctx, b.CompanyID); err == nil {
		if pricing.AdminFeeDeducted(company.Plan) && company.ProcessorAccount != "" {
			req.Destination = company.ProcessorAccount
			req.PlatformFeeMinor = b.Price.AdminFee
		}
	} else {
		s.loggerf("level=error msg=company lookup failed on checkout booking_id=%d err=%v", bookingID, err)
	}

	res, err := s.proc.CreateCharge(ctx, req)
	if err != nil {
		return nil, err
	}

	ref, err := s.allocator.Allocate(ctx, sequence.FamilyPayment)
	if err != nil {
		return nil, fmt.Errorf("allocate payment reference: %w", err)
	}

	p := &domain.Payment{
		Reference:   ref,
		BookingID:   b.ID,
		ChargeID:    res.ChargeID,
		AmountMinor: b.Price.Total,
		Currency:    s.currency,
		Status:      domain.PaymentStateCreated,
		CheckoutURL: res.AuthorizeURI,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}
	return p, nil
}

// HandleChargePaid is the success path called back by the webhook layer. It
// is idempotent: a repeated callback for an already-paid charge only logs.
func (s *Service) HandleChargePaid(ctx context.Context, chargeID, rawBody string) error {
	p, err := s.payments.GetByChargeID(ctx, chargeID)
	if err != nil {
		return err
	}

	changed, err := s.payments.MarkPaidIdempotent(ctx, chargeID, rawBody, time.Now().UTC())
	if err != nil {
		return err
	}
	if !changed {
		s.loggerf("level=info msg=idempotent callback already paid charge_id=%s", chargeID)
		return nil
	}
	if err := s.bookings.UpdatePaymentStatus(ctx, p.BookingID, domain.PaymentPaid); err != nil {
		s.loggerf("level=error msg=failed to update booking payment status to paid booking_id=%d err=%v", p.BookingID, err)
	}
	return nil
}

// HandleChargeFailed records a failed charge; the booking stays unpaid.
func (s *Service) HandleChargeFailed(ctx context.Context, chargeID, rawBody, reason string) error {
	if _, err := s.payments.GetByChargeID(ctx, chargeID); err != nil {
		return err
	}
	return s.payments.MarkFailed(ctx, chargeID, rawBody, reason)
}

// RefundBooking issues a full refund for the booking's successful payment
// and marks both sides refunded. Callers on compensation paths treat a
// failure here as log-and-reconcile-manually, never as a blocker.
func (s *Service) RefundBooking(ctx context.Context, bookingID int64) error {
	p, err := s.payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	if p.Status != domain.PaymentStatePaid {
		return ErrNotRefundable
	}
	if err := s.proc.Refund(ctx, p.ChargeID, p.AmountMinor); err != nil {
		return err
	}
	if err := s.payments.MarkRefunded(ctx, bookingID); err != nil {
		return err
	}
	if err := s.bookings.UpdatePaymentStatus(ctx, bookingID, domain.PaymentRefunded); err != nil {
		s.loggerf("level=error msg=failed to sync booking payment status on refund booking_id=%d err=%v", bookingID, err)
	}
	return nil
}

// VerifyCharge re-reads the charge at the processor, for reconciliation.
func (s *Service) VerifyCharge(ctx context.Context, chargeID string) (*ChargeResult, error) {
	return s.proc.GetCharge(ctx, chargeID)
}

func (s *Service) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	return s.payments.GetByBookingID(ctx, bookingID)
}
