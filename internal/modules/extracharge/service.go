package extracharge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shipslot/internal/domain"
	"shipslot/internal/modules/payment"
	"shipslot/internal/modules/pricing"
	"shipslot/internal/pkg/sequence"
)

// DefaultTTL is how long a customer has to approve a pending charge.
const DefaultTTL = 72 * time.Hour

type Service struct {
	charges   extraChargeRepo
	bookings  bookingReader
	companies companyReader
	allocator refAllocator
	notifs    notifier
	proc      checkoutOpener

	fees     pricing.FeePolicy
	currency string
	ttl      time.Duration
	now      func() time.Time
	loggerf  func(format string, args ...interface{})
}

func NewService(
	charges extraChargeRepo,
	bookings bookingReader,
	companies companyReader,
	allocator refAllocator,
	notifs notifier,
	proc checkoutOpener,
	fees pricing.FeePolicy,
	currency string,
	ttl time.Duration,
	loggerf func(format string, args ...interface{}),
) *Service {
	if currency == "" {
		currency = "thb"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		charges:   charges,
		bookings:  bookings,
		companies: companies,
		allocator: allocator,
		notifs:    notifs,
		proc:      proc,
		fees:      fees,
		currency:  currency,
		ttl:       ttl,
		now:       time.Now,
		loggerf:   loggerf,
	}
}

// Create opens a pending charge against an active booking. The commission
// rate is read from the company's current plan and frozen into the breakdown,
// so a later plan change never reprices an open offer.
func (s *Service) Create(ctx context.Context, actorUserID int64, req CreateExtraChargeRequest) (*domain.ExtraCharge, error) {
	if req.Amount <= 0 || req.Description == "" {
		return nil, ErrValidation
	}

	b, err := s.booking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	company, err := s.companies.GetByID(ctx, b.CompanyID)
	if err != nil {
		return nil, err
	}
	if company.OwnerID != actorUserID {
		return nil, ErrForbidden
	}
	if b.Status.Terminal() || b.Status == domain.BookingPending {
		return nil, ErrBookingInactive
	}

	policy := s.fees
	policy.CommissionBps = pricing.CommissionForPlan(company.Plan)
	breakdown := policy.Quote(pricing.MinorUnits(req.Amount))

	ref, err := s.allocator.Allocate(ctx, sequence.FamilyExtraCharge)
	if err != nil {
		return nil, fmt.Errorf("allocate extra charge reference: %w", err)
	}

	e := &domain.ExtraCharge{
		Reference:   ref,
		BookingID:   b.ID,
		Description: req.Description,
		Price:       breakdown,
		Status:      domain.ExtraChargePending,
		ExpiresAt:   s.now().Add(s.ttl),
	}
	if err := s.charges.Create(ctx, e); err != nil {
		return nil, err
	}

	s.notify(ctx, b.CustomerID, e, "Additional charge requested",
		fmt.Sprintf("The carrier requested an extra charge %s for booking %s", e.Reference, b.Reference))

	return e, nil
}

// Pay opens a processor checkout for a pending, unexpired charge. A charge
// past its expiry is flipped to expired on the spot instead of waiting for
// the background sweep.
func (s *Service) Pay(ctx context.Context, chargeID, customerID int64, req PayExtraChargeRequest) (*payment.ChargeResult, error) {
	e, err := s.get(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	b, err := s.booking(ctx, e.BookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, ErrForbidden
	}
	if e.Status != domain.ExtraChargePending {
		return nil, ErrNotPending
	}
	if err := s.expireIfDue(ctx, e); err != nil {
		return nil, err
	}

	creq := payment.ChargeRequest{
		AmountMinor:    e.Price.Total,
		Currency:       s.currency,
		Description:    fmt.Sprintf("Extra charge %s: %s", e.Reference, e.Description),
		SourceID:       req.SourceID,
		ReturnURI:      req.ReturnURI,
		IdempotencyKey: uuid.NewString(),
	}
	if company, err := s.companies.GetByID(ctx, b.CompanyID); err == nil {
		if pricing.AdminFeeDeducted(company.Plan) && company.ProcessorAccount != "" {
			creq.Destination = company.ProcessorAccount
			creq.PlatformFeeMinor = e.Price.AdminFee
		}
	} else {
		s.loggerf("level=error msg=company lookup failed on extra charge pay company_id=%d err=%v", b.CompanyID, err)
	}

	res, err := s.proc.CreateCharge(ctx, creq)
	if err != nil {
		return nil, err
	}
	if err := s.charges.SetChargeID(ctx, e.ID, res.ChargeID); err != nil {
		s.loggerf("level=error msg=charge id save failed extra_charge_id=%d charge_id=%s err=%v",
			e.ID, res.ChargeID, err)
	}
	if res.Paid {
		if _, err := s.charges.TransitionIf(ctx, e.ID, domain.ExtraChargePending, domain.ExtraChargePaid); err != nil {
			s.loggerf("level=error msg=paid transition failed extra_charge_id=%d err=%v", e.ID, err)
		}
	}
	return res, nil
}

// Decline lets the customer turn down a pending charge.
func (s *Service) Decline(ctx context.Context, chargeID, customerID int64) (*domain.ExtraCharge, error) {
	e, err := s.get(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	b, err := s.booking(ctx, e.BookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, ErrForbidden
	}
	if err := s.expireIfDue(ctx, e); err != nil {
		return nil, err
	}
	return s.transition(ctx, e, domain.ExtraChargeDeclined)
}

// CancelByCompany lets the owning company withdraw a pending charge.
func (s *Service) CancelByCompany(ctx context.Context, chargeID, actorUserID int64) (*domain.ExtraCharge, error) {
	e, err := s.get(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	b, err := s.booking(ctx, e.BookingID)
	if err != nil {
		return nil, err
	}
	company, err := s.companies.GetByID(ctx, b.CompanyID)
	if err != nil {
		return nil, err
	}
	if company.OwnerID != actorUserID {
		return nil, ErrForbidden
	}
	if err := s.expireIfDue(ctx, e); err != nil {
		return nil, err
	}
	return s.transition(ctx, e, domain.ExtraChargeCancelled)
}

// HandleChargePaid is the webhook path: the processor confirmed the charge.
// Unknown charge ids are ignored so the booking payment flow can share the
// same webhook dispatcher.
func (s *Service) HandleChargePaid(ctx context.Context, processorChargeID string) error {
	e, err := s.charges.GetByChargeID(ctx, processorChargeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	changed, err := s.charges.TransitionIf(ctx, e.ID, domain.ExtraChargePending, domain.ExtraChargePaid)
	if err != nil {
		return err
	}
	if !changed {
		s.loggerf("level=info msg=duplicate paid event ignored extra_charge_id=%d charge_id=%s",
			e.ID, processorChargeID)
	}
	return nil
}

// ListByBooking returns the booking's charges, sweeping lazily so a reader
// never sees a pending charge past its expiry.
func (s *Service) ListByBooking(ctx context.Context, bookingID, actorUserID int64) ([]domain.ExtraCharge, error) {
	b, err := s.booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != actorUserID {
		company, err := s.companies.GetByID(ctx, b.CompanyID)
		if err != nil || company.OwnerID != actorUserID {
			return nil, ErrForbidden
		}
	}

	charges, err := s.charges.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range charges {
		e := &charges[i]
		if e.Status == domain.ExtraChargePending && e.Expired(now) {
			if _, err := s.charges.TransitionIf(ctx, e.ID, domain.ExtraChargePending, domain.ExtraChargeExpired); err != nil {
				s.loggerf("level=error msg=lazy expire failed extra_charge_id=%d err=%v", e.ID, err)
				continue
			}
			e.Status = domain.ExtraChargeExpired
		}
	}
	return charges, nil
}

// Sweep expires every overdue pending charge. Run periodically by the
// sweeper binary.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	n, err := s.charges.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.loggerf("level=info msg=extra charges expired count=%d", n)
	}
	return n, nil
}

// expireIfDue flips a pending charge past its expiry to expired on the spot
// instead of waiting for the background sweep. Pay, Decline and CancelByCompany
// all route through it so none of them can act on an overdue offer.
func (s *Service) expireIfDue(ctx context.Context, e *domain.ExtraCharge) error {
	if e.Status != domain.ExtraChargePending || !e.Expired(s.now()) {
		return nil
	}
	if _, err := s.charges.TransitionIf(ctx, e.ID, domain.ExtraChargePending, domain.ExtraChargeExpired); err != nil {
		s.loggerf("level=error msg=lazy expire failed extra_charge_id=%d err=%v", e.ID, err)
	}
	return ErrExpired
}

func (s *Service) transition(ctx context.Context, e *domain.ExtraCharge, to domain.ExtraChargeStatus) (*domain.ExtraCharge, error) {
	changed, err := s.charges.TransitionIf(ctx, e.ID, domain.ExtraChargePending, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, ErrNotPending
	}
	return s.get(ctx, e.ID)
}

func (s *Service) get(ctx context.Context, id int64) (*domain.ExtraCharge, error) {
	e, err := s.charges.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *Service) booking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) notify(ctx context.Context, target int64, e *domain.ExtraCharge, title, body string) {
	if s.notifs == nil {
		return
	}
	err := s.notifs.Notify(ctx, target, domain.NotifExtraCharge, title, body, map[string]any{
		"extra_charge_id": e.ID,
		"reference":       e.Reference,
		"amount":          e.Price.Total,
	})
	if err != nil {
		s.loggerf("level=error msg=notification failed extra_charge_id=%d err=%v", e.ID, err)
	}
}
