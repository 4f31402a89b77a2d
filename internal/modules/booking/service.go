package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"shipslot/internal/domain"
	"shipslot/internal/modules/pricing"
	"shipslot/internal/pkg/sequence"
	"shipslot/internal/repository"
)

// transitions is the full booking state chart. Absence of a source status
// means the status is terminal.
var transitions = map[domain.BookingStatus][]domain.BookingStatus{
	domain.BookingPending:   {domain.BookingAccepted, domain.BookingRejected, domain.BookingCancelled},
	domain.BookingAccepted:  {domain.BookingInTransit, domain.BookingCancelled, domain.BookingDelivered},
	domain.BookingInTransit: {domain.BookingDelivered},
}

func canTransition(from, to domain.BookingStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

type Service struct {
	bookings  BookingRepository
	slots     SlotRepository
	companies CompanyReader
	allocator Allocator
	notifs    Notifier
	labels    LabelGenerator
	images    ImageDeleter
	refunds   RefundInitiator

	fees    pricing.FeePolicy // processor part; commission comes from the plan
	loggerf func(format string, args ...interface{})
}

func NewService(
	bookings BookingRepository,
	slots SlotRepository,
	companies CompanyReader,
	allocator Allocator,
	notifs Notifier,
	labels LabelGenerator,
	images ImageDeleter,
	refunds RefundInitiator,
	fees pricing.FeePolicy,
	loggerf func(format string, args ...interface{}),
) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		bookings:  bookings,
		slots:     slots,
		companies: companies,
		allocator: allocator,
		notifs:    notifs,
		labels:    labels,
		images:    images,
		refunds:   refunds,
		fees:      fees,
		loggerf:   loggerf,
	}
}

// CreateBooking turns a request into a committed reservation. The slot read
// here is an advisory fast-fail; the decisive capacity check happens again
// inside CreateReserved's transaction, so concurrent requests for the last
// capacity leave exactly one winner.
func (s *Service) CreateBooking(ctx context.Context, customerID int64, req CreateBookingRequest) (*domain.Booking, error) {
	slot, err := s.slots.GetByID(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !slot.Published {
		return nil, ErrSlotNotPublished
	}
	if err := validateQuantity(slot, req.RequestedWeightKg, req.RequestedItems); err != nil {
		return nil, err
	}
	if err := precheckCapacity(slot, req.RequestedWeightKg, req.RequestedItems); err != nil {
		return nil, err
	}

	breakdown, err := s.quote(ctx, slot, req.RequestedWeightKg, req.RequestedItems)
	if err != nil {
		return nil, err
	}

	ref, err := s.allocator.Allocate(ctx, sequence.FamilyBooking)
	if err != nil {
		return nil, fmt.Errorf("allocate booking reference: %w", err)
	}

	var imageURLs []byte
	if len(req.ImageURLs) > 0 {
		imageURLs, _ = json.Marshal(req.ImageURLs)
	}
	b := &domain.Booking{
		Reference:         ref,
		SlotID:            slot.ID,
		CustomerID:        customerID,
		CompanyID:         slot.CompanyID,
		RequestedWeightKg: req.RequestedWeightKg,
		RequestedItems:    req.RequestedItems,
		Price:             *breakdown,
		Status:            domain.BookingPending,
		PaymentStatus:     domain.PaymentUnpaid,
		PickupMethod:      domain.DeliveryMethod(req.PickupMethod),
		PickupAddress:     req.PickupAddress,
		DeliveryMethod:    domain.DeliveryMethod(req.DeliveryMethod),
		DeliveryAddress:   req.DeliveryAddress,
		ParcelMeta:        []byte(req.ParcelMeta),
		ImageURLs:         imageURLs,
	}

	if err := s.bookings.CreateReserved(ctx, b); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientCapacity):
			return nil, ErrInsufficientCapacity
		case errors.Is(err, repository.ErrSlotNotPublished):
			return nil, ErrSlotNotPublished
		default:
			return nil, err
		}
	}

	// post-commit, best-effort
	s.notifyCompany(ctx, slot.CompanyID, domain.NotifBookingCreated,
		"New booking request",
		fmt.Sprintf("Booking %s is waiting for your review", b.Reference),
		b)

	return b, nil
}

// PreviewQuote computes the full price breakdown for a slot and quantity
// without persisting anything. The same math runs at creation time, so a
// customer sees the exact decomposition an unpaid booking would carry.
func (s *Service) PreviewQuote(ctx context.Context, req QuoteRequest) (*domain.PriceBreakdown, error) {
	slot, err := s.slots.GetByID(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := validateQuantity(slot, req.RequestedWeightKg, req.RequestedItems); err != nil {
		return nil, err
	}
	return s.quote(ctx, slot, req.RequestedWeightKg, req.RequestedItems)
}

func (s *Service) quote(ctx context.Context, slot *domain.Slot, weightKg *float64, items *int) (*domain.PriceBreakdown, error) {
	base, err := pricing.PriceForSlot(slot, weightKg, items)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	policy := s.fees
	policy.CommissionBps = pricing.DefaultCommissionBps
	if company, err := s.companies.GetByID(ctx, slot.CompanyID); err == nil {
		policy.CommissionBps = pricing.CommissionForPlan(company.Plan)
	} else {
		s.loggerf("level=error msg=company lookup failed on quote company_id=%d err=%v", slot.CompanyID, err)
	}

	breakdown := policy.Quote(pricing.MinorUnits(base))
	return &breakdown, nil
}

// Accept moves a paid pending booking to accepted. Label generation and the
// confirmation notification run after the transition and may fail without
// rolling it back.
func (s *Service) Accept(ctx context.Context, bookingID, actorUserID int64) (*domain.Booking, error) {
	b, err := s.ownedByCompany(ctx, bookingID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !canTransition(b.Status, domain.BookingAccepted) {
		return nil, ErrInvalidStatusTransition
	}
	if b.PaymentStatus != domain.PaymentPaid {
		return nil, ErrPaymentRequired
	}

	if err := s.bookings.UpdateStatus(ctx, b.ID, domain.BookingAccepted); err != nil {
		return nil, err
	}

	if s.labels != nil {
		if url, err := s.labels.Generate(ctx, b); err != nil {
			s.loggerf("level=error msg=label generation failed booking_id=%d err=%v", b.ID, err)
		} else if err := s.bookings.SetLabelURL(ctx, b.ID, url); err != nil {
			s.loggerf("level=error msg=label url save failed booking_id=%d err=%v", b.ID, err)
		}
	}
	s.notifyCustomer(ctx, b, domain.NotifBookingAccepted,
		"Booking confirmed",
		fmt.Sprintf("Booking %s was accepted by the carrier", b.Reference))

	return s.bookings.GetByID(ctx, b.ID)
}

// Reject moves a pending booking to rejected and compensates: capacity back
// to the slot, full refund if a successful payment exists, evidence images
// cleaned up. Refund and cleanup failures are logged for manual
// reconciliation, never blocking.
func (s *Service) Reject(ctx context.Context, bookingID, actorUserID int64) (*domain.Booking, error) {
	b, err := s.ownedByCompany(ctx, bookingID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !canTransition(b.Status, domain.BookingRejected) {
		return nil, ErrInvalidStatusTransition
	}

	if err := s.bookings.UpdateStatus(ctx, b.ID, domain.BookingRejected); err != nil {
		return nil, err
	}
	s.compensate(ctx, b, true)
	s.notifyCustomer(ctx, b, domain.NotifBookingRejected,
		"Booking rejected",
		fmt.Sprintf("Booking %s was rejected by the carrier", b.Reference))

	return s.bookings.GetByID(ctx, b.ID)
}

// Cancel is allowed to the booking's customer and to the owning company from
// any non-terminal pre-delivery state. Capacity release and image cleanup
// mirror rejection; refund handling on cancellation belongs to the payment
// subsystem and is not initiated here.
func (s *Service) Cancel(ctx context.Context, bookingID, actorUserID int64, actorRole domain.Role, reason string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	switch actorRole {
	case domain.RoleCustomer:
		if b.CustomerID != actorUserID {
			return nil, ErrForbidden
		}
	case domain.RoleCompany:
		if err := s.requireCompanyOwner(ctx, b.CompanyID, actorUserID); err != nil {
			return nil, err
		}
	default:
		return nil, ErrForbidden
	}
	if !canTransition(b.Status, domain.BookingCancelled) {
		return nil, ErrInvalidStatusTransition
	}

	if err := s.bookings.UpdateStatus(ctx, b.ID, domain.BookingCancelled); err != nil {
		return nil, err
	}
	s.compensate(ctx, b, false)

	body := fmt.Sprintf("Booking %s was cancelled", b.Reference)
	if reason != "" {
		body = fmt.Sprintf("Booking %s was cancelled: %s", b.Reference, reason)
	}
	s.notifyCustomer(ctx, b, domain.NotifBookingCancelled, "Booking cancelled", body)

	return s.bookings.GetByID(ctx, b.ID)
}

// MarkInTransit is the carrier reporting the parcel left the origin.
func (s *Service) MarkInTransit(ctx context.Context, bookingID, actorUserID int64) (*domain.Booking, error) {
	b, err := s.ownedByCompany(ctx, bookingID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !canTransition(b.Status, domain.BookingInTransit) {
		return nil, ErrInvalidStatusTransition
	}
	if err := s.bookings.UpdateStatus(ctx, b.ID, domain.BookingInTransit); err != nil {
		return nil, err
	}
	return s.bookings.GetByID(ctx, b.ID)
}

// MarkDelivered finishes the booking. Capacity is not touched: the slot's
// ledger only moves on reserve and on reject/cancel release.
func (s *Service) MarkDelivered(ctx context.Context, bookingID, actorUserID int64) (*domain.Booking, error) {
	b, err := s.ownedByCompany(ctx, bookingID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !canTransition(b.Status, domain.BookingDelivered) {
		return nil, ErrInvalidStatusTransition
	}
	if err := s.bookings.UpdateStatus(ctx, b.ID, domain.BookingDelivered); err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, b, domain.NotifBookingDelivered,
		"Parcel delivered",
		fmt.Sprintf("Booking %s was delivered", b.Reference))
	return s.bookings.GetByID(ctx, b.ID)
}

func (s *Service) GetByID(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]domain.Booking, error) {
	return s.bookings.ListByCustomer(ctx, customerID, limit, offset)
}

func (s *Service) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]domain.Booking, error) {
	return s.bookings.ListByCompany(ctx, companyID, limit, offset)
}

// compensate runs the backward-transition side effects: idempotent capacity
// release, optional refund, image cleanup. Each failure logs and the rest
// still run.
func (s *Service) compensate(ctx context.Context, b *domain.Booking, refund bool) {
	released, err := s.bookings.ReleaseCapacity(ctx, b.ID)
	if err != nil {
		s.loggerf("level=error msg=capacity release failed booking_id=%d err=%v", b.ID, err)
	} else if !released {
		s.loggerf("level=info msg=capacity already released booking_id=%d", b.ID)
	}

	if refund && b.PaymentStatus == domain.PaymentPaid && s.refunds != nil {
		if err := s.refunds.RefundBooking(ctx, b.ID); err != nil {
			s.loggerf("level=error msg=refund failed, reconcile manually booking_id=%d err=%v", b.ID, err)
		}
	}

	if s.images != nil {
		if urls := decodeURLs(b.ImageURLs); len(urls) > 0 {
			if err := s.images.DeleteImages(ctx, urls); err != nil {
				s.loggerf("level=error msg=image cleanup failed booking_id=%d err=%v", b.ID, err)
			}
		}
	}
}

func (s *Service) ownedByCompany(ctx context.Context, bookingID, actorUserID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.requireCompanyOwner(ctx, b.CompanyID, actorUserID); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) requireCompanyOwner(ctx context.Context, companyID, actorUserID int64) error {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company.OwnerID != actorUserID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) notifyCustomer(ctx context.Context, b *domain.Booking, typ domain.NotificationType, title, body string) {
	if s.notifs == nil {
		return
	}
	err := s.notifs.Notify(ctx, b.CustomerID, typ, title, body, map[string]any{
		"booking_id": b.ID,
		"reference":  b.Reference,
	})
	if err != nil {
		s.loggerf("level=error msg=notification failed booking_id=%d type=%s err=%v", b.ID, typ, err)
	}
}

func (s *Service) notifyCompany(ctx context.Context, companyID int64, typ domain.NotificationType, title, body string, b *domain.Booking) {
	if s.notifs == nil {
		return
	}
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		s.loggerf("level=error msg=company lookup failed on notify company_id=%d err=%v", companyID, err)
		return
	}
	err = s.notifs.Notify(ctx, company.OwnerID, typ, title, body, map[string]any{
		"booking_id": b.ID,
		"reference":  b.Reference,
	})
	if err != nil {
		s.loggerf("level=error msg=notification failed booking_id=%d type=%s err=%v", b.ID, typ, err)
	}
}

// validateQuantity enforces the quantity shape against the slot's pricing
// model. A quantity for the wrong model is a validation error, not a
// capacity error.
func validateQuantity(slot *domain.Slot, weightKg *float64, items *int) error {
	switch slot.Pricing {
	case domain.PricingFlat:
		if weightKg != nil || items != nil {
			return ErrValidation
		}
	case domain.PricingPerKg:
		if weightKg == nil || *weightKg <= 0 || items != nil {
			return ErrValidation
		}
	case domain.PricingPerItem:
		if items == nil || *items <= 0 || weightKg != nil {
			return ErrValidation
		}
	default:
		return ErrValidation
	}
	return nil
}

// precheckCapacity is the out-of-transaction advisory check: fast feedback
// only, no ordering guarantee. The transactional re-check decides.
func precheckCapacity(slot *domain.Slot, weightKg *float64, items *int) error {
	switch slot.Pricing {
	case domain.PricingPerKg:
		if slot.RemainingWeightKg == nil || *slot.RemainingWeightKg < *weightKg {
			return ErrInsufficientCapacity
		}
	case domain.PricingPerItem:
		if slot.RemainingItems == nil || *slot.RemainingItems < *items {
			return ErrInsufficientCapacity
		}
	}
	return nil
}

func decodeURLs(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return nil
	}
	return urls
}
