package extracharge

import (
	"context"
	"time"

	"shipslot/internal/domain"
	"shipslot/internal/modules/payment"
	"shipslot/internal/pkg/sequence"
)

type extraChargeRepo interface {
	Create(ctx context.Context, e *domain.ExtraCharge) error
	GetByID(ctx context.Context, id int64) (*domain.ExtraCharge, error)
	GetByChargeID(ctx context.Context, chargeID string) (*domain.ExtraCharge, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.ExtraCharge, error)
	TransitionIf(ctx context.Context, id int64, from, to domain.ExtraChargeStatus) (bool, error)
	SetChargeID(ctx context.Context, id int64, chargeID string) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type bookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

type companyReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Company, error)
}

type refAllocator interface {
	Allocate(ctx context.Context, fam sequence.Family) (string, error)
}

type notifier interface {
	Notify(ctx context.Context, target int64, typ domain.NotificationType, title, body string, meta map[string]any) error
}

// checkoutOpener is the payment processor boundary for approved charges.
type checkoutOpener interface {
	CreateCharge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error)
}
