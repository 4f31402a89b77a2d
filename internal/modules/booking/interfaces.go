package booking

import (
	"context"

	"shipslot/internal/domain"
	"shipslot/internal/pkg/sequence"
)

// BookingRepository is the persistence surface the orchestrator and state
// machine need. CreateReserved and ReleaseCapacity own their transactions.
type BookingRepository interface {
	CreateReserved(ctx context.Context, b *domain.Booking) error
	ReleaseCapacity(ctx context.Context, bookingID int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
	SetLabelURL(ctx context.Context, id int64, url string) error
	ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]domain.Booking, error)
	ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]domain.Booking, error)
}

type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
}

type CompanyReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Company, error)
}

type Allocator interface {
	Allocate(ctx context.Context, fam sequence.Family) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, target int64, typ domain.NotificationType, title, body string, meta map[string]any) error
}

// LabelGenerator produces a shipping label for an accepted booking. Failures
// are caught and logged, never propagated.
type LabelGenerator interface {
	Generate(ctx context.Context, b *domain.Booking) (string, error)
}

// ImageDeleter removes parcel evidence images, best-effort.
type ImageDeleter interface {
	DeleteImages(ctx context.Context, urls []string) error
}

// RefundInitiator issues a full refund through the payment module.
type RefundInitiator interface {
	RefundBooking(ctx context.Context, bookingID int64) error
}
