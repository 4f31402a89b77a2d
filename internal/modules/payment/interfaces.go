package payment

import (
	"context"
	"time"

	"shipslot/internal/domain"
	"shipslot/internal/pkg/sequence"
)

// ChargeRequest describes a checkout to open at the processor. Amounts are
// minor units. Destination and PlatformFeeMinor are set when the company's
// plan deducts the admin fee from its payout instead of keeping it as pure
// platform margin.
type ChargeRequest struct {
	AmountMinor      int64
	Currency         string
	Description      string
	SourceID         string
	ReturnURI        string
	Destination      string
	PlatformFeeMinor int64
	IdempotencyKey   string
}

type ChargeResult struct {
	ChargeID     string
	AuthorizeURI string
	Paid         bool
	Status       string
}

// Processor is the external payment processor boundary: checkout creation,
// refund by charge reference, and charge status retrieval.
type Processor interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, chargeID string, amountMinor int64) error
	GetCharge(ctx context.Context, chargeID string) (*ChargeResult, error)
}

// EventInfo is a verified processor event with its charge payload flattened
// out, as far as the event carries one.
type EventInfo struct {
	Key           string
	ChargeID      string
	ChargeStatus  string
	ChargePaid    bool
	FailureReason string
	RawData       []byte
}

// EventVerifier authenticates a webhook delivery by re-reading the event at
// the processor.
type EventVerifier interface {
	VerifyEvent(ctx context.Context, eventID string) (*EventInfo, error)
}

type paymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error)
	GetByChargeID(ctx context.Context, chargeID string) (*domain.Payment, error)
	MarkPaidIdempotent(ctx context.Context, chargeID, rawBody string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, chargeID, rawBody, reason string) error
	MarkRefunded(ctx context.Context, bookingID int64) error
}

type bookingStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
}

type companyReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Company, error)
}

type refAllocator interface {
	Allocate(ctx context.Context, fam sequence.Family) (string, error)
}
