package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shipslot/internal/domain"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type paymentModel struct {
	ID          int64      `gorm:"column:id;primaryKey"`
	Reference   string     `gorm:"column:reference;uniqueIndex"`
	BookingID   int64      `gorm:"column:booking_id;uniqueIndex"`
	ChargeID    string     `gorm:"column:charge_id;index"`
	AmountMinor int64      `gorm:"column:amount_minor"`
	Currency    string     `gorm:"column:currency"`
	Status      string     `gorm:"column:status"`
	CheckoutURL string     `gorm:"column:checkout_url"`
	RawCallback string     `gorm:"column:raw_callback;type:text"`
	FailReason  string     `gorm:"column:fail_reason"`
	PaidAt      *time.Time `gorm:"column:paid_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (paymentModel) TableName() string { return "payments" }

func toDomainPayment(m paymentModel) *domain.Payment {
	return &domain.Payment{
		ID:          m.ID,
		Reference:   m.Reference,
		BookingID:   m.BookingID,
		ChargeID:    m.ChargeID,
		AmountMinor: m.AmountMinor,
		Currency:    m.Currency,
		Status:      domain.PaymentState(m.Status),
		CheckoutURL: m.CheckoutURL,
		RawCallback: m.RawCallback,
		FailReason:  m.FailReason,
		PaidAt:      m.PaidAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	m := paymentModel{
		Reference:   p.Reference,
		BookingID:   p.BookingID,
		ChargeID:    p.ChargeID,
		AmountMinor: p.AmountMinor,
		Currency:    p.Currency,
		Status:      string(p.Status),
		CheckoutURL: p.CheckoutURL,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*p = *toDomainPayment(m)
	return nil
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	var m paymentModel
	tx := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainPayment(m), nil
}

func (r *PaymentRepository) GetByChargeID(ctx context.Context, chargeID string) (*domain.Payment, error) {
	var m paymentModel
	tx := r.db.WithContext(ctx).Where("charge_id = ?", chargeID).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainPayment(m), nil
}

// MarkPaidIdempotent flips the payment to paid exactly once; a second
// callback for the same charge is a no-op and reports changed=false.
func (r *PaymentRepository) MarkPaidIdempotent(ctx context.Context, chargeID, rawBody string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&paymentModel{}).
		Where("charge_id = ? AND status <> ?", chargeID, string(domain.PaymentStatePaid)).
		Updates(map[string]any{
			"status":       string(domain.PaymentStatePaid),
			"raw_callback": rawBody,
			"paid_at":      &paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, chargeID, rawBody, reason string) error {
	return r.db.WithContext(ctx).Model(&paymentModel{}).
		Where("charge_id = ?", chargeID).
		Updates(map[string]any{
			"status":       string(domain.PaymentStateFailed),
			"raw_callback": rawBody,
			"fail_reason":  reason,
		}).Error
}

func (r *PaymentRepository) MarkRefunded(ctx context.Context, bookingID int64) error {
	return r.db.WithContext(ctx).Model(&paymentModel{}).
		Where("booking_id = ?", bookingID).
		Update("status", string(domain.PaymentStateRefunded)).Error
}
