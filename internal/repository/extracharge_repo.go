package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shipslot/internal/domain"
)

type ExtraChargeRepository struct {
	db *gorm.DB
}

func NewExtraChargeRepository(db *gorm.DB) *ExtraChargeRepository {
	return &ExtraChargeRepository{db: db}
}

type extraChargeModel struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	Reference string `gorm:"column:reference;uniqueIndex"`
	BookingID int64  `gorm:"column:booking_id;index"`

	Description string `gorm:"column:description"`

	PriceBase       int64 `gorm:"column:price_base"`
	PriceAdminFee   int64 `gorm:"column:price_admin_fee"`
	PriceProcessing int64 `gorm:"column:price_processing_fee"`
	PriceTotal      int64 `gorm:"column:price_total"`
	CommissionBps   int   `gorm:"column:commission_bps"`

	Status    string    `gorm:"column:status;index"`
	ChargeID  string    `gorm:"column:charge_id"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (extraChargeModel) TableName() string { return "extra_charges" }

func toDomainExtraCharge(m extraChargeModel) *domain.ExtraCharge {
	return &domain.ExtraCharge{
		ID:          m.ID,
		Reference:   m.Reference,
		BookingID:   m.BookingID,
		Description: m.Description,
		Price: domain.PriceBreakdown{
			Base:          m.PriceBase,
			AdminFee:      m.PriceAdminFee,
			ProcessingFee: m.PriceProcessing,
			Total:         m.PriceTotal,
			CommissionBps: m.CommissionBps,
		},
		Status:    domain.ExtraChargeStatus(m.Status),
		ChargeID:  m.ChargeID,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (r *ExtraChargeRepository) Create(ctx context.Context, e *domain.ExtraCharge) error {
	m := extraChargeModel{
		Reference:       e.Reference,
		BookingID:       e.BookingID,
		Description:     e.Description,
		PriceBase:       e.Price.Base,
		PriceAdminFee:   e.Price.AdminFee,
		PriceProcessing: e.Price.ProcessingFee,
		PriceTotal:      e.Price.Total,
		CommissionBps:   e.Price.CommissionBps,
		Status:          string(e.Status),
		ExpiresAt:       e.ExpiresAt,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*e = *toDomainExtraCharge(m)
	return nil
}

func (r *ExtraChargeRepository) GetByID(ctx context.Context, id int64) (*domain.ExtraCharge, error) {
	var m extraChargeModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainExtraCharge(m), nil
}

func (r *ExtraChargeRepository) GetByChargeID(ctx context.Context, chargeID string) (*domain.ExtraCharge, error) {
	var m extraChargeModel
	tx := r.db.WithContext(ctx).Where("charge_id = ?", chargeID).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainExtraCharge(m), nil
}

func (r *ExtraChargeRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.ExtraCharge, error) {
	var ms []extraChargeModel
	tx := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.ExtraCharge, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainExtraCharge(m))
	}
	return out, nil
}

// TransitionIf is a compare-and-set on the status column. It reports whether
// this call performed the transition; a false result means the charge was not
// in the expected source state.
func (r *ExtraChargeRepository) TransitionIf(ctx context.Context, id int64, from, to domain.ExtraChargeStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&extraChargeModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ExtraChargeRepository) SetChargeID(ctx context.Context, id int64, chargeID string) error {
	return r.db.WithContext(ctx).Model(&extraChargeModel{}).
		Where("id = ?", id).
		Update("charge_id", chargeID).Error
}

// ExpireDue transitions every pending charge past its expiry to expired.
// Safe to run concurrently with itself and with user-triggered transitions:
// the status guard makes each row's flip a one-shot.
func (r *ExtraChargeRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&extraChargeModel{}).
		Where("status = ? AND expires_at < ?", string(domain.ExtraChargePending), now).
		Update("status", string(domain.ExtraChargeExpired))
	return res.RowsAffected, res.Error
}
