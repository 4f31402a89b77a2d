package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shipslot/internal/domain"
)

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

type slotModel struct {
	ID                int64     `gorm:"column:id;primaryKey"`
	CompanyID         int64     `gorm:"column:company_id;index"`
	Origin            string    `gorm:"column:origin"`
	Dest              string    `gorm:"column:dest"`
	DepartureAt       time.Time `gorm:"column:departure_at"`
	Pricing           string    `gorm:"column:pricing_model"`
	PriceFlat         *float64  `gorm:"column:price_flat"`
	PricePerKg        *float64  `gorm:"column:price_per_kg"`
	PricePerItem      *float64  `gorm:"column:price_per_item"`
	RemainingWeightKg *float64  `gorm:"column:remaining_weight_kg"`
	RemainingItems    *int      `gorm:"column:remaining_items"`
	Published         bool      `gorm:"column:published"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (slotModel) TableName() string { return "slots" }

func toDomainSlot(m slotModel) *domain.Slot {
	return &domain.Slot{
		ID:                m.ID,
		CompanyID:         m.CompanyID,
		Origin:            m.Origin,
		Dest:              m.Dest,
		DepartureAt:       m.DepartureAt,
		Pricing:           domain.PricingModel(m.Pricing),
		PriceFlat:         m.PriceFlat,
		PricePerKg:        m.PricePerKg,
		PricePerItem:      m.PricePerItem,
		RemainingWeightKg: m.RemainingWeightKg,
		RemainingItems:    m.RemainingItems,
		Published:         m.Published,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toSlotModel(s *domain.Slot) slotModel {
	return slotModel{
		ID:                s.ID,
		CompanyID:         s.CompanyID,
		Origin:            s.Origin,
		Dest:              s.Dest,
		DepartureAt:       s.DepartureAt,
		Pricing:           string(s.Pricing),
		PriceFlat:         s.PriceFlat,
		PricePerKg:        s.PricePerKg,
		PricePerItem:      s.PricePerItem,
		RemainingWeightKg: s.RemainingWeightKg,
		RemainingItems:    s.RemainingItems,
		Published:         s.Published,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func (r *SlotRepository) Create(ctx context.Context, s *domain.Slot) error {
	m := toSlotModel(s)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*s = *toDomainSlot(m)
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	var m slotModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainSlot(m), nil
}

func (r *SlotRepository) Update(ctx context.Context, s *domain.Slot) error {
	m := toSlotModel(s)
	return r.db.WithContext(ctx).Save(&m).Error
}

func (r *SlotRepository) SetPublished(ctx context.Context, id int64, published bool) error {
	return r.db.WithContext(ctx).Model(&slotModel{}).
		Where("id = ?", id).
		Update("published", published).Error
}

func (r *SlotRepository) ListByCompany(ctx context.Context, companyID int64) ([]domain.Slot, error) {
	var ms []slotModel
	tx := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("departure_at ASC").
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainSlots(ms), nil
}

// SlotFilter narrows the public slot search. Zero values mean "any".
type SlotFilter struct {
	Origin        string
	Dest          string
	DepartureFrom time.Time
	DepartureTo   time.Time
	Limit         int
	Offset        int
}

// Search returns published slots only, soonest departure first.
func (r *SlotRepository) Search(ctx context.Context, f SlotFilter) ([]domain.Slot, error) {
	q := r.db.WithContext(ctx).Model(&slotModel{}).Where("published = ?", true)
	if f.Origin != "" {
		q = q.Where("origin = ?", f.Origin)
	}
	if f.Dest != "" {
		q = q.Where("dest = ?", f.Dest)
	}
	if !f.DepartureFrom.IsZero() {
		q = q.Where("departure_at >= ?", f.DepartureFrom)
	}
	if !f.DepartureTo.IsZero() {
		q = q.Where("departure_at < ?", f.DepartureTo)
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var ms []slotModel
	tx := q.Order("departure_at ASC").Limit(limit).Offset(f.Offset).Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainSlots(ms), nil
}

func toDomainSlots(ms []slotModel) []domain.Slot {
	out := make([]domain.Slot, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainSlot(m))
	}
	return out
}
