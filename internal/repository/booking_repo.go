package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shipslot/internal/domain"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	Reference string `gorm:"column:reference;uniqueIndex"`

	SlotID     int64 `gorm:"column:slot_id;index"`
	CustomerID int64 `gorm:"column:customer_id;index"`
	CompanyID  int64 `gorm:"column:company_id;index"`

	RequestedWeightKg *float64 `gorm:"column:requested_weight_kg"`
	RequestedItems    *int     `gorm:"column:requested_items"`

	PriceBase       int64 `gorm:"column:price_base"`
	PriceAdminFee   int64 `gorm:"column:price_admin_fee"`
	PriceProcessing int64 `gorm:"column:price_processing_fee"`
	PriceTotal      int64 `gorm:"column:price_total"`
	CommissionBps   int   `gorm:"column:commission_bps"`

	Status           string `gorm:"column:status;index"`
	PaymentStatus    string `gorm:"column:payment_status"`
	CapacityReleased bool   `gorm:"column:capacity_released"`

	PickupMethod    string `gorm:"column:pickup_method"`
	PickupAddress   string `gorm:"column:pickup_address"`
	DeliveryMethod  string `gorm:"column:delivery_method"`
	DeliveryAddress string `gorm:"column:delivery_address"`

	ParcelMeta datatypes.JSON `gorm:"column:parcel_meta"`
	ImageURLs  datatypes.JSON `gorm:"column:image_urls"`
	LabelURL   string         `gorm:"column:label_url"`

	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	return &domain.Booking{
		ID:                m.ID,
		Reference:         m.Reference,
		SlotID:            m.SlotID,
		CustomerID:        m.CustomerID,
		CompanyID:         m.CompanyID,
		RequestedWeightKg: m.RequestedWeightKg,
		RequestedItems:    m.RequestedItems,
		Price: domain.PriceBreakdown{
			Base:          m.PriceBase,
			AdminFee:      m.PriceAdminFee,
			ProcessingFee: m.PriceProcessing,
			Total:         m.PriceTotal,
			CommissionBps: m.CommissionBps,
		},
		Status:           domain.BookingStatus(m.Status),
		PaymentStatus:    domain.PaymentStatus(m.PaymentStatus),
		CapacityReleased: m.CapacityReleased,
		PickupMethod:     domain.DeliveryMethod(m.PickupMethod),
		PickupAddress:    m.PickupAddress,
		DeliveryMethod:   domain.DeliveryMethod(m.DeliveryMethod),
		DeliveryAddress:  m.DeliveryAddress,
		ParcelMeta:       m.ParcelMeta,
		ImageURLs:        m.ImageURLs,
		LabelURL:         m.LabelURL,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		CancelledAt:      m.CancelledAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	return bookingModel{
		ID:                b.ID,
		Reference:         b.Reference,
		SlotID:            b.SlotID,
		CustomerID:        b.CustomerID,
		CompanyID:         b.CompanyID,
		RequestedWeightKg: b.RequestedWeightKg,
		RequestedItems:    b.RequestedItems,
		PriceBase:         b.Price.Base,
		PriceAdminFee:     b.Price.AdminFee,
		PriceProcessing:   b.Price.ProcessingFee,
		PriceTotal:        b.Price.Total,
		CommissionBps:     b.Price.CommissionBps,
		Status:            string(b.Status),
		PaymentStatus:     string(b.PaymentStatus),
		CapacityReleased:  b.CapacityReleased,
		PickupMethod:      string(b.PickupMethod),
		PickupAddress:     b.PickupAddress,
		DeliveryMethod:    string(b.DeliveryMethod),
		DeliveryAddress:   b.DeliveryAddress,
		ParcelMeta:        b.ParcelMeta,
		ImageURLs:         b.ImageURLs,
		LabelURL:          b.LabelURL,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
		CancelledAt:       b.CancelledAt,
	}
}

// CreateReserved persists the booking and decrements the slot's capacity
// ledger in one transaction. The slot is re-read inside the transaction and
// the decrement is a guarded UPDATE conditioned on the fresh remaining value,
// so two committed bookings can never jointly overdraw a slot: the loser of a
// race hits the guard, gets ErrInsufficientCapacity, and the whole
// transaction rolls back with no partial state visible.
func (r *BookingRepository) CreateReserved(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s slotModel
		if err := tx.First(&s, b.SlotID).Error; err != nil {
			return err
		}
		if !s.Published {
			return ErrSlotNotPublished
		}

		switch domain.PricingModel(s.Pricing) {
		case domain.PricingPerKg:
			if s.RemainingWeightKg == nil || b.RequestedWeightKg == nil || *s.RemainingWeightKg < *b.RequestedWeightKg {
				return ErrInsufficientCapacity
			}
			res := tx.Model(&slotModel{}).
				Where("id = ? AND remaining_weight_kg >= ?", s.ID, *b.RequestedWeightKg).
				Update("remaining_weight_kg", gorm.Expr("remaining_weight_kg - ?", *b.RequestedWeightKg))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientCapacity
			}
		case domain.PricingPerItem:
			if s.RemainingItems == nil || b.RequestedItems == nil || *s.RemainingItems < *b.RequestedItems {
				return ErrInsufficientCapacity
			}
			res := tx.Model(&slotModel{}).
				Where("id = ? AND remaining_items >= ?", s.ID, *b.RequestedItems).
				Update("remaining_items", gorm.Expr("remaining_items - ?", *b.RequestedItems))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientCapacity
			}
		}
		// flat slots reserve no quantity; publication is their only gate

		m := toBookingModel(b)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		*b = *toDomainBooking(m)
		return nil
	})
}

// ReleaseCapacity returns the booking's originally requested quantities to
// the slot. The capacity_released flag is flipped with a guarded UPDATE so
// the release happens at most once no matter how many terminal transitions
// are attempted; the bool result reports whether this call did the release.
func (r *BookingRepository) ReleaseCapacity(ctx context.Context, bookingID int64) (bool, error) {
	released := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&bookingModel{}).
			Where("id = ? AND capacity_released = ?", bookingID, false).
			Update("capacity_released", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // already released
		}

		var m bookingModel
		if err := tx.First(&m, bookingID).Error; err != nil {
			return err
		}
		if m.RequestedWeightKg != nil {
			if err := tx.Model(&slotModel{}).
				Where("id = ? AND remaining_weight_kg IS NOT NULL", m.SlotID).
				Update("remaining_weight_kg", gorm.Expr("remaining_weight_kg + ?", *m.RequestedWeightKg)).Error; err != nil {
				return err
			}
		}
		if m.RequestedItems != nil {
			if err := tx.Model(&slotModel{}).
				Where("id = ? AND remaining_items IS NOT NULL", m.SlotID).
				Update("remaining_items", gorm.Expr("remaining_items + ?", *m.RequestedItems)).Error; err != nil {
				return err
			}
		}
		released = true
		return nil
	})
	return released, err
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).Where("reference = ?", ref).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	updates := map[string]any{"status": string(status)}
	if status == domain.BookingCancelled {
		now := time.Now().UTC()
		updates["cancelled_at"] = &now
	}
	return r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	return r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ?", id).
		Update("payment_status", string(status)).Error
}

func (r *BookingRepository) SetLabelURL(ctx context.Context, id int64, url string) error {
	return r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ?", id).
		Update("label_url", url).Error
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]domain.Booking, error) {
	var ms []bookingModel
	tx := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

func (r *BookingRepository) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]domain.Booking, error) {
	var ms []bookingModel
	tx := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}
