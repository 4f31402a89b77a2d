package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SequenceRepository backs the human-readable ID allocator with a dedicated
// per-(family, year) counter table; the counter survives restarts and is
// shared by every instance, unlike an in-process sequence would be.
type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

type sequenceCounterModel struct {
	Family string `gorm:"column:family;primaryKey"`
	Year   int    `gorm:"column:year;primaryKey"`
	Next   int64  `gorm:"column:next"`
}

func (sequenceCounterModel) TableName() string { return "sequence_counters" }

// familyTables maps an entity family to the table holding its references,
// used to seed a fresh yearly counter and to verify non-collision.
var familyTables = map[string]string{
	"booking":      "bookings",
	"payment":      "payments",
	"extra_charge": "extra_charges",
}

// Next advances the (family, year) counter and returns its new value. A
// missing counter row is seeded from the count of references already issued
// for that family and year, so the sequence continues where the data left
// off after a fresh deploy.
func (r *SequenceRepository) Next(ctx context.Context, family, prefix string, year int) (int64, error) {
	var seq int64
	next := func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var c sequenceCounterModel
			err := tx.Where("family = ? AND year = ?", family, year).First(&c).Error
			switch {
			case err == nil:
				c.Next++
				if err := tx.Model(&sequenceCounterModel{}).
					Where("family = ? AND year = ?", family, year).
					Update("next", c.Next).Error; err != nil {
					return err
				}
				seq = c.Next
				return nil
			case errors.Is(err, gorm.ErrRecordNotFound):
				seed, err := r.countIssued(tx, family, prefix, year)
				if err != nil {
					return err
				}
				c = sequenceCounterModel{Family: family, Year: year, Next: seed + 1}
				if err := tx.Create(&c).Error; err != nil {
					return err
				}
				seq = c.Next
				return nil
			default:
				return err
			}
		})
	}

	err := next()
	if err != nil && isUniqueViolation(err) {
		// Lost the race to create the counter row; the row exists now.
		err = next()
	}
	return seq, err
}

// Exists checks whether a reference is already taken in the family's table.
func (r *SequenceRepository) Exists(ctx context.Context, family, ref string) (bool, error) {
	table, ok := familyTables[family]
	if !ok {
		return false, fmt.Errorf("unknown entity family %q", family)
	}
	var cnt int64
	if err := r.db.WithContext(ctx).Table(table).Where("reference = ?", ref).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *SequenceRepository) countIssued(tx *gorm.DB, family, prefix string, year int) (int64, error) {
	table, ok := familyTables[family]
	if !ok {
		return 0, fmt.Errorf("unknown entity family %q", family)
	}
	var cnt int64
	err := tx.Table(table).
		Where("reference LIKE ?", fmt.Sprintf("%s-%d-%%", prefix, year)).
		Count(&cnt).Error
	return cnt, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// sqlite reports constraint failures by message only
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
