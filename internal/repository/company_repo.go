package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shipslot/internal/domain"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

type companyModel struct {
	ID               int64     `gorm:"column:id;primaryKey"`
	OwnerID          int64     `gorm:"column:owner_id;index"`
	Name             string    `gorm:"column:name"`
	Plan             string    `gorm:"column:plan"`
	ProcessorAccount string    `gorm:"column:processor_account"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (companyModel) TableName() string { return "companies" }

func toDomainCompany(m companyModel) *domain.Company {
	return &domain.Company{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Name:             m.Name,
		Plan:             domain.PlanTier(m.Plan),
		ProcessorAccount: m.ProcessorAccount,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func (r *CompanyRepository) Create(ctx context.Context, c *domain.Company) error {
	m := companyModel{
		OwnerID:          c.OwnerID,
		Name:             c.Name,
		Plan:             string(c.Plan),
		ProcessorAccount: c.ProcessorAccount,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*c = *toDomainCompany(m)
	return nil
}

func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*domain.Company, error) {
	var m companyModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainCompany(m), nil
}

func (r *CompanyRepository) GetByOwnerID(ctx context.Context, ownerID int64) (*domain.Company, error) {
	var m companyModel
	tx := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainCompany(m), nil
}

func (r *CompanyRepository) Update(ctx context.Context, c *domain.Company) error {
	return r.db.WithContext(ctx).Model(&companyModel{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name":              c.Name,
			"plan":              string(c.Plan),
			"processor_account": c.ProcessorAccount,
		}).Error
}
