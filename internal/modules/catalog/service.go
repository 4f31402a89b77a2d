package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shipslot/internal/domain"
	"shipslot/internal/pkg/validator"
	"shipslot/internal/repository"
)

var (
	ErrValidation = errors.New("invalid catalog request")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

type Service struct {
	slots     *repository.SlotRepository
	companies *repository.CompanyRepository
}

func NewService(slots *repository.SlotRepository, companies *repository.CompanyRepository) *Service {
	return &Service{slots: slots, companies: companies}
}

/* ---------- COMPANY ---------- */

func (s *Service) CreateCompany(ctx context.Context, ownerID int64, req CreateCompanyRequest) (*domain.Company, error) {
	plan := domain.PlanFree
	if req.Plan != "" {
		p, err := parsePlan(req.Plan)
		if err != nil {
			return nil, err
		}
		plan = p
	}

	company := &domain.Company{
		OwnerID:          ownerID,
		Name:             req.Name,
		Plan:             plan,
		ProcessorAccount: req.ProcessorAccount,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *Service) GetCompany(ctx context.Context, id int64) (*domain.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return company, nil
}

func (s *Service) GetOwnCompany(ctx context.Context, ownerID int64) (*domain.Company, error) {
	company, err := s.companies.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return company, nil
}

func (s *Service) UpdateCompany(ctx context.Context, companyID, actorUserID int64, req UpdateCompanyRequest) (*domain.Company, error) {
	company, err := s.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company.OwnerID != actorUserID {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Plan != nil {
		plan, err := parsePlan(*req.Plan)
		if err != nil {
			return nil, err
		}
		company.Plan = plan
	}
	if req.ProcessorAccount != nil {
		company.ProcessorAccount = *req.ProcessorAccount
	}

	if err := s.companies.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

/* ---------- SLOT ---------- */

// CreateSlot validates the rate/capacity shape against the pricing model and
// stores the slot unpublished. Capacity counters are set once here; from then
// on only the booking ledger moves them.
func (s *Service) CreateSlot(ctx context.Context, actorUserID int64, req CreateSlotRequest) (*domain.Slot, error) {
	company, err := s.companies.GetByOwnerID(ctx, actorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	slot := &domain.Slot{
		CompanyID:   company.ID,
		Origin:      req.Origin,
		Dest:        req.Dest,
		DepartureAt: req.DepartureAt,
		Pricing:     domain.PricingModel(req.PricingModel),
	}
	switch slot.Pricing {
	case domain.PricingFlat:
		if req.PriceFlat == nil || *req.PriceFlat <= 0 {
			return nil, ErrValidation
		}
		slot.PriceFlat = req.PriceFlat
	case domain.PricingPerKg:
		if req.PricePerKg == nil || *req.PricePerKg <= 0 ||
			req.CapacityWeightKg == nil || *req.CapacityWeightKg <= 0 {
			return nil, ErrValidation
		}
		slot.PricePerKg = req.PricePerKg
		slot.RemainingWeightKg = req.CapacityWeightKg
	case domain.PricingPerItem:
		if req.PricePerItem == nil || *req.PricePerItem <= 0 ||
			req.CapacityItems == nil || *req.CapacityItems <= 0 {
			return nil, ErrValidation
		}
		slot.PricePerItem = req.PricePerItem
		slot.RemainingItems = req.CapacityItems
	default:
		return nil, ErrValidation
	}

	if errs := validator.Validate(slot); errs != nil {
		return nil, ErrValidation
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *Service) GetSlot(ctx context.Context, id int64) (*domain.Slot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return slot, nil
}

func (s *Service) SetSlotPublished(ctx context.Context, slotID, actorUserID int64, published bool) (*domain.Slot, error) {
	slot, err := s.ownedSlot(ctx, slotID, actorUserID)
	if err != nil {
		return nil, err
	}
	if err := s.slots.SetPublished(ctx, slot.ID, published); err != nil {
		return nil, err
	}
	slot.Published = published
	return slot, nil
}

func (s *Service) ListCompanySlots(ctx context.Context, actorUserID int64) ([]domain.Slot, error) {
	company, err := s.companies.GetByOwnerID(ctx, actorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return s.slots.ListByCompany(ctx, company.ID)
}

func (s *Service) SearchSlots(ctx context.Context, req SearchSlotsRequest) ([]domain.Slot, error) {
	return s.slots.Search(ctx, repository.SlotFilter{
		Origin:        req.Origin,
		Dest:          req.Dest,
		DepartureFrom: req.DepartureFrom,
		DepartureTo:   req.DepartureTo,
		Limit:         req.Limit,
		Offset:        req.Offset,
	})
}

func (s *Service) ownedSlot(ctx context.Context, slotID, actorUserID int64) (*domain.Slot, error) {
	slot, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	company, err := s.companies.GetByID(ctx, slot.CompanyID)
	if err != nil {
		return nil, err
	}
	if company.OwnerID != actorUserID {
		return nil, ErrForbidden
	}
	return slot, nil
}

func parsePlan(raw string) (domain.PlanTier, error) {
	switch domain.PlanTier(raw) {
	case domain.PlanFree, domain.PlanStarter, domain.PlanPro:
		return domain.PlanTier(raw), nil
	default:
		return "", ErrValidation
	}
}
