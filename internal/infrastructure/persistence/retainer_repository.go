package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRetainerRepository implements RetainerRepository using GORM
type GormRetainerRepository struct {
	db *gorm.DB
}

// NewGormRetainerRepository creates a new GormRetainerRepository
func NewGormRetainerRepository(db *gorm.DB) *GormRetainerRepository {
	return &GormRetainerRepository{db: db}
}

// FindByID finds a retainer by ID
func (r *GormRetainerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Retainer, error) {
	var model models.RetainerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForScope finds a retainer by ID visible to the given scope
func (r *GormRetainerRepository) FindByIDForScope(ctx context.Context, scope shared.PracticeScope, id uuid.UUID) (*billing.Retainer, error) {
	var model models.RetainerModel
	if err := scoped(r.db.WithContext(ctx), scope).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all retainers
func (r *GormRetainerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Retainer, error) {
	return r.findAll(r.db.WithContext(ctx), filter)
}

// FindAllForScope finds all retainers for a scope
func (r *GormRetainerRepository) FindAllForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.Retainer, error) {
	return r.findAll(scoped(r.db.WithContext(ctx), scope), filter)
}

func (r *GormRetainerRepository) findAll(query *gorm.DB, filter shared.Filter) ([]billing.Retainer, error) {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if customerID, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", customerID)
	}
	query = applyPagination(query, filter)

	var retainerModels []models.RetainerModel
	if err := query.Find(&retainerModels).Error; err != nil {
		return nil, err
	}
	retainers := make([]billing.Retainer, len(retainerModels))
	for i, model := range retainerModels {
		retainers[i] = *model.ToDomain()
	}
	return retainers, nil
}

// Count counts retainers
func (r *GormRetainerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RetainerModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountForScope counts retainers for a scope
func (r *GormRetainerRepository) CountForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) (int64, error) {
	var count int64
	if err := scoped(r.db.WithContext(ctx).Model(&models.RetainerModel{}), scope).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a retainer
func (r *GormRetainerRepository) Save(ctx context.Context, retainer *billing.Retainer) error {
	model := models.RetainerModelFromDomain(retainer)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a retainer
func (r *GormRetainerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.RetainerModel{}, "id = ?", id).Error
}

// FindReplenishable returns the most recently created retainer for the
// customer that can still receive funds, or (nil, nil) when none exists.
// Closed retainers are never returned.
func (r *GormRetainerRepository) FindReplenishable(ctx context.Context, scope shared.PracticeScope, customerID uuid.UUID) (*billing.Retainer, error) {
	var model models.RetainerModel
	err := scoped(r.db.WithContext(ctx), scope).
		Where("customer_id = ? AND status IN ?", customerID,
			[]string{string(billing.RetainerStatusActive), string(billing.RetainerStatusDepleted)}).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormRetainerRepository implements the repository interface
var _ billing.RetainerRepository = (*GormRetainerRepository)(nil)
