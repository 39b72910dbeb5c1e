package persistence

import (
	"context"

	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormActivityLogRepository persists the append-only billing activity trail.
// Rows are written once when a domain event fires and never modified.
type GormActivityLogRepository struct {
	db *gorm.DB
}

// NewGormActivityLogRepository creates a new GormActivityLogRepository
func NewGormActivityLogRepository(db *gorm.DB) *GormActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

// Save inserts an activity row
func (r *GormActivityLogRepository) Save(ctx context.Context, activity *models.BillingActivityModel) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// FindByAggregateID returns the activity trail for one aggregate, oldest first
func (r *GormActivityLogRepository) FindByAggregateID(ctx context.Context, scope shared.PracticeScope, aggregateID string) ([]models.BillingActivityModel, error) {
	var activities []models.BillingActivityModel
	if err := scoped(r.db.WithContext(ctx), scope).
		Where("aggregate_id = ?", aggregateID).
		Order("occurred_at ASC").
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// FindAllForScope returns recent activity for a practice scope, newest first
func (r *GormActivityLogRepository) FindAllForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]models.BillingActivityModel, error) {
	query := scoped(r.db.WithContext(ctx), scope)
	if eventType, ok := filter.Filters["event_type"]; ok {
		query = query.Where("event_type = ?", eventType)
	}
	query = query.Order("occurred_at DESC")
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	var activities []models.BillingActivityModel
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}
