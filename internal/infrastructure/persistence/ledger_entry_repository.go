package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements LedgerEntryRepository using GORM.
// The table is append-only; there are no update or delete operations.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Save inserts a new ledger entry. Existing entries are never touched.
func (r *GormLedgerEntryRepository) Save(ctx context.Context, entry *billing.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByPaymentID returns the entries posted for a payment
func (r *GormLedgerEntryRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]billing.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("entry_date ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]billing.LedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// FindAllForScope returns the entries for a practice scope
func (r *GormLedgerEntryRepository) FindAllForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.LedgerEntry, error) {
	query := scoped(r.db.WithContext(ctx), scope)
	query = applyPagination(query, filter)

	var entryModels []models.LedgerEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]billing.LedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Ensure GormLedgerEntryRepository implements the repository interface
var _ billing.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
