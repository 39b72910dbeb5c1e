package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForScope finds an invoice by ID visible to the given scope
func (r *GormInvoiceRepository) FindByIDForScope(ctx context.Context, scope shared.PracticeScope, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := scoped(r.db.WithContext(ctx), scope).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Invoice, error) {
	return r.findAll(r.db.WithContext(ctx), filter)
}

// FindAllForScope finds all invoices for a scope
func (r *GormInvoiceRepository) FindAllForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.Invoice, error) {
	return r.findAll(scoped(r.db.WithContext(ctx), scope), filter)
}

func (r *GormInvoiceRepository) findAll(query *gorm.DB, filter shared.Filter) ([]billing.Invoice, error) {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if customerID, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", customerID)
	}
	query = applyPagination(query, filter)

	var invoiceModels []models.InvoiceModel
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountForScope counts invoices for a scope
func (r *GormInvoiceRepository) CountForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) (int64, error) {
	var count int64
	if err := scoped(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), scope).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes an invoice
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.InvoiceModel{}, "id = ?", id).Error
}

// ApplyAmount atomically credits the invoice balance. The UPDATE is guarded
// by a payable status and balance_due >= amount so concurrent applications
// can never drive the balance negative; the status and paid_date are
// recomputed in the same statement from the post-update balance.
func (r *GormInvoiceRepository) ApplyAmount(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND status NOT IN ? AND balance_due >= ?",
			invoiceID,
			[]string{string(billing.InvoiceStatusPaid), string(billing.InvoiceStatusCancelled)},
			amount).
		Updates(map[string]interface{}{
			"amount_paid": gorm.Expr("amount_paid + ?", amount),
			"balance_due": gorm.Expr("balance_due - ?", amount),
			"status": gorm.Expr(
				"CASE WHEN balance_due - ? <= 0 THEN ? ELSE ? END",
				amount, billing.InvoiceStatusPaid, billing.InvoiceStatusPartial),
			"paid_date": gorm.Expr(
				"CASE WHEN balance_due - ? <= 0 THEN ? ELSE paid_date END",
				amount, time.Now()),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ReverseAmount removes a previously applied amount, flooring amount_paid at
// zero, and recomputes balance_due, status, and paid_date from the result.
func (r *GormInvoiceRepository) ReverseAmount(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND status <> ?", invoiceID, billing.InvoiceStatusCancelled).
		Updates(map[string]interface{}{
			"amount_paid": gorm.Expr("GREATEST(amount_paid - ?, 0)", amount),
			"balance_due": gorm.Expr("total_amount - GREATEST(amount_paid - ?, 0)", amount),
			"status": gorm.Expr(
				"CASE WHEN total_amount - GREATEST(amount_paid - ?, 0) <= 0 THEN ? WHEN GREATEST(amount_paid - ?, 0) > 0 THEN ? ELSE ? END",
				amount, billing.InvoiceStatusPaid, amount, billing.InvoiceStatusPartial, billing.InvoiceStatusUnpaid),
			"paid_date": gorm.Expr(
				"CASE WHEN total_amount - GREATEST(amount_paid - ?, 0) <= 0 THEN paid_date ELSE NULL END",
				amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormInvoiceRepository implements the repository interface
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
