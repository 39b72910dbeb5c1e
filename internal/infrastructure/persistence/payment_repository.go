package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// scoped narrows a query to the records visible to a practice scope.
// Firm members see the whole firm; solo practitioners see only their own.
func scoped(db *gorm.DB, scope shared.PracticeScope) *gorm.DB {
	if scope.FirmID != nil {
		return db.Where("firm_id = ?", *scope.FirmID)
	}
	return db.Where("lawyer_id = ? AND firm_id IS NULL", scope.LawyerID)
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Preload("Applications").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForScope finds a payment by ID visible to the given scope
func (r *GormPaymentRepository) FindByIDForScope(ctx context.Context, scope shared.PracticeScope, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := scoped(r.db.WithContext(ctx), scope).
		Preload("Applications").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all payments matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Payment, error) {
	return r.findAll(r.db.WithContext(ctx), filter)
}

// FindAllForScope finds all payments for a scope matching the filter
func (r *GormPaymentRepository) FindAllForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.Payment, error) {
	return r.findAll(scoped(r.db.WithContext(ctx), scope), filter)
}

func (r *GormPaymentRepository) findAll(query *gorm.DB, filter shared.Filter) ([]billing.Payment, error) {
	query = applyPaymentFilters(query, filter)
	query = applyPagination(query, filter)

	var paymentModels []models.PaymentModel
	if err := query.Preload("Applications").Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]billing.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

func applyPaymentFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if method, ok := filter.Filters["payment_method"]; ok {
		query = query.Where("payment_method = ?", method)
	}
	if paymentType, ok := filter.Filters["payment_type"]; ok {
		query = query.Where("payment_type = ?", paymentType)
	}
	if customerID, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", customerID)
	}
	if invoiceID, ok := filter.Filters["invoice_id"]; ok {
		query = query.Where("invoice_id = ?", invoiceID)
	}
	if from, ok := filter.Filters["from_date"]; ok {
		query = query.Where("payment_date >= ?", from)
	}
	if to, ok := filter.Filters["to_date"]; ok {
		query = query.Where("payment_date <= ?", to)
	}
	if filter.Search != "" {
		query = query.Where("payment_number ILIKE ? OR notes ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return query
}

func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	dir := "DESC"
	if filter.OrderDir == "asc" {
		dir = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", orderBy, dir))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}
	return query
}

// Count counts payments matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyPaymentFilters(r.db.WithContext(ctx).Model(&models.PaymentModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountForScope counts payments for a scope matching the filter
func (r *GormPaymentRepository) CountForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) (int64, error) {
	var count int64
	query := applyPaymentFilters(scoped(r.db.WithContext(ctx).Model(&models.PaymentModel{}), scope), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a payment with its applications
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	payment.MarkVersionLoaded()
	return nil
}

// SaveWithLock saves with optimistic locking on the version column. The guard
// compares against the version the aggregate was loaded at, not Version-1,
// because one unit of work may step the version several times (complete plus
// each invoice application) before this single save.
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, payment *billing.Payment) error {
	expectedVersion := payment.LoadedVersion()
	if expectedVersion == 0 {
		expectedVersion = payment.Version - 1
	}

	model := models.PaymentModelFromDomain(payment)
	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("id = ? AND version = ?", payment.ID, expectedVersion).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	// Replace the applications child rows to match the aggregate
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", payment.ID).
		Delete(&models.PaymentApplicationModel{}).Error; err != nil {
		return err
	}
	if len(model.Applications) > 0 {
		if err := r.db.WithContext(ctx).Create(&model.Applications).Error; err != nil {
			return err
		}
	}
	payment.MarkVersionLoaded()
	return nil
}

// CompletePending performs the atomic conditional completion write. The
// status check-and-set is a single UPDATE keyed on (id, status, scope) so
// exactly one of any concurrent completion attempts can succeed.
func (r *GormPaymentRepository) CompletePending(ctx context.Context, scope shared.PracticeScope, id, processedBy uuid.UUID, processedAt time.Time) error {
	result := scoped(r.db.WithContext(ctx).Model(&models.PaymentModel{}), scope).
		Where("id = ? AND status = ?", id, billing.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":       billing.PaymentStatusCompleted,
			"processed_by": processedBy,
			"processed_at": processedAt,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// NextPaymentNumber generates the next sequential payment number for a scope.
// Derived from the current maximum rather than a row count, so deleting a
// payment never shifts the sequence onto a number that is still in use. The
// fixed-width suffix keeps lexicographic and numeric order aligned; the
// per-scope unique index on payment_number catches concurrent creates.
func (r *GormPaymentRepository) NextPaymentNumber(ctx context.Context, scope shared.PracticeScope) (string, error) {
	var current string
	if err := scoped(r.db.WithContext(ctx).Model(&models.PaymentModel{}), scope).
		Select("COALESCE(MAX(payment_number), '')").
		Scan(&current).Error; err != nil {
		return "", err
	}
	sequence := 0
	if n, err := strconv.Atoi(strings.TrimPrefix(current, "PAY-")); err == nil {
		sequence = n
	}
	return fmt.Sprintf("PAY-%06d", sequence+1), nil
}

// FindUnreconciled returns completed payments not yet reconciled
func (r *GormPaymentRepository) FindUnreconciled(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.Payment, error) {
	query := scoped(r.db.WithContext(ctx), scope).
		Where("status = ? AND is_reconciled = false", billing.PaymentStatusCompleted)
	return r.findAll(query, filter)
}

// FindPendingChecks returns check payments whose check has not cleared or bounced
func (r *GormPaymentRepository) FindPendingChecks(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.Payment, error) {
	query := scoped(r.db.WithContext(ctx), scope).
		Where("payment_method = ? AND check_status IN ?",
			billing.PaymentMethodCheck,
			[]string{string(billing.CheckStatusReceived), string(billing.CheckStatusDeposited)})
	return r.findAll(query, filter)
}

// Stats aggregates payment counts and amounts by status and method
func (r *GormPaymentRepository) Stats(ctx context.Context, scope shared.PracticeScope) (*billing.PaymentStats, error) {
	stats := &billing.PaymentStats{
		CountByStatus:  make(map[billing.PaymentStatus]int64),
		AmountByStatus: make(map[billing.PaymentStatus]decimal.Decimal),
		CountByMethod:  make(map[billing.PaymentMethod]int64),
		TotalAmount:    decimal.Zero,
	}

	var byStatus []struct {
		Status billing.PaymentStatus
		Count  int64
		Total  decimal.Decimal
	}
	if err := scoped(r.db.WithContext(ctx).Model(&models.PaymentModel{}), scope).
		Select("status, COUNT(*) as count, COALESCE(SUM(amount), 0) as total").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.CountByStatus[row.Status] = row.Count
		stats.AmountByStatus[row.Status] = row.Total
		stats.TotalAmount = stats.TotalAmount.Add(row.Total)
	}

	var byMethod []struct {
		PaymentMethod billing.PaymentMethod
		Count         int64
	}
	if err := scoped(r.db.WithContext(ctx).Model(&models.PaymentModel{}), scope).
		Select("payment_method, COUNT(*) as count").
		Group("payment_method").
		Scan(&byMethod).Error; err != nil {
		return nil, err
	}
	for _, row := range byMethod {
		stats.CountByMethod[row.PaymentMethod] = row.Count
	}

	return stats, nil
}

// Delete removes a payment and its application rows
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", id).
		Delete(&models.PaymentApplicationModel{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "id = ?", id).Error
}

// Ensure GormPaymentRepository implements the repository interface
var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
