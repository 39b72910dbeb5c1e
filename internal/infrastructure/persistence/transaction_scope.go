package persistence

import (
	"context"

	appbilling "github.com/lexledger/backend/internal/application/billing"
	"github.com/lexledger/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// GormTransactionScope implements the application TransactionScope using
// GORM transactions. Every repository handed to the callback is built over
// the same *gorm.DB transaction, so the callback's writes commit or roll
// back as a unit.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides repositories bound to a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) PaymentRepo() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) RetainerRepo() billing.RetainerRepository {
	return NewGormRetainerRepository(r.tx)
}

func (r *gormTransactionalRepositories) LedgerRepo() billing.LedgerEntryRepository {
	return NewGormLedgerEntryRepository(r.tx)
}

// Ensure the implementations satisfy the application interfaces
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)
var _ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
