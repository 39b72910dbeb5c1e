package billing

import (
	"context"

	"github.com/lexledger/backend/internal/domain/billing"
)

// TransactionScope provides transactional access to billing repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all billing repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
//
// Aggregate boundary notes:
//   - PaymentRepo: Payment aggregate root including its invoice applications,
//     which are child records persisted via association when the root is saved.
//   - InvoiceRepo: guarded balance increments run against the invoice row
//     directly so concurrent applications cannot drive balance_due negative.
//   - LedgerRepo: append-only; entries are never updated once posted.
type TransactionalRepositories interface {
	// PaymentRepo returns the payment repository scoped to the current transaction
	PaymentRepo() billing.PaymentRepository
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() billing.InvoiceRepository
	// RetainerRepo returns the retainer repository scoped to the current transaction
	RetainerRepo() billing.RetainerRepository
	// LedgerRepo returns the ledger entry repository scoped to the current transaction
	LedgerRepo() billing.LedgerEntryRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	paymentRepo  billing.PaymentRepository
	invoiceRepo  billing.InvoiceRepository
	retainerRepo billing.RetainerRepository
	ledgerRepo   billing.LedgerEntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	paymentRepo billing.PaymentRepository,
	invoiceRepo billing.InvoiceRepository,
	retainerRepo billing.RetainerRepository,
	ledgerRepo billing.LedgerEntryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		paymentRepo:  paymentRepo,
		invoiceRepo:  invoiceRepo,
		retainerRepo: retainerRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() billing.PaymentRepository {
	return s.paymentRepo
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

// RetainerRepo returns the retainer repository.
func (s *NoOpTransactionScope) RetainerRepo() billing.RetainerRepository {
	return s.retainerRepo
}

// LedgerRepo returns the ledger entry repository.
func (s *NoOpTransactionScope) LedgerRepo() billing.LedgerEntryRepository {
	return s.ledgerRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
