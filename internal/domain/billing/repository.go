package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStats summarizes payments for a practice scope
type PaymentStats struct {
	CountByStatus  map[PaymentStatus]int64           `json:"count_by_status"`
	AmountByStatus map[PaymentStatus]decimal.Decimal `json:"amount_by_status"`
	CountByMethod  map[PaymentMethod]int64           `json:"count_by_method"`
	TotalAmount    decimal.Decimal                   `json:"total_amount"`
}

// PaymentRepository persists Payment aggregates with their applications
type PaymentRepository interface {
	shared.PracticeRepository[Payment]
	// CompletePending performs the atomic conditional write
	// pending -> completed keyed on (id, status, scope). It returns
	// shared.ErrConcurrencyConflict when zero rows were affected so the
	// caller can re-read and diagnose precisely.
	CompletePending(ctx context.Context, scope shared.PracticeScope, id, processedBy uuid.UUID, processedAt time.Time) error
	// SaveWithLock persists the aggregate guarded by its version column
	SaveWithLock(ctx context.Context, payment *Payment) error
	// NextPaymentNumber generates the next sequential payment number for a scope
	NextPaymentNumber(ctx context.Context, scope shared.PracticeScope) (string, error)
	// FindUnreconciled returns completed payments not yet reconciled
	FindUnreconciled(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]Payment, error)
	// FindPendingChecks returns check payments whose check has not cleared or bounced
	FindPendingChecks(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]Payment, error)
	// Stats aggregates payment counts and amounts by status and method
	Stats(ctx context.Context, scope shared.PracticeScope) (*PaymentStats, error)
}

// InvoiceRepository persists invoices and performs guarded balance updates
type InvoiceRepository interface {
	shared.PracticeRepository[Invoice]
	// ApplyAmount atomically increments amount_paid and decrements
	// balance_due, guarded by balance_due >= amount and a payable status.
	// Returns shared.ErrConcurrencyConflict when the guard rejects the row.
	ApplyAmount(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal) error
	// ReverseAmount decrements amount_paid by the given amount, flooring at
	// zero, and recomputes balance_due and status.
	ReverseAmount(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal) error
}

// RetainerRepository persists retainers
type RetainerRepository interface {
	shared.PracticeRepository[Retainer]
	// FindReplenishable returns the most recently created active or depleted
	// retainer for the customer, or (nil, nil) when none exists.
	FindReplenishable(ctx context.Context, scope shared.PracticeScope, customerID uuid.UUID) (*Retainer, error)
}

// LedgerEntryRepository persists immutable ledger entries. Append-only.
type LedgerEntryRepository interface {
	Save(ctx context.Context, entry *LedgerEntry) error
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]LedgerEntry, error)
	FindAllForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]LedgerEntry, error)
}
