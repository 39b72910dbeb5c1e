package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Payment Repository
// =============================================================================

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Payment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPaymentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) FindByIDForScope(ctx context.Context, scope shared.PracticeScope, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.Payment, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, scope, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) CompletePending(ctx context.Context, scope shared.PracticeScope, id, processedBy uuid.UUID, processedAt time.Time) error {
	args := m.Called(ctx, scope, id, processedBy, processedAt)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) NextPaymentNumber(ctx context.Context, scope shared.PracticeScope) (string, error) {
	args := m.Called(ctx, scope)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentRepository) FindUnreconciled(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.Payment, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindPendingChecks(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.Payment, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Stats(ctx context.Context, scope shared.PracticeScope) (*billing.PaymentStats, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentStats), args.Error(1)
}

// =============================================================================
// Mock Invoice Repository
// =============================================================================

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForScope(ctx context.Context, scope shared.PracticeScope, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, scope, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) ApplyAmount(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, invoiceID, amount)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ReverseAmount(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, invoiceID, amount)
	return args.Error(0)
}

// =============================================================================
// Mock Retainer Repository
// =============================================================================

type MockRetainerRepository struct {
	mock.Mock
}

func (m *MockRetainerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Retainer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Retainer), args.Error(1)
}

func (m *MockRetainerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Retainer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Retainer), args.Error(1)
}

func (m *MockRetainerRepository) Save(ctx context.Context, retainer *billing.Retainer) error {
	args := m.Called(ctx, retainer)
	return args.Error(0)
}

func (m *MockRetainerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRetainerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRetainerRepository) FindByIDForScope(ctx context.Context, scope shared.PracticeScope, id uuid.UUID) (*billing.Retainer, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Retainer), args.Error(1)
}

func (m *MockRetainerRepository) FindAllForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.Retainer, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Retainer), args.Error(1)
}

func (m *MockRetainerRepository) CountForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, scope, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRetainerRepository) FindReplenishable(ctx context.Context, scope shared.PracticeScope, customerID uuid.UUID) (*billing.Retainer, error) {
	args := m.Called(ctx, scope, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Retainer), args.Error(1)
}

// =============================================================================
// Mock Ledger Entry Repository
// =============================================================================

type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Save(ctx context.Context, entry *billing.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]billing.LedgerEntry, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) FindAllForScope(ctx context.Context, scope shared.PracticeScope, filter shared.Filter) ([]billing.LedgerEntry, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.LedgerEntry), args.Error(1)
}
