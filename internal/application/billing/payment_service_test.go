package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceFixture struct {
	paymentRepo  *MockPaymentRepository
	invoiceRepo  *MockInvoiceRepository
	retainerRepo *MockRetainerRepository
	ledgerRepo   *MockLedgerEntryRepository
	bus          *eventRecorder
	service      *PaymentService
}

// eventRecorder captures published domain events for assertions
type eventRecorder struct {
	events []shared.DomainEvent
}

func (r *eventRecorder) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *eventRecorder) eventTypes() []string {
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType())
	}
	return types
}

func newServiceFixture() *serviceFixture {
	paymentRepo := new(MockPaymentRepository)
	invoiceRepo := new(MockInvoiceRepository)
	retainerRepo := new(MockRetainerRepository)
	ledgerRepo := new(MockLedgerEntryRepository)
	bus := new(eventRecorder)

	scope := NewNoOpTransactionScope(paymentRepo, invoiceRepo, retainerRepo, ledgerRepo)
	service := NewPaymentService(scope, paymentRepo, invoiceRepo, bus, nil, zap.NewNop())

	return &serviceFixture{
		paymentRepo:  paymentRepo,
		invoiceRepo:  invoiceRepo,
		retainerRepo: retainerRepo,
		ledgerRepo:   ledgerRepo,
		bus:          bus,
		service:      service,
	}
}

func ownedTestInvoice(t *testing.T, caller shared.CallerContext, id uuid.UUID, total int64) *billing.Invoice {
	t.Helper()
	invoice, err := billing.NewInvoice(caller.Scope, "INV-1", uuid.New(), valueobject.NewMoneySAR(decimal.NewFromInt(total)))
	require.NoError(t, err)
	invoice.ID = id
	return invoice
}

func testCaller() shared.CallerContext {
	return shared.CallerContext{
		UserID: uuid.New(),
		Scope:  shared.PracticeScope{LawyerID: uuid.New()},
	}
}

func pendingPayment(t *testing.T, caller shared.CallerContext, amount float64, paymentType billing.PaymentType, invoiceID *uuid.UUID) *billing.Payment {
	t.Helper()
	customerID := uuid.New()
	p, err := billing.NewPayment(billing.NewPaymentParams{
		Scope:         caller.Scope,
		PaymentNumber: "PAY-0042",
		PaymentType:   paymentType,
		PaymentMethod: billing.PaymentMethodBankTransfer,
		Amount:        valueobject.NewMoneySAR(decimal.NewFromFloat(amount)),
		CustomerID:    &customerID,
		InvoiceID:     invoiceID,
	})
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestPaymentServiceComplete(t *testing.T) {
	t.Run("completes with explicit applications and posts ledger entry", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		payment := pendingPayment(t, caller, 500, billing.PaymentTypeCustomer, nil)
		invoiceID := uuid.New()

		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
		f.paymentRepo.On("CompletePending", mock.Anything, caller.Scope, payment.ID, caller.UserID, mock.Anything).Return(nil)
		f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(ownedTestInvoice(t, caller, invoiceID, 500), nil)
		f.invoiceRepo.On("ApplyAmount", mock.Anything, invoiceID, decimal.NewFromInt(500)).Return(nil)
		f.ledgerRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.LedgerEntry")).Return(nil)
		f.paymentRepo.On("SaveWithLock", mock.Anything, payment).Return(nil)

		result, err := f.service.Complete(context.Background(), caller, payment.ID, []ApplicationInput{
			{InvoiceID: invoiceID, Amount: decimal.NewFromInt(500)},
		})
		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusCompleted, result.Status)
		assert.Equal(t, caller.UserID, *result.ProcessedBy)
		assert.True(t, result.TotalApplied.Equal(decimal.NewFromInt(500)))
		assert.True(t, result.UnappliedAmount.IsZero())
		f.ledgerRepo.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("auto-applies to the linked invoice capped at balance due", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		invoiceID := uuid.New()
		payment := pendingPayment(t, caller, 500, billing.PaymentTypeCustomer, &invoiceID)

		invoice, err := billing.NewInvoice(caller.Scope, "INV-7", *payment.CustomerID, valueobject.NewMoneySAR(decimal.NewFromInt(300)))
		require.NoError(t, err)
		invoice.ID = invoiceID

		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
		f.paymentRepo.On("CompletePending", mock.Anything, caller.Scope, payment.ID, caller.UserID, mock.Anything).Return(nil)
		f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(invoice, nil)
		f.invoiceRepo.On("ApplyAmount", mock.Anything, invoiceID, mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(decimal.NewFromInt(300))
		})).Return(nil)
		f.ledgerRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.paymentRepo.On("SaveWithLock", mock.Anything, payment).Return(nil)

		result, err := f.service.Complete(context.Background(), caller, payment.ID, nil)
		require.NoError(t, err)
		assert.True(t, result.TotalApplied.Equal(decimal.NewFromInt(300)))
		assert.True(t, result.UnappliedAmount.Equal(decimal.NewFromInt(200)))
	})

	t.Run("replenishes the customer retainer for retainer payments", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		payment := pendingPayment(t, caller, 1000, billing.PaymentTypeRetainer, nil)

		retainer, err := billing.NewRetainer(caller.Scope, *payment.CustomerID, valueobject.ZeroSAR())
		require.NoError(t, err)

		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
		f.paymentRepo.On("CompletePending", mock.Anything, caller.Scope, payment.ID, caller.UserID, mock.Anything).Return(nil)
		f.ledgerRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.retainerRepo.On("FindReplenishable", mock.Anything, caller.Scope, *payment.CustomerID).Return(retainer, nil)
		f.retainerRepo.On("Save", mock.Anything, retainer).Return(nil)
		f.paymentRepo.On("SaveWithLock", mock.Anything, payment).Return(nil)

		_, err = f.service.Complete(context.Background(), caller, payment.ID, nil)
		require.NoError(t, err)
		assert.True(t, retainer.Balance.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, billing.RetainerStatusActive, retainer.Status)
	})

	t.Run("is a no-op for retainer payments when the customer has no retainer", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		payment := pendingPayment(t, caller, 1000, billing.PaymentTypeAdvance, nil)

		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
		f.paymentRepo.On("CompletePending", mock.Anything, caller.Scope, payment.ID, caller.UserID, mock.Anything).Return(nil)
		f.ledgerRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.retainerRepo.On("FindReplenishable", mock.Anything, caller.Scope, *payment.CustomerID).Return(nil, nil)
		f.paymentRepo.On("SaveWithLock", mock.Anything, payment).Return(nil)

		result, err := f.service.Complete(context.Background(), caller, payment.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusCompleted, result.Status)
		f.retainerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("reports already completed when losing the completion race", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		payment := pendingPayment(t, caller, 100, billing.PaymentTypeCustomer, nil)

		winner := pendingPayment(t, caller, 100, billing.PaymentTypeCustomer, nil)
		winner.ID = payment.ID
		require.NoError(t, winner.Complete(uuid.New()))

		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil).Once()
		f.paymentRepo.On("CompletePending", mock.Anything, caller.Scope, payment.ID, caller.UserID, mock.Anything).
			Return(shared.ErrConcurrencyConflict)
		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(winner, nil).Once()

		_, err := f.service.Complete(context.Background(), caller, payment.ID, nil)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		assert.Contains(t, domainErr.Message, "already completed")
		f.ledgerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("returns not found for a missing payment", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		id := uuid.New()
		f.paymentRepo.On("FindByID", mock.Anything, id).Return(nil, nil)

		_, err := f.service.Complete(context.Background(), caller, id, nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("returns forbidden for a payment of another practice", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		other := testCaller()
		payment := pendingPayment(t, other, 100, billing.PaymentTypeCustomer, nil)

		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)

		_, err := f.service.Complete(context.Background(), caller, payment.ID, nil)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("rejects departed callers", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		caller.Departed = true

		_, err := f.service.Complete(context.Background(), caller, uuid.New(), nil)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "FORBIDDEN", domainErr.Code)
		f.paymentRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestPaymentServiceApplyToInvoices(t *testing.T) {
	t.Run("rejects over-application without touching invoices", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		payment := pendingPayment(t, caller, 500, billing.PaymentTypeCustomer, nil)
		invoiceID := uuid.New()

		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
		f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(ownedTestInvoice(t, caller, invoiceID, 600), nil)

		_, err := f.service.ApplyToInvoices(context.Background(), caller, payment.ID, []ApplicationInput{
			{InvoiceID: invoiceID, Amount: decimal.NewFromInt(600)},
		})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_FUNDS", domainErr.Code)
		f.invoiceRepo.AssertNotCalled(t, "ApplyAmount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects an invoice belonging to another practice", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		payment := pendingPayment(t, caller, 500, billing.PaymentTypeCustomer, nil)
		foreign := ownedTestInvoice(t, testCaller(), uuid.New(), 300)

		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
		f.invoiceRepo.On("FindByID", mock.Anything, foreign.ID).Return(foreign, nil)

		_, err := f.service.ApplyToInvoices(context.Background(), caller, payment.ID, []ApplicationInput{
			{InvoiceID: foreign.ID, Amount: decimal.NewFromInt(300)},
		})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		f.invoiceRepo.AssertNotCalled(t, "ApplyAmount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("translates a rejected invoice guard into a precise error", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		payment := pendingPayment(t, caller, 500, billing.PaymentTypeCustomer, nil)
		invoiceID := uuid.New()

		invoice, err := billing.NewInvoice(caller.Scope, "INV-9", uuid.New(), valueobject.NewMoneySAR(decimal.NewFromInt(100)))
		require.NoError(t, err)
		invoice.ID = invoiceID

		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
		f.invoiceRepo.On("ApplyAmount", mock.Anything, invoiceID, mock.Anything).Return(shared.ErrConcurrencyConflict)
		f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(invoice, nil)

		_, err = f.service.ApplyToInvoices(context.Background(), caller, payment.ID, []ApplicationInput{
			{InvoiceID: invoiceID, Amount: decimal.NewFromInt(200)},
		})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_FUNDS", domainErr.Code)
		assert.Contains(t, domainErr.Message, "balance due")
	})
}

func TestPaymentServiceUnapply(t *testing.T) {
	f := newServiceFixture()
	caller := testCaller()
	payment := pendingPayment(t, caller, 500, billing.PaymentTypeCustomer, nil)
	invoiceID := uuid.New()
	_, err := payment.ApplyToInvoice(invoiceID, valueobject.NewMoneySAR(decimal.NewFromInt(200)))
	require.NoError(t, err)
	payment.ClearDomainEvents()

	f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
	f.invoiceRepo.On("ReverseAmount", mock.Anything, invoiceID, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(200))
	})).Return(nil)
	f.paymentRepo.On("SaveWithLock", mock.Anything, payment).Return(nil)

	result, err := f.service.UnapplyFromInvoice(context.Background(), caller, payment.ID, invoiceID)
	require.NoError(t, err)
	assert.True(t, result.UnappliedAmount.Equal(decimal.NewFromInt(500)))
	f.invoiceRepo.AssertExpectations(t)
}

func TestPaymentServiceDelete(t *testing.T) {
	t.Run("deletes a pending payment", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		payment := pendingPayment(t, caller, 100, billing.PaymentTypeCustomer, nil)

		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
		f.paymentRepo.On("Delete", mock.Anything, payment.ID).Return(nil)

		require.NoError(t, f.service.Delete(context.Background(), caller, payment.ID))
		assert.Contains(t, f.bus.eventTypes(), billing.EventPaymentDeleted)
	})

	t.Run("blocks deleting a completed payment", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		payment := pendingPayment(t, caller, 100, billing.PaymentTypeCustomer, nil)
		require.NoError(t, payment.Complete(caller.UserID))

		f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)

		err := f.service.Delete(context.Background(), caller, payment.ID)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		f.paymentRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		assert.Empty(t, f.bus.events)
	})
}

func TestPaymentServiceCreate(t *testing.T) {
	t.Run("assigns the next number within the practice scope", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		customerID := uuid.New()

		f.paymentRepo.On("NextPaymentNumber", mock.Anything, caller.Scope).Return("PAY-0007", nil)
		f.paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Payment")).Return(nil)

		payment, err := f.service.Create(context.Background(), caller, CreatePaymentRequest{
			PaymentType:   billing.PaymentTypeCustomer,
			PaymentMethod: billing.PaymentMethodCash,
			Amount:        decimal.NewFromInt(250),
			CustomerID:    &customerID,
		})
		require.NoError(t, err)
		assert.Equal(t, "PAY-0007", payment.PaymentNumber)
		assert.Equal(t, billing.PaymentStatusPending, payment.Status)
		assert.Equal(t, valueobject.DefaultCurrency, payment.Currency)
		assert.Equal(t, caller.UserID, *payment.CreatedBy)
	})

	t.Run("rejects linking another practice's invoice", func(t *testing.T) {
		f := newServiceFixture()
		caller := testCaller()
		customerID := uuid.New()
		foreign := ownedTestInvoice(t, testCaller(), uuid.New(), 250)

		f.invoiceRepo.On("FindByID", mock.Anything, foreign.ID).Return(foreign, nil)

		_, err := f.service.Create(context.Background(), caller, CreatePaymentRequest{
			PaymentType:   billing.PaymentTypeCustomer,
			PaymentMethod: billing.PaymentMethodCash,
			Amount:        decimal.NewFromInt(250),
			CustomerID:    &customerID,
			InvoiceID:     &foreign.ID,
		})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		f.paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestPaymentServiceRecordInvoicePayment(t *testing.T) {
	f := newServiceFixture()
	caller := testCaller()
	invoice, err := billing.NewInvoice(caller.Scope, "INV-12", uuid.New(), valueobject.NewMoneySAR(decimal.NewFromInt(800)))
	require.NoError(t, err)

	f.invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	f.invoiceRepo.On("ApplyAmount", mock.Anything, invoice.ID, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(800))
	})).Return(nil)
	f.paymentRepo.On("NextPaymentNumber", mock.Anything, caller.Scope).Return("PAY-0100", nil)
	f.ledgerRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Payment")).Return(nil)

	payment, err := f.service.RecordInvoicePayment(context.Background(), caller, invoice.ID, RecordInvoicePaymentRequest{
		PaymentMethod: billing.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusCompleted, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(800)))
	assert.True(t, payment.IsFullyApplied())
	require.NotNil(t, payment.InvoiceID)
	assert.Equal(t, invoice.ID, *payment.InvoiceID)
	assert.Contains(t, f.bus.eventTypes(), billing.EventInvoicePaymentRecorded)
}
