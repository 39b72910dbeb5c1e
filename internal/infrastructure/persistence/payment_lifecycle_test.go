package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appbilling "github.com/lexledger/backend/internal/application/billing"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Lifecycle tests run the payment service against real repositories and a
// real transaction scope, so the optimistic lock and the guarded invoice
// updates are exercised end to end rather than through mocks.

func newLifecycleService(db *gorm.DB) *appbilling.PaymentService {
	return appbilling.NewPaymentService(
		NewGormTransactionScope(db),
		NewGormPaymentRepository(db),
		NewGormInvoiceRepository(db),
		nil,
		nil,
		zap.NewNop(),
	)
}

func storedInvoice(t *testing.T, db *gorm.DB, scope shared.PracticeScope, total int64) *billing.Invoice {
	t.Helper()
	invoice, err := billing.NewInvoice(scope, "INV-"+uuid.NewString()[:8], uuid.New(), valueobject.NewMoneySAR(decimal.NewFromInt(total)))
	require.NoError(t, err)
	require.NoError(t, NewGormInvoiceRepository(db).Save(context.Background(), invoice))
	return invoice
}

func TestPaymentLifecycle_CompleteAutoAppliesToLinkedInvoice(t *testing.T) {
	db := setupTestDB(t)
	service := newLifecycleService(db)
	scope := soloTestScope()
	caller := shared.CallerContext{UserID: uuid.New(), Scope: scope}
	ctx := context.Background()

	invoice := storedInvoice(t, db, scope, 500)

	payment, err := service.Create(ctx, caller, appbilling.CreatePaymentRequest{
		PaymentType:   billing.PaymentTypeCustomer,
		PaymentMethod: billing.PaymentMethodBankTransfer,
		Amount:        decimal.NewFromInt(500),
		CustomerID:    &invoice.CustomerID,
		InvoiceID:     &invoice.ID,
	})
	require.NoError(t, err)

	completed, err := service.Complete(ctx, caller, payment.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusCompleted, completed.Status)
	assert.True(t, completed.TotalApplied.Equal(decimal.NewFromInt(500)))
	assert.True(t, completed.UnappliedAmount.IsZero())

	reloaded, err := NewGormInvoiceRepository(db).FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, reloaded.Status)
	assert.True(t, reloaded.AmountPaid.Equal(decimal.NewFromInt(500)))

	entries, err := NewGormLedgerEntryRepository(db).FindByPaymentID(ctx, payment.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestPaymentLifecycle_ApplyAcrossTwoInvoices(t *testing.T) {
	db := setupTestDB(t)
	service := newLifecycleService(db)
	scope := soloTestScope()
	caller := shared.CallerContext{UserID: uuid.New(), Scope: scope}
	ctx := context.Background()

	first := storedInvoice(t, db, scope, 200)
	second := storedInvoice(t, db, scope, 300)
	customerID := uuid.New()

	payment, err := service.Create(ctx, caller, appbilling.CreatePaymentRequest{
		PaymentType:   billing.PaymentTypeCustomer,
		PaymentMethod: billing.PaymentMethodCash,
		Amount:        decimal.NewFromInt(500),
		CustomerID:    &customerID,
	})
	require.NoError(t, err)
	_, err = service.Complete(ctx, caller, payment.ID, nil)
	require.NoError(t, err)

	applied, err := service.ApplyToInvoices(ctx, caller, payment.ID, []appbilling.ApplicationInput{
		{InvoiceID: first.ID, Amount: decimal.NewFromInt(200)},
		{InvoiceID: second.ID, Amount: decimal.NewFromInt(300)},
	})
	require.NoError(t, err)
	assert.True(t, applied.IsFullyApplied())
	assert.Len(t, applied.Applications, 2)

	invoiceRepo := NewGormInvoiceRepository(db)
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		reloaded, err := invoiceRepo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusPaid, reloaded.Status)
	}
}

func TestPaymentLifecycle_CrossPracticeApplicationIsRejected(t *testing.T) {
	db := setupTestDB(t)
	service := newLifecycleService(db)
	ctx := context.Background()

	victimScope := soloTestScope()
	victimInvoice := storedInvoice(t, db, victimScope, 300)

	caller := shared.CallerContext{UserID: uuid.New(), Scope: soloTestScope()}
	customerID := uuid.New()
	payment, err := service.Create(ctx, caller, appbilling.CreatePaymentRequest{
		PaymentType:   billing.PaymentTypeCustomer,
		PaymentMethod: billing.PaymentMethodCash,
		Amount:        decimal.NewFromInt(300),
		CustomerID:    &customerID,
	})
	require.NoError(t, err)
	_, err = service.Complete(ctx, caller, payment.ID, nil)
	require.NoError(t, err)

	_, err = service.ApplyToInvoices(ctx, caller, payment.ID, []appbilling.ApplicationInput{
		{InvoiceID: victimInvoice.ID, Amount: decimal.NewFromInt(300)},
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	reloaded, err := NewGormInvoiceRepository(db).FindByID(ctx, victimInvoice.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.AmountPaid.IsZero())
	assert.Equal(t, billing.InvoiceStatusUnpaid, reloaded.Status)

	// Linking another practice's invoice at creation is rejected the same way
	_, err = service.Create(ctx, caller, appbilling.CreatePaymentRequest{
		PaymentType:   billing.PaymentTypeCustomer,
		PaymentMethod: billing.PaymentMethodCash,
		Amount:        decimal.NewFromInt(100),
		CustomerID:    &customerID,
		InvoiceID:     &victimInvoice.ID,
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
