package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClientBalanceRefresher invalidates cached client balances after a financial
// mutation commits so the next read recomputes from the store.
type ClientBalanceRefresher interface {
	Invalidate(ctx context.Context, scope shared.PracticeScope, customerID uuid.UUID) error
}

// PaymentService orchestrates the payment lifecycle: creation, completion
// with invoice allocation and ledger posting, failure, reconciliation, and
// check tracking.
type PaymentService struct {
	txScope      TransactionScope
	paymentRepo  billing.PaymentRepository
	invoiceRepo  billing.InvoiceRepository
	eventBus     shared.EventPublisher
	balanceCache ClientBalanceRefresher
	logger       *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	txScope TransactionScope,
	paymentRepo billing.PaymentRepository,
	invoiceRepo billing.InvoiceRepository,
	eventBus shared.EventPublisher,
	balanceCache ClientBalanceRefresher,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		txScope:      txScope,
		paymentRepo:  paymentRepo,
		invoiceRepo:  invoiceRepo,
		eventBus:     eventBus,
		balanceCache: balanceCache,
		logger:       logger,
	}
}

// CreatePaymentRequest carries the inputs for creating a payment
type CreatePaymentRequest struct {
	PaymentType   billing.PaymentType
	PaymentMethod billing.PaymentMethod
	Amount        decimal.Decimal
	Currency      valueobject.Currency
	ExchangeRate  decimal.Decimal
	CustomerID    *uuid.UUID
	VendorID      *uuid.UUID
	CaseID        *uuid.UUID
	InvoiceID     *uuid.UUID
	PaymentDate   time.Time
	TransactionID string
	GatewayName   string
	FeeAmount     decimal.Decimal
	CheckNumber   string
	BankName      string
	Notes         string
}

// ApplicationInput identifies one invoice allocation
type ApplicationInput struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
}

// Create creates a new pending payment. Number generation and the insert
// share one transaction so concurrent creates cannot commit the same number.
func (s *PaymentService) Create(ctx context.Context, caller shared.CallerContext, req CreatePaymentRequest) (*billing.Payment, error) {
	if err := caller.AuthorizeFinancial(); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	amount, err := valueobject.NewMoney(req.Amount, currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}

	var created *billing.Payment
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// A linked invoice must exist and belong to the caller's practice;
		// it is the auto-apply target on completion.
		if req.InvoiceID != nil {
			if _, err := s.ownedInvoice(ctx, repos.InvoiceRepo(), caller, *req.InvoiceID); err != nil {
				return err
			}
		}

		number, err := repos.PaymentRepo().NextPaymentNumber(ctx, caller.Scope)
		if err != nil {
			return fmt.Errorf("failed to generate payment number: %w", err)
		}

		payment, err := billing.NewPayment(billing.NewPaymentParams{
			Scope:         caller.Scope,
			PaymentNumber: number,
			PaymentType:   req.PaymentType,
			PaymentMethod: req.PaymentMethod,
			Amount:        amount,
			ExchangeRate:  req.ExchangeRate,
			CustomerID:    req.CustomerID,
			VendorID:      req.VendorID,
			CaseID:        req.CaseID,
			InvoiceID:     req.InvoiceID,
			PaymentDate:   req.PaymentDate,
			TransactionID: req.TransactionID,
			GatewayName:   req.GatewayName,
			FeeAmount:     req.FeeAmount,
			CheckNumber:   req.CheckNumber,
			BankName:      req.BankName,
			Notes:         req.Notes,
		})
		if err != nil {
			return err
		}
		payment.SetCreatedBy(caller.UserID)

		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		created = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, created)
	s.refreshBalance(ctx, caller.Scope, created.CustomerID)

	return created, nil
}

// Complete transitions a pending payment to completed inside one transaction:
// the atomic conditional status write, invoice allocation (explicit or
// auto-applied to the linked invoice), ledger posting, and retainer
// replenishment for retainer/advance payments. Any failure aborts everything.
func (s *PaymentService) Complete(ctx context.Context, caller shared.CallerContext, paymentID uuid.UUID, applications []ApplicationInput) (*billing.Payment, error) {
	if err := caller.AuthorizeFinancial(); err != nil {
		return nil, err
	}

	var completed *billing.Payment
	var sideEvents []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := s.ownedPayment(ctx, repos.PaymentRepo(), caller, paymentID)
		if err != nil {
			return err
		}

		if err := payment.Complete(caller.UserID); err != nil {
			return err
		}

		// The conditional write is what makes completion at-most-once under
		// concurrency. Zero rows affected means another request won the race
		// between our read and this write; re-read to report precisely.
		if err := repos.PaymentRepo().CompletePending(ctx, caller.Scope, paymentID, caller.UserID, *payment.ProcessedAt); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				return s.diagnoseCompletionConflict(ctx, repos.PaymentRepo(), caller, paymentID)
			}
			return err
		}

		apps := applications
		if len(apps) == 0 && payment.InvoiceID != nil && payment.TotalApplied.IsZero() {
			auto, err := s.autoApplication(ctx, repos.InvoiceRepo(), payment)
			if err != nil {
				return err
			}
			apps = auto
		}

		for _, app := range apps {
			if _, err := s.ownedInvoice(ctx, repos.InvoiceRepo(), caller, app.InvoiceID); err != nil {
				return err
			}
			money, err := valueobject.NewMoney(app.Amount, payment.Currency)
			if err != nil {
				return shared.NewDomainError("INVALID_AMOUNT", err.Error())
			}
			if _, err := payment.ApplyToInvoice(app.InvoiceID, money); err != nil {
				return err
			}
			if err := s.applyToInvoiceRow(ctx, repos.InvoiceRepo(), app.InvoiceID, app.Amount); err != nil {
				return err
			}
		}

		entry := billing.NewLedgerEntryForPayment(payment, fmt.Sprintf("Payment %s completed", payment.PaymentNumber))
		if err := repos.LedgerRepo().Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to post ledger entry: %w", err)
		}

		if payment.PaymentType.FundsRetainer() && payment.CustomerID != nil {
			events, err := s.replenishRetainer(ctx, repos.RetainerRepo(), payment)
			if err != nil {
				return err
			}
			sideEvents = append(sideEvents, events...)
		}

		if err := repos.PaymentRepo().SaveWithLock(ctx, payment); err != nil {
			return err
		}

		completed = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, completed)
	s.publish(ctx, sideEvents...)
	s.refreshBalance(ctx, caller.Scope, completed.CustomerID)

	return completed, nil
}

// diagnoseCompletionConflict re-reads a payment after the conditional
// completion write affected zero rows and reports why it could not complete.
func (s *PaymentService) diagnoseCompletionConflict(ctx context.Context, repo billing.PaymentRepository, caller shared.CallerContext, paymentID uuid.UUID) error {
	payment, err := repo.FindByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment == nil {
		return shared.ErrNotFound
	}
	if !caller.Scope.Matches(payment.Scope()) {
		return shared.ErrForbidden
	}
	switch payment.Status {
	case billing.PaymentStatusCompleted, billing.PaymentStatusReconciled:
		return shared.NewDomainError("INVALID_STATE", "Payment already completed")
	default:
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete payment in %s status", payment.Status))
	}
}

// autoApplication builds the default allocation against the payment's linked
// invoice: the full unapplied amount, capped at the invoice's balance due.
func (s *PaymentService) autoApplication(ctx context.Context, repo billing.InvoiceRepository, payment *billing.Payment) ([]ApplicationInput, error) {
	invoice, err := repo.FindByID(ctx, *payment.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil || !invoice.IsPayable() {
		return nil, nil
	}
	amount := payment.UnappliedAmount
	if amount.GreaterThan(invoice.BalanceDue) {
		amount = invoice.BalanceDue
	}
	if !amount.IsPositive() {
		return nil, nil
	}
	return []ApplicationInput{{InvoiceID: *payment.InvoiceID, Amount: amount}}, nil
}

// applyToInvoiceRow runs the guarded balance increment and turns a rejected
// guard into a precise domain error.
func (s *PaymentService) applyToInvoiceRow(ctx context.Context, repo billing.InvoiceRepository, invoiceID uuid.UUID, amount decimal.Decimal) error {
	err := repo.ApplyAmount(ctx, invoiceID, amount)
	if err == nil {
		return nil
	}
	if !errors.Is(err, shared.ErrConcurrencyConflict) {
		return err
	}
	invoice, findErr := repo.FindByID(ctx, invoiceID)
	if findErr != nil {
		return findErr
	}
	if invoice == nil {
		return shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	if !invoice.IsPayable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to %s invoice", invoice.Status))
	}
	return shared.NewDomainError("INSUFFICIENT_FUNDS",
		fmt.Sprintf("Payment amount %s exceeds balance due %s", amount.StringFixed(2), invoice.BalanceDue.StringFixed(2)))
}

// replenishRetainer credits the customer's most recent replenishable retainer.
// Missing retainers are a silent no-op; retainer creation is a separate workflow.
func (s *PaymentService) replenishRetainer(ctx context.Context, repo billing.RetainerRepository, payment *billing.Payment) ([]shared.DomainEvent, error) {
	retainer, err := repo.FindReplenishable(ctx, payment.Scope(), *payment.CustomerID)
	if err != nil {
		return nil, err
	}
	if retainer == nil {
		s.logger.Debug("no replenishable retainer for customer",
			zap.String("customer_id", payment.CustomerID.String()),
			zap.String("payment_id", payment.ID.String()))
		return nil, nil
	}
	if err := retainer.Replenish(payment.GetAmountMoney(), payment.ID); err != nil {
		return nil, err
	}
	if err := repo.Save(ctx, retainer); err != nil {
		return nil, err
	}
	events := retainer.GetDomainEvents()
	retainer.ClearDomainEvents()
	return events, nil
}

// Fail marks a pending payment as failed
func (s *PaymentService) Fail(ctx context.Context, caller shared.CallerContext, paymentID uuid.UUID, reason string) (*billing.Payment, error) {
	if err := caller.AuthorizeFinancial(); err != nil {
		return nil, err
	}

	payment, err := s.ownedPayment(ctx, s.paymentRepo, caller, paymentID)
	if err != nil {
		return nil, err
	}
	if err := payment.Fail(reason); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.SaveWithLock(ctx, payment); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, payment)

	return payment, nil
}

// ApplyToInvoices allocates parts of a payment's unapplied amount to invoices.
// Payment bookkeeping and the guarded invoice increments share one transaction.
func (s *PaymentService) ApplyToInvoices(ctx context.Context, caller shared.CallerContext, paymentID uuid.UUID, applications []ApplicationInput) (*billing.Payment, error) {
	if err := caller.AuthorizeFinancial(); err != nil {
		return nil, err
	}
	if len(applications) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one application is required")
	}

	var result *billing.Payment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := s.ownedPayment(ctx, repos.PaymentRepo(), caller, paymentID)
		if err != nil {
			return err
		}

		for _, app := range applications {
			if _, err := s.ownedInvoice(ctx, repos.InvoiceRepo(), caller, app.InvoiceID); err != nil {
				return err
			}
			money, err := valueobject.NewMoney(app.Amount, payment.Currency)
			if err != nil {
				return shared.NewDomainError("INVALID_AMOUNT", err.Error())
			}
			if _, err := payment.ApplyToInvoice(app.InvoiceID, money); err != nil {
				return err
			}
			if err := s.applyToInvoiceRow(ctx, repos.InvoiceRepo(), app.InvoiceID, app.Amount); err != nil {
				return err
			}
		}

		if err := repos.PaymentRepo().SaveWithLock(ctx, payment); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result)
	s.refreshBalance(ctx, caller.Scope, result.CustomerID)

	return result, nil
}

// UnapplyFromInvoice removes one invoice allocation and restores the
// invoice's balance in the same transaction.
func (s *PaymentService) UnapplyFromInvoice(ctx context.Context, caller shared.CallerContext, paymentID, invoiceID uuid.UUID) (*billing.Payment, error) {
	if err := caller.AuthorizeFinancial(); err != nil {
		return nil, err
	}

	var result *billing.Payment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := s.ownedPayment(ctx, repos.PaymentRepo(), caller, paymentID)
		if err != nil {
			return err
		}

		reversed, err := payment.UnapplyFromInvoice(invoiceID)
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().ReverseAmount(ctx, invoiceID, reversed.Amount()); err != nil {
			return err
		}
		if err := repos.PaymentRepo().SaveWithLock(ctx, payment); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result)
	s.refreshBalance(ctx, caller.Scope, result.CustomerID)

	return result, nil
}

// Reconcile matches a completed payment against a bank statement
func (s *PaymentService) Reconcile(ctx context.Context, caller shared.CallerContext, paymentID uuid.UUID, bankStatementRef string) (*billing.Payment, error) {
	if err := caller.AuthorizeFinancial(); err != nil {
		return nil, err
	}

	payment, err := s.ownedPayment(ctx, s.paymentRepo, caller, paymentID)
	if err != nil {
		return nil, err
	}
	if err := payment.Reconcile(caller.UserID, bankStatementRef); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.SaveWithLock(ctx, payment); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, payment)

	return payment, nil
}

// UpdateCheckStatus mutates the check sub-state of a check payment
func (s *PaymentService) UpdateCheckStatus(ctx context.Context, caller shared.CallerContext, paymentID uuid.UUID, update billing.CheckStatusUpdate) (*billing.Payment, error) {
	if err := caller.AuthorizeFinancial(); err != nil {
		return nil, err
	}

	payment, err := s.ownedPayment(ctx, s.paymentRepo, caller, paymentID)
	if err != nil {
		return nil, err
	}
	if err := payment.UpdateCheckStatus(update); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.SaveWithLock(ctx, payment); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, payment)

	return payment, nil
}

// UpdatePaymentRequest carries the mutable payment fields. Once a payment has
// financial effect only the notes may change.
type UpdatePaymentRequest struct {
	Notes         *string
	PaymentDate   *time.Time
	TransactionID *string
}

// Update applies field updates respecting the terminal-state rule
func (s *PaymentService) Update(ctx context.Context, caller shared.CallerContext, paymentID uuid.UUID, req UpdatePaymentRequest) (*billing.Payment, error) {
	if err := caller.AuthorizeFinancial(); err != nil {
		return nil, err
	}

	payment, err := s.ownedPayment(ctx, s.paymentRepo, caller, paymentID)
	if err != nil {
		return nil, err
	}

	if !payment.CanUpdateFinancialFields() && (req.PaymentDate != nil || req.TransactionID != nil) {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only notes can be updated on a %s payment", payment.Status))
	}

	if req.PaymentDate != nil {
		payment.PaymentDate = *req.PaymentDate
	}
	if req.TransactionID != nil {
		payment.TransactionID = *req.TransactionID
	}
	if req.Notes != nil {
		payment.UpdateNotes(*req.Notes)
	} else if req.PaymentDate != nil || req.TransactionID != nil {
		payment.IncrementVersion()
	}

	if err := s.paymentRepo.SaveWithLock(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

// Delete removes a payment that has no financial effect yet
func (s *PaymentService) Delete(ctx context.Context, caller shared.CallerContext, paymentID uuid.UUID) error {
	if err := caller.AuthorizeFinancial(); err != nil {
		return err
	}

	payment, err := s.ownedPayment(ctx, s.paymentRepo, caller, paymentID)
	if err != nil {
		return err
	}
	if !payment.CanDelete() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot delete a %s payment", payment.Status))
	}

	if err := s.paymentRepo.Delete(ctx, paymentID); err != nil {
		return err
	}
	s.publish(ctx, billing.NewPaymentDeletedEvent(payment))
	return nil
}

// BulkDelete deletes the deletable payments among the given IDs and reports
// how many were removed and how many were skipped for being terminal.
func (s *PaymentService) BulkDelete(ctx context.Context, caller shared.CallerContext, ids []uuid.UUID) (deleted, skipped int, err error) {
	if err := caller.AuthorizeFinancial(); err != nil {
		return 0, 0, err
	}

	for _, id := range ids {
		payment, findErr := s.ownedPayment(ctx, s.paymentRepo, caller, id)
		if findErr != nil {
			skipped++
			continue
		}
		if !payment.CanDelete() {
			skipped++
			continue
		}
		if delErr := s.paymentRepo.Delete(ctx, id); delErr != nil {
			return deleted, skipped, delErr
		}
		s.publish(ctx, billing.NewPaymentDeletedEvent(payment))
		deleted++
	}
	return deleted, skipped, nil
}

// SendReceipt records that a receipt was issued. Delivery itself is handled
// by an external notification pipeline.
func (s *PaymentService) SendReceipt(ctx context.Context, caller shared.CallerContext, paymentID uuid.UUID, recipient string) (*billing.Payment, error) {
	payment, err := s.ownedPayment(ctx, s.paymentRepo, caller, paymentID)
	if err != nil {
		return nil, err
	}
	if err := payment.MarkReceiptSent(recipient); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.SaveWithLock(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// Get returns a payment visible to the caller's scope
func (s *PaymentService) Get(ctx context.Context, caller shared.CallerContext, paymentID uuid.UUID) (*billing.Payment, error) {
	return s.ownedPayment(ctx, s.paymentRepo, caller, paymentID)
}

// List returns payments for the caller's scope
func (s *PaymentService) List(ctx context.Context, caller shared.CallerContext, filter shared.Filter) (shared.Paginated[billing.Payment], error) {
	items, err := s.paymentRepo.FindAllForScope(ctx, caller.Scope, filter)
	if err != nil {
		return shared.Paginated[billing.Payment]{}, err
	}
	total, err := s.paymentRepo.CountForScope(ctx, caller.Scope, filter)
	if err != nil {
		return shared.Paginated[billing.Payment]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Stats summarizes the caller's payments by status and method
func (s *PaymentService) Stats(ctx context.Context, caller shared.CallerContext) (*billing.PaymentStats, error) {
	return s.paymentRepo.Stats(ctx, caller.Scope)
}

// Unreconciled lists completed payments awaiting reconciliation
func (s *PaymentService) Unreconciled(ctx context.Context, caller shared.CallerContext, filter shared.Filter) ([]billing.Payment, error) {
	return s.paymentRepo.FindUnreconciled(ctx, caller.Scope, filter)
}

// PendingChecks lists check payments whose check has not cleared or bounced
func (s *PaymentService) PendingChecks(ctx context.Context, caller shared.CallerContext, filter shared.Filter) ([]billing.Payment, error) {
	return s.paymentRepo.FindPendingChecks(ctx, caller.Scope, filter)
}

// ownedPayment loads a payment and verifies the caller may see it,
// distinguishing a missing payment from a cross-practice access attempt.
func (s *PaymentService) ownedPayment(ctx context.Context, repo billing.PaymentRepository, caller shared.CallerContext, paymentID uuid.UUID) (*billing.Payment, error) {
	payment, err := repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, shared.ErrNotFound
	}
	if !caller.Scope.Matches(payment.Scope()) {
		return nil, shared.ErrForbidden
	}
	return payment, nil
}

// ownedInvoice loads an invoice and verifies it belongs to the caller's
// practice before any balance mutation may touch it.
func (s *PaymentService) ownedInvoice(ctx context.Context, repo billing.InvoiceRepository, caller shared.CallerContext, invoiceID uuid.UUID) (*billing.Invoice, error) {
	invoice, err := repo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	if !caller.Scope.Matches(invoice.Scope()) {
		return nil, shared.ErrForbidden
	}
	return invoice, nil
}

// publishEvents drains and publishes an aggregate's pending events.
// Publication failures are logged, never propagated; the write has committed.
func (s *PaymentService) publishEvents(ctx context.Context, payment *billing.Payment) {
	events := payment.GetDomainEvents()
	payment.ClearDomainEvents()
	s.publish(ctx, events...)
}

func (s *PaymentService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err), zap.Int("count", len(events)))
	}
}

// refreshBalance invalidates the cached client balance. Fire-and-forget.
func (s *PaymentService) refreshBalance(ctx context.Context, scope shared.PracticeScope, customerID *uuid.UUID) {
	if s.balanceCache == nil || customerID == nil {
		return
	}
	if err := s.balanceCache.Invalidate(ctx, scope, *customerID); err != nil {
		s.logger.Warn("failed to invalidate client balance cache",
			zap.Error(err), zap.String("customer_id", customerID.String()))
	}
}
