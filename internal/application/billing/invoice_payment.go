package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RecordInvoicePaymentRequest carries the inputs for recording a payment
// directly against an invoice.
type RecordInvoicePaymentRequest struct {
	// Amount defaults to the invoice's balance due when zero
	Amount        decimal.Decimal
	PaymentMethod billing.PaymentMethod
	PaymentDate   time.Time
	TransactionID string
	CheckNumber   string
	BankName      string
	Notes         string
}

// RecordInvoicePayment records an already-received payment against an
// invoice: the guarded invoice update, an immediately completed payment with
// a full application, and the ledger entry share one transaction.
func (s *PaymentService) RecordInvoicePayment(ctx context.Context, caller shared.CallerContext, invoiceID uuid.UUID, req RecordInvoicePaymentRequest) (*billing.Payment, error) {
	if err := caller.AuthorizeFinancial(); err != nil {
		return nil, err
	}

	var recorded *billing.Payment

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return shared.NewDomainError("NOT_FOUND", "Invoice not found")
		}
		if !caller.Scope.Matches(invoice.Scope()) {
			return shared.ErrForbidden
		}
		if !invoice.IsPayable() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot record payment against %s invoice", invoice.Status))
		}

		amount := req.Amount
		if amount.IsZero() {
			amount = invoice.BalanceDue
		}
		money, err := valueobject.NewMoney(amount, invoice.Currency)
		if err != nil {
			return shared.NewDomainError("INVALID_AMOUNT", err.Error())
		}

		// Guarded conditional update; rejects concurrent over-payment
		if err := s.applyToInvoiceRow(ctx, repos.InvoiceRepo(), invoiceID, amount); err != nil {
			return err
		}

		number, err := repos.PaymentRepo().NextPaymentNumber(ctx, caller.Scope)
		if err != nil {
			return fmt.Errorf("failed to generate payment number: %w", err)
		}

		payment, err := billing.NewPayment(billing.NewPaymentParams{
			Scope:         caller.Scope,
			PaymentNumber: number,
			PaymentType:   billing.PaymentTypeCustomer,
			PaymentMethod: req.PaymentMethod,
			Amount:        money,
			CustomerID:    &invoice.CustomerID,
			CaseID:        invoice.CaseID,
			InvoiceID:     &invoiceID,
			PaymentDate:   req.PaymentDate,
			TransactionID: req.TransactionID,
			CheckNumber:   req.CheckNumber,
			BankName:      req.BankName,
			Notes:         req.Notes,
		})
		if err != nil {
			return err
		}
		payment.SetCreatedBy(caller.UserID)

		// The money already changed hands; the payment is born completed
		if err := payment.Complete(caller.UserID); err != nil {
			return err
		}
		if _, err := payment.ApplyToInvoice(invoiceID, money); err != nil {
			return err
		}
		payment.AddDomainEvent(billing.NewInvoicePaymentRecordedEvent(payment, invoiceID, invoice.InvoiceNumber))

		entry := billing.NewLedgerEntryForPayment(payment,
			fmt.Sprintf("Payment %s recorded against invoice %s", payment.PaymentNumber, invoice.InvoiceNumber))
		if err := repos.LedgerRepo().Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to post ledger entry: %w", err)
		}

		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return err
		}

		recorded = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, recorded)
	s.refreshBalance(ctx, caller.Scope, recorded.CustomerID)

	return recorded, nil
}
