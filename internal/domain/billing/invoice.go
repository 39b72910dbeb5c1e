package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid    InvoiceStatus = "unpaid"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// Invoice is the balance-bearing entity mutated by payment allocations.
// Invariant: AmountPaid + BalanceDue == TotalAmount, BalanceDue >= 0.
type Invoice struct {
	shared.PracticeAggregateRoot
	InvoiceNumber string               `json:"invoice_number"`
	CustomerID    uuid.UUID            `json:"customer_id"`
	CaseID        *uuid.UUID           `json:"case_id,omitempty"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	AmountPaid    decimal.Decimal      `json:"amount_paid"`
	BalanceDue    decimal.Decimal      `json:"balance_due"`
	Currency      valueobject.Currency `json:"currency"`
	Status        InvoiceStatus        `json:"status"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	PaidDate      *time.Time           `json:"paid_date,omitempty"`
}

// NewInvoice creates a new unpaid invoice
func NewInvoice(scope shared.PracticeScope, invoiceNumber string, customerID uuid.UUID, total valueobject.Money) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if total.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}

	return &Invoice{
		PracticeAggregateRoot: shared.NewPracticeAggregateRoot(scope),
		InvoiceNumber:         invoiceNumber,
		CustomerID:            customerID,
		TotalAmount:           total.Amount(),
		AmountPaid:            decimal.Zero,
		BalanceDue:            total.Amount(),
		Currency:              total.Currency(),
		Status:                InvoiceStatusUnpaid,
	}, nil
}

// ApplyPayment credits the invoice with a payment amount
func (inv *Invoice) ApplyPayment(amount valueobject.Money) error {
	if inv.Status == InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot apply payment to a cancelled invoice")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(inv.BalanceDue) {
		return shared.NewDomainError("INSUFFICIENT_FUNDS",
			fmt.Sprintf("Payment amount %s exceeds balance due %s",
				amount.Amount().StringFixed(2), inv.BalanceDue.StringFixed(2)))
	}

	inv.AmountPaid = inv.AmountPaid.Add(amount.Amount())
	inv.BalanceDue = inv.TotalAmount.Sub(inv.AmountPaid)
	inv.recomputeStatus()
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// ReversePayment removes a previously applied amount, flooring AmountPaid at
// zero. A paid invoice reopens to partial when a balance comes back.
func (inv *Invoice) ReversePayment(amount valueobject.Money) error {
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Reversal amount must be positive")
	}

	inv.AmountPaid = inv.AmountPaid.Sub(amount.Amount())
	if inv.AmountPaid.IsNegative() {
		inv.AmountPaid = decimal.Zero
	}
	inv.BalanceDue = inv.TotalAmount.Sub(inv.AmountPaid)
	inv.recomputeStatus()
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

func (inv *Invoice) recomputeStatus() {
	if inv.Status == InvoiceStatusCancelled {
		return
	}
	switch {
	case inv.BalanceDue.LessThanOrEqual(decimal.Zero):
		inv.Status = InvoiceStatusPaid
		if inv.PaidDate == nil {
			now := time.Now()
			inv.PaidDate = &now
		}
	case inv.AmountPaid.GreaterThan(decimal.Zero):
		inv.Status = InvoiceStatusPartial
		inv.PaidDate = nil
	default:
		inv.Status = InvoiceStatusUnpaid
		inv.PaidDate = nil
	}
}

// IsPayable returns true if payments may still be applied
func (inv *Invoice) IsPayable() bool {
	return inv.Status != InvoiceStatusPaid && inv.Status != InvoiceStatusCancelled
}

// GetBalanceDueMoney returns the balance due as Money
func (inv *Invoice) GetBalanceDueMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(inv.BalanceDue, inv.Currency)
	return m
}
