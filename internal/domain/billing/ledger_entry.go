package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// GL account codes used by the payment engine
const (
	AccountCashOnHand        = "1000" // Cash on hand
	AccountUndepositedChecks = "1010" // Checks received, not yet deposited
	AccountBankOperating     = "1020" // Operating bank account
	AccountReceivable        = "1200" // Accounts receivable
	AccountRetainerLiability = "2300" // Client retainer liability
	AccountVendorSettlement  = "2100" // Vendor settlements payable
)

// LedgerEntry is an immutable double-entry record. One is posted per
// completed payment and one per refund; entries are never updated or deleted.
type LedgerEntry struct {
	shared.BaseEntity
	LawyerID      uuid.UUID       `json:"lawyer_id"`
	FirmID        *uuid.UUID      `json:"firm_id,omitempty"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	EntryDate     time.Time       `json:"entry_date"`
	DebitAccount  string          `json:"debit_account"`
	CreditAccount string          `json:"credit_account"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

// debitAccountFor derives the debit side from the payment method
func debitAccountFor(method PaymentMethod) string {
	switch method {
	case PaymentMethodCash:
		return AccountCashOnHand
	case PaymentMethodCheck:
		return AccountUndepositedChecks
	default:
		return AccountBankOperating
	}
}

// creditAccountFor derives the credit side from the payment type
func creditAccountFor(paymentType PaymentType) string {
	switch paymentType {
	case PaymentTypeRetainer, PaymentTypeAdvance:
		return AccountRetainerLiability
	case PaymentTypeVendor:
		return AccountVendorSettlement
	default:
		return AccountReceivable
	}
}

// NewLedgerEntryForPayment posts the double entry for a completed payment
func NewLedgerEntryForPayment(p *Payment, description string) *LedgerEntry {
	return &LedgerEntry{
		BaseEntity:    shared.NewBaseEntity(),
		LawyerID:      p.LawyerID,
		FirmID:        p.FirmID,
		PaymentID:     p.ID,
		EntryDate:     time.Now(),
		DebitAccount:  debitAccountFor(p.PaymentMethod),
		CreditAccount: creditAccountFor(p.PaymentType),
		Amount:        p.Amount,
		Description:   description,
	}
}

// NewLedgerEntryForRefund posts the reversing entry for a refund. The debit
// and credit sides of the original entry are swapped.
func NewLedgerEntryForRefund(refund *Payment, original *Payment, description string) *LedgerEntry {
	return &LedgerEntry{
		BaseEntity:    shared.NewBaseEntity(),
		LawyerID:      refund.LawyerID,
		FirmID:        refund.FirmID,
		PaymentID:     refund.ID,
		EntryDate:     time.Now(),
		DebitAccount:  creditAccountFor(original.PaymentType),
		CreditAccount: debitAccountFor(original.PaymentMethod),
		Amount:        refund.Amount,
		Description:   description,
	}
}
