package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle status of a payment
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"    // Created, not yet processed
	PaymentStatusCompleted  PaymentStatus = "completed"  // Funds confirmed, ledger posted
	PaymentStatusFailed     PaymentStatus = "failed"     // Processing failed
	PaymentStatusRefunded   PaymentStatus = "refunded"   // Reversed by a refund payment
	PaymentStatusReconciled PaymentStatus = "reconciled" // Matched against a bank statement
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusReconciled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminalFinancial returns true once the payment has financial effect that
// must not be edited or deleted. Only notes may change afterwards.
func (s PaymentStatus) IsTerminalFinancial() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusReconciled || s == PaymentStatusRefunded
}

// CanComplete returns true if the payment can transition to completed
func (s PaymentStatus) CanComplete() bool {
	return s == PaymentStatusPending
}

// CanFail returns true if the payment can transition to failed
func (s PaymentStatus) CanFail() bool {
	return s == PaymentStatusPending
}

// CanReconcile returns true if the payment can be reconciled.
// Only confirmed money movements are matched against bank statements.
func (s PaymentStatus) CanReconcile() bool {
	return s == PaymentStatusCompleted
}

// CanRefund returns true if the payment can be refunded
func (s PaymentStatus) CanRefund() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusReconciled
}

// PaymentType classifies what the payment settles
type PaymentType string

const (
	PaymentTypeCustomer PaymentType = "customer_payment" // Client pays an invoice
	PaymentTypeVendor   PaymentType = "vendor_payment"   // Firm pays a vendor
	PaymentTypeRetainer PaymentType = "retainer"         // Client funds a retainer
	PaymentTypeAdvance  PaymentType = "advance"          // Client advance on future work
	PaymentTypeRefund   PaymentType = "refund"           // Reversal of a prior payment
)

// IsValid checks if the payment type is valid
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeCustomer, PaymentTypeVendor, PaymentTypeRetainer,
		PaymentTypeAdvance, PaymentTypeRefund:
		return true
	}
	return false
}

// String returns the string representation of PaymentType
func (t PaymentType) String() string {
	return string(t)
}

// RequiresCustomer returns true for types paid by a client
func (t PaymentType) RequiresCustomer() bool {
	return t == PaymentTypeCustomer || t == PaymentTypeRetainer || t == PaymentTypeAdvance
}

// RequiresVendor returns true for types paid to a vendor
func (t PaymentType) RequiresVendor() bool {
	return t == PaymentTypeVendor
}

// FundsRetainer returns true if completing this payment credits a retainer
func (t PaymentType) FundsRetainer() bool {
	return t == PaymentTypeRetainer || t == PaymentTypeAdvance
}

// PaymentMethod represents how the money moved
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodGateway      PaymentMethod = "gateway"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodCard,
		PaymentMethodBankTransfer, PaymentMethodGateway, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// CheckStatus represents the sub-state of a check payment
type CheckStatus string

const (
	CheckStatusReceived  CheckStatus = "received"
	CheckStatusDeposited CheckStatus = "deposited"
	CheckStatusCleared   CheckStatus = "cleared"
	CheckStatusBounced   CheckStatus = "bounced"
)

// IsValid checks if the check status is valid
func (s CheckStatus) IsValid() bool {
	switch s {
	case CheckStatusReceived, CheckStatusDeposited, CheckStatusCleared, CheckStatusBounced:
		return true
	}
	return false
}

// CheckDetails carries check-specific metadata for check payments
type CheckDetails struct {
	CheckNumber   string      `json:"check_number"`
	BankName      string      `json:"bank_name"`
	Status        CheckStatus `json:"status"`
	DepositDate   *time.Time  `json:"deposit_date,omitempty"`
	ClearanceDate *time.Time  `json:"clearance_date,omitempty"`
	BounceReason  string      `json:"bounce_reason,omitempty"`
}

// RefundDetails links a refund payment back to its original
type RefundDetails struct {
	Reason     string    `json:"reason"`
	RefundedAt time.Time `json:"refunded_at"`
	RefundedBy uuid.UUID `json:"refunded_by"`
}

// Reconciliation records the bank-statement match for a payment
type Reconciliation struct {
	IsReconciled     bool       `json:"is_reconciled"`
	BankStatementRef string     `json:"bank_statement_ref,omitempty"`
	ReconciledAt     *time.Time `json:"reconciled_at,omitempty"`
	ReconciledBy     *uuid.UUID `json:"reconciled_by,omitempty"`
}

// InvoiceApplication represents the application of part of a payment to an invoice
type InvoiceApplication struct {
	ID        uuid.UUID       `json:"id"`
	PaymentID uuid.UUID       `json:"payment_id"`
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	AppliedAt time.Time       `json:"applied_at"`
}

// NewInvoiceApplication creates a new invoice application record
func NewInvoiceApplication(paymentID, invoiceID uuid.UUID, amount valueobject.Money) *InvoiceApplication {
	return &InvoiceApplication{
		ID:        uuid.New(),
		PaymentID: paymentID,
		InvoiceID: invoiceID,
		Amount:    amount.Amount(),
		AppliedAt: time.Now(),
	}
}

// Payment is the aggregate root for a single money movement. It owns the
// allocation bookkeeping invariant: TotalApplied + UnappliedAmount == Amount.
type Payment struct {
	shared.PracticeAggregateRoot
	PaymentNumber   string               `json:"payment_number"`
	PaymentType     PaymentType          `json:"payment_type"`
	PaymentMethod   PaymentMethod        `json:"payment_method"`
	Amount          decimal.Decimal      `json:"amount"`
	Currency        valueobject.Currency `json:"currency"`
	ExchangeRate    decimal.Decimal      `json:"exchange_rate"`
	CustomerID      *uuid.UUID           `json:"customer_id,omitempty"`
	VendorID        *uuid.UUID           `json:"vendor_id,omitempty"`
	CaseID          *uuid.UUID           `json:"case_id,omitempty"`
	InvoiceID       *uuid.UUID           `json:"invoice_id,omitempty"` // Primary linked invoice
	Status          PaymentStatus        `json:"status"`
	PaymentDate     time.Time            `json:"payment_date"`
	TotalApplied    decimal.Decimal      `json:"total_applied"`
	UnappliedAmount decimal.Decimal      `json:"unapplied_amount"`
	Applications    []InvoiceApplication `json:"applications"`
	TransactionID   string               `json:"transaction_id,omitempty"`
	GatewayName     string               `json:"gateway_name,omitempty"`
	FeeAmount       decimal.Decimal      `json:"fee_amount"`
	CheckDetails    *CheckDetails        `json:"check_details,omitempty"`
	IsRefund        bool                 `json:"is_refund"`
	OriginalID      *uuid.UUID           `json:"original_payment_id,omitempty"`
	RefundDetails   *RefundDetails       `json:"refund_details,omitempty"`
	Reconciliation  Reconciliation       `json:"reconciliation"`
	ProcessedBy     *uuid.UUID           `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time           `json:"processed_at,omitempty"`
	FailureReason   string               `json:"failure_reason,omitempty"`
	FailureDate     *time.Time           `json:"failure_date,omitempty"`
	RetryCount      int                  `json:"retry_count"`
	ReceiptSentAt   *time.Time           `json:"receipt_sent_at,omitempty"`
	ReceiptSentTo   string               `json:"receipt_sent_to,omitempty"`
	Notes           string               `json:"notes,omitempty"`
}

// NewPaymentParams carries the constructor inputs for a payment
type NewPaymentParams struct {
	Scope         shared.PracticeScope
	PaymentNumber string
	PaymentType   PaymentType
	PaymentMethod PaymentMethod
	Amount        valueobject.Money
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

// NewPayment creates a new pending payment
func NewPayment(p NewPaymentParams) (*Payment, error) {
	if p.PaymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if !p.PaymentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", "Payment type is not valid")
	}
	if !p.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if p.Amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if p.PaymentType.RequiresCustomer() && (p.CustomerID == nil || *p.CustomerID == uuid.Nil) {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID is required for this payment type")
	}
	if p.PaymentType.RequiresVendor() && (p.VendorID == nil || *p.VendorID == uuid.Nil) {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID is required for this payment type")
	}
	if p.CustomerID != nil && p.VendorID != nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Payment cannot reference both a customer and a vendor")
	}
	if p.PaymentMethod == PaymentMethodCheck && p.CheckNumber == "" {
		return nil, shared.NewDomainError("INVALID_CHECK", "Check number is required for check payments")
	}
	if p.FeeAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Fee amount cannot be negative")
	}

	paymentDate := p.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}
	exchangeRate := p.ExchangeRate
	if exchangeRate.IsZero() {
		exchangeRate = decimal.NewFromInt(1)
	}

	pay := &Payment{
		PracticeAggregateRoot: shared.NewPracticeAggregateRoot(p.Scope),
		PaymentNumber:         p.PaymentNumber,
		PaymentType:           p.PaymentType,
		PaymentMethod:         p.PaymentMethod,
		Amount:                p.Amount.Amount(),
		Currency:              p.Amount.Currency(),
		ExchangeRate:          exchangeRate,
		CustomerID:            p.CustomerID,
		VendorID:              p.VendorID,
		CaseID:                p.CaseID,
		InvoiceID:             p.InvoiceID,
		Status:                PaymentStatusPending,
		PaymentDate:           paymentDate,
		TotalApplied:          decimal.Zero,
		UnappliedAmount:       p.Amount.Amount(),
		Applications:          make([]InvoiceApplication, 0),
		TransactionID:         p.TransactionID,
		GatewayName:           p.GatewayName,
		FeeAmount:             p.FeeAmount,
		Notes:                 p.Notes,
	}

	if p.PaymentMethod == PaymentMethodCheck {
		pay.CheckDetails = &CheckDetails{
			CheckNumber: p.CheckNumber,
			BankName:    p.BankName,
			Status:      CheckStatusReceived,
		}
	}

	pay.AddDomainEvent(NewPaymentCreatedEvent(pay))

	return pay, nil
}

// Complete transitions the payment to completed, stamping the processor.
// The at-most-once guarantee against concurrent completion lives in the
// repository's conditional write; this method keeps the aggregate consistent
// after that write has succeeded.
func (p *Payment) Complete(completedBy uuid.UUID) error {
	if !p.Status.CanComplete() {
		if p.Status == PaymentStatusCompleted || p.Status == PaymentStatusReconciled {
			return shared.NewDomainError("INVALID_STATE", "Payment already completed")
		}
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete payment in %s status", p.Status))
	}
	if completedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Processing user ID is required")
	}

	now := time.Now()
	p.Status = PaymentStatusCompleted
	p.ProcessedBy = &completedBy
	p.ProcessedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentCompletedEvent(p))

	return nil
}

// Fail marks the payment as failed with the given reason
func (p *Payment) Fail(reason string) error {
	if p.Status.IsTerminalFinancial() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail payment in %s status", p.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Failure reason is required")
	}

	now := time.Now()
	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.FailureDate = &now
	p.RetryCount++
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentFailedEvent(p, reason))

	return nil
}

// ApplyToInvoice allocates part of the payment's unapplied amount to an invoice
func (p *Payment) ApplyToInvoice(invoiceID uuid.UUID, amount valueobject.Money) (*InvoiceApplication, error) {
	if p.Status == PaymentStatusReconciled {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot modify allocations of a reconciled payment")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Application amount must be positive")
	}
	if amount.Amount().GreaterThan(p.UnappliedAmount) {
		return nil, shared.NewDomainError("INSUFFICIENT_FUNDS",
			fmt.Sprintf("Application amount %s exceeds unapplied amount %s",
				amount.Amount().StringFixed(2), p.UnappliedAmount.StringFixed(2)))
	}
	for _, app := range p.Applications {
		if app.InvoiceID == invoiceID {
			return nil, shared.NewDomainError("ALREADY_APPLIED", "Payment is already applied to this invoice; unapply first")
		}
	}

	application := NewInvoiceApplication(p.ID, invoiceID, amount)
	p.Applications = append(p.Applications, *application)
	p.TotalApplied = p.TotalApplied.Add(amount.Amount())
	p.UnappliedAmount = p.Amount.Sub(p.TotalApplied)
	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentAppliedEvent(p, application))

	return application, nil
}

// UnapplyFromInvoice removes the allocation to an invoice and returns the
// reversed amount so the caller can restore the invoice balance.
func (p *Payment) UnapplyFromInvoice(invoiceID uuid.UUID) (valueobject.Money, error) {
	if p.Status == PaymentStatusReconciled {
		return valueobject.Money{}, shared.NewDomainError("INVALID_STATE", "Cannot modify allocations of a reconciled payment")
	}

	idx := -1
	for i := range p.Applications {
		if p.Applications[i].InvoiceID == invoiceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return valueobject.Money{}, shared.NewDomainError("NOT_FOUND", "Payment is not applied to this invoice")
	}

	reversed := p.Applications[idx].Amount
	p.Applications = append(p.Applications[:idx], p.Applications[idx+1:]...)
	p.TotalApplied = p.TotalApplied.Sub(reversed)
	p.UnappliedAmount = p.Amount.Sub(p.TotalApplied)
	p.Touch()
	p.IncrementVersion()

	money, err := valueobject.NewMoney(reversed, p.Currency)
	if err != nil {
		return valueobject.Money{}, err
	}

	p.AddDomainEvent(NewPaymentUnappliedEvent(p, invoiceID, reversed))

	return money, nil
}

// Reconcile matches the payment against a bank statement. Reconciling an
// already-reconciled payment is a no-op that keeps the first reconciler.
func (p *Payment) Reconcile(reconciledBy uuid.UUID, bankStatementRef string) error {
	if p.Status == PaymentStatusReconciled {
		return nil
	}
	if !p.Status.CanReconcile() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reconcile payment in %s status", p.Status))
	}
	if reconciledBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Reconciling user ID is required")
	}

	now := time.Now()
	p.Status = PaymentStatusReconciled
	p.Reconciliation = Reconciliation{
		IsReconciled:     true,
		BankStatementRef: bankStatementRef,
		ReconciledAt:     &now,
		ReconciledBy:     &reconciledBy,
	}
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentReconciledEvent(p))

	return nil
}

// CheckStatusUpdate carries the inputs for a check status change
type CheckStatusUpdate struct {
	Status        CheckStatus
	BounceReason  string
	DepositDate   *time.Time
	ClearanceDate *time.Time
}

// UpdateCheckStatus mutates the check sub-state. A bounced check cascades to
// failing the payment unless it already reached refunded or reconciled.
func (p *Payment) UpdateCheckStatus(update CheckStatusUpdate) error {
	if p.PaymentMethod != PaymentMethodCheck || p.CheckDetails == nil {
		return shared.NewDomainError("INVALID_STATE", "Payment is not a check payment")
	}
	if !update.Status.IsValid() {
		return shared.NewDomainError("INVALID_CHECK_STATUS", "Check status is not valid")
	}

	if update.Status == CheckStatusBounced {
		if p.Status == PaymentStatusRefunded || p.Status == PaymentStatusReconciled {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot bounce check of payment in %s status", p.Status))
		}
	}

	previous := p.CheckDetails.Status
	p.CheckDetails.Status = update.Status
	if update.DepositDate != nil {
		p.CheckDetails.DepositDate = update.DepositDate
	}
	if update.ClearanceDate != nil {
		p.CheckDetails.ClearanceDate = update.ClearanceDate
	}

	if update.Status == CheckStatusBounced {
		p.CheckDetails.BounceReason = update.BounceReason
		reason := "check bounced"
		if update.BounceReason != "" {
			reason = fmt.Sprintf("check bounced: %s", update.BounceReason)
		}
		now := time.Now()
		p.Status = PaymentStatusFailed
		p.FailureReason = reason
		p.FailureDate = &now
		p.RetryCount++
	}

	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentCheckStatusChangedEvent(p, previous, update.Status))

	return nil
}

// MarkRefunded flips the original payment to refunded after a refund payment
// has been created against it.
func (p *Payment) MarkRefunded(refundedBy uuid.UUID, reason string) error {
	if !p.Status.CanRefund() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refund payment in %s status", p.Status))
	}

	now := time.Now()
	p.Status = PaymentStatusRefunded
	p.RefundDetails = &RefundDetails{
		Reason:     reason,
		RefundedAt: now,
		RefundedBy: refundedBy,
	}
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentRefundedEvent(p, reason))

	return nil
}

// MarkReceiptSent records that a receipt was issued for this payment
func (p *Payment) MarkReceiptSent(recipient string) error {
	if p.Status != PaymentStatusCompleted && p.Status != PaymentStatusReconciled {
		return shared.NewDomainError("INVALID_STATE", "Receipts can only be sent for completed payments")
	}
	now := time.Now()
	p.ReceiptSentAt = &now
	p.ReceiptSentTo = recipient
	p.UpdatedAt = now
	p.IncrementVersion()
	return nil
}

// UpdateNotes sets the free-form notes. Allowed in any status.
func (p *Payment) UpdateNotes(notes string) {
	p.Notes = notes
	p.Touch()
	p.IncrementVersion()
}

// CanUpdateFinancialFields returns true while amount/method/party fields may change
func (p *Payment) CanUpdateFinancialFields() bool {
	return !p.Status.IsTerminalFinancial()
}

// CanDelete returns true while the payment has no financial effect
func (p *Payment) CanDelete() bool {
	return !p.Status.IsTerminalFinancial()
}

// GetAmountMoney returns the total amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Amount, p.Currency)
	return m
}

// GetUnappliedMoney returns the unapplied amount as Money
func (p *Payment) GetUnappliedMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.UnappliedAmount, p.Currency)
	return m
}

// GetApplicationByInvoiceID returns the application for a specific invoice
func (p *Payment) GetApplicationByInvoiceID(invoiceID uuid.UUID) *InvoiceApplication {
	for i := range p.Applications {
		if p.Applications[i].InvoiceID == invoiceID {
			return &p.Applications[i]
		}
	}
	return nil
}

// IsFullyApplied returns true if nothing remains to allocate
func (p *Payment) IsFullyApplied() bool {
	return p.UnappliedAmount.IsZero()
}
