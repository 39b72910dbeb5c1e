package billing

import (
	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Payment event types
const (
	EventPaymentCreated            = "payment.created"
	EventPaymentCompleted          = "payment.completed"
	EventPaymentFailed             = "payment.failed"
	EventPaymentApplied            = "payment.applied"
	EventPaymentUnapplied          = "payment.unapplied"
	EventPaymentRefunded           = "payment.refunded"
	EventPaymentReconciled         = "payment.reconciled"
	EventPaymentCheckStatusChanged = "payment.check_status_changed"
	EventPaymentDeleted            = "payment.deleted"
	EventRetainerReplenished       = "retainer.replenished"
	EventInvoicePaymentRecorded    = "invoice.payment_recorded"
)

const paymentAggregateType = "Payment"

// PaymentCreatedEvent is raised when a payment is created in pending status
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	PaymentType   PaymentType     `json:"payment_type"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewPaymentCreatedEvent creates a new PaymentCreatedEvent
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentCreated, paymentAggregateType, p.ID, p.Scope()),
		PaymentNumber:   p.PaymentNumber,
		PaymentType:     p.PaymentType,
		PaymentMethod:   p.PaymentMethod,
		Amount:          p.Amount,
	}
}

// PaymentCompletedEvent is raised when a payment transitions to completed
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	Amount        decimal.Decimal `json:"amount"`
	ProcessedBy   uuid.UUID       `json:"processed_by"`
}

// NewPaymentCompletedEvent creates a new PaymentCompletedEvent
func NewPaymentCompletedEvent(p *Payment) *PaymentCompletedEvent {
	var processedBy uuid.UUID
	if p.ProcessedBy != nil {
		processedBy = *p.ProcessedBy
	}
	return &PaymentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentCompleted, paymentAggregateType, p.ID, p.Scope()),
		PaymentNumber:   p.PaymentNumber,
		Amount:          p.Amount,
		ProcessedBy:     processedBy,
	}
}

// PaymentFailedEvent is raised when a payment fails
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string `json:"payment_number"`
	Reason        string `json:"reason"`
	RetryCount    int    `json:"retry_count"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(p *Payment, reason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentFailed, paymentAggregateType, p.ID, p.Scope()),
		PaymentNumber:   p.PaymentNumber,
		Reason:          reason,
		RetryCount:      p.RetryCount,
	}
}

// PaymentAppliedEvent is raised when part of a payment is applied to an invoice
type PaymentAppliedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Unapplied decimal.Decimal `json:"unapplied_amount"`
}

// NewPaymentAppliedEvent creates a new PaymentAppliedEvent
func NewPaymentAppliedEvent(p *Payment, app *InvoiceApplication) *PaymentAppliedEvent {
	return &PaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentApplied, paymentAggregateType, p.ID, p.Scope()),
		InvoiceID:       app.InvoiceID,
		Amount:          app.Amount,
		Unapplied:       p.UnappliedAmount,
	}
}

// PaymentUnappliedEvent is raised when an invoice allocation is removed
type PaymentUnappliedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentUnappliedEvent creates a new PaymentUnappliedEvent
func NewPaymentUnappliedEvent(p *Payment, invoiceID uuid.UUID, amount decimal.Decimal) *PaymentUnappliedEvent {
	return &PaymentUnappliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentUnapplied, paymentAggregateType, p.ID, p.Scope()),
		InvoiceID:       invoiceID,
		Amount:          amount,
	}
}

// PaymentRefundedEvent is raised when a payment is marked refunded
type PaymentRefundedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string `json:"payment_number"`
	Reason        string `json:"reason"`
}

// NewPaymentRefundedEvent creates a new PaymentRefundedEvent
func NewPaymentRefundedEvent(p *Payment, reason string) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentRefunded, paymentAggregateType, p.ID, p.Scope()),
		PaymentNumber:   p.PaymentNumber,
		Reason:          reason,
	}
}

// PaymentReconciledEvent is raised when a payment is matched to a bank statement
type PaymentReconciledEvent struct {
	shared.BaseDomainEvent
	PaymentNumber    string `json:"payment_number"`
	BankStatementRef string `json:"bank_statement_ref"`
}

// NewPaymentReconciledEvent creates a new PaymentReconciledEvent
func NewPaymentReconciledEvent(p *Payment) *PaymentReconciledEvent {
	return &PaymentReconciledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventPaymentReconciled, paymentAggregateType, p.ID, p.Scope()),
		PaymentNumber:    p.PaymentNumber,
		BankStatementRef: p.Reconciliation.BankStatementRef,
	}
}

// PaymentCheckStatusChangedEvent is raised when a check's sub-state changes
type PaymentCheckStatusChangedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber  string      `json:"payment_number"`
	PreviousStatus CheckStatus `json:"previous_status"`
	NewStatus      CheckStatus `json:"new_status"`
}

// NewPaymentCheckStatusChangedEvent creates a new PaymentCheckStatusChangedEvent
func NewPaymentCheckStatusChangedEvent(p *Payment, previous, next CheckStatus) *PaymentCheckStatusChangedEvent {
	return &PaymentCheckStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentCheckStatusChanged, paymentAggregateType, p.ID, p.Scope()),
		PaymentNumber:   p.PaymentNumber,
		PreviousStatus:  previous,
		NewStatus:       next,
	}
}

// PaymentDeletedEvent is raised when a payment without financial effect is removed
type PaymentDeletedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	Status        PaymentStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewPaymentDeletedEvent creates a new PaymentDeletedEvent
func NewPaymentDeletedEvent(p *Payment) *PaymentDeletedEvent {
	return &PaymentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentDeleted, paymentAggregateType, p.ID, p.Scope()),
		PaymentNumber:   p.PaymentNumber,
		Status:          p.Status,
		Amount:          p.Amount,
	}
}

// InvoicePaymentRecordedEvent is raised when a received payment is recorded
// directly against an invoice
type InvoicePaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PaymentNumber string          `json:"payment_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewInvoicePaymentRecordedEvent creates a new InvoicePaymentRecordedEvent
func NewInvoicePaymentRecordedEvent(p *Payment, invoiceID uuid.UUID, invoiceNumber string) *InvoicePaymentRecordedEvent {
	return &InvoicePaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoicePaymentRecorded, paymentAggregateType, p.ID, p.Scope()),
		InvoiceID:       invoiceID,
		InvoiceNumber:   invoiceNumber,
		PaymentNumber:   p.PaymentNumber,
		Amount:          p.Amount,
	}
}

// RetainerReplenishedEvent is raised when a completed payment credits a retainer
type RetainerReplenishedEvent struct {
	shared.BaseDomainEvent
	RetainerID      uuid.UUID       `json:"retainer_id"`
	SourcePaymentID uuid.UUID       `json:"source_payment_id"`
	Amount          decimal.Decimal `json:"amount"`
	NewBalance      decimal.Decimal `json:"new_balance"`
}

// NewRetainerReplenishedEvent creates a new RetainerReplenishedEvent
func NewRetainerReplenishedEvent(r *Retainer, sourcePaymentID uuid.UUID, amount decimal.Decimal) *RetainerReplenishedEvent {
	return &RetainerReplenishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventRetainerReplenished, "Retainer", r.ID, r.Scope()),
		RetainerID:      r.ID,
		SourcePaymentID: sourcePaymentID,
		Amount:          amount,
		NewBalance:      r.Balance,
	}
}
