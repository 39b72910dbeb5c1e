package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
// Check, refund, and reconciliation sub-documents are flattened into columns;
// invoice applications live in a child table.
type PaymentModel struct {
	PracticeAggregateModel
	PaymentNumber   string                 `gorm:"type:varchar(50);not null;index"`
	PaymentType     billing.PaymentType    `gorm:"type:varchar(30);not null;index"`
	PaymentMethod   billing.PaymentMethod  `gorm:"type:varchar(30);not null;index"`
	Amount          decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Currency        string                 `gorm:"type:varchar(3);not null;default:'SAR'"`
	ExchangeRate    decimal.Decimal        `gorm:"type:decimal(18,8);not null;default:1"`
	CustomerID      *uuid.UUID             `gorm:"type:uuid;index"`
	VendorID        *uuid.UUID             `gorm:"type:uuid;index"`
	CaseID          *uuid.UUID             `gorm:"type:uuid;index"`
	InvoiceID       *uuid.UUID             `gorm:"type:uuid;index"`
	Status          billing.PaymentStatus  `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentDate     time.Time              `gorm:"not null;index"`
	TotalApplied    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	UnappliedAmount decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	TransactionID   string                 `gorm:"type:varchar(100)"`
	GatewayName     string                 `gorm:"type:varchar(50)"`
	FeeAmount       decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	CheckNumber     string                 `gorm:"type:varchar(50)"`
	CheckBankName   string                 `gorm:"type:varchar(100)"`
	CheckStatus     string                 `gorm:"type:varchar(20);index"`
	CheckDepositDate   *time.Time
	CheckClearanceDate *time.Time
	CheckBounceReason  string     `gorm:"type:varchar(500)"`
	IsRefund           bool       `gorm:"not null;default:false;index"`
	OriginalPaymentID  *uuid.UUID `gorm:"type:uuid;index"`
	RefundReason       string     `gorm:"type:varchar(500)"`
	RefundedAt         *time.Time
	RefundedBy         *uuid.UUID `gorm:"type:uuid"`
	IsReconciled       bool       `gorm:"not null;default:false;index"`
	BankStatementRef   string     `gorm:"type:varchar(100)"`
	ReconciledAt       *time.Time
	ReconciledBy       *uuid.UUID `gorm:"type:uuid"`
	ProcessedBy        *uuid.UUID `gorm:"type:uuid"`
	ProcessedAt        *time.Time
	FailureReason      string `gorm:"type:varchar(500)"`
	FailureDate        *time.Time
	RetryCount         int `gorm:"not null;default:0"`
	ReceiptSentAt      *time.Time
	ReceiptSentTo      string                    `gorm:"type:varchar(200)"`
	Notes              string                    `gorm:"type:text"`
	Applications       []PaymentApplicationModel `gorm:"foreignKey:PaymentID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// PaymentApplicationModel is the persistence model for invoice applications
type PaymentApplicationModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AppliedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentApplicationModel) TableName() string {
	return "payment_applications"
}

// ToDomain converts the persistence model to a domain Payment aggregate.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		PaymentNumber:   m.PaymentNumber,
		PaymentType:     m.PaymentType,
		PaymentMethod:   m.PaymentMethod,
		Amount:          m.Amount,
		Currency:        valueobject.Currency(m.Currency),
		ExchangeRate:    m.ExchangeRate,
		CustomerID:      m.CustomerID,
		VendorID:        m.VendorID,
		CaseID:          m.CaseID,
		InvoiceID:       m.InvoiceID,
		Status:          m.Status,
		PaymentDate:     m.PaymentDate,
		TotalApplied:    m.TotalApplied,
		UnappliedAmount: m.UnappliedAmount,
		TransactionID:   m.TransactionID,
		GatewayName:     m.GatewayName,
		FeeAmount:       m.FeeAmount,
		IsRefund:        m.IsRefund,
		OriginalID:      m.OriginalPaymentID,
		ProcessedBy:     m.ProcessedBy,
		ProcessedAt:     m.ProcessedAt,
		FailureReason:   m.FailureReason,
		FailureDate:     m.FailureDate,
		RetryCount:      m.RetryCount,
		ReceiptSentAt:   m.ReceiptSentAt,
		ReceiptSentTo:   m.ReceiptSentTo,
		Notes:           m.Notes,
	}
	m.PopulatePracticeAggregateRoot(&p.PracticeAggregateRoot)

	if m.PaymentMethod == billing.PaymentMethodCheck && m.CheckNumber != "" {
		p.CheckDetails = &billing.CheckDetails{
			CheckNumber:   m.CheckNumber,
			BankName:      m.CheckBankName,
			Status:        billing.CheckStatus(m.CheckStatus),
			DepositDate:   m.CheckDepositDate,
			ClearanceDate: m.CheckClearanceDate,
			BounceReason:  m.CheckBounceReason,
		}
	}
	if m.RefundedAt != nil {
		var by uuid.UUID
		if m.RefundedBy != nil {
			by = *m.RefundedBy
		}
		p.RefundDetails = &billing.RefundDetails{
			Reason:     m.RefundReason,
			RefundedAt: *m.RefundedAt,
			RefundedBy: by,
		}
	}
	p.Reconciliation = billing.Reconciliation{
		IsReconciled:     m.IsReconciled,
		BankStatementRef: m.BankStatementRef,
		ReconciledAt:     m.ReconciledAt,
		ReconciledBy:     m.ReconciledBy,
	}

	p.Applications = make([]billing.InvoiceApplication, len(m.Applications))
	for i, app := range m.Applications {
		p.Applications[i] = billing.InvoiceApplication{
			ID:        app.ID,
			PaymentID: app.PaymentID,
			InvoiceID: app.InvoiceID,
			Amount:    app.Amount,
			AppliedAt: app.AppliedAt,
		}
	}

	return p
}

// FromDomain populates the persistence model from a domain Payment aggregate.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainPracticeAggregateRoot(p.PracticeAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.PaymentType = p.PaymentType
	m.PaymentMethod = p.PaymentMethod
	m.Amount = p.Amount
	m.Currency = string(p.Currency)
	m.ExchangeRate = p.ExchangeRate
	m.CustomerID = p.CustomerID
	m.VendorID = p.VendorID
	m.CaseID = p.CaseID
	m.InvoiceID = p.InvoiceID
	m.Status = p.Status
	m.PaymentDate = p.PaymentDate
	m.TotalApplied = p.TotalApplied
	m.UnappliedAmount = p.UnappliedAmount
	m.TransactionID = p.TransactionID
	m.GatewayName = p.GatewayName
	m.FeeAmount = p.FeeAmount
	m.IsRefund = p.IsRefund
	m.OriginalPaymentID = p.OriginalID
	m.ProcessedBy = p.ProcessedBy
	m.ProcessedAt = p.ProcessedAt
	m.FailureReason = p.FailureReason
	m.FailureDate = p.FailureDate
	m.RetryCount = p.RetryCount
	m.ReceiptSentAt = p.ReceiptSentAt
	m.ReceiptSentTo = p.ReceiptSentTo
	m.Notes = p.Notes

	if p.CheckDetails != nil {
		m.CheckNumber = p.CheckDetails.CheckNumber
		m.CheckBankName = p.CheckDetails.BankName
		m.CheckStatus = string(p.CheckDetails.Status)
		m.CheckDepositDate = p.CheckDetails.DepositDate
		m.CheckClearanceDate = p.CheckDetails.ClearanceDate
		m.CheckBounceReason = p.CheckDetails.BounceReason
	}
	if p.RefundDetails != nil {
		m.RefundReason = p.RefundDetails.Reason
		refundedAt := p.RefundDetails.RefundedAt
		m.RefundedAt = &refundedAt
		refundedBy := p.RefundDetails.RefundedBy
		m.RefundedBy = &refundedBy
	}
	m.IsReconciled = p.Reconciliation.IsReconciled
	m.BankStatementRef = p.Reconciliation.BankStatementRef
	m.ReconciledAt = p.Reconciliation.ReconciledAt
	m.ReconciledBy = p.Reconciliation.ReconciledBy

	m.Applications = make([]PaymentApplicationModel, len(p.Applications))
	for i, app := range p.Applications {
		m.Applications[i] = PaymentApplicationModel{
			ID:        app.ID,
			PaymentID: app.PaymentID,
			InvoiceID: app.InvoiceID,
			Amount:    app.Amount,
			AppliedAt: app.AppliedAt,
		}
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// InvoiceModel is the persistence model for the Invoice entity
type InvoiceModel struct {
	PracticeAggregateModel
	InvoiceNumber string                `gorm:"type:varchar(50);not null;index"`
	CustomerID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	CaseID        *uuid.UUID            `gorm:"type:uuid;index"`
	TotalAmount   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	AmountPaid    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	BalanceDue    decimal.Decimal       `gorm:"type:decimal(18,4);not null;index"`
	Currency      string                `gorm:"type:varchar(3);not null;default:'SAR'"`
	Status        billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'unpaid';index"`
	DueDate       *time.Time            `gorm:"index"`
	PaidDate      *time.Time
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		InvoiceNumber: m.InvoiceNumber,
		CustomerID:    m.CustomerID,
		CaseID:        m.CaseID,
		TotalAmount:   m.TotalAmount,
		AmountPaid:    m.AmountPaid,
		BalanceDue:    m.BalanceDue,
		Currency:      valueobject.Currency(m.Currency),
		Status:        m.Status,
		DueDate:       m.DueDate,
		PaidDate:      m.PaidDate,
	}
	m.PopulatePracticeAggregateRoot(&inv.PracticeAggregateRoot)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainPracticeAggregateRoot(inv.PracticeAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.CaseID = inv.CaseID
	m.TotalAmount = inv.TotalAmount
	m.AmountPaid = inv.AmountPaid
	m.BalanceDue = inv.BalanceDue
	m.Currency = string(inv.Currency)
	m.Status = inv.Status
	m.DueDate = inv.DueDate
	m.PaidDate = inv.PaidDate
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// RetainerModel is the persistence model for the Retainer entity
type RetainerModel struct {
	PracticeAggregateModel
	CustomerID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	Balance         decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Currency        string                 `gorm:"type:varchar(3);not null;default:'SAR'"`
	Status          billing.RetainerStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	LastReplenished *time.Time
}

// TableName returns the table name for GORM
func (RetainerModel) TableName() string {
	return "retainers"
}

// ToDomain converts the persistence model to a domain Retainer
func (m *RetainerModel) ToDomain() *billing.Retainer {
	r := &billing.Retainer{
		CustomerID:      m.CustomerID,
		Balance:         m.Balance,
		Currency:        valueobject.Currency(m.Currency),
		Status:          m.Status,
		LastReplenished: m.LastReplenished,
	}
	m.PopulatePracticeAggregateRoot(&r.PracticeAggregateRoot)
	return r
}

// FromDomain populates the persistence model from a domain Retainer
func (m *RetainerModel) FromDomain(r *billing.Retainer) {
	m.FromDomainPracticeAggregateRoot(r.PracticeAggregateRoot)
	m.CustomerID = r.CustomerID
	m.Balance = r.Balance
	m.Currency = string(r.Currency)
	m.Status = r.Status
	m.LastReplenished = r.LastReplenished
}

// RetainerModelFromDomain creates a new persistence model from a domain Retainer
func RetainerModelFromDomain(r *billing.Retainer) *RetainerModel {
	m := &RetainerModel{}
	m.FromDomain(r)
	return m
}

// LedgerEntryModel is the persistence model for immutable ledger entries
type LedgerEntryModel struct {
	BaseModel
	LawyerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	FirmID        *uuid.UUID      `gorm:"type:uuid;index"`
	PaymentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	EntryDate     time.Time       `gorm:"not null;index"`
	DebitAccount  string          `gorm:"type:varchar(10);not null;index"`
	CreditAccount string          `gorm:"type:varchar(10);not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Description   string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() *billing.LedgerEntry {
	return &billing.LedgerEntry{
		BaseEntity:    m.BaseModel.ToDomain(),
		LawyerID:      m.LawyerID,
		FirmID:        m.FirmID,
		PaymentID:     m.PaymentID,
		EntryDate:     m.EntryDate,
		DebitAccount:  m.DebitAccount,
		CreditAccount: m.CreditAccount,
		Amount:        m.Amount,
		Description:   m.Description,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry
func LedgerEntryModelFromDomain(e *billing.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{
		LawyerID:      e.LawyerID,
		FirmID:        e.FirmID,
		PaymentID:     e.PaymentID,
		EntryDate:     e.EntryDate,
		DebitAccount:  e.DebitAccount,
		CreditAccount: e.CreditAccount,
		Amount:        e.Amount,
		Description:   e.Description,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}

// BillingActivityModel is the append-only audit trail row for billing events
type BillingActivityModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	LawyerID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	FirmID      *uuid.UUID `gorm:"type:uuid;index"`
	EventType   string     `gorm:"type:varchar(60);not null;index"`
	AggregateID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Aggregate   string     `gorm:"type:varchar(40);not null"`
	Payload     string     `gorm:"type:jsonb;not null;default:'{}'"`
	OccurredAt  time.Time  `gorm:"not null;index"`
	CreatedAt   time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BillingActivityModel) TableName() string {
	return "billing_activities"
}

// AllModels returns every model for migration registration
func AllModels() []interface{} {
	return []interface{}{
		&PaymentModel{},
		&PaymentApplicationModel{},
		&InvoiceModel{},
		&RetainerModel{},
		&LedgerEntryModel{},
		&BillingActivityModel{},
	}
}
