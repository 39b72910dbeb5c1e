package handler

import (
	"time"

	"github.com/lexledger/backend/internal/domain/billing"
)

// CreatePaymentRequest is the payload for creating a payment
// @Description Payment creation request
type CreatePaymentRequest struct {
	PaymentType   string   `json:"payment_type" binding:"required,oneof=customer_payment vendor_payment retainer advance refund"`
	PaymentMethod string   `json:"payment_method" binding:"required,oneof=cash check card bank_transfer gateway other"`
	Amount        float64  `json:"amount" binding:"required,gt=0"`
	Currency      string   `json:"currency" binding:"omitempty,currency_code"`
	ExchangeRate  *float64 `json:"exchange_rate" binding:"omitempty,gt=0"`
	CustomerID    string   `json:"customer_id" binding:"omitempty,uuid"`
	VendorID      string   `json:"vendor_id" binding:"omitempty,uuid"`
	CaseID        string   `json:"case_id" binding:"omitempty,uuid"`
	InvoiceID     string   `json:"invoice_id" binding:"omitempty,uuid"`
	PaymentDate   string   `json:"payment_date" binding:"omitempty"`
	TransactionID string   `json:"transaction_id"`
	GatewayName   string   `json:"gateway_name"`
	FeeAmount     float64  `json:"fee_amount" binding:"omitempty,gte=0"`
	CheckNumber   string   `json:"check_number"`
	BankName      string   `json:"bank_name"`
	Notes         string   `json:"notes"`
}

// UpdatePaymentRequest is the payload for updating mutable payment fields
// @Description Payment update request
type UpdatePaymentRequest struct {
	Notes         *string `json:"notes"`
	PaymentDate   *string `json:"payment_date"`
	TransactionID *string `json:"transaction_id"`
}

// ApplicationRequest identifies one invoice allocation
// @Description Invoice application entry
type ApplicationRequest struct {
	InvoiceID string  `json:"invoice_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

// CompletePaymentRequest is the payload for completing a payment
// @Description Payment completion request
type CompletePaymentRequest struct {
	Applications []ApplicationRequest `json:"applications" binding:"omitempty,dive"`
}

// FailPaymentRequest is the payload for failing a payment
// @Description Payment failure request
type FailPaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RefundPaymentRequest is the payload for issuing a refund
// @Description Refund request
type RefundPaymentRequest struct {
	Amount *float64 `json:"amount" binding:"omitempty,gt=0"`
	Reason string   `json:"reason" binding:"required"`
	Method string   `json:"method" binding:"omitempty,oneof=cash check card bank_transfer gateway other"`
}

// ReconcilePaymentRequest is the payload for reconciling a payment
// @Description Reconciliation request
type ReconcilePaymentRequest struct {
	BankStatementRef string `json:"bank_statement_ref" binding:"required"`
}

// CheckStatusRequest is the payload for updating check status
// @Description Check status update request
type CheckStatusRequest struct {
	Status        string `json:"status" binding:"required,oneof=received deposited cleared bounced"`
	BounceReason  string `json:"bounce_reason"`
	DepositDate   string `json:"deposit_date" binding:"omitempty"`
	ClearanceDate string `json:"clearance_date" binding:"omitempty"`
}

// SendReceiptRequest is the payload for sending a receipt
// @Description Receipt dispatch request
type SendReceiptRequest struct {
	Recipient string `json:"recipient" binding:"required,email"`
}

// BulkDeletePaymentsRequest is the payload for bulk deletion
// @Description Bulk delete request
type BulkDeletePaymentsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// RecordInvoicePaymentRequest is the payload for recording a payment against an invoice
// @Description Invoice payment recording request
type RecordInvoicePaymentRequest struct {
	Amount        float64 `json:"amount" binding:"omitempty,gt=0"`
	PaymentMethod string  `json:"payment_method" binding:"required,oneof=cash check card bank_transfer gateway other"`
	PaymentDate   string  `json:"payment_date" binding:"omitempty"`
	TransactionID string  `json:"transaction_id"`
	CheckNumber   string  `json:"check_number"`
	BankName      string  `json:"bank_name"`
	Notes         string  `json:"notes"`
}

// ListPaymentsRequest carries the payment list query parameters
type ListPaymentsRequest struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=created_at payment_date amount payment_number status"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search     string `form:"search"`
	Status     string `form:"status" binding:"omitempty,oneof=pending completed failed refunded reconciled"`
	Method     string `form:"payment_method" binding:"omitempty,oneof=cash check card bank_transfer gateway other"`
	Type       string `form:"payment_type" binding:"omitempty,oneof=customer_payment vendor_payment retainer advance refund"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	InvoiceID  string `form:"invoice_id" binding:"omitempty,uuid"`
	FromDate   string `form:"from_date"`
	ToDate     string `form:"to_date"`
}

// CheckDetailsResponse represents check sub-state in API responses
// @Description Check details response
type CheckDetailsResponse struct {
	CheckNumber   string     `json:"check_number"`
	BankName      string     `json:"bank_name,omitempty"`
	Status        string     `json:"status"`
	DepositDate   *time.Time `json:"deposit_date,omitempty"`
	ClearanceDate *time.Time `json:"clearance_date,omitempty"`
	BounceReason  string     `json:"bounce_reason,omitempty"`
}

// ApplicationResponse represents one invoice application in API responses
// @Description Invoice application response
type ApplicationResponse struct {
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoice_id"`
	Amount    float64   `json:"amount"`
	AppliedAt time.Time `json:"applied_at"`
}

// ReconciliationResponse represents reconciliation state in API responses
// @Description Reconciliation response
type ReconciliationResponse struct {
	IsReconciled     bool       `json:"is_reconciled"`
	BankStatementRef string     `json:"bank_statement_ref,omitempty"`
	ReconciledAt     *time.Time `json:"reconciled_at,omitempty"`
}

// PaymentResponse represents a payment in API responses
// @Description Payment response
type PaymentResponse struct {
	ID              string                 `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	PaymentNumber   string                 `json:"payment_number" example:"PAY-000042"`
	PaymentType     string                 `json:"payment_type" example:"customer_payment"`
	PaymentMethod   string                 `json:"payment_method" example:"bank_transfer"`
	Amount          float64                `json:"amount" example:"1500.00"`
	Currency        string                 `json:"currency" example:"SAR"`
	ExchangeRate    float64                `json:"exchange_rate" example:"1"`
	CustomerID      string                 `json:"customer_id,omitempty"`
	VendorID        string                 `json:"vendor_id,omitempty"`
	CaseID          string                 `json:"case_id,omitempty"`
	InvoiceID       string                 `json:"invoice_id,omitempty"`
	Status          string                 `json:"status" example:"completed"`
	PaymentDate     time.Time              `json:"payment_date"`
	TotalApplied    float64                `json:"total_applied" example:"1000.00"`
	UnappliedAmount float64                `json:"unapplied_amount" example:"500.00"`
	Applications    []ApplicationResponse  `json:"applications,omitempty"`
	TransactionID   string                 `json:"transaction_id,omitempty"`
	GatewayName     string                 `json:"gateway_name,omitempty"`
	FeeAmount       float64                `json:"fee_amount"`
	CheckDetails    *CheckDetailsResponse  `json:"check_details,omitempty"`
	IsRefund        bool                   `json:"is_refund"`
	OriginalID      string                 `json:"original_payment_id,omitempty"`
	RefundReason    string                 `json:"refund_reason,omitempty"`
	Reconciliation  ReconciliationResponse `json:"reconciliation"`
	FailureReason   string                 `json:"failure_reason,omitempty"`
	RetryCount      int                    `json:"retry_count"`
	ReceiptSentAt   *time.Time             `json:"receipt_sent_at,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	Version         int                    `json:"version"`
}

// RefundResponse returns both sides of a refund
// @Description Refund result response
type RefundResponse struct {
	Refund   PaymentResponse `json:"refund"`
	Original PaymentResponse `json:"original"`
}

// BulkDeleteResponse reports a bulk delete outcome
// @Description Bulk delete result
type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
}

// PaymentStatsResponse aggregates payment statistics
// @Description Payment statistics response
type PaymentStatsResponse struct {
	CountByStatus  map[string]int64   `json:"count_by_status"`
	AmountByStatus map[string]float64 `json:"amount_by_status"`
	CountByMethod  map[string]int64   `json:"count_by_method"`
	TotalAmount    float64            `json:"total_amount"`
}

func toPaymentResponse(p *billing.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:              p.ID.String(),
		PaymentNumber:   p.PaymentNumber,
		PaymentType:     string(p.PaymentType),
		PaymentMethod:   string(p.PaymentMethod),
		Amount:          p.Amount.InexactFloat64(),
		Currency:        string(p.Currency),
		ExchangeRate:    p.ExchangeRate.InexactFloat64(),
		Status:          string(p.Status),
		PaymentDate:     p.PaymentDate,
		TotalApplied:    p.TotalApplied.InexactFloat64(),
		UnappliedAmount: p.UnappliedAmount.InexactFloat64(),
		TransactionID:   p.TransactionID,
		GatewayName:     p.GatewayName,
		FeeAmount:       p.FeeAmount.InexactFloat64(),
		IsRefund:        p.IsRefund,
		FailureReason:   p.FailureReason,
		RetryCount:      p.RetryCount,
		ReceiptSentAt:   p.ReceiptSentAt,
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		Version:         p.Version,
		Reconciliation: ReconciliationResponse{
			IsReconciled:     p.Reconciliation.IsReconciled,
			BankStatementRef: p.Reconciliation.BankStatementRef,
			ReconciledAt:     p.Reconciliation.ReconciledAt,
		},
	}

	if p.CustomerID != nil {
		resp.CustomerID = p.CustomerID.String()
	}
	if p.VendorID != nil {
		resp.VendorID = p.VendorID.String()
	}
	if p.CaseID != nil {
		resp.CaseID = p.CaseID.String()
	}
	if p.InvoiceID != nil {
		resp.InvoiceID = p.InvoiceID.String()
	}
	if p.OriginalID != nil {
		resp.OriginalID = p.OriginalID.String()
	}
	if p.RefundDetails != nil {
		resp.RefundReason = p.RefundDetails.Reason
	}
	if p.CheckDetails != nil {
		resp.CheckDetails = &CheckDetailsResponse{
			CheckNumber:   p.CheckDetails.CheckNumber,
			BankName:      p.CheckDetails.BankName,
			Status:        string(p.CheckDetails.Status),
			DepositDate:   p.CheckDetails.DepositDate,
			ClearanceDate: p.CheckDetails.ClearanceDate,
			BounceReason:  p.CheckDetails.BounceReason,
		}
	}
	if len(p.Applications) > 0 {
		resp.Applications = make([]ApplicationResponse, len(p.Applications))
		for i, app := range p.Applications {
			resp.Applications[i] = ApplicationResponse{
				ID:        app.ID.String(),
				InvoiceID: app.InvoiceID.String(),
				Amount:    app.Amount.InexactFloat64(),
				AppliedAt: app.AppliedAt,
			}
		}
	}

	return resp
}

func toPaymentResponses(payments []billing.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = toPaymentResponse(&payments[i])
	}
	return responses
}

func toPaymentStatsResponse(stats *billing.PaymentStats) PaymentStatsResponse {
	resp := PaymentStatsResponse{
		CountByStatus:  make(map[string]int64, len(stats.CountByStatus)),
		AmountByStatus: make(map[string]float64, len(stats.AmountByStatus)),
		CountByMethod:  make(map[string]int64, len(stats.CountByMethod)),
		TotalAmount:    stats.TotalAmount.InexactFloat64(),
	}
	for status, count := range stats.CountByStatus {
		resp.CountByStatus[string(status)] = count
	}
	for status, amount := range stats.AmountByStatus {
		resp.AmountByStatus[string(status)] = amount.InexactFloat64()
	}
	for method, count := range stats.CountByMethod {
		resp.CountByMethod[string(method)] = count
	}
	return resp
}
