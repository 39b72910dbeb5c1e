package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/lexledger/backend/internal/application/billing"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/domain/shared/valueobject"
	"github.com/lexledger/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment lifecycle API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *appbilling.PaymentService
	refundService  *appbilling.RefundService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *appbilling.PaymentService, refundService *appbilling.RefundService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		refundService:  refundService,
	}
}

// Create godoc
// @Summary      Create a payment
// @Description  Create a new payment in pending status
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body CreatePaymentRequest true "Payment creation request"
// @Success      201 {object} dto.Response{data=PaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq, err := h.toCreateRequest(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.Create(c.Request.Context(), caller, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toPaymentResponse(payment))
}

func (h *PaymentHandler) toCreateRequest(req CreatePaymentRequest) (appbilling.CreatePaymentRequest, error) {
	customerID, err := parseOptionalUUID(req.CustomerID)
	if err != nil {
		return appbilling.CreatePaymentRequest{}, err
	}
	vendorID, err := parseOptionalUUID(req.VendorID)
	if err != nil {
		return appbilling.CreatePaymentRequest{}, err
	}
	caseID, err := parseOptionalUUID(req.CaseID)
	if err != nil {
		return appbilling.CreatePaymentRequest{}, err
	}
	invoiceID, err := parseOptionalUUID(req.InvoiceID)
	if err != nil {
		return appbilling.CreatePaymentRequest{}, err
	}
	paymentDate, err := parseDateTime(req.PaymentDate)
	if err != nil {
		return appbilling.CreatePaymentRequest{}, err
	}

	currency := valueobject.Currency(req.Currency)
	if req.Currency == "" {
		currency = valueobject.DefaultCurrency
	}
	exchangeRate := decimal.Decimal{}
	if req.ExchangeRate != nil {
		exchangeRate = decimal.NewFromFloat(*req.ExchangeRate)
	}

	return appbilling.CreatePaymentRequest{
		PaymentType:   billing.PaymentType(req.PaymentType),
		PaymentMethod: billing.PaymentMethod(req.PaymentMethod),
		Amount:        decimal.NewFromFloat(req.Amount),
		Currency:      currency,
		ExchangeRate:  exchangeRate,
		CustomerID:    customerID,
		VendorID:      vendorID,
		CaseID:        caseID,
		InvoiceID:     invoiceID,
		PaymentDate:   paymentDate,
		TransactionID: req.TransactionID,
		GatewayName:   req.GatewayName,
		FeeAmount:     decimal.NewFromFloat(req.FeeAmount),
		CheckNumber:   req.CheckNumber,
		BankName:      req.BankName,
		Notes:         req.Notes,
	}, nil
}

// List godoc
// @Summary      List payments
// @Description  List payments for the caller's practice with filters and pagination
// @Tags         payments
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        status query string false "Filter by status"
// @Param        payment_method query string false "Filter by method"
// @Param        customer_id query string false "Filter by customer"
// @Success      200 {object} dto.Response{data=[]PaymentResponse}
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ListPaymentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := h.toFilter(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.paymentService.List(c.Request.Context(), caller, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toPaymentResponses(result.Items), result.Total, filter.Page, filter.PageSize)
}

func (h *PaymentHandler) toFilter(req ListPaymentsRequest) (shared.Filter, error) {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search

	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}
	if req.Method != "" {
		filter.Filters["payment_method"] = req.Method
	}
	if req.Type != "" {
		filter.Filters["payment_type"] = req.Type
	}
	if req.CustomerID != "" {
		filter.Filters["customer_id"] = req.CustomerID
	}
	if req.InvoiceID != "" {
		filter.Filters["invoice_id"] = req.InvoiceID
	}
	if req.FromDate != "" {
		from, err := parseDateTime(req.FromDate)
		if err != nil {
			return filter, err
		}
		filter.Filters["from_date"] = from
	}
	if req.ToDate != "" {
		to, err := parseDateTime(req.ToDate)
		if err != nil {
			return filter, err
		}
		filter.Filters["to_date"] = to
	}
	return filter, nil
}

// Get godoc
// @Summary      Get a payment
// @Description  Get a payment by ID
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} dto.Response{data=PaymentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	caller, paymentID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.Get(c.Request.Context(), caller, paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// Update godoc
// @Summary      Update a payment
// @Description  Update mutable payment fields. Only notes may change once the payment has financial effect.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body UpdatePaymentRequest true "Payment update request"
// @Success      200 {object} dto.Response{data=PaymentResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id} [put]
func (h *PaymentHandler) Update(c *gin.Context) {
	caller, paymentID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := appbilling.UpdatePaymentRequest{
		Notes:         req.Notes,
		TransactionID: req.TransactionID,
	}
	if req.PaymentDate != nil {
		paymentDate, err := parseDateTime(*req.PaymentDate)
		if err != nil {
			h.BadRequest(c, "Invalid payment date format")
			return
		}
		appReq.PaymentDate = &paymentDate
	}

	payment, err := h.paymentService.Update(c.Request.Context(), caller, paymentID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// Delete godoc
// @Summary      Delete a payment
// @Description  Delete a pending or failed payment. Payments with financial effect cannot be deleted.
// @Tags         payments
// @Param        id path string true "Payment ID"
// @Success      204
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	caller, paymentID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	if err := h.paymentService.Delete(c.Request.Context(), caller, paymentID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// BulkDelete godoc
// @Summary      Bulk delete payments
// @Description  Delete multiple payments, skipping any with financial effect
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body BulkDeletePaymentsRequest true "Bulk delete request"
// @Success      200 {object} dto.Response{data=BulkDeleteResponse}
// @Security     BearerAuth
// @Router       /payments/bulk-delete [post]
func (h *PaymentHandler) BulkDelete(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req BulkDeletePaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid payment ID: "+raw)
			return
		}
		ids = append(ids, id)
	}

	deleted, skipped, err := h.paymentService.BulkDelete(c.Request.Context(), caller, ids)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, BulkDeleteResponse{Deleted: deleted, Skipped: skipped})
}

// Complete godoc
// @Summary      Complete a payment
// @Description  Complete a pending payment exactly once, applying it to invoices and posting ledger entries
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body CompletePaymentRequest true "Completion request"
// @Success      200 {object} dto.Response{data=PaymentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/complete [post]
func (h *PaymentHandler) Complete(c *gin.Context) {
	caller, paymentID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var req CompletePaymentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	applications, err := toApplicationInputs(req.Applications)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.Complete(c.Request.Context(), caller, paymentID, applications)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// Fail godoc
// @Summary      Fail a payment
// @Description  Mark a pending payment as failed with a reason
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body FailPaymentRequest true "Failure request"
// @Success      200 {object} dto.Response{data=PaymentResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/fail [post]
func (h *PaymentHandler) Fail(c *gin.Context) {
	caller, paymentID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var req FailPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.Fail(c.Request.Context(), caller, paymentID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// Refund godoc
// @Summary      Refund a payment
// @Description  Issue a full or partial refund for a completed or reconciled payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body RefundPaymentRequest true "Refund request"
// @Success      201 {object} dto.Response{data=RefundResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	caller, paymentID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var req RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := appbilling.RefundRequest{Reason: req.Reason}
	if req.Amount != nil {
		amount := decimal.NewFromFloat(*req.Amount)
		appReq.Amount = &amount
	}
	if req.Method != "" {
		method := billing.PaymentMethod(req.Method)
		appReq.Method = &method
	}

	result, err := h.refundService.CreateRefund(c.Request.Context(), caller, paymentID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, RefundResponse{
		Refund:   toPaymentResponse(result.Refund),
		Original: toPaymentResponse(result.Original),
	})
}

// Reconcile godoc
// @Summary      Reconcile a payment
// @Description  Mark a completed payment as reconciled against a bank statement. Reconciling twice is a no-op.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body ReconcilePaymentRequest true "Reconciliation request"
// @Success      200 {object} dto.Response{data=PaymentResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/reconcile [post]
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	caller, paymentID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var req ReconcilePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.Reconcile(c.Request.Context(), caller, paymentID, req.BankStatementRef)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// Apply godoc
// @Summary      Apply a payment to invoices
// @Description  Allocate unapplied funds of a completed payment across invoices
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body CompletePaymentRequest true "Applications"
// @Success      200 {object} dto.Response{data=PaymentResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/apply [put]
func (h *PaymentHandler) Apply(c *gin.Context) {
	caller, paymentID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var req CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if len(req.Applications) == 0 {
		h.BadRequest(c, "At least one application is required")
		return
	}

	applications, err := toApplicationInputs(req.Applications)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.ApplyToInvoices(c.Request.Context(), caller, paymentID, applications)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// Unapply godoc
// @Summary      Unapply a payment from an invoice
// @Description  Reverse a payment's application to one invoice, returning the funds to unapplied
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        invoiceId path string true "Invoice ID"
// @Success      200 {object} dto.Response{data=PaymentResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/unapply/{invoiceId} [delete]
func (h *PaymentHandler) Unapply(c *gin.Context) {
	caller, paymentID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	invoiceID, err := uuid.Parse(c.Param("invoiceId"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	payment, err := h.paymentService.UnapplyFromInvoice(c.Request.Context(), caller, paymentID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// UpdateCheckStatus godoc
// @Summary      Update check status
// @Description  Advance a check payment through received, deposited, cleared, or bounced. A bounce fails the payment.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body CheckStatusRequest true "Check status update"
// @Success      200 {object} dto.Response{data=PaymentResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/check-status [put]
func (h *PaymentHandler) UpdateCheckStatus(c *gin.Context) {
	caller, paymentID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var req CheckStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	update := billing.CheckStatusUpdate{
		Status:       billing.CheckStatus(req.Status),
		BounceReason: req.BounceReason,
	}
	if req.DepositDate != "" {
		depositDate, err := parseDateTime(req.DepositDate)
		if err != nil {
			h.BadRequest(c, "Invalid deposit date format")
			return
		}
		update.DepositDate = &depositDate
	}
	if req.ClearanceDate != "" {
		clearanceDate, err := parseDateTime(req.ClearanceDate)
		if err != nil {
			h.BadRequest(c, "Invalid clearance date format")
			return
		}
		update.ClearanceDate = &clearanceDate
	}

	payment, err := h.paymentService.UpdateCheckStatus(c.Request.Context(), caller, paymentID, update)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// SendReceipt godoc
// @Summary      Send a payment receipt
// @Description  Record that a receipt was sent to the given recipient
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body SendReceiptRequest true "Receipt request"
// @Success      200 {object} dto.Response{data=PaymentResponse}
// @Security     BearerAuth
// @Router       /payments/{id}/send-receipt [post]
func (h *PaymentHandler) SendReceipt(c *gin.Context) {
	caller, paymentID, ok := h.callerAndID(c)
	if !ok {
		return
	}

	var req SendReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.SendReceipt(c.Request.Context(), caller, paymentID, req.Recipient)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// Summary godoc
// @Summary      Payment statistics
// @Description  Aggregate payment counts and amounts for the caller's practice
// @Tags         payments
// @Produce      json
// @Success      200 {object} dto.Response{data=PaymentStatsResponse}
// @Security     BearerAuth
// @Router       /payments/summary [get]
func (h *PaymentHandler) Summary(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	stats, err := h.paymentService.Stats(c.Request.Context(), caller)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentStatsResponse(stats))
}

// Unreconciled godoc
// @Summary      List unreconciled payments
// @Description  List completed payments awaiting bank reconciliation
// @Tags         payments
// @Produce      json
// @Success      200 {object} dto.Response{data=[]PaymentResponse}
// @Security     BearerAuth
// @Router       /payments/unreconciled [get]
func (h *PaymentHandler) Unreconciled(c *gin.Context) {
	h.listSpecial(c, h.paymentService.Unreconciled)
}

// PendingChecks godoc
// @Summary      List pending checks
// @Description  List check payments whose check has not yet cleared or bounced
// @Tags         payments
// @Produce      json
// @Success      200 {object} dto.Response{data=[]PaymentResponse}
// @Security     BearerAuth
// @Router       /payments/pending-checks [get]
func (h *PaymentHandler) PendingChecks(c *gin.Context) {
	h.listSpecial(c, h.paymentService.PendingChecks)
}

// RecordInvoicePayment godoc
// @Summary      Record a payment against an invoice
// @Description  Record an already-received payment directly against an invoice; the payment is completed immediately
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        invoiceId path string true "Invoice ID"
// @Param        request body RecordInvoicePaymentRequest true "Payment recording request"
// @Success      201 {object} dto.Response{data=PaymentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{invoiceId}/payments [post]
func (h *PaymentHandler) RecordInvoicePayment(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("invoiceId"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req RecordInvoicePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var paymentDate time.Time
	if req.PaymentDate != "" {
		paymentDate, err = parseDateTime(req.PaymentDate)
		if err != nil {
			h.BadRequest(c, "Invalid payment date format")
			return
		}
	}

	appReq := appbilling.RecordInvoicePaymentRequest{
		Amount:        decimal.NewFromFloat(req.Amount),
		PaymentMethod: billing.PaymentMethod(req.PaymentMethod),
		PaymentDate:   paymentDate,
		TransactionID: req.TransactionID,
		CheckNumber:   req.CheckNumber,
		BankName:      req.BankName,
		Notes:         req.Notes,
	}

	payment, err := h.paymentService.RecordInvoicePayment(c.Request.Context(), caller, invoiceID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toPaymentResponse(payment))
}

// callerAndID extracts the caller context and the payment ID path parameter
func (h *PaymentHandler) callerAndID(c *gin.Context) (shared.CallerContext, uuid.UUID, bool) {
	caller, ok := getCaller(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return shared.CallerContext{}, uuid.Nil, false
	}
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return shared.CallerContext{}, uuid.Nil, false
	}
	return caller, paymentID, true
}

// listSpecial serves the unreconciled and pending-check listings, which share
// the same pagination handling but fetch from different repository queries.
func (h *PaymentHandler) listSpecial(c *gin.Context, fetch func(ctx context.Context, caller shared.CallerContext, filter shared.Filter) ([]billing.Payment, error)) {
	caller, ok := getCaller(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}

	payments, err := fetch(c.Request.Context(), caller, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponses(payments))
}

func toApplicationInputs(requests []ApplicationRequest) ([]appbilling.ApplicationInput, error) {
	applications := make([]appbilling.ApplicationInput, 0, len(requests))
	for _, app := range requests {
		invoiceID, err := uuid.Parse(app.InvoiceID)
		if err != nil {
			return nil, err
		}
		applications = append(applications, appbilling.ApplicationInput{
			InvoiceID: invoiceID,
			Amount:    decimal.NewFromFloat(app.Amount),
		})
	}
	return applications, nil
}
