package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RefundService issues refunds against completed payments. A refund creates a
// new, immediately completed payment linked to the original, flips the
// original to refunded, reverses the linked invoice balance, and posts a
// reversing ledger entry, all inside one transaction.
type RefundService struct {
	txScope      TransactionScope
	eventBus     shared.EventPublisher
	balanceCache ClientBalanceRefresher
	logger       *zap.Logger
}

// NewRefundService creates a new RefundService
func NewRefundService(
	txScope TransactionScope,
	eventBus shared.EventPublisher,
	balanceCache ClientBalanceRefresher,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		txScope:      txScope,
		eventBus:     eventBus,
		balanceCache: balanceCache,
		logger:       logger,
	}
}

// RefundRequest carries the inputs for issuing a refund
type RefundRequest struct {
	// Amount defaults to the full original amount when nil
	Amount *decimal.Decimal
	Reason string
	// Method defaults to the original payment's method when nil
	Method *billing.PaymentMethod
}

// RefundResult returns both sides of a refund
type RefundResult struct {
	Refund   *billing.Payment `json:"refund"`
	Original *billing.Payment `json:"original"`
}

// CreateRefund issues a refund for a completed or reconciled payment
func (s *RefundService) CreateRefund(ctx context.Context, caller shared.CallerContext, originalID uuid.UUID, req RefundRequest) (*RefundResult, error) {
	if err := caller.AuthorizeFinancial(); err != nil {
		return nil, err
	}
	if req.Reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Refund reason is required")
	}

	var result *RefundResult
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		original, err := repos.PaymentRepo().FindByID(ctx, originalID)
		if err != nil {
			return err
		}
		if original == nil {
			return shared.ErrNotFound
		}
		if !caller.Scope.Matches(original.Scope()) {
			return shared.ErrForbidden
		}
		if !original.Status.CanRefund() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Only completed payments can be refunded, payment is %s", original.Status))
		}

		amount := original.Amount
		if req.Amount != nil {
			amount = *req.Amount
		}
		if amount.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
		}
		if amount.GreaterThan(original.Amount) {
			return shared.NewDomainError("INSUFFICIENT_FUNDS",
				fmt.Sprintf("Refund amount %s exceeds original payment amount %s",
					amount.StringFixed(2), original.Amount.StringFixed(2)))
		}

		method := original.PaymentMethod
		if req.Method != nil {
			method = *req.Method
		}

		number, err := repos.PaymentRepo().NextPaymentNumber(ctx, caller.Scope)
		if err != nil {
			return fmt.Errorf("failed to generate payment number: %w", err)
		}
		money, err := valueobject.NewMoney(amount, original.Currency)
		if err != nil {
			return shared.NewDomainError("INVALID_AMOUNT", err.Error())
		}

		checkNumber := ""
		if method == billing.PaymentMethodCheck && original.CheckDetails != nil {
			checkNumber = original.CheckDetails.CheckNumber
		}

		refund, err := billing.NewPayment(billing.NewPaymentParams{
			Scope:         caller.Scope,
			PaymentNumber: number,
			PaymentType:   billing.PaymentTypeRefund,
			PaymentMethod: method,
			Amount:        money,
			CustomerID:    original.CustomerID,
			VendorID:      original.VendorID,
			CaseID:        original.CaseID,
			InvoiceID:     original.InvoiceID,
			CheckNumber:   checkNumber,
			Notes:         req.Reason,
		})
		if err != nil {
			return err
		}
		refund.IsRefund = true
		refund.OriginalID = &original.ID
		refund.SetCreatedBy(caller.UserID)

		// Refunds do not pass through the pending state
		if err := refund.Complete(caller.UserID); err != nil {
			return err
		}

		if err := original.MarkRefunded(caller.UserID, req.Reason); err != nil {
			return err
		}

		if original.InvoiceID != nil {
			if err := repos.InvoiceRepo().ReverseAmount(ctx, *original.InvoiceID, amount); err != nil {
				return err
			}
		}

		entry := billing.NewLedgerEntryForRefund(refund, original,
			fmt.Sprintf("Refund %s of payment %s", refund.PaymentNumber, original.PaymentNumber))
		if err := repos.LedgerRepo().Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to post ledger entry: %w", err)
		}

		if err := repos.PaymentRepo().Save(ctx, refund); err != nil {
			return err
		}
		if err := repos.PaymentRepo().SaveWithLock(ctx, original); err != nil {
			return err
		}

		events = append(events, refund.GetDomainEvents()...)
		events = append(events, original.GetDomainEvents()...)
		refund.ClearDomainEvents()
		original.ClearDomainEvents()

		result = &RefundResult{Refund: refund, Original: original}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.eventBus != nil && len(events) > 0 {
		if err := s.eventBus.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish refund events", zap.Error(err))
		}
	}
	if s.balanceCache != nil && result.Original.CustomerID != nil {
		if err := s.balanceCache.Invalidate(ctx, caller.Scope, *result.Original.CustomerID); err != nil {
			s.logger.Warn("failed to invalidate client balance cache", zap.Error(err))
		}
	}

	return result, nil
}
