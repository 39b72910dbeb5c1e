package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RetainerStatus represents the state of a client retainer
type RetainerStatus string

const (
	RetainerStatusActive   RetainerStatus = "active"
	RetainerStatusDepleted RetainerStatus = "depleted"
	RetainerStatusClosed   RetainerStatus = "closed"
)

// String returns the string representation of RetainerStatus
func (s RetainerStatus) String() string {
	return string(s)
}

// Retainer holds a client's prepaid balance with the practice. Completed
// retainer and advance payments credit it; work performed draws it down.
type Retainer struct {
	shared.PracticeAggregateRoot
	CustomerID      uuid.UUID            `json:"customer_id"`
	Balance         decimal.Decimal      `json:"balance"`
	Currency        valueobject.Currency `json:"currency"`
	Status          RetainerStatus       `json:"status"`
	LastReplenished *time.Time           `json:"last_replenished,omitempty"`
}

// NewRetainer creates a new active retainer with an opening balance
func NewRetainer(scope shared.PracticeScope, customerID uuid.UUID, opening valueobject.Money) (*Retainer, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if opening.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Opening balance cannot be negative")
	}

	status := RetainerStatusActive
	if opening.Amount().IsZero() {
		status = RetainerStatusDepleted
	}

	return &Retainer{
		PracticeAggregateRoot: shared.NewPracticeAggregateRoot(scope),
		CustomerID:            customerID,
		Balance:               opening.Amount(),
		Currency:              opening.Currency(),
		Status:                status,
	}, nil
}

// Replenish credits the retainer and reactivates it if it was depleted.
// Closed retainers are excluded by the replenisher query, but the guard is
// kept here so a direct call cannot revive one.
func (r *Retainer) Replenish(amount valueobject.Money, sourcePaymentID uuid.UUID) error {
	if r.Status == RetainerStatusClosed {
		return shared.NewDomainError("INVALID_STATE", "Cannot replenish a closed retainer")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Replenishment amount must be positive")
	}

	r.Balance = r.Balance.Add(amount.Amount())
	if r.Status == RetainerStatusDepleted {
		r.Status = RetainerStatusActive
	}
	now := time.Now()
	r.LastReplenished = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRetainerReplenishedEvent(r, sourcePaymentID, amount.Amount()))

	return nil
}

// Draw debits the retainer for work performed, marking it depleted at zero
func (r *Retainer) Draw(amount valueobject.Money) error {
	if r.Status != RetainerStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Retainer is not active")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Draw amount must be positive")
	}
	if amount.Amount().GreaterThan(r.Balance) {
		return shared.NewDomainError("INSUFFICIENT_FUNDS", "Draw amount exceeds retainer balance")
	}

	r.Balance = r.Balance.Sub(amount.Amount())
	if r.Balance.IsZero() {
		r.Status = RetainerStatusDepleted
	}
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// Close closes the retainer so it can no longer be replenished or drawn
func (r *Retainer) Close() error {
	if r.Status == RetainerStatusClosed {
		return shared.NewDomainError("INVALID_STATE", "Retainer is already closed")
	}
	r.Status = RetainerStatusClosed
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// GetBalanceMoney returns the balance as Money
func (r *Retainer) GetBalanceMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(r.Balance, r.Currency)
	return m
}
