package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/billing"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/infrastructure/persistence"
	"github.com/lexledger/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

// ActivitySubscriber records every billing domain event as an append-only
// activity row. Recording is best effort: a failed insert is logged and
// swallowed so the audit trail never breaks the originating operation.
type ActivitySubscriber struct {
	repo   *persistence.GormActivityLogRepository
	logger *zap.Logger
}

// NewActivitySubscriber creates a new ActivitySubscriber
func NewActivitySubscriber(repo *persistence.GormActivityLogRepository, logger *zap.Logger) *ActivitySubscriber {
	return &ActivitySubscriber{repo: repo, logger: logger}
}

// EventTypes returns the billing events the subscriber records
func (s *ActivitySubscriber) EventTypes() []string {
	return []string{
		billing.EventPaymentCreated,
		billing.EventPaymentCompleted,
		billing.EventPaymentFailed,
		billing.EventPaymentApplied,
		billing.EventPaymentUnapplied,
		billing.EventPaymentRefunded,
		billing.EventPaymentReconciled,
		billing.EventPaymentCheckStatusChanged,
		billing.EventPaymentDeleted,
		billing.EventRetainerReplenished,
		billing.EventInvoicePaymentRecorded,
	}
}

// Handle persists the event as an activity row
func (s *ActivitySubscriber) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to serialize activity payload",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		payload = []byte("{}")
	}

	activity := &models.BillingActivityModel{
		ID:          uuid.New(),
		LawyerID:    event.LawyerID(),
		FirmID:      event.FirmID(),
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		Aggregate:   event.AggregateType(),
		Payload:     string(payload),
		OccurredAt:  event.OccurredAt(),
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Save(ctx, activity); err != nil {
		s.logger.Error("failed to record billing activity",
			zap.String("event_type", event.EventType()),
			zap.String("aggregate_id", event.AggregateID().String()),
			zap.Error(err),
		)
	}
	return nil
}

// Ensure ActivitySubscriber implements EventHandler
var _ shared.EventHandler = (*ActivitySubscriber)(nil)
