package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kikoon-ek/hr-erp/internal/events"
	"github.com/kikoon-ek/hr-erp/internal/messaging/kafka"
	"github.com/kikoon-ek/hr-erp/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutboxRecorder persists audit entries to the transactional outbox; the
// worker ships them to Kafka. Failures are logged and swallowed so the
// primary operation is never rolled back by its audit trail.
type OutboxRecorder struct {
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewOutboxRecorder(outbox kafka.OutboxRepository, logger ...*zap.Logger) *OutboxRecorder {
	l := zap.L().Named("audit.outbox")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.outbox")
	}
	return &OutboxRecorder{outbox: outbox, logger: l}
}

func (r *OutboxRecorder) Record(ctx context.Context, entry Entry) {
	event := events.AuditTrailEvent{
		EventType:  "audit.trail",
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		CompanyID:  entry.CompanyID,
		ActorID:    entry.ActorID,
		Message:    entry.Message,
		Meta:       entry.Meta,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("marshal audit event failed", zap.Error(err))
		return
	}

	outboxEvent := kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: entry.EntityType,
		AggregateID:   entry.EntityID,
		EventType:     event.EventType,
		Topic:         events.AuditTrailTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}
	if outboxEvent.AggregateID == "" {
		outboxEvent.AggregateID = entry.CompanyID
	}

	if err := r.outbox.Create(ctx, outboxEvent); err != nil {
		r.logger.Error("persist audit event failed",
			zap.String("action", entry.Action),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err),
		)
	}
}
