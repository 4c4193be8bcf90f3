package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Entry is one human-readable trace of a state-changing operation.
type Entry struct {
	Action     string // CREATE, APPROVE, REJECT, DELETE
	EntityType string // e.g. annual_leave_grant
	EntityID   string
	CompanyID  string
	ActorID    string
	Message    string
	Meta       map[string]any
}

// Recorder is fire-and-forget: implementations must never return an error to
// the caller, and a failed record must never affect the primary operation.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type ZapRecorder struct{}

func NewZapRecorder() *ZapRecorder {
	return &ZapRecorder{}
}

func (r *ZapRecorder) Record(ctx context.Context, entry Entry) {
	zap.L().Named("audit").Info("audit event",
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("action", entry.Action),
		zap.String("entity_type", entry.EntityType),
		zap.String("entity_id", entry.EntityID),
		zap.String("company_id", entry.CompanyID),
		zap.String("actor_id", entry.ActorID),
		zap.String("message", entry.Message),
		zap.Any("meta", entry.Meta),
	)
}
