package events

import "time"

const AuditTrailTopic = "hr.audit.trail.v1"

type AuditTrailEvent struct {
	EventType  string         `json:"event_type"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	CompanyID  string         `json:"company_id"`
	ActorID    string         `json:"actor_id"`
	Message    string         `json:"message"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
