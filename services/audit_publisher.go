package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docveil/models"
)

// AuditPublisher is the fire-and-forget activity sink. It is invoked after a
// structural or sharing operation succeeds; implementations must swallow
// their own failures so that publishing can never roll back or fail the
// triggering operation.
type AuditPublisher interface {
	Publish(ctx context.Context, event models.ActivityEvent)
	Close() error
}

// NewActivityEvent stamps an event with an id and timestamp.
func NewActivityEvent(action string, kind models.ResourceKind, resourceID, actorID string, details map[string]interface{}) models.ActivityEvent {
	return models.ActivityEvent{
		ID:           uuid.NewString(),
		Action:       action,
		ResourceType: kind,
		ResourceID:   resourceID,
		ActorID:      actorID,
		Details:      details,
		OccurredAt:   time.Now().UTC(),
	}
}

// NoopAuditPublisher drops every event. Used when no broker is configured and
// in tests.
type NoopAuditPublisher struct{}

func (NoopAuditPublisher) Publish(ctx context.Context, event models.ActivityEvent) {}

func (NoopAuditPublisher) Close() error { return nil }
