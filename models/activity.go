package models

import "time"

// Activity actions emitted to the audit sink.
const (
	ActivityResourceCreated  = "resource.created"
	ActivityResourceMoved    = "resource.moved"
	ActivityResourceTrashed  = "resource.trashed"
	ActivityResourceRestored = "resource.restored"
	ActivityResourcePurged   = "resource.purged"
	ActivityAccessGranted    = "access.granted"
	ActivityAccessRevoked    = "access.revoked"
)

// ActivityEvent is a fire-and-forget audit record published after a
// structural or sharing operation succeeds.
type ActivityEvent struct {
	ID           string                 `json:"id"`
	Action       string                 `json:"action"`
	ResourceType ResourceKind           `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	ActorID      string                 `json:"actor_id"`
	Details      map[string]interface{} `json:"details,omitempty"`
	OccurredAt   time.Time              `json:"occurred_at"`
}
