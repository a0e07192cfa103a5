package domain

import "time"

// AuditLog is one recorded business event: who did what to which resource.
// Actor is an email for authenticated flows or "system" for webhook-driven
// ones; Metadata is free-form context (ids, statuses).
type AuditLog struct {
	ID        string
	Actor     string
	Action    string
	Resource  string
	Metadata  string
	CreatedAt time.Time
}
