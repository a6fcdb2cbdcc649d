package model

import (
	"encoding/json"
	"time"
)

// AuditEvent mirrors a row of the append-only `audit_events` table.
// ActorID is nil for system-initiated events.
type AuditEvent struct {
	ID         uint64          `json:"id"`
	EventID    string          `json:"event_id"`
	ActorID    *uint64         `json:"actor_id,omitempty"`
	Action     string          `json:"action"`
	TargetType string          `json:"target_type"`
	TargetID   uint64          `json:"target_id"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	IPAddress  string          `json:"ip_address,omitempty"`
	UserAgent  string          `json:"user_agent,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
