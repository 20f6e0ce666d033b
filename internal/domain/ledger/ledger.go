// Package ledger holds the append-only activity records written as a
// side effect of every mutating action. Entries are never edited after
// insertion; order-scoped log entries may be deleted individually,
// system-wide activity logs are immutable.
package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Action names recorded by the lifecycle engine
const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionStatusChange = "status_change"
	ActionDelete       = "delete"
	ActionSync         = "sync"
	ActionFlush        = "flush"
)

// Entity types recorded on ledger entries
const (
	EntityTypePurchaseOrder = "purchase_order"
	EntityTypeSnapshot      = "snapshot"
)

// LogEntry is an order-scoped log record
type LogEntry struct {
	ID         uuid.UUID         `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Action     string            `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   uuid.UUID         `json:"entity_id"`
	Actor      string            `json:"actor"`
	Details    string            `json:"details"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ActivityLog is a system-wide activity record
type ActivityLog struct {
	ID         uuid.UUID         `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Action     string            `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   uuid.UUID         `json:"entity_id"`
	Actor      string            `json:"actor"`
	Details    string            `json:"details"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewLogEntry creates a log entry stamped with a generated id and the
// current time
func NewLogEntry(action, entityType string, entityID uuid.UUID, actor, details string) LogEntry {
	return LogEntry{
		ID:         uuid.New(),
		Timestamp:  time.Now(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Details:    details,
	}
}

// NewActivityLog creates an activity log stamped with a generated id
// and the current time
func NewActivityLog(action, entityType string, entityID uuid.UUID, actor, details string) ActivityLog {
	return ActivityLog{
		ID:         uuid.New(),
		Timestamp:  time.Now(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Details:    details,
	}
}

// SortByTimestampDesc orders activity logs most recent first. Storage
// order is plain insertion order for both ledgers; "recent" views sort
// explicitly instead of relying on it.
func SortByTimestampDesc(logs []ActivityLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
}
