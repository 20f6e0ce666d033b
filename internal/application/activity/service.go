// Package activity implements the activity ledger: the append-only
// record of user and system actions across all entities.
package activity

import (
	"github.com/google/uuid"
	"github.com/stationops/backend/internal/domain/ledger"
	"github.com/stationops/backend/internal/infrastructure/state"
)

// Service owns the two ledgers. Entries are created exclusively as a
// side effect of entity-action mutations and are never edited.
type Service struct {
	state *state.Store
}

// NewService creates a new ledger service over the working copy
func NewService(st *state.Store) *Service {
	return &Service{state: st}
}

// AddLog appends an order-scoped log entry and returns it
func (s *Service) AddLog(action, entityType string, entityID uuid.UUID, actor, details string) ledger.LogEntry {
	entry := ledger.NewLogEntry(action, entityType, entityID, actor, details)
	s.state.AppendLog(entry)
	return entry
}

// AddActivityLog appends a system-wide activity log and returns it
func (s *Service) AddActivityLog(action, entityType string, entityID uuid.UUID, actor, details string) ledger.ActivityLog {
	entry := ledger.NewActivityLog(action, entityType, entityID, actor, details)
	s.state.AppendActivity(entry)
	return entry
}

// LogByID returns the order-scoped log entry with the given id
func (s *Service) LogByID(id uuid.UUID) (ledger.LogEntry, bool) {
	for _, entry := range s.state.Logs() {
		if entry.ID == id {
			return entry, true
		}
	}
	return ledger.LogEntry{}, false
}

// LogsByOrder returns all log entries owned by one purchase order, in
// insertion order
func (s *Service) LogsByOrder(orderID uuid.UUID) []ledger.LogEntry {
	matched := make([]ledger.LogEntry, 0)
	for _, entry := range s.state.Logs() {
		if entry.EntityID == orderID {
			matched = append(matched, entry)
		}
	}
	return matched
}

// LogsByEntityType returns all log entries for one entity type
func (s *Service) LogsByEntityType(entityType string) []ledger.LogEntry {
	matched := make([]ledger.LogEntry, 0)
	for _, entry := range s.state.Logs() {
		if entry.EntityType == entityType {
			matched = append(matched, entry)
		}
	}
	return matched
}

// LogsByAction returns all log entries recording one action
func (s *Service) LogsByAction(action string) []ledger.LogEntry {
	matched := make([]ledger.LogEntry, 0)
	for _, entry := range s.state.Logs() {
		if entry.Action == action {
			matched = append(matched, entry)
		}
	}
	return matched
}

// AllLogs returns the full order-scoped ledger in insertion order
func (s *Service) AllLogs() []ledger.LogEntry {
	return s.state.Logs()
}

// DeleteLog removes an order-scoped log entry by id and reports
// whether a removal occurred
func (s *Service) DeleteLog(id uuid.UUID) bool {
	return s.state.RemoveLog(id)
}

// RecentActivity returns the n most recent activity logs, sorted by
// timestamp descending independent of storage order
func (s *Service) RecentActivity(n int) []ledger.ActivityLog {
	logs := s.state.Activity()
	ledger.SortByTimestampDesc(logs)
	if n > 0 && n < len(logs) {
		logs = logs[:n]
	}
	return logs
}

// AllActivity returns the full system-wide ledger in insertion order
func (s *Service) AllActivity() []ledger.ActivityLog {
	return s.state.Activity()
}
