// Package state holds the in-memory working copy of all entity
// collections. The working copy is the source of truth during a live
// session; the local snapshot store and the remote store are treated
// as write-behind caches.
package state

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/stationops/backend/internal/domain/ledger"
	"github.com/stationops/backend/internal/domain/order"
)

// Collection names a persisted entity collection
type Collection string

// The snapshot contract covers exactly these collections.
const (
	CollectionOrders     Collection = "orders"
	CollectionLogs       Collection = "logs"
	CollectionSuppliers  Collection = "suppliers"
	CollectionDrivers    Collection = "drivers"
	CollectionTrucks     Collection = "trucks"
	CollectionGPSData    Collection = "gps_data"
	CollectionAIInsights Collection = "ai_insights"
)

// SnapshotCollections returns the collections included in persisted
// snapshots and reconciled with the remote store, in a stable order.
func SnapshotCollections() []Collection {
	return []Collection{
		CollectionOrders,
		CollectionLogs,
		CollectionSuppliers,
		CollectionDrivers,
		CollectionTrucks,
		CollectionGPSData,
		CollectionAIInsights,
	}
}

// documentCollections are the satellite collections the engine treats
// as opaque JSON documents
var documentCollections = []Collection{
	CollectionSuppliers,
	CollectionDrivers,
	CollectionTrucks,
	CollectionGPSData,
	CollectionAIInsights,
}

// Store is the mutex-guarded working copy. All mutations go through
// its methods; within a session they are applied in call order, so a
// later read always observes an earlier write.
type Store struct {
	mu       sync.RWMutex
	orders   []order.PurchaseOrder
	logs     []ledger.LogEntry
	activity []ledger.ActivityLog
	docs     map[Collection][]json.RawMessage
	seeded   bool
}

// NewStore creates a working copy. The seeded flag is injected by the
// caller so default seeding runs exactly once per process lifetime
// without a package-level guard.
func NewStore(seeded bool) *Store {
	docs := make(map[Collection][]json.RawMessage, len(documentCollections))
	for _, c := range documentCollections {
		docs[c] = []json.RawMessage{}
	}
	return &Store{
		docs:   docs,
		seeded: seeded,
	}
}

// Seed runs fn against the store unless seeding already happened. It
// reports whether fn ran.
func (s *Store) Seed(fn func(*Store)) bool {
	s.mu.Lock()
	alreadySeeded := s.seeded
	s.seeded = true
	s.mu.Unlock()

	if alreadySeeded {
		return false
	}
	fn(s)
	return true
}

// InsertOrder appends a purchase order to the collection
func (s *Store) InsertOrder(o order.PurchaseOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
}

// MutateOrder applies fn to the order with the given id under the
// store lock. It returns false without calling fn when the id is
// unknown, and propagates fn's error otherwise.
func (s *Store) MutateOrder(id uuid.UUID, fn func(*order.PurchaseOrder) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			return true, fn(&s.orders[i])
		}
	}
	return false, nil
}

// RemoveOrder deletes the order and its history irrevocably
func (s *Store) RemoveOrder(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			return true
		}
	}
	return false
}

// OrderByID returns a copy of the order with the given id
func (s *Store) OrderByID(id uuid.UUID) (order.PurchaseOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			return cloneOrder(s.orders[i]), true
		}
	}
	return order.PurchaseOrder{}, false
}

// Orders returns a copy of the full order collection in insertion order
func (s *Store) Orders() []order.PurchaseOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]order.PurchaseOrder, len(s.orders))
	for i := range s.orders {
		out[i] = cloneOrder(s.orders[i])
	}
	return out
}

// OrderCount returns the number of purchase orders
func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// AppendLog appends an order-scoped log entry
func (s *Store) AppendLog(entry ledger.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
}

// Logs returns a copy of the order-scoped log collection
func (s *Store) Logs() []ledger.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// RemoveLog deletes a log entry by id and reports whether a removal
// occurred
func (s *Store) RemoveLog(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.logs {
		if s.logs[i].ID == id {
			s.logs = append(s.logs[:i], s.logs[i+1:]...)
			return true
		}
	}
	return false
}

// AppendActivity appends a system-wide activity log. Both ledgers
// append at the end; recent views sort by timestamp at query time.
func (s *Store) AppendActivity(entry ledger.ActivityLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, entry)
}

// Activity returns a copy of the system-wide activity ledger
func (s *Store) Activity() []ledger.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.ActivityLog, len(s.activity))
	copy(out, s.activity)
	return out
}

// Docs returns a copy of an opaque document collection
func (s *Store) Docs(c Collection) []json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]json.RawMessage, len(s.docs[c]))
	copy(out, s.docs[c])
	return out
}

// ReplaceDocs swaps the contents of an opaque document collection
func (s *Store) ReplaceDocs(c Collection, docs []json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := make([]json.RawMessage, len(docs))
	copy(replaced, docs)
	s.docs[c] = replaced
}

// Counts returns the record count per snapshot collection
func (s *Store) Counts() map[Collection]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[Collection]int{
		CollectionOrders: len(s.orders),
		CollectionLogs:   len(s.logs),
	}
	for _, c := range documentCollections {
		counts[c] = len(s.docs[c])
	}
	return counts
}

// ExportCollections serializes every snapshot collection to a JSON
// array. Timestamps round-trip as RFC 3339 strings.
func (s *Store) ExportCollections() (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(documentCollections)+2)

	orders, err := json.Marshal(s.orders)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize orders: %w", err)
	}
	out[string(CollectionOrders)] = orders

	logs, err := json.Marshal(s.logs)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize logs: %w", err)
	}
	out[string(CollectionLogs)] = logs

	for _, c := range documentCollections {
		docs, err := json.Marshal(s.docs[c])
		if err != nil {
			return nil, fmt.Errorf("failed to serialize %s: %w", c, err)
		}
		out[string(c)] = docs
	}

	return out, nil
}

// ImportCollections rehydrates the working copy from serialized
// collections. Collections absent from the input are left untouched.
func (s *Store) ImportCollections(collections map[string]json.RawMessage) error {
	for name, raw := range collections {
		if err := s.ReplaceCollection(name, raw); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceCollection swaps one collection's contents from a serialized
// JSON array. Used both by snapshot load and by sync reloads.
func (s *Store) ReplaceCollection(name string, raw json.RawMessage) error {
	switch Collection(name) {
	case CollectionOrders:
		var orders []order.PurchaseOrder
		if err := json.Unmarshal(raw, &orders); err != nil {
			return fmt.Errorf("failed to decode orders: %w", err)
		}
		s.mu.Lock()
		s.orders = orders
		s.mu.Unlock()
	case CollectionLogs:
		var logs []ledger.LogEntry
		if err := json.Unmarshal(raw, &logs); err != nil {
			return fmt.Errorf("failed to decode logs: %w", err)
		}
		s.mu.Lock()
		s.logs = logs
		s.mu.Unlock()
	case CollectionSuppliers, CollectionDrivers, CollectionTrucks, CollectionGPSData, CollectionAIInsights:
		var docs []json.RawMessage
		if err := json.Unmarshal(raw, &docs); err != nil {
			return fmt.Errorf("failed to decode %s: %w", name, err)
		}
		s.mu.Lock()
		s.docs[Collection(name)] = docs
		s.mu.Unlock()
	default:
		return fmt.Errorf("unknown collection %q", name)
	}
	return nil
}

func cloneOrder(o order.PurchaseOrder) order.PurchaseOrder {
	clone := o
	clone.StatusHistory = make([]order.StatusChange, len(o.StatusHistory))
	copy(clone.StatusHistory, o.StatusHistory)
	return clone
}
