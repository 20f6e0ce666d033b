// Package orders implements the purchase-order lifecycle engine: the
// state machine governing order status transitions and its append-only
// history ledger.
package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stationops/backend/internal/application/activity"
	"github.com/stationops/backend/internal/domain/ledger"
	"github.com/stationops/backend/internal/domain/order"
	"github.com/stationops/backend/internal/domain/shared"
	"github.com/stationops/backend/internal/infrastructure/state"
	"github.com/stationops/backend/internal/infrastructure/telemetry"
)

// Service owns the purchase-order collection. Every mutation writes
// one activity-ledger entry; status transitions additionally append to
// the order's own status history.
type Service struct {
	state           *state.Store
	ledger          *activity.Service
	policy          order.TransitionPolicy
	businessMetrics *telemetry.BusinessMetrics
}

// NewService creates the lifecycle engine. An empty policy defaults to
// permissive, matching the manual-override workflows the tool serves.
func NewService(st *state.Store, ledgerSvc *activity.Service, policy order.TransitionPolicy) *Service {
	if policy == "" {
		policy = order.PolicyPermissive
	}
	return &Service{
		state:  st,
		ledger: ledgerSvc,
		policy: policy,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *Service) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// AddPurchaseOrder creates a purchase order seeded with one history
// entry and records the creation in both ledgers. PO number collisions
// are accepted without retry.
func (s *Service) AddPurchaseOrder(ctx context.Context, req CreateOrderRequest) order.PurchaseOrder {
	o := order.NewPurchaseOrder(req.SupplierID, req.SupplierName, req.FuelType,
		req.Quantity, req.UnitPrice, req.InitialStatus, req.Actor)
	if req.Notes != "" {
		o.Notes = req.Notes
	}
	s.state.InsertOrder(*o)

	details := fmt.Sprintf("Created purchase order %s for %s", o.PONumber, o.SupplierName)
	s.ledger.AddLog(ledger.ActionCreate, ledger.EntityTypePurchaseOrder, o.ID, req.Actor, details)
	s.ledger.AddActivityLog(ledger.ActionCreate, ledger.EntityTypePurchaseOrder, o.ID, req.Actor, details)

	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderCreated(ctx, string(o.Status))
	}

	return *o
}

// UpdateOrderStatus transitions an order to a new status, appending
// exactly one history entry. It returns false when the id is unknown;
// that is the only failure signalled as a boolean. A strict transition
// policy can additionally reject the transition with an error.
func (s *Service) UpdateOrderStatus(ctx context.Context, id uuid.UUID, newStatus order.Status, actor, note string) (bool, error) {
	var from order.Status
	found, err := s.state.MutateOrder(id, func(o *order.PurchaseOrder) error {
		from = o.Status
		return o.SetStatus(newStatus, actor, note, s.policy)
	})
	if !found {
		return false, nil
	}
	if err != nil {
		return true, err
	}

	details := fmt.Sprintf("Status changed from %s to %s", from, newStatus)
	if note != "" {
		details = fmt.Sprintf("%s: %s", details, note)
	}
	s.ledger.AddLog(ledger.ActionStatusChange, ledger.EntityTypePurchaseOrder, id, actor, details)
	s.ledger.AddActivityLog(ledger.ActionStatusChange, ledger.EntityTypePurchaseOrder, id, actor, details)

	if s.businessMetrics != nil {
		s.businessMetrics.RecordStatusTransition(ctx, string(from), string(newStatus))
	}

	return true, nil
}

// UpdatePurchaseOrder shallow-merges the patch and bumps updatedAt. It
// never appends to the status history, even when the patch includes a
// status; callers wanting a history-tracked change must use
// UpdateOrderStatus.
func (s *Service) UpdatePurchaseOrder(ctx context.Context, id uuid.UUID, patch UpdateOrderRequest) bool {
	found, _ := s.state.MutateOrder(id, func(o *order.PurchaseOrder) error {
		patch.apply(o)
		return nil
	})
	if !found {
		return false
	}

	s.ledger.AddLog(ledger.ActionUpdate, ledger.EntityTypePurchaseOrder, id, patch.Actor, "Updated purchase order fields")
	s.ledger.AddActivityLog(ledger.ActionUpdate, ledger.EntityTypePurchaseOrder, id, patch.Actor, "Updated purchase order fields")
	return true
}

// DeletePurchaseOrder removes the order and its history irrevocably.
// Returns false when the id is unknown.
func (s *Service) DeletePurchaseOrder(ctx context.Context, id uuid.UUID, actor string) bool {
	if !s.state.RemoveOrder(id) {
		return false
	}

	s.ledger.AddActivityLog(ledger.ActionDelete, ledger.EntityTypePurchaseOrder, id, actor, "Deleted purchase order")

	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderDeleted(ctx)
	}

	return true
}

// GetPurchaseOrderByID returns the order with the given id, or absent
func (s *Service) GetPurchaseOrderByID(id uuid.UUID) (order.PurchaseOrder, bool) {
	return s.state.OrderByID(id)
}

// ListPurchaseOrders returns one page of the collection, newest first.
// The full collection is re-sorted and re-sliced on every call; no
// index is persisted.
func (s *Service) ListPurchaseOrders(page shared.PageRequest) shared.Paginated[order.PurchaseOrder] {
	list := s.state.Orders()
	order.SortByCreatedAtDesc(list)
	return shared.Paginate(list, page)
}

// StatusTimeline resolves, for each status in the ordered progression,
// the most recent history entry of that status. A rejected order
// reports zero progress and surfaces the rejection note distinctly.
func (s *Service) StatusTimeline(id uuid.UUID) (TimelineResponse, bool) {
	o, ok := s.state.OrderByID(id)
	if !ok {
		return TimelineResponse{}, false
	}
	return TimelineResponse{
		OrderID:       o.ID,
		PONumber:      o.PONumber,
		Status:        o.Status,
		Progress:      o.Progress(),
		Rejected:      o.IsRejected(),
		RejectionNote: o.RejectionNote(),
		Steps:         o.Timeline(),
	}, true
}

// TimelineResponse is the status-tracker view of one order
type TimelineResponse struct {
	OrderID       uuid.UUID            `json:"order_id"`
	PONumber      string               `json:"po_number"`
	Status        order.Status         `json:"status"`
	Progress      int                  `json:"progress"`
	Rejected      bool                 `json:"rejected"`
	RejectionNote string               `json:"rejection_note,omitempty"`
	Steps         []order.TimelineStep `json:"steps"`
}
