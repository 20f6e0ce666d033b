package order

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stationops/backend/internal/domain/shared"
)

// PaymentStatus represents the payment state of a purchase order
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// PONumberPrefix is the human-facing order number prefix
const PONumberPrefix = "PO"

// StatusChange is one entry in an order's status history. Entries are
// append-only and never mutated after insertion; insertion order is
// chronological order.
type StatusChange struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Note      string    `json:"note"`
}

// PurchaseOrder is a fuel purchase order. The engine treats most fields
// as opaque order data; only the status, its history and the payment
// status carry behaviour.
type PurchaseOrder struct {
	shared.BaseEntity
	PONumber      string          `json:"po_number"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	FuelType      string          `json:"fuel_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	StatusHistory []StatusChange  `json:"status_history"`
	Notes         string          `json:"notes"`
}

// GeneratePONumber produces a PO number of the form PO-######. The
// 6-digit suffix is random and not guaranteed unique; collisions are
// accepted without retry.
func GeneratePONumber() string {
	return fmt.Sprintf("%s-%06d", PONumberPrefix, rand.IntN(1000000))
}

// NewPurchaseOrder creates a purchase order seeded with exactly one
// status-history entry. An empty initial status defaults to pending.
func NewPurchaseOrder(supplierID uuid.UUID, supplierName, fuelType string, quantity, unitPrice decimal.Decimal, initial Status, actor string) *PurchaseOrder {
	if initial == "" {
		initial = StatusPending
	}

	o := &PurchaseOrder{
		BaseEntity:    shared.NewBaseEntity(),
		PONumber:      GeneratePONumber(),
		SupplierID:    supplierID,
		SupplierName:  supplierName,
		FuelType:      fuelType,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		TotalAmount:   quantity.Mul(unitPrice),
		Status:        initial,
		PaymentStatus: PaymentStatusUnpaid,
	}
	o.StatusHistory = []StatusChange{{
		Status:    initial,
		Timestamp: o.CreatedAt,
		Actor:     actor,
		Note:      "Order created",
	}}

	return o
}

// SetStatus transitions the order to a new status and appends one
// history entry. The note defaults to an auto-generated string when
// omitted. Setting the status to active marks the order paid.
func (o *PurchaseOrder) SetStatus(to Status, actor, note string, policy TransitionPolicy) error {
	if !policy.Allows(o.Status, to) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Transition from %s to %s is not allowed", o.Status, to))
	}

	if note == "" {
		note = fmt.Sprintf("Status changed from %s to %s", o.Status, to)
	}

	now := time.Now()
	o.Status = to
	o.UpdatedAt = now
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Status:    to,
		Timestamp: now,
		Actor:     actor,
		Note:      note,
	})

	if to == StatusActive {
		o.PaymentStatus = PaymentStatusPaid
	}

	return nil
}

// CurrentHistoryEntry returns the last status-history entry. The
// history is never empty once an order exists, and the last entry's
// status always equals the current status.
func (o *PurchaseOrder) CurrentHistoryEntry() StatusChange {
	return o.StatusHistory[len(o.StatusHistory)-1]
}

// LatestChangeFor returns the most recent history entry recorded at
// the given status, by timestamp descending, or nil if the order never
// passed through it.
func (o *PurchaseOrder) LatestChangeFor(status Status) *StatusChange {
	var latest *StatusChange
	for i := range o.StatusHistory {
		entry := &o.StatusHistory[i]
		if entry.Status != status {
			continue
		}
		if latest == nil || entry.Timestamp.After(latest.Timestamp) {
			latest = entry
		}
	}
	return latest
}

// Timeline resolves, for each status in the ordered progression, the
// most recent history entry of that status. Used by status-tracker
// displays.
func (o *PurchaseOrder) Timeline() []TimelineStep {
	steps := make([]TimelineStep, 0, len(Progression))
	for _, status := range Progression {
		step := TimelineStep{Status: status}
		if entry := o.LatestChangeFor(status); entry != nil {
			step.Reached = true
			step.Change = entry
		}
		steps = append(steps, step)
	}
	return steps
}

// TimelineStep is one row of a status-tracker display
type TimelineStep struct {
	Status  Status        `json:"status"`
	Reached bool          `json:"reached"`
	Change  *StatusChange `json:"change,omitempty"`
}

// Progress returns the percentage-complete indicator for the order
func (o *PurchaseOrder) Progress() int {
	return o.Status.Progress()
}

// IsRejected reports whether the order is in the rejected side-state,
// which suppresses the progress bar and surfaces the rejection note
func (o *PurchaseOrder) IsRejected() bool {
	return o.Status == StatusRejected
}

// RejectionNote returns the note of the most recent rejected entry,
// or an empty string when the order was never rejected
func (o *PurchaseOrder) RejectionNote() string {
	if entry := o.LatestChangeFor(StatusRejected); entry != nil {
		return entry.Note
	}
	return ""
}

// SortByCreatedAtDesc orders a slice of purchase orders newest first
func SortByCreatedAtDesc(orders []PurchaseOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
