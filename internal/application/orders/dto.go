package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stationops/backend/internal/domain/order"
)

// CreateOrderRequest carries the fields for a new purchase order. An
// empty InitialStatus defaults to pending.
type CreateOrderRequest struct {
	SupplierID    uuid.UUID
	SupplierName  string
	FuelType      string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	InitialStatus order.Status
	Notes         string
	Actor         string
}

// UpdateOrderRequest is a shallow field patch. Nil fields are left
// untouched. Status set through this request bypasses the status
// history on purpose; history-tracked changes go through
// UpdateOrderStatus instead.
type UpdateOrderRequest struct {
	SupplierID    *uuid.UUID
	SupplierName  *string
	FuelType      *string
	Quantity      *decimal.Decimal
	UnitPrice     *decimal.Decimal
	Notes         *string
	Status        *order.Status
	PaymentStatus *order.PaymentStatus
	Actor         string
}

// apply merges the patch into the order
func (r UpdateOrderRequest) apply(o *order.PurchaseOrder) {
	if r.SupplierID != nil {
		o.SupplierID = *r.SupplierID
	}
	if r.SupplierName != nil {
		o.SupplierName = *r.SupplierName
	}
	if r.FuelType != nil {
		o.FuelType = *r.FuelType
	}
	if r.Quantity != nil {
		o.Quantity = *r.Quantity
		o.TotalAmount = o.Quantity.Mul(o.UnitPrice)
	}
	if r.UnitPrice != nil {
		o.UnitPrice = *r.UnitPrice
		o.TotalAmount = o.Quantity.Mul(o.UnitPrice)
	}
	if r.Notes != nil {
		o.Notes = *r.Notes
	}
	if r.Status != nil {
		o.Status = *r.Status
	}
	if r.PaymentStatus != nil {
		o.PaymentStatus = *r.PaymentStatus
	}
	o.Touch()
}
