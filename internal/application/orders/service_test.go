package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stationops/backend/internal/application/activity"
	"github.com/stationops/backend/internal/domain/ledger"
	"github.com/stationops/backend/internal/domain/order"
	"github.com/stationops/backend/internal/domain/shared"
	"github.com/stationops/backend/internal/infrastructure/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(policy order.TransitionPolicy) (*Service, *activity.Service, *state.Store) {
	st := state.NewStore(true)
	ledgerSvc := activity.NewService(st)
	return NewService(st, ledgerSvc, policy), ledgerSvc, st
}

func createReq() CreateOrderRequest {
	return CreateOrderRequest{
		SupplierID:   uuid.New(),
		SupplierName: "Coastal Fuels Ltd",
		FuelType:     "diesel",
		Quantity:     decimal.NewFromInt(5000),
		UnitPrice:    decimal.NewFromFloat(1.42),
		Actor:        "tester",
	}
}

func TestAddPurchaseOrder(t *testing.T) {
	svc, ledgerSvc, st := newTestService("")
	ctx := context.Background()

	created := svc.AddPurchaseOrder(ctx, createReq())

	assert.Equal(t, order.StatusPending, created.Status)
	assert.Equal(t, 1, st.OrderCount())
	require.Len(t, created.StatusHistory, 1)

	// Both ledgers record the creation
	logs := ledgerSvc.LogsByOrder(created.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, ledger.ActionCreate, logs[0].Action)
	assert.Len(t, ledgerSvc.AllActivity(), 1)
}

func TestAddPurchaseOrderWithNotes(t *testing.T) {
	svc, _, _ := newTestService("")
	req := createReq()
	req.Notes = "urgent delivery"
	req.InitialStatus = order.StatusDraft

	created := svc.AddPurchaseOrder(context.Background(), req)

	assert.Equal(t, "urgent delivery", created.Notes)
	assert.Equal(t, order.StatusDraft, created.Status)
}

func TestUpdateOrderStatus(t *testing.T) {
	svc, ledgerSvc, _ := newTestService("")
	ctx := context.Background()
	created := svc.AddPurchaseOrder(ctx, createReq())

	found, err := svc.UpdateOrderStatus(ctx, created.ID, order.StatusApproved, "manager", "checked")
	require.True(t, found)
	require.NoError(t, err)

	got, ok := svc.GetPurchaseOrderByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, order.StatusApproved, got.Status)
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, "checked", got.StatusHistory[1].Note)

	logs := ledgerSvc.LogsByAction(ledger.ActionStatusChange)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Details, "pending to approved")
	assert.Contains(t, logs[0].Details, "checked")
}

func TestUpdateOrderStatusUnknownID(t *testing.T) {
	svc, ledgerSvc, _ := newTestService("")

	found, err := svc.UpdateOrderStatus(context.Background(), uuid.New(), order.StatusApproved, "manager", "")

	assert.False(t, found)
	assert.NoError(t, err)
	assert.Empty(t, ledgerSvc.AllLogs())
}

func TestUpdateOrderStatusStrictPolicyRejects(t *testing.T) {
	svc, ledgerSvc, _ := newTestService(order.PolicyStrict)
	ctx := context.Background()
	created := svc.AddPurchaseOrder(ctx, createReq())

	found, err := svc.UpdateOrderStatus(ctx, created.ID, order.StatusDelivered, "manager", "")
	assert.True(t, found)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)

	// No history entry and no ledger write on rejection
	got, _ := svc.GetPurchaseOrderByID(created.ID)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Len(t, got.StatusHistory, 1)
	assert.Empty(t, ledgerSvc.LogsByAction(ledger.ActionStatusChange))
}

func TestUpdatePurchaseOrder(t *testing.T) {
	svc, _, _ := newTestService("")
	ctx := context.Background()
	created := svc.AddPurchaseOrder(ctx, createReq())

	qty := decimal.NewFromInt(8000)
	notes := "topped up"
	ok := svc.UpdatePurchaseOrder(ctx, created.ID, UpdateOrderRequest{
		Quantity: &qty,
		Notes:    &notes,
		Actor:    "manager",
	})
	require.True(t, ok)

	got, _ := svc.GetPurchaseOrderByID(created.ID)
	assert.True(t, got.Quantity.Equal(qty))
	assert.True(t, got.TotalAmount.Equal(qty.Mul(created.UnitPrice)))
	assert.Equal(t, "topped up", got.Notes)
}

func TestUpdatePurchaseOrderStatusBypassesHistory(t *testing.T) {
	svc, _, _ := newTestService("")
	ctx := context.Background()
	created := svc.AddPurchaseOrder(ctx, createReq())

	status := order.StatusActive
	ok := svc.UpdatePurchaseOrder(ctx, created.ID, UpdateOrderRequest{Status: &status, Actor: "manager"})
	require.True(t, ok)

	got, _ := svc.GetPurchaseOrderByID(created.ID)
	assert.Equal(t, order.StatusActive, got.Status)
	assert.Len(t, got.StatusHistory, 1)
	// Payment status is untouched by a raw field patch
	assert.Equal(t, order.PaymentStatusUnpaid, got.PaymentStatus)
}

func TestUpdatePurchaseOrderUnknownID(t *testing.T) {
	svc, _, _ := newTestService("")
	assert.False(t, svc.UpdatePurchaseOrder(context.Background(), uuid.New(), UpdateOrderRequest{Actor: "x"}))
}

func TestDeletePurchaseOrder(t *testing.T) {
	svc, ledgerSvc, st := newTestService("")
	ctx := context.Background()
	created := svc.AddPurchaseOrder(ctx, createReq())

	assert.True(t, svc.DeletePurchaseOrder(ctx, created.ID, "manager"))
	assert.Equal(t, 0, st.OrderCount())
	assert.False(t, svc.DeletePurchaseOrder(ctx, created.ID, "manager"))

	activityLogs := ledgerSvc.AllActivity()
	require.Len(t, activityLogs, 2)
	assert.Equal(t, ledger.ActionDelete, activityLogs[1].Action)
}

func TestListPurchaseOrders(t *testing.T) {
	svc, _, _ := newTestService("")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		svc.AddPurchaseOrder(ctx, createReq())
	}

	page := svc.ListPurchaseOrders(shared.PageRequest{Page: 2, Limit: 2})

	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
}

func TestListPurchaseOrdersNewestFirst(t *testing.T) {
	svc, _, st := newTestService("")
	ctx := context.Background()

	oldest := svc.AddPurchaseOrder(ctx, createReq())
	newest := svc.AddPurchaseOrder(ctx, createReq())

	base := time.Now()
	_, err := st.MutateOrder(oldest.ID, func(o *order.PurchaseOrder) error {
		o.CreatedAt = base.Add(-time.Hour)
		return nil
	})
	require.NoError(t, err)
	_, err = st.MutateOrder(newest.ID, func(o *order.PurchaseOrder) error {
		o.CreatedAt = base
		return nil
	})
	require.NoError(t, err)

	page := svc.ListPurchaseOrders(shared.PageRequest{Page: 1, Limit: 10})
	require.Len(t, page.Data, 2)
	assert.Equal(t, newest.ID, page.Data[0].ID)
	assert.Equal(t, oldest.ID, page.Data[1].ID)
}

func TestStatusTimeline(t *testing.T) {
	svc, _, _ := newTestService("")
	ctx := context.Background()
	created := svc.AddPurchaseOrder(ctx, createReq())
	_, err := svc.UpdateOrderStatus(ctx, created.ID, order.StatusActive, "manager", "")
	require.NoError(t, err)

	timeline, ok := svc.StatusTimeline(created.ID)
	require.True(t, ok)

	assert.Equal(t, created.ID, timeline.OrderID)
	assert.Equal(t, order.StatusActive, timeline.Status)
	assert.Equal(t, 50, timeline.Progress)
	assert.False(t, timeline.Rejected)
	require.Len(t, timeline.Steps, 5)
	assert.True(t, timeline.Steps[0].Reached)
	assert.True(t, timeline.Steps[2].Reached)
	assert.False(t, timeline.Steps[3].Reached)
}

func TestStatusTimelineRejectedOrder(t *testing.T) {
	svc, _, _ := newTestService("")
	ctx := context.Background()
	created := svc.AddPurchaseOrder(ctx, createReq())
	_, err := svc.UpdateOrderStatus(ctx, created.ID, order.StatusRejected, "manager", "failed inspection")
	require.NoError(t, err)

	timeline, ok := svc.StatusTimeline(created.ID)
	require.True(t, ok)

	assert.True(t, timeline.Rejected)
	assert.Equal(t, 0, timeline.Progress)
	assert.Equal(t, "failed inspection", timeline.RejectionNote)
}

func TestStatusTimelineUnknownID(t *testing.T) {
	svc, _, _ := newTestService("")
	_, ok := svc.StatusTimeline(uuid.New())
	assert.False(t, ok)
}
