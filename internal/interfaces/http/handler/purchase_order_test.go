package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stationops/backend/internal/application/activity"
	"github.com/stationops/backend/internal/application/orders"
	"github.com/stationops/backend/internal/domain/order"
	"github.com/stationops/backend/internal/infrastructure/state"
	"github.com/stationops/backend/internal/interfaces/http/dto"
	"github.com/stationops/backend/internal/interfaces/http/middleware"
	"github.com/stationops/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderAPI(t *testing.T, policy order.TransitionPolicy) (*gin.Engine, *orders.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	st := state.NewStore(true)
	ledgerSvc := activity.NewService(st)
	orderSvc := orders.NewService(st, ledgerSvc, policy)

	engine := gin.New()
	r := router.NewRouter(engine)
	r.Register(NewPurchaseOrderHandler(orderSvc))
	r.Setup()
	return engine, orderSvc
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "tester")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func createBody() map[string]any {
	return map[string]any{
		"supplier_id":   uuid.NewString(),
		"supplier_name": "Coastal Fuels Ltd",
		"fuel_type":     "diesel",
		"quantity":      "5000",
		"unit_price":    "1.42",
	}
}

func createOrder(t *testing.T, engine *gin.Engine) order.PurchaseOrder {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/api/v1/purchase-orders", createBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeResponse(t, rec)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var created order.PurchaseOrder
	require.NoError(t, json.Unmarshal(raw, &created))
	return created
}

func TestCreatePurchaseOrder(t *testing.T) {
	engine, _ := newOrderAPI(t, "")

	created := createOrder(t, engine)

	assert.Equal(t, order.StatusPending, created.Status)
	assert.Regexp(t, `^PO-\d{6}$`, created.PONumber)
	assert.Len(t, created.StatusHistory, 1)
	assert.Equal(t, "tester", created.StatusHistory[0].Actor)
}

func TestCreatePurchaseOrderValidation(t *testing.T) {
	engine, _ := newOrderAPI(t, "")

	body := createBody()
	delete(body, "supplier_name")
	rec := doJSON(t, engine, http.MethodPost, "/api/v1/purchase-orders", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = createBody()
	body["supplier_id"] = "not-a-uuid"
	rec = doJSON(t, engine, http.MethodPost, "/api/v1/purchase-orders", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = createBody()
	body["initial_status"] = "shipped"
	rec = doJSON(t, engine, http.MethodPost, "/api/v1/purchase-orders", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPurchaseOrders(t *testing.T) {
	engine, _ := newOrderAPI(t, "")
	for i := 0; i < 5; i++ {
		createOrder(t, engine)
	}

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/purchase-orders?page=2&page_size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(5), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestListPurchaseOrdersRejectsBadPageSize(t *testing.T) {
	engine, _ := newOrderAPI(t, "")

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/purchase-orders?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPurchaseOrder(t *testing.T) {
	engine, _ := newOrderAPI(t, "")
	created := createOrder(t, engine)

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/purchase-orders/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/purchase-orders/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/purchase-orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePurchaseOrderPatch(t *testing.T) {
	engine, svc := newOrderAPI(t, "")
	created := createOrder(t, engine)

	rec := doJSON(t, engine, http.MethodPatch, "/api/v1/purchase-orders/"+created.ID.String(), map[string]any{
		"notes":  "call before delivery",
		"status": "active",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	got, ok := svc.GetPurchaseOrderByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, "call before delivery", got.Notes)
	assert.Equal(t, order.StatusActive, got.Status)
	// Raw patches bypass the status history
	assert.Len(t, got.StatusHistory, 1)
}

func TestUpdateStatus(t *testing.T) {
	engine, svc := newOrderAPI(t, "")
	created := createOrder(t, engine)

	rec := doJSON(t, engine, http.MethodPut,
		fmt.Sprintf("/api/v1/purchase-orders/%s/status", created.ID), map[string]any{
			"status": "active",
			"note":   "tanker dispatched",
		})
	require.Equal(t, http.StatusOK, rec.Code)

	got, ok := svc.GetPurchaseOrderByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, order.StatusActive, got.Status)
	assert.Equal(t, order.PaymentStatusPaid, got.PaymentStatus)
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, "tanker dispatched", got.StatusHistory[1].Note)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	engine, _ := newOrderAPI(t, "")

	rec := doJSON(t, engine, http.MethodPut,
		fmt.Sprintf("/api/v1/purchase-orders/%s/status", uuid.NewString()), map[string]any{
			"status": "active",
		})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatusStrictPolicyViolation(t *testing.T) {
	engine, _ := newOrderAPI(t, order.PolicyStrict)
	created := createOrder(t, engine)

	rec := doJSON(t, engine, http.MethodPut,
		fmt.Sprintf("/api/v1/purchase-orders/%s/status", created.ID), map[string]any{
			"status": "delivered",
		})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
}

func TestDeletePurchaseOrder(t *testing.T) {
	engine, svc := newOrderAPI(t, "")
	created := createOrder(t, engine)

	rec := doJSON(t, engine, http.MethodDelete, "/api/v1/purchase-orders/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, ok := svc.GetPurchaseOrderByID(created.ID)
	assert.False(t, ok)

	rec = doJSON(t, engine, http.MethodDelete, "/api/v1/purchase-orders/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTimelineEndpoint(t *testing.T) {
	engine, _ := newOrderAPI(t, "")
	created := createOrder(t, engine)

	doJSON(t, engine, http.MethodPut,
		fmt.Sprintf("/api/v1/purchase-orders/%s/status", created.ID), map[string]any{
			"status": "approved",
		})

	rec := doJSON(t, engine, http.MethodGet,
		fmt.Sprintf("/api/v1/purchase-orders/%s/timeline", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var timeline orders.TimelineResponse
	require.NoError(t, json.Unmarshal(raw, &timeline))

	assert.Equal(t, order.StatusApproved, timeline.Status)
	assert.Equal(t, 25, timeline.Progress)
	require.Len(t, timeline.Steps, 5)
	assert.True(t, timeline.Steps[1].Reached)
	assert.False(t, timeline.Steps[2].Reached)
}
