package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stationops/backend/internal/application/activity"
	"github.com/stationops/backend/internal/domain/ledger"
	"github.com/stationops/backend/internal/infrastructure/state"
	"github.com/stationops/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActivityAPI(t *testing.T) (*gin.Engine, *activity.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := state.NewStore(true)
	svc := activity.NewService(st)

	engine := gin.New()
	r := router.NewRouter(engine)
	r.Register(NewActivityHandler(svc))
	r.Setup()
	return engine, svc
}

func TestListLogs(t *testing.T) {
	engine, svc := newActivityAPI(t)
	orderID := uuid.New()
	svc.AddLog(ledger.ActionCreate, ledger.EntityTypePurchaseOrder, orderID, "tester", "created")
	svc.AddLog(ledger.ActionStatusChange, ledger.EntityTypePurchaseOrder, orderID, "tester", "changed")
	svc.AddLog(ledger.ActionCreate, "supplier", uuid.New(), "tester", "other")

	cases := []struct {
		name     string
		query    string
		expected int
	}{
		{"all", "", 3},
		{"by order", "?order_id=" + orderID.String(), 2},
		{"by entity type", "?entity_type=supplier", 1},
		{"by action", "?action=status_change", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, engine, http.MethodGet, "/api/v1/logs"+tc.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			resp := decodeResponse(t, rec)
			raw, err := json.Marshal(resp.Data)
			require.NoError(t, err)
			var entries []ledger.LogEntry
			require.NoError(t, json.Unmarshal(raw, &entries))
			assert.Len(t, entries, tc.expected)
		})
	}
}

func TestListLogsInvalidOrderID(t *testing.T) {
	engine, _ := newActivityAPI(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/logs?order_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLog(t *testing.T) {
	engine, svc := newActivityAPI(t)
	entry := svc.AddLog(ledger.ActionCreate, ledger.EntityTypePurchaseOrder, uuid.New(), "tester", "created")

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/logs/"+entry.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/logs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteLogEndpoint(t *testing.T) {
	engine, svc := newActivityAPI(t)
	entry := svc.AddLog(ledger.ActionCreate, ledger.EntityTypePurchaseOrder, uuid.New(), "tester", "created")

	rec := doJSON(t, engine, http.MethodDelete, "/api/v1/logs/"+entry.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, engine, http.MethodDelete, "/api/v1/logs/"+entry.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecentActivityEndpoint(t *testing.T) {
	engine, svc := newActivityAPI(t)
	for i := 0; i < 3; i++ {
		svc.AddActivityLog(ledger.ActionCreate, ledger.EntityTypePurchaseOrder, uuid.New(), "tester", "entry")
	}

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/activity?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var entries []ledger.ActivityLog
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Len(t, entries, 2)
}

func TestRecentActivityInvalidLimit(t *testing.T) {
	engine, _ := newActivityAPI(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/activity?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/activity?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
