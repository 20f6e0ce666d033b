package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stationops/backend/internal/application/activity"
	"github.com/stationops/backend/internal/interfaces/http/dto"
)

// ActivityHandler serves the two ledgers: the order-scoped log entries
// and the system-wide activity feed
type ActivityHandler struct {
	BaseHandler
	service *activity.Service
}

// NewActivityHandler creates an activity handler
func NewActivityHandler(service *activity.Service) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// ListLogs handles GET /logs with optional order_id, entity_type and
// action filters
func (h *ActivityHandler) ListLogs(c *gin.Context) {
	if orderIDStr := c.Query("order_id"); orderIDStr != "" {
		orderID, err := uuid.Parse(orderIDStr)
		if err != nil {
			h.BadRequest(c, "Invalid order_id")
			return
		}
		h.Success(c, h.service.LogsByOrder(orderID))
		return
	}
	if entityType := c.Query("entity_type"); entityType != "" {
		h.Success(c, h.service.LogsByEntityType(entityType))
		return
	}
	if action := c.Query("action"); action != "" {
		h.Success(c, h.service.LogsByAction(action))
		return
	}
	h.Success(c, h.service.AllLogs())
}

// GetLog handles GET /logs/:id
func (h *ActivityHandler) GetLog(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	entry, found := h.service.LogByID(id)
	if !found {
		h.NotFound(c, "Log entry not found")
		return
	}
	h.Success(c, entry)
}

// DeleteLog handles DELETE /logs/:id
func (h *ActivityHandler) DeleteLog(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if !h.service.DeleteLog(id) {
		h.NotFound(c, "Log entry not found")
		return
	}
	h.NoContent(c)
}

// RecentActivity handles GET /activity, returning the most recent
// system-wide entries sorted newest first
func (h *ActivityHandler) RecentActivity(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "Invalid limit")
			return
		}
		limit = parsed
	}
	h.Success(c, h.service.RecentActivity(limit))
}

func (h *ActivityHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid log id")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid log id")
		return uuid.Nil, false
	}
	return id, true
}
