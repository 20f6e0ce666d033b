package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stationops/backend/internal/application/orders"
	"github.com/stationops/backend/internal/domain/order"
	"github.com/stationops/backend/internal/domain/shared"
	"github.com/stationops/backend/internal/interfaces/http/dto"
	"github.com/stationops/backend/internal/interfaces/http/middleware"
)

// PurchaseOrderHandler serves the purchase-order lifecycle endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	service *orders.Service
}

// NewPurchaseOrderHandler creates a purchase order handler
func NewPurchaseOrderHandler(service *orders.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{service: service}
}

// createOrderRequest is the wire shape for order creation
type createOrderRequest struct {
	SupplierID    string          `json:"supplier_id" binding:"required,uuid"`
	SupplierName  string          `json:"supplier_name" binding:"required"`
	FuelType      string          `json:"fuel_type" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice     decimal.Decimal `json:"unit_price" binding:"required"`
	InitialStatus string          `json:"initial_status" binding:"omitempty,order_status"`
	Notes         string          `json:"notes"`
}

// updateOrderRequest is the wire shape for the shallow field patch
type updateOrderRequest struct {
	SupplierID    *string          `json:"supplier_id" binding:"omitempty,uuid"`
	SupplierName  *string          `json:"supplier_name"`
	FuelType      *string          `json:"fuel_type"`
	Quantity      *decimal.Decimal `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	Notes         *string          `json:"notes"`
	Status        *string          `json:"status" binding:"omitempty,order_status"`
	PaymentStatus *string          `json:"payment_status" binding:"omitempty,oneof=unpaid paid overdue"`
}

// updateStatusRequest is the wire shape for a status transition
type updateStatusRequest struct {
	Status string `json:"status" binding:"required,order_status"`
	Note   string `json:"note"`
}

// Create handles POST /purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.FormatValidationErrors(err))
		return
	}

	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		h.BadRequest(c, "Invalid supplier_id")
		return
	}

	created := h.service.AddPurchaseOrder(c.Request.Context(), orders.CreateOrderRequest{
		SupplierID:    supplierID,
		SupplierName:  req.SupplierName,
		FuelType:      req.FuelType,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		InitialStatus: order.Status(req.InitialStatus),
		Notes:         req.Notes,
		Actor:         getActor(c),
	})
	h.Created(c, created)
}

// List handles GET /purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, middleware.FormatValidationErrors(err))
		return
	}

	page := h.service.ListPurchaseOrders(shared.PageRequest{Page: req.Page, Limit: req.PageSize})
	h.SuccessWithMeta(c, page.Data, page.Total, page.Page, page.Limit)
}

// Get handles GET /purchase-orders/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	o, found := h.service.GetPurchaseOrderByID(id)
	if !found {
		h.NotFound(c, "Purchase order not found")
		return
	}
	h.Success(c, o)
}

// Update handles PATCH /purchase-orders/:id
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.FormatValidationErrors(err))
		return
	}

	patch := orders.UpdateOrderRequest{
		SupplierName: req.SupplierName,
		FuelType:     req.FuelType,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		Notes:        req.Notes,
		Actor:        getActor(c),
	}
	if req.SupplierID != nil {
		supplierID, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			h.BadRequest(c, "Invalid supplier_id")
			return
		}
		patch.SupplierID = &supplierID
	}
	if req.Status != nil {
		status := order.Status(*req.Status)
		patch.Status = &status
	}
	if req.PaymentStatus != nil {
		payment := order.PaymentStatus(*req.PaymentStatus)
		patch.PaymentStatus = &payment
	}

	if !h.service.UpdatePurchaseOrder(c.Request.Context(), id, patch) {
		h.NotFound(c, "Purchase order not found")
		return
	}

	o, _ := h.service.GetPurchaseOrderByID(id)
	h.Success(c, o)
}

// UpdateStatus handles PUT /purchase-orders/:id/status
func (h *PurchaseOrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.FormatValidationErrors(err))
		return
	}

	found, err := h.service.UpdateOrderStatus(c.Request.Context(), id, order.Status(req.Status), getActor(c), req.Note)
	if !found {
		h.NotFound(c, "Purchase order not found")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	o, _ := h.service.GetPurchaseOrderByID(id)
	h.Success(c, o)
}

// Delete handles DELETE /purchase-orders/:id
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if !h.service.DeletePurchaseOrder(c.Request.Context(), id, getActor(c)) {
		h.NotFound(c, "Purchase order not found")
		return
	}
	h.NoContent(c)
}

// Timeline handles GET /purchase-orders/:id/timeline
func (h *PurchaseOrderHandler) Timeline(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	timeline, found := h.service.StatusTimeline(id)
	if !found {
		h.NotFound(c, "Purchase order not found")
		return
	}
	h.Success(c, timeline)
}

func (h *PurchaseOrderHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid order id")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid order id")
		return uuid.Nil, false
	}
	return id, true
}
