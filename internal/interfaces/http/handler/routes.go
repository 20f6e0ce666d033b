package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the purchase-order lifecycle endpoints
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/purchase-orders")
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
	group.PUT("/:id/status", h.UpdateStatus)
	group.DELETE("/:id", h.Delete)
	group.GET("/:id/timeline", h.Timeline)
}

// RegisterRoutes mounts the ledger endpoints
func (h *ActivityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	logs := rg.Group("/logs")
	logs.GET("", h.ListLogs)
	logs.GET("/:id", h.GetLog)
	logs.DELETE("/:id", h.DeleteLog)

	rg.GET("/activity", h.RecentActivity)
}

// RegisterRoutes mounts the operator endpoints
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/system")
	group.GET("/health", h.Health)
	group.GET("/sync", h.SyncStatus)
	group.POST("/sync/push", h.SyncPush)
	group.POST("/snapshot/flush", h.Flush)
	group.GET("/storage", h.StorageInfo)
	group.POST("/snapshot/export", h.ExportArchive)
}
