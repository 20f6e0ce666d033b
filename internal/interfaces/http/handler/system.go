package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stationops/backend/internal/application/syncbridge"
	"github.com/stationops/backend/internal/domain/ledger"
	"github.com/stationops/backend/internal/infrastructure/localstore"
	"github.com/stationops/backend/internal/infrastructure/scheduler"
	"github.com/stationops/backend/internal/infrastructure/state"
	"github.com/stationops/backend/internal/infrastructure/storage"
)

// SystemHandler serves the operator surface: health, sync status,
// manual flush and snapshot archive export
type SystemHandler struct {
	BaseHandler
	state   *state.Store
	store   *localstore.Store
	flusher *scheduler.FlushScheduler
	bridge  *syncbridge.Bridge
	archive storage.ArchiveStorage
}

// NewSystemHandler creates a system handler. The bridge may be nil
// when remote sync is disabled.
func NewSystemHandler(st *state.Store, store *localstore.Store, flusher *scheduler.FlushScheduler, bridge *syncbridge.Bridge, archive storage.ArchiveStorage) *SystemHandler {
	return &SystemHandler{
		state:   st,
		store:   store,
		flusher: flusher,
		bridge:  bridge,
		archive: archive,
	}
}

// Health handles GET /system/health
func (h *SystemHandler) Health(c *gin.Context) {
	payload := gin.H{
		"status":      "ok",
		"collections": h.state.Counts(),
	}
	if h.bridge != nil {
		payload["sync"] = h.bridge.Status()
	}
	h.Success(c, payload)
}

// SyncStatus handles GET /system/sync
func (h *SystemHandler) SyncStatus(c *gin.Context) {
	if h.bridge == nil {
		h.Success(c, gin.H{"enabled": false})
		return
	}
	h.Success(c, h.bridge.Status())
}

// SyncPush handles POST /system/sync/push, pushing every synced
// collection to the remote store immediately
func (h *SystemHandler) SyncPush(c *gin.Context) {
	if h.bridge == nil {
		h.ServiceUnavailable(c, "Remote sync is disabled")
		return
	}
	status := h.bridge.Status()
	if !status.Ready {
		h.ServiceUnavailable(c, "Remote store is unavailable")
		return
	}
	h.bridge.Push(c.Request.Context())
	h.Success(c, status)
}

// Flush handles POST /system/snapshot/flush, writing one snapshot now
func (h *SystemHandler) Flush(c *gin.Context) {
	if !h.flusher.Flush(c.Request.Context()) {
		h.InternalError(c, "Snapshot flush failed")
		return
	}
	h.state.AppendActivity(ledger.NewActivityLog(
		ledger.ActionFlush, ledger.EntityTypeSnapshot, uuid.Nil,
		getActor(c), "Manual snapshot flush"))
	h.Success(c, gin.H{"flushed": true})
}

// StorageInfo handles GET /system/storage
func (h *SystemHandler) StorageInfo(c *gin.Context) {
	info, err := h.store.DatabaseInfo(c.Request.Context())
	if err != nil {
		h.InternalError(c, "Failed to read storage info")
		return
	}
	h.Success(c, info)
}

// ExportArchive handles POST /system/snapshot/export, uploading the
// full snapshot to object storage
func (h *SystemHandler) ExportArchive(c *gin.Context) {
	if h.archive == nil {
		h.ServiceUnavailable(c, "Archive storage is disabled")
		return
	}

	payload, err := h.store.ExportArchive(c.Request.Context())
	if err != nil {
		h.InternalError(c, "Failed to export snapshot")
		return
	}

	key, err := h.archive.UploadArchive(c.Request.Context(), payload)
	if err != nil {
		h.InternalError(c, "Failed to upload snapshot archive")
		return
	}
	h.Success(c, gin.H{"key": key, "size_bytes": len(payload)})
}
