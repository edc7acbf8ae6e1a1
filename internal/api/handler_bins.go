package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"waste-transport-backend/internal/model"
	"waste-transport-backend/internal/store"
)

type createBinRequest struct {
	Location   string    `json:"location" binding:"required"`
	City       string    `json:"city" binding:"required"`
	ReportedAt time.Time `json:"reportedAt" binding:"required"`
	Notes      string    `json:"notes"`
}

// CreateBin handles POST /api/bins.
func (h *Handler) CreateBin(c *gin.Context) {
	var req createBinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bin, err := h.store.CreateBin(c.Request.Context(), store.CreateBinParams{
		Location:   req.Location,
		City:       req.City,
		ReportedAt: req.ReportedAt,
		Notes:      req.Notes,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bin)
}

// ListBins handles GET /api/bins with optional city and status filters.
func (h *Handler) ListBins(c *gin.Context) {
	bins, err := h.store.ListBins(c.Request.Context(), store.BinFilter{
		City:   c.Query("city"),
		Status: model.BinStatus(c.Query("status")),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bins)
}

// GetBin handles GET /api/bins/:bin_id.
func (h *Handler) GetBin(c *gin.Context) {
	id, ok := pathID(c, "bin_id")
	if !ok {
		return
	}
	bin, err := h.store.GetBin(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bin)
}

// GetBinsByCollector handles GET /api/collectors/:collector_id/bins and
// returns the collector's active worklist.
func (h *Handler) GetBinsByCollector(c *gin.Context) {
	id, ok := pathID(c, "collector_id")
	if !ok {
		return
	}
	bins, err := h.store.ListBinsByCollector(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bins)
}

type assignRequest struct {
	CollectorID uuid.UUID `json:"collectorId" binding:"required"`
}

// AssignCollector handles POST /api/bins/:bin_id/assign.
func (h *Handler) AssignCollector(c *gin.Context) {
	id, ok := pathID(c, "bin_id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bin, err := h.store.AssignCollector(c.Request.Context(), id, req.CollectorID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.notifyAssignment(bin.ID, req.CollectorID)
	c.JSON(http.StatusOK, bin)
}

type updateStatusRequest struct {
	Status      model.BinStatus `json:"status" binding:"required"`
	CollectorID uuid.UUID       `json:"collectorId" binding:"required"`
}

// UpdateBinStatus handles POST /api/bins/:bin_id/status.
func (h *Handler) UpdateBinStatus(c *gin.Context) {
	id, ok := pathID(c, "bin_id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bin, err := h.store.UpdateBinStatus(c.Request.Context(), id, req.Status, req.CollectorID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bin)
}

type reassignRequest struct {
	CollectorID uuid.UUID       `json:"collectorId" binding:"required"`
	Status      model.BinStatus `json:"status"`
}

// ReassignBin handles POST /api/bins/:bin_id/reassign.
func (h *Handler) ReassignBin(c *gin.Context) {
	id, ok := pathID(c, "bin_id")
	if !ok {
		return
	}
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bin, err := h.store.ReassignBin(c.Request.Context(), id, req.CollectorID, req.Status)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.notifyAssignment(bin.ID, req.CollectorID)
	c.JSON(http.StatusOK, bin)
}

type resetRequest struct {
	Status model.BinStatus `json:"status"`
}

// ResetBinStatus handles POST /api/bins/:bin_id/reset.
func (h *Handler) ResetBinStatus(c *gin.Context) {
	id, ok := pathID(c, "bin_id")
	if !ok {
		return
	}
	var req resetRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	bin, err := h.store.ResetBinStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bin)
}

// DeleteBin handles DELETE /api/bins/:bin_id.
func (h *Handler) DeleteBin(c *gin.Context) {
	id, ok := pathID(c, "bin_id")
	if !ok {
		return
	}
	if err := h.store.DeleteBin(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
