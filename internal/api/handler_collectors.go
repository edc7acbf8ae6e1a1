package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"waste-transport-backend/internal/model"
	"waste-transport-backend/internal/store"
)

type createCollectorRequest struct {
	Name    string                `json:"name" binding:"required"`
	City    string                `json:"city" binding:"required"`
	Status  model.CollectorStatus `json:"status"`
	TruckID *uuid.UUID            `json:"truckId"`
}

// CreateCollector handles POST /api/collectors.
func (h *Handler) CreateCollector(c *gin.Context) {
	var req createCollectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collector, err := h.store.CreateCollector(c.Request.Context(), store.CreateCollectorParams{
		Name:    req.Name,
		City:    req.City,
		Status:  req.Status,
		TruckID: req.TruckID,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, collector)
}

// ListCollectors handles GET /api/collectors with optional filters.
func (h *Handler) ListCollectors(c *gin.Context) {
	collectors, err := h.store.ListCollectors(c.Request.Context(), store.CollectorFilter{
		City:   c.Query("city"),
		Status: model.CollectorStatus(c.Query("status")),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, collectors)
}

// GetCollector handles GET /api/collectors/:collector_id.
func (h *Handler) GetCollector(c *gin.Context) {
	id, ok := pathID(c, "collector_id")
	if !ok {
		return
	}
	collector, err := h.store.GetCollector(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, collector)
}

// updateCollectorRequest distinguishes an absent truckId (leave unchanged)
// from an empty one (detach) by using a string pointer.
type updateCollectorRequest struct {
	Name            *string                `json:"name"`
	City            *string                `json:"city"`
	Status          *model.CollectorStatus `json:"status"`
	CurrentLocation *string                `json:"currentLocation"`
	TruckID         *string                `json:"truckId"`
}

// UpdateCollector handles PATCH /api/collectors/:collector_id.
func (h *Handler) UpdateCollector(c *gin.Context) {
	id, ok := pathID(c, "collector_id")
	if !ok {
		return
	}
	var req updateCollectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := store.UpdateCollectorParams{
		Name:            req.Name,
		City:            req.City,
		Status:          req.Status,
		CurrentLocation: req.CurrentLocation,
	}
	if req.TruckID != nil {
		if *req.TruckID == "" {
			params.DetachTruck = true
		} else {
			truckID, err := uuid.Parse(*req.TruckID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid truckId"})
				return
			}
			params.TruckID = &truckID
		}
	}

	collector, err := h.store.UpdateCollector(c.Request.Context(), id, params)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, collector)
}

// DeleteCollector handles DELETE /api/collectors/:collector_id.
func (h *Handler) DeleteCollector(c *gin.Context) {
	id, ok := pathID(c, "collector_id")
	if !ok {
		return
	}
	if err := h.store.DeleteCollector(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
