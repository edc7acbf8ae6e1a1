package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"waste-transport-backend/internal/model"
	"waste-transport-backend/internal/store"
)

type createTruckRequest struct {
	PlateNumber string            `json:"plateNumber" binding:"required"`
	Capacity    int               `json:"capacity" binding:"required"`
	Status      model.TruckStatus `json:"status"`
}

// CreateTruck handles POST /api/trucks.
func (h *Handler) CreateTruck(c *gin.Context) {
	var req createTruckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	truck, err := h.store.CreateTruck(c.Request.Context(), store.CreateTruckParams{
		PlateNumber: req.PlateNumber,
		Capacity:    req.Capacity,
		Status:      req.Status,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, truck)
}

// ListTrucks handles GET /api/trucks with an optional status filter.
func (h *Handler) ListTrucks(c *gin.Context) {
	trucks, err := h.store.ListTrucks(c.Request.Context(), store.TruckFilter{
		Status: model.TruckStatus(c.Query("status")),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, trucks)
}

// GetTruck handles GET /api/trucks/:truck_id.
func (h *Handler) GetTruck(c *gin.Context) {
	id, ok := pathID(c, "truck_id")
	if !ok {
		return
	}
	truck, err := h.store.GetTruck(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, truck)
}

// updateTruckRequest distinguishes an absent assignedTo (leave unchanged)
// from an empty one (detach) by using a string pointer.
type updateTruckRequest struct {
	PlateNumber     *string            `json:"plateNumber"`
	Capacity        *int               `json:"capacity"`
	Status          *model.TruckStatus `json:"status"`
	CurrentLocation *string            `json:"currentLocation"`
	LastMaintenance *time.Time         `json:"lastMaintenance"`
	AssignedTo      *string            `json:"assignedTo"`
}

// UpdateTruck handles PATCH /api/trucks/:truck_id.
func (h *Handler) UpdateTruck(c *gin.Context) {
	id, ok := pathID(c, "truck_id")
	if !ok {
		return
	}
	var req updateTruckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := store.UpdateTruckParams{
		PlateNumber:     req.PlateNumber,
		Capacity:        req.Capacity,
		Status:          req.Status,
		CurrentLocation: req.CurrentLocation,
		LastMaintenance: req.LastMaintenance,
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			params.DetachCollector = true
		} else {
			collectorID, err := uuid.Parse(*req.AssignedTo)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid assignedTo"})
				return
			}
			params.AssignedTo = &collectorID
		}
	}

	truck, err := h.store.UpdateTruck(c.Request.Context(), id, params)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, truck)
}

// DeleteTruck handles DELETE /api/trucks/:truck_id.
func (h *Handler) DeleteTruck(c *gin.Context) {
	id, ok := pathID(c, "truck_id")
	if !ok {
		return
	}
	if err := h.store.DeleteTruck(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
