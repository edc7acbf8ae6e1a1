package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"waste-transport-backend/config"
	"waste-transport-backend/internal/api"
	"waste-transport-backend/internal/model"
	"waste-transport-backend/internal/store"
)

// TestAssignmentLifecycle walks a bin through its whole state machine over
// the HTTP surface: reported, assigned, skipped, reassigned, reset, and
// released by a collector delete, checking both sides of every relationship
// at each step.
func TestAssignmentLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:lifecycle?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	err = testDB.AutoMigrate(&model.Bin{}, &model.Collector{}, &model.Truck{}, &model.PushSubscription{})
	require.NoError(t, err)

	appStore := store.NewGormStore(testDB)
	router := api.NewRouter(appStore, &config.ServerConfig{
		RateLimitPerSec: 10000,
		RateLimitBurst:  10000,
		CacheTTLSeconds: 1,
	}, nil, nil)

	call := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req, err := http.NewRequest(method, path, &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	decode := func(w *httptest.ResponseRecorder, out any) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}

	// Fleet setup: one truck, one collector driving it.
	var truck model.Truck
	w := call(http.MethodPost, "/api/trucks", gin.H{"plateNumber": "WP-9001", "capacity": 3000})
	require.Equal(t, http.StatusCreated, w.Code)
	decode(w, &truck)

	var collectorX model.Collector
	w = call(http.MethodPost, "/api/collectors", gin.H{
		"name": "Collector X", "city": "Colombo", "truckId": truck.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	decode(w, &collectorX)
	require.NotNil(t, collectorX.TruckID)
	assert.Equal(t, truck.ID, *collectorX.TruckID)

	var bin model.Bin
	t.Run("reported bin starts Pending", func(t *testing.T) {
		w := call(http.MethodPost, "/api/bins", gin.H{
			"location":   "Main St",
			"city":       "Colombo",
			"reportedAt": time.Now().UTC().Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, w.Code)
		decode(w, &bin)
		assert.Equal(t, model.BinPending, bin.Status)
		assert.Nil(t, bin.AssignedTo)
	})

	t.Run("assignment puts the bin on the worklist", func(t *testing.T) {
		w := call(http.MethodPost, fmt.Sprintf("/api/bins/%s/assign", bin.ID), gin.H{"collectorId": collectorX.ID})
		require.Equal(t, http.StatusOK, w.Code)
		var updated model.Bin
		decode(w, &updated)
		assert.Equal(t, model.BinAssigned, updated.Status)
		assert.NotNil(t, updated.AssignedAt)

		w = call(http.MethodGet, fmt.Sprintf("/api/collectors/%s/bins", collectorX.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var worklist []model.Bin
		decode(w, &worklist)
		require.Len(t, worklist, 1)
		assert.Equal(t, bin.ID, worklist[0].ID)
	})

	t.Run("skip prunes the worklist but keeps the historical link", func(t *testing.T) {
		w := call(http.MethodPost, fmt.Sprintf("/api/bins/%s/status", bin.ID),
			gin.H{"status": "Skipped", "collectorId": collectorX.ID})
		require.Equal(t, http.StatusOK, w.Code)
		var updated model.Bin
		decode(w, &updated)
		assert.Equal(t, model.BinSkipped, updated.Status)
		assert.NotNil(t, updated.SkippedAt)
		require.NotNil(t, updated.AssignedTo)
		assert.Equal(t, collectorX.ID, *updated.AssignedTo)

		w = call(http.MethodGet, fmt.Sprintf("/api/collectors/%s/bins", collectorX.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var worklist []model.Bin
		decode(w, &worklist)
		assert.Empty(t, worklist)
	})

	var collectorY model.Collector
	t.Run("reassignment recovers the skipped bin onto another collector", func(t *testing.T) {
		w := call(http.MethodPost, "/api/collectors", gin.H{"name": "Collector Y", "city": "Colombo"})
		require.Equal(t, http.StatusCreated, w.Code)
		decode(w, &collectorY)

		w = call(http.MethodPost, fmt.Sprintf("/api/bins/%s/reassign", bin.ID), gin.H{"collectorId": collectorY.ID})
		require.Equal(t, http.StatusOK, w.Code)
		var updated model.Bin
		decode(w, &updated)
		assert.Equal(t, model.BinAssigned, updated.Status)
		assert.Nil(t, updated.SkippedAt)
		require.NotNil(t, updated.AssignedTo)
		assert.Equal(t, collectorY.ID, *updated.AssignedTo)
	})

	t.Run("reset returns the bin to the unassigned pool", func(t *testing.T) {
		w := call(http.MethodPost, fmt.Sprintf("/api/bins/%s/reset", bin.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var updated model.Bin
		decode(w, &updated)
		assert.Equal(t, model.BinPending, updated.Status)
		assert.Nil(t, updated.AssignedTo)
		assert.Nil(t, updated.AssignedAt)
		assert.Nil(t, updated.SkippedAt)

		w = call(http.MethodGet, fmt.Sprintf("/api/collectors/%s/bins", collectorY.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var worklist []model.Bin
		decode(w, &worklist)
		assert.Empty(t, worklist)
	})

	t.Run("deleting a collector releases bins and truck", func(t *testing.T) {
		// Rebuild the situation: X holds the truck and the bin.
		w := call(http.MethodPost, fmt.Sprintf("/api/bins/%s/assign", bin.ID), gin.H{"collectorId": collectorX.ID})
		require.Equal(t, http.StatusOK, w.Code)

		w = call(http.MethodDelete, fmt.Sprintf("/api/collectors/%s", collectorX.ID), nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = call(http.MethodGet, fmt.Sprintf("/api/bins/%s", bin.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var released model.Bin
		decode(w, &released)
		assert.Equal(t, model.BinPending, released.Status)
		assert.Nil(t, released.AssignedTo)

		w = call(http.MethodGet, fmt.Sprintf("/api/trucks/%s", truck.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var freed model.Truck
		decode(w, &freed)
		assert.Nil(t, freed.AssignedTo)
	})

	t.Run("truck moves between collectors from the truck side", func(t *testing.T) {
		w := call(http.MethodPatch, fmt.Sprintf("/api/trucks/%s", truck.ID),
			gin.H{"assignedTo": collectorY.ID.String()})
		require.Equal(t, http.StatusOK, w.Code)
		var updated model.Truck
		decode(w, &updated)
		require.NotNil(t, updated.AssignedTo)
		assert.Equal(t, collectorY.ID, updated.AssignedTo.ID)

		w = call(http.MethodGet, fmt.Sprintf("/api/collectors/%s", collectorY.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var holder model.Collector
		decode(w, &holder)
		require.NotNil(t, holder.TruckID)
		assert.Equal(t, truck.ID, *holder.TruckID)
	})

	t.Run("deleting the truck detaches its collector", func(t *testing.T) {
		w := call(http.MethodDelete, fmt.Sprintf("/api/trucks/%s", truck.ID), nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = call(http.MethodGet, fmt.Sprintf("/api/collectors/%s", collectorY.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var holder model.Collector
		decode(w, &holder)
		assert.Nil(t, holder.TruckID)
	})
}
