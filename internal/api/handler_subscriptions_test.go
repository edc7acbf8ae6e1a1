package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-transport-backend/internal/model"
	"waste-transport-backend/internal/store"
)

func TestSubscriptionEndpoints(t *testing.T) {
	router, s := setupRouter(t)

	collector, err := s.CreateCollector(context.Background(), store.CreateCollectorParams{
		Name: "X", City: "Colombo",
	})
	require.NoError(t, err)

	t.Run("missing body is a 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/subscriptions", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown collector is a 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/subscriptions", gin.H{
			"endpoint":    "https://example.com/push",
			"p256dh":      "key",
			"auth":        "auth",
			"collectorId": "6f1f9dd0-0000-4000-8000-000000000003",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("register, fetch, delete", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/subscriptions", gin.H{
			"endpoint":    "https://example.com/push",
			"p256dh":      "key",
			"auth":        "auth",
			"collectorId": collector.ID,
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/subscriptions?endpoint=https%3A%2F%2Fexample.com%2Fpush", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), collector.ID.String())

		w = doJSON(t, router, http.MethodDelete, "/api/subscriptions", gin.H{
			"endpoint": "https://example.com/push",
		})
		assert.Equal(t, http.StatusNoContent, w.Code)

		var count int64
		s.DB().Model(&model.PushSubscription{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})
}

func TestVAPIDKeyUnconfigured(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/vapid_public_key", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
