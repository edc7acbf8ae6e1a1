package api

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
	"waste-transport-backend/internal/model"
	"waste-transport-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupRouter builds a router over an isolated in-memory database. Rate
// limits are effectively disabled so tests can hammer the API.
func setupRouter(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Bin{}, &model.Collector{}, &model.Truck{}, &model.PushSubscription{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	s := store.NewGormStore(db)
	cfg := &config.ServerConfig{
		RateLimitPerSec: 10000,
		RateLimitBurst:  10000,
		CacheTTLSeconds: 1,
	}
	return NewRouter(s, cfg, nil, nil), s
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
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

func decodeBin(t *testing.T, w *httptest.ResponseRecorder) model.Bin {
	t.Helper()
	var bin model.Bin
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bin))
	return bin
}

func TestCreateBinEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	t.Run("missing required fields is a 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/bins", gin.H{"city": "Colombo"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid bin is created Pending", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/bins", gin.H{
			"location":   "Main St",
			"city":       "Colombo",
			"reportedAt": time.Now().UTC().Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, w.Code)
		bin := decodeBin(t, w)
		assert.Equal(t, model.BinPending, bin.Status)
		assert.Nil(t, bin.AssignedTo)
	})
}

func TestBinEndpointErrors(t *testing.T) {
	router, _ := setupRouter(t)

	t.Run("malformed id is a 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/bins/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown bin is a 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/bins/6f1f9dd0-0000-4000-8000-000000000001", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("assigning to an unknown collector is a 404", func(t *testing.T) {
		created := doJSON(t, router, http.MethodPost, "/api/bins", gin.H{
			"location":   "Main St",
			"city":       "Colombo",
			"reportedAt": time.Now().UTC().Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, created.Code)
		bin := decodeBin(t, created)

		w := doJSON(t, router, http.MethodPost, "/api/bins/"+bin.ID.String()+"/assign",
			gin.H{"collectorId": "6f1f9dd0-0000-4000-8000-000000000002"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStatusUpdateForbiddenEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	binResp := doJSON(t, router, http.MethodPost, "/api/bins", gin.H{
		"location":   "Main St",
		"city":       "Colombo",
		"reportedAt": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, binResp.Code)
	bin := decodeBin(t, binResp)

	mkCollector := func(name string) string {
		w := doJSON(t, router, http.MethodPost, "/api/collectors", gin.H{"name": name, "city": "Colombo"})
		require.Equal(t, http.StatusCreated, w.Code)
		var c model.Collector
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
		return c.ID.String()
	}
	assignee := mkCollector("X")
	intruder := mkCollector("W")

	w := doJSON(t, router, http.MethodPost, "/api/bins/"+bin.ID.String()+"/assign", gin.H{"collectorId": assignee})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/bins/"+bin.ID.String()+"/status",
		gin.H{"status": "Collected", "collectorId": intruder})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/bins/"+bin.ID.String()+"/status",
		gin.H{"status": "Collected", "collectorId": assignee})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTruckConflictEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/trucks", gin.H{"plateNumber": "WP-7001", "capacity": 3000})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/trucks", gin.H{"plateNumber": "WP-7001", "capacity": 1000})
	assert.Equal(t, http.StatusConflict, w.Code)
}
