package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"waste-transport-backend/config"
	"waste-transport-backend/internal/mw"
	"waste-transport-backend/internal/notification"
	"waste-transport-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, cfg *config.ServerConfig, webpushOptions *webpush.Options, pool *notification.WorkerPool) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions, pool)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter, mw.Invalidate(cacheStore))
	{
		api.POST("/bins", handler.CreateBin)
		api.GET("/bins", caching, handler.ListBins)
		api.GET("/bins/:bin_id", handler.GetBin)
		api.POST("/bins/:bin_id/assign", handler.AssignCollector)
		api.POST("/bins/:bin_id/status", handler.UpdateBinStatus)
		api.POST("/bins/:bin_id/reassign", handler.ReassignBin)
		api.POST("/bins/:bin_id/reset", handler.ResetBinStatus)
		api.DELETE("/bins/:bin_id", handler.DeleteBin)

		api.POST("/collectors", handler.CreateCollector)
		api.GET("/collectors", caching, handler.ListCollectors)
		api.GET("/collectors/:collector_id", handler.GetCollector)
		api.GET("/collectors/:collector_id/bins", handler.GetBinsByCollector)
		api.PATCH("/collectors/:collector_id", handler.UpdateCollector)
		api.DELETE("/collectors/:collector_id", handler.DeleteCollector)

		api.POST("/trucks", handler.CreateTruck)
		api.GET("/trucks", caching, handler.ListTrucks)
		api.GET("/trucks/:truck_id", handler.GetTruck)
		api.PATCH("/trucks/:truck_id", handler.UpdateTruck)
		api.DELETE("/trucks/:truck_id", handler.DeleteTruck)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
