package bootstrap

import (
	"log"
	"net/http"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/handlers"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/metrics"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/middleware"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter wires handlers onto the gin engine
func setupRouter(app *Application) *gin.Engine {
	cfg := app.Config

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Metrics middleware must wrap every route
	r.Use(metrics.HTTPMetricsMiddleware(app.MetricsRecorder))
	r.Use(gin.Logger(), gin.Recovery())

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(app.DB))

	// Prometheus metrics endpoint
	if cfg.MetricsEnabled {
		log.Printf("Prometheus metrics enabled at /metrics")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	credentialHandler := handlers.NewCredentialHandler(app.CredentialService)
	oauthHandler := handlers.NewOAuthHandler(app.Refresher, app.CredentialService)
	tokenHandler := handlers.NewTokenHandler(app.Refresher)
	inventoryHandler := handlers.NewInventoryHandler(app.Inventory)
	notifyHandler := handlers.NewNotifyHandler(app.Notifier)

	// OAuth callback (public; the marketplace redirects here)
	r.GET("/oauth/callback", oauthHandler.Callback)

	// Admin API (API-key protected)
	api := r.Group("/api")
	api.Use(middleware.APIKeyAuth(cfg.AdminAPIKey))
	{
		api.GET("/credentials", credentialHandler.ListCredentials)
		api.POST("/credentials", credentialHandler.InsertCredential)
		api.GET("/credentials/:locationId", credentialHandler.GetCredential)
		api.DELETE("/credentials/:locationId", credentialHandler.DeleteCredential)
		api.PUT("/credentials/:locationId/emails", credentialHandler.UpdateReceiverEmails)
		api.PUT("/credentials/:locationId/tokens", credentialHandler.UpdateTokenPair)

		api.GET("/tokens/:locationId/status", tokenHandler.Status)
		api.GET("/inventory/:locationId/summary", inventoryHandler.Summary)

		api.POST("/notify/run", notifyHandler.Run)
		api.GET("/notify/last-run", notifyHandler.LastReport)
	}

	return r
}

// createHealthCheckHandler creates the health check endpoint handler
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}
