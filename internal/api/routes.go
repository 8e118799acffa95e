package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/drapesim/backend/internal/api/handlers"
	"github.com/drapesim/backend/internal/config"
	"github.com/drapesim/backend/internal/middleware"
	"github.com/drapesim/backend/internal/scene"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config, scenes *scene.Library) {
	// No-cache middleware in development so the reference client never
	// sees stale scene or config responses
	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] Aggressive no-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/config", handlers.GetConfig(cfg))

		// Scene and preset catalog
		v1.GET("/presets", handlers.ListPresets(db, scenes))
		v1.GET("/presets/:name", handlers.GetPreset(db, scenes))

		// Session endpoints
		sess := v1.Group("/session")
		{
			sess.POST("", handlers.CreateSession(db, rdb, cfg, scenes))
			sess.GET("/:token", handlers.GetSession(rdb))
			sess.DELETE("/:token", handlers.CloseSession())
			sess.GET("/:token/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleSessionWebSocket(db, rdb, cfg))
		}

		// Admin endpoints require a database for accounts and auditing
		if db != nil {
			adm := v1.Group("/admin")
			{
				adm.POST("/login", handlers.AdminLogin(db, rdb, cfg))

				authed := adm.Group("")
				authed.Use(middleware.AdminAuth(cfg))
				{
					authed.GET("/me", handlers.AdminMe())
					authed.GET("/stats", handlers.AdminStats(db))

					authed.GET("/sessions", handlers.AdminListSessions(db))
					authed.GET("/sessions/history", handlers.AdminSessionHistory(db))
					authed.DELETE("/sessions/:token", handlers.AdminCloseSession(db))

					authed.GET("/config", handlers.GetAdminRuntimeConfig(db))
					authed.PUT("/config/:key", middleware.RequireRole("super_admin"), handlers.UpdateAdminRuntimeConfig(db, cfg))

					authed.POST("/presets", handlers.CreateAdminPreset(db))
					authed.PUT("/presets/:name", handlers.UpdateAdminPreset(db))
					authed.DELETE("/presets/:name", handlers.DeleteAdminPreset(db))

					authed.GET("/audit", handlers.GetAdminAuditLogs(db))
				}
			}
		} else {
			log.Println("Admin API disabled: no database configured")
		}
	}
}
