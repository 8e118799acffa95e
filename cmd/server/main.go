package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/drapesim/backend/internal/admin"
	"github.com/drapesim/backend/internal/api"
	"github.com/drapesim/backend/internal/config"
	"github.com/drapesim/backend/internal/database"
	"github.com/drapesim/backend/internal/logger"
	"github.com/drapesim/backend/internal/middleware"
	"github.com/drapesim/backend/internal/migrations"
	"github.com/drapesim/backend/internal/redis"
	"github.com/drapesim/backend/internal/scene"
	"github.com/drapesim/backend/internal/session"
	"github.com/drapesim/backend/internal/ws"
)

func main() {
	// Initialize configuration (loads .env if present)
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database. Persistence is optional; without it the
	// service runs purely in memory and the admin API is disabled.
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Run migrations on start if requested
		if os.Getenv("MIGRATE_ON_START") == "true" {
			log.Println("↗ Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		// Apply operator overrides stored in the database
		if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
			logger.Sugar.Warnw("failed to apply runtime config", "error", err)
		}
	} else {
		log.Println("DATABASE_URL not set; running without persistence")
	}

	// Initialize Redis. Also optional; snapshots, cross-instance wind
	// events and ambient gusts all need it.
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
	} else {
		log.Println("REDIS_URL not set; snapshots and ambient gusts disabled")
	}

	// Load scene profiles
	scenes, err := scene.LoadDir(cfg.ScenesDir)
	if err != nil {
		log.Fatalf("Failed to load scenes: %v", err)
	}
	logger.Sugar.Infow("scene profiles loaded", "count", len(scenes.Names()), "dir", cfg.ScenesDir)

	// Initialize Session Manager with Redis and config
	session.InitializeManager(db, rdb, cfg)

	// Frames and wind events flow to viewers through the WS hub
	session.Manager.SetSink(ws.ClothHub)

	// Wire Redis and start wind event subscriber in WS layer
	ws.SetRedisClient(rdb, cfg)
	ws.StartWindEventSubscriber(context.Background())

	// Start gust worker (periodic wind toggles for opted-in sessions)
	session.StartGustWorker(context.Background(), rdb, cfg)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(middleware.CORSMiddleware(cfg))

	// Initialize API handlers
	api.SetupRoutes(router, db, rdb, cfg, scenes)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting drapesim server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
