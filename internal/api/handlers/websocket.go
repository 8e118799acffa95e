package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/drapesim/backend/internal/config"
	"github.com/drapesim/backend/internal/ws"
)

// HandleSessionWebSocket handles real-time simulation streaming
func HandleSessionWebSocket(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return ws.HandleWebSocket
}
