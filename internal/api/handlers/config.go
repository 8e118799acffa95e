package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drapesim/backend/internal/config"
)

// GetConfig returns minimal config values required by frontend
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"default_segments": cfg.ClothSegments,
			"default_size":     cfg.ClothSize,
			"sim_tick_hz":      cfg.SimTickHz,
			"broadcast_every":  cfg.BroadcastEvery,
			"max_sessions":     cfg.MaxSessions,
		})
	}
}
