package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drapesim/backend/internal/session"
)

var startTime = time.Now()

const version = "1.2.0"

// HealthCheck returns server health status
func HealthCheck(c *gin.Context) {
	active := 0
	if session.Manager != nil {
		active = session.Manager.ActiveCount()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"service":         "drapesim-api",
		"version":         version,
		"uptime":          time.Since(startTime).String(),
		"active_sessions": active,
	})
}
