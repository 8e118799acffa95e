package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/drapesim/backend/internal/admin"
	"github.com/drapesim/backend/internal/models"
)

// GetAdminAuditLogs returns paginated audit log entries
func GetAdminAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		byUser := c.DefaultQuery("admin_user", "")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit > 200 {
			limit = 200
		}

		var logs []models.AdminAudit
		var err error
		if byUser != "" {
			logs, err = admin.GetAdminAuditLogsByUser(db, byUser, limit, offset)
		} else {
			logs, err = admin.GetAdminAuditLogs(db, limit, offset)
		}
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch audit logs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
			return
		}

		// Viewing the audit log is not itself audited to avoid noise
		c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs), "limit": limit, "offset": offset})
	}
}
