package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/drapesim/backend/internal/admin"
	"github.com/drapesim/backend/internal/config"
	"github.com/drapesim/backend/internal/session"
)

// Cooldown enforced after a failed admin login from the same address.
const adminLoginBackoff = 10 * time.Second

// AdminLogin validates operator credentials and issues a bearer token
func AdminLogin(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		username := strings.TrimSpace(req.Username)
		password := strings.TrimSpace(req.Password)

		rateKey := "rate:admin_login:" + c.ClientIP()
		if rdb != nil {
			n, err := rdb.Exists(context.Background(), rateKey).Result()
			if err == nil && n > 0 {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts, try again shortly"})
				return
			}
		}

		adminAcc, err := admin.ValidateAdminCredentials(db, username, password)
		if err != nil {
			log.Printf("[ADMIN] Login failed for username %s: %v", username, err)
			admin.LogAdminAction(db, username, c.ClientIP(), "/api/v1/admin/login", "login", map[string]interface{}{"username": username}, false)
			if rdb != nil {
				rdb.SetNX(context.Background(), rateKey, "1", adminLoginBackoff)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		// Issue JWT
		exp := time.Now().Add(time.Duration(cfg.AdminSessionHours) * time.Hour)
		claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}
		custom := jwt.MapClaims{"admin_user": adminAcc.Username, "roles": []string(adminAcc.Roles), "exp": claims.ExpiresAt.Unix()}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, custom)
		signed, err := token.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Printf("[ADMIN] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		admin.LogAdminAction(db, username, c.ClientIP(), "/api/v1/admin/login", "login", map[string]interface{}{"username": username}, true)
		c.JSON(http.StatusOK, gin.H{
			"token":        signed,
			"username":     adminAcc.Username,
			"display_name": adminAcc.DisplayName,
			"roles":        []string(adminAcc.Roles),
			"expires_at":   exp.Format(time.RFC3339),
		})
	}
}

// AdminMe returns the authenticated operator's identity
func AdminMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString("admin_username")
		roles, _ := c.Get("admin_roles")
		c.JSON(http.StatusOK, gin.H{"username": username, "roles": roles})
	}
}

// AdminListSessions returns every live session held by this instance
func AdminListSessions(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")

		states := session.Manager.List()

		admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/sessions", "list_sessions", map[string]interface{}{"count": len(states)}, true)
		c.JSON(http.StatusOK, gin.H{"sessions": states, "count": len(states)})
	}
}

// AdminCloseSession force-closes a session by token
func AdminCloseSession(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")
		token := c.Param("token")

		if err := session.Manager.Close(token, "closed by admin"); err != nil {
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/sessions/"+token, "close_session", map[string]interface{}{"token": token}, false)
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/sessions/"+token, "close_session", map[string]interface{}{"token": token}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// AdminSessionHistory returns paginated session records from the database
func AdminSessionHistory(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		status := c.DefaultQuery("status", "all")
		if status != "all" {
			// Stored statuses are uppercase (WAITING, RUNNING, PAUSED, CLOSED).
			status = strings.ToUpper(status)
		}

		if limit > 200 {
			limit = 200
		}

		type sessionRow struct {
			ID          int     `db:"id" json:"id"`
			Token       string  `db:"token" json:"token"`
			SceneName   string  `db:"scene_name" json:"scene_name"`
			Segments    int     `db:"segments" json:"segments"`
			Size        float64 `db:"size" json:"size"`
			Status      string  `db:"status" json:"status"`
			ClientIP    *string `db:"client_ip" json:"client_ip"`
			FrameCount  int64   `db:"frame_count" json:"frame_count"`
			CreatedAt   string  `db:"created_at" json:"created_at"`
			StartedAt   *string `db:"started_at" json:"started_at"`
			ClosedAt    *string `db:"closed_at" json:"closed_at"`
			CloseReason *string `db:"close_reason" json:"close_reason"`
			TotalCount  int     `db:"total_count" json:"-"`
		}

		query := `
			SELECT id, token, scene_name, segments, size, status, client_ip, frame_count,
				to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"') as created_at,
				to_char(started_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"') as started_at,
				to_char(closed_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"') as closed_at,
				close_reason,
				COUNT(*) OVER() as total_count
			FROM sessions
			WHERE ($1 = 'all' OR status = $1)
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`

		var rows []sessionRow
		err := db.Select(&rows, query, status, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch session history: %v", err)
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/sessions/history", "session_history", nil, false)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session history"})
			return
		}

		total := 0
		if len(rows) > 0 {
			total = rows[0].TotalCount
		}

		admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/sessions/history", "session_history", map[string]interface{}{"count": len(rows)}, true)
		c.JSON(http.StatusOK, gin.H{"sessions": rows, "total": total, "limit": limit, "offset": offset})
	}
}

// AdminStats returns platform-wide simulation statistics
func AdminStats(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")

		stats := gin.H{
			"live_sessions": session.Manager.ActiveCount(),
		}

		var sessionStats struct {
			TotalSessions  int `db:"total_sessions"`
			OpenSessions   int `db:"open_sessions"`
			ClosedSessions int `db:"closed_sessions"`
		}
		err := db.Get(&sessionStats, `
			SELECT
				COUNT(*) as total_sessions,
				SUM(CASE WHEN status IN ('WAITING', 'RUNNING', 'PAUSED') THEN 1 ELSE 0 END) as open_sessions,
				SUM(CASE WHEN status = 'CLOSED' THEN 1 ELSE 0 END) as closed_sessions
			FROM sessions
		`)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch session stats: %v", err)
		} else {
			stats["total_sessions"] = sessionStats.TotalSessions
			stats["open_sessions"] = sessionStats.OpenSessions
			stats["closed_sessions"] = sessionStats.ClosedSessions
		}

		var totalFrames int64
		err = db.Get(&totalFrames, `SELECT COALESCE(SUM(frame_count), 0) FROM sessions`)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch frame totals: %v", err)
		} else {
			stats["total_frames"] = totalFrames
		}

		var sceneCounts []struct {
			SceneName string `db:"scene_name"`
			Count     int    `db:"count"`
		}
		err = db.Select(&sceneCounts, `
			SELECT scene_name, COUNT(*) as count
			FROM sessions
			GROUP BY scene_name
			ORDER BY count DESC
		`)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch scene popularity: %v", err)
		} else {
			scenes := gin.H{}
			for _, sc := range sceneCounts {
				scenes[sc.SceneName] = sc.Count
			}
			stats["sessions_by_scene"] = scenes
		}

		admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/stats", "get_stats", nil, true)
		c.JSON(http.StatusOK, stats)
	}
}
