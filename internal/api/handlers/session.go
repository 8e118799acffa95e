package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/drapesim/backend/internal/config"
	"github.com/drapesim/backend/internal/logger"
	"github.com/drapesim/backend/internal/presets"
	"github.com/drapesim/backend/internal/scene"
	"github.com/drapesim/backend/internal/session"
)

// CreateSessionRequest selects what cloth to simulate. All fields are
// optional; an empty body yields the default scene.
type CreateSessionRequest struct {
	Scene        string `json:"scene"`
	Preset       string `json:"preset"`
	AmbientGusts bool   `json:"ambient_gusts"`
}

// CreateSession opens a new simulation session and returns its token.
func CreateSession(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, scenes *scene.Library) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSessionRequest
		// Empty bodies are fine; they select the default scene.
		c.ShouldBindJSON(&req)

		// Per-IP create rate limit
		if rdb != nil && cfg.SessionRateLimitSeconds > 0 {
			key := fmt.Sprintf("rate:session:%s", c.ClientIP())
			ttl := time.Duration(cfg.SessionRateLimitSeconds) * time.Second
			ok, err := rdb.SetNX(context.Background(), key, "1", ttl).Result()
			if err == nil && !ok {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many sessions, slow down"})
				return
			}
		}

		profile, err := resolveProfile(db, scenes, req)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		sess, err := session.Manager.Create(profile, c.ClientIP(), req.AmbientGusts)
		if err == session.ErrTooMany {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session limit reached, try again later"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token":  sess.Token,
			"ws_url": "/api/v1/session/" + sess.Token + "/ws",
			"scene":  profile,
		})
	}
}

// resolveProfile picks the cloth parameters for a new session: a stored
// preset wins over a scene file, and no selection means the default scene.
func resolveProfile(db *sqlx.DB, scenes *scene.Library, req CreateSessionRequest) (scene.Profile, error) {
	if req.Preset != "" {
		if db == nil {
			return scene.Profile{}, fmt.Errorf("presets unavailable: no database configured")
		}
		p, err := presets.GetByName(db, req.Preset)
		if err == presets.ErrNotFound {
			return scene.Profile{}, fmt.Errorf("preset %q not found", req.Preset)
		}
		if err != nil {
			return scene.Profile{}, fmt.Errorf("preset lookup failed")
		}
		return presets.Profile(p), nil
	}

	if req.Scene != "" {
		p, ok := scenes.Get(req.Scene)
		if !ok {
			return scene.Profile{}, fmt.Errorf("scene %q not found", req.Scene)
		}
		return p, nil
	}

	return scene.Default(), nil
}

// GetSession returns the live state for a session, falling back to the
// last Redis snapshot for sessions this instance no longer holds.
func GetSession(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")

		if sess, err := session.Manager.Get(token); err == nil {
			c.JSON(http.StatusOK, gin.H{"live": true, "state": sess.State()})
			return
		}

		if rdb != nil {
			key := "session:" + token + ":state"
			raw, err := rdb.Get(context.Background(), key).Result()
			if err == nil {
				var state session.StatePayload
				if err := json.Unmarshal([]byte(raw), &state); err == nil {
					c.JSON(http.StatusOK, gin.H{"live": false, "state": state})
					return
				}
				logger.Sugar.Warnw("corrupt session snapshot", "token", token)
			}
		}

		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	}
}

// CloseSession ends a session. Knowing the token is the capability.
func CloseSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if err := session.Manager.Close(token, "client request"); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
