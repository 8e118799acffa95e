package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/drapesim/backend/internal/logger"
	"github.com/drapesim/backend/internal/presets"
	"github.com/drapesim/backend/internal/scene"
)

// ListPresets returns the selectable cloth configurations: file-based
// scenes plus database presets when a database is configured.
func ListPresets(db *sqlx.DB, scenes *scene.Library) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{
			"scenes":  scenes.All(),
			"presets": []interface{}{},
		}

		if db != nil {
			rows, err := presets.List(db)
			if err != nil {
				logger.Sugar.Errorw("failed to list presets", "error", err)
			} else if rows != nil {
				resp["presets"] = rows
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// GetPreset returns one configuration by name, checking stored presets
// before scene files.
func GetPreset(db *sqlx.DB, scenes *scene.Library) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		if db != nil {
			p, err := presets.GetByName(db, name)
			if err == nil {
				c.JSON(http.StatusOK, gin.H{"preset": p})
				return
			}
			if err != presets.ErrNotFound {
				logger.Sugar.Errorw("preset lookup failed", "name", name, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "preset lookup failed"})
				return
			}
		}

		if p, ok := scenes.Get(name); ok {
			c.JSON(http.StatusOK, gin.H{"scene": p})
			return
		}

		c.JSON(http.StatusNotFound, gin.H{"error": "no preset or scene with that name"})
	}
}
