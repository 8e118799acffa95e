package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/drapesim/backend/internal/admin"
	"github.com/drapesim/backend/internal/models"
	"github.com/drapesim/backend/internal/presets"
)

// presetRequest carries the editable fields of a preset. Validation
// lives in the presets package, not in binding tags.
type presetRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Segments    int     `json:"segments"`
	Size        float64 `json:"size"`
	Stiffness   float64 `json:"stiffness"`
	Gravity     float64 `json:"gravity"`
	WindMinX    float64 `json:"wind_min_x"`
	WindMaxX    float64 `json:"wind_max_x"`
	WindMinY    float64 `json:"wind_min_y"`
	WindMaxY    float64 `json:"wind_max_y"`
	WindMinZ    float64 `json:"wind_min_z"`
	WindMaxZ    float64 `json:"wind_max_z"`
}

func (r presetRequest) toModel(createdBy string) *models.Preset {
	return &models.Preset{
		Name:        r.Name,
		Description: r.Description,
		Segments:    r.Segments,
		Size:        r.Size,
		Stiffness:   r.Stiffness,
		Gravity:     r.Gravity,
		WindMinX:    r.WindMinX,
		WindMaxX:    r.WindMaxX,
		WindMinY:    r.WindMinY,
		WindMaxY:    r.WindMaxY,
		WindMinZ:    r.WindMinZ,
		WindMaxZ:    r.WindMaxZ,
		CreatedBy:   createdBy,
	}
}

// CreateAdminPreset stores a new cloth preset
func CreateAdminPreset(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")

		var req presetRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		p := req.toModel(adminUsername)
		if err := presets.Create(db, p); err != nil {
			log.Printf("[ADMIN] Failed to create preset %s: %v", req.Name, err)
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/presets", "create_preset", map[string]interface{}{"name": req.Name}, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/presets", "create_preset", map[string]interface{}{"name": req.Name, "id": p.ID}, true)
		c.JSON(http.StatusCreated, gin.H{"preset": p})
	}
}

// UpdateAdminPreset rewrites an existing non-builtin preset
func UpdateAdminPreset(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")
		name := c.Param("name")

		var req presetRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// The URL names the preset; the body may not rename it
		req.Name = name

		err := presets.Update(db, req.toModel(adminUsername))
		if err != nil {
			status := http.StatusBadRequest
			if err == presets.ErrNotFound {
				status = http.StatusNotFound
			} else if err == presets.ErrBuiltin {
				status = http.StatusForbidden
			}
			log.Printf("[ADMIN] Failed to update preset %s: %v", name, err)
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/presets/"+name, "update_preset", map[string]interface{}{"name": name}, false)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/presets/"+name, "update_preset", map[string]interface{}{"name": name}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// DeleteAdminPreset removes a non-builtin preset
func DeleteAdminPreset(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")
		name := c.Param("name")

		err := presets.Delete(db, name)
		if err != nil {
			status := http.StatusInternalServerError
			if err == presets.ErrNotFound {
				status = http.StatusNotFound
			} else if err == presets.ErrBuiltin {
				status = http.StatusForbidden
			}
			log.Printf("[ADMIN] Failed to delete preset %s: %v", name, err)
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/presets/"+name, "delete_preset", map[string]interface{}{"name": name}, false)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		admin.LogAdminAction(db, adminUsername, c.ClientIP(), "/api/v1/admin/presets/"+name, "delete_preset", map[string]interface{}{"name": name}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
