// Package presets stores named cloth configurations in Postgres.
package presets

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/drapesim/backend/internal/models"
	"github.com/drapesim/backend/internal/scene"
)

var ErrNotFound = errors.New("preset not found")
var ErrBuiltin = errors.New("builtin presets cannot be modified")

// List returns all presets ordered by name.
func List(db *sqlx.DB) ([]models.Preset, error) {
	var out []models.Preset
	err := db.Select(&out, `
		SELECT id, name, description, segments, size, stiffness, gravity,
		       wind_min_x, wind_max_x, wind_min_y, wind_max_y, wind_min_z, wind_max_z,
		       is_builtin, created_by, created_at, updated_at
		FROM presets
		ORDER BY name
	`)
	return out, err
}

// GetByName returns a single preset.
func GetByName(db *sqlx.DB, name string) (*models.Preset, error) {
	var p models.Preset
	err := db.Get(&p, `
		SELECT id, name, description, segments, size, stiffness, gravity,
		       wind_min_x, wind_max_x, wind_min_y, wind_max_y, wind_min_z, wind_max_z,
		       is_builtin, created_by, created_at, updated_at
		FROM presets WHERE name=$1
	`, name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new preset.
func Create(db *sqlx.DB, p *models.Preset) error {
	if err := validate(p); err != nil {
		return err
	}
	return db.QueryRowx(`
		INSERT INTO presets (name, description, segments, size, stiffness, gravity,
			wind_min_x, wind_max_x, wind_min_y, wind_max_y, wind_min_z, wind_max_z,
			is_builtin, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, $13, NOW(), NOW())
		RETURNING id
	`, p.Name, p.Description, p.Segments, p.Size, p.Stiffness, p.Gravity,
		p.WindMinX, p.WindMaxX, p.WindMinY, p.WindMaxY, p.WindMinZ, p.WindMaxZ,
		p.CreatedBy).Scan(&p.ID)
}

// Update rewrites a non-builtin preset's parameters.
func Update(db *sqlx.DB, p *models.Preset) error {
	if err := validate(p); err != nil {
		return err
	}

	existing, err := GetByName(db, p.Name)
	if err != nil {
		return err
	}
	if existing.IsBuiltin {
		return ErrBuiltin
	}

	_, err = db.Exec(`
		UPDATE presets SET description=$1, segments=$2, size=$3, stiffness=$4, gravity=$5,
			wind_min_x=$6, wind_max_x=$7, wind_min_y=$8, wind_max_y=$9, wind_min_z=$10, wind_max_z=$11,
			updated_at=NOW()
		WHERE name=$12
	`, p.Description, p.Segments, p.Size, p.Stiffness, p.Gravity,
		p.WindMinX, p.WindMaxX, p.WindMinY, p.WindMaxY, p.WindMinZ, p.WindMaxZ, p.Name)
	return err
}

// Delete removes a non-builtin preset.
func Delete(db *sqlx.DB, name string) error {
	existing, err := GetByName(db, name)
	if err != nil {
		return err
	}
	if existing.IsBuiltin {
		return ErrBuiltin
	}

	_, err = db.Exec(`DELETE FROM presets WHERE name=$1`, name)
	return err
}

// Profile converts a preset row into a scene profile for session creation.
func Profile(p *models.Preset) scene.Profile {
	return scene.Profile{
		Name:        p.Name,
		Description: p.Description,
		Segments:    p.Segments,
		Size:        p.Size,
		Stiffness:   p.Stiffness,
		Gravity:     p.Gravity,
		Wind: scene.WindConfig{
			X: scene.AxisRange{Min: p.WindMinX, Max: p.WindMaxX},
			Y: scene.AxisRange{Min: p.WindMinY, Max: p.WindMaxY},
			Z: scene.AxisRange{Min: p.WindMinZ, Max: p.WindMaxZ},
		},
	}
}

func validate(p *models.Preset) error {
	if p.Name == "" {
		return fmt.Errorf("preset name required")
	}
	if p.Segments < 1 {
		return fmt.Errorf("segments must be >= 1, got %d", p.Segments)
	}
	if p.Size <= 0 {
		return fmt.Errorf("size must be positive, got %f", p.Size)
	}
	if p.WindMaxX < p.WindMinX || p.WindMaxY < p.WindMinY || p.WindMaxZ < p.WindMinZ {
		return fmt.Errorf("wind range max below min")
	}
	return nil
}
