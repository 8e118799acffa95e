package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Preset is a stored cloth configuration selectable at session creation
type Preset struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Segments    int       `db:"segments" json:"segments"`
	Size        float64   `db:"size" json:"size"`
	Stiffness   float64   `db:"stiffness" json:"stiffness"`
	Gravity     float64   `db:"gravity" json:"gravity"`
	WindMinX    float64   `db:"wind_min_x" json:"wind_min_x"`
	WindMaxX    float64   `db:"wind_max_x" json:"wind_max_x"`
	WindMinY    float64   `db:"wind_min_y" json:"wind_min_y"`
	WindMaxY    float64   `db:"wind_max_y" json:"wind_max_y"`
	WindMinZ    float64   `db:"wind_min_z" json:"wind_min_z"`
	WindMaxZ    float64   `db:"wind_max_z" json:"wind_max_z"`
	IsBuiltin   bool      `db:"is_builtin" json:"is_builtin"`
	CreatedBy   string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SessionRecord is the persistent row behind an in-memory simulation session
type SessionRecord struct {
	ID          int        `db:"id" json:"id"`
	Token       string     `db:"token" json:"token"`
	SceneName   string     `db:"scene_name" json:"scene_name"`
	Segments    int        `db:"segments" json:"segments"`
	Size        float64    `db:"size" json:"size"`
	Status      string     `db:"status" json:"status"`
	ClientIP    string     `db:"client_ip" json:"client_ip,omitempty"`
	FrameCount  int64      `db:"frame_count" json:"frame_count"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	ClosedAt    *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	CloseReason string     `db:"close_reason" json:"close_reason,omitempty"`
}

// RuntimeConfig is an admin-tunable setting applied over the env config
type RuntimeConfig struct {
	Key         string    `db:"key" json:"key"`
	Value       string    `db:"value" json:"value"`
	ValueType   string    `db:"value_type" json:"value_type"`
	Description string    `db:"description" json:"description,omitempty"`
	UpdatedBy   string    `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AdminAccount is an operator login
type AdminAccount struct {
	Username     string         `db:"username" json:"username"`
	DisplayName  string         `db:"display_name" json:"display_name"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Roles        pq.StringArray `db:"roles" json:"roles"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit is one row in the admin action log
type AdminAudit struct {
	ID        int             `db:"id" json:"id"`
	AdminUser string          `db:"admin_user" json:"admin_user"`
	IP        string          `db:"ip" json:"ip"`
	Route     string          `db:"route" json:"route"`
	Action    string          `db:"action" json:"action"`
	Details   json.RawMessage `db:"details" json:"details,omitempty"`
	Success   bool            `db:"success" json:"success"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
