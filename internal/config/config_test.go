package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.ClothSegments != 10 {
		t.Errorf("ClothSegments = %d, want 10", cfg.ClothSegments)
	}
	if cfg.ClothSize != 1000 {
		t.Errorf("ClothSize = %f, want 1000", cfg.ClothSize)
	}
	if cfg.SpringStiffness != 1.0 {
		t.Errorf("SpringStiffness = %f, want 1.0", cfg.SpringStiffness)
	}
	if cfg.SimTickHz != 60 {
		t.Errorf("SimTickHz = %d, want 60", cfg.SimTickHz)
	}
	if cfg.MaxSessions != 256 {
		t.Errorf("MaxSessions = %d, want 256", cfg.MaxSessions)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %s, want empty (persistence optional)", cfg.DatabaseURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CLOTH_SEGMENTS", "24")
	t.Setenv("CLOTH_SIZE", "500.5")
	t.Setenv("GRAVITY", "2.5")
	t.Setenv("SIM_TICK_HZ", "30")
	t.Setenv("MAX_SESSIONS", "8")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.ClothSegments != 24 {
		t.Errorf("ClothSegments = %d, want 24", cfg.ClothSegments)
	}
	if cfg.ClothSize != 500.5 {
		t.Errorf("ClothSize = %f, want 500.5", cfg.ClothSize)
	}
	if cfg.Gravity != 2.5 {
		t.Errorf("Gravity = %f, want 2.5", cfg.Gravity)
	}
	if cfg.SimTickHz != 30 {
		t.Errorf("SimTickHz = %d, want 30", cfg.SimTickHz)
	}
	if cfg.MaxSessions != 8 {
		t.Errorf("MaxSessions = %d, want 8", cfg.MaxSessions)
	}
}

func TestMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("CLOTH_SEGMENTS", "many")
	t.Setenv("GRAVITY", "heavy")
	t.Setenv("SIM_TICK_HZ", "")

	cfg := Load()

	if cfg.ClothSegments != 10 {
		t.Errorf("ClothSegments = %d, want default 10 on malformed input", cfg.ClothSegments)
	}
	if cfg.Gravity != 1.0 {
		t.Errorf("Gravity = %f, want default 1.0 on malformed input", cfg.Gravity)
	}
	if cfg.SimTickHz != 60 {
		t.Errorf("SimTickHz = %d, want default 60 when unset", cfg.SimTickHz)
	}
}
