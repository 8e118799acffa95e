// Package scene loads named cloth scene profiles from YAML files.
// A profile bundles the physical parameters a session is built from with
// presentation hints (camera, texture) the server passes through to the
// reference client untouched.
package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/drapesim/backend/internal/sim"
)

// AxisRange bounds one axis of the wind force sample.
type AxisRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// WindConfig holds per-axis wind sampling ranges.
type WindConfig struct {
	X AxisRange `yaml:"x" json:"x"`
	Y AxisRange `yaml:"y" json:"y"`
	Z AxisRange `yaml:"z" json:"z"`
}

// CameraHint is an optional client-side camera setup. The server never
// interprets it.
type CameraHint struct {
	Position []float64 `yaml:"position" json:"position,omitempty"`
	LookAt   []float64 `yaml:"look_at" json:"look_at,omitempty"`
	FOV      float64   `yaml:"fov" json:"fov,omitempty"`
}

// Profile describes one selectable cloth scene.
type Profile struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description,omitempty"`
	Segments    int        `yaml:"segments" json:"segments"`
	Size        float64    `yaml:"size" json:"size"`
	Stiffness   float64    `yaml:"stiffness" json:"stiffness"`
	Gravity     float64    `yaml:"gravity" json:"gravity"`
	Wind        WindConfig `yaml:"wind" json:"wind"`
	Camera      CameraHint `yaml:"camera" json:"camera,omitempty"`
	Texture     string     `yaml:"texture" json:"texture,omitempty"`
}

// Default returns the stock flag scene matching the reference client's
// built-in constants.
func Default() Profile {
	return Profile{
		Name:      "flag",
		Segments:  sim.DefaultSegments,
		Size:      sim.DefaultSize,
		Stiffness: sim.DefaultStiffness,
		Gravity:   sim.DefaultGravity,
		Wind: WindConfig{
			X: AxisRange{Min: sim.DefaultWindMinX, Max: sim.DefaultWindMaxX},
			Y: AxisRange{Min: sim.DefaultWindMinY, Max: sim.DefaultWindMaxY},
			Z: AxisRange{Min: sim.DefaultWindMinZ, Max: sim.DefaultWindMaxZ},
		},
	}
}

// WindProfile converts the YAML wind ranges into the simulator's form.
func (p Profile) WindProfile() sim.WindProfile {
	return sim.WindProfile{
		X: sim.AxisRange{Min: p.Wind.X.Min, Max: p.Wind.X.Max},
		Y: sim.AxisRange{Min: p.Wind.Y.Min, Max: p.Wind.Y.Max},
		Z: sim.AxisRange{Min: p.Wind.Z.Min, Max: p.Wind.Z.Max},
	}
}

// Validate rejects profiles the simulator cannot build a grid from.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("scene profile missing name")
	}
	if p.Segments < 1 {
		return fmt.Errorf("scene %q: segments must be >= 1, got %d", p.Name, p.Segments)
	}
	if p.Size <= 0 {
		return fmt.Errorf("scene %q: size must be positive, got %f", p.Name, p.Size)
	}
	if p.Wind.X.Max < p.Wind.X.Min || p.Wind.Y.Max < p.Wind.Y.Min || p.Wind.Z.Max < p.Wind.Z.Min {
		return fmt.Errorf("scene %q: wind range max below min", p.Name)
	}
	return nil
}

// Library is a named set of loaded profiles.
type Library struct {
	profiles map[string]Profile
	order    []string
}

// LoadDir reads every *.yaml / *.yml file in dir as one profile each,
// merged over Default(). A missing directory yields a library containing
// only the default scene.
func LoadDir(dir string) (*Library, error) {
	lib := &Library{profiles: make(map[string]Profile)}
	lib.add(Default())

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("reading scenes dir %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		p, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		lib.add(p)
	}

	return lib, nil
}

// loadFile parses one profile file, merging over defaults so partial
// files stay valid.
func loadFile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading scene %s: %w", path, err)
	}

	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing scene %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (l *Library) add(p Profile) {
	if _, exists := l.profiles[p.Name]; !exists {
		l.order = append(l.order, p.Name)
	}
	l.profiles[p.Name] = p
}

// Get returns the named profile.
func (l *Library) Get(name string) (Profile, bool) {
	p, ok := l.profiles[name]
	return p, ok
}

// Names lists profiles in load order, default scene first.
func (l *Library) Names() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// All returns profiles in load order.
func (l *Library) All() []Profile {
	out := make([]Profile, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.profiles[name])
	}
	return out
}
