// Package session drives a measurement session: it owns the single active
// centering region per viewer, the report being assembled, and the settings
// that govern both.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"starpick/internal/centroid"
	"starpick/internal/shape"

	"github.com/lucasb-eyer/go-colorful"
)

const settingsFile = "settings.json"

// Settings is the explicit configuration value threaded into region creation
// and centroid calls. Nothing here is ambient global state.
type Settings struct {
	RegionType      string  `json:"region_type"`
	RegionColor     string  `json:"region_color"`
	RegionWidth     float64 `json:"region_width"`
	RegionHeight    float64 `json:"region_height"`
	MaxRegionSize   int     `json:"max_region_size"`
	CenteringMethod string  `json:"centering_method"`
	TargetKeyword   string  `json:"target_keyword"`
	DateKeyword     string  `json:"date_keyword"`
	AutofillTarget  bool    `json:"autofill_target"`
	AutofillDate    bool    `json:"autofill_date"`
	AutoLevels      bool    `json:"auto_levels"`
	// DisableGaussianFit removes the 2D Gaussian method from the offered
	// set, modeling environments without the fitting capability.
	DisableGaussianFit bool `json:"disable_gaussian_fit"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		RegionType:    shape.Box.String(),
		RegionColor:   "green",
		RegionWidth:   7,
		RegionHeight:  7,
		MaxRegionSize: 1024,
		AutoLevels:    true,
	}
}

// SettingsPath returns the per-user settings file location.
func SettingsPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "starpick", settingsFile)
}

// LoadSettings reads settings from path, falling back to defaults when the
// file doesn't exist.
func LoadSettings(path string) Settings {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	_ = json.Unmarshal(data, &s)
	return s
}

// Save writes the settings to disk, creating the directory if needed.
func (s Settings) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overrides settings from STARPICK_* environment variables.
func (s *Settings) ApplyEnv() {
	if v := os.Getenv("STARPICK_REGION_TYPE"); v != "" {
		s.RegionType = v
	}
	if v := os.Getenv("STARPICK_REGION_COLOR"); v != "" {
		s.RegionColor = v
	}
	if v := os.Getenv("STARPICK_CENTERING_METHOD"); v != "" {
		s.CenteringMethod = v
	}
	if v := os.Getenv("STARPICK_MAX_REGION_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.MaxRegionSize = n
		}
	}
	if v := os.Getenv("STARPICK_DISABLE_GAUSSIAN"); v != "" {
		s.DisableGaussianFit = v == "1" || strings.EqualFold(v, "true")
	}
}

// Normalize repairs invalid settings in place: unknown region types fall
// back to box, unregistered centering methods resolve through the registry,
// and the region color is canonicalized.
func (s *Settings) Normalize(registry *centroid.Registry) {
	if _, err := shape.ParseKind(s.RegionType); err != nil {
		s.RegionType = shape.Box.String()
	}

	method, err := centroid.ParseMethod(s.CenteringMethod)
	if err != nil || !registry.Has(method) {
		method = centroid.Method("")
	}
	s.CenteringMethod = string(registry.Resolve(method))

	if c, err := NormalizeColor(s.RegionColor); err == nil {
		s.RegionColor = c
	} else {
		s.RegionColor = DefaultSettings().RegionColor
	}

	if s.RegionWidth <= 0 {
		s.RegionWidth = DefaultSettings().RegionWidth
	}
	if s.RegionHeight <= 0 {
		s.RegionHeight = DefaultSettings().RegionHeight
	}
	if s.MaxRegionSize <= 0 {
		s.MaxRegionSize = DefaultSettings().MaxRegionSize
	}
}

// Capabilities derives the centroid capabilities from the settings.
func (s Settings) Capabilities() centroid.Capabilities {
	return centroid.Capabilities{Gaussian2D: !s.DisableGaussianFit}
}

// namedColors maps the color names accepted for regions and markers onto
// hex values.
var namedColors = map[string]string{
	"green":   "#00ff00",
	"cyan":    "#00ffff",
	"red":     "#ff0000",
	"yellow":  "#ffff00",
	"magenta": "#ff00ff",
	"white":   "#ffffff",
	"orange":  "#ffa500",
	"blue":    "#0000ff",
}

// NormalizeColor validates a color name or #rrggbb string and returns its
// canonical lowercase hex form.
func NormalizeColor(name string) (string, error) {
	hex := name
	if !strings.HasPrefix(hex, "#") {
		mapped, ok := namedColors[strings.ToLower(name)]
		if !ok {
			return "", fmt.Errorf("unknown color %q", name)
		}
		hex = mapped
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return "", fmt.Errorf("invalid color %q: %w", name, err)
	}
	return c.Hex(), nil
}
