// Package config handles editor configuration loading and management.
package config

import (
	"fmt"
	"slices"
)

// Config holds all editor settings.
type Config struct {
	Editor   EditorConfig   `yaml:"editor"`
	Graphics GraphicsConfig `yaml:"graphics"`
	Data     DataConfig     `yaml:"data"`
	Logging  LoggingConfig  `yaml:"logging"`
	History  HistoryConfig  `yaml:"history"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// source is the file Load read, if any.
	source string
}

// EditorConfig holds brush and terrain file settings.
type EditorConfig struct {
	PaintMode     string  `yaml:"paint_mode"`     // "pressure" or "additive"
	BrushRadius   float32 `yaml:"brush_radius"`   // World units
	BrushHardness float32 `yaml:"brush_hardness"` // Inner/outer radius ratio
	BrushShape    string  `yaml:"brush_shape"`    // flat, linear, smooth, quadratic, cosine, block
	Strength      float32 `yaml:"strength"`       // Paint target coverage, 0..1
	Pressure      float32 `yaml:"pressure"`       // Paint pressure, 0..1
	BigAlpha      bool    `yaml:"big_alpha"`      // 8-bit uncompressed alpha maps
	EUCKRNames    bool    `yaml:"euckr_names"`    // Texture names stored as EUC-KR
	DetailSize    int     `yaml:"detail_size"`    // Texture repeats per chunk
}

// DataConfig holds data file locations.
type DataConfig struct {
	TexturePaths []string `yaml:"texture_paths"` // Directories searched for textures
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Fullscreen   bool    `yaml:"fullscreen"`
	VSync        bool    `yaml:"vsync"`
	FPSLimit     int     `yaml:"fps_limit"`
	DrawDistance float32 `yaml:"draw_distance"` // Beyond this, chunks use the low-detail strip
	Anisotropy   float32 `yaml:"anisotropy"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// HistoryConfig holds undo settings.
type HistoryConfig struct {
	Depth     int `yaml:"depth"`      // Undo entries kept
	ZstdLevel int `yaml:"zstd_level"` // 1 fastest .. 22 smallest
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			PaintMode:     "pressure",
			BrushRadius:   15,
			BrushHardness: 0.5,
			BrushShape:    "linear",
			Strength:      1,
			Pressure:      0.9,
			BigAlpha:      false,
			EUCKRNames:    false,
			DetailSize:    8,
		},
		Graphics: GraphicsConfig{
			Width:        1280,
			Height:       720,
			Fullscreen:   false,
			VSync:        true,
			FPSLimit:     0,
			DrawDistance: 250,
			Anisotropy:   4,
		},
		Data: DataConfig{
			TexturePaths: []string{"data"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		History: HistoryConfig{
			Depth:     64,
			ZstdLevel: 3,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
	}
}

var (
	paintModes  = []string{"pressure", "additive"}
	brushShapes = []string{"flat", "linear", "smooth", "quadratic", "cosine", "block"}
)

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	e := c.Editor
	switch {
	case !slices.Contains(paintModes, e.PaintMode):
		return fmt.Errorf("editor.paint_mode: unknown mode %q", e.PaintMode)
	case !slices.Contains(brushShapes, e.BrushShape):
		return fmt.Errorf("editor.brush_shape: unknown shape %q", e.BrushShape)
	case e.BrushRadius < 0:
		return fmt.Errorf("editor.brush_radius: must not be negative, got %v", e.BrushRadius)
	case e.Strength < 0 || e.Strength > 1:
		return fmt.Errorf("editor.strength: must be in [0, 1], got %v", e.Strength)
	case e.Pressure < 0 || e.Pressure > 1:
		return fmt.Errorf("editor.pressure: must be in [0, 1], got %v", e.Pressure)
	case e.DetailSize < 1:
		return fmt.Errorf("editor.detail_size: must be positive, got %d", e.DetailSize)
	case c.History.Depth < 1:
		return fmt.Errorf("history.depth: must be positive, got %d", c.History.Depth)
	case c.History.ZstdLevel < 1 || c.History.ZstdLevel > 22:
		return fmt.Errorf("history.zstd_level: must be in [1, 22], got %d", c.History.ZstdLevel)
	}
	return nil
}
