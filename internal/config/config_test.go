package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Editor defaults
	if cfg.Editor.PaintMode != "pressure" {
		t.Errorf("expected paint mode 'pressure', got %s", cfg.Editor.PaintMode)
	}
	if cfg.Editor.BrushShape != "linear" {
		t.Errorf("expected brush shape 'linear', got %s", cfg.Editor.BrushShape)
	}
	if cfg.Editor.BigAlpha {
		t.Error("expected big_alpha to be false by default")
	}
	if cfg.Editor.DetailSize != 8 {
		t.Errorf("expected detail size 8, got %d", cfg.Editor.DetailSize)
	}

	// Graphics defaults
	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	// History defaults
	if cfg.History.Depth != 64 {
		t.Errorf("expected history depth 64, got %d", cfg.History.Depth)
	}
	if cfg.History.ZstdLevel != 3 {
		t.Errorf("expected zstd level 3, got %d", cfg.History.ZstdLevel)
	}

	// Metrics and logging defaults
	if cfg.Metrics.Enabled {
		t.Error("expected metrics to be disabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
editor:
  paint_mode: additive
  brush_radius: 30
  brush_shape: cosine
  big_alpha: true
  euckr_names: true

graphics:
  width: 1920
  height: 1080
  draw_distance: 400

data:
  texture_paths: ["/srv/data", "./mods"]

history:
  depth: 16
  zstd_level: 9

metrics:
  enabled: true
  addr: ":9100"

logging:
  level: "debug"
  log_file: "editor.log"
  json: true
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Editor.PaintMode != "additive" {
		t.Errorf("expected paint mode 'additive', got %s", cfg.Editor.PaintMode)
	}
	if cfg.Editor.BrushRadius != 30 {
		t.Errorf("expected brush radius 30, got %v", cfg.Editor.BrushRadius)
	}
	if cfg.Editor.BrushHardness != 0.5 {
		t.Errorf("expected unset hardness to keep default 0.5, got %v", cfg.Editor.BrushHardness)
	}
	if !cfg.Editor.BigAlpha || !cfg.Editor.EUCKRNames {
		t.Error("expected big_alpha and euckr_names to be true")
	}
	if cfg.Graphics.DrawDistance != 400 {
		t.Errorf("expected draw distance 400, got %v", cfg.Graphics.DrawDistance)
	}
	if len(cfg.Data.TexturePaths) != 2 || cfg.Data.TexturePaths[1] != "./mods" {
		t.Errorf("unexpected texture paths %v", cfg.Data.TexturePaths)
	}
	if cfg.History.Depth != 16 || cfg.History.ZstdLevel != 9 {
		t.Errorf("unexpected history config %+v", cfg.History)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9100" {
		t.Errorf("unexpected metrics config %+v", cfg.Metrics)
	}
	if cfg.Logging.LogFile != "editor.log" || !cfg.Logging.JSON {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"paint mode", func(c *Config) { c.Editor.PaintMode = "spray" }},
		{"brush shape", func(c *Config) { c.Editor.BrushShape = "star" }},
		{"radius", func(c *Config) { c.Editor.BrushRadius = -1 }},
		{"strength", func(c *Config) { c.Editor.Strength = 2 }},
		{"pressure", func(c *Config) { c.Editor.Pressure = -0.1 }},
		{"detail size", func(c *Config) { c.Editor.DetailSize = 0 }},
		{"history depth", func(c *Config) { c.History.Depth = 0 }},
		{"zstd level", func(c *Config) { c.History.ZstdLevel = 23 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("config.yaml", []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "data flag",
			setup: func() { *flagData = "a,b" },
			verify: func(t *testing.T, cfg *Config) {
				if len(cfg.Data.TexturePaths) != 2 || cfg.Data.TexturePaths[0] != "a" {
					t.Errorf("expected texture paths [a b], got %v", cfg.Data.TexturePaths)
				}
			},
			teardown: func() { *flagData = "" },
		},
		{
			name:  "paint mode and big alpha flags",
			setup: func() { *flagPaintMode = "additive"; *flagBigAlpha = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Editor.PaintMode != "additive" {
					t.Errorf("expected paint mode 'additive', got %s", cfg.Editor.PaintMode)
				}
				if !cfg.Editor.BigAlpha {
					t.Error("expected big alpha to be enabled")
				}
			},
			teardown: func() { *flagPaintMode = ""; *flagBigAlpha = false },
		},
		{
			name:  "metrics flag",
			setup: func() { *flagMetrics = ":2112" },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":2112" {
					t.Errorf("unexpected metrics config %+v", cfg.Metrics)
				}
			},
			teardown: func() { *flagMetrics = "" },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name:  "width and height flags",
			setup: func() { *flagWidth = 2560; *flagHeight = 1440 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() { *flagWidth = 0; *flagHeight = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
editor:
  paint_mode: additive
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	// Height should be from file (900) since no flag override
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
	if cfg.Editor.PaintMode != "additive" {
		t.Errorf("expected paint mode from file, got %s", cfg.Editor.PaintMode)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("editor:\n  paint_mode: spray\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject an invalid paint mode")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Editor.PaintMode = "additive"
	cfg.History.Depth = 5
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if loaded.Editor.PaintMode != "additive" || loaded.History.Depth != 5 {
		t.Errorf("round trip lost values: %+v %+v", loaded.Editor, loaded.History)
	}
}

func TestSaveToWritesHeaderAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := Default().SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	if !strings.HasPrefix(string(data), fileHeader) {
		t.Errorf("saved config does not start with the header: %q", data[:min(len(data), 40)])
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only config.yaml in %s, found %d entries", dir, len(entries))
	}
}

func TestUpdateKeepsFlagOverridesOut(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 1600\neditor:\n  brush_radius: 10\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path() != configPath {
		t.Errorf("Path() = %s, want %s", cfg.Path(), configPath)
	}

	err = cfg.Update(func(c *Config) {
		c.Editor.BrushRadius = 42
		c.Editor.BrushShape = "cosine"
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	saved := Default()
	if err := loadFromFile(saved, configPath); err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if saved.Editor.BrushRadius != 42 || saved.Editor.BrushShape != "cosine" {
		t.Errorf("update lost: %+v", saved.Editor)
	}
	if saved.Graphics.Width != 1600 {
		t.Errorf("width = %d, want the file's 1600, not the flag", saved.Graphics.Width)
	}
	if cfg.Editor.BrushRadius != 10 {
		t.Errorf("in-memory config changed: radius %v", cfg.Editor.BrushRadius)
	}
}

func TestUpdateCreatesMissingFile(t *testing.T) {
	cfg := Default()
	cfg.source = filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := cfg.Update(func(c *Config) { c.Editor.Strength = 0.5 }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	saved := Default()
	if err := loadFromFile(saved, cfg.source); err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if saved.Editor.Strength != 0.5 {
		t.Errorf("strength = %v, want 0.5", saved.Editor.Strength)
	}
}

func TestUpdateRejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.source = filepath.Join(t.TempDir(), "config.yaml")

	if err := cfg.Update(func(c *Config) { c.Editor.PaintMode = "spray" }); err == nil {
		t.Error("expected Update to reject an invalid paint mode")
	}
	if _, err := os.Stat(cfg.source); !os.IsNotExist(err) {
		t.Errorf("invalid config was written: %v", err)
	}
}

func TestPathDefaultsToConfigDir(t *testing.T) {
	if got, want := Default().Path(), filepath.Join(ConfigDir(), "config.yaml"); got != want {
		t.Errorf("Path() = %s, want %s", got, want)
	}
}
