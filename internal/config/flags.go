package config

import (
	"flag"
	"strings"
)

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagData       = flag.String("data", "", "Comma-separated texture directories")
	flagPaintMode  = flag.String("paint-mode", "", "Paint mode: pressure or additive")
	flagBigAlpha   = flag.Bool("big-alpha", false, "Read and write 8-bit alpha maps")
	flagMetrics    = flag.String("metrics", "", "Serve Prometheus metrics on this address")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagData != "" {
		cfg.Data.TexturePaths = strings.Split(*flagData, ",")
	}
	if *flagPaintMode != "" {
		cfg.Editor.PaintMode = *flagPaintMode
	}
	if *flagBigAlpha {
		cfg.Editor.BigAlpha = true
	}
	if *flagMetrics != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *flagMetrics
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
}
