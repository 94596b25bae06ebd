// Package main is the entry point for the terrain editor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/editor"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/metrics"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logOpts := logger.Options{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON, Console: true}
	if cfg.Logging.LogFile != "" {
		logOpts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithOptions(logOpts); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Terrain ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	var m *metrics.Editor
	if cfg.Metrics.Enabled {
		m = metrics.New()
		m.StartHTTP(cfg.Metrics.Addr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := m.Shutdown(ctx); err != nil {
				logger.Warn("metrics shutdown", zap.Error(err))
			}
		}()
	}

	ed, err := editor.New(cfg, m)
	if err != nil {
		logger.Error("failed to create editor", zap.Error(err))
		os.Exit(1)
	}
	defer ed.Close()

	if path := flag.Arg(0); path != "" {
		if err := ed.Open(path); err != nil {
			logger.Error("failed to open tile", zap.Error(err))
		}
	}

	if err := ed.Run(); err != nil {
		logger.Error("editor error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("editor closed normally")
}
