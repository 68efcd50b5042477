package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/soocke/reel-bot-go/app"
	"github.com/soocke/reel-bot-go/config"
	"github.com/soocke/reel-bot-go/debug"
)

func main() {
	cfgPath := config.DefaultPath()
	cfg, err := config.Load(cfgPath)

	var loglevel slog.Level
	if cfg.Debug {
		loglevel = slog.LevelDebug
	} else {
		loglevel = slog.LevelInfo
	}
	logger := NewLogger(loglevel)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			logger.Info("no config file; using defaults", "path", cfgPath)
		} else {
			logger.Warn("config load failed; using defaults", "path", cfgPath, "error", err)
		}
	}

	if cfg.Debug {
		debug.StartGoroutineLogger(5*time.Second, logger)
		debug.StartMemLogger(5*time.Second, logger)
	}

	application, err := app.NewApp("Reel Bot", 480, 280, cfg, logger, cfgPath)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	if err := application.Run(); err != nil {
		logger.Error("application terminated with error", "error", err)
		os.Exit(1)
	}
}
