package app

import (
	"io"
	"log/slog"

	"github.com/qforge-dev/qforge/internal/config"
)

// App encapsulates the toolchain's dependencies, configuration and
// lifecycle: load, compile, lower, dispatch, parse.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader config.Loader
}

// NewApp builds the application with its own isolated logger.
func NewApp(outW io.Writer, errW io.Writer, cfg *Config, loader config.Loader) *App {
	return &App{
		outW:   outW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, errW),
		config: cfg,
		loader: loader,
	}
}
