package buildcmd

import (
	"fmt"
	"log/slog"

	"github.com/rsdtools/releaselink/internal/config"
	"github.com/rsdtools/releaselink/internal/logging"
)

// Env carries the global flags and the configuration loaded from them. The
// root command fills it before any subcommand runs.
type Env struct {
	ConfigPath string
	Verbose    bool
	LogFormat  string

	Config *config.Config
	// ConfigFile is the resolved config path; ConfigFound reports whether it existed.
	ConfigFile  string
	ConfigFound bool
}

// Load reads the configuration and installs the default logger.
func (e *Env) Load() error {
	cfg, path, found, err := config.Load(e.ConfigPath)
	if err != nil {
		return err
	}
	e.Config = cfg
	e.ConfigFile = path
	e.ConfigFound = found

	level := cfg.Logging.Level
	if e.Verbose {
		level = "debug"
	}
	format := cfg.Logging.Format
	if e.LogFormat != "" {
		format = e.LogFormat
	}
	logger, err := logging.New(logging.Options{Level: level, Format: format})
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	slog.SetDefault(logger)

	if found {
		slog.Debug("loaded config", "path", path)
	} else {
		slog.Debug("no config file found, using defaults", "path", path)
	}
	return nil
}

func (e *Env) config() (*config.Config, error) {
	if e.Config == nil {
		if err := e.Load(); err != nil {
			return nil, err
		}
	}
	return e.Config, nil
}
