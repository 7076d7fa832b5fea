package logging

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config describes logger runtime configuration.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Setup configures the standard logrus logger. debug forces the debug level.
func Setup(cfg Config, debug bool) error {
	level := log.InfoLevel
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return errors.Wrapf(err, "logging.level %q", cfg.Level)
		}
		level = parsed
	}
	if debug {
		level = log.DebugLevel
	}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return errors.Errorf("logging.format must be text or json, got %q", cfg.Format)
	}

	log.SetOutput(os.Stdout)
	log.SetLevel(level)
	log.Debug("Starting telegram bot...")
	return nil
}
