package cleanup

import (
	"time"

	"github.com/GatherLoop/gathersync/pkg/config"
)

// Config controls the background cleanup worker.
type Config struct {
	CleanupInterval  time.Duration
	VerboseReporting bool
}

// NewConfigFromEnv builds the worker config from environment defaults.
func NewConfigFromEnv() *Config {
	return &Config{
		CleanupInterval:  config.CleanupInterval,
		VerboseReporting: config.CleanupVerbose,
	}
}
