package app

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/raysh454/surfaudit/internal/analyzer"
	"github.com/raysh454/surfaudit/internal/logging"
	"github.com/raysh454/surfaudit/internal/webclient"
)

// EnvPrefix prefixes every environment variable read by Load,
// e.g. SURFAUDIT_WEBCLIENT_BACKEND.
const EnvPrefix = "SURFAUDIT"

// Config is the runtime configuration shared by the binaries.
type Config struct {
	Log       logging.Config   `envconfig:"LOG"`
	WebClient webclient.Config `envconfig:"WEBCLIENT"`
	Extract   analyzer.Options `envconfig:"EXTRACT"`

	// JobRetentionTime is how long finished jobs stay queryable.
	JobRetentionTime time.Duration `envconfig:"JOB_RETENTION" default:"10m"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Log:              logging.Config{Level: "info"},
		WebClient:        webclient.DefaultConfig(),
		Extract:          analyzer.AllOptions(),
		JobRetentionTime: 10 * time.Minute,
	}
}

// Load reads envFile when it exists and then the process environment.
// Variables already set in the environment win over the file. An empty
// envFile skips the file step.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return cfg, nil
}
