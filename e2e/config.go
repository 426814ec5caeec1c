package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogLevel string `envconfig:"E2E_LOG_LEVEL" default:"WARN"`
	// E2E_DEBUG_JSON dumps every directory request and response as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized step headers
	Colours     bool          `envconfig:"E2E_COLOURS" default:"true"`
	StepTimeout time.Duration `envconfig:"E2E_STEP_TIMEOUT" default:"10s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
