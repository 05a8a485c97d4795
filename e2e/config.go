package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_DEBUG_JSON dumps the stored payloads of a channel as JSON after each scenario
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours         bool          `envconfig:"E2E_COLOURS" default:"true"`
	RestartInterval time.Duration `envconfig:"E2E_RESTART_INTERVAL" default:"10ms"`
	DeliveryTimeout time.Duration `envconfig:"E2E_DELIVERY_TIMEOUT" default:"3s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
