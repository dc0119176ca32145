package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override, e.g. CARDFLIP_GAME_MIN_BET.
const EnvPrefix = "CARDFLIP_"

// ApplyEnv overrides cfg with any CARDFLIP_* variables that are set.
// Unset variables leave the loaded values untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}
