package config

import (
	_ "embed"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/cardflip.yaml
var defaultYAML []byte

// Default returns the embedded default configuration.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return builtinDefaults() // Fallback to hardcoded if embed fails
	}
	return cfg
}

// DefaultYAML returns the embedded default YAML.
func DefaultYAML() []byte {
	return defaultYAML
}

func builtinDefaults() Config {
	return Config{
		House: HouseConfig{
			Owner:           "house-owner",
			TreasuryAccount: "treasury",
			EngineIdentity:  "card-flip",
			Bankroll:        1_000_000_000,
		},
		Game: GameConfig{
			MinBet:        1_000_000,
			PayoutPercent: 130,
			BetStep:       1_000_000,
		},
		Chain: ChainConfig{
			BlockInterval: 2 * time.Second,
			EntropyCache:  1024,
		},
		Faucet: FaucetConfig{
			Amount: 25_000_000,
		},
		SSH: SSHConfig{
			Address:     ":2323",
			HostKey:     "~/.cardflip/ssh_host_ed25519",
			IdleTimeout: 10 * time.Minute,
		},
		Storage: StorageConfig{
			DBPath: "~/.cardflip/history.db",
		},
	}
}
