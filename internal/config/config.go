// Package config provides YAML-based configuration loading for the card flip
// house: table rules, bootstrap accounts, block production and the SSH front
// end.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/cardflip/internal/core"
)

// Config contains all configuration for a card flip house.
type Config struct {
	House   HouseConfig   `yaml:"house" envPrefix:"HOUSE_"`
	Game    GameConfig    `yaml:"game" envPrefix:"GAME_"`
	Chain   ChainConfig   `yaml:"chain" envPrefix:"CHAIN_"`
	Faucet  FaucetConfig  `yaml:"faucet" envPrefix:"FAUCET_"`
	SSH     SSHConfig     `yaml:"ssh" envPrefix:"SSH_"`
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
}

// HouseConfig defines the accounts created at bootstrap.
type HouseConfig struct {
	Owner           core.Account  `yaml:"owner" env:"OWNER"`
	TreasuryAccount core.Account  `yaml:"treasury_account" env:"TREASURY_ACCOUNT"`
	EngineIdentity  core.Identity `yaml:"engine_identity" env:"ENGINE_IDENTITY"`
	Bankroll        core.Amount   `yaml:"bankroll" env:"BANKROLL"` // Minted to the owner and deposited
}

// GameConfig defines the table rules.
type GameConfig struct {
	MinBet        core.Amount `yaml:"min_bet" env:"MIN_BET"`
	PayoutPercent uint64      `yaml:"payout_percent" env:"PAYOUT_PERCENT"`
	BetStep       core.Amount `yaml:"bet_step" env:"BET_STEP"`
}

// ChainConfig defines block production.
type ChainConfig struct {
	BlockInterval time.Duration `yaml:"block_interval" env:"BLOCK_INTERVAL"`
	EntropyCache  int           `yaml:"entropy_cache" env:"ENTROPY_CACHE"`
}

// FaucetConfig defines the free credit handed to players.
type FaucetConfig struct {
	Amount core.Amount `yaml:"amount" env:"AMOUNT"` // 0 disables the faucet
}

// SSHConfig defines the SSH front end.
type SSHConfig struct {
	Address     string        `yaml:"address" env:"ADDRESS"`
	HostKey     string        `yaml:"host_key" env:"HOST_KEY"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
}

// StorageConfig defines the history database.
type StorageConfig struct {
	DBPath string `yaml:"db_path" env:"DB_PATH"` // Empty disables history
}

// MaxPayoutPercent caps the win multiplier at 10x.
const MaxPayoutPercent = 1000

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if c.House.Owner == "" {
		errs = append(errs, errors.New("house.owner is required"))
	}
	if c.House.TreasuryAccount == "" {
		errs = append(errs, errors.New("house.treasury_account is required"))
	}
	if c.House.TreasuryAccount != "" && c.House.TreasuryAccount == c.House.Owner {
		errs = append(errs, errors.New("house.treasury_account must differ from house.owner"))
	}
	if c.House.EngineIdentity == "" {
		errs = append(errs, errors.New("house.engine_identity is required"))
	}
	if c.Game.MinBet == 0 {
		errs = append(errs, errors.New("game.min_bet must be positive"))
	}
	if c.Game.PayoutPercent < 100 || c.Game.PayoutPercent > MaxPayoutPercent {
		errs = append(errs, fmt.Errorf("game.payout_percent must be between 100 and %d, got %d",
			MaxPayoutPercent, c.Game.PayoutPercent))
	}
	if c.Chain.BlockInterval <= 0 {
		errs = append(errs, errors.New("chain.block_interval must be positive"))
	}
	if c.SSH.IdleTimeout < 0 {
		errs = append(errs, errors.New("ssh.idle_timeout must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %w", errors.Join(errs...))
	}
	return nil
}
