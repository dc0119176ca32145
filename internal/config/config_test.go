package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/cardflip/internal/core"
)

// isolate points HOME at an empty directory so the user config is never read.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestDefaultMatchesBuiltin(t *testing.T) {
	assert.Equal(t, builtinDefaults(), Default())
	require.NoError(t, Default().Validate())
}

func TestLoadEmbeddedDefault(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, core.Amount(1_000_000), cfg.Game.MinBet)
	assert.Equal(t, uint64(130), cfg.Game.PayoutPercent)
	assert.Equal(t, 2*time.Second, cfg.Chain.BlockInterval)
	assert.Equal(t, "embedded", Source(""))
}

func TestLoadCustomPathPartialFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  min_bet: 5000000\n  payout_percent: 150\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, core.Amount(5_000_000), cfg.Game.MinBet)
	assert.Equal(t, uint64(150), cfg.Game.PayoutPercent)
	// Untouched keys keep their defaults
	assert.Equal(t, core.Account("house-owner"), cfg.House.Owner)
	assert.Equal(t, ":2323", cfg.SSH.Address)
}

func TestLoadUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".cardflip")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("faucet:\n  amount: 0\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Zero(t, cfg.Faucet.Amount)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), Source(""))
}

func TestLoadMissingCustomPath(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedCustomPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game: [1, 2"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CARDFLIP_GAME_MIN_BET", "2000000")
	t.Setenv("CARDFLIP_HOUSE_OWNER", "alice")
	t.Setenv("CARDFLIP_CHAIN_BLOCK_INTERVAL", "500ms")
	t.Setenv("CARDFLIP_STORAGE_DB_PATH", "/tmp/x.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, core.Amount(2_000_000), cfg.Game.MinBet)
	assert.Equal(t, core.Account("alice"), cfg.House.Owner)
	assert.Equal(t, 500*time.Millisecond, cfg.Chain.BlockInterval)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.DBPath)
	// Unset variables leave values alone
	assert.Equal(t, uint64(130), cfg.Game.PayoutPercent)
}

func TestLoadEnvBadValue(t *testing.T) {
	isolate(t)
	t.Setenv("CARDFLIP_GAME_PAYOUT_PERCENT", "lots")

	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing owner", func(c *Config) { c.House.Owner = "" }},
		{"missing treasury", func(c *Config) { c.House.TreasuryAccount = "" }},
		{"treasury is owner", func(c *Config) { c.House.TreasuryAccount = c.House.Owner }},
		{"missing engine", func(c *Config) { c.House.EngineIdentity = "" }},
		{"zero min bet", func(c *Config) { c.Game.MinBet = 0 }},
		{"payout below stake", func(c *Config) { c.Game.PayoutPercent = 99 }},
		{"payout too high", func(c *Config) { c.Game.PayoutPercent = MaxPayoutPercent + 1 }},
		{"zero block interval", func(c *Config) { c.Chain.BlockInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".cardflip", "h.db"), ExpandHome("~/.cardflip/h.db"))
	assert.Equal(t, "/abs/h.db", ExpandHome("/abs/h.db"))
	assert.Equal(t, "", ExpandHome(""))
}
