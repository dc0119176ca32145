// cardflip runs a two-phase card flip house: players commit a stake on red or
// black at one block and reveal it against entropy sealed at the next.
//
// Usage:
//
//	cardflip play              - Play at the table in this terminal
//	cardflip serve             - Start SSH server for remote play
//	cardflip simulate          - Run bot players against a fresh house
//	cardflip history [player]  - Show settled games
//	cardflip payout <bet>      - Show what a winning bet pays
//	cardflip config            - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Configuration file (default: search order, then embedded)
//	--db <path>         - History database path (overrides storage.db_path)
//	--seed <value>      - Seed block entropy for reproducible sessions
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/cardflip/internal/config"
	"github.com/vovakirdan/cardflip/internal/house"
	"github.com/vovakirdan/cardflip/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagSeed     int64
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cardflip",
	Short: "Card Flip - bet on red or black against the house",
	Long: `Card Flip is a two-phase wagering game. A stake is committed on a
colour at one block; the card is drawn from entropy sealed at the next block,
so neither the player nor the house can know it when the bet is placed.
A winning bet pays 130% of the stake from the house treasury.

Available commands:
  play      - Play at the table in this terminal
  serve     - Start SSH server for remote play
  simulate  - Run bot players against a fresh house
  history   - Show settled games
  payout    - Show what a winning bet pays
  config    - Print the effective configuration

Examples:
  cardflip play
  cardflip serve --ssh :2323
  cardflip simulate --players 8 --rounds 500
  cardflip history ssh:alice
  cardflip payout 2.5`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to history database (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "Block entropy seed (0 = crypto/rand)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(payoutCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads the configuration and applies global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	return cfg, nil
}

// newLogger builds the process logger. A nil writer discards output.
func newLogger(w io.Writer) (*log.Logger, error) {
	if w == nil {
		return log.New(io.Discard), nil
	}
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "cardflip",
		Level:           level,
	}), nil
}

// openStore opens the history database, or returns nil when history is off.
func openStore(cfg config.Config) (*storage.Store, error) {
	if cfg.Storage.DBPath == "" {
		return nil, nil
	}
	return storage.Open(cfg.Storage.DBPath)
}

// openHouse builds a bootstrapped house. withHistory controls whether
// settlements are written to the history database.
func openHouse(cfg config.Config, logger *log.Logger, withHistory bool) (*house.House, error) {
	opts := []house.Option{house.WithLogger(logger)}
	if flagSeed != 0 {
		opts = append(opts, house.WithEntropySource(rand.New(rand.NewSource(flagSeed))))
	}
	var store *storage.Store
	if withHistory {
		var err error
		if store, err = openStore(cfg); err != nil {
			return nil, err
		}
		if store != nil {
			opts = append(opts, house.WithStore(store))
		}
	}

	h, err := house.New(cfg, opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return h, nil
}
