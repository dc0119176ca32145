package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/cardflip/internal/core"
	"github.com/vovakirdan/cardflip/internal/house"
	"github.com/vovakirdan/cardflip/internal/platform/tui"
)

var flagPlayer string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play at the table in this terminal",
	Long: `Open a house in this process and play at its table.

Blocks are sealed in the background every chain.block_interval. A bet placed
at block N can be revealed once block N+1 is sealed.

Controls:
  R / B        - Bet on red / black
  + / -        - Raise / lower the stake
  Enter        - Reveal the oldest ready bet
  A            - Reveal every ready bet
  F            - Faucet credit
  Tab          - Settlement history
  Q/Ctrl+C     - Quit

Examples:
  cardflip play
  cardflip play --player alice
  cardflip play --seed 42 --config ./house.yaml`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagPlayer, "player", "", "Player account (default: $USER)")
}

func runPlay(_ *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("play needs an interactive terminal")
	}

	// Get terminal size for the first frame
	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The alt screen owns the terminal, so the house logs nowhere.
	logger, _ := newLogger(nil)
	h, err := openHouse(cfg, logger, true)
	if err != nil {
		return err
	}
	defer h.Close()

	player := core.Account(flagPlayer)
	if player == "" {
		player = core.Account(os.Getenv("USER"))
	}
	if player == "" {
		player = "player"
	}
	if _, err := h.Faucet(player); err != nil && !errors.Is(err, house.ErrFaucetDisabled) {
		return err
	}

	h.Start()
	if err := tui.Run(h, player, width, height); err != nil {
		return fmt.Errorf("error running table: %w", err)
	}
	return nil
}
