package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/cardflip/internal/core"
)

var payoutCmd = &cobra.Command{
	Use:   "payout <bet>",
	Short: "Show what a winning bet pays",
	Long: `Print the payout of a winning bet under the configured payout
percentage. The bet is given in coins with up to six decimals; the payout is
truncated to whole micro-units.

Examples:
  cardflip payout 1
  cardflip payout 2.5
  cardflip payout 0.000099`,
	Args: cobra.ExactArgs(1),
	RunE: runPayout,
}

func runPayout(_ *cobra.Command, args []string) error {
	bet, err := core.ParseAmount(args[0])
	if err != nil {
		return fmt.Errorf("invalid bet %q: %w", args[0], err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, _ := newLogger(nil)
	h, err := openHouse(cfg, logger, false)
	if err != nil {
		return err
	}
	defer h.Close()

	payout := h.CalculatePayout(bet)
	data := pterm.TableData{
		{"Bet", "Payout", "Profit", "Min bet"},
		{bet.Format(), payout.Format(), (payout - bet).Format(), h.MinBet().Format()},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	if bet < h.MinBet() {
		pterm.Warning.Printfln("A bet of %s is below the minimum and would be refused (code %d).",
			bet.Format(), core.ErrBelowMinimum.Code)
	}
	return nil
}
