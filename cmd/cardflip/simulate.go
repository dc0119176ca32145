package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/cardflip/internal/core"
	"github.com/vovakirdan/cardflip/internal/house"
)

var (
	flagSimPlayers int
	flagSimRounds  int
	flagSimBet     string
	flagSimRecord  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run bot players against a fresh house",
	Long: `Play many rounds with funded bot players and report how the treasury
fared. Each round every bot stakes the bet on a random colour, one block is
sealed, and every open game is revealed.

The bots' colour picks follow --seed; block entropy is random unless --seed
is given, in which case whole runs are reproducible.

Examples:
  cardflip simulate
  cardflip simulate --players 8 --rounds 500 --bet 2.5
  cardflip simulate --seed 7 --record`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&flagSimPlayers, "players", 4, "Number of bot players")
	simulateCmd.Flags().IntVar(&flagSimRounds, "rounds", 100, "Rounds to play")
	simulateCmd.Flags().StringVar(&flagSimBet, "bet", "", "Stake per game in coins (default: minimum bet)")
	simulateCmd.Flags().BoolVar(&flagSimRecord, "record", false, "Write settlements to the history database")
}

func runSimulate(_ *cobra.Command, _ []string) error {
	var bet core.Amount
	if flagSimBet != "" {
		parsed, err := core.ParseAmount(flagSimBet)
		if err != nil {
			return fmt.Errorf("invalid --bet: %w", err)
		}
		bet = parsed
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	h, err := openHouse(cfg, logger, flagSimRecord)
	if err != nil {
		return err
	}
	defer h.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Playing %d rounds with %d bots...", flagSimRounds, flagSimPlayers))
	report, err := h.Simulate(ctx, house.SimulationOptions{
		Players: flagSimPlayers,
		Rounds:  flagSimRounds,
		Bet:     bet,
		Seed:    flagSeed,
	})
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success("Simulation finished")

	printReport(report)
	return nil
}

func printReport(r house.SimulationReport) {
	pterm.DefaultSection.Println("Results")
	data := pterm.TableData{
		{"Metric", "Value"},
		{"Games", fmt.Sprintf("%d", r.Games)},
		{"Wins", fmt.Sprintf("%d", r.Wins)},
		{"Losses", fmt.Sprintf("%d", r.Losses)},
		{"Pending", fmt.Sprintf("%d", r.Pending)},
		{"Wagered", r.Wagered.Format()},
		{"Paid out", r.PaidOut.Format()},
		{"Treasury before", r.TreasuryBefore.Format()},
		{"Treasury after", r.TreasuryAfter.Format()},
		{"House edge", fmt.Sprintf("%.2f%%", r.HouseEdge()*100)},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Println(err)
	}

	if len(r.Refused) == 0 {
		return
	}

	codes := make([]uint32, 0, len(r.Refused))
	for code := range r.Refused {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	pterm.DefaultSection.Println("Refusals")
	refusals := pterm.TableData{{"Code", "Reason", "Count"}}
	for _, code := range codes {
		reason := "infrastructure"
		if e, ok := core.Lookup(code); ok {
			reason = e.Error()
		}
		refusals = append(refusals, []string{fmt.Sprintf("%d", code), reason, fmt.Sprintf("%d", r.Refused[code])})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(refusals).Render(); err != nil {
		pterm.Error.Println(err)
	}
}
