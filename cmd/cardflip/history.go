package main

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/cardflip/internal/core"
	"github.com/vovakirdan/cardflip/internal/storage"
)

var (
	flagHistoryLimit    int
	flagHistoryTreasury bool
)

var historyCmd = &cobra.Command{
	Use:   "history [player]",
	Short: "Show settled games",
	Long: `Display settled games from the history database, newest first.

With a player account, lists that player's games and their totals.
Without one, lists the most recent games of every player and the house totals.

Examples:
  cardflip history
  cardflip history ssh:alice --limit 50
  cardflip history --treasury`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Maximum rows to show")
	historyCmd.Flags().BoolVar(&flagHistoryTreasury, "treasury", false, "Show treasury movements instead of games")
}

func runHistory(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("error opening history database: %w", err)
	}
	if store == nil {
		return errors.New("history is disabled: set storage.db_path or pass --db")
	}
	defer store.Close()

	if flagHistoryTreasury {
		return printTreasuryEvents(store)
	}
	if len(args) == 1 {
		return printPlayerHistory(store, core.Account(args[0]))
	}
	return printRecent(store)
}

func printPlayerHistory(store *storage.Store, player core.Account) error {
	entries, err := store.PlayerHistory(player, flagHistoryLimit)
	if err != nil {
		return err
	}
	pterm.DefaultSection.Printfln("Games - %s", player)
	if len(entries) == 0 {
		pterm.Info.Println("No settled games yet.")
		return nil
	}
	if err := renderSettlements(entries); err != nil {
		return err
	}

	stats, err := store.GetPlayerStats(player)
	if err != nil {
		return err
	}
	pterm.Println()
	pterm.Info.Printfln("%d games, %d wins, wagered %s, paid out %s",
		stats.GamesCount, stats.Wins, stats.Wagered.Format(), stats.PaidOut.Format())
	if stats.Net() >= 0 {
		pterm.Success.Printfln("Net +%s", core.Amount(stats.Net()).Format())
	} else {
		pterm.Warning.Printfln("Net -%s", core.Amount(-stats.Net()).Format())
	}
	return nil
}

func printRecent(store *storage.Store) error {
	entries, err := store.RecentSettlements(flagHistoryLimit)
	if err != nil {
		return err
	}
	pterm.DefaultSection.Println("Recent games")
	if len(entries) == 0 {
		pterm.Info.Println("No settled games yet. Run 'cardflip play' to place the first bet!")
		return nil
	}
	if err := renderSettlements(entries); err != nil {
		return err
	}

	stats, err := store.GetHouseStats()
	if err != nil {
		return err
	}
	pterm.Println()
	pterm.Info.Printfln("%d players, %d games, %d wins, wagered %s, paid out %s, deposited %s",
		stats.Players, stats.Settled, stats.Wins, stats.Wagered.Format(), stats.PaidOut.Format(), stats.Deposits.Format())
	return nil
}

func renderSettlements(entries []storage.SettlementEntry) error {
	data := pterm.TableData{{"Date", "Player", "Game", "Bet", "Pick", "Drawn", "Result", "Payout"}}
	for _, e := range entries {
		result := pterm.Red(e.Outcome.String())
		if e.Outcome == core.Win {
			result = pterm.Green(e.Outcome.String())
		}
		data = append(data, []string{
			e.CreatedAt.Format("2006-01-02 15:04"),
			string(e.Player),
			fmt.Sprintf("#%d", e.GameID),
			e.BetAmount.Format(),
			e.Choice.String(),
			e.Drawn.String(),
			result,
			e.Payout.Format(),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printTreasuryEvents(store *storage.Store) error {
	events, err := store.TreasuryEvents(flagHistoryLimit)
	if err != nil {
		return err
	}
	pterm.DefaultSection.Println("Treasury movements")
	if len(events) == 0 {
		pterm.Info.Println("No treasury movements yet.")
		return nil
	}
	data := pterm.TableData{{"Date", "Kind", "Account", "Amount", "Block"}}
	for _, e := range events {
		data = append(data, []string{
			e.CreatedAt.Format("2006-01-02 15:04"),
			string(e.Kind),
			string(e.Account),
			e.Amount.Format(),
			fmt.Sprintf("%d", e.Height),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
