package house

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/vovakirdan/cardflip/internal/core"
)

// SimulationOptions controls Simulate.
type SimulationOptions struct {
	Players int
	Rounds  int
	Bet     core.Amount // Zero means the minimum bet
	Seed    int64
}

// SimulationReport summarises a simulation run.
type SimulationReport struct {
	Games   int
	Wins    int
	Losses  int
	Pending int // Still open at the end, e.g. the pool could not pay

	Wagered core.Amount
	PaidOut core.Amount

	TreasuryBefore core.Amount
	TreasuryAfter  core.Amount

	// Refused counts rejected operations by error code.
	Refused map[uint32]int
}

// HouseEdge returns the share of the wagered volume the house kept.
func (r SimulationReport) HouseEdge() float64 {
	if r.Wagered == 0 {
		return 0
	}
	return (float64(r.Wagered) - float64(r.PaidOut)) / float64(r.Wagered)
}

// Simulate plays opts.Rounds rounds for opts.Players funded bot players. Each
// round every bot stakes opts.Bet on a random colour, one block is sealed,
// and every open game is revealed.
func (h *House) Simulate(ctx context.Context, opts SimulationOptions) (SimulationReport, error) {
	if opts.Players <= 0 || opts.Rounds <= 0 {
		return SimulationReport{}, fmt.Errorf("house: simulate needs players and rounds, got %d and %d",
			opts.Players, opts.Rounds)
	}
	if opts.Bet == 0 {
		opts.Bet = h.MinBet()
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	report := SimulationReport{
		TreasuryBefore: h.TreasuryBalance(),
		Refused:        make(map[uint32]int),
	}
	refuse := func(err error) {
		report.Refused[core.CodeOf(err)]++
	}

	players := make([]core.Account, opts.Players)
	for i := range players {
		players[i] = core.Account(fmt.Sprintf("sim-%d-%d", opts.Seed, i))
		if err := h.chain.Mint(players[i], opts.Bet*core.Amount(opts.Rounds)); err != nil {
			return report, fmt.Errorf("house: fund %s: %w", players[i], err)
		}
	}

	for round := 0; round < opts.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		for _, p := range players {
			if _, err := h.StartGame(p, opts.Bet, uint8(rng.Intn(2))); err != nil {
				refuse(err)
				continue
			}
			report.Games++
			report.Wagered += opts.Bet
		}

		if _, err := h.Advance(); err != nil {
			return report, err
		}

		for _, p := range players {
			for _, g := range h.OpenGames(p) {
				outcome, err := h.RevealAndSettle(p, g.ID)
				if err != nil {
					refuse(err)
					continue
				}
				if outcome == core.Win {
					report.Wins++
					report.PaidOut += h.CalculatePayout(g.BetAmount)
				} else {
					report.Losses++
				}
			}
		}
	}

	for _, p := range players {
		report.Pending += len(h.OpenGames(p))
	}
	report.TreasuryAfter = h.TreasuryBalance()
	return report, nil
}
