// Package game implements the card flip state machine: a stake is committed
// at one chain height and revealed against entropy sealed at a later height.
// Every game goes Open -> Settled exactly once.
package game

import (
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/cardflip/internal/chain"
	"github.com/vovakirdan/cardflip/internal/core"
	"github.com/vovakirdan/cardflip/internal/randomness"
)

// Bank is the part of the treasury the engine uses.
type Bank interface {
	Deposit(tx *chain.Tx, amount core.Amount) error
	Payout(tx *chain.Tx, to core.Account, amount core.Amount, caller core.Identity) error
	RecordGameStart(tx *chain.Tx, wager core.Amount, caller core.Identity) error
}

// Drawer produces the card colour for a game committed at commitIndex.
type Drawer interface {
	DeriveOutcome(tx *chain.Tx, commitIndex uint64) (core.Choice, error)
}

// Engine owns the per-player game table.
type Engine struct {
	chain    *chain.Chain
	bank     Bank
	drawer   Drawer
	cfg      Config
	recorder SettlementRecorder // Optional, can be nil
	logger   *log.Logger

	games map[core.Account][]*Game // index == GameID

	// longest is the highest game count of any player. Since ids are
	// sequential per player, some player owns id n exactly when n < longest.
	longest uint64
}

// NewEngine creates an engine with an empty game table.
// Zero MinBet and PayoutPercent take the defaults.
func NewEngine(c *chain.Chain, bank Bank, drawer Drawer, cfg Config, logger *log.Logger) *Engine {
	if cfg.MinBet == 0 {
		cfg.MinBet = DefaultMinBet
	}
	if cfg.PayoutPercent == 0 {
		cfg.PayoutPercent = DefaultPayoutPercent
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		chain:  c,
		bank:   bank,
		drawer: drawer,
		cfg:    cfg,
		logger: logger.WithPrefix("game"),
		games:  make(map[core.Account][]*Game),
	}
}

// SetRecorder sets the optional settlement recorder.
func (e *Engine) SetRecorder(r SettlementRecorder) {
	e.recorder = r
}

// Identity returns the contract identity the engine presents to the treasury.
func (e *Engine) Identity() core.Identity {
	return e.cfg.Identity
}

// MinBet returns the smallest accepted stake.
func (e *Engine) MinBet() core.Amount {
	return e.cfg.MinBet
}

// SetTreasury rebinds the engine to another treasury. Owner only.
func (e *Engine) SetTreasury(tx *chain.Tx, bank Bank) error {
	if tx.Sender() != e.cfg.Owner {
		return core.ErrNotOwner
	}
	prev := e.bank
	e.bank = bank
	tx.OnRevert(func() { e.bank = prev })
	return nil
}

// StartGame commits the sender's stake on a colour and returns the new
// per-player game id. The stake is escrowed in the treasury and the game
// counters are bumped in the same transaction.
func (e *Engine) StartGame(tx *chain.Tx, betAmount core.Amount, choice uint8) (core.GameID, error) {
	if betAmount < e.cfg.MinBet {
		return 0, core.ErrBelowMinimum
	}
	c, err := core.ParseChoice(choice)
	if err != nil {
		return 0, err
	}

	if err := e.bank.Deposit(tx, betAmount); err != nil {
		return 0, err
	}
	if err := e.bank.RecordGameStart(tx, betAmount, e.cfg.Identity); err != nil {
		return 0, err
	}

	player := tx.Sender()
	id := core.GameID(len(e.games[player]))
	g := &Game{
		ID:          id,
		Player:      player,
		BetAmount:   betAmount,
		Choice:      c,
		CommitIndex: tx.Height(),
		Status:      core.StatusOpen,
	}
	e.games[player] = append(e.games[player], g)

	prevLongest := e.longest
	if n := uint64(len(e.games[player])); n > e.longest {
		e.longest = n
	}
	tx.OnRevert(func() {
		e.games[player] = e.games[player][:id]
		if id == 0 {
			delete(e.games, player)
		}
		e.longest = prevLongest
	})

	e.logger.Debug("game started",
		"player", player,
		"game", id,
		"bet", betAmount,
		"choice", c,
		"commit", g.CommitIndex,
	)
	return id, nil
}

// PlayGame is StartGame returning a receipt instead of the bare id.
func (e *Engine) PlayGame(tx *chain.Tx, betAmount core.Amount, choice uint8) (Receipt, error) {
	id, err := e.StartGame(tx, betAmount, choice)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{
		GameID:          id,
		Player:          tx.Sender(),
		BetAmount:       betAmount,
		Choice:          core.Choice(choice),
		CommitIndex:     tx.Height(),
		RevealableAt:    tx.Height() + 1,
		PotentialPayout: e.CalculatePayout(betAmount),
	}, nil
}

// RevealAndSettle draws the card for one of the sender's games and settles
// it: on a win the treasury pays CalculatePayout(bet) to the player, on a
// loss the stake stays in the pool. A game settles at most once.
func (e *Engine) RevealAndSettle(tx *chain.Tx, gameID core.GameID) (core.Outcome, error) {
	caller := tx.Sender()
	games := e.games[caller]
	if uint64(gameID) >= uint64(len(games)) {
		if uint64(gameID) < e.longest {
			return core.OutcomeNone, core.ErrNotPlayer
		}
		return core.OutcomeNone, core.ErrNotFound
	}
	g := games[gameID]

	if tx.Height() <= g.CommitIndex {
		return core.OutcomeNone, core.ErrTooEarly
	}
	if g.Status != core.StatusOpen {
		return core.OutcomeNone, core.ErrAlreadySettled
	}

	drawn, err := e.drawer.DeriveOutcome(tx, g.CommitIndex)
	if err != nil {
		return core.OutcomeNone, err
	}

	outcome := core.Loss
	var payout core.Amount
	if drawn == g.Choice {
		outcome = core.Win
		payout = e.CalculatePayout(g.BetAmount)
		if err := e.bank.Payout(tx, g.Player, payout, e.cfg.Identity); err != nil {
			return core.OutcomeNone, err
		}
	}

	prev := *g
	g.Status = core.StatusSettled
	g.Outcome = outcome
	g.Drawn = drawn
	g.Payout = payout
	g.RevealIndex = tx.Height()
	g.RuleVersion = randomness.RuleVersion
	tx.OnRevert(func() { *g = prev })

	settled := *g
	txID := tx.ID()
	tx.OnCommit(func() {
		e.logger.Info("game settled",
			"player", settled.Player,
			"game", settled.ID,
			"drawn", settled.Drawn,
			"outcome", settled.Outcome,
			"payout", settled.Payout,
		)
		if e.recorder == nil {
			return
		}
		if err := e.recorder.RecordSettlement(Settlement{TxID: txID, Game: settled}); err != nil {
			e.logger.Warn("could not record settlement", "game", settled.ID, "error", err)
		}
	})
	return outcome, nil
}

// CalculatePayout returns bet * PayoutPercent / 100, truncated.
// Split into quotient and remainder so large bets do not overflow.
func (e *Engine) CalculatePayout(bet core.Amount) core.Amount {
	pct := core.Amount(e.cfg.PayoutPercent)
	return bet/100*pct + bet%100*pct/100
}

// PlayerGames returns every game id ever created for player, in order.
func (e *Engine) PlayerGames(player core.Account) []core.GameID {
	var ids []core.GameID
	e.chain.View(func() {
		ids = make([]core.GameID, len(e.games[player]))
		for i := range e.games[player] {
			ids[i] = core.GameID(i)
		}
	})
	return ids
}

// Game returns a copy of one game.
func (e *Engine) Game(player core.Account, id core.GameID) (Game, bool) {
	var (
		g  Game
		ok bool
	)
	e.chain.View(func() {
		games := e.games[player]
		if uint64(id) < uint64(len(games)) {
			g, ok = *games[id], true
		}
	})
	return g, ok
}

// Games returns copies of all of a player's games, oldest first.
func (e *Engine) Games(player core.Account) []Game {
	var out []Game
	e.chain.View(func() {
		out = make([]Game, 0, len(e.games[player]))
		for _, g := range e.games[player] {
			out = append(out, *g)
		}
	})
	return out
}

// OpenGames returns copies of the player's unsettled games, oldest first.
func (e *Engine) OpenGames(player core.Account) []Game {
	all := e.Games(player)
	open := all[:0]
	for _, g := range all {
		if g.Status == core.StatusOpen {
			open = append(open, g)
		}
	}
	return open
}
