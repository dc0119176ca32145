// Package treasury custodies the pooled house balance. Funds leave it only
// through payouts requested by an authorized game or through an owner
// withdrawal; every movement is a ledger transfer made inside the caller's
// transaction.
package treasury

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/cardflip/internal/auth"
	"github.com/vovakirdan/cardflip/internal/chain"
	"github.com/vovakirdan/cardflip/internal/core"
)

// EventKind labels a fund movement.
type EventKind string

const (
	EventDeposit  EventKind = "deposit"
	EventPayout   EventKind = "payout"
	EventWithdraw EventKind = "withdraw"
)

// Event is a committed fund movement, handed to the recorder.
type Event struct {
	Kind    EventKind
	Account core.Account // depositor or recipient
	Amount  core.Amount
	TxID    string
	Height  uint64
}

// EventRecorder persists fund movements. Implemented by the storage package.
type EventRecorder interface {
	RecordTreasuryEvent(evt Event) error
}

// Stats is a snapshot of the treasury counters.
type Stats struct {
	Balance          core.Amount
	TotalGamesPlayed uint64
	TotalWagered     core.Amount
	TotalPaidOut     core.Amount
	TotalDeposited   core.Amount
	TotalWithdrawn   core.Amount
}

// Treasury holds the pooled balance in a ledger account of its own.
type Treasury struct {
	chain    *chain.Chain
	registry *auth.Registry
	account  core.Account
	recorder EventRecorder
	logger   *log.Logger

	stats Stats
}

// New creates an empty treasury. account is the ledger account holding the
// pool; the registry's owner is the treasury owner.
func New(c *chain.Chain, registry *auth.Registry, account core.Account, logger *log.Logger) *Treasury {
	if logger == nil {
		logger = log.Default()
	}
	return &Treasury{
		chain:    c,
		registry: registry,
		account:  account,
		logger:   logger.WithPrefix("treasury"),
	}
}

// SetRecorder sets the optional fund movement recorder.
func (t *Treasury) SetRecorder(r EventRecorder) {
	t.recorder = r
}

// Account returns the ledger account holding the pool.
func (t *Treasury) Account() core.Account {
	return t.account
}

// Owner returns the administering account.
func (t *Treasury) Owner() core.Account {
	return t.registry.Owner()
}

// Deposit moves amount from the transaction sender into the pool.
// Anyone may deposit; game stakes are escrowed this way too.
func (t *Treasury) Deposit(tx *chain.Tx, amount core.Amount) error {
	if amount == 0 {
		return core.ErrInvalidAmount
	}
	from := tx.Sender()
	if err := t.transfer(tx, from, t.account, amount); err != nil {
		return err
	}

	prev := t.stats
	t.stats.Balance += amount
	t.stats.TotalDeposited += amount
	tx.OnRevert(func() { t.stats = prev })

	t.logger.Debug("deposit", "from", from, "amount", amount, "balance", t.stats.Balance)
	t.emit(tx, EventDeposit, from, amount)
	return nil
}

// Payout sends amount from the pool to a player on behalf of caller.
func (t *Treasury) Payout(tx *chain.Tx, to core.Account, amount core.Amount, caller core.Identity) error {
	if err := t.registry.Require(tx, caller); err != nil {
		return err
	}
	if amount == 0 {
		return core.ErrInvalidAmount
	}
	if amount > t.stats.Balance {
		return core.ErrInsufficientFunds
	}
	if err := t.transfer(tx, t.account, to, amount); err != nil {
		return err
	}

	prev := t.stats
	t.stats.Balance -= amount
	t.stats.TotalPaidOut += amount
	tx.OnRevert(func() { t.stats = prev })

	t.logger.Debug("payout", "to", to, "amount", amount, "caller", caller, "balance", t.stats.Balance)
	t.emit(tx, EventPayout, to, amount)
	return nil
}

// RecordGameStart bumps the game and wager counters on behalf of caller.
// It moves no funds; the stake is escrowed with Deposit in the same
// transaction.
func (t *Treasury) RecordGameStart(tx *chain.Tx, wager core.Amount, caller core.Identity) error {
	if err := t.registry.Require(tx, caller); err != nil {
		return err
	}

	prev := t.stats
	t.stats.TotalGamesPlayed++
	t.stats.TotalWagered += wager
	tx.OnRevert(func() { t.stats = prev })
	return nil
}

// Withdraw is the owner's administrative withdrawal from the pool.
func (t *Treasury) Withdraw(tx *chain.Tx, to core.Account, amount core.Amount) error {
	if tx.Sender() != t.registry.Owner() {
		return core.ErrNotOwner
	}
	if amount == 0 {
		return core.ErrInvalidAmount
	}
	if amount > t.stats.Balance {
		return core.ErrInsufficientFunds
	}
	if err := t.transfer(tx, t.account, to, amount); err != nil {
		return err
	}

	prev := t.stats
	t.stats.Balance -= amount
	t.stats.TotalWithdrawn += amount
	tx.OnRevert(func() { t.stats = prev })

	t.logger.Info("owner withdrawal", "to", to, "amount", amount, "balance", t.stats.Balance)
	t.emit(tx, EventWithdraw, to, amount)
	return nil
}

// Authorize lets the transaction sender grant payout rights to a game.
func (t *Treasury) Authorize(tx *chain.Tx, game core.Identity) error {
	return t.registry.Authorize(tx, game, tx.Sender())
}

// IsAuthorized reports whether a game may request payouts.
func (t *Treasury) IsAuthorized(game core.Identity) bool {
	return t.registry.IsAuthorized(game)
}

func (t *Treasury) transfer(tx *chain.Tx, from, to core.Account, amount core.Amount) error {
	err := tx.Transfer(from, to, amount)
	if errors.Is(err, chain.ErrInsufficientBalance) {
		return core.ErrInsufficientFunds
	}
	return err
}

func (t *Treasury) emit(tx *chain.Tx, kind EventKind, acct core.Account, amount core.Amount) {
	if t.recorder == nil {
		return
	}
	evt := Event{Kind: kind, Account: acct, Amount: amount, TxID: tx.ID(), Height: tx.Height()}
	tx.OnCommit(func() {
		if err := t.recorder.RecordTreasuryEvent(evt); err != nil {
			t.logger.Warn("could not record treasury event", "kind", kind, "error", err)
		}
	})
}

// Stats returns a consistent snapshot of all counters.
func (t *Treasury) Stats() Stats {
	var s Stats
	t.chain.View(func() {
		s = t.stats
	})
	return s
}

// Balance returns the pooled balance.
func (t *Treasury) Balance() core.Amount {
	return t.Stats().Balance
}

// TotalGames returns the number of games ever started.
func (t *Treasury) TotalGames() uint64 {
	return t.Stats().TotalGamesPlayed
}

// TotalWagered returns the sum of all stakes ever escrowed.
func (t *Treasury) TotalWagered() core.Amount {
	return t.Stats().TotalWagered
}

// TotalPaidOut returns the sum of all winning payouts.
func (t *Treasury) TotalPaidOut() core.Amount {
	return t.Stats().TotalPaidOut
}
