// Package house wires the chain, authorization registry, treasury, randomness
// adapter and game engine into one card flip house, and exposes each external
// operation as a single chain transaction.
package house

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/cardflip/internal/auth"
	"github.com/vovakirdan/cardflip/internal/chain"
	"github.com/vovakirdan/cardflip/internal/config"
	"github.com/vovakirdan/cardflip/internal/core"
	"github.com/vovakirdan/cardflip/internal/game"
	"github.com/vovakirdan/cardflip/internal/randomness"
	"github.com/vovakirdan/cardflip/internal/storage"
	"github.com/vovakirdan/cardflip/internal/treasury"
)

// ErrFaucetDisabled is returned by Faucet when the configured amount is zero.
var ErrFaucetDisabled = errors.New("house: faucet disabled")

// House is a running card flip table.
type House struct {
	cfg      config.Config
	chain    *chain.Chain
	registry *auth.Registry
	treasury *treasury.Treasury
	engine   *game.Engine
	miner    *chain.Miner
	store    *storage.Store // Optional, can be nil
	logger   *log.Logger
}

type options struct {
	entropy io.Reader
	store   *storage.Store
	logger  *log.Logger
}

// Option configures New.
type Option func(*options)

// WithEntropySource replaces crypto/rand as the chain's entropy source.
func WithEntropySource(r io.Reader) Option {
	return func(o *options) { o.entropy = r }
}

// WithStore records settlements and treasury events in store.
func WithStore(s *storage.Store) Option {
	return func(o *options) { o.store = s }
}

// WithLogger sets the parent logger for every component.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds a house from cfg and bootstraps it: the bankroll is minted to
// the owner and deposited into the treasury, and the engine identity is
// authorized to request payouts.
func New(cfg config.Config, opts ...Option) (*House, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}

	chainOpts := []chain.Option{chain.WithLogger(o.logger)}
	if o.entropy != nil {
		chainOpts = append(chainOpts, chain.WithEntropySource(o.entropy))
	}
	c, err := chain.New(chainOpts...)
	if err != nil {
		return nil, fmt.Errorf("house: cannot start chain: %w", err)
	}

	drawer, err := randomness.New(cfg.Chain.EntropyCache)
	if err != nil {
		return nil, fmt.Errorf("house: %w", err)
	}

	registry := auth.NewRegistry(c, cfg.House.Owner, o.logger)
	tr := treasury.New(c, registry, cfg.House.TreasuryAccount, o.logger)
	engine := game.NewEngine(c, tr, drawer, game.Config{
		Identity:      cfg.House.EngineIdentity,
		Owner:         cfg.House.Owner,
		MinBet:        cfg.Game.MinBet,
		PayoutPercent: cfg.Game.PayoutPercent,
	}, o.logger)

	if o.store != nil {
		tr.SetRecorder(o.store)
		engine.SetRecorder(o.store)
	}

	h := &House{
		cfg:      cfg,
		chain:    c,
		registry: registry,
		treasury: tr,
		engine:   engine,
		miner:    chain.NewMiner(c, cfg.Chain.BlockInterval),
		store:    o.store,
		logger:   o.logger.WithPrefix("house"),
	}
	if err := h.bootstrap(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *House) bootstrap() error {
	owner := h.cfg.House.Owner
	bankroll := h.cfg.House.Bankroll
	if bankroll > 0 {
		if err := h.chain.Mint(owner, bankroll); err != nil {
			return fmt.Errorf("house: cannot mint bankroll: %w", err)
		}
	}

	_, err := h.chain.Execute(owner, func(tx *chain.Tx) error {
		if bankroll > 0 {
			if err := h.treasury.Deposit(tx, bankroll); err != nil {
				return err
			}
		}
		return h.treasury.Authorize(tx, h.engine.Identity())
	})
	if err != nil {
		return fmt.Errorf("house: bootstrap failed: %w", err)
	}

	h.logger.Info("house open",
		"owner", owner,
		"treasury", h.treasury.Account(),
		"engine", h.engine.Identity(),
		"bankroll", bankroll.Format(),
	)
	return nil
}

// Start begins background block production.
func (h *House) Start() {
	h.miner.Start()
}

// Close stops block production and closes the history store.
func (h *House) Close() error {
	h.miner.Stop()
	if h.store != nil {
		return h.store.Close()
	}
	return nil
}

// Config returns the configuration the house was built from.
func (h *House) Config() config.Config {
	return h.cfg
}

// Store returns the history store, or nil when history is disabled.
func (h *House) Store() *storage.Store {
	return h.store
}

// Subscribe returns a feed of newly sealed blocks.
func (h *House) Subscribe(buffer int) *chain.Subscription {
	return h.chain.Subscribe(buffer)
}

// Deposit moves amount from the given account into the treasury pool.
func (h *House) Deposit(from core.Account, amount core.Amount) error {
	_, err := h.chain.Execute(from, func(tx *chain.Tx) error {
		return h.treasury.Deposit(tx, amount)
	})
	return err
}

// AuthorizeGame grants a game identity payout rights. Owner only.
func (h *House) AuthorizeGame(requester core.Account, id core.Identity) error {
	_, err := h.chain.Execute(requester, func(tx *chain.Tx) error {
		return h.treasury.Authorize(tx, id)
	})
	return err
}

// RevokeGame withdraws a game identity's payout rights. Owner only.
func (h *House) RevokeGame(requester core.Account, id core.Identity) error {
	_, err := h.chain.Execute(requester, func(tx *chain.Tx) error {
		return h.registry.Revoke(tx, id, tx.Sender())
	})
	return err
}

// IsGameAuthorized reports whether id may request payouts.
func (h *House) IsGameAuthorized(id core.Identity) bool {
	return h.registry.IsAuthorized(id)
}

// TreasuryBalance returns the pool balance.
func (h *House) TreasuryBalance() core.Amount {
	return h.treasury.Balance()
}

// TotalGames returns the number of games ever started.
func (h *House) TotalGames() uint64 {
	return h.treasury.TotalGames()
}

// TreasuryStats returns every treasury counter.
func (h *House) TreasuryStats() treasury.Stats {
	return h.treasury.Stats()
}

// StartGame commits player's stake on a colour (0 red, 1 black).
func (h *House) StartGame(player core.Account, bet core.Amount, choice uint8) (core.GameID, error) {
	var id core.GameID
	_, err := h.chain.Execute(player, func(tx *chain.Tx) error {
		var err error
		id, err = h.engine.StartGame(tx, bet, choice)
		return err
	})
	return id, err
}

// PlayGame is StartGame returning a receipt.
func (h *House) PlayGame(player core.Account, bet core.Amount, choice uint8) (game.Receipt, error) {
	var rc game.Receipt
	_, err := h.chain.Execute(player, func(tx *chain.Tx) error {
		var err error
		rc, err = h.engine.PlayGame(tx, bet, choice)
		return err
	})
	return rc, err
}

// RevealAndSettle settles one of player's games.
func (h *House) RevealAndSettle(player core.Account, id core.GameID) (core.Outcome, error) {
	outcome := core.OutcomeNone
	_, err := h.chain.Execute(player, func(tx *chain.Tx) error {
		var err error
		outcome, err = h.engine.RevealAndSettle(tx, id)
		return err
	})
	return outcome, err
}

// PlayerGames returns every game id of player.
func (h *House) PlayerGames(player core.Account) []core.GameID {
	return h.engine.PlayerGames(player)
}

// Game returns one of player's games.
func (h *House) Game(player core.Account, id core.GameID) (game.Game, bool) {
	return h.engine.Game(player, id)
}

// Games returns all of player's games, oldest first.
func (h *House) Games(player core.Account) []game.Game {
	return h.engine.Games(player)
}

// OpenGames returns player's unsettled games.
func (h *House) OpenGames(player core.Account) []game.Game {
	return h.engine.OpenGames(player)
}

// CalculatePayout returns what a winning bet pays.
func (h *House) CalculatePayout(bet core.Amount) core.Amount {
	return h.engine.CalculatePayout(bet)
}

// MinBet returns the smallest accepted stake.
func (h *House) MinBet() core.Amount {
	return h.engine.MinBet()
}

// Withdraw moves amount from the pool to the given account. Owner only.
func (h *House) Withdraw(requester, to core.Account, amount core.Amount) error {
	_, err := h.chain.Execute(requester, func(tx *chain.Tx) error {
		return h.treasury.Withdraw(tx, to, amount)
	})
	return err
}

// Faucet credits player with the configured faucet amount.
func (h *House) Faucet(player core.Account) (core.Amount, error) {
	amount := h.cfg.Faucet.Amount
	if amount == 0 {
		return 0, ErrFaucetDisabled
	}
	if err := h.chain.Mint(player, amount); err != nil {
		return 0, fmt.Errorf("house: faucet: %w", err)
	}
	h.logger.Debug("faucet", "player", player, "amount", amount)
	return amount, nil
}

// Balance returns an account's ledger balance.
func (h *House) Balance(acct core.Account) core.Amount {
	return h.chain.Balance(acct)
}

// Height returns the current chain height.
func (h *House) Height() uint64 {
	return h.chain.Height()
}

// Advance seals the next block immediately.
func (h *House) Advance() (chain.Block, error) {
	return h.chain.Advance()
}
