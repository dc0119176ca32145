package house

import (
	"context"
	"io"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/cardflip/internal/config"
	"github.com/vovakirdan/cardflip/internal/core"
	"github.com/vovakirdan/cardflip/internal/storage"
	"github.com/vovakirdan/cardflip/internal/treasury"
)

func newTestHouse(t *testing.T, mutate func(*config.Config), opts ...Option) *House {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	opts = append([]Option{
		WithEntropySource(rand.New(rand.NewSource(1))),
		WithLogger(log.New(io.Discard)),
	}, opts...)
	h, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestBootstrap(t *testing.T) {
	h := newTestHouse(t, nil)
	cfg := h.Config()

	assert.Equal(t, cfg.House.Bankroll, h.TreasuryBalance())
	assert.Equal(t, cfg.House.Bankroll, h.Balance(cfg.House.TreasuryAccount))
	assert.Zero(t, h.Balance(cfg.House.Owner))
	assert.True(t, h.IsGameAuthorized(cfg.House.EngineIdentity))
	assert.Zero(t, h.TotalGames())
	assert.Equal(t, uint64(0), h.Height())
}

func TestBootstrapWithoutBankroll(t *testing.T) {
	h := newTestHouse(t, func(c *config.Config) { c.House.Bankroll = 0 })
	assert.Zero(t, h.TreasuryBalance())
	assert.True(t, h.IsGameAuthorized(h.Config().House.EngineIdentity))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Game.MinBet = 0
	_, err := New(cfg, WithLogger(log.New(io.Discard)))
	require.Error(t, err)
}

func TestPlayAndSettle(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	h := newTestHouse(t, nil, WithStore(store))

	player := core.Account("alice")
	credited, err := h.Faucet(player)
	require.NoError(t, err)
	assert.Equal(t, h.Config().Faucet.Amount, credited)

	pool := h.TreasuryBalance()
	rc, err := h.PlayGame(player, 10_000_000, uint8(core.Black))
	require.NoError(t, err)
	assert.Equal(t, core.GameID(0), rc.GameID)
	assert.Equal(t, uint64(0), rc.CommitIndex)
	assert.Equal(t, uint64(1), rc.RevealableAt)
	assert.Equal(t, core.Amount(13_000_000), rc.PotentialPayout)
	assert.Equal(t, pool+10_000_000, h.TreasuryBalance())
	assert.Equal(t, uint64(1), h.TotalGames())

	_, err = h.RevealAndSettle(player, rc.GameID)
	require.ErrorIs(t, err, core.ErrTooEarly)

	_, err = h.Advance()
	require.NoError(t, err)

	outcome, err := h.RevealAndSettle(player, rc.GameID)
	require.NoError(t, err)

	g, ok := h.Game(player, rc.GameID)
	require.True(t, ok)
	assert.Equal(t, core.StatusSettled, g.Status)
	assert.Equal(t, outcome, g.Outcome)

	if outcome == core.Win {
		assert.Equal(t, credited+3_000_000, h.Balance(player))
		assert.Equal(t, pool-3_000_000, h.TreasuryBalance())
	} else {
		assert.Equal(t, credited-10_000_000, h.Balance(player))
		assert.Equal(t, pool+10_000_000, h.TreasuryBalance())
	}

	_, err = h.RevealAndSettle(player, rc.GameID)
	require.ErrorIs(t, err, core.ErrAlreadySettled)

	history, err := store.PlayerHistory(player, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, outcome, history[0].Outcome)

	events, err := store.TreasuryEvents(10)
	require.NoError(t, err)
	// bootstrap deposit, stake deposit, maybe a payout
	assert.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, treasury.EventDeposit, events[len(events)-1].Kind)
}

func TestStartGameRefusals(t *testing.T) {
	h := newTestHouse(t, nil)
	player := core.Account("bob")
	_, err := h.Faucet(player)
	require.NoError(t, err)

	_, err = h.StartGame(player, h.MinBet()-1, 0)
	require.ErrorIs(t, err, core.ErrBelowMinimum)

	_, err = h.StartGame(player, h.MinBet(), 2)
	require.ErrorIs(t, err, core.ErrInvalidChoice)

	_, err = h.StartGame(player, h.Balance(player)+1, 0)
	require.ErrorIs(t, err, core.ErrInsufficientFunds)

	assert.Empty(t, h.PlayerGames(player))
	assert.Zero(t, h.TotalGames())
}

func TestAuthorizationIsOwnerOnly(t *testing.T) {
	h := newTestHouse(t, nil)
	owner := h.Config().House.Owner
	engine := h.Config().House.EngineIdentity

	err := h.AuthorizeGame("mallory", "rogue-game")
	require.ErrorIs(t, err, core.ErrNotOwner)
	assert.False(t, h.IsGameAuthorized("rogue-game"))

	err = h.RevokeGame("mallory", engine)
	require.ErrorIs(t, err, core.ErrNotOwner)
	assert.True(t, h.IsGameAuthorized(engine))

	require.NoError(t, h.RevokeGame(owner, engine))
	assert.False(t, h.IsGameAuthorized(engine))

	player := core.Account("carol")
	_, err = h.Faucet(player)
	require.NoError(t, err)
	before := h.Balance(player)

	_, err = h.StartGame(player, h.MinBet(), 0)
	require.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Equal(t, before, h.Balance(player))

	require.NoError(t, h.AuthorizeGame(owner, engine))
	_, err = h.StartGame(player, h.MinBet(), 0)
	require.NoError(t, err)
}

func TestWithdraw(t *testing.T) {
	h := newTestHouse(t, nil)
	owner := h.Config().House.Owner

	err := h.Withdraw("mallory", "mallory", 1)
	require.ErrorIs(t, err, core.ErrNotOwner)

	err = h.Withdraw(owner, owner, h.TreasuryBalance()+1)
	require.ErrorIs(t, err, core.ErrInsufficientFunds)

	require.NoError(t, h.Withdraw(owner, owner, 5_000_000))
	assert.Equal(t, core.Amount(5_000_000), h.Balance(owner))
	assert.Equal(t, core.Amount(5_000_000), h.TreasuryStats().TotalWithdrawn)
}

func TestDepositByAnyone(t *testing.T) {
	h := newTestHouse(t, nil)
	_, err := h.Faucet("dave")
	require.NoError(t, err)

	pool := h.TreasuryBalance()
	require.NoError(t, h.Deposit("dave", 1_000_000))
	assert.Equal(t, pool+1_000_000, h.TreasuryBalance())

	require.ErrorIs(t, h.Deposit("dave", 0), core.ErrInvalidAmount)
	require.ErrorIs(t, h.Deposit("nobody", 1), core.ErrInsufficientFunds)
}

func TestFaucetDisabled(t *testing.T) {
	h := newTestHouse(t, func(c *config.Config) { c.Faucet.Amount = 0 })
	_, err := h.Faucet("erin")
	require.ErrorIs(t, err, ErrFaucetDisabled)
}

func TestSimulateConservesFunds(t *testing.T) {
	h := newTestHouse(t, nil)

	report, err := h.Simulate(context.Background(), SimulationOptions{
		Players: 4,
		Rounds:  25,
		Seed:    3,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, report.Games)
	assert.Equal(t, report.Games, report.Wins+report.Losses+report.Pending)
	assert.Equal(t, report.TreasuryBefore+report.Wagered-report.PaidOut, report.TreasuryAfter)
	assert.Equal(t, report.TreasuryAfter, h.TreasuryBalance())
	assert.Equal(t, uint64(100), h.TotalGames())
	assert.Equal(t, uint64(25), h.Height())
}

func TestSimulateCancelled(t *testing.T) {
	h := newTestHouse(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Simulate(ctx, SimulationOptions{Players: 1, Rounds: 1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSimulateRejectsEmptyRun(t *testing.T) {
	h := newTestHouse(t, nil)
	_, err := h.Simulate(context.Background(), SimulationOptions{})
	require.Error(t, err)
}
