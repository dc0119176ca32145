package game

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/cardflip/internal/auth"
	"github.com/vovakirdan/cardflip/internal/chain"
	"github.com/vovakirdan/cardflip/internal/core"
	"github.com/vovakirdan/cardflip/internal/randomness"
	"github.com/vovakirdan/cardflip/internal/treasury"
)

const (
	deployer core.Account  = "deployer"
	player1  core.Account  = "wallet_1"
	player2  core.Account  = "wallet_2"
	poolAcct core.Account  = "deployer.game-treasury"
	engineID core.Identity = "deployer.card-flip-game"
)

type fixture struct {
	seed     int64
	chain    *chain.Chain
	treasury *treasury.Treasury
	engine   *Engine
	recorded []Settlement
}

func (f *fixture) RecordSettlement(s Settlement) error {
	f.recorded = append(f.recorded, s)
	return nil
}

func newChain(t *testing.T, seed int64) *chain.Chain {
	t.Helper()
	c, err := chain.New(chain.WithEntropySource(rand.New(rand.NewSource(seed))))
	require.NoError(t, err)
	return c
}

// setup builds a funded, authorized table: the treasury holds 100 coins and
// both players hold 50.
func setup(t *testing.T, seed int64) *fixture {
	t.Helper()
	c := newChain(t, seed)
	require.NoError(t, c.Mint(deployer, 1_000_000_000))
	require.NoError(t, c.Mint(player1, 50_000_000))
	require.NoError(t, c.Mint(player2, 50_000_000))

	reg := auth.NewRegistry(c, deployer, nil)
	tr := treasury.New(c, reg, poolAcct, nil)
	adapter, err := randomness.New(16)
	require.NoError(t, err)

	f := &fixture{seed: seed, chain: c, treasury: tr}
	f.engine = NewEngine(c, tr, adapter, Config{Identity: engineID, Owner: deployer}, nil)
	f.engine.SetRecorder(f)

	_, err = c.Execute(deployer, func(tx *chain.Tx) error {
		if err := tr.Deposit(tx, 100_000_000); err != nil {
			return err
		}
		return tr.Authorize(tx, engineID)
	})
	require.NoError(t, err)
	return f
}

// winningChoice replays the fixture's entropy stream on a twin chain to learn
// the colour that will be drawn for a game committed at height 0.
func winningChoice(t *testing.T, seed int64) core.Choice {
	t.Helper()
	twin := newChain(t, seed)
	b, err := twin.Advance()
	require.NoError(t, err)
	return randomness.Derive(b.Entropy, 0)
}

func other(c core.Choice) core.Choice {
	if c == core.Red {
		return core.Black
	}
	return core.Red
}

func (f *fixture) start(player core.Account, bet core.Amount, choice uint8) (core.GameID, error) {
	var id core.GameID
	_, err := f.chain.Execute(player, func(tx *chain.Tx) error {
		var err error
		id, err = f.engine.StartGame(tx, bet, choice)
		return err
	})
	return id, err
}

func (f *fixture) reveal(player core.Account, id core.GameID) (core.Outcome, error) {
	var out core.Outcome
	_, err := f.chain.Execute(player, func(tx *chain.Tx) error {
		var err error
		out, err = f.engine.RevealAndSettle(tx, id)
		return err
	})
	return out, err
}

func (f *fixture) advance(t *testing.T) {
	t.Helper()
	_, err := f.chain.Advance()
	require.NoError(t, err)
}

func TestStartGameReturnsSequentialIDsPerPlayer(t *testing.T) {
	f := setup(t, 1)

	for want := core.GameID(0); want < 3; want++ {
		id, err := f.start(player1, 2_000_000, uint8(want%2))
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	id, err := f.start(player2, 2_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, core.GameID(0), id)

	assert.Equal(t, []core.GameID{0, 1, 2}, f.engine.PlayerGames(player1))
	assert.Equal(t, []core.GameID{0}, f.engine.PlayerGames(player2))
	assert.Empty(t, f.engine.PlayerGames("nobody"))
}

func TestStartGameEscrowsAndCounts(t *testing.T) {
	f := setup(t, 1)

	_, err := f.start(player1, 5_000_000, 1)
	require.NoError(t, err)

	assert.Equal(t, core.Amount(105_000_000), f.treasury.Balance())
	assert.Equal(t, core.Amount(45_000_000), f.chain.Balance(player1))
	assert.Equal(t, uint64(1), f.treasury.TotalGames())
	assert.Equal(t, core.Amount(5_000_000), f.treasury.TotalWagered())

	g, ok := f.engine.Game(player1, 0)
	require.True(t, ok)
	assert.Equal(t, core.StatusOpen, g.Status)
	assert.Equal(t, core.OutcomeNone, g.Outcome)
	assert.Equal(t, uint64(0), g.CommitIndex)
}

func TestStartGameRejectionsLeaveNoTrace(t *testing.T) {
	tests := []struct {
		name   string
		bet    core.Amount
		choice uint8
		want   *core.Error
	}{
		{"below minimum", 500_000, 1, core.ErrBelowMinimum},
		{"invalid choice", 5_000_000, 2, core.ErrInvalidChoice},
		{"player cannot cover stake", 60_000_000, 0, core.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, 1)
			before := f.treasury.Stats()

			_, err := f.start(player1, tt.bet, tt.choice)
			assert.ErrorIs(t, err, tt.want)

			assert.Equal(t, before, f.treasury.Stats())
			assert.Equal(t, core.Amount(50_000_000), f.chain.Balance(player1))
			assert.Empty(t, f.engine.PlayerGames(player1))
		})
	}
}

func TestStartGameUnregisteredEngine(t *testing.T) {
	f := setup(t, 1)

	rogue := NewEngine(f.chain, f.treasury, nil, Config{Identity: "unregistered"}, nil)
	_, err := f.chain.Execute(player1, func(tx *chain.Tx) error {
		_, err := rogue.StartGame(tx, 5_000_000, 0)
		return err
	})
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Equal(t, core.Amount(100_000_000), f.treasury.Balance())
	assert.Equal(t, core.Amount(50_000_000), f.chain.Balance(player1))
	assert.Empty(t, rogue.PlayerGames(player1))
}

func TestPlayGameReceipt(t *testing.T) {
	f := setup(t, 1)
	f.advance(t)

	var r Receipt
	_, err := f.chain.Execute(player1, func(tx *chain.Tx) error {
		var err error
		r, err = f.engine.PlayGame(tx, 3_000_000, 0)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, core.GameID(0), r.GameID)
	assert.Equal(t, player1, r.Player)
	assert.Equal(t, uint64(1), r.CommitIndex)
	assert.Equal(t, uint64(2), r.RevealableAt)
	assert.Equal(t, core.Amount(3_900_000), r.PotentialPayout)
}

func TestRevealAtSameHeightIsTooEarly(t *testing.T) {
	f := setup(t, 1)
	id, err := f.start(player1, 5_000_000, 0)
	require.NoError(t, err)

	_, err = f.reveal(player1, id)
	assert.ErrorIs(t, err, core.ErrTooEarly)
	assert.EqualValues(t, 203, core.CodeOf(err))

	g, _ := f.engine.Game(player1, id)
	assert.Equal(t, core.StatusOpen, g.Status)

	f.advance(t)
	out, err := f.reveal(player1, id)
	require.NoError(t, err)
	assert.Contains(t, []core.Outcome{core.Win, core.Loss}, out)
}

func TestFullScenarioWin(t *testing.T) {
	const seed = 11
	f := setup(t, seed)
	pick := winningChoice(t, seed)

	id, err := f.start(player1, 5_000_000, uint8(pick))
	require.NoError(t, err)
	assert.Equal(t, core.GameID(0), id)

	_, err = f.reveal(player1, id)
	assert.ErrorIs(t, err, core.ErrTooEarly)

	f.advance(t)
	before := f.treasury.Balance()
	out, err := f.reveal(player1, id)
	require.NoError(t, err)
	assert.Equal(t, core.Win, out)

	assert.Equal(t, before-6_500_000, f.treasury.Balance())
	assert.Equal(t, core.Amount(98_500_000), f.treasury.Balance())
	assert.Equal(t, core.Amount(51_500_000), f.chain.Balance(player1))
	assert.Equal(t, core.Amount(6_500_000), f.treasury.TotalPaidOut())

	g, _ := f.engine.Game(player1, id)
	assert.Equal(t, core.StatusSettled, g.Status)
	assert.Equal(t, pick, g.Drawn)
	assert.Equal(t, core.Amount(6_500_000), g.Payout)
	assert.Equal(t, uint64(1), g.RevealIndex)
	assert.Equal(t, randomness.RuleVersion, g.RuleVersion)

	require.Len(t, f.recorded, 1)
	assert.Equal(t, core.Win, f.recorded[0].Game.Outcome)
	assert.NotEmpty(t, f.recorded[0].TxID)
}

func TestFullScenarioLoss(t *testing.T) {
	const seed = 11
	f := setup(t, seed)
	pick := other(winningChoice(t, seed))

	id, err := f.start(player1, 5_000_000, uint8(pick))
	require.NoError(t, err)
	f.advance(t)

	out, err := f.reveal(player1, id)
	require.NoError(t, err)
	assert.Equal(t, core.Loss, out)

	assert.Equal(t, core.Amount(105_000_000), f.treasury.Balance())
	assert.Equal(t, core.Amount(45_000_000), f.chain.Balance(player1))
	assert.Equal(t, core.Amount(0), f.treasury.TotalPaidOut())

	g, _ := f.engine.Game(player1, id)
	assert.Equal(t, core.Amount(0), g.Payout)
}

func TestSecondRevealIsAlreadySettled(t *testing.T) {
	f := setup(t, 5)
	id, err := f.start(player1, 5_000_000, 0)
	require.NoError(t, err)
	f.advance(t)

	_, err = f.reveal(player1, id)
	require.NoError(t, err)

	stats := f.treasury.Stats()
	bal := f.chain.Balance(player1)
	g, _ := f.engine.Game(player1, id)

	_, err = f.reveal(player1, id)
	assert.ErrorIs(t, err, core.ErrAlreadySettled)

	assert.Equal(t, stats, f.treasury.Stats())
	assert.Equal(t, bal, f.chain.Balance(player1))
	again, _ := f.engine.Game(player1, id)
	assert.Equal(t, g, again)
	assert.Len(t, f.recorded, 1)
}

func TestOnlyPlayerMaySettle(t *testing.T) {
	f := setup(t, 5)
	id, err := f.start(player1, 5_000_000, 0)
	require.NoError(t, err)
	f.advance(t)

	stats := f.treasury.Stats()
	_, err = f.reveal(player2, id)
	assert.ErrorIs(t, err, core.ErrNotPlayer)
	assert.EqualValues(t, 206, core.CodeOf(err))
	assert.Equal(t, stats, f.treasury.Stats())

	g, _ := f.engine.Game(player1, id)
	assert.Equal(t, core.StatusOpen, g.Status)
}

func TestRevealUnknownGame(t *testing.T) {
	f := setup(t, 5)
	_, err := f.reveal(player1, 0)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.start(player1, 5_000_000, 0)
	require.NoError(t, err)
	f.advance(t)

	_, err = f.reveal(player1, 7)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestWinnerWaitsWhenPoolCannotPay(t *testing.T) {
	const seed = 23
	f := setup(t, seed)
	pick := winningChoice(t, seed)

	// Drain the pool so only the stake remains.
	_, err := f.chain.Execute(deployer, func(tx *chain.Tx) error {
		return f.treasury.Withdraw(tx, deployer, 100_000_000)
	})
	require.NoError(t, err)

	id, err := f.start(player1, 1_000_000, uint8(pick))
	require.NoError(t, err)
	f.advance(t)

	_, err = f.reveal(player1, id)
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
	g, _ := f.engine.Game(player1, id)
	assert.Equal(t, core.StatusOpen, g.Status)
	assert.Equal(t, core.Amount(1_000_000), f.treasury.Balance())

	// Refill and retry: the draw is unchanged and the game now pays.
	_, err = f.chain.Execute(deployer, func(tx *chain.Tx) error {
		return f.treasury.Deposit(tx, 10_000_000)
	})
	require.NoError(t, err)
	out, err := f.reveal(player1, id)
	require.NoError(t, err)
	assert.Equal(t, core.Win, out)
}

func TestCalculatePayout(t *testing.T) {
	e := NewEngine(nil, nil, nil, Config{}, nil)

	tests := []struct {
		bet  core.Amount
		want core.Amount
	}{
		{0, 0},
		{1, 1},
		{15, 19},
		{99, 128},
		{100, 130},
		{5_000_000, 6_500_000},
		{10_000_000, 13_000_000},
		{1_000_007, 1_300_009},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.CalculatePayout(tt.bet), "bet %d", tt.bet)
	}

	// Matches exact arithmetic for stakes whose product overflows uint64.
	big1 := core.Amount(1<<62 + 12345)
	want := new(big.Int).Mul(new(big.Int).SetUint64(uint64(big1)), big.NewInt(130))
	want.Div(want, big.NewInt(100))
	assert.Equal(t, want.Uint64(), uint64(e.CalculatePayout(big1)))
}

func TestSetTreasuryOwnerOnly(t *testing.T) {
	f := setup(t, 1)
	_, err := f.chain.Execute(player1, func(tx *chain.Tx) error {
		return f.engine.SetTreasury(tx, nil)
	})
	assert.ErrorIs(t, err, core.ErrNotOwner)

	_, err = f.chain.Execute(deployer, func(tx *chain.Tx) error {
		return f.engine.SetTreasury(tx, f.treasury)
	})
	assert.NoError(t, err)
}

// Random interleavings of start, reveal and block production from several
// players must keep the treasury equal to funding plus stakes minus payouts,
// and settle every game at most once.
func TestInvariantsUnderRandomPlay(t *testing.T) {
	f := setup(t, 99)
	rng := rand.New(rand.NewSource(99))
	players := []core.Account{player1, player2, "wallet_3", "wallet_4"}
	for _, p := range players[2:] {
		require.NoError(t, f.chain.Mint(p, 50_000_000))
	}

	var staked, paid core.Amount
	settledOnce := make(map[core.Account]map[core.GameID]bool)

	for i := 0; i < 400; i++ {
		p := players[rng.Intn(len(players))]
		switch rng.Intn(4) {
		case 0, 1:
			bet := core.Amount(rng.Intn(3_000_000))
			if _, err := f.start(p, bet, uint8(rng.Intn(3))); err == nil {
				staked += bet
			} else {
				require.NotZero(t, core.CodeOf(err), "unexpected error: %v", err)
			}
		case 2:
			ids := f.engine.PlayerGames(p)
			if len(ids) == 0 {
				continue
			}
			id := ids[rng.Intn(len(ids))]
			out, err := f.reveal(p, id)
			if err != nil {
				require.NotZero(t, core.CodeOf(err), "unexpected error: %v", err)
				continue
			}
			if settledOnce[p] == nil {
				settledOnce[p] = make(map[core.GameID]bool)
			}
			require.False(t, settledOnce[p][id], "game settled twice")
			settledOnce[p][id] = true
			if out == core.Win {
				g, _ := f.engine.Game(p, id)
				paid += g.Payout
			}
		case 3:
			f.advance(t)
		}

		s := f.treasury.Stats()
		require.Equal(t, 100_000_000+staked-paid, s.Balance)
		require.Equal(t, s.Balance, f.chain.Balance(poolAcct))
		require.Equal(t, staked, s.TotalWagered)
		require.Equal(t, paid, s.TotalPaidOut)
	}
}
