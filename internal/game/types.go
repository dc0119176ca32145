package game

import "github.com/vovakirdan/cardflip/internal/core"

// Game is one bet by one player against the house.
type Game struct {
	ID          core.GameID
	Player      core.Account
	BetAmount   core.Amount
	Choice      core.Choice
	CommitIndex uint64 // height the stake was committed at
	Status      core.Status
	Outcome     core.Outcome

	// Set at settlement.
	Drawn       core.Choice
	Payout      core.Amount
	RevealIndex uint64
	RuleVersion int
}

// Receipt is returned by PlayGame so a client can display the open bet and
// know when it becomes revealable.
type Receipt struct {
	GameID          core.GameID
	Player          core.Account
	BetAmount       core.Amount
	Choice          core.Choice
	CommitIndex     uint64
	RevealableAt    uint64
	PotentialPayout core.Amount
}

// Settlement describes a committed settlement, for persistence.
type Settlement struct {
	TxID string
	Game Game
}

// SettlementRecorder persists settlements.
// This allows the engine to save results without depending on the storage package.
type SettlementRecorder interface {
	RecordSettlement(s Settlement) error
}

// Config holds the table rules.
type Config struct {
	// Identity is the contract identity the engine presents to the treasury.
	Identity core.Identity

	// Owner may rebind the engine to another treasury.
	Owner core.Account

	// MinBet is the smallest accepted stake.
	MinBet core.Amount

	// PayoutPercent is the share of the stake paid on a win, 130 by default.
	PayoutPercent uint64
}

// DefaultMinBet is one whole coin.
const DefaultMinBet core.Amount = 1_000_000

// DefaultPayoutPercent pays 130% of the stake on a win.
const DefaultPayoutPercent = 130
