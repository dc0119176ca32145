// Package core holds the plain domain types shared by the treasury, the game
// engine and the platform layers. It has no dependencies on the chain or on
// any UI code.
package core

import "fmt"

// Account is an external identity (a principal on the host ledger).
// It is opaque to the engine and only ever compared for equality.
type Account string

// Identity names a contract that may call into the treasury.
// The game engine is identified by one of these.
type Identity string

// Amount is a quantity of the single supported asset, in micro-units.
type Amount uint64

// GameID is a per-player sequential game number starting at 0.
type GameID uint64

// Choice is the colour a player bets on. It doubles as the drawn card colour.
type Choice uint8

const (
	Red   Choice = 0
	Black Choice = 1
)

// ParseChoice validates a raw choice value coming from a caller.
func ParseChoice(raw uint8) (Choice, error) {
	switch Choice(raw) {
	case Red, Black:
		return Choice(raw), nil
	default:
		return 0, ErrInvalidChoice
	}
}

// String returns the colour name.
func (c Choice) String() string {
	switch c {
	case Red:
		return "Red"
	case Black:
		return "Black"
	default:
		return fmt.Sprintf("Choice(%d)", uint8(c))
	}
}

// Outcome is the result of a settled game from the player's point of view.
type Outcome uint8

const (
	// OutcomeNone marks a game that has not been settled yet.
	OutcomeNone Outcome = iota
	Win
	Loss
)

// String returns a human-readable outcome.
func (o Outcome) String() string {
	switch o {
	case Win:
		return "Win"
	case Loss:
		return "Loss"
	default:
		return "Pending"
	}
}

// Status is the lifecycle state of a game. Open is the only non-terminal state.
type Status uint8

const (
	StatusOpen Status = iota
	StatusSettled
)

// String returns the status name.
func (s Status) String() string {
	if s == StatusSettled {
		return "Settled"
	}
	return "Open"
}
