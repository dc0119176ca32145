// Package tui provides the Bubble Tea front end for the card flip house:
// the betting table, the settlement history and an SSH server that serves
// both to remote players.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/cardflip/internal/chain"
)

// TickMsg is sent to refresh time-dependent parts of the view.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends a tick after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// BlockMsg is sent when the chain seals a new block.
type BlockMsg chain.Block

// waitForBlock returns a command that waits for the next block on sub.
// It yields nil once the subscription is closed.
func waitForBlock(sub *chain.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case b := <-sub.Blocks():
			return BlockMsg(b)
		case <-sub.Done():
			return nil
		}
	}
}
