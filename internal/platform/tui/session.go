package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/cardflip/internal/chain"
	"github.com/vovakirdan/cardflip/internal/core"
	"github.com/vovakirdan/cardflip/internal/house"
)

// SessionModel manages the full player session: table -> history -> table.
// This is the top-level model for both local and SSH sessions.
type SessionModel struct {
	house     *house.House
	player    core.Account
	table     TableModel
	history   *HistoryModel
	inHistory bool
	quitting  bool
	width     int
	height    int
}

// NewSessionModel creates a new session model for player.
func NewSessionModel(h *house.House, player core.Account, sub *chain.Subscription, width, height int) SessionModel {
	return SessionModel{
		house:  h,
		player: player,
		table:  NewTableModel(h, player, sub, width, height),
		width:  width,
		height: height,
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.table.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.history != nil {
			resized, _ := m.history.Update(msg)
			if historyModel, ok := resized.(HistoryModel); ok {
				m.history = &historyModel
			}
		}
		return m.updateTable(msg)

	case BlockMsg, TickMsg:
		// Keep the table's feed alive while history is shown
		return m.updateTable(msg)
	}

	if m.inHistory && m.history != nil {
		return m.updateHistory(msg)
	}
	return m.updateTable(msg)
}

// updateTable handles updates when at the table.
func (m SessionModel) updateTable(msg tea.Msg) (tea.Model, tea.Cmd) {
	newTable, cmd := m.table.Update(msg)
	if tableModel, ok := newTable.(TableModel); ok {
		m.table = tableModel
	}

	if m.table.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.table.WantsHistory() {
		m.table.openHistory = false
		history := NewHistoryModel(m.house, m.player, m.width, m.height)
		m.history = &history
		m.inHistory = true
		return m, tea.Batch(cmd, m.history.Init())
	}

	return m, cmd
}

// updateHistory handles updates when in the history screen.
func (m SessionModel) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	newHistory, cmd := m.history.Update(msg)
	if historyModel, ok := newHistory.(HistoryModel); ok {
		m.history = &historyModel
	}

	if m.history.IsGoingBack() {
		m.inHistory = false
		m.history = nil
		return m, nil
	}

	if m.history.IsQuitting() {
		m.quitting = true
		if m.table.sub != nil {
			m.table.sub.Close()
		}
		return m, tea.Quit
	}

	return m, cmd
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}
	if m.inHistory && m.history != nil {
		return m.history.View()
	}
	return m.table.View()
}

// Run plays at the table in the local terminal until the player quits.
func Run(h *house.House, player core.Account, width, height int) error {
	sub := h.Subscribe(0)
	defer sub.Close()

	p := tea.NewProgram(
		NewSessionModel(h, player, sub, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
