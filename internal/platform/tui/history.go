package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/cardflip/internal/core"
	"github.com/vovakirdan/cardflip/internal/house"
	"github.com/vovakirdan/cardflip/internal/storage"
)

// History layout constants
const (
	maxHistory = 100 // Max settlements to load
)

// historyTab selects what the history screen lists.
type historyTab int

const (
	tabMine historyTab = iota
	tabAll
)

var historyTabs = []string{"My games", "All players"}

// historyRow is one settled game as shown on screen.
type historyRow struct {
	player  core.Account
	gameID  core.GameID
	bet     core.Amount
	choice  core.Choice
	drawn   core.Choice
	outcome core.Outcome
	payout  core.Amount
	reveal  uint64
}

// HistoryModel is the Bubble Tea model for the settlement history screen.
type HistoryModel struct {
	house     *house.House
	player    core.Account
	tab       historyTab
	rows      []historyRow
	table     table.Model
	help      help.Model
	keys      HistoryKeyMap
	width     int
	height    int
	quitting  bool
	goingBack bool // True if user pressed back (not quit)
}

// NewHistoryModel creates a new history model.
func NewHistoryModel(h *house.House, player core.Account, width, height int) HistoryModel {
	hlp := help.New()
	hlp.ShowAll = false

	m := HistoryModel{
		house:  h,
		player: player,
		keys:   DefaultHistoryKeyMap(),
		help:   hlp,
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.load()
	return m
}

// createTable creates a new table with appropriate columns.
func (m *HistoryModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Player", Width: 14},
		{Title: "Game", Width: 6},
		{Title: "Bet", Width: 14},
		{Title: "Pick", Width: 6},
		{Title: "Drawn", Width: 6},
		{Title: "Result", Width: 6},
		{Title: "Payout", Width: 14},
		{Title: "Block", Width: 7},
	}

	tableHeight := m.height - 10 // Leave room for header, tabs, help, and margins
	if tableHeight < 3 {
		tableHeight = 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(tableHeight),
	)

	// Table styles
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// load fills rows for the current tab. Without a history store only the
// player's own games are available, straight from the engine.
func (m *HistoryModel) load() {
	m.rows = nil
	store := m.house.Store()

	switch {
	case store != nil && m.tab == tabMine:
		entries, err := store.PlayerHistory(m.player, maxHistory)
		if err == nil {
			m.rows = rowsFromEntries(entries)
		}
	case store != nil && m.tab == tabAll:
		entries, err := store.RecentSettlements(maxHistory)
		if err == nil {
			m.rows = rowsFromEntries(entries)
		}
	case m.tab == tabMine:
		games := m.house.Games(m.player)
		for i := len(games) - 1; i >= 0; i-- {
			g := games[i]
			if g.Status != core.StatusSettled {
				continue
			}
			m.rows = append(m.rows, historyRow{
				player:  g.Player,
				gameID:  g.ID,
				bet:     g.BetAmount,
				choice:  g.Choice,
				drawn:   g.Drawn,
				outcome: g.Outcome,
				payout:  g.Payout,
				reveal:  g.RevealIndex,
			})
		}
	}
	m.updateTableRows()
}

func rowsFromEntries(entries []storage.SettlementEntry) []historyRow {
	rows := make([]historyRow, len(entries))
	for i, e := range entries {
		rows[i] = historyRow{
			player:  e.Player,
			gameID:  e.GameID,
			bet:     e.BetAmount,
			choice:  e.Choice,
			drawn:   e.Drawn,
			outcome: e.Outcome,
			payout:  e.Payout,
			reveal:  e.RevealIndex,
		}
	}
	return rows
}

// updateTableRows updates the table with current rows.
func (m *HistoryModel) updateTableRows() {
	rows := make([]table.Row, len(m.rows))
	for i, r := range m.rows {
		rows[i] = table.Row{
			string(r.player),
			fmt.Sprintf("#%d", r.gameID),
			r.bet.Format(),
			r.choice.String(),
			r.drawn.String(),
			r.outcome.String(),
			r.payout.Format(),
			fmt.Sprintf("%d", r.reveal),
		}
	}
	m.table.SetRows(rows)

	// Reset cursor to top
	m.table.GotoTop()
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history screen.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, nil

		case key.Matches(msg, m.keys.NextTab):
			m.tab = (m.tab + 1) % historyTab(len(historyTabs))
			m.load()
			return m, nil

		case key.Matches(msg, m.keys.PrevTab):
			m.tab = (m.tab + historyTab(len(historyTabs)) - 1) % historyTab(len(historyTabs))
			m.load()
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			// Pass to table for scrolling
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history screen.
func (m HistoryModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText("SETTLEMENTS", m.width)))
	b.WriteString("\n\n")

	// Tabs
	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	activeTabStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)

	tabs := make([]string, len(historyTabs))
	for i, name := range historyTabs {
		if historyTab(i) == m.tab {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(" " + name + " ")
		}
	}
	b.WriteString(centerText(strings.Join(tabs, " "), m.width))
	b.WriteString("\n\n")

	b.WriteString(centerText(panelStyle.Render(m.renderTableContent()), m.width))

	// Help bar
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or empty message.
func (m HistoryModel) renderTableContent() string {
	if len(m.rows) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		if m.tab == tabAll && m.house.Store() == nil {
			return emptyStyle.Render("History is disabled on this house.")
		}
		return emptyStyle.Render("No settled games yet.\nPlace a bet and reveal it!")
	}

	return m.table.View()
}

// IsGoingBack returns true if user wants to go back to the table.
func (m HistoryModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m HistoryModel) IsQuitting() bool {
	return m.quitting
}

// Len returns the number of rows listed.
func (m HistoryModel) Len() int {
	return len(m.rows)
}
