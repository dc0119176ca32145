package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/cardflip/internal/chain"
	"github.com/vovakirdan/cardflip/internal/core"
	"github.com/vovakirdan/cardflip/internal/game"
	"github.com/vovakirdan/cardflip/internal/house"
)

// Table layout constants
const (
	maxOpenShown    = 6 // Open bets listed under the card
	refreshInterval = time.Second
)

// TableModel is the Bubble Tea model for the betting table.
type TableModel struct {
	house  *house.House
	player core.Account
	sub    *chain.Subscription // Optional, can be nil
	keys   TableKeyMap
	help   help.Model

	bet  core.Amount
	step core.Amount

	// Snapshot of chain state, refreshed on every block and tick.
	block   uint64
	balance core.Amount
	pool    core.Amount
	open    []game.Game

	last   *game.Game // Most recently settled game
	status string
	err    error

	width       int
	height      int
	quitting    bool
	openHistory bool
}

// NewTableModel creates a table for player. sub may be nil, in which case the
// view refreshes on a timer only.
func NewTableModel(h *house.House, player core.Account, sub *chain.Subscription, width, height int) TableModel {
	step := h.Config().Game.BetStep
	if step == 0 {
		step = h.MinBet()
	}
	m := TableModel{
		house:  h,
		player: player,
		sub:    sub,
		keys:   DefaultTableKeyMap(),
		help:   help.New(),
		bet:    h.MinBet(),
		step:   step,
		width:  width,
		height: height,
		status: "Pick a colour: r for red, b for black.",
	}
	m.help.Width = width
	m.refresh()
	return m
}

// Init starts the block feed and the refresh timer.
func (m TableModel) Init() tea.Cmd {
	return tea.Batch(waitForBlock(m.sub), tickCmd(refreshInterval))
}

// Update handles messages for the table.
func (m TableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case BlockMsg:
		m.refresh()
		return m, waitForBlock(m.sub)

	case TickMsg:
		m.refresh()
		return m, tickCmd(refreshInterval)
	}

	return m, nil
}

// handleKey processes keyboard input at the table.
func (m TableModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.sub != nil {
			m.sub.Close()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.History):
		m.openHistory = true
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Red):
		m.placeBet(core.Red)

	case key.Matches(msg, m.keys.Black):
		m.placeBet(core.Black)

	case key.Matches(msg, m.keys.Raise):
		m.bet += m.step
		m.err = nil

	case key.Matches(msg, m.keys.Lower):
		if m.bet >= m.house.MinBet()+m.step {
			m.bet -= m.step
		} else {
			m.bet = m.house.MinBet()
		}
		m.err = nil

	case key.Matches(msg, m.keys.Reveal):
		m.revealNext()

	case key.Matches(msg, m.keys.RevealAll):
		m.revealAll()

	case key.Matches(msg, m.keys.Faucet):
		m.faucet()
	}

	m.refresh()
	return m, nil
}

func (m *TableModel) placeBet(c core.Choice) {
	rc, err := m.house.PlayGame(m.player, m.bet, uint8(c))
	if err != nil {
		m.fail(err)
		return
	}
	m.err = nil
	m.status = fmt.Sprintf("Game #%d: %s on %s, revealable at block %d (pays %s).",
		rc.GameID, rc.BetAmount.Format(), rc.Choice, rc.RevealableAt, rc.PotentialPayout.Format())
}

// revealNext settles the oldest open game that is past its commit block.
func (m *TableModel) revealNext() {
	if len(m.open) == 0 {
		m.status = "No open bets."
		return
	}
	g := m.open[0]
	if m.block <= g.CommitIndex {
		m.status = fmt.Sprintf("Game #%d waits for block %d.", g.ID, g.CommitIndex+1)
		return
	}
	m.settle(g.ID)
}

func (m *TableModel) revealAll() {
	settled := 0
	for _, g := range m.open {
		if m.block <= g.CommitIndex {
			continue
		}
		if !m.settle(g.ID) {
			return
		}
		settled++
	}
	if settled == 0 {
		m.status = "Nothing to reveal yet."
	}
}

func (m *TableModel) settle(id core.GameID) bool {
	outcome, err := m.house.RevealAndSettle(m.player, id)
	if err != nil {
		m.fail(err)
		return false
	}
	g, ok := m.house.Game(m.player, id)
	if !ok {
		return false
	}
	m.last = &g
	m.err = nil
	if outcome == core.Win {
		m.status = fmt.Sprintf("Game #%d drew %s: you win %s!", id, g.Drawn, g.Payout.Format())
	} else {
		m.status = fmt.Sprintf("Game #%d drew %s: the house keeps %s.", id, g.Drawn, g.BetAmount.Format())
	}
	return true
}

func (m *TableModel) faucet() {
	amount, err := m.house.Faucet(m.player)
	if err != nil {
		m.fail(err)
		return
	}
	m.err = nil
	m.status = fmt.Sprintf("Faucet credited %s.", amount.Format())
}

func (m *TableModel) fail(err error) {
	m.err = err
	switch {
	case errors.Is(err, core.ErrInsufficientFunds):
		m.status = "Not enough funds. Press f for the faucet, or wait for the pool to refill."
	case errors.Is(err, core.ErrBelowMinimum):
		m.status = fmt.Sprintf("Minimum bet is %s.", m.house.MinBet().Format())
	case errors.Is(err, core.ErrTooEarly):
		m.status = "Too early: wait for the next block."
	case errors.Is(err, house.ErrFaucetDisabled):
		m.status = "The faucet is closed."
	default:
		m.status = "Refused."
	}
}

func (m *TableModel) refresh() {
	m.block = m.house.Height()
	m.balance = m.house.Balance(m.player)
	m.pool = m.house.TreasuryBalance()
	m.open = m.house.OpenGames(m.player)
}

// View renders the table.
func (m TableModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText("CARD FLIP", m.width)))
	b.WriteString("\n\n")

	card := renderCardBack()
	if m.last != nil {
		card = renderCard(m.last.Drawn)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.renderInfo()),
		"  ",
		card,
		"  ",
		panelStyle.Render(m.renderOpen()),
	)
	b.WriteString(centerText(body, m.width))
	b.WriteString("\n\n")

	status := m.status
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf("%s [%d %s]", status, core.CodeOf(m.err), m.err))
	}
	b.WriteString(centerText(status, m.width))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m TableModel) renderInfo() string {
	rows := [][2]string{
		{"Player", string(m.player)},
		{"Balance", m.balance.Format()},
		{"Bet", m.bet.Format()},
		{"Pays", m.house.CalculatePayout(m.bet).Format()},
		{"Block", fmt.Sprintf("%d", m.block)},
		{"Pool", m.pool.Format()},
	}
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%-8s", r[0])))
		b.WriteString(r[1])
	}
	if m.last != nil {
		b.WriteString("\n\nLast: ")
		b.WriteString(renderOutcome(m.last.Outcome))
	}
	return b.String()
}

func (m TableModel) renderOpen() string {
	var b strings.Builder
	b.WriteString("Open bets\n")
	if len(m.open) == 0 {
		b.WriteString(mutedStyle.Render("none"))
		return b.String()
	}
	for i, g := range m.open {
		if i == maxOpenShown {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("\n+%d more", len(m.open)-maxOpenShown)))
			break
		}
		state := winStyle.Render("ready")
		if m.block <= g.CommitIndex {
			state = mutedStyle.Render("waiting")
		}
		fmt.Fprintf(&b, "\n#%-3d %s %s %s", g.ID, g.BetAmount.Format(), renderChoice(g.Choice), state)
	}
	return b.String()
}

// IsQuitting returns true if user requested to quit.
func (m TableModel) IsQuitting() bool {
	return m.quitting
}

// WantsHistory returns true if user asked for the history screen.
func (m TableModel) WantsHistory() bool {
	return m.openHistory
}

// Bet returns the current stake.
func (m TableModel) Bet() core.Amount {
	return m.bet
}

// Status returns the status line.
func (m TableModel) Status() string {
	return m.status
}
