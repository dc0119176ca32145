package tui

import "github.com/charmbracelet/bubbles/key"

// TableKeyMap defines the key bindings for the card table.
type TableKeyMap struct {
	Red       key.Binding
	Black     key.Binding
	Raise     key.Binding
	Lower     key.Binding
	Reveal    key.Binding
	RevealAll key.Binding
	Faucet    key.Binding
	History   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k TableKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Red, k.Black, k.Raise, k.Lower, k.Reveal, k.History, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k TableKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Red, k.Black, k.Raise, k.Lower},
		{k.Reveal, k.RevealAll, k.Faucet},
		{k.History, k.Help, k.Quit},
	}
}

// DefaultTableKeyMap returns default key bindings.
func DefaultTableKeyMap() TableKeyMap {
	return TableKeyMap{
		Red: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "bet red"),
		),
		Black: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bet black"),
		),
		Raise: key.NewBinding(
			key.WithKeys("+", "=", "up", "k"),
			key.WithHelp("+/up", "raise bet"),
		),
		Lower: key.NewBinding(
			key.WithKeys("-", "down", "j"),
			key.WithHelp("-/down", "lower bet"),
		),
		Reveal: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "reveal"),
		),
		RevealAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "reveal all"),
		),
		Faucet: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "faucet"),
		),
		History: key.NewBinding(
			key.WithKeys("tab", "h"),
			key.WithHelp("tab", "history"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// HistoryKeyMap defines the key bindings for the history screen.
type HistoryKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.Back, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab},
		{k.Back, k.Quit},
	}
}

// DefaultHistoryKeyMap returns default key bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next view"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev view"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
