// Package storage provides SQLite-based persistence for settled games and
// treasury movements. Uses the pure-Go modernc.org/sqlite driver to avoid CGO
// dependencies.
//
// The store is a history, not the source of truth: the engine's state lives in
// the chain, and the store only receives what has already committed.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/cardflip/internal/core"
	"github.com/vovakirdan/cardflip/internal/game"
	"github.com/vovakirdan/cardflip/internal/treasury"
)

// Store manages the SQLite database connection for history persistence.
type Store struct {
	db *sql.DB
}

// SettlementEntry represents a single settled game record.
type SettlementEntry struct {
	ID          int64
	TxID        string
	Player      core.Account
	GameID      core.GameID
	BetAmount   core.Amount
	Choice      core.Choice
	Drawn       core.Choice
	Outcome     core.Outcome
	Payout      core.Amount
	CommitIndex uint64
	RevealIndex uint64
	RuleVersion int
	CreatedAt   time.Time
}

// TreasuryEventEntry represents a recorded fund movement.
type TreasuryEventEntry struct {
	ID        int64
	TxID      string
	Kind      treasury.EventKind
	Account   core.Account
	Amount    core.Amount
	Height    uint64
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS settlements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tx_id TEXT NOT NULL UNIQUE,
			player TEXT NOT NULL,
			game_id INTEGER NOT NULL,
			bet_amount INTEGER NOT NULL,
			choice INTEGER NOT NULL,
			drawn INTEGER NOT NULL,
			outcome INTEGER NOT NULL,
			payout INTEGER NOT NULL DEFAULT 0,
			commit_index INTEGER NOT NULL,
			reveal_index INTEGER NOT NULL,
			rule_version INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_settlements_player ON settlements(player, game_id);

		CREATE TABLE IF NOT EXISTS treasury_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tx_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			account TEXT NOT NULL,
			amount INTEGER NOT NULL,
			height INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_treasury_events_kind ON treasury_events(kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordSettlement implements game.SettlementRecorder.
func (s *Store) RecordSettlement(st game.Settlement) error {
	g := st.Game
	_, err := s.db.Exec(
		`INSERT INTO settlements
		 (tx_id, player, game_id, bet_amount, choice, drawn, outcome, payout, commit_index, reveal_index, rule_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.TxID,
		string(g.Player),
		int64(g.ID),
		int64(g.BetAmount), //nolint:gosec // amounts stay far below 2^63
		int(g.Choice),
		int(g.Drawn),
		int(g.Outcome),
		int64(g.Payout),
		int64(g.CommitIndex),
		int64(g.RevealIndex),
		g.RuleVersion,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save settlement: %w", err)
	}
	return nil
}

// RecordTreasuryEvent implements treasury.EventRecorder.
func (s *Store) RecordTreasuryEvent(evt treasury.Event) error {
	_, err := s.db.Exec(
		`INSERT INTO treasury_events (tx_id, kind, account, amount, height) VALUES (?, ?, ?, ?, ?)`,
		evt.TxID, string(evt.Kind), string(evt.Account), int64(evt.Amount), int64(evt.Height),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save treasury event: %w", err)
	}
	return nil
}

// Ensure Store implements both recorders
var (
	_ game.SettlementRecorder = (*Store)(nil)
	_ treasury.EventRecorder  = (*Store)(nil)
)

const settlementColumns = `id, tx_id, player, game_id, bet_amount, choice, drawn, outcome, payout,
	commit_index, reveal_index, rule_version, created_at`

// PlayerHistory retrieves a player's most recent settlements, newest first.
func (s *Store) PlayerHistory(player core.Account, limit int) ([]SettlementEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT `+settlementColumns+`
		 FROM settlements
		 WHERE player = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		string(player), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player history: %w", err)
	}
	defer rows.Close()
	return scanSettlements(rows)
}

// RecentSettlements retrieves the most recent settlements across all players.
func (s *Store) RecentSettlements(limit int) ([]SettlementEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT `+settlementColumns+`
		 FROM settlements
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query settlements: %w", err)
	}
	defer rows.Close()
	return scanSettlements(rows)
}

func scanSettlements(rows *sql.Rows) ([]SettlementEntry, error) {
	var entries []SettlementEntry
	for rows.Next() {
		var e SettlementEntry
		var player string
		var gameID, bet, payout, commit, reveal int64
		var choice, drawn, outcome int
		var createdAt any
		if err := rows.Scan(
			&e.ID, &e.TxID, &player, &gameID, &bet, &choice, &drawn, &outcome, &payout,
			&commit, &reveal, &e.RuleVersion, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Player = core.Account(player)
		e.GameID = core.GameID(gameID)
		e.BetAmount = core.Amount(bet)
		e.Payout = core.Amount(payout)
		e.CommitIndex = uint64(commit)
		e.RevealIndex = uint64(reveal)
		e.Choice = core.Choice(choice)
		e.Drawn = core.Choice(drawn)
		e.Outcome = core.Outcome(outcome)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// TreasuryEvents retrieves the most recent fund movements, newest first.
func (s *Store) TreasuryEvents(limit int) ([]TreasuryEventEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, tx_id, kind, account, amount, height, created_at
		 FROM treasury_events
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query treasury events: %w", err)
	}
	defer rows.Close()

	var events []TreasuryEventEntry
	for rows.Next() {
		var e TreasuryEventEntry
		var kind, account string
		var amount, height int64
		var createdAt any
		if err := rows.Scan(&e.ID, &e.TxID, &kind, &account, &amount, &height, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Kind = treasury.EventKind(kind)
		e.Account = core.Account(account)
		e.Amount = core.Amount(amount)
		e.Height = uint64(height)
		e.CreatedAt = parseTime(createdAt)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return events, nil
}

// PlayerStats contains aggregated results for one player.
type PlayerStats struct {
	Player      core.Account
	GamesCount  int
	Wins        int
	Wagered     core.Amount
	PaidOut     core.Amount
	LastSettled time.Time
}

// Net returns the player's profit (positive) or loss (negative) in micro-units.
func (p PlayerStats) Net() int64 {
	return int64(p.PaidOut) - int64(p.Wagered)
}

// GetPlayerStats retrieves aggregated statistics for one player's settled games.
func (s *Store) GetPlayerStats(player core.Account) (*PlayerStats, error) {
	stats := &PlayerStats{Player: player}

	var wagered, paid int64
	var lastSettled any
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(bet_amount), 0),
		        COALESCE(SUM(payout), 0),
		        MAX(created_at)
		 FROM settlements WHERE player = ?`,
		int(core.Win), string(player),
	).Scan(&stats.GamesCount, &stats.Wins, &wagered, &paid, &lastSettled)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get player stats: %w", err)
	}
	stats.Wagered = core.Amount(wagered)
	stats.PaidOut = core.Amount(paid)
	stats.LastSettled = parseTime(lastSettled)
	return stats, nil
}

// HouseStats contains aggregated results across all players.
type HouseStats struct {
	Settled  int
	Wins     int
	Wagered  core.Amount
	PaidOut  core.Amount
	Players  int
	Deposits core.Amount
}

// GetHouseStats retrieves aggregated statistics across all settlements.
func (s *Store) GetHouseStats() (*HouseStats, error) {
	stats := &HouseStats{}
	var wagered, paid, deposits int64
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(bet_amount), 0),
		        COALESCE(SUM(payout), 0),
		        COUNT(DISTINCT player)
		 FROM settlements`,
		int(core.Win),
	).Scan(&stats.Settled, &stats.Wins, &wagered, &paid, &stats.Players)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get house stats: %w", err)
	}

	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM treasury_events WHERE kind = ?`,
		string(treasury.EventDeposit),
	).Scan(&deposits)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot sum deposits: %w", err)
	}

	stats.Wagered = core.Amount(wagered)
	stats.PaidOut = core.Amount(paid)
	stats.Deposits = core.Amount(deposits)
	return stats, nil
}

// parseTime handles both time.Time and string datetime values.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
