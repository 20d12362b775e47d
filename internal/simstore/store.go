// Package simstore persists bot simulation results to SQLite or Postgres.
package simstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"judgement/internal/domain"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Row is one seat's outcome in one simulated game.
type Row struct {
	RunID      string
	Game       int
	Seat       int
	Level      string
	TotalScore int
	Won        bool
	BidsMade   int
	Rounds     int
}

// SeatTotals aggregates a run per seat.
type SeatTotals struct {
	Seat       int
	Level      string
	Games      int
	Wins       int
	TotalScore int
	BidsMade   int
	Rounds     int
}

type Store struct {
	db       *sql.DB
	postgres bool
}

// Open connects to a postgres:// or postgresql:// DSN, or treats dsn as a SQLite path.
func Open(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty database dsn")
	}

	s := &Store{postgres: strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")}
	driver := "sqlite"
	if s.postgres {
		driver = "postgres"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if !s.postgres {
		// One writer; :memory: databases are per connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}
	s.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS sim_results (
    run_id      TEXT    NOT NULL,
    game        INTEGER NOT NULL,
    seat        INTEGER NOT NULL,
    level       TEXT    NOT NULL,
    total_score INTEGER NOT NULL,
    won         INTEGER NOT NULL,
    bids_made   INTEGER NOT NULL,
    rounds      INTEGER NOT NULL,
    PRIMARY KEY (run_id, game, seat)
)`)
	if err != nil {
		return fmt.Errorf("failed to create sim_results: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders as $n for Postgres.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RowsFor builds one row per seat from a finished game. levels is indexed by seat.
func RowsFor(runID string, game int, final *domain.GameState, levels []string) []Row {
	winners := make(map[string]bool)
	for _, w := range domain.DetermineWinners(final.Players) {
		winners[w.ID] = true
	}
	made := make(map[string]int)
	for _, r := range final.RoundHistory {
		for _, pr := range r.PlayerResults {
			if pr.MadeBid {
				made[pr.PlayerID]++
			}
		}
	}

	rows := make([]Row, len(final.Players))
	for i, p := range final.Players {
		level := ""
		if i < len(levels) {
			level = levels[i]
		}
		rows[i] = Row{
			RunID:      runID,
			Game:       game,
			Seat:       i,
			Level:      level,
			TotalScore: p.TotalScore,
			Won:        winners[p.ID],
			BidsMade:   made[p.ID],
			Rounds:     len(final.RoundHistory),
		}
	}
	return rows
}

// SaveGame writes a game's rows in one transaction.
func (s *Store) SaveGame(ctx context.Context, rows []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := s.rebind(`
INSERT INTO sim_results (run_id, game, seat, level, total_score, won, bids_made, rounds)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, r := range rows {
		won := 0
		if r.Won {
			won = 1
		}
		if _, err := tx.ExecContext(ctx, query, r.RunID, r.Game, r.Seat, r.Level, r.TotalScore, won, r.BidsMade, r.Rounds); err != nil {
			return fmt.Errorf("failed to insert game %d seat %d: %w", r.Game, r.Seat, err)
		}
	}
	return tx.Commit()
}

// Totals sums a run per seat, ordered by seat.
func (s *Store) Totals(ctx context.Context, runID string) ([]SeatTotals, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT seat, level, COUNT(*), SUM(won), SUM(total_score), SUM(bids_made), SUM(rounds)
FROM sim_results
WHERE run_id = ?
GROUP BY seat, level
ORDER BY seat`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeatTotals
	for rows.Next() {
		var t SeatTotals
		var games, wins, total, made, rounds int64
		if err := rows.Scan(&t.Seat, &t.Level, &games, &wins, &total, &made, &rounds); err != nil {
			return nil, err
		}
		t.Games, t.Wins, t.TotalScore, t.BidsMade, t.Rounds = int(games), int(wins), int(total), int(made), int(rounds)
		out = append(out, t)
	}
	return out, rows.Err()
}
