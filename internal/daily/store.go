package daily

import (
	"context"
	"database/sql"
	"fmt"
)

// Result is one player's finished daily round.
type Result struct {
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	RoundID   string `json:"roundId"`
	Won       bool   `json:"won"`
	Tokens    int    `json:"tokens"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Store persists daily results in the daily_results table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether userID has a result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?",
		userID, date,
	).Scan(&cnt)
	if err != nil {
		return false, fmt.Errorf("daily played: %w", err)
	}
	return cnt > 0, nil
}

// InsertResult records a result. A second result for the same user and date is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, round_id, won, tokens, elapsed_ms)
		VALUES(?,?,?,?,?,?)`, r.UserID, r.Date, r.RoundID, r.Won, r.Tokens, r.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("daily insert: %w", err)
	}
	return nil
}

// LBRow is a leaderboard entry.
type LBRow struct {
	UserID    string `json:"userId"`
	Tokens    int    `json:"tokens"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Leaderboard returns the fastest winners for date: elapsed time first, then
// fewest tokens, then earliest finish. limit <= 0 means 20.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, tokens, elapsed_ms
		FROM daily_results
		WHERE date=? AND won=1
		ORDER BY elapsed_ms ASC, tokens ASC, created_at ASC
		LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("daily leaderboard: %w", err)
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Tokens, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
