// internal/history/history.go
//
// Game history persisted in SQLite.
// Responsibilities:
//   - Record a game row when a session starts, keep its try count current, and close it
//     with the outcome and reason when the session ends.
//   - Maintain user stats (games played, wins, streak) for registered players.
//   - Serve recent games, per-player stats and the leaderboard.
//
// Notes:
//   - Store implements orchestrator.Hooks. Hook errors are logged, never returned:
//     history is a side record and must not fail a game transition.
//   - Anonymous players have games but no users row; their stats bump is a no-op.

package history

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle-session/internal/actor"
	"github.com/robalobadob/wordle-session/internal/orchestrator"
	"github.com/robalobadob/wordle-session/internal/session"
)

// Game status values stored in games.status.
const (
	StatusPlaying = "playing"
	StatusWon     = "won"
	StatusLost    = "lost"
)

// Game is one row of a player's history.
type Game struct {
	SessionID  string `json:"sessionId"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	Tries      int    `json:"tries"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// Stats are the aggregate counters of a registered player.
type Stats struct {
	ID          string `json:"id"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Streak      int    `json:"streak"`
}

// LBRow is one leaderboard line.
type LBRow struct {
	Username    string `json:"username"`
	Wins        int    `json:"wins"`
	GamesPlayed int    `json:"gamesPlayed"`
	Streak      int    `json:"streak"`
}

// Store records games in the games and users tables.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ orchestrator.Hooks = (*Store)(nil)

// NewStore wraps an opened, migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) stamp() string { return s.now().Format(time.RFC3339) }

// GameStarted inserts a playing row for the new session.
func (s *Store) GameStarted(ctx context.Context, player actor.ID, sessionID actor.MessageID) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO games (session_id, player_id, status, tries, started_at) VALUES (?,?,?,0,?)`,
		string(sessionID), string(player), StatusPlaying, s.stamp())
	if err != nil {
		log.Warn().Err(err).Str("player", string(player)).Msg("history: insert game")
	}
}

// GuessChecked stores the current try count of the player's open game.
func (s *Store) GuessChecked(ctx context.Context, player actor.ID, tries uint8) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET tries=? WHERE player_id=? AND status=?`,
		int(tries), string(player), StatusPlaying)
	if err != nil {
		log.Warn().Err(err).Str("player", string(player)).Msg("history: update tries")
	}
}

// GameFinished closes the game row and bumps user stats in one transaction.
func (s *Store) GameFinished(ctx context.Context, player actor.ID, r orchestrator.Result) {
	if err := s.finish(ctx, player, r); err != nil {
		log.Warn().Err(err).Str("player", string(player)).Msg("history: finish game")
	}
}

func (s *Store) finish(ctx context.Context, player actor.ID, r orchestrator.Result) error {
	status := StatusLost
	if r.Outcome == session.OutcomeWin {
		status = StatusWon
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE games SET status=?, reason=?, tries=?, finished_at=? WHERE session_id=? AND status=?`,
		status, string(r.Reason), int(r.Tries), s.stamp(), string(r.SessionID), StatusPlaying)
	if err != nil {
		return err
	}
	// Already closed: do not count it twice.
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	if err := bumpStats(ctx, tx, string(player), status == StatusWon); err != nil {
		return err
	}
	return tx.Commit()
}

// bumpStats increments games played; updates wins and streak based on result (within tx).
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

// ClaimGames moves an anonymous player's history onto a user account after login.
func (s *Store) ClaimGames(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `UPDATE games SET player_id=? WHERE player_id=?`, userID, anonID)
	return err
}

// Games returns the player's most recent games, newest first.
func (s *Store) Games(ctx context.Context, player string, limit int) ([]Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, status, COALESCE(reason,''), tries, started_at, COALESCE(finished_at,'')
		 FROM games WHERE player_id=? ORDER BY started_at DESC, rowid DESC LIMIT ?`, player, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Game{}
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.SessionID, &g.Status, &g.Reason, &g.Tries, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Stats returns the counters of a registered player; sql.ErrNoRows if unknown.
func (s *Store) Stats(ctx context.Context, userID string) (Stats, error) {
	st := Stats{ID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT games_played, wins, streak FROM users WHERE id=?`, userID,
	).Scan(&st.GamesPlayed, &st.Wins, &st.Streak)
	return st, err
}

// Leaderboard ranks registered players by wins, then fewer games played.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, wins, games_played, streak
		 FROM users
		 WHERE games_played > 0
		 ORDER BY wins DESC, games_played ASC, username ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Username, &r.Wins, &r.GamesPlayed, &r.Streak); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
