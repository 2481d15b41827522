package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ResultsDatabase stores reported game results and maintains per-player
// ladder standings.
type ResultsDatabase struct {
	db *Database
}

// GameResult is one finished match as reported by a game server.
type GameResult struct {
	ID         int64          `json:"id"`
	MatchID    string         `json:"match_id"`
	Room       string         `json:"room"`
	GameType   int            `json:"game_type"`
	Scores     map[string]int `json:"scores"`
	Raw        string         `json:"raw,omitempty"`
	ReportedAt time.Time      `json:"reported_at"`
}

// Standing is one row of the ladder for a game type.
type Standing struct {
	Nick     string `json:"nick"`
	GameType int    `json:"game_type"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Points   int    `json:"points"`
}

// NewResultsDatabase creates and initializes the results database.
func NewResultsDatabase(dbPath string) (*ResultsDatabase, error) {
	database, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}

	rdb := &ResultsDatabase{db: database}
	if err := rdb.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate results database: %w", err)
	}

	return rdb, nil
}

// migrate creates the database schema.
func (rdb *ResultsDatabase) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS game_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL,
			room TEXT NOT NULL,
			game_type INTEGER NOT NULL,
			raw TEXT NOT NULL DEFAULT '',
			reported_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS game_scores (
			result_id INTEGER NOT NULL,
			nick TEXT NOT NULL,
			score INTEGER NOT NULL,
			won INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (result_id, nick),
			FOREIGN KEY (result_id) REFERENCES game_results(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS ladder_scores (
			nick TEXT NOT NULL,
			game_type INTEGER NOT NULL,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			points INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (nick, game_type)
		);

		CREATE INDEX IF NOT EXISTS idx_results_reported_at ON game_results(reported_at);
		CREATE INDEX IF NOT EXISTS idx_results_game_type ON game_results(game_type);
		CREATE INDEX IF NOT EXISTS idx_ladder_game_type ON ladder_scores(game_type);
	`

	if _, err := rdb.db.Exec(schema); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	log.Debug().Msg("database schema migrated")
	return nil
}

// RecordResult stores one reported match and folds it into the ladder. The
// highest score wins; a tie at the top counts a win for every tied player.
func (rdb *ResultsDatabase) RecordResult(result GameResult) error {
	if len(result.Scores) == 0 {
		return fmt.Errorf("result %s has no player scores", result.MatchID)
	}

	topScore := 0
	first := true
	for _, score := range result.Scores {
		if first || score > topScore {
			topScore = score
			first = false
		}
	}

	return rdb.db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			"INSERT INTO game_results (match_id, room, game_type, raw) VALUES (?, ?, ?, ?)",
			result.MatchID, result.Room, result.GameType, result.Raw)
		if err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
		resultID, _ := res.LastInsertId()

		for nick, score := range result.Scores {
			won := 0
			if score == topScore {
				won = 1
			}
			if _, err := tx.Exec(
				"INSERT INTO game_scores (result_id, nick, score, won) VALUES (?, ?, ?, ?)",
				resultID, nick, score, won); err != nil {
				return fmt.Errorf("failed to insert score for %s: %w", nick, err)
			}

			if _, err := tx.Exec(`
				INSERT INTO ladder_scores (nick, game_type, wins, losses, points)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (nick, game_type) DO UPDATE SET
					wins = wins + excluded.wins,
					losses = losses + excluded.losses,
					points = points + excluded.points
			`, nick, result.GameType, won, 1-won, score); err != nil {
				return fmt.Errorf("failed to update ladder for %s: %w", nick, err)
			}
		}

		log.Info().
			Str("match_id", result.MatchID).
			Str("room", result.Room).
			Int("players", len(result.Scores)).
			Msg("game result recorded")
		return nil
	})
}

// TopStandings returns the ladder for a game type, best first.
func (rdb *ResultsDatabase) TopStandings(gameType, limit int) ([]Standing, error) {
	rows, err := rdb.db.Query(`
		SELECT nick, game_type, wins, losses, points
		FROM ladder_scores
		WHERE game_type = ?
		ORDER BY points DESC, wins DESC, nick ASC
		LIMIT ?
	`, gameType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standings []Standing
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.Nick, &s.GameType, &s.Wins, &s.Losses, &s.Points); err != nil {
			continue
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

// RecentResults returns the latest reported matches, newest first, with
// their per-player scores attached.
func (rdb *ResultsDatabase) RecentResults(limit int) ([]GameResult, error) {
	rows, err := rdb.db.Query(`
		SELECT id, match_id, room, game_type, raw, reported_at
		FROM game_results
		ORDER BY reported_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []GameResult
	for rows.Next() {
		var r GameResult
		if err := rows.Scan(&r.ID, &r.MatchID, &r.Room, &r.GameType, &r.Raw, &r.ReportedAt); err != nil {
			continue
		}

		r.Scores = make(map[string]int)
		scoreRows, err := rdb.db.Query(
			"SELECT nick, score FROM game_scores WHERE result_id = ?", r.ID)
		if err == nil {
			for scoreRows.Next() {
				var nick string
				var score int
				scoreRows.Scan(&nick, &score)
				r.Scores[nick] = score
			}
			scoreRows.Close()
		}

		results = append(results, r)
	}
	return results, rows.Err()
}

// ResultCount returns the number of stored match results.
func (rdb *ResultsDatabase) ResultCount() (int, error) {
	var count int
	err := rdb.db.QueryRow("SELECT COUNT(*) FROM game_results").Scan(&count)
	return count, err
}

// PruneOlderThan deletes results older than the given number of days and
// returns how many were removed. Ladder standings are cumulative and keep
// their totals.
func (rdb *ResultsDatabase) PruneOlderThan(days int) (int64, error) {
	res, err := rdb.db.Exec(
		"DELETE FROM game_results WHERE reported_at < datetime('now', ?)",
		fmt.Sprintf("-%d days", days))
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()
	if removed > 0 {
		log.Info().Int64("removed", removed).Int("days", days).Msg("pruned old game results")
	}
	return removed, nil
}

// Close closes the database.
func (rdb *ResultsDatabase) Close() error {
	return rdb.db.Close()
}
