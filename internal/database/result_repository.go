package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/suhailxyz/aipacdle/pkg/models"
)

// ResultRepository handles database operations for daily results
type ResultRepository struct{}

// NewResultRepository creates a new repository instance
func NewResultRepository() *ResultRepository {
	return &ResultRepository{}
}

// Create records the graded outcome of a finished session. Writing
// the same (player, date) twice overwrites the old row, so re-grading
// after a puzzle correction stays idempotent.
func (r *ResultRepository) Create(result *models.DailyResult) error {
	// Разные запросы для разных СУБД
	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO results (player_id, puzzle_id, puzzle_date, guess_count, final_error, grade, stars, forfeited)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (player_id, puzzle_date) DO UPDATE SET
				guess_count = EXCLUDED.guess_count,
				final_error = EXCLUDED.final_error,
				grade = EXCLUDED.grade,
				stars = EXCLUDED.stars,
				forfeited = EXCLUDED.forfeited
			RETURNING id, created_at
		`
		return DB.QueryRow(
			query,
			result.PlayerID,
			result.PuzzleID,
			result.PuzzleDate,
			result.GuessCount,
			result.FinalError,
			result.Grade,
			result.Stars,
			result.Forfeited,
		).Scan(&result.ID, &result.CreatedAt)
	}

	// SQLite: сначала проверяем, существует ли запись
	var existingID int64
	err := DB.QueryRow("SELECT id FROM results WHERE player_id = ? AND puzzle_date = ?",
		result.PlayerID, result.PuzzleDate).Scan(&existingID)
	if err == nil {
		result.ID = existingID
		_, err = DB.Exec(`
			UPDATE results SET
				guess_count = ?,
				final_error = ?,
				grade = ?,
				stars = ?,
				forfeited = ?
			WHERE id = ?`,
			result.GuessCount,
			result.FinalError,
			result.Grade,
			result.Stars,
			result.Forfeited,
			result.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update result: %v", err)
		}
		return DB.QueryRow("SELECT created_at FROM results WHERE id = ?", result.ID).Scan(&result.CreatedAt)
	}

	query := `
		INSERT INTO results (player_id, puzzle_id, puzzle_date, guess_count, final_error, grade, stars, forfeited, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	res, err := DB.Exec(
		query,
		result.PlayerID,
		result.PuzzleID,
		result.PuzzleDate,
		result.GuessCount,
		result.FinalError,
		result.Grade,
		result.Stars,
		result.Forfeited,
	)
	if err != nil {
		return fmt.Errorf("failed to create result: %v", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %v", err)
	}
	result.ID = id

	return DB.QueryRow("SELECT created_at FROM results WHERE id = ?", result.ID).Scan(&result.CreatedAt)
}

// GetByPlayerAndDate returns one player's result for one date.
// Callers distinguish "not finished yet" via sql.ErrNoRows.
func (r *ResultRepository) GetByPlayerAndDate(playerID int64, date string) (*models.DailyResult, error) {
	var result models.DailyResult
	err := DB.Get(&result, "SELECT * FROM results WHERE player_id = $1 AND puzzle_date = $2", playerID, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get result: %v", err)
	}
	return &result, nil
}

// GetAllByPlayer returns all of a player's results, newest first
func (r *ResultRepository) GetAllByPlayer(playerID int64) ([]models.DailyResult, error) {
	var results []models.DailyResult
	err := DB.Select(&results, "SELECT * FROM results WHERE player_id = $1 ORDER BY puzzle_date DESC", playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %v", err)
	}
	return results, nil
}

// GetResultDates returns the dates a player has finished, oldest first
func (r *ResultRepository) GetResultDates(playerID int64) ([]string, error) {
	var dates []string
	err := DB.Select(&dates, "SELECT puzzle_date FROM results WHERE player_id = $1 ORDER BY puzzle_date ASC", playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result dates: %v", err)
	}
	return dates, nil
}

// GetStats aggregates a player's results into PlayerStats
func (r *ResultRepository) GetStats(playerID int64) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{
		PlayerID:    playerID,
		GradeCounts: make(map[string]int),
	}

	err := DB.Get(&stats.GamesPlayed, "SELECT COUNT(*) FROM results WHERE player_id = $1", playerID)
	if err != nil {
		return nil, err
	}

	// S, A и B даются только за попадание в цель
	err = DB.Get(&stats.GamesWon,
		"SELECT COUNT(*) FROM results WHERE player_id = $1 AND grade IN ('S', 'A', 'B')", playerID)
	if err != nil {
		return nil, err
	}

	err = DB.Get(&stats.TotalStars,
		"SELECT COALESCE(SUM(stars), 0) FROM results WHERE player_id = $1", playerID)
	if err != nil {
		return nil, err
	}

	err = DB.Get(&stats.AverageError,
		"SELECT COALESCE(AVG(final_error), 0) FROM results WHERE player_id = $1", playerID)
	if err != nil {
		return nil, err
	}

	rows, err := DB.Query("SELECT grade, COUNT(*) FROM results WHERE player_id = $1 GROUP BY grade", playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var grade string
		var count int
		if err := rows.Scan(&grade, &count); err != nil {
			return nil, fmt.Errorf("failed to scan grade count: %v", err)
		}
		stats.GradeCounts[grade] = count
	}

	// Лучшая оценка — первая встретившаяся в порядке убывания
	for _, grade := range []string{"S", "A", "B", "C", "D", "F"} {
		if stats.GradeCounts[grade] > 0 {
			stats.BestGrade = grade
			break
		}
	}

	dates, err := r.GetResultDates(playerID)
	if err != nil {
		return nil, err
	}
	today := time.Now().UTC().Format("2006-01-02")
	stats.CurrentStreak, stats.LongestStreak = computeStreaks(dates, today)

	return stats, nil
}

// computeStreaks walks the played dates (ascending, YYYY-MM-DD) and
// returns the run still alive on the given day plus the longest run
// overall. A run survives until a full calendar day passes without a
// result: finishing yesterday keeps the streak, missing two days ends
// it.
func computeStreaks(dates []string, today string) (current, longest int) {
	if len(dates) == 0 {
		return 0, 0
	}

	run := 1
	longest = 1
	for i := 1; i < len(dates); i++ {
		prev, errPrev := time.Parse("2006-01-02", dates[i-1])
		cur, errCur := time.Parse("2006-01-02", dates[i])
		if errPrev == nil && errCur == nil && prev.AddDate(0, 0, 1).Equal(cur) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	// Серия жива, только если последний результат был сегодня или вчера
	last, errLast := time.Parse("2006-01-02", dates[len(dates)-1])
	now, errNow := time.Parse("2006-01-02", today)
	if errLast != nil || errNow != nil {
		return 0, longest
	}
	switch {
	case last.Equal(now), last.AddDate(0, 0, 1).Equal(now):
		return run, longest
	default:
		return 0, longest
	}
}

// DailyLeaderboard returns the standings for one date, best first
func (r *ResultRepository) DailyLeaderboard(date string, limit int) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	query := `
		SELECT r.player_id,
		       CASE WHEN COALESCE(p.username, '') != '' THEN '@' || p.username ELSE COALESCE(p.first_name, 'Player') END AS display_name,
		       r.stars, r.grade, r.final_error, r.guess_count
		FROM results r
		JOIN players p ON r.player_id = p.id
		WHERE r.puzzle_date = $1
		ORDER BY r.stars DESC, r.final_error ASC, r.guess_count ASC
		LIMIT $2
	`
	err := DB.Select(&entries, query, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily leaderboard: %v", err)
	}
	return entries, nil
}

// AllTimeLeaderboard returns the cumulative standings, best first.
// FinalError carries the player's average error here.
func (r *ResultRepository) AllTimeLeaderboard(limit int) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	query := `
		SELECT r.player_id,
		       CASE WHEN COALESCE(p.username, '') != '' THEN '@' || p.username ELSE COALESCE(p.first_name, 'Player') END AS display_name,
		       COALESCE(SUM(r.stars), 0) AS total_stars,
		       COUNT(*) AS games_played,
		       COALESCE(AVG(r.final_error), 0) AS final_error
		FROM results r
		JOIN players p ON r.player_id = p.id
		GROUP BY r.player_id, p.username, p.first_name
		ORDER BY total_stars DESC, games_played ASC
		LIMIT $1
	`
	err := DB.Select(&entries, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get all-time leaderboard: %v", err)
	}
	return entries, nil
}

// CountByDate returns how many players finished the given day's puzzle
func (r *ResultRepository) CountByDate(date string) (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM results WHERE puzzle_date = $1", date)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %v", err)
	}
	return count, nil
}

// AvgStarsByDate returns the average star count earned on a date
func (r *ResultRepository) AvgStarsByDate(date string) (float64, error) {
	var avg float64
	err := DB.Get(&avg, "SELECT COALESCE(AVG(stars), 0) FROM results WHERE puzzle_date = $1", date)
	if err != nil {
		return 0, fmt.Errorf("failed to get average stars: %v", err)
	}
	return avg, nil
}
