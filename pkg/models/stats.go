package models

// PlayerStats aggregates a player's results across all days played
type PlayerStats struct {
	PlayerID      int64          `json:"player_id"`
	GamesPlayed   int            `json:"games_played"`
	GamesWon      int            `json:"games_won"` // Days that ended on an on-target guess
	TotalStars    int            `json:"total_stars"`
	AverageError  float64        `json:"average_error"`
	BestGrade     string         `json:"best_grade"`
	GradeCounts   map[string]int `json:"grade_counts"`
	CurrentStreak int            `json:"current_streak"` // Consecutive days played up to the latest result
	LongestStreak int            `json:"longest_streak"`
}

// LeaderboardEntry is one row of the daily or all-time standings
type LeaderboardEntry struct {
	PlayerID    int64   `json:"player_id" db:"player_id"`
	DisplayName string  `json:"display_name" db:"display_name"`
	Stars       int     `json:"stars" db:"stars"`
	Grade       string  `json:"grade" db:"grade"`
	FinalError  float64 `json:"final_error" db:"final_error"`
	GuessCount  int     `json:"guess_count" db:"guess_count"`
	TotalStars  int     `json:"total_stars" db:"total_stars"`   // All-time board only
	GamesPlayed int     `json:"games_played" db:"games_played"` // All-time board only
}
