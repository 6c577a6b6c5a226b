package models

import "time"

// DailyResult records the final graded outcome of one player's day.
// A session produces exactly one result, written when the session
// terminates (correct guess, guesses exhausted, or forfeit).
type DailyResult struct {
	ID         int64     `json:"id" db:"id"`
	PlayerID   int64     `json:"player_id" db:"player_id"`
	PuzzleID   int64     `json:"puzzle_id" db:"puzzle_id"`
	PuzzleDate string    `json:"puzzle_date" db:"puzzle_date"`
	GuessCount int       `json:"guess_count" db:"guess_count"`
	FinalError float64   `json:"final_error" db:"final_error"` // Percent, never negative
	Grade      string    `json:"grade" db:"grade"`             // S, A, B, C, D or F
	Stars      int       `json:"stars" db:"stars"`             // 0-5, derived from the grade
	Forfeited  bool      `json:"forfeited" db:"forfeited"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
