package models

import "time"

// GuessSession tracks one player's attempts at one day's puzzle.
// Guesses is ordered oldest first; duplicates are allowed and each
// submission counts. The row is unique per (player, puzzle date).
type GuessSession struct {
	ID         int64     `json:"id" db:"id"`
	PlayerID   int64     `json:"player_id" db:"player_id"`
	PuzzleID   int64     `json:"puzzle_id" db:"puzzle_id"`
	PuzzleDate string    `json:"puzzle_date" db:"puzzle_date"`
	Guesses    []int64   `json:"guesses" db:"guesses"` // Stored as a JSON array in a TEXT column
	Revealed   bool      `json:"revealed" db:"revealed"`
	Forfeited  bool      `json:"forfeited" db:"forfeited"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// GuessCount returns the number of guesses submitted so far
func (s *GuessSession) GuessCount() int {
	return len(s.Guesses)
}

// LastGuess returns the most recent guess, or 0 if none were made
func (s *GuessSession) LastGuess() int64 {
	if len(s.Guesses) == 0 {
		return 0
	}
	return s.Guesses[len(s.Guesses)-1]
}
