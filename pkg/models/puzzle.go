package models

import "time"

// Puzzle represents one day's puzzle: a public subject and the hidden dollar amount
type Puzzle struct {
	ID          int64     `json:"id" db:"id"`
	PuzzleDate  string    `json:"puzzle_date" db:"puzzle_date"` // Calendar key "2006-01-02" (UTC), unique
	Title       string    `json:"title" db:"title"`
	Subject     string    `json:"subject" db:"subject"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"image_url" db:"image_url"` // Optional: URL of the subject's photo
	SourceURL   string    `json:"source_url" db:"source_url"`
	Amount      int64     `json:"amount" db:"amount"` // Ground truth, whole dollars
	RangeMin    int64     `json:"range_min" db:"range_min"`
	RangeMax    int64     `json:"range_max" db:"range_max"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
