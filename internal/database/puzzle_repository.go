package database

import (
	"database/sql"
	"fmt"

	"github.com/suhailxyz/aipacdle/pkg/models"
)

// PuzzleRepository handles database operations for puzzles
type PuzzleRepository struct{}

// NewPuzzleRepository creates a new repository instance
func NewPuzzleRepository() *PuzzleRepository {
	return &PuzzleRepository{}
}

// GetByDate returns the puzzle scheduled for a calendar date (YYYY-MM-DD).
// Callers distinguish a missing puzzle via sql.ErrNoRows.
func (r *PuzzleRepository) GetByDate(date string) (*models.Puzzle, error) {
	var puzzle models.Puzzle
	err := DB.Get(&puzzle, "SELECT * FROM puzzles WHERE puzzle_date = $1", date)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err // Пазла на эту дату нет
		}
		return nil, fmt.Errorf("failed to get puzzle by date: %v", err)
	}
	return &puzzle, nil
}

// GetByID returns a puzzle by ID
func (r *PuzzleRepository) GetByID(id int64) (*models.Puzzle, error) {
	var puzzle models.Puzzle
	err := DB.Get(&puzzle, "SELECT * FROM puzzles WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get puzzle by ID: %v", err)
	}
	return &puzzle, nil
}

// GetAll returns all puzzles, newest first
func (r *PuzzleRepository) GetAll() ([]models.Puzzle, error) {
	var puzzles []models.Puzzle
	err := DB.Select(&puzzles, "SELECT * FROM puzzles ORDER BY puzzle_date DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to get puzzles: %v", err)
	}
	return puzzles, nil
}

// Create inserts a new puzzle
func (r *PuzzleRepository) Create(puzzle *models.Puzzle) error {
	// Разные запросы для разных СУБД
	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO puzzles (puzzle_date, title, subject, description, image_url, source_url, amount, range_min, range_max)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`
		return DB.QueryRow(
			query,
			puzzle.PuzzleDate,
			puzzle.Title,
			puzzle.Subject,
			puzzle.Description,
			puzzle.ImageURL,
			puzzle.SourceURL,
			puzzle.Amount,
			puzzle.RangeMin,
			puzzle.RangeMax,
		).Scan(&puzzle.ID, &puzzle.CreatedAt, &puzzle.UpdatedAt)
	}

	// Для SQLite (без RETURNING)
	query := `
		INSERT INTO puzzles (puzzle_date, title, subject, description, image_url, source_url, amount, range_min, range_max, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`
	result, err := DB.Exec(
		query,
		puzzle.PuzzleDate,
		puzzle.Title,
		puzzle.Subject,
		puzzle.Description,
		puzzle.ImageURL,
		puzzle.SourceURL,
		puzzle.Amount,
		puzzle.RangeMin,
		puzzle.RangeMax,
	)
	if err != nil {
		return fmt.Errorf("failed to create puzzle: %v", err)
	}

	// Получаем ID последней вставленной записи
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %v", err)
	}
	puzzle.ID = id

	return DB.QueryRow("SELECT created_at, updated_at FROM puzzles WHERE id = ?", puzzle.ID).
		Scan(&puzzle.CreatedAt, &puzzle.UpdatedAt)
}

// Update modifies an existing puzzle
func (r *PuzzleRepository) Update(puzzle *models.Puzzle) error {
	if DB.DriverName() == "postgres" {
		query := `
			UPDATE puzzles SET
				puzzle_date = $1,
				title = $2,
				subject = $3,
				description = $4,
				image_url = $5,
				source_url = $6,
				amount = $7,
				range_min = $8,
				range_max = $9,
				updated_at = NOW()
			WHERE id = $10
			RETURNING updated_at
		`
		return DB.QueryRow(
			query,
			puzzle.PuzzleDate,
			puzzle.Title,
			puzzle.Subject,
			puzzle.Description,
			puzzle.ImageURL,
			puzzle.SourceURL,
			puzzle.Amount,
			puzzle.RangeMin,
			puzzle.RangeMax,
			puzzle.ID,
		).Scan(&puzzle.UpdatedAt)
	}

	query := `
		UPDATE puzzles SET
			puzzle_date = ?,
			title = ?,
			subject = ?,
			description = ?,
			image_url = ?,
			source_url = ?,
			amount = ?,
			range_min = ?,
			range_max = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := DB.Exec(
		query,
		puzzle.PuzzleDate,
		puzzle.Title,
		puzzle.Subject,
		puzzle.Description,
		puzzle.ImageURL,
		puzzle.SourceURL,
		puzzle.Amount,
		puzzle.RangeMin,
		puzzle.RangeMax,
		puzzle.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update puzzle: %v", err)
	}

	return DB.QueryRow("SELECT updated_at FROM puzzles WHERE id = ?", puzzle.ID).Scan(&puzzle.UpdatedAt)
}

// Delete removes a puzzle
func (r *PuzzleRepository) Delete(id int64) error {
	_, err := DB.Exec("DELETE FROM puzzles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete puzzle: %v", err)
	}
	return nil
}

// Count returns the total number of puzzles
func (r *PuzzleRepository) Count() (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM puzzles")
	if err != nil {
		return 0, fmt.Errorf("failed to count puzzles: %v", err)
	}
	return count, nil
}

// GetLatestDate returns the newest scheduled puzzle date, or an empty
// string when no puzzles are loaded
func (r *PuzzleRepository) GetLatestDate() (string, error) {
	var date string
	err := DB.Get(&date, "SELECT COALESCE(MAX(puzzle_date), '') FROM puzzles")
	if err != nil {
		return "", fmt.Errorf("failed to get latest puzzle date: %v", err)
	}
	return date, nil
}
