package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/suhailxyz/aipacdle/pkg/models"
)

// SessionRepository handles database operations for guess sessions
type SessionRepository struct{}

// NewSessionRepository creates a new repository instance
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

// Столбцы перечислены явно: guesses хранится как JSON и сканируется вручную
const sessionColumns = "id, player_id, puzzle_id, puzzle_date, guesses, revealed, forfeited, created_at, updated_at"

// GetByPlayerAndDate returns the session for one player and one
// calendar date. Callers distinguish "not started yet" via
// sql.ErrNoRows.
func (r *SessionRepository) GetByPlayerAndDate(playerID int64, date string) (*models.GuessSession, error) {
	var session models.GuessSession
	var guessesJSON string

	query := "SELECT " + sessionColumns + " FROM sessions WHERE player_id = $1 AND puzzle_date = $2"
	err := DB.QueryRow(query, playerID, date).Scan(
		&session.ID,
		&session.PlayerID,
		&session.PuzzleID,
		&session.PuzzleDate,
		&guessesJSON,
		&session.Revealed,
		&session.Forfeited,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get session: %v", err)
	}

	// Parse JSON array of guesses
	if guessesJSON != "" {
		if err := json.Unmarshal([]byte(guessesJSON), &session.Guesses); err != nil {
			return nil, fmt.Errorf("failed to parse guesses: %v", err)
		}
	}

	return &session, nil
}

// Create inserts a new session for a player's first contact with a
// day's puzzle
func (r *SessionRepository) Create(session *models.GuessSession) error {
	// Convert guesses to JSON
	guessesJSON, err := json.Marshal(session.Guesses)
	if err != nil {
		return fmt.Errorf("failed to marshal guesses: %v", err)
	}

	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO sessions (player_id, puzzle_id, puzzle_date, guesses, revealed, forfeited)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`
		return DB.QueryRow(
			query,
			session.PlayerID,
			session.PuzzleID,
			session.PuzzleDate,
			string(guessesJSON),
			session.Revealed,
			session.Forfeited,
		).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	}

	// Для SQLite (без RETURNING)
	query := `
		INSERT INTO sessions (player_id, puzzle_id, puzzle_date, guesses, revealed, forfeited, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`
	result, err := DB.Exec(
		query,
		session.PlayerID,
		session.PuzzleID,
		session.PuzzleDate,
		string(guessesJSON),
		session.Revealed,
		session.Forfeited,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %v", err)
	}
	session.ID = id

	return DB.QueryRow("SELECT created_at, updated_at FROM sessions WHERE id = ?", session.ID).
		Scan(&session.CreatedAt, &session.UpdatedAt)
}

// Update persists the guess history and the terminal flags
func (r *SessionRepository) Update(session *models.GuessSession) error {
	// Convert guesses to JSON
	guessesJSON, err := json.Marshal(session.Guesses)
	if err != nil {
		return fmt.Errorf("failed to marshal guesses: %v", err)
	}

	if DB.DriverName() == "postgres" {
		query := `
			UPDATE sessions SET
				guesses = $1,
				revealed = $2,
				forfeited = $3,
				updated_at = NOW()
			WHERE id = $4
			RETURNING updated_at
		`
		return DB.QueryRow(
			query,
			string(guessesJSON),
			session.Revealed,
			session.Forfeited,
			session.ID,
		).Scan(&session.UpdatedAt)
	}

	query := `
		UPDATE sessions SET
			guesses = ?,
			revealed = ?,
			forfeited = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err = DB.Exec(query, string(guessesJSON), session.Revealed, session.Forfeited, session.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %v", err)
	}
	return nil
}

// Delete removes a session
func (r *SessionRepository) Delete(id int64) error {
	_, err := DB.Exec("DELETE FROM sessions WHERE id = $1", id)
	return err
}

// CountByDate returns how many players have started the given day's
// puzzle
func (r *SessionRepository) CountByDate(date string) (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM sessions WHERE puzzle_date = $1", date)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %v", err)
	}
	return count, nil
}
