package database

import (
	"database/sql"
	"fmt"

	"github.com/suhailxyz/aipacdle/pkg/models"
)

// PlayerRepository handles database operations for players
type PlayerRepository struct{}

// NewPlayerRepository creates a new repository instance
func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{}
}

// GetByID returns a player by internal ID
func (r *PlayerRepository) GetByID(id int64) (*models.Player, error) {
	var player models.Player
	err := DB.Get(&player, "SELECT * FROM players WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by ID: %v", err)
	}
	return &player, nil
}

// GetByTelegramID returns a player by Telegram ID. Callers distinguish
// an unregistered player via sql.ErrNoRows.
func (r *PlayerRepository) GetByTelegramID(telegramID int64) (*models.Player, error) {
	var player models.Player
	err := DB.Get(&player, "SELECT * FROM players WHERE telegram_id = $1", telegramID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get player by telegram ID: %v", err)
	}
	return &player, nil
}

// GetAll returns all players, newest first
func (r *PlayerRepository) GetAll() ([]models.Player, error) {
	var players []models.Player
	err := DB.Select(&players, "SELECT * FROM players ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %v", err)
	}
	return players, nil
}

// Create inserts a new player or refreshes the name fields if the
// Telegram ID is already registered
func (r *PlayerRepository) Create(player *models.Player) error {
	// Разные запросы для разных СУБД
	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO players (telegram_id, username, first_name, last_name, is_admin, notification_enabled, notification_hour)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (telegram_id) DO UPDATE SET
				username = EXCLUDED.username,
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				updated_at = NOW()
			RETURNING id, created_at, updated_at
		`
		return DB.QueryRow(
			query,
			player.TelegramID,
			player.Username,
			player.FirstName,
			player.LastName,
			player.IsAdmin,
			player.NotificationEnabled,
			player.NotificationHour,
		).Scan(&player.ID, &player.CreatedAt, &player.UpdatedAt)
	}

	// Для SQLite: INSERT OR IGNORE, чтобы не трогать id существующей записи
	query := `
		INSERT OR IGNORE INTO players (telegram_id, username, first_name, last_name, is_admin, notification_enabled, notification_hour, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`
	_, err := DB.Exec(
		query,
		player.TelegramID,
		player.Username,
		player.FirstName,
		player.LastName,
		player.IsAdmin,
		player.NotificationEnabled,
		player.NotificationHour,
	)
	if err != nil {
		return fmt.Errorf("failed to create player: %v", err)
	}

	return DB.QueryRow("SELECT id, created_at, updated_at FROM players WHERE telegram_id = ?", player.TelegramID).
		Scan(&player.ID, &player.CreatedAt, &player.UpdatedAt)
}

// Update modifies player settings
func (r *PlayerRepository) Update(player *models.Player) error {
	if DB.DriverName() == "postgres" {
		query := `
			UPDATE players SET
				username = $1,
				first_name = $2,
				last_name = $3,
				is_admin = $4,
				notification_enabled = $5,
				notification_hour = $6,
				updated_at = NOW()
			WHERE id = $7
			RETURNING updated_at
		`
		return DB.QueryRow(
			query,
			player.Username,
			player.FirstName,
			player.LastName,
			player.IsAdmin,
			player.NotificationEnabled,
			player.NotificationHour,
			player.ID,
		).Scan(&player.UpdatedAt)
	}

	query := `
		UPDATE players SET
			username = ?,
			first_name = ?,
			last_name = ?,
			is_admin = ?,
			notification_enabled = ?,
			notification_hour = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := DB.Exec(
		query,
		player.Username,
		player.FirstName,
		player.LastName,
		player.IsAdmin,
		player.NotificationEnabled,
		player.NotificationHour,
		player.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update player: %v", err)
	}
	return nil
}

// Delete removes a player
func (r *PlayerRepository) Delete(id int64) error {
	_, err := DB.Exec("DELETE FROM players WHERE id = $1", id)
	return err
}

// Count returns the total number of registered players
func (r *PlayerRepository) Count() (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM players")
	if err != nil {
		return 0, fmt.Errorf("failed to count players: %v", err)
	}
	return count, nil
}

// GetPlayersForHour returns players who asked to be notified at the
// given hour of day
func (r *PlayerRepository) GetPlayersForHour(hour int) ([]models.Player, error) {
	var players []models.Player
	err := DB.Select(&players,
		"SELECT * FROM players WHERE notification_enabled = true AND notification_hour = $1", hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get players for hour: %v", err)
	}
	return players, nil
}

// GetNotifiable returns all players with notifications enabled
func (r *PlayerRepository) GetNotifiable() ([]models.Player, error) {
	var players []models.Player
	err := DB.Select(&players, "SELECT * FROM players WHERE notification_enabled = true")
	if err != nil {
		return nil, fmt.Errorf("failed to get notifiable players: %v", err)
	}
	return players, nil
}
