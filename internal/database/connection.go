package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. PostgreSQL is
// used when DATABASE_URL is set, otherwise a local SQLite file.
func Connect() error {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		db, err := sqlx.Connect("postgres", url)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
		DB = db
		return initializeSchema()
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		// Create data directory if it doesn't exist
		dataDir := "data"
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}
		dbPath = filepath.Join(dataDir, "aipacdle.db")
	}

	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
	db.SetMaxIdleConns(1)

	DB = db

	// Initialize schema
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	// SQLite и Postgres называют автоинкремент по-разному
	autoPK := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if DB.DriverName() == "postgres" {
		autoPK = "BIGSERIAL PRIMARY KEY"
	}

	// Create puzzles table
	_, err := DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS puzzles (
			id %s,
			puzzle_date TEXT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			subject TEXT,
			description TEXT,
			image_url TEXT,
			source_url TEXT,
			amount BIGINT NOT NULL,
			range_min BIGINT NOT NULL,
			range_max BIGINT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, autoPK))
	if err != nil {
		return fmt.Errorf("failed to create puzzles table: %v", err)
	}

	// Create players table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS players (
			id %s,
			telegram_id BIGINT UNIQUE NOT NULL,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			is_admin BOOLEAN DEFAULT false,
			notification_enabled BOOLEAN DEFAULT true,
			notification_hour INTEGER DEFAULT 9,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, autoPK))
	if err != nil {
		return fmt.Errorf("failed to create players table: %v", err)
	}

	// Create sessions table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS sessions (
			id %s,
			player_id BIGINT NOT NULL,
			puzzle_id BIGINT NOT NULL,
			puzzle_date TEXT NOT NULL,
			guesses TEXT NOT NULL DEFAULT '[]',
			revealed BOOLEAN DEFAULT false,
			forfeited BOOLEAN DEFAULT false,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (player_id) REFERENCES players(id),
			FOREIGN KEY (puzzle_id) REFERENCES puzzles(id),
			UNIQUE(player_id, puzzle_date)
		)
	`, autoPK))
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %v", err)
	}

	// Create results table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS results (
			id %s,
			player_id BIGINT NOT NULL,
			puzzle_id BIGINT NOT NULL,
			puzzle_date TEXT NOT NULL,
			guess_count INTEGER NOT NULL,
			final_error DOUBLE PRECISION NOT NULL,
			grade TEXT NOT NULL,
			stars INTEGER NOT NULL,
			forfeited BOOLEAN DEFAULT false,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (player_id) REFERENCES players(id),
			FOREIGN KEY (puzzle_id) REFERENCES puzzles(id),
			UNIQUE(player_id, puzzle_date)
		)
	`, autoPK))
	if err != nil {
		return fmt.Errorf("failed to create results table: %v", err)
	}

	return nil
}
