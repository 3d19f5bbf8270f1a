package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/ds124wfegd/classbooker/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	// Read migration files and execute them
	// This is a simplified version - you might want to use a proper migration tool
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS class_sessions (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			country_id BIGINT NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NOT NULL,
			required_credits INTEGER NOT NULL,
			max_capacity INTEGER NOT NULL,
			current_bookings INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS user_packages (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			country_id BIGINT NOT NULL,
			total_credits INTEGER NOT NULL,
			remaining_credits INTEGER NOT NULL,
			purchase_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expiry_date TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT user_packages_remaining_non_negative CHECK (remaining_credits >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			session_id INTEGER REFERENCES class_sessions(id),
			user_package_id INTEGER REFERENCES user_packages(id),
			credits_used INTEGER NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'booked',
			is_checked_in BOOLEAN NOT NULL DEFAULT FALSE,
			check_in_time TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS waitlist_entries (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			session_id INTEGER REFERENCES class_sessions(id),
			user_package_id INTEGER REFERENCES user_packages(id),
			credits_reserved INTEGER NOT NULL,
			position INTEGER NOT NULL,
			is_promoted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_session_id ON bookings(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_status ON bookings(user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON class_sessions(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_end_time ON class_sessions(end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_user_id ON user_packages(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_waitlist_session_pending ON waitlist_entries(session_id, is_promoted)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_waitlist_session_position ON waitlist_entries(session_id, position)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
