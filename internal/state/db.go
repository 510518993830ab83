// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		-- Reward rate active at each epoch start. Audit/history trail only;
		-- the accrual math never reads it back.
		CREATE TABLE IF NOT EXISTS epoch_rates (
			gauge_address VARCHAR(128) NOT NULL,
			epoch_start BIGINT NOT NULL,
			reward_rate NUMERIC(78, 0) NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (gauge_address, epoch_start)
		);
		CREATE INDEX IF NOT EXISTS idx_epoch_rates_recorded ON epoch_rates(recorded_at DESC);

		-- Journal of every mutating ledger operation.
		CREATE TABLE IF NOT EXISTS gauge_events (
			event_id UUID PRIMARY KEY,
			gauge_address VARCHAR(128) NOT NULL,
			kind VARCHAR(32) NOT NULL,
			actor VARCHAR(128) NOT NULL,
			account VARCHAR(128),
			amount NUMERIC(78, 0) NOT NULL,
			amount1 NUMERIC(78, 0),
			event_timestamp TIMESTAMPTZ NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_gauge_events_timestamp ON gauge_events(event_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_gauge_events_kind ON gauge_events(kind);
		CREATE INDEX IF NOT EXISTS idx_gauge_events_account ON gauge_events(account);
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
