package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/academic-record-api/pkg/config"
)

// Schema creates the record store tables when absent. The three tables are always
// written together inside one transaction by the record repository.
const Schema = `
CREATE TABLE IF NOT EXISTS student_records (
	user_id                 TEXT PRIMARY KEY,
	current_semester        INTEGER NOT NULL DEFAULT 1 CHECK (current_semester >= 1),
	cumulative_credits      INTEGER NOT NULL DEFAULT 0,
	cumulative_grade_points INTEGER NOT NULL DEFAULT 0,
	version                 BIGINT NOT NULL DEFAULT 1,
	created_at              TIMESTAMPTZ NOT NULL,
	updated_at              TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS open_subjects (
	user_id  TEXT NOT NULL REFERENCES student_records(user_id),
	code     TEXT NOT NULL,
	name     TEXT NOT NULL,
	credits  INTEGER NOT NULL CHECK (credits BETWEEN 1 AND 6),
	position INTEGER NOT NULL,
	PRIMARY KEY (user_id, code)
);

CREATE TABLE IF NOT EXISTS semester_records (
	user_id         TEXT NOT NULL REFERENCES student_records(user_id),
	semester_number INTEGER NOT NULL,
	sgpa            NUMERIC(4,2) NOT NULL,
	subjects        JSONB NOT NULL,
	completed_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, semester_number)
);
`

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies Schema.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("apply record schema: %w", err)
	}
	return nil
}
