package logstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore mirrors log records into an insert-only table, for operators
// who want the log off-box as well as on the local filesystem. It never
// reads, updates, or deletes rows.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a Postgres store.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("postgres store: nil db")
	}
	return &PostgresStore{db: db}, nil
}

// EnsureSchema creates the log table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS monitor_log (
			id BIGSERIAL PRIMARY KEY,
			at TIMESTAMPTZ NOT NULL,
			temperature_c DOUBLE PRECISION,
			humidity_pct DOUBLE PRECISION,
			temp_status TEXT,
			humidity_status TEXT,
			notification_sent BOOLEAN NOT NULL DEFAULT FALSE,
			error TEXT
		)`)
	if err != nil {
		return fmt.Errorf("postgres store: ensure schema: %w", err)
	}
	return nil
}

// Append implements Store.
func (s *PostgresStore) Append(ctx context.Context, entry Record) error {
	var temp, hum sql.NullFloat64
	if entry.Sample != nil {
		temp = sql.NullFloat64{Float64: entry.Sample.TemperatureC, Valid: true}
		hum = sql.NullFloat64{Float64: entry.Sample.HumidityPct, Valid: true}
	}
	var errText sql.NullString
	if entry.Error != "" {
		errText = sql.NullString{String: entry.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monitor_log (at, temperature_c, humidity_pct, temp_status, humidity_status, notification_sent, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.Time.UTC(), temp, hum,
		nullStatus(string(entry.TempStatus)), nullStatus(string(entry.HumidityStatus)),
		entry.NotificationSent, errText,
	)
	if err != nil {
		return fmt.Errorf("postgres store: insert: %w", err)
	}
	return nil
}

func nullStatus(status string) sql.NullString {
	if status == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: status, Valid: true}
}
