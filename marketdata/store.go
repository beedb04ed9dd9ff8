package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// Store persists fixing series in Postgres.
type Store struct {
	db *sql.DB
}

// OpenStore connects to Postgres with the given DSN.
func OpenStore(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("marketdata.OpenStore: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("marketdata.OpenStore: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the fixings table if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fixings (
			series TEXT             NOT NULL,
			date   DATE             NOT NULL,
			rate   DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (series, date)
		)`)
	if err != nil {
		return fmt.Errorf("marketdata.EnsureSchema: %w", err)
	}
	return nil
}

// SaveFixings upserts a fixing series. Rates are in percent.
func (s *Store) SaveFixings(ctx context.Context, series string, fixings map[time.Time]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("marketdata.SaveFixings: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fixings (series, date, rate)
		VALUES ($1, $2, $3)
		ON CONFLICT (series, date) DO UPDATE SET rate = EXCLUDED.rate`)
	if err != nil {
		return fmt.Errorf("marketdata.SaveFixings: %w", err)
	}
	defer stmt.Close()

	for date, rate := range fixings {
		if _, err := stmt.ExecContext(ctx, series, date, rate); err != nil {
			return fmt.Errorf("marketdata.SaveFixings: %s: %w", date.Format(dateLayout), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("marketdata.SaveFixings: %w", err)
	}
	return nil
}

// Fixings loads a fixing series keyed by UTC date.
func (s *Store) Fixings(ctx context.Context, series string) (map[time.Time]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, rate FROM fixings WHERE series = $1 ORDER BY date`, series)
	if err != nil {
		return nil, fmt.Errorf("marketdata.Fixings: %w", err)
	}
	defer rows.Close()

	out := map[time.Time]float64{}
	for rows.Next() {
		var date time.Time
		var rate float64
		if err := rows.Scan(&date, &rate); err != nil {
			return nil, fmt.Errorf("marketdata.Fixings: %w", err)
		}
		out[time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("marketdata.Fixings: %w", err)
	}
	return out, nil
}
