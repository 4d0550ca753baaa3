package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type PSQLStorage struct {
	db *sql.DB
}

// Creates a new Postgres Storage using the provided connection string.
//
// If clearDB is true, the database will be cleared on startup. You
// probably only want this for testing.
func NewPSQLStorage(connStr string, clearDB bool) (*PSQLStorage, error) {
	connector, err := pq.NewConnector(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	db := sql.OpenDB(connector)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if clearDB {
		_, err = db.Exec(`DROP TABLE IF EXISTS observation;`)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("clearing db: %w", err)
		}
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS observation (
    id BIGSERIAL PRIMARY KEY,
    stop_id TEXT NOT NULL,
    route TEXT NOT NULL,
    destination TEXT NOT NULL,
    mode TEXT NOT NULL,
    due INTEGER NOT NULL,
    delay INTEGER NOT NULL,
    real_time BOOLEAN NOT NULL,
    available BOOLEAN NOT NULL,
    observed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS observation_stop ON observation (stop_id, observed_at);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating observation table: %w", err)
	}

	return &PSQLStorage{
		db: db,
	}, nil
}

func (s *PSQLStorage) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close db: %w", err)
	}
	return nil
}

func (s *PSQLStorage) WriteObservation(o *Observation) error {
	_, err := s.db.Exec(`
INSERT INTO observation (
    stop_id,
    route,
    destination,
    mode,
    due,
    delay,
    real_time,
    available,
    observed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.StopID,
		o.Route,
		o.Destination,
		o.Mode,
		o.Due,
		o.Delay,
		o.RealTime,
		o.Available,
		o.ObservedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting observation: %w", err)
	}
	return nil
}

func (s *PSQLStorage) ListObservations(filter ListObservationsFilter) ([]*Observation, error) {
	query := `
SELECT
    stop_id,
    route,
    destination,
    mode,
    due,
    delay,
    real_time,
    available,
    observed_at
FROM observation`

	conditions := []string{}
	params := []interface{}{}
	if filter.StopID != "" {
		params = append(params, filter.StopID)
		conditions = append(conditions, fmt.Sprintf("stop_id = $%d", len(params)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY observed_at DESC, id DESC"
	if filter.Limit > 0 {
		params = append(params, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(params))
	}

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	observations := []*Observation{}
	for rows.Next() {
		o := &Observation{}
		err := rows.Scan(
			&o.StopID,
			&o.Route,
			&o.Destination,
			&o.Mode,
			&o.Due,
			&o.Delay,
			&o.RealTime,
			&o.Available,
			&o.ObservedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		o.ObservedAt = o.ObservedAt.UTC()
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating observations: %w", err)
	}

	return observations, nil
}
