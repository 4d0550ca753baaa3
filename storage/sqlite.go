package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

type SQLiteStorage struct {
	SQLiteConfig

	db *sql.DB
}

func NewSQLiteStorage(cfg ...SQLiteConfig) (*SQLiteStorage, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	sourceName := ":memory:"
	if onDisk {
		sourceName = directory + "/transportnsw.db"
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS observation (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    stop_id TEXT NOT NULL,
    route TEXT NOT NULL,
    destination TEXT NOT NULL,
    mode TEXT NOT NULL,
    due INTEGER NOT NULL,
    delay INTEGER NOT NULL,
    real_time BOOLEAN NOT NULL,
    available BOOLEAN NOT NULL,
    observed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS observation_stop ON observation (stop_id, observed_at);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating observation table: %w", err)
	}

	return &SQLiteStorage{
		SQLiteConfig: SQLiteConfig{
			OnDisk:    onDisk,
			Directory: directory,
		},
		db: db,
	}, nil
}

func (s *SQLiteStorage) WriteObservation(o *Observation) error {
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
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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

func (s *SQLiteStorage) ListObservations(filter ListObservationsFilter) ([]*Observation, error) {
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
		conditions = append(conditions, "stop_id = ?")
		params = append(params, filter.StopID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY observed_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		params = append(params, filter.Limit)
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

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
