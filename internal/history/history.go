// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package history keeps a local SQLite log of sensor samples.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/GermanBionicSystems/clickdevices/temphum18"
)

const schema = `
CREATE TABLE IF NOT EXISTS readings (
  id              INTEGER PRIMARY KEY AUTOINCREMENT,
  ts              TEXT    NOT NULL,
  temperature_c   REAL    NOT NULL,
  humidity_pct    REAL    NOT NULL,
  resolution_bits INTEGER NOT NULL,
  status          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_ts ON readings(ts);
`

const insertReading = `
INSERT INTO readings (ts, temperature_c, humidity_pct, resolution_bits, status)
VALUES (?, ?, ?, ?, ?)`

const latestReadings = `
SELECT ts, temperature_c, humidity_pct, resolution_bits, status
FROM readings
ORDER BY id DESC
LIMIT ?`

// Reading is a stored sample.
type Reading struct {
	Time       time.Time
	Sample     temphum18.Sample
	Resolution temphum18.Resolution
}

// Store is a SQLite backed log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. Use ":memory:" for a
// transient store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	// A single writer, and ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Insert appends r to the log.
func (s *Store) Insert(ctx context.Context, r Reading) error {
	_, err := s.db.ExecContext(ctx, insertReading,
		r.Time.UTC().Format(time.RFC3339Nano),
		r.Sample.Temperature,
		r.Sample.Humidity,
		r.Resolution.Bits(),
		int(r.Sample.Status),
	)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Latest returns up to n readings, newest first.
func (s *Store) Latest(ctx context.Context, n int) ([]Reading, error) {
	rows, err := s.db.QueryContext(ctx, latestReadings, n)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()
	var out []Reading
	for rows.Next() {
		var (
			ts     string
			bits   int
			status int
			r      Reading
		)
		if err := rows.Scan(&ts, &r.Sample.Temperature, &r.Sample.Humidity, &bits, &status); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if r.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("history: timestamp %q: %w", ts, err)
		}
		if r.Resolution, err = temphum18.ParseResolution(bits); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		r.Sample.Status = temphum18.Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
