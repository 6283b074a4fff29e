// Package store persists spots, snapshots, and assessments in SQLite.
//
// All source records reference their snapshot with a RESTRICT foreign key,
// so a record can never be deleted while its snapshot exists. Snapshots are
// never deleted either; bad captures are soft-discarded via the discarded
// flag.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite handle and the preview image directory.
type Store struct {
	db       *sql.DB
	imageDir string
	logger   *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema. Preview image bytes live under imageDir, not in the database.
func Open(path, imageDir string, logger *slog.Logger) (*Store, error) {
	// Pragmas go in the DSN so every pooled connection gets them. SQLite
	// ships with foreign keys off, and the delete-protection on source
	// records depends on them.
	dsn := "file:" + path +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if imageDir != "" {
		if err := os.MkdirAll(imageDir, 0o755); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating image dir: %w", err)
		}
	}

	return &Store{db: db, imageDir: imageDir, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// CheckReadiness reports whether the database answers queries.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS spots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL UNIQUE,
	lat TEXT NOT NULL,
	lon TEXT NOT NULL,
	buoy_station TEXT NOT NULL DEFAULT '',
	windy_webcam_id TEXT NOT NULL DEFAULT '',
	ipcam_alias TEXT NOT NULL DEFAULT '',
	created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS spot_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	spot_id INTEGER NOT NULL REFERENCES spots(id) ON DELETE RESTRICT,
	created TEXT NOT NULL,
	discarded INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_snapshots_spot_created ON spot_snapshots(spot_id, created);

CREATE TABLE IF NOT EXISTS buoy_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_id INTEGER NOT NULL UNIQUE REFERENCES spot_snapshots(id) ON DELETE RESTRICT,
	station TEXT NOT NULL,
	as_of TEXT NOT NULL,
	wave_height TEXT NOT NULL,
	period TEXT NOT NULL,
	direction TEXT NOT NULL,
	created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS weather_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_id INTEGER NOT NULL UNIQUE REFERENCES spot_snapshots(id) ON DELETE RESTRICT,
	lat TEXT NOT NULL,
	lon TEXT NOT NULL,
	temperature TEXT NOT NULL,
	rh TEXT NOT NULL,
	dew_point TEXT NOT NULL,
	daily_rain TEXT,
	pressure TEXT NOT NULL,
	wind_direction TEXT NOT NULL,
	wind_cardinal TEXT NOT NULL,
	wind_speed TEXT NOT NULL,
	distance TEXT NOT NULL,
	tmin TEXT,
	tmed TEXT,
	tmax TEXT,
	created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS webcam_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_id INTEGER NOT NULL REFERENCES spot_snapshots(id) ON DELETE RESTRICT,
	provider TEXT NOT NULL,
	webcam_ref TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	view_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT '',
	last_updated_on TEXT NOT NULL DEFAULT '',
	preview_path TEXT NOT NULL DEFAULT '',
	created TEXT NOT NULL,
	UNIQUE(snapshot_id, provider)
);

CREATE TABLE IF NOT EXISTS assessments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_id INTEGER NOT NULL UNIQUE REFERENCES spot_snapshots(id) ON DELETE RESTRICT,
	wave_size_score TEXT NOT NULL,
	created TEXT NOT NULL
);
`

// timeFormat keeps sub-second precision and sorts lexicographically within
// a single offset, which the created indexes rely on.
const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timeFormat) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}
