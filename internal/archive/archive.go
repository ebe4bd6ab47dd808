// Package archive provides SQLite-backed persistence for measurement rows,
// so a report survives across tool sessions.
package archive

import (
	"database/sql"

	"starpick/internal/report"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite-backed persistence for measurement rows.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS measurements (
            name TEXT PRIMARY KEY,
            channel TEXT,
            target TEXT,
            date TEXT,
            location TEXT,
            x REAL,
            y REAL,
            ra REAL,
            dec REAL,
            has_pixel INTEGER NOT NULL DEFAULT 0,
            has_sky INTEGER NOT NULL DEFAULT 0,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_measurements_target ON measurements(target);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores a row keyed by image name, replacing any prior row.
func (s *Store) Put(row report.Row) error {
	_, err := s.db.Exec(
		`INSERT INTO measurements
            (name, channel, target, date, location, x, y, ra, dec, has_pixel, has_sky, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
         ON CONFLICT(name) DO UPDATE SET
            channel=excluded.channel, target=excluded.target, date=excluded.date,
            location=excluded.location, x=excluded.x, y=excluded.y,
            ra=excluded.ra, dec=excluded.dec,
            has_pixel=excluded.has_pixel, has_sky=excluded.has_sky,
            updated_at=CURRENT_TIMESTAMP`,
		row.Name, row.Channel, row.Target, row.Date, row.Location,
		row.X, row.Y, row.RA, row.Dec, boolInt(row.HasPixel), boolInt(row.HasSky),
	)
	return err
}

// Rows returns all stored rows ordered by image name.
func (s *Store) Rows() ([]report.Row, error) {
	rows, err := s.db.Query(
		`SELECT name, channel, target, date, location, x, y, ra, dec, has_pixel, has_sky
         FROM measurements ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var r report.Row
		var hasPixel, hasSky int
		if err := rows.Scan(&r.Name, &r.Channel, &r.Target, &r.Date, &r.Location,
			&r.X, &r.Y, &r.RA, &r.Dec, &hasPixel, &hasSky); err != nil {
			return nil, err
		}
		r.HasPixel = hasPixel != 0
		r.HasSky = hasSky != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// Clear removes all stored rows.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM measurements`)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
