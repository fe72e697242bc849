package metadata

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const createTraceTable = `
CREATE TABLE IF NOT EXISTS traces (
	fid            TEXT PRIMARY KEY,
	timestamp      TEXT,
	latitude       REAL,
	longitude      REAL,
	altitude       REAL,
	fix_quality    INTEGER,
	num_sats       INTEGER,
	sample_rate    REAL,
	vertical_range REAL
)`

// ExportSQLite writes the fully parsed records into a SQLite database at
// path, keyed by FID. Existing rows with the same FID are replaced, so the
// export can be re-run after further extraction.
func (l *List) ExportSQLite(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open metadata db: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createTraceTable); err != nil {
		return fmt.Errorf("create traces table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO traces
		(fid, timestamp, latitude, longitude, altitude, fix_quality, num_sats, sample_rate, vertical_range)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range l.records[:l.complete] {
		if _, err := stmt.ExecContext(ctx,
			r.FID, r.Timestamp, r.Latitude, r.Longitude, r.Altitude,
			r.FixQuality, r.NumSats, r.SampleRate, r.VerticalRange); err != nil {
			return fmt.Errorf("insert fid %s: %w", r.FID, err)
		}
	}

	return tx.Commit()
}
