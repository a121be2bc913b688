package store

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dvidovic/lokator/internal/record"
)

// sqliteMagic is the 16-byte header every SQLite database starts with.
var sqliteMagic = []byte("SQLite format 3\x00")

// IsSnapshot reports whether content is an SQLite snapshot rather than
// delimited text.
func IsSnapshot(b []byte) bool {
	if len(b) < len(sqliteMagic) {
		return false
	}
	return string(b[:len(sqliteMagic)]) == string(sqliteMagic)
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS tracker (
	record_id     TEXT PRIMARY KEY,
	datum         TEXT NOT NULL,
	dan           TEXT NOT NULL DEFAULT '',
	person_name   TEXT NOT NULL,
	department    TEXT NOT NULL DEFAULT '',
	location      TEXT NOT NULL DEFAULT '',
	week          INTEGER NOT NULL DEFAULT 0,
	month         INTEGER NOT NULL DEFAULT 0,
	year          INTEGER NOT NULL DEFAULT 0,
	date_iso      TEXT NOT NULL DEFAULT '',
	employee_id   TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL DEFAULT '',
	updated_at    TEXT NOT NULL DEFAULT '',
	version       INTEGER NOT NULL DEFAULT 1,
	source        TEXT NOT NULL DEFAULT '',
	location_id   TEXT NOT NULL DEFAULT '',
	location_name TEXT NOT NULL DEFAULT '',
	note          TEXT NOT NULL DEFAULT ''
);
`

// WriteSnapshot writes the ledger as an SQLite database at path. The
// snapshot holds the canonical columns only; extra pass-through columns
// live in the delimited format.
func WriteSnapshot(path string, ledger []record.Record) error {
	// Build into a temp file and rename, same contract as the text writers.
	tmp, err := os.CreateTemp("", "tracker-snapshot-*.db")
	if err != nil {
		return fmt.Errorf("store: snapshot temp: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	os.Remove(tmpName) // sqlite wants to create the file itself

	if err := writeSnapshotDB(tmpName, ledger); err != nil {
		os.Remove(tmpName)
		return err
	}
	b, err := os.ReadFile(tmpName)
	os.Remove(tmpName)
	if err != nil {
		return fmt.Errorf("store: read snapshot temp: %w", err)
	}
	return WriteFileAtomic(path, b)
}

func writeSnapshotDB(path string, ledger []record.Record) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("store: open snapshot: %w", err)
	}
	defer db.Close()
	if _, err := db.Exec(snapshotSchema); err != nil {
		return fmt.Errorf("store: snapshot schema: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("store: snapshot tx: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO tracker
		(record_id, datum, dan, person_name, department, location,
		 week, month, year, date_iso, employee_id,
		 created_at, updated_at, version, source,
		 location_id, location_name, note)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("store: snapshot prepare: %w", err)
	}
	for _, r := range ledger {
		id := r.RecordID
		if id == "" {
			id = record.NewID(r.Owner(), r.DateISO)
		}
		if _, err := stmt.Exec(
			id, r.Datum, r.Dan, r.PersonName, r.Department, r.Location,
			r.Week, r.Month, r.Year, r.DateISO, r.EmployeeID,
			r.CreatedAt, r.UpdatedAt, r.Version, r.Source,
			r.LocationID, r.LocationName, r.Note,
		); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("store: snapshot insert: %w", err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: snapshot commit: %w", err)
	}
	return nil
}

// ReadSnapshot loads a ledger from an SQLite snapshot file.
func ReadSnapshot(path string) ([]record.Record, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open snapshot: %w", err)
	}
	defer db.Close()
	rows, err := db.Query(`SELECT record_id, datum, dan, person_name, department, location,
		week, month, year, date_iso, employee_id,
		created_at, updated_at, version, source,
		location_id, location_name, note FROM tracker`)
	if err != nil {
		return nil, fmt.Errorf("store: snapshot query: %w", err)
	}
	defer rows.Close()
	var out []record.Record
	for rows.Next() {
		var r record.Record
		if err := rows.Scan(
			&r.RecordID, &r.Datum, &r.Dan, &r.PersonName, &r.Department, &r.Location,
			&r.Week, &r.Month, &r.Year, &r.DateISO, &r.EmployeeID,
			&r.CreatedAt, &r.UpdatedAt, &r.Version, &r.Source,
			&r.LocationID, &r.LocationName, &r.Note,
		); err != nil {
			return nil, fmt.Errorf("store: snapshot scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: snapshot rows: %w", err)
	}
	return out, nil
}

// ReadSnapshotBytes loads a ledger from in-memory snapshot content, as
// returned by the remote store. SQLite reads from files, so the bytes
// take a detour through a temp file.
func ReadSnapshotBytes(b []byte) ([]record.Record, error) {
	tmp, err := os.CreateTemp("", "tracker-snapshot-*.db")
	if err != nil {
		return nil, fmt.Errorf("store: snapshot temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("store: snapshot temp write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("store: snapshot temp close: %w", err)
	}
	return ReadSnapshot(tmpName)
}
