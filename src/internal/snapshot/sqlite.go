// FILE: trafficview/src/internal/snapshot/sqlite.go
package snapshot

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"trafficview/src/internal/core"
	"trafficview/src/internal/dataset"
	"trafficview/src/internal/ingest"

	_ "modernc.org/sqlite"
)

// ErrNoSnapshot is returned by LoadLatest when the directory holds none
var ErrNoSnapshot = errors.New("no snapshot found")

const schema = `
CREATE TABLE meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE columns (
	position INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE objects (
	position INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	last_modified TEXT NOT NULL,
	size INTEGER NOT NULL
);
CREATE TABLE records (
	position INTEGER PRIMARY KEY,
	source TEXT NOT NULL,
	line INTEGER NOT NULL,
	object_last_modified TEXT NOT NULL,
	fields JSON NOT NULL
);
CREATE INDEX idx_records_source ON records(source, line);
`

func writeSQLite(path string, d *dataset.Dataset) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	// Bulk insert into a fresh file; durability comes from the final rename
	for _, pragma := range []string{"PRAGMA synchronous = OFF", "PRAGMA journal_mode = MEMORY"} {
		if _, err := db.Exec(pragma); err != nil {
			return err
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fillTx(tx, d); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func fillTx(tx *sql.Tx, d *dataset.Dataset) error {
	parseErrors, err := json.Marshal(d.ParseErrors)
	if err != nil {
		return err
	}
	meta := map[string]string{
		"generation":   strconv.FormatUint(d.Generation, 10),
		"built_at":     d.BuiltAt.UTC().Format(time.RFC3339Nano),
		"sort_field":   d.SortField,
		"lines":        strconv.Itoa(d.Lines),
		"parse_errors": string(parseErrors),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert meta: %w", err)
		}
	}

	for i, name := range d.DataColumns() {
		if _, err := tx.Exec(`INSERT INTO columns (position, name) VALUES (?, ?)`, i, name); err != nil {
			return fmt.Errorf("insert column: %w", err)
		}
	}

	for i, obj := range d.Objects {
		if _, err := tx.Exec(`INSERT INTO objects (position, name, last_modified, size) VALUES (?, ?, ?, ?)`,
			i, obj.Name, obj.LastModified.UTC().Format(time.RFC3339Nano), obj.Size); err != nil {
			return fmt.Errorf("insert object: %w", err)
		}
	}

	stmt, err := tx.Prepare(`INSERT INTO records (position, source, line, object_last_modified, fields) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < d.Len(); i++ {
		rec := d.Record(i)
		fields, err := rec.Fields.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
		if _, err := stmt.Exec(i, rec.Source, rec.Line, rec.ObjectLastModified.UTC().Format(time.RFC3339Nano), string(fields)); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	return nil
}

// LoadLatest restores the newest SQLite snapshot in dir.
func LoadLatest(dir string) (*dataset.Dataset, string, error) {
	files, err := List(dir, ExtSQLite)
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", ErrNoSnapshot
	}
	d, err := Load(files[0].Path)
	return d, files[0].Path, err
}

// Load reads a SQLite snapshot back into a Dataset in its stored order.
func Load(path string) (*dataset.Dataset, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	meta, err := loadMeta(db)
	if err != nil {
		return nil, err
	}

	generation, _ := strconv.ParseUint(meta["generation"], 10, 64)
	builtAt, err := time.Parse(time.RFC3339Nano, meta["built_at"])
	if err != nil {
		return nil, fmt.Errorf("snapshot built_at: %w", err)
	}
	var parseErrors dataset.ParseErrorSummary
	if raw := meta["parse_errors"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &parseErrors); err != nil {
			return nil, fmt.Errorf("snapshot parse_errors: %w", err)
		}
	}

	columns, err := loadColumns(db)
	if err != nil {
		return nil, err
	}
	objects, err := loadObjects(db)
	if err != nil {
		return nil, err
	}
	records, err := loadRecords(db)
	if err != nil {
		return nil, err
	}

	d := dataset.Restore(generation, builtAt, columns, records, objects, parseErrors)
	d.SortField = meta["sort_field"]
	d.Lines, _ = strconv.Atoi(meta["lines"])
	return d, nil
}

func loadMeta(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func loadColumns(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT name FROM columns ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func loadObjects(db *sql.DB) ([]core.ObjectRef, error) {
	rows, err := db.Query(`SELECT name, last_modified, size FROM objects ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("read objects: %w", err)
	}
	defer rows.Close()

	var objects []core.ObjectRef
	for rows.Next() {
		var (
			ref core.ObjectRef
			lm  string
		)
		if err := rows.Scan(&ref.Name, &lm, &ref.Size); err != nil {
			return nil, err
		}
		ref.LastModified, _ = time.Parse(time.RFC3339Nano, lm)
		objects = append(objects, ref)
	}
	return objects, rows.Err()
}

func loadRecords(db *sql.DB) ([]*core.Record, error) {
	rows, err := db.Query(`SELECT source, line, object_last_modified, fields FROM records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	defer rows.Close()

	var records []*core.Record
	for rows.Next() {
		var (
			rec    core.Record
			lm     string
			fields []byte
		)
		if err := rows.Scan(&rec.Source, &rec.Line, &lm, &fields); err != nil {
			return nil, err
		}
		rec.ObjectLastModified, _ = time.Parse(time.RFC3339Nano, lm)
		rec.Fields, err = ingest.ParseFields(fields)
		if err != nil {
			return nil, fmt.Errorf("record %s:%d: %w", rec.Source, rec.Line, err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
