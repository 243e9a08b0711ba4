package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"salaryprep/internal"
)

// MetaActiveSchema is the metadata key holding the schema id used by default.
const MetaActiveSchema = "active_schema"

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS schemas (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  rowsFit INTEGER NOT NULL,
  columnsJson TEXT NOT NULL,
  body TEXT NOT NULL,
  createdAt TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schemas_createdAt ON schemas(createdAt);

CREATE TABLE IF NOT EXISTS datasets (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  path TEXT NOT NULL,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  schemaId TEXT,
  outputPath TEXT,
  error TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(path, hash)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  mode TEXT NOT NULL,
  schemaId TEXT,
  input TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveSchema inserts or replaces a schema by id.
func (d *DB) SaveSchema(rec internal.SchemaRecord) error {
	columnsJSON, err := json.Marshal(rec.Columns)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
INSERT INTO schemas (id, name, rowsFit, columnsJson, body, createdAt)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  rowsFit=excluded.rowsFit,
  columnsJson=excluded.columnsJson,
  body=excluded.body,
  createdAt=excluded.createdAt
`, rec.ID, rec.Name, rec.RowsFit, string(columnsJSON), rec.Body, rec.CreatedAt)
	return err
}

func scanSchema(scan func(dest ...any) error) (internal.SchemaRecord, error) {
	var rec internal.SchemaRecord
	var columnsJSON string
	if err := scan(&rec.ID, &rec.Name, &rec.RowsFit, &columnsJSON, &rec.Body, &rec.CreatedAt); err != nil {
		return internal.SchemaRecord{}, err
	}
	if err := json.Unmarshal([]byte(columnsJSON), &rec.Columns); err != nil {
		return internal.SchemaRecord{}, fmt.Errorf("schema %s: decode columns: %w", rec.ID, err)
	}
	return rec, nil
}

// GetSchema returns nil when no schema has that id.
func (d *DB) GetSchema(id string) (*internal.SchemaRecord, error) {
	row := d.conn.QueryRow(`
SELECT id, name, rowsFit, columnsJson, body, createdAt
FROM schemas WHERE id = ?
`, id)
	rec, err := scanSchema(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// LatestSchema returns the most recently created schema, or nil.
func (d *DB) LatestSchema() (*internal.SchemaRecord, error) {
	row := d.conn.QueryRow(`
SELECT id, name, rowsFit, columnsJson, body, createdAt
FROM schemas ORDER BY createdAt DESC, rowid DESC LIMIT 1
`)
	rec, err := scanSchema(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (d *DB) ListSchemas() ([]internal.SchemaRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, name, rowsFit, columnsJson, body, createdAt
FROM schemas ORDER BY createdAt DESC, rowid DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SchemaRecord
	for rows.Next() {
		rec, err := scanSchema(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MustSchema resolves id, or the active schema, or the latest one.
func (d *DB) MustSchema(id string) (internal.SchemaRecord, error) {
	if id == "" {
		active, err := d.GetMetadata(MetaActiveSchema)
		if err != nil {
			return internal.SchemaRecord{}, err
		}
		if active != nil {
			id = *active
		}
	}
	var (
		rec *internal.SchemaRecord
		err error
	)
	if id == "" {
		rec, err = d.LatestSchema()
	} else {
		rec, err = d.GetSchema(id)
	}
	if err != nil {
		return internal.SchemaRecord{}, err
	}
	if rec == nil {
		if id == "" {
			return internal.SchemaRecord{}, errors.New("no schema stored, run fit first")
		}
		return internal.SchemaRecord{}, fmt.Errorf("schema not found: %s", id)
	}
	return *rec, nil
}

func (d *DB) InsertRun(run internal.RunRow) error {
	timingsJSON, err := json.Marshal(run.Timings)
	if err != nil {
		return fmt.Errorf("marshal run timings: %w", err)
	}
	countsJSON, err := json.Marshal(run.Counts)
	if err != nil {
		return fmt.Errorf("marshal run counts: %w", err)
	}
	_, err = d.conn.Exec(`
INSERT INTO runs (traceId, mode, schemaId, input, timingsJson, countsJson)
VALUES (?, ?, ?, ?, ?, ?)
`, run.TraceID, string(run.Mode), run.SchemaID, run.Input, string(timingsJSON), string(countsJSON))
	return err
}

// ListRuns returns the newest runs first.
func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`
SELECT traceId, mode, schemaId, input, timingsJson, countsJson
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var run internal.RunRow
		var mode, timingsJSON, countsJSON string
		if err := rows.Scan(&run.TraceID, &mode, &run.SchemaID, &run.Input, &timingsJSON, &countsJSON); err != nil {
			return nil, err
		}
		run.Mode = internal.RunMode(mode)
		if err := json.Unmarshal([]byte(timingsJSON), &run.Timings); err != nil {
			return nil, fmt.Errorf("run %s timings: %w", run.TraceID, err)
		}
		if err := json.Unmarshal([]byte(countsJSON), &run.Counts); err != nil {
			return nil, fmt.Errorf("run %s counts: %w", run.TraceID, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// UpsertDataset registers a file by path and content hash. A file seen before
// with the same hash keeps its status.
func (d *DB) UpsertDataset(path, hash string) (internal.DatasetRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO datasets (path, hash, status) VALUES (?, ?, ?)
ON CONFLICT(path, hash) DO UPDATE SET updatedAt=CURRENT_TIMESTAMP
`, path, hash, string(internal.DatasetPending))
	if err != nil {
		return internal.DatasetRow{}, err
	}

	row, err := d.GetDataset(path, hash)
	if err != nil {
		return internal.DatasetRow{}, err
	}
	if row == nil {
		return internal.DatasetRow{}, errors.New("failed to upsert dataset")
	}
	return *row, nil
}

func (d *DB) GetDataset(path, hash string) (*internal.DatasetRow, error) {
	var row internal.DatasetRow
	var status string
	err := d.conn.QueryRow(`
SELECT id, path, hash, status, schemaId, outputPath, error
FROM datasets WHERE path = ? AND hash = ?
`, path, hash).Scan(&row.ID, &row.Path, &row.Hash, &status, &row.SchemaID, &row.OutputPath, &row.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row.Status = internal.DatasetStatus(status)
	return &row, nil
}

func (d *DB) ListDatasetsByStatus(status internal.DatasetStatus, limit int) ([]internal.DatasetRow, error) {
	rows, err := d.conn.Query(`
SELECT id, path, hash, status, schemaId, outputPath, error
FROM datasets WHERE status = ? ORDER BY id ASC LIMIT ?
`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.DatasetRow
	for rows.Next() {
		var row internal.DatasetRow
		var s string
		if err := rows.Scan(&row.ID, &row.Path, &row.Hash, &s, &row.SchemaID, &row.OutputPath, &row.Error); err != nil {
			return nil, err
		}
		row.Status = internal.DatasetStatus(s)
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpdateDatasetStatus records the outcome of processing a dataset.
func (d *DB) UpdateDatasetStatus(id int, status internal.DatasetStatus, schemaID, outputPath, errMsg *string) error {
	_, err := d.conn.Exec(`
UPDATE datasets
SET status = ?, schemaId = ?, outputPath = ?, error = ?, updatedAt = CURRENT_TIMESTAMP
WHERE id = ?
`, string(status), schemaID, outputPath, errMsg, id)
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
