package ingest

import (
	"database/sql"
	"fmt"

	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"
)

// openReadOnly opens dbPath without creating it.
func openReadOnly(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	return db, nil
}

// StreamSQLite iterates over all records in a SQLite database, calling fn for each one.
// Only one parsed record is alive at a time, keeping memory usage constant.
func StreamSQLite(dbPath string, fn func(recordID string, record any) error) error {
	return StreamSQLiteRaw(dbPath, func(id, raw string) error {
		parsed, err := oj.ParseString(raw)
		if err != nil {
			return fmt.Errorf("parse record %s: %w", id, err)
		}
		return fn(id, parsed)
	})
}

// StreamSQLiteRaw iterates over all records yielding raw (id, json) strings
// without parsing.
func StreamSQLiteRaw(dbPath string, fn func(id, raw string) error) error {
	db, err := openReadOnly(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }() // safe to ignore

	rows, err := db.Query("SELECT id, record FROM results ORDER BY id")
	if err != nil {
		return fmt.Errorf("query results: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if err := fn(id, raw); err != nil {
			return err
		}
	}
	return rows.Err()
}

// LoadSQLite assembles a document from the results table: one top-level
// entry per row, keyed by id, holding the parsed record. References in one
// record may point into another ("#/<id>/...").
func LoadSQLite(dbPath string) (map[string]any, error) {
	doc := make(map[string]any)
	err := StreamSQLite(dbPath, func(id string, record any) error {
		doc[id] = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
