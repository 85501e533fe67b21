package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // cgo-free sqlite driver
)

// SQLiteStore is the durable Store implementation. Each logical table is a
// row namespace in a single relation: items are stored as JSON documents
// keyed by (tbl, key), which keeps the storage schema at the minimal key
// shape the pipeline requires.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed initializes) a sqlite-backed store at the
// given path. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS items (
			tbl  TEXT NOT NULL,
			key  TEXT NOT NULL,
			item TEXT NOT NULL,
			PRIMARY KEY (tbl, key)
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Get(ctx context.Context, table, key string) (Item, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT item FROM items WHERE tbl = ? AND key = ?`, table, key,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s[%s]", ErrNotFound, table, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read item %s[%s]: %w", table, key, err)
	}

	var item Item
	if err := json.Unmarshal([]byte(doc), &item); err != nil {
		return nil, fmt.Errorf("decode item %s[%s]: %w", table, key, err)
	}
	return item, nil
}

func (s *SQLiteStore) Put(ctx context.Context, table string, item Item) error {
	key, err := itemKey(item)
	if err != nil {
		return err
	}

	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item %s[%s]: %w", table, key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (tbl, key, item) VALUES (?, ?, ?)
		 ON CONFLICT (tbl, key) DO UPDATE SET item = excluded.item`,
		table, key, string(doc),
	)
	if err != nil {
		return fmt.Errorf("write item %s[%s]: %w", table, key, err)
	}
	return nil
}
