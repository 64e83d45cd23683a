package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	kind     TEXT    NOT NULL,
	asset_id INTEGER NOT NULL,
	data     BLOB    NOT NULL,
	PRIMARY KEY (kind, asset_id)
);`

// SQLiteStore is a durable record store backed by a single SQLite table.
// Asset IDs are stored as int64; the uint64 bit pattern survives the
// round-trip unchanged.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if necessary creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(kind string, id uint64) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(
		`SELECT data FROM records WHERE kind = ? AND asset_id = ?`,
		kind, int64(id),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQLiteStore) Put(kind string, id uint64, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO records (kind, asset_id, data) VALUES (?, ?, ?)
		 ON CONFLICT (kind, asset_id) DO UPDATE SET data = excluded.data`,
		kind, int64(id), data,
	)
	return err
}

func (s *SQLiteStore) Patch(kind string, id uint64, off int, data []byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var rec []byte
	err = tx.QueryRow(
		`SELECT data FROM records WHERE kind = ? AND asset_id = ?`,
		kind, int64(id),
	).Scan(&rec)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	if err != nil {
		return err
	}
	if off < 0 || off+len(data) > len(rec) {
		return ErrPatchOutOfRange
	}
	copy(rec[off:], data)

	if _, err := tx.Exec(
		`UPDATE records SET data = ? WHERE kind = ? AND asset_id = ?`,
		rec, kind, int64(id),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Delete(kind string, id uint64) error {
	_, err := s.db.Exec(`DELETE FROM records WHERE kind = ? AND asset_id = ?`, kind, int64(id))
	return err
}

func (s *SQLiteStore) List(kind string) ([]uint64, error) {
	rows, err := s.db.Query(`SELECT asset_id FROM records WHERE kind = ? ORDER BY asset_id`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, uint64(id))
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
