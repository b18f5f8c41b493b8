package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS responses (
	url TEXT PRIMARY KEY,
	body BLOB NOT NULL,
	created_at INTEGER NOT NULL
);`

// SQLite is a file backed response cache. Entries older than ttl are misses.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLite(path string, ttl time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode on %s: %w", path, err)
	}
	// Workers share one connection so writes never race for the file lock.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `SELECT body, created_at FROM responses WHERE url = ?`, key).Scan(&body, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("reading cached response: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(time.Unix(createdAt, 0)) > s.ttl {
		return nil, false, nil
	}
	return body, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, body []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO responses(url, body, created_at) VALUES(?,?,?)`,
		key, body, s.now().Unix())
	if err != nil {
		return fmt.Errorf("storing cached response: %w", err)
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
