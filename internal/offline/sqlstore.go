package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ziadkadry99/itinerary/internal/db"
)

// SQLStorage persists buckets in the SQLite cache tables so the cache
// survives restarts.
type SQLStorage struct {
	db *db.DB
}

// NewSQLStorage creates a SQLStorage backed by the given database.
func NewSQLStorage(database *db.DB) *SQLStorage {
	return &SQLStorage{db: database}
}

func (s *SQLStorage) Open(ctx context.Context, name string) (Bucket, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO cache_buckets (name) VALUES (?)`, name); err != nil {
		return nil, fmt.Errorf("creating bucket %s: %w", name, err)
	}
	return &sqlBucket{db: s.db, name: name}, nil
}

func (s *SQLStorage) Has(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cache_buckets WHERE name = ?`, name).Scan(&n); err != nil {
		return false, fmt.Errorf("checking bucket %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *SQLStorage) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM cache_buckets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning bucket name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLStorage) Delete(ctx context.Context, name string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning delete of %s: %w", name, err)
	}
	defer tx.Rollback()

	// Entries are removed explicitly in case foreign keys are disabled on the connection.
	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE bucket = ?`, name); err != nil {
		return false, fmt.Errorf("deleting entries of %s: %w", name, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM cache_buckets WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("deleting bucket %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing delete of %s: %w", name, err)
	}
	return n > 0, nil
}

type sqlBucket struct {
	db   *db.DB
	name string
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (b *sqlBucket) Name() string { return b.name }

func (b *sqlBucket) Match(ctx context.Context, key string) (*Entry, error) {
	var (
		header   string
		storedAt int64
		e        = Entry{URL: key}
	)
	err := b.db.QueryRowContext(ctx, `
		SELECT status, header, body, stored_at
		FROM cache_entries WHERE bucket = ? AND url = ?`, b.name, key).
		Scan(&e.Status, &header, &e.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("matching %s in %s: %w", key, b.name, err)
	}
	if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
		return nil, fmt.Errorf("decoding headers of %s: %w", key, err)
	}
	if e.Body == nil {
		e.Body = []byte{}
	}
	e.StoredAt = time.Unix(0, storedAt).UTC()
	return &e, nil
}

func (b *sqlBucket) Put(ctx context.Context, e *Entry) error {
	return b.put(ctx, b.db, e)
}

func (b *sqlBucket) PutAll(ctx context.Context, entries []*Entry) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning batch put: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if err := b.put(ctx, tx, e); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch put: %w", err)
	}
	return nil
}

func (b *sqlBucket) put(ctx context.Context, x execer, e *Entry) error {
	header := e.Header
	if header == nil {
		header = http.Header{}
	}
	hdr, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encoding headers of %s: %w", e.URL, err)
	}
	body := e.Body
	if body == nil {
		body = []byte{}
	}
	storedAt := e.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	_, err = x.ExecContext(ctx, `
		INSERT INTO cache_entries (bucket, url, status, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(bucket, url) DO UPDATE SET
			status = excluded.status,
			header = excluded.header,
			body = excluded.body,
			stored_at = excluded.stored_at`,
		b.name, e.URL, e.Status, string(hdr), body, storedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("storing %s in %s: %w", e.URL, b.name, err)
	}
	return nil
}

func (b *sqlBucket) Keys(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT url FROM cache_entries WHERE bucket = ? ORDER BY url`, b.name)
	if err != nil {
		return nil, fmt.Errorf("listing keys of %s: %w", b.name, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
