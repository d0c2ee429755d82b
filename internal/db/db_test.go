package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	for _, table := range []string{"cache_buckets", "cache_entries"} {
		var count int
		err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Running migrate again should not fail.
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer d.Close()

	if d.Path() != path {
		t.Errorf("Path() = %q, want %q", d.Path(), path)
	}
}

func TestEntriesCascade(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO cache_buckets (name) VALUES ('itinerary-v1')`); err != nil {
		t.Fatalf("insert bucket: %v", err)
	}
	if _, err := d.Exec(`INSERT INTO cache_entries (bucket, url, status, body, stored_at)
		VALUES ('itinerary-v1', 'http://x/data.json', 200, x'7b7d', 0)`); err != nil {
		t.Fatalf("insert entry: %v", err)
	}
	if _, err := d.Exec(`DELETE FROM cache_buckets WHERE name = 'itinerary-v1'`); err != nil {
		t.Fatalf("delete bucket: %v", err)
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("entries after bucket delete = %d, want 0", count)
	}
}
