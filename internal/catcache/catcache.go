// Package catcache persists parsed categorization definitions in a local
// SQLite database so repeated program starts skip the YAML parse. Entries are
// keyed by categorization name and invalidated by a checksum of the source
// definition; the cached form is the JSON-encoded definition, which decodes
// considerably faster than the YAML it came from.
package catcache

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/primap-community/climate-categories/pkg/categories"
)

const schema = `
CREATE TABLE IF NOT EXISTS categorization_cache (
	name       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL,
	spec_json  BLOB NOT NULL,
	cached_at  TIMESTAMP NOT NULL
);`

// Cache is a handle to the definition cache. Safe for concurrent use; the
// underlying sql.DB serializes access.
type Cache struct {
	db *sql.DB
}

// Open opens (and if necessary creates) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open categorization cache %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize categorization cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }

// Checksum returns the cache key checksum for a raw definition.
func Checksum(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached definition for name if it is present and matches
// the checksum. The second return value reports a usable hit.
func (c *Cache) Get(name, checksum string) (*categories.Spec, bool, error) {
	var storedChecksum string
	var specJSON []byte
	err := c.db.QueryRow(
		`SELECT checksum, spec_json FROM categorization_cache WHERE name = ?`, name,
	).Scan(&storedChecksum, &specJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query categorization cache: %w", err)
	}
	if storedChecksum != checksum {
		return nil, false, nil // stale entry, source definition changed
	}
	var spec categories.Spec
	if err := json.Unmarshal(specJSON, &spec); err != nil {
		// A corrupt entry must not break loading; treat it as a miss.
		return nil, false, nil
	}
	return &spec, true, nil
}

// Put stores or replaces the cached definition for name.
func (c *Cache) Put(name, checksum string, spec *categories.Spec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to encode definition of %q: %w", name, err)
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO categorization_cache (name, checksum, spec_json, cached_at)
		 VALUES (?, ?, ?, ?)`,
		name, checksum, specJSON, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store definition of %q: %w", name, err)
	}
	return nil
}

// LoadOrParse returns the definition for the raw YAML definition, from the
// cache when the checksum matches, parsing and caching it otherwise. The
// second return value reports whether the cache served the definition.
func (c *Cache) LoadOrParse(name string, raw []byte) (*categories.Spec, bool, error) {
	checksum := Checksum(raw)
	spec, hit, err := c.Get(name, checksum)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return spec, true, nil
	}
	spec, err = categories.ReadSpec(bytes.NewReader(raw))
	if err != nil {
		return nil, false, err
	}
	if err := c.Put(name, checksum, spec); err != nil {
		return nil, false, err
	}
	return spec, false, nil
}

// Clear drops all cached definitions.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM categorization_cache`); err != nil {
		return fmt.Errorf("failed to clear categorization cache: %w", err)
	}
	return nil
}
