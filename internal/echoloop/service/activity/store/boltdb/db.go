package boltdb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/boltdb/bolt"
)

// SchemaVersion is bumped whenever the stored activity layout changes.
const SchemaVersion = 1

var (
	bucketMeta       = []byte("meta")
	bucketActivities = []byte("activities")

	keySchemaVersion = []byte("schema_version")
)

// ErrSchemaMismatch is returned by Open for a file written by a different
// layout version.
var ErrSchemaMismatch = errors.New("activity database schema mismatch")

// lockTimeout bounds the wait for the file lock held by another process.
const lockTimeout = time.Second

type DB struct {
	path string
	db   *bolt.DB
}

// Open opens or creates the database at path, creating its directory too.
// A fresh file is stamped with SchemaVersion.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory of %s: %w", path, err)
	}
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := bdb.Update(prepare); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("prepare %s: %w", path, err)
	}
	return &DB{path: path, db: bdb}, nil
}

func prepare(tx *bolt.Tx) error {
	meta, err := tx.CreateBucketIfNotExists(bucketMeta)
	if err != nil {
		return err
	}
	if _, err := tx.CreateBucketIfNotExists(bucketActivities); err != nil {
		return err
	}

	raw := meta.Get(keySchemaVersion)
	if raw == nil {
		return meta.Put(keySchemaVersion, []byte(strconv.Itoa(SchemaVersion)))
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil || v != SchemaVersion {
		return fmt.Errorf("%w: file has %q, want %d", ErrSchemaMismatch, raw, SchemaVersion)
	}
	return nil
}

func (d *DB) Path() string { return d.path }

func (d *DB) Close() error {
	return d.db.Close()
}
