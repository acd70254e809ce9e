// Package bbolt persists resolution results in an embedded bbolt database.
// Results live in a single "results" bucket keyed by dataset identifier and
// hold the JSON-serialized ports.Result. Writes are transactional: a crash
// mid-batch cannot leave half a batch behind.
package bbolt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/loopercamera/4M/internal/ports"
)

var bucketResults = []byte("results")

// Store implements ports.ResultSink backed by bbolt.
type Store struct {
	db  *bolt.DB
	log *slog.Logger
}

var _ ports.ResultSink = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for skipped results. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string, opts ...Option) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	s := &Store{db: db, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Save stores every result in one transaction, replacing earlier results
// for the same identifier. Results without an identifier have no key and
// are skipped.
func (s *Store) Save(ctx context.Context, results []ports.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	keys := make([][]byte, 0, len(results))
	blobs := make([][]byte, 0, len(results))
	skipped := 0
	for _, r := range results {
		if r.Identifier == "" {
			skipped++
			continue
		}
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal result %q: %w", r.Identifier, err)
		}
		keys = append(keys, []byte(r.Identifier))
		blobs = append(blobs, data)
	}
	if skipped > 0 {
		s.log.Warn("results without dataset identifier not stored", "skipped", skipped, "batch", len(results))
	}
	if len(keys) == 0 {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketResults)
		if err != nil {
			return err
		}
		for i, k := range keys {
			if err := b.Put(k, blobs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns the result for an identifier.
// Returns nil, nil if none is stored.
func (s *Store) Get(identifier string) (*ports.Result, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResults)
		if b == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := b.Get([]byte(identifier)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var r ports.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal result %q: %w", identifier, err)
	}
	return &r, nil
}

// errStop ends a cursor walk early.
var errStop = errors.New("stop")

// List returns stored results in identifier order. Only identifiers
// starting with prefix are returned; limit <= 0 means no limit.
func (s *Store) List(prefix string, limit int) ([]ports.Result, error) {
	var out []ports.Result
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResults)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			var r ports.Result
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshal result %q: %w", k, err)
			}
			out = append(out, r)
			if limit > 0 && len(out) >= limit {
				return errStop
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored results.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResults)
		if b == nil {
			return nil
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

// Delete removes the result for an identifier.
// Idempotent: deleting a missing identifier is not an error.
func (s *Store) Delete(identifier string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResults)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(identifier))
	})
}

// Wipe removes every stored result.
// Idempotent: wiping an empty store is not an error.
func (s *Store) Wipe() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket(bucketResults)
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}
