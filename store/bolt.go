package store

import (
	"context"
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bolt is a persistent Store backed by a bbolt database. Expiry is lazy:
// expired records are deleted on read. There is no active sweep; pair it with
// the facade's TTLs being short-lived data or accept slower reclamation.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
}

var _ Store = (*Bolt)(nil)

// BoltOptions configures OpenBolt.
type BoltOptions struct {
	// Bucket is the bbolt bucket name; "cachefront" when empty.
	Bucket string
}

// OpenBolt initializes or opens a Bolt store at path.
func OpenBolt(path string, opts BoltOptions) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	bucket := []byte("cachefront")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db, bucket: bucket}, nil
}

// Close closes the underlying database.
func (s *Bolt) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores value with an absolute expiry of now+ttl; ttl 0 never expires.
func (s *Bolt) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := int64(0)
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}
	// Layout: 8 bytes big endian expiresAt (UnixNano, 0 = none) || raw value
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(expiresAt))
	copy(buf[8:], value)

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	})
}

// Get returns the value if present and fresh. An expired record is deleted
// and reported as ErrNotFound.
func (s *Bolt) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	var expired bool
	var exists bool
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		exists = true
		expiresAt := int64(binary.BigEndian.Uint64(v[:8]))
		if expiresAt > 0 && time.Now().UnixNano() > expiresAt {
			expired = true
			return b.Delete([]byte(key))
		}
		out = append([]byte(nil), v[8:]...)
		return nil
	}); err != nil {
		return nil, err
	}
	if !exists || expired {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *Bolt) Evict(_ context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Clear drops and recreates the bucket.
func (s *Bolt) Clear(_ context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
}

// Size counts resident records, including expired-but-unread ones.
func (s *Bolt) Size(_ context.Context) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return n, err
}
