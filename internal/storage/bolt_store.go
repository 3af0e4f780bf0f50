package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Layout: groups/<source id>/<group name> = expiry as big-endian unix nanoseconds.
var rootBucket = []byte("groups")

const expiryLen = 8

var errRootBucketMissing = errors.New("groups bucket missing")

type boltStore struct {
	db  *bolt.DB
	ttl time.Duration

	// sweep bookkeeping; sweeps run from MarkGroup, which already writes.
	sweepMu    sync.Mutex
	sweepEvery time.Duration
	nextSweep  time.Time

	now func() time.Time
}

func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init groups bucket: %w", err), db.Close())
	}

	s := &boltStore{db: db, ttl: opts.GroupTTL, sweepEvery: opts.CleanupInterval, now: time.Now}
	s.nextSweep = s.now().Add(s.sweepEvery)
	return s, nil
}

func (s *boltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SeenGroup reports whether group is remembered for sourceID. Expired entries
// read as unseen; the next sweep removes them.
func (s *boltStore) SeenGroup(sourceID, group string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	now := s.now()
	seen := false
	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(rootBucket)
		if root == nil {
			return errRootBucketMissing
		}
		src := root.Bucket([]byte(sourceID))
		if src == nil {
			return nil
		}
		if expiry, ok := readExpiry(src.Get([]byte(group))); ok {
			seen = expiry.After(now)
		}
		return nil
	})
	return seen, err
}

// MarkGroup remembers group for sourceID until the TTL elapses. Marking again
// extends the expiry.
func (s *boltStore) MarkGroup(sourceID, group string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if group == "" {
		return fmt.Errorf("mark group: empty group name")
	}
	now := s.now()
	err := s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(rootBucket)
		if root == nil {
			return errRootBucketMissing
		}
		src, err := root.CreateBucketIfNotExists([]byte(sourceID))
		if err != nil {
			return fmt.Errorf("source bucket %q: %w", sourceID, err)
		}
		return src.Put([]byte(group), encodeExpiry(now.Add(s.ttl)))
	})
	if err != nil {
		return err
	}
	return s.sweepIfDue(now)
}

func (s *boltStore) sweepIfDue(now time.Time) error {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	if now.Before(s.nextSweep) {
		return nil
	}
	if err := s.sweep(now); err != nil {
		return fmt.Errorf("sweep expired groups: %w", err)
	}
	s.nextSweep = now.Add(s.sweepEvery)
	return nil
}

// sweep deletes expired or unreadable entries and drops source buckets left empty.
func (s *boltStore) sweep(now time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(rootBucket)
		if root == nil {
			return errRootBucketMissing
		}

		var emptySources [][]byte
		err := root.ForEachBucket(func(name []byte) error {
			src := root.Bucket(name)
			var expired [][]byte
			live := 0
			err := src.ForEach(func(k, v []byte) error {
				if expiry, ok := readExpiry(v); ok && expiry.After(now) {
					live++
					return nil
				}
				expired = append(expired, append([]byte(nil), k...))
				return nil
			})
			if err != nil {
				return err
			}
			for _, k := range expired {
				if err := src.Delete(k); err != nil {
					return err
				}
			}
			if live == 0 {
				emptySources = append(emptySources, append([]byte(nil), name...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range emptySources {
			if err := root.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, expiryLen)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixNano()))
	return buf
}

func readExpiry(v []byte) (time.Time, bool) {
	if len(v) != expiryLen {
		return time.Time{}, false
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(v))), true
}
