package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	pickBucket     = "picks"
	keySeparator   = 0x00
	timestampBytes = 8
)

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	pickTTL         time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// storedPick is the on-disk value: the pick plus its expiry.
type storedPick struct {
	Pick      Pick  `json:"pick"`
	ExpiresAt int64 `json:"expires_at"`
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(pickBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		pickTTL:         opts.PickTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// RecordPick stores p under the user's key prefix, ordered by pick time.
func (b *boltStore) RecordPick(p Pick) error {
	if b == nil || b.db == nil {
		return nil
	}
	username := normalizeUsername(p.Username)
	if username == "" {
		return fmt.Errorf("pick has no username")
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}
	if p.PickedAt.IsZero() {
		p.PickedAt = now.UTC()
	}

	expiresAt := now.Add(b.pickTTL).Unix()

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(pickBucket))
		if bucket == nil {
			return fmt.Errorf("pick bucket missing")
		}
		key := pickKey(username, p.PickedAt)
		// Two picks in the same nanosecond keep distinct keys.
		for bucket.Get(key) != nil {
			p.PickedAt = p.PickedAt.Add(time.Nanosecond)
			key = pickKey(username, p.PickedAt)
		}
		value, err := json.Marshal(storedPick{Pick: p, ExpiresAt: expiresAt})
		if err != nil {
			return fmt.Errorf("encode pick: %w", err)
		}
		return bucket.Put(key, value)
	})
}

// RecentPicks returns up to limit unexpired picks for username, newest first.
func (b *boltStore) RecentPicks(username string, limit int) ([]Pick, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}
	username = normalizeUsername(username)
	if username == "" || limit <= 0 {
		return nil, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	prefix := userPrefix(username)
	var picks []Pick
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(pickBucket))
		if bucket == nil {
			return fmt.Errorf("pick bucket missing")
		}

		cursor := bucket.Cursor()
		k, v := seekLast(cursor, prefix)
		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Prev() {
			var sp storedPick
			if err := json.Unmarshal(v, &sp); err != nil {
				continue
			}
			if sp.ExpiresAt <= now.Unix() {
				continue
			}
			picks = append(picks, sp.Pick)
			if len(picks) == limit {
				break
			}
		}
		return nil
	})
	return picks, err
}

// seekLast positions the cursor on the last key carrying prefix.
func seekLast(c *bolt.Cursor, prefix []byte) ([]byte, []byte) {
	upper := append(append([]byte(nil), prefix[:len(prefix)-1]...), keySeparator+1)
	k, _ := c.Seek(upper)
	if k == nil {
		return c.Last()
	}
	return c.Prev()
}

// maybeCleanupExpired removes expired picks on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(pickBucket))
		if bucket == nil {
			return fmt.Errorf("pick bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var sp storedPick
			if err := json.Unmarshal(v, &sp); err != nil || sp.ExpiresAt <= now.Unix() {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

func userPrefix(username string) []byte {
	return append([]byte(username), keySeparator)
}

// pickKey is <username>\x00<big-endian unix nanos> so a user's picks are
// contiguous and sorted by time.
func pickKey(username string, at time.Time) []byte {
	key := userPrefix(username)
	buf := make([]byte, timestampBytes)
	binary.BigEndian.PutUint64(buf, uint64(at.UnixNano()))
	return append(key, buf...)
}
