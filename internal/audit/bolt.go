package audit

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var auditBucket = []byte("audit")

// BoltLog persists records in a bbolt bucket keyed by an insertion sequence
// number, so a reverse cursor walk yields most-recent-first.
type BoltLog struct {
	db *bolt.DB
}

// NewBoltLog wraps an open bbolt handle, typically shared with the flag
// store, and ensures the audit bucket exists.
func NewBoltLog(db *bolt.DB) (*BoltLog, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(auditBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create audit bucket: %w", err)
	}
	return &BoltLog{db: db}, nil
}

func (l *BoltLog) Append(ctx context.Context, record Record) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(auditBucket)
		seq, err := bkt.NextSequence()
		if err != nil {
			return fmt.Errorf("audit sequence: %w", err)
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode audit record: %w", err)
		}
		return bkt.Put(key, data)
	})
}

func (l *BoltLog) List(ctx context.Context, flagKey string, limit int) ([]Record, error) {
	out := make([]Record, 0, limit)
	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(auditBucket).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode audit record: %w", err)
			}
			if flagKey != "" && r.FlagKey != flagKey {
				continue
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close is a no-op; the shared bbolt handle is owned by the flag store.
func (l *BoltLog) Close() error {
	return nil
}
