package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

var flagsBucket = []byte("flags")

// Bolt persists flags in a bbolt file. Keys are the flag keys, values are
// JSON, so List pagination rides on bbolt's ordered cursor.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database file and ensures the flags
// bucket exists.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(flagsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create flags bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// NewBolt wraps an already-open bbolt handle, for sharing one file with the
// audit log. The flags bucket is created if missing.
func NewBolt(db *bolt.DB) (*Bolt, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(flagsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create flags bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

// DB exposes the underlying handle so collaborating components can share
// the same file.
func (b *Bolt) DB() *bolt.DB {
	return b.db
}

func (b *Bolt) Get(ctx context.Context, key string) (*domain.Flag, error) {
	var flag *domain.Flag
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(flagsBucket).Get([]byte(key))
		if data == nil {
			return domain.NewNotFoundError("flag", key)
		}
		var f domain.Flag
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("decode flag %s: %w", key, err)
		}
		flag = &f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flag, nil
}

func (b *Bolt) List(ctx context.Context, skip, limit int) ([]domain.Flag, error) {
	out := make([]domain.Flag, 0, limit)
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(flagsBucket).Cursor()
		i := 0
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if i < skip {
				i++
				continue
			}
			if len(out) >= limit {
				break
			}
			var f domain.Flag
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("decode flag %s: %w", k, err)
			}
			out = append(out, f)
			i++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bolt) Create(ctx context.Context, flag domain.Flag) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(flagsBucket)
		if bkt.Get([]byte(flag.Key)) != nil {
			return domain.NewValidationError(fmt.Sprintf("flag with key %q already exists", flag.Key))
		}
		data, err := json.Marshal(flag)
		if err != nil {
			return fmt.Errorf("encode flag %s: %w", flag.Key, err)
		}
		return bkt.Put([]byte(flag.Key), data)
	})
}

func (b *Bolt) Update(ctx context.Context, flag domain.Flag) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(flagsBucket)
		if bkt.Get([]byte(flag.Key)) == nil {
			return domain.NewNotFoundError("flag", flag.Key)
		}
		data, err := json.Marshal(flag)
		if err != nil {
			return fmt.Errorf("encode flag %s: %w", flag.Key, err)
		}
		return bkt.Put([]byte(flag.Key), data)
	})
}

func (b *Bolt) Delete(ctx context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(flagsBucket)
		if bkt.Get([]byte(key)) == nil {
			return domain.NewNotFoundError("flag", key)
		}
		return bkt.Delete([]byte(key))
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
