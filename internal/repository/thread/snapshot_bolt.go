// File: internal/repository/thread/snapshot_bolt.go
package thread

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/iyunix/go-relay/internal/domain"
)

var snapshotBucket = []byte("snapshots")

// BoltSnapshotter stores the collection under a single key of a bbolt file.
type BoltSnapshotter struct {
	db *bolt.DB
}

func NewBoltSnapshotter(path string) (*BoltSnapshotter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bolt dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bolt bucket: %w", err)
	}
	return &BoltSnapshotter{db: db}, nil
}

func (b *BoltSnapshotter) Load(ctx context.Context) ([]*domain.Thread, error) {
	var threads []*domain.Thread
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(snapshotBucket).Get([]byte(snapshotName))
		if data == nil {
			return nil
		}
		var err error
		threads, err = decodeSnapshot(data)
		return err
	})
	return threads, err
}

func (b *BoltSnapshotter) Save(ctx context.Context, threads []*domain.Thread) error {
	data, err := encodeSnapshot(threads, false)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put([]byte(snapshotName), data)
	})
}

func (b *BoltSnapshotter) Close() error { return b.db.Close() }
