package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var snapshotKey = []byte("snapshot:current")

// LevelDBBackend keeps the document under a single key of an embedded
// LevelDB database. Writes are synced.
type LevelDBBackend struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the database at path.
func OpenLevelDB(path string) (*LevelDBBackend, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDBBackend{db: db}, nil
}

func (b *LevelDBBackend) Name() string { return "leveldb" }

func (b *LevelDBBackend) Read(_ context.Context) ([]byte, error) {
	data, err := b.db.Get(snapshotKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return data, nil
}

func (b *LevelDBBackend) Write(_ context.Context, data []byte) error {
	if err := b.db.Put(snapshotKey, data, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

func (b *LevelDBBackend) Close() error {
	return b.db.Close()
}
