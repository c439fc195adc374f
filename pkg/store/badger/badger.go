package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/pkg/store"
)

// Database Key Namespace
// ======================
//
// Key Prefix   Key Format     Value
// ==================================================
// Entity       "e:"  e:<id>   store.Record (JSON)
//
// One key per entity keeps puts and deletes point operations; loading is a
// single prefix scan.
const entityPrefix = "e:"

func entityKey(id string) []byte {
	return []byte(entityPrefix + id)
}

// BadgerBackend implements store.Backend on BadgerDB.
//
// Suitable for single-node deployments that need the file tree to survive
// restarts. Every PutRecords batch is applied in one transaction.
//
// Thread Safety:
// BadgerDB transactions are safe for concurrent use; the mutex only guards
// the closed flag.
type BadgerBackend struct {
	mu     sync.RWMutex
	db     *badgerdb.DB
	closed bool
}

// Config configures a BadgerBackend.
type Config struct {
	// DBPath is the directory where BadgerDB stores its files.
	// Ignored when InMemory is set.
	DBPath string

	// InMemory keeps all data in memory (tests, ephemeral sessions)
	InMemory bool

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64
}

// NewBadgerBackend opens (or creates) a BadgerDB database.
func NewBadgerBackend(ctx context.Context, cfg Config) (*BadgerBackend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badgerdb.DefaultOptions(cfg.DBPath)
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badgerdb.WARNING)
	opts = opts.WithCompression(options.None)

	blockCacheMB := cfg.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := cfg.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	if cfg.InMemory {
		logger.Debug("Opened in-memory BadgerDB entity store")
	} else {
		logger.Info("Opened BadgerDB entity store at %s", cfg.DBPath)
	}
	return &BadgerBackend{db: db}, nil
}

// PutRecords writes the batch in one transaction.
func (b *BadgerBackend) PutRecords(ctx context.Context, records []store.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return store.ErrClosed
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		for _, r := range records {
			data, err := store.EncodeRecord(r)
			if err != nil {
				return err
			}
			if err := txn.Set(entityKey(r.ID), data); err != nil {
				return fmt.Errorf("failed to store entity %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

// DeleteRecord removes one key. Missing keys are not an error.
func (b *BadgerBackend) DeleteRecord(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return store.ErrClosed
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		err := txn.Delete(entityKey(id))
		if err != nil && !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return fmt.Errorf("failed to delete entity %s: %w", id, err)
		}
		return nil
	})
}

// LoadRecords scans the entity prefix.
func (b *BadgerBackend) LoadRecords(ctx context.Context) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, store.ErrClosed
	}

	var records []store.Record
	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(entityPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			err := item.Value(func(val []byte) error {
				r, err := store.DecodeRecord(val)
				if err != nil {
					logger.Warn("Skipping undecodable record %s: %v", item.Key(), err)
					return nil
				}
				records = append(records, r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the database. Subsequent calls are no-ops.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

var _ store.Backend = (*BadgerBackend)(nil)
