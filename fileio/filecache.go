package fileio

import (
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dgraph-io/badger/v3"
)

// FileCache is a BadgerDB-backed cache of parsed log files, keyed by path and
// validated by file size and mtime. It only ever holds data recomputable from
// the logs themselves, so it can be deleted at any time.
type FileCache struct {
	db *badger.DB
}

// cachedFile is the stored value for one log file.
type cachedFile struct {
	Size    int64        `json:"size"`
	ModTime int64        `json:"mod_time"` // UnixNano
	Records []FileRecord `json:"records"`
}

// OpenFileCache opens (or creates) a file cache in the given directory.
func OpenFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts = opts.WithLogger(nil)
	opts = opts.WithValueLogFileSize(64 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open file cache: %w", err)
	}

	return &FileCache{db: db}, nil
}

// Get returns the cached records for a path if the stored size and mtime
// still match the file on disk.
func (c *FileCache) Get(path string, size int64, modTime time.Time) ([]FileRecord, bool) {
	var cached cachedFile
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return sonic.Unmarshal(val, &cached)
		})
	})
	if err != nil {
		return nil, false
	}

	if cached.Size != size || cached.ModTime != modTime.UnixNano() {
		return nil, false // File changed since it was cached
	}

	return cached.Records, true
}

// Put stores the parsed records for a path.
func (c *FileCache) Put(path string, size int64, modTime time.Time, records []FileRecord) error {
	val, err := sonic.Marshal(cachedFile{
		Size:    size,
		ModTime: modTime.UnixNano(),
		Records: records,
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), val)
	})
}

// Close closes the underlying database.
func (c *FileCache) Close() error {
	return c.db.Close()
}
