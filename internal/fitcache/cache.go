// Package fitcache persists fitted distribution parameters between runs so an
// unchanged dataset skips the fitting stage.
package fitcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wxtools/droughtindex/internal/spei"
)

// Key identifies one set of per-calendar-month fits.
type Key struct {
	DatasetChecksum string
	Method          string // water balance column the fits belong to
	Scale           int
	Kernel          string
	Shift           int
}

// Cache stores msgpack-encoded fit files under a directory, one file per key.
type Cache struct {
	dir string
}

// entry is the on-disk format. Months are encoded as ints because msgpack
// map keys must be scalar.
type entry struct {
	Key      Key                 `msgpack:"key"`
	Fits     map[int]spei.Params `msgpack:"fits"`
	SavedAt  time.Time           `msgpack:"saved_at"`
	Version  int                 `msgpack:"version"`
}

const formatVersion = 1

// New opens (creating if needed) a cache directory.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(k Key) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%s|%d",
		k.DatasetChecksum, k.Method, k.Scale, k.Kernel, k.Shift)))
	return filepath.Join(c.dir, hex.EncodeToString(h[:16])+".fit")
}

// Load returns the cached fits for a key, or ok=false on a miss. A corrupt or
// stale-format file reads as a miss, never an error.
func (c *Cache) Load(k Key) (map[time.Month]spei.Params, bool) {
	raw, err := os.ReadFile(c.path(k))
	if err != nil {
		return nil, false
	}

	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	if e.Version != formatVersion || e.Key != k {
		return nil, false
	}

	fits := make(map[time.Month]spei.Params, len(e.Fits))
	for m, p := range e.Fits {
		fits[time.Month(m)] = p
	}
	return fits, true
}

// Store writes fits for a key, replacing any previous entry.
func (c *Cache) Store(k Key, fits map[time.Month]spei.Params) error {
	e := entry{
		Key:     k,
		Fits:    make(map[int]spei.Params, len(fits)),
		SavedAt: time.Now().UTC(),
		Version: formatVersion,
	}
	for m, p := range fits {
		e.Fits[int(m)] = p
	}

	raw, err := msgpack.Marshal(&e)
	if err != nil {
		return fmt.Errorf("encoding fit cache entry: %w", err)
	}
	if err := os.WriteFile(c.path(k), raw, 0o644); err != nil {
		return fmt.Errorf("writing fit cache entry: %w", err)
	}
	return nil
}
