package storage

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/leengari/parquery/internal/domain/schema"
)

// CacheKey identifies one on-disk snapshot of a table file. A rewrite
// changes mtime or size, so stale metadata is never served for a changed
// file.
type CacheKey struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// MetadataCache is a bounded LRU of derived table metadata. It is an
// explicit component injected into the Inspector rather than process-global
// state, so the engine stays a pure function of its declared inputs.
type MetadataCache struct {
	entries *lru.Cache[CacheKey, *schema.TableMetadata]
}

func NewMetadataCache(size int) *MetadataCache {
	if size < 1 {
		size = 1
	}
	entries, err := lru.New[CacheKey, *schema.TableMetadata](size)
	if err != nil {
		// lru.New only fails on size < 1, which is guarded above
		panic(err)
	}
	return &MetadataCache{entries: entries}
}

func (c *MetadataCache) Get(key CacheKey) (*schema.TableMetadata, bool) {
	return c.entries.Get(key)
}

func (c *MetadataCache) Add(key CacheKey, meta *schema.TableMetadata) {
	c.entries.Add(key, meta)
}

// Len returns the number of cached snapshots, used by tests and metrics.
func (c *MetadataCache) Len() int {
	return c.entries.Len()
}
