package shapefile

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// Cache keeps opened datasets in memory with LRU eviction.
//
// Memory use is an estimate derived from vertex and attribute counts.
// Set the limit to 0 for an unbounded cache.
//
// Example:
//
//	cache := shapefile.NewCache(256 << 20)
//	e, err := cache.Get("roads", func() (*shapefile.Editor, error) {
//	    return shapefile.Open("/data/roads.shp", shapefile.DefaultOptions())
//	})
type Cache struct {
	maxMemory  int64
	usedMemory int64
	entries    map[string]*cacheEntry
	lru        *list.List // most recent at front
	mu         sync.RWMutex
}

type cacheEntry struct {
	name         string
	editor       *Editor
	memorySize   int64
	element      *list.Element
	lastAccessed time.Time
	accessCount  int
}

// NewCache creates a cache bounded to roughly maxMemoryBytes.
func NewCache(maxMemoryBytes int64) *Cache {
	return &Cache{
		maxMemory: maxMemoryBytes,
		entries:   make(map[string]*cacheEntry),
		lru:       list.New(),
	}
}

// Get returns the cached dataset for name, calling loader on a miss. A
// dataset too large for the cache is returned without being cached.
func (c *Cache) Get(name string, loader func() (*Editor, error)) (*Editor, error) {
	c.mu.Lock()
	if entry, ok := c.entries[name]; ok {
		entry.lastAccessed = time.Now()
		entry.accessCount++
		c.lru.MoveToFront(entry.element)
		c.mu.Unlock()
		return entry.editor, nil
	}
	c.mu.Unlock()

	e, err := loader()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	// Uncacheable datasets are still handed back.
	_ = c.Add(name, e)
	return e, nil
}

// Add stores e under name, evicting least-recently-used entries to make
// room. It fails if e alone exceeds the limit.
func (c *Cache) Add(name string, e *Editor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	memSize := estimateMemory(e)
	if entry, ok := c.entries[name]; ok {
		c.usedMemory += memSize - entry.memorySize
		entry.editor = e
		entry.memorySize = memSize
		entry.lastAccessed = time.Now()
		entry.accessCount++
		c.lru.MoveToFront(entry.element)
		return nil
	}

	if c.maxMemory > 0 && memSize > c.maxMemory {
		return fmt.Errorf("dataset too large for cache (%d bytes > %d bytes max)", memSize, c.maxMemory)
	}
	if c.maxMemory > 0 {
		for c.usedMemory+memSize > c.maxMemory && c.lru.Len() > 0 {
			c.evictLRU()
		}
	}

	entry := &cacheEntry{
		name:         name,
		editor:       e,
		memorySize:   memSize,
		lastAccessed: time.Now(),
		accessCount:  1,
	}
	entry.element = c.lru.PushFront(entry)
	c.entries[name] = entry
	c.usedMemory += memSize
	return nil
}

// evictLRU must be called with c.mu held.
func (c *Cache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.entries, entry.name)
	c.usedMemory -= entry.memorySize
}

// Remove drops name from the cache.
func (c *Cache) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[name]; ok {
		c.lru.Remove(entry.element)
		delete(c.entries, name)
		c.usedMemory -= entry.memorySize
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.lru.Init()
	c.usedMemory = 0
}

// Contains reports whether name is cached without touching its recency.
func (c *Cache) Contains(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[name]
	return ok
}

// Stats returns a snapshot of cache usage.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, entry := range c.entries {
		total += entry.accessCount
	}
	return CacheStats{
		Datasets:    len(c.entries),
		UsedMemory:  c.usedMemory,
		MaxMemory:   c.maxMemory,
		TotalAccess: total,
	}
}

// CacheStats holds cache usage figures.
type CacheStats struct {
	Datasets    int   // Number of datasets currently cached
	UsedMemory  int64 // Estimated memory usage in bytes
	MaxMemory   int64 // Maximum memory limit in bytes
	TotalAccess int   // Accesses across all cached datasets
}

// estimateMemory approximates the footprint of a dataset: a fixed base,
// per-shape overhead, 16 bytes per vertex plus 8 per Z or M value, and
// a per-cell cost for attributes.
func estimateMemory(e *Editor) int64 {
	if e == nil {
		return 0
	}
	size := int64(1024)
	for _, s := range e.shapes {
		size += 128 + int64(len(s.Points))*16 + int64(len(s.Z)+len(s.M))*8 + int64(len(s.Parts))*4
	}
	size += int64(len(e.records)) * int64(e.schema.Len()) * 32
	return size
}
