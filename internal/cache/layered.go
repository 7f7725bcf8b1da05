package cache

import (
	"sync/atomic"
	"time"
)

// Stats counts lookups served by each layer
type Stats struct {
	MemoryHits int64 `json:"memory_hits"`
	DiskHits   int64 `json:"disk_hits"`
	Misses     int64 `json:"misses"`
}

// Layered checks memory first and falls through to disk, promoting disk hits
type Layered struct {
	memory *MemoryStore
	disk   *DiskStore

	memoryHits atomic.Int64
	diskHits   atomic.Int64
	misses     atomic.Int64
}

// NewLayered creates a memory+disk cache
func NewLayered(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *Layered {
	return &Layered{
		memory: NewMemoryStore(memoryTTL, 10*time.Minute),
		disk:   NewDiskStore(diskDir, diskTTL),
	}
}

func (c *Layered) Get(key string) ([]byte, bool) {
	if val, ok := c.memory.Get(key); ok {
		c.memoryHits.Add(1)
		return val, true
	}
	if val, ok := c.disk.Get(key); ok {
		c.diskHits.Add(1)
		_ = c.memory.Set(key, val, 0)
		return val, true
	}
	c.misses.Add(1)
	return nil, false
}

func (c *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, 0); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

func (c *Layered) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

func (c *Layered) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}

// Prune drops expired disk entries
func (c *Layered) Prune() (int, error) {
	return c.disk.Prune()
}

// Stats returns a snapshot of the hit counters
func (c *Layered) Stats() Stats {
	return Stats{
		MemoryHits: c.memoryHits.Load(),
		DiskHits:   c.diskHits.Load(),
		Misses:     c.misses.Load(),
	}
}
