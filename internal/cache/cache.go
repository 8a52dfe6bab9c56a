// Package cache keeps recently merged enrichment text in memory so a link
// shared twice within the retention window skips the network entirely.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	content  string
	method   string
	storedAt time.Time
}

type Cache struct {
	mu            sync.RWMutex
	entries       map[string]entry
	retention     time.Duration
	cleanupTicker *time.Ticker
	stopChan      chan struct{}
}

func New(retention time.Duration) *Cache {
	c := &Cache{
		entries:   make(map[string]entry),
		retention: retention,
		stopChan:  make(chan struct{}),
	}

	c.cleanupTicker = time.NewTicker(1 * time.Hour)
	go c.cleanup()

	return c
}

// Put stores the merged enrichment for a URL along with the strategy name
// that produced it.
func (c *Cache) Put(rawURL, content, method string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[keyFor(rawURL)] = entry{content: content, method: method, storedAt: time.Now()}
}

// Get returns the cached enrichment for a URL if it is still fresh.
func (c *Cache) Get(rawURL string) (content, method string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[keyFor(rawURL)]
	if !exists || time.Since(e.storedAt) > c.retention {
		return "", "", false
	}
	return e.content, e.method, true
}

func (c *Cache) cleanup() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.performCleanup()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Cache) performCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.retention)
	for key, e := range c.entries {
		if e.storedAt.Before(cutoff) {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) Close() {
	c.cleanupTicker.Stop()
	close(c.stopChan)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func keyFor(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%x", hash)
}
