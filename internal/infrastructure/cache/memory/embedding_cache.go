// Package memory implements the in-process embedding cache shared by the
// classification and recommendation paths. The store is striped by
// fingerprint so concurrent requests for different documents never contend
// on the same lock, and entries carry a TTL so unconsumed embeddings cannot
// accumulate without bound.
package memory

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/provoco/clauseadvisor/internal/core/domain"
)

const shardCount = 16

type entry struct {
	value     domain.CachedEmbedding
	expiresAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]entry
}

type EmbeddingCache struct {
	shards [shardCount]*shard
	ttl    time.Duration

	stop chan struct{}
	once sync.Once
}

func NewEmbeddingCache(ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	c := &EmbeddingCache{
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]entry)}
	}
	go c.janitor()
	return c
}

// Put stores an embedding for a fingerprint, overwriting any live entry.
func (c *EmbeddingCache) Put(fp string, value domain.CachedEmbedding) {
	s := c.shardFor(fp)
	s.mu.Lock()
	s.entries[fp] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	s.mu.Unlock()
}

// Take atomically retrieves and removes the entry for a fingerprint. An
// expired or absent entry reports a miss; the caller recomputes.
func (c *EmbeddingCache) Take(fp string) (domain.CachedEmbedding, bool) {
	s := c.shardFor(fp)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fp]
	if !ok {
		return domain.CachedEmbedding{}, false
	}
	delete(s.entries, fp)
	if time.Now().After(e.expiresAt) {
		return domain.CachedEmbedding{}, false
	}
	return e.value, true
}

// Len reports the number of live entries across all shards.
func (c *EmbeddingCache) Len() int {
	n := 0
	now := time.Now()
	for _, s := range c.shards {
		s.mu.Lock()
		for _, e := range s.entries {
			if now.Before(e.expiresAt) {
				n++
			}
		}
		s.mu.Unlock()
	}
	return n
}

func (c *EmbeddingCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *EmbeddingCache) shardFor(fp string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fp))
	return c.shards[h.Sum32()%shardCount]
}

func (c *EmbeddingCache) janitor() {
	interval := c.ttl
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *EmbeddingCache) evictExpired() {
	now := time.Now()
	for _, s := range c.shards {
		s.mu.Lock()
		for fp, e := range s.entries {
			if now.After(e.expiresAt) {
				delete(s.entries, fp)
			}
		}
		s.mu.Unlock()
	}
}
