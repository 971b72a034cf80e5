package store

import (
	"context"
	"sync"

	"github.com/mtreiber/ctxgraph/internal/graph"
)

// VocabCache holds the full vocabulary table in memory.
//
// It is the only cross-call mutable state in the engine. Reload replaces
// the mapping wholesale under the write lock, so readers either see the
// old table or the new one, never a partially updated mix. No code
// outside this type mutates the mapping.
type VocabCache struct {
	mu      sync.RWMutex
	entries map[string]graph.VocabEntry
}

// NewVocabCache returns an empty cache. Call Reload to populate it.
func NewVocabCache() *VocabCache {
	return &VocabCache{entries: make(map[string]graph.VocabEntry)}
}

// Reload re-reads the vocabulary table and atomically swaps it in.
// A snapshot without a vocabulary table degrades to an empty cache.
func (c *VocabCache) Reload(ctx context.Context, s *Store) error {
	vocab, err := s.Vocabulary(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.entries = vocab
	c.mu.Unlock()
	return nil
}

// Get returns the entry for term.
func (c *VocabCache) Get(term string) (graph.VocabEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[term]
	return e, ok
}

// Len returns the number of cached terms.
func (c *VocabCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
