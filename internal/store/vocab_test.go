package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtreiber/ctxgraph/internal/graph"
)

func TestVocabCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("EmptyBeforeReload", func(t *testing.T) {
		t.Parallel()
		cache := NewVocabCache()

		assert.Equal(t, 0, cache.Len())
		_, ok := cache.Get("graph")
		assert.False(t, ok)
	})

	t.Run("ReloadPopulates", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		require.NoError(t, s.ReplaceVocabulary(ctx, []graph.VocabEntry{
			{Term: "graph", IDF: 0.5},
			{Term: "build", IDF: 1.2},
		}))

		cache := NewVocabCache()
		require.NoError(t, cache.Reload(ctx, s))

		assert.Equal(t, 2, cache.Len())
		entry, ok := cache.Get("graph")
		require.True(t, ok)
		assert.Equal(t, 0.5, entry.IDF)
	})

	t.Run("ReloadSwapsWholesale", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		require.NoError(t, s.ReplaceVocabulary(ctx, []graph.VocabEntry{
			{Term: "old", IDF: 1.0},
		}))

		cache := NewVocabCache()
		require.NoError(t, cache.Reload(ctx, s))
		require.NoError(t, s.ReplaceVocabulary(ctx, []graph.VocabEntry{
			{Term: "new", IDF: 2.0},
		}))
		require.NoError(t, cache.Reload(ctx, s))

		_, ok := cache.Get("old")
		assert.False(t, ok)
		entry, ok := cache.Get("new")
		require.True(t, ok)
		assert.Equal(t, 2.0, entry.IDF)
	})

	t.Run("MissingTableDegradesEmpty", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		_, err := s.db.Exec(`DROP TABLE vocabulary`)
		require.NoError(t, err)

		cache := NewVocabCache()
		require.NoError(t, cache.Reload(ctx, s))
		assert.Equal(t, 0, cache.Len())
	})
}
