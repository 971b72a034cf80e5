package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtreiber/ctxgraph/internal/graph"
	"github.com/mtreiber/ctxgraph/internal/store"
)

func seedResolverFixture(t *testing.T) *store.Store {
	t.Helper()

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertNodes(ctx, []graph.Node{
		{ID: "fn:build", Name: "build_rrlm_graph", Kind: graph.KindFunction,
			Doc: "Build the dependency graph.", Centrality: 0.9},
		{ID: "fn:central", Name: "compute_centrality", Kind: graph.KindFunction,
			Centrality: 0.6},
		{ID: "fn:norm", Name: "normalize_scores", Kind: graph.KindFunction,
			Centrality: 0.3},
	}))
	return s
}

func TestResolveSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("ExplicitSeedNameWins", func(t *testing.T) {
		t.Parallel()
		s := seedResolverFixture(t)

		id, viaFTS, err := resolveSeed(ctx, s, "anything at all", "normalize_scores")

		require.NoError(t, err)
		assert.Equal(t, "fn:norm", id)
		assert.False(t, viaFTS)
	})

	t.Run("UnknownSeedNameFallsThrough", func(t *testing.T) {
		t.Parallel()
		s := seedResolverFixture(t)

		id, _, err := resolveSeed(ctx, s, "", "no_such_node")

		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("FullTextMatch", func(t *testing.T) {
		t.Parallel()
		s := seedResolverFixture(t)
		if !s.FTSAvailable() {
			t.Skip("FTS5 unavailable in this SQLite build")
		}

		id, viaFTS, err := resolveSeed(ctx, s, "fix the dependency build step", "")

		require.NoError(t, err)
		assert.Equal(t, "fn:build", id)
		assert.True(t, viaFTS)
	})

	t.Run("EmptyQueryFallsBackToCentrality", func(t *testing.T) {
		t.Parallel()
		s := seedResolverFixture(t)

		id, viaFTS, err := resolveSeed(ctx, s, "", "")

		require.NoError(t, err)
		assert.Equal(t, "fn:build", id)
		assert.False(t, viaFTS)
	})

	t.Run("ZeroCentralityStillResolves", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		require.NoError(t, s.UpsertNodes(ctx, []graph.Node{
			{ID: "fn:a", Name: "alpha"},
			{ID: "fn:b", Name: "beta"},
		}))

		id, _, err := resolveSeed(ctx, s, "", "")

		require.NoError(t, err)
		assert.Equal(t, "fn:a", id)
	})

	t.Run("EmptySnapshot", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		id, viaFTS, err := resolveSeed(ctx, s, "whatever query text here", "")

		require.NoError(t, err)
		assert.Empty(t, id)
		assert.False(t, viaFTS)
	})
}

func TestSeedByTokenOverlap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := seedResolverFixture(t)

	t.Run("OverlapBeatsCentrality", func(t *testing.T) {
		id, err := seedByTokenOverlap(ctx, s, []string{"normalize_scores"})

		require.NoError(t, err)
		assert.Equal(t, "fn:norm", id)
	})

	t.Run("NoOverlapPicksMostCentral", func(t *testing.T) {
		id, err := seedByTokenOverlap(ctx, s, nil)

		require.NoError(t, err)
		assert.Equal(t, "fn:build", id)
	})

	t.Run("AllZeroScoresSelectNothing", func(t *testing.T) {
		zero := newTestStore(t)
		require.NoError(t, zero.UpsertNodes(ctx, []graph.Node{
			{ID: "fn:a", Name: "alpha"},
			{ID: "fn:b", Name: "beta"},
		}))

		id, err := seedByTokenOverlap(ctx, zero, []string{"nomatch"})

		require.NoError(t, err)
		assert.Empty(t, id)
	})
}
