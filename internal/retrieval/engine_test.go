package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtreiber/ctxgraph/internal/graph"
	"github.com/mtreiber/ctxgraph/internal/store"
)

// newTestEngine builds an engine over a three-node call chain with a
// small vocabulary, mirroring what the indexer writes for a tiny repo.
func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertNodes(ctx, []graph.Node{
		{ID: "fn:build", Name: "build_rrlm_graph", File: "src/builder.py",
			Kind: graph.KindFunction, Signature: "def build_rrlm_graph(root)",
			Doc: "Build the dependency graph.", Body: "def build_rrlm_graph(root):\n    pass",
			Centrality: 0.9, TaskWeight: 0.5, Embedding: []float64{0.4, 0.3, 0.5}},
		{ID: "fn:central", Name: "compute_centrality", File: "src/rank.py",
			Kind: graph.KindFunction, Centrality: 0.6, TaskWeight: 0.5,
			Embedding: []float64{0.1, 0.8, 0.2}},
		{ID: "fn:norm", Name: "normalize_scores", File: "src/rank.py",
			Kind: graph.KindFunction, Centrality: 0.3, TaskWeight: 0.5},
	}))
	require.NoError(t, s.InsertEdges(ctx, []graph.Edge{
		{Source: "fn:build", Target: "fn:central", Type: graph.EdgeCalls},
		{Source: "fn:central", Target: "fn:norm", Type: graph.EdgeCalls},
	}))
	require.NoError(t, s.ReplaceVocabulary(ctx, []graph.VocabEntry{
		{Term: "build", IDF: 0.4},
		{Term: "graph", IDF: 0.3},
		{Term: "query", IDF: 0.5},
	}))

	engine, err := New(ctx, s)
	require.NoError(t, err)
	return engine, s
}

func TestEngine_QueryContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("EndToEnd", func(t *testing.T) {
		t.Parallel()
		engine, _ := newTestEngine(t)

		result, err := engine.QueryContext(ctx, QueryOptions{
			Query:        "build a graph",
			BudgetTokens: 2000,
		})

		require.NoError(t, err)
		assert.NotEmpty(t, result.NodeIDs)
		assert.Contains(t, result.Context, "# Query: build a graph")
		assert.Less(t, result.TokenEstimate, 2000)
		assert.NotEmpty(t, result.SeedNode)
		assert.Equal(t, graph.ModeVector, result.Mode)
	})

	t.Run("ExplicitSeedName", func(t *testing.T) {
		t.Parallel()
		engine, _ := newTestEngine(t)

		result, err := engine.QueryContext(ctx, QueryOptions{
			Query:    "anything",
			SeedName: "compute_centrality",
		})

		require.NoError(t, err)
		assert.Equal(t, "fn:central", result.SeedNode)
		assert.Contains(t, result.NodeIDs, "fn:central")
		// fn:build is upstream of the seed and unreachable along
		// directed edges.
		assert.NotContains(t, result.NodeIDs, "fn:build")
	})

	t.Run("UnknownVocabularyFallsBack", func(t *testing.T) {
		t.Parallel()
		engine, _ := newTestEngine(t)

		result, err := engine.QueryContext(ctx, QueryOptions{
			Query: "unrelated words entirely",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, result.NodeIDs)
		assert.NotEqual(t, graph.ModeVector, result.Mode)
	})

	t.Run("EmptySnapshot", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		engine, err := New(ctx, s)
		require.NoError(t, err)

		result, err := engine.QueryContext(ctx, QueryOptions{Query: "anything"})

		require.NoError(t, err)
		assert.Equal(t, "# No graph data available.\n", result.Context)
		assert.Equal(t, []string{}, result.NodeIDs)
		assert.Empty(t, result.SeedNode)
		assert.Equal(t, graph.ModeCentrality, result.Mode)
	})
}

func TestEngine_GetNodeInfo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _ := newTestEngine(t)

	t.Run("Found", func(t *testing.T) {
		info, err := engine.GetNodeInfo(ctx, "compute_centrality", false)

		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, []string{"build_rrlm_graph"}, info.Callers)
		assert.Equal(t, []string{"normalize_scores"}, info.Callees)
		assert.Empty(t, info.Node.Body)
	})

	t.Run("IncludeBody", func(t *testing.T) {
		info, err := engine.GetNodeInfo(ctx, "build_rrlm_graph", true)

		require.NoError(t, err)
		require.NotNil(t, info)
		assert.NotEmpty(t, info.Node.Body)
	})

	t.Run("NotFound", func(t *testing.T) {
		info, err := engine.GetNodeInfo(ctx, "missing_node", false)

		require.NoError(t, err)
		assert.Nil(t, info)
	})
}

func TestEngine_FindSimilar(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _ := newTestEngine(t)

	t.Run("SegmentMatch", func(t *testing.T) {
		names, err := engine.FindSimilar(ctx, "build_graph", 5)

		require.NoError(t, err)
		assert.Contains(t, names, "build_rrlm_graph")
	})

	t.Run("BlankInput", func(t *testing.T) {
		names, err := engine.FindSimilar(ctx, "   ", 5)

		require.NoError(t, err)
		assert.Equal(t, []string{}, names)
	})

	t.Run("LimitRespected", func(t *testing.T) {
		names, err := engine.FindSimilar(ctx, "scores centrality graph", 2)

		require.NoError(t, err)
		assert.LessOrEqual(t, len(names), 2)
	})
}

func TestEngine_FileNodes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _ := newTestEngine(t)

	t.Run("KnownFile", func(t *testing.T) {
		details, err := engine.FileNodes(ctx, "src/rank.py")

		require.NoError(t, err)
		assert.Len(t, details, 2)
	})

	t.Run("UnknownFile", func(t *testing.T) {
		details, err := engine.FileNodes(ctx, "no/such.py")

		require.NoError(t, err)
		assert.Empty(t, details)
	})
}

func TestEngine_TaskTraces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _ := newTestEngine(t)

	id, err := engine.AddTaskTrace(ctx, "add retry to fetcher", []string{"fn:build"}, 0.8, "sess")
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = engine.AddTaskTrace(ctx, "bad", nil, 2.0, "")
	assert.ErrorIs(t, err, store.ErrPolarityRange)

	traces, err := engine.TaskHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, "add retry to fetcher", traces[0].Query)
}

func TestEngine_ReloadVocabulary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, s := newTestEngine(t)

	require.NoError(t, s.ReplaceVocabulary(ctx, []graph.VocabEntry{
		{Term: "watcher", IDF: 1.0},
	}))
	require.NoError(t, engine.ReloadVocabulary(ctx))

	result, err := engine.QueryContext(ctx, QueryOptions{Query: "watcher"})
	require.NoError(t, err)
	assert.Equal(t, graph.ModeVector, result.Mode)
}
