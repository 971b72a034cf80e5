package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtreiber/ctxgraph/internal/graph"
	"github.com/mtreiber/ctxgraph/internal/store"
)

func insertChain(t *testing.T, s *store.Store, nodes []graph.Node, edges []graph.Edge) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, s.UpsertNodes(ctx, nodes))
	require.NoError(t, s.InsertEdges(ctx, edges))
}

func TestTraverse(t *testing.T) {
	t.Parallel()

	t.Run("CycleTerminatesAtMinimumDepths", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		insertChain(t, s,
			[]graph.Node{{ID: "a", Name: "a"}, {ID: "b", Name: "b"}, {ID: "c", Name: "c"}},
			[]graph.Edge{
				{Source: "a", Target: "b", Type: graph.EdgeCalls},
				{Source: "b", Target: "c", Type: graph.EdgeCalls},
				{Source: "c", Target: "a", Type: graph.EdgeCalls},
			})

		got, err := traverse(context.Background(), s, "a", "", 5, 0)

		require.NoError(t, err)
		require.Len(t, got, 3)
		depths := map[string]int{}
		for _, c := range got {
			depths[c.Node.ID] = c.Depth
		}
		assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, depths)
	})

	t.Run("DepthBound", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		insertChain(t, s,
			[]graph.Node{{ID: "a", Name: "a"}, {ID: "b", Name: "b"}, {ID: "c", Name: "c"}},
			[]graph.Edge{
				{Source: "a", Target: "b", Type: graph.EdgeCalls},
				{Source: "b", Target: "c", Type: graph.EdgeCalls},
			})

		got, err := traverse(context.Background(), s, "a", "", 1, 0)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Node.ID)
		assert.Equal(t, "b", got[1].Node.ID)
	})

	t.Run("DirectedOnly", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		insertChain(t, s,
			[]graph.Node{{ID: "a", Name: "a"}, {ID: "b", Name: "b"}},
			[]graph.Edge{{Source: "b", Target: "a", Type: graph.EdgeCalls}})

		got, err := traverse(context.Background(), s, "a", "", 3, 0)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].Node.ID)
	})

	t.Run("EdgeTypeFilter", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		insertChain(t, s,
			[]graph.Node{{ID: "a", Name: "a"}, {ID: "b", Name: "b"}, {ID: "c", Name: "c"}},
			[]graph.Edge{
				{Source: "a", Target: "b", Type: graph.EdgeCalls},
				{Source: "a", Target: "c", Type: graph.EdgeImports},
			})

		got, err := traverse(context.Background(), s, "a", graph.EdgeCalls, 3, 0)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "b", got[1].Node.ID)
	})

	t.Run("OrderedByDepthThenCentrality", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		insertChain(t, s,
			[]graph.Node{
				{ID: "seed", Name: "seed", Centrality: 0.1},
				{ID: "low", Name: "low", Centrality: 0.2},
				{ID: "high", Name: "high", Centrality: 0.9},
			},
			[]graph.Edge{
				{Source: "seed", Target: "low", Type: graph.EdgeCalls},
				{Source: "seed", Target: "high", Type: graph.EdgeCalls},
			})

		got, err := traverse(context.Background(), s, "seed", "", 3, 0)

		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "seed", got[0].Node.ID)
		assert.Equal(t, "high", got[1].Node.ID)
		assert.Equal(t, "low", got[2].Node.ID)
	})

	t.Run("TruncatesToMaxNodes", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		nodes := []graph.Node{{ID: "seed", Name: "seed", Centrality: 1}}
		var edges []graph.Edge
		for _, id := range []string{"n1", "n2", "n3", "n4"} {
			nodes = append(nodes, graph.Node{ID: id, Name: id})
			edges = append(edges, graph.Edge{Source: "seed", Target: id, Type: graph.EdgeCalls})
		}
		insertChain(t, s, nodes, edges)

		got, err := traverse(context.Background(), s, "seed", "", 3, 2)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "seed", got[0].Node.ID)
	})

	t.Run("DanglingEdgeSkipped", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		insertChain(t, s,
			[]graph.Node{{ID: "a", Name: "a"}},
			[]graph.Edge{{Source: "a", Target: "ghost", Type: graph.EdgeCalls}})

		got, err := traverse(context.Background(), s, "a", "", 3, 0)

		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("UnknownSeed", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		got, err := traverse(context.Background(), s, "nope", "", 3, 0)

		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
