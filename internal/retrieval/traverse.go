package retrieval

import (
	"context"
	"sort"

	"github.com/mtreiber/ctxgraph/internal/graph"
	"github.com/mtreiber/ctxgraph/internal/store"
)

// Default traversal bounds.
const (
	DefaultMaxDepth = 3
	DefaultMaxNodes = 80
)

// Candidate is a node discovered by traversal, annotated with its
// minimum depth from the seed (0 for the seed itself).
type Candidate struct {
	Node  graph.Node
	Depth int
}

// traverse expands outward from seedID along directed edges
// (source to target only) up to maxDepth. An empty edgeType follows
// every edge type. The result is ordered by depth ascending, then
// centrality descending, and truncated to maxNodes.
//
// Cycle safety: the visited map records each node at its first
// (minimum) discovered depth and is never overwritten, so a node
// reachable over several paths appears once and cyclic graphs
// terminate.
func traverse(ctx context.Context, st *store.Store, seedID string, edgeType graph.EdgeType, maxDepth, maxNodes int) ([]Candidate, error) {
	seed, err := st.GetNodeByID(ctx, seedID)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return nil, nil
	}

	type item struct {
		id    string
		depth int
	}

	visited := map[string]int{seedID: 0}
	order := []Candidate{{Node: *seed, Depth: 0}}
	queue := []item{{id: seedID, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			continue
		}

		edges, err := st.OutgoingEdges(ctx, cur.id, edgeType)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if _, seen := visited[e.Target]; seen {
				continue
			}
			node, err := st.GetNodeByID(ctx, e.Target)
			if err != nil {
				return nil, err
			}
			if node == nil {
				// Dangling edge; the indexer may have pruned the target.
				continue
			}
			visited[e.Target] = cur.depth + 1
			order = append(order, Candidate{Node: *node, Depth: cur.depth + 1})
			queue = append(queue, item{id: e.Target, depth: cur.depth + 1})
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Depth != order[j].Depth {
			return order[i].Depth < order[j].Depth
		}
		return order[i].Node.Centrality > order[j].Node.Centrality
	})

	if maxNodes > 0 && len(order) > maxNodes {
		order = order[:maxNodes]
	}
	return order, nil
}
