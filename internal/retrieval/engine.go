// Package retrieval implements the ctxgraph retrieval engine: seed
// resolution, bounded graph traversal, TF-IDF relevance scoring, and
// budget-constrained context assembly over a snapshot store.
//
// Every operation is synchronous and runs to completion; concurrent
// callers are serialized by the host process or by SQLite's own
// locking. The vocabulary cache is the only cross-call mutable state.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/mtreiber/ctxgraph/internal/graph"
	"github.com/mtreiber/ctxgraph/internal/store"
)

// DefaultBudgetTokens is the token budget when the caller passes none.
const DefaultBudgetTokens = 6000

// Engine answers context queries against one open snapshot.
type Engine struct {
	store *store.Store
	vocab *store.VocabCache
}

// New creates an engine over st and loads the vocabulary cache.
func New(ctx context.Context, st *store.Store) (*Engine, error) {
	vocab := store.NewVocabCache()
	if err := vocab.Reload(ctx, st); err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}
	return &Engine{store: st, vocab: vocab}, nil
}

// Store exposes the underlying snapshot store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// QueryOptions are the parameters of one context query. Zero values
// take the documented defaults.
type QueryOptions struct {
	Query        string
	SeedName     string
	BudgetTokens int
	MaxDepth     int
	MaxNodes     int
}

func (o *QueryOptions) setDefaults() {
	if o.BudgetTokens <= 0 {
		o.BudgetTokens = DefaultBudgetTokens
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
}

// QueryContext retrieves a budget-bounded context bundle for a task
// description: resolve a seed, expand outward, score, and greedily
// assemble. On an empty snapshot it returns a placeholder bundle with
// no seed rather than an error.
func (e *Engine) QueryContext(ctx context.Context, opts QueryOptions) (*graph.ContextResult, error) {
	opts.setDefaults()

	seedID, viaFTS, err := resolveSeed(ctx, e.store, opts.Query, opts.SeedName)
	if err != nil {
		return nil, err
	}
	if seedID == "" {
		return &graph.ContextResult{
			Context: "# No graph data available.\n",
			NodeIDs: []string{},
			Mode:    graph.ModeCentrality,
		}, nil
	}

	candidates, err := traverse(ctx, e.store, seedID, "", opts.MaxDepth, opts.MaxNodes)
	if err != nil {
		return nil, err
	}

	qvec := queryVector(opts.Query, e.vocab)
	scored := scoreCandidates(candidates, qvec)

	text, nodeIDs, usedTokens, err := assemble(ctx, e.store, opts.Query, scored, opts.BudgetTokens)
	if err != nil {
		return nil, err
	}
	if nodeIDs == nil {
		nodeIDs = []string{}
	}

	mode := graph.ModeCentrality
	switch {
	case len(qvec) > 0:
		mode = graph.ModeVector
	case viaFTS:
		mode = graph.ModeFullText
	}

	return &graph.ContextResult{
		Context:       text,
		NodeIDs:       nodeIDs,
		TokenEstimate: usedTokens,
		SeedNode:      seedID,
		Mode:          mode,
	}, nil
}

// GetNodeInfo returns full details for the node with the given display
// name, or nil when no node matches. The body is included only when
// includeBody is set.
func (e *Engine) GetNodeInfo(ctx context.Context, name string, includeBody bool) (*graph.NodeDetail, error) {
	node, err := e.store.GetNodeByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	if !includeBody {
		node.Body = ""
	}

	detail := &graph.NodeDetail{Node: *node}
	if detail.Callers, err = e.store.NeighborNames(ctx, node.ID, graph.EdgeCalls, true, 20); err != nil {
		return nil, err
	}
	if detail.Callees, err = e.store.NeighborNames(ctx, node.ID, graph.EdgeCalls, false, 20); err != nil {
		return nil, err
	}
	if detail.Tests, err = e.store.NeighborNames(ctx, node.ID, graph.EdgeTests, true, 20); err != nil {
		return nil, err
	}
	return detail, nil
}

// FindSimilar returns up to limit node names resembling name, matching
// each non-alphanumeric-delimited segment as a substring. Blank input
// yields an empty result. Prefers the full-text index and falls back to
// a LIKE scan when the index is unavailable.
func (e *Engine) FindSimilar(ctx context.Context, name string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	segments := nameSegments(name)
	if len(segments) == 0 {
		return []string{}, nil
	}

	seen := make(map[string]bool)
	var names []string
	add := func(candidates []string) {
		for _, c := range candidates {
			if !seen[c] && len(names) < limit {
				seen[c] = true
				names = append(names, c)
			}
		}
	}

	match := ""
	for i, seg := range segments {
		if i > 0 {
			match += " OR "
		}
		match += seg + "*"
	}
	hits, err := e.store.SearchFTS(ctx, match, limit)
	if err == nil {
		for _, h := range hits {
			add([]string{h.Name})
		}
	} else if !errors.Is(err, store.ErrNoFTS) {
		return nil, err
	}

	if len(names) < limit {
		for _, seg := range segments {
			like, err := e.store.NamesLike(ctx, seg, limit)
			if err != nil {
				return nil, err
			}
			add(like)
		}
	}

	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Summary returns the snapshot overview.
func (e *Engine) Summary(ctx context.Context) (*graph.Summary, error) {
	return e.store.Summary(ctx)
}

// FileNodes returns all nodes from the given source file, matching the
// path exactly or as a suffix. Unknown paths yield an empty slice.
func (e *Engine) FileNodes(ctx context.Context, path string) ([]graph.NodeDetail, error) {
	nodes, err := e.store.NodesByFile(ctx, path)
	if err != nil {
		return nil, err
	}
	details := make([]graph.NodeDetail, 0, len(nodes))
	for _, n := range nodes {
		details = append(details, graph.NodeDetail{Node: n})
	}
	return details, nil
}

// AddTaskTrace records one task outcome and returns the generated trace
// ID. Polarity outside [-1,1] fails with store.ErrPolarityRange.
func (e *Engine) AddTaskTrace(ctx context.Context, query string, nodeIDs []string, polarity float64, sessionID string) (int64, error) {
	return e.store.AppendTrace(ctx, graph.TaskTrace{
		Query:     query,
		NodeIDs:   nodeIDs,
		Polarity:  polarity,
		SessionID: sessionID,
	})
}

// TaskHistory returns the most recent limit traces, newest first.
func (e *Engine) TaskHistory(ctx context.Context, limit int) ([]graph.TaskTrace, error) {
	if limit <= 0 {
		limit = 20
	}
	return e.store.RecentTraces(ctx, limit)
}

// ReloadVocabulary re-reads the vocabulary table, typically after the
// external indexer finishes writing a new snapshot.
func (e *Engine) ReloadVocabulary(ctx context.Context) error {
	return e.vocab.Reload(ctx, e.store)
}
