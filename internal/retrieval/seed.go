package retrieval

import (
	"context"
	"errors"
	"strings"

	"github.com/mtreiber/ctxgraph/internal/store"
)

// centralityScanLimit bounds the tier-3 fallback scan.
const centralityScanLimit = 200

// resolveSeed picks the traversal's starting node. Tiers, first hit wins:
//
//  1. exact display-name match on the caller-supplied seed name
//  2. full-text search over name/body/doc, first ten query tokens OR-ed
//  3. token overlap + centrality over the 200 most central nodes
//  4. the single most central node in the snapshot
//
// It returns viaFTS=true when tier 2 produced the seed, and an empty id
// only when the snapshot has no nodes at all. An unmatched or empty
// query is never an error.
func resolveSeed(ctx context.Context, st *store.Store, query, seedName string) (id string, viaFTS bool, err error) {
	if seedName != "" {
		node, err := st.GetNodeByName(ctx, seedName)
		if err != nil {
			return "", false, err
		}
		if node != nil {
			return node.ID, false, nil
		}
	}

	tokens := tokenizeQuery(query)
	if len(tokens) > 10 {
		tokens = tokens[:10]
	}
	if len(tokens) > 0 {
		hits, err := st.SearchFTS(ctx, strings.Join(tokens, " OR "), 1)
		if err != nil && !errors.Is(err, store.ErrNoFTS) {
			return "", false, err
		}
		if len(hits) > 0 {
			return hits[0].NodeID, true, nil
		}
	}

	id, err = seedByTokenOverlap(ctx, st, tokens)
	if err != nil || id != "" {
		return id, false, err
	}

	top, err := st.TopNodesByCentrality(ctx, 1)
	if err != nil {
		return "", false, err
	}
	if len(top) == 0 {
		return "", false, nil
	}
	return top[0].ID, false, nil
}

// seedByTokenOverlap scores the most central nodes by how many query
// tokens appear in their name, plus centrality. Ties keep the earlier
// candidate, which follows store iteration order.
func seedByTokenOverlap(ctx context.Context, st *store.Store, tokens []string) (string, error) {
	candidates, err := st.TopNodesByCentrality(ctx, centralityScanLimit)
	if err != nil {
		return "", err
	}

	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}

	// Starting at 0 with a strict > means an all-zero scan (no overlap,
	// zero centrality everywhere) selects nothing and the caller's final
	// centrality tier decides instead.
	bestScore := 0.0
	bestID := ""
	for _, c := range candidates {
		overlap := 0
		for _, t := range tokenizeQuery(c.Name) {
			if tokenSet[t] {
				overlap++
			}
		}
		score := float64(overlap) + c.Centrality
		if score > bestScore {
			bestScore = score
			bestID = c.ID
		}
	}
	return bestID, nil
}
