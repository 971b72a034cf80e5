package retrieval

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mtreiber/ctxgraph/internal/graph"
	"github.com/mtreiber/ctxgraph/internal/store"
)

// Rendering limits per node block.
const (
	maxDocChars      = 400
	maxBodyChars     = 1200
	maxNeighborNames = 10
)

// charsPerToken is the fixed character-to-token ratio for estimates.
const charsPerToken = 3.5

// estimateTokens approximates the token cost of text. Always at least 1.
func estimateTokens(text string) int {
	est := int(math.Ceil(float64(len(text)) / charsPerToken))
	if est < 1 {
		return 1
	}
	return est
}

// assemble greedily selects score-sorted candidates while the cumulative
// token estimate stays within budget. The first candidate that would
// overshoot stops the selection entirely; a cheaper candidate later in
// the list is never considered. The returned estimate therefore never
// exceeds the budget.
func assemble(ctx context.Context, st *store.Store, query string, scored []scoredCandidate, budget int) (string, []string, int, error) {
	var blocks []string
	var nodeIDs []string
	usedTokens := 0

	for _, sc := range scored {
		block, err := renderNode(ctx, st, sc.Node)
		if err != nil {
			return "", nil, 0, err
		}
		cost := estimateTokens(block)
		if usedTokens+cost > budget {
			break
		}
		blocks = append(blocks, block)
		nodeIDs = append(nodeIDs, sc.Node.ID)
		usedTokens += cost
	}

	header := fmt.Sprintf("# ctxgraph context\n# Query: %s\n# Nodes: %d | Tokens: ~%d\n\n",
		query, len(nodeIDs), usedTokens)
	return header + strings.Join(blocks, "\n---\n"), nodeIDs, usedTokens, nil
}

// renderNode renders one candidate's text block: identity line,
// signature, truncated documentation, immediate CALLS neighbors in both
// directions, and truncated body.
func renderNode(ctx context.Context, st *store.Store, n graph.Node) (string, error) {
	var lines []string

	kind := string(n.Kind)
	if kind == "" {
		kind = "node"
	}
	head := fmt.Sprintf("## %s  <%s>", n.Name, kind)
	if n.File != "" {
		head += fmt.Sprintf(" [%s]", n.File)
	}
	lines = append(lines, head)

	if n.Signature != "" {
		lines = append(lines, fmt.Sprintf("**Signature**: `%s`", n.Signature))
	}
	if n.Doc != "" {
		lines = append(lines, "**Documentation**:", truncate(n.Doc, maxDocChars))
	}

	callees, err := st.NeighborNames(ctx, n.ID, graph.EdgeCalls, false, maxNeighborNames)
	if err != nil {
		return "", err
	}
	if len(callees) > 0 {
		lines = append(lines, "**Calls**: "+strings.Join(callees, ", "))
	}

	callers, err := st.NeighborNames(ctx, n.ID, graph.EdgeCalls, true, maxNeighborNames)
	if err != nil {
		return "", err
	}
	if len(callers) > 0 {
		lines = append(lines, "**Called by**: "+strings.Join(callers, ", "))
	}

	if n.Body != "" {
		lines = append(lines, "```", truncate(n.Body, maxBodyChars), "```")
	}

	return strings.Join(lines, "\n"), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
