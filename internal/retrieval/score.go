package retrieval

import (
	"math"
	"sort"

	"github.com/mtreiber/ctxgraph/internal/graph"
	"github.com/mtreiber/ctxgraph/internal/store"
)

// Blend weights for the candidate score. The depth term stands in for a
// co-change signal the indexer does not emit yet; when it does, the
// 0.10 share moves there.
const (
	weightSemantic   = 0.40
	weightCentrality = 0.25
	weightTaskWeight = 0.25
	weightDepth      = 0.10
)

// scoredCandidate pairs a traversal candidate with its blended score.
type scoredCandidate struct {
	Candidate
	Score float64
}

// queryVector builds a TF-IDF vector for the query over the cached
// vocabulary. Each component is
//
//	log(1+count(t)) / log(1+totalTokens) * idf(t)
//
// in first-occurrence order of the tokens. Tokens absent from the
// vocabulary are excluded entirely rather than zero-weighted, so an
// empty query or a disjoint vocabulary yields an empty vector.
func queryVector(query string, vocab *store.VocabCache) []float64 {
	tokens := tokenizeQuery(query)
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]int, len(tokens))
	var order []string
	for _, t := range tokens {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	norm := math.Log(1 + float64(len(tokens)))
	var vec []float64
	for _, t := range order {
		entry, ok := vocab.Get(t)
		if !ok {
			continue
		}
		tf := math.Log(1+float64(counts[t])) / norm
		vec = append(vec, tf*entry.IDF)
	}
	return vec
}

// cosine computes cosine similarity over the leading min(len) components.
// Empty or zero-norm inputs yield 0.
func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// scoreCandidates blends semantic similarity, centrality, task weight,
// and depth decay, then sorts descending. The sort is stable, so ties
// keep their traversal order.
func scoreCandidates(candidates []Candidate, qvec []float64) []scoredCandidate {
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		sim := 0.0
		if len(qvec) > 0 && len(c.Node.Embedding) > 0 {
			emb := c.Node.Embedding
			if len(emb) > len(qvec) {
				emb = emb[:len(qvec)]
			}
			sim = cosine(qvec, emb)
		}

		taskWeight := c.Node.TaskWeight
		if taskWeight == 0 {
			taskWeight = graph.DefaultTaskWeight
		}

		score := weightSemantic*sim +
			weightCentrality*c.Node.Centrality +
			weightTaskWeight*taskWeight +
			weightDepth*(1/(1+float64(c.Depth)*0.5))
		scored = append(scored, scoredCandidate{Candidate: c, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
