// Package graph defines the data model for the ctxgraph snapshot.
//
// It describes the node and edge types of the code-dependency graph that
// an external indexer writes into a SQLite snapshot, plus the result
// types returned by the retrieval engine. This package never touches
// storage; it is shared vocabulary between the store and the engine.
package graph

// NodeKind classifies a graph node.
type NodeKind string

const (
	KindFunction NodeKind = "function"
	KindMethod   NodeKind = "method"
	KindClass    NodeKind = "class"
	KindFile     NodeKind = "file"
	KindPackage  NodeKind = "package"
)

// EdgeType classifies a directed relation between two nodes.
type EdgeType string

const (
	EdgeCalls     EdgeType = "CALLS"
	EdgeImports   EdgeType = "IMPORTS"
	EdgeTests     EdgeType = "TESTS"
	EdgeCoChanges EdgeType = "CO_CHANGES"
)

// DefaultTaskWeight is the task-relevance weight for nodes the external
// feedback loop has never adjusted.
const DefaultTaskWeight = 0.5

// Node is one vertex of the snapshot graph.
//
// ID is immutable and globally unique. Name is a display name and may
// collide across files. Centrality and TaskWeight are precomputed by the
// indexer and the feedback loop respectively; this engine only reads them.
type Node struct {
	// ID is the unique identifier assigned by the indexer.
	ID string

	// Name is the display name (e.g. function name). Not unique.
	Name string

	// File is the originating source path. Empty if unknown.
	File string

	// Kind tags the entity type.
	Kind NodeKind

	// Signature is the declaration text.
	Signature string

	// Body is the full body text.
	Body string

	// Doc is the documentation text.
	Doc string

	// Complexity is a structural complexity score.
	Complexity float64

	// Centrality is a precomputed global importance score (e.g. PageRank).
	Centrality float64

	// TaskWeight is the feedback-loop relevance weight in [0,1].
	TaskWeight float64

	// Embedding is the precomputed term-vector embedding, or nil.
	Embedding []float64

	// PkgName and PkgVersion identify the owning package, if any.
	PkgName    string
	PkgVersion string
}

// Edge is a directed, typed relation between two node IDs.
//
// At most one edge exists per (Source, Target, Type) triple; duplicate
// inserts are ignored by the store, not errored.
type Edge struct {
	Source   string
	Target   string
	Type     EdgeType
	Weight   float64
	Metadata string
}

// VocabEntry is one term of the shared TF-IDF vocabulary table.
type VocabEntry struct {
	Term      string
	IDF       float64
	DocCount  int
	TermCount int
}

// TaskTrace is one feedback record from an LLM coding task.
type TaskTrace struct {
	// ID is generated at insert time.
	ID int64

	// Query is the task description the trace refers to.
	Query string

	// NodeIDs lists the nodes judged relevant, in order.
	NodeIDs []string

	// Polarity is in [-1,1]: negative = rejected, positive = accepted,
	// zero = neutral.
	Polarity float64

	// SessionID groups traces from one assistant session. Optional.
	SessionID string

	// CreatedAt is an RFC3339 UTC timestamp.
	CreatedAt string
}

// RetrievalMode tags which fallback tier produced a ContextResult.
// Diagnostic only; callers must not branch on it.
type RetrievalMode string

const (
	// ModeVector means candidates were ranked with a TF-IDF query vector.
	ModeVector RetrievalMode = "vector"

	// ModeFullText means the seed came from full-text search but no
	// query vector was available for ranking.
	ModeFullText RetrievalMode = "fulltext"

	// ModeCentrality means only centrality ordering was available.
	ModeCentrality RetrievalMode = "centrality"
)

// ContextResult is the output of a context query.
type ContextResult struct {
	// Context is the rendered text bundle.
	Context string

	// NodeIDs lists the included nodes in selection order.
	NodeIDs []string

	// TokenEstimate is the estimated token cost actually used.
	// Never exceeds the requested budget.
	TokenEstimate int

	// SeedNode is the resolved seed node ID, or empty when the snapshot
	// held no nodes at all.
	SeedNode string

	// Mode records which retrieval tier produced the result.
	Mode RetrievalMode
}

// NodeDetail is a node joined with its immediate CALLS/TESTS neighbors.
type NodeDetail struct {
	Node    Node
	Callers []string
	Callees []string
	Tests   []string
}

// Summary is a snapshot overview for reporting.
type Summary struct {
	NodeCount int
	EdgeCount int
	NodeKinds map[string]int
	EdgeTypes map[string]int

	// TopHubs are the ten highest-centrality nodes.
	TopHubs []Hub

	// Indexer provenance, from the metadata table.
	BuildTime      string
	IndexerVersion string
	EmbedMethod    string
	ProjectRoot    string
}

// Hub is one entry of Summary.TopHubs.
type Hub struct {
	Name       string
	Centrality float64
}
