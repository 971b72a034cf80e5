// Package store provides read-mostly access to a ctxgraph SQLite snapshot.
//
// The snapshot is produced by an external indexer; this package queries
// it and appends task traces, but never builds the graph itself. All
// reads are point-in-time against the open handle, relying on SQLite's
// WAL discipline for multi-reader safety.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mtreiber/ctxgraph/internal/graph"
)

var (
	// ErrMissingSnapshot indicates the snapshot file does not exist.
	ErrMissingSnapshot = errors.New("snapshot not found")

	// ErrCorruptSnapshot indicates the snapshot file exists but cannot
	// be read as a SQLite database.
	ErrCorruptSnapshot = errors.New("snapshot unreadable")

	// ErrNoFTS indicates the snapshot has no usable full-text index.
	// Callers are expected to fall back to another retrieval tier.
	ErrNoFTS = errors.New("full-text index unavailable")

	// ErrPolarityRange rejects trace polarity outside [-1, 1].
	ErrPolarityRange = errors.New("polarity must be in [-1, 1]")
)

// Store is a handle to one snapshot database.
type Store struct {
	db    *sql.DB
	path  string
	ftsOK bool
}

// FTSHit is one row of a full-text search.
type FTSHit struct {
	NodeID string
	Name   string
}

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	node_id     TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	file        TEXT,
	node_type   TEXT,
	signature   TEXT,
	body_text   TEXT,
	doc_text    TEXT,
	complexity  REAL,
	centrality  REAL,
	task_weight REAL DEFAULT 0.5,
	embedding   TEXT,
	pkg_name    TEXT,
	pkg_version TEXT
);
CREATE TABLE IF NOT EXISTS edges (
	edge_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	edge_type TEXT NOT NULL,
	weight    REAL DEFAULT 1.0,
	metadata  TEXT,
	UNIQUE(source_id, target_id, edge_type)
);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
CREATE TABLE IF NOT EXISTS vocabulary (
	term       TEXT PRIMARY KEY,
	idf        REAL NOT NULL,
	doc_count  INTEGER DEFAULT 0,
	term_count INTEGER DEFAULT 0
);
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT
);
CREATE TABLE IF NOT EXISTS task_traces (
	trace_id      INTEGER PRIMARY KEY AUTOINCREMENT,
	query         TEXT,
	node_ids_json TEXT,
	polarity      REAL DEFAULT 1.0,
	session_id    TEXT,
	created_at    TEXT
);
`

// ftsSchema is applied separately so that builds of SQLite without FTS5
// degrade to ftsOK=false instead of failing the open.
const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
	name, body_text, doc_text,
	content='nodes', content_rowid='rowid'
);
CREATE TRIGGER IF NOT EXISTS nodes_fts_ai AFTER INSERT ON nodes BEGIN
	INSERT INTO nodes_fts(rowid, name, body_text, doc_text)
	VALUES (new.rowid, new.name, new.body_text, new.doc_text);
END;
CREATE TRIGGER IF NOT EXISTS nodes_fts_ad AFTER DELETE ON nodes BEGIN
	INSERT INTO nodes_fts(nodes_fts, rowid, name, body_text, doc_text)
	VALUES ('delete', old.rowid, old.name, old.body_text, old.doc_text);
END;
CREATE TRIGGER IF NOT EXISTS nodes_fts_au AFTER UPDATE ON nodes BEGIN
	INSERT INTO nodes_fts(nodes_fts, rowid, name, body_text, doc_text)
	VALUES ('delete', old.rowid, old.name, old.body_text, old.doc_text);
	INSERT INTO nodes_fts(rowid, name, body_text, doc_text)
	VALUES (new.rowid, new.name, new.body_text, new.doc_text);
END;
`

// Open opens the snapshot at path. When create is false the file must
// already exist; a missing file is reported as ErrMissingSnapshot and a
// file that cannot be read as SQLite as ErrCorruptSnapshot, so callers
// can tell the two apart.
func Open(path string, create bool) (*Store, error) {
	if !create {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSnapshot, path)
		}
	}

	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}

	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, path, err)
	}

	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// FTSAvailable reports whether the full-text index can be queried.
func (s *Store) FTSAvailable() bool {
	return s.ftsOK
}

func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	// FTS5 may be absent from the SQLite build or from older snapshots.
	if _, err := s.db.Exec(ftsSchema); err == nil {
		s.ftsOK = true
	}
	return nil
}

const nodeColumns = `node_id, name, COALESCE(file, ''), COALESCE(node_type, ''),
	COALESCE(signature, ''), COALESCE(body_text, ''), COALESCE(doc_text, ''),
	COALESCE(complexity, 0), COALESCE(centrality, 0), COALESCE(task_weight, 0.5),
	COALESCE(embedding, ''), COALESCE(pkg_name, ''), COALESCE(pkg_version, '')`

func scanNode(row interface{ Scan(...any) error }) (*graph.Node, error) {
	var n graph.Node
	var kind, embedding string
	err := row.Scan(&n.ID, &n.Name, &n.File, &kind, &n.Signature, &n.Body,
		&n.Doc, &n.Complexity, &n.Centrality, &n.TaskWeight, &embedding,
		&n.PkgName, &n.PkgVersion)
	if err != nil {
		return nil, err
	}
	n.Kind = graph.NodeKind(kind)
	n.Embedding = decodeEmbedding(embedding)
	return &n, nil
}

// decodeEmbedding parses a JSON float array. Malformed or empty input
// decodes to nil so that a bad row degrades to no semantic signal.
func decodeEmbedding(raw string) []float64 {
	if raw == "" {
		return nil
	}
	var vec []float64
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil
	}
	return vec
}

// GetNodeByName returns the first node with the given display name, or
// nil when no node matches.
func (s *Store) GetNodeByName(ctx context.Context, name string) (*graph.Node, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE name = ? LIMIT 1`, name)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting node by name: %w", err)
	}
	return n, nil
}

// GetNodeByID returns the node with the given ID, or nil when absent.
func (s *Store) GetNodeByID(ctx context.Context, id string) (*graph.Node, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE node_id = ? LIMIT 1`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting node by id: %w", err)
	}
	return n, nil
}

// OutgoingEdges returns edges originating at id. An empty edgeType
// matches any type.
func (s *Store) OutgoingEdges(ctx context.Context, id string, edgeType graph.EdgeType) ([]graph.Edge, error) {
	return s.edges(ctx, "source_id", id, edgeType)
}

// IncomingEdges returns edges targeting id. An empty edgeType matches
// any type.
func (s *Store) IncomingEdges(ctx context.Context, id string, edgeType graph.EdgeType) ([]graph.Edge, error) {
	return s.edges(ctx, "target_id", id, edgeType)
}

func (s *Store) edges(ctx context.Context, column, id string, edgeType graph.EdgeType) ([]graph.Edge, error) {
	q := `SELECT source_id, target_id, edge_type, COALESCE(weight, 1), COALESCE(metadata, '')
		FROM edges WHERE ` + column + ` = ?`
	args := []any{id}
	if edgeType != "" {
		q += ` AND edge_type = ?`
		args = append(args, string(edgeType))
	}
	q += ` ORDER BY edge_id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var e graph.Edge
		var typ string
		if err := rows.Scan(&e.Source, &e.Target, &typ, &e.Weight, &e.Metadata); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		e.Type = graph.EdgeType(typ)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// NeighborNames returns display names of CALLS/TESTS-style neighbors.
// With incoming=true it returns sources of edges targeting id (callers),
// otherwise targets of edges originating at id (callees).
func (s *Store) NeighborNames(ctx context.Context, id string, edgeType graph.EdgeType, incoming bool, limit int) ([]string, error) {
	join, where := "e.target_id", "e.source_id"
	if incoming {
		join, where = "e.source_id", "e.target_id"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.name FROM edges e JOIN nodes n ON n.node_id = `+join+`
		 WHERE `+where+` = ? AND e.edge_type = ? ORDER BY e.edge_id LIMIT ?`,
		id, string(edgeType), limit)
	if err != nil {
		return nil, fmt.Errorf("querying neighbors: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TopNodesByCentrality returns up to limit nodes ordered by centrality
// descending. Ties fall back to node_id for a deterministic order.
func (s *Store) TopNodesByCentrality(ctx context.Context, limit int) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes
		 ORDER BY centrality DESC, node_id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top nodes: %w", err)
	}
	defer rows.Close()

	var nodes []graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// SearchFTS runs an FTS5 MATCH query over node name, body, and doc text
// and returns hits ordered by rank. Returns ErrNoFTS when the snapshot
// has no full-text index.
func (s *Store) SearchFTS(ctx context.Context, match string, limit int) ([]FTSHit, error) {
	if !s.ftsOK {
		return nil, ErrNoFTS
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.node_id, n.name FROM nodes_fts f
		 JOIN nodes n ON n.rowid = f.rowid
		 WHERE nodes_fts MATCH ? ORDER BY rank LIMIT ?`, match, limit)
	if err != nil {
		// A malformed MATCH expression is a degraded tier, not a failure.
		return nil, ErrNoFTS
	}
	defer rows.Close()

	var hits []FTSHit
	for rows.Next() {
		var h FTSHit
		if err := rows.Scan(&h.NodeID, &h.Name); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// NamesLike returns up to limit node names containing the substring.
// Fallback path for fuzzy name matching when FTS is unavailable.
func (s *Store) NamesLike(ctx context.Context, substring string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM nodes WHERE name LIKE ? ORDER BY node_id LIMIT ?`,
		"%"+substring+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("querying names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// NodesByFile returns all nodes whose file path equals path or ends
// with it. An unknown path yields an empty slice.
func (s *Store) NodesByFile(ctx context.Context, path string) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes
		 WHERE file = ? OR file LIKE ? ORDER BY node_id`, path, "%"+path)
	if err != nil {
		return nil, fmt.Errorf("querying file nodes: %w", err)
	}
	defer rows.Close()

	var nodes []graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// Metadata returns the value for a metadata key, or "" when unset.
func (s *Store) Metadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading metadata: %w", err)
	}
	return value, nil
}

// SetMetadata upserts one metadata key.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// Summary collects node/edge counts, type histograms, the top ten hubs
// by centrality, and indexer provenance metadata.
func (s *Store) Summary(ctx context.Context) (*graph.Summary, error) {
	sum := &graph.Summary{
		NodeKinds: make(map[string]int),
		EdgeTypes: make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&sum.NodeCount); err != nil {
		return nil, fmt.Errorf("counting nodes: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&sum.EdgeCount); err != nil {
		return nil, fmt.Errorf("counting edges: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(node_type, 'unknown'), COUNT(*) FROM nodes GROUP BY node_type`)
	if err != nil {
		return nil, fmt.Errorf("grouping node types: %w", err)
	}
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			rows.Close()
			return nil, err
		}
		sum.NodeKinds[kind] = count
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT COALESCE(edge_type, 'unknown'), COUNT(*) FROM edges GROUP BY edge_type`)
	if err != nil {
		return nil, fmt.Errorf("grouping edge types: %w", err)
	}
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			rows.Close()
			return nil, err
		}
		sum.EdgeTypes[typ] = count
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT name, COALESCE(centrality, 0) FROM nodes
		 ORDER BY centrality DESC, node_id ASC LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("querying hubs: %w", err)
	}
	for rows.Next() {
		var h graph.Hub
		if err := rows.Scan(&h.Name, &h.Centrality); err != nil {
			rows.Close()
			return nil, err
		}
		sum.TopHubs = append(sum.TopHubs, h)
	}
	rows.Close()

	for key, dst := range map[string]*string{
		"build_time":      &sum.BuildTime,
		"indexer_version": &sum.IndexerVersion,
		"embed_method":    &sum.EmbedMethod,
		"project_root":    &sum.ProjectRoot,
	} {
		v, err := s.Metadata(ctx, key)
		if err != nil {
			return nil, err
		}
		*dst = v
	}

	return sum, nil
}

// Vocabulary reads the whole vocabulary table. A snapshot written by an
// indexer configuration without TF-IDF support yields an empty map.
func (s *Store) Vocabulary(ctx context.Context) (map[string]graph.VocabEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, idf, COALESCE(doc_count, 0), COALESCE(term_count, 0) FROM vocabulary`)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return map[string]graph.VocabEntry{}, nil
		}
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	defer rows.Close()

	vocab := make(map[string]graph.VocabEntry)
	for rows.Next() {
		var e graph.VocabEntry
		if err := rows.Scan(&e.Term, &e.IDF, &e.DocCount, &e.TermCount); err != nil {
			return nil, err
		}
		vocab[e.Term] = e
	}
	return vocab, rows.Err()
}

// AppendTrace validates and persists one task trace, returning the
// generated trace ID. Polarity outside [-1,1] is rejected, never clamped.
func (s *Store) AppendTrace(ctx context.Context, t graph.TaskTrace) (int64, error) {
	if t.Polarity < -1 || t.Polarity > 1 {
		return 0, fmt.Errorf("%w, got %v", ErrPolarityRange, t.Polarity)
	}

	ids := t.NodeIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return 0, fmt.Errorf("encoding node ids: %w", err)
	}

	createdAt := t.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO task_traces(query, node_ids_json, polarity, session_id, created_at)
		 VALUES(?, ?, ?, ?, ?)`,
		t.Query, string(idsJSON), t.Polarity, t.SessionID, createdAt)
	if err != nil {
		return 0, fmt.Errorf("inserting trace: %w", err)
	}
	return res.LastInsertId()
}

// RecentTraces returns the most recent limit traces, newest first.
// Malformed stored node-id lists decode to an empty list.
func (s *Store) RecentTraces(ctx context.Context, limit int) ([]graph.TaskTrace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT trace_id, COALESCE(query, ''), COALESCE(node_ids_json, '[]'),
		        COALESCE(polarity, 0), COALESCE(session_id, ''), COALESCE(created_at, '')
		 FROM task_traces ORDER BY trace_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying traces: %w", err)
	}
	defer rows.Close()

	var traces []graph.TaskTrace
	for rows.Next() {
		var t graph.TaskTrace
		var idsJSON string
		if err := rows.Scan(&t.ID, &t.Query, &idsJSON, &t.Polarity, &t.SessionID, &t.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(idsJSON), &t.NodeIDs); err != nil {
			t.NodeIDs = []string{}
		}
		if t.NodeIDs == nil {
			t.NodeIDs = []string{}
		}
		traces = append(traces, t)
	}
	return traces, rows.Err()
}

// UpsertNodes inserts or replaces nodes. Used by the indexer's writer
// path and by tests; the retrieval engine never calls it.
func (s *Store) UpsertNodes(ctx context.Context, nodes []graph.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes(node_id, name, file, node_type, signature, body_text,
		                   doc_text, complexity, centrality, task_weight, embedding,
		                   pkg_name, pkg_version)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(node_id) DO UPDATE SET
		   name = excluded.name, file = excluded.file, node_type = excluded.node_type,
		   signature = excluded.signature, body_text = excluded.body_text,
		   doc_text = excluded.doc_text, complexity = excluded.complexity,
		   centrality = excluded.centrality, task_weight = excluded.task_weight,
		   embedding = excluded.embedding, pkg_name = excluded.pkg_name,
		   pkg_version = excluded.pkg_version`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		var embedding string
		if n.Embedding != nil {
			raw, err := json.Marshal(n.Embedding)
			if err != nil {
				return fmt.Errorf("encoding embedding: %w", err)
			}
			embedding = string(raw)
		}
		if _, err := stmt.ExecContext(ctx, n.ID, n.Name, n.File, string(n.Kind),
			n.Signature, n.Body, n.Doc, n.Complexity, n.Centrality, n.TaskWeight,
			embedding, n.PkgName, n.PkgVersion); err != nil {
			return fmt.Errorf("upserting node %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// InsertEdges inserts edges, silently skipping duplicates of an existing
// (source, target, type) triple.
func (s *Store) InsertEdges(ctx context.Context, edges []graph.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges(source_id, target_id, edge_type, weight, metadata)
		 VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(source_id, target_id, edge_type) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, e.Source, e.Target, string(e.Type),
			e.Weight, e.Metadata); err != nil {
			return fmt.Errorf("inserting edge %s->%s: %w", e.Source, e.Target, err)
		}
	}

	return tx.Commit()
}

// ReplaceVocabulary replaces the vocabulary table wholesale.
func (s *Store) ReplaceVocabulary(ctx context.Context, entries []graph.VocabEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vocabulary`); err != nil {
		return fmt.Errorf("clearing vocabulary: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vocabulary(term, idf, doc_count, term_count) VALUES(?, ?, ?, ?)`,
			e.Term, e.IDF, e.DocCount, e.TermCount); err != nil {
			return fmt.Errorf("inserting term %q: %w", e.Term, err)
		}
	}

	return tx.Commit()
}
