// Package cmd provides CLI command implementations for ctxgraph.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/mtreiber/ctxgraph/internal/rebuild"
	"github.com/mtreiber/ctxgraph/internal/retrieval"
	"github.com/mtreiber/ctxgraph/internal/store"
	"github.com/mtreiber/ctxgraph/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Project string `help:"Project root" env:"CTXGRAPH_PROJECT_PATH" default:"."`
	DB      string `help:"Snapshot database path (default <project>/.ctxgraph/graph.sqlite)" env:"CTXGRAPH_DB_PATH"`
}

// snapshotPath resolves the snapshot file location.
func (g *Globals) snapshotPath() (string, error) {
	if g.DB != "" {
		return g.DB, nil
	}
	project, err := filepath.Abs(g.Project)
	if err != nil {
		return "", fmt.Errorf("resolving project path: %w", err)
	}
	return filepath.Join(project, ".ctxgraph", "graph.sqlite"), nil
}

// openEngine opens the snapshot and builds a retrieval engine over it.
func (g *Globals) openEngine(ctx context.Context) (*retrieval.Engine, error) {
	path, err := g.snapshotPath()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(path, false)
	if err != nil {
		return nil, err
	}
	engine, err := retrieval.New(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return engine, nil
}

// indexerRunner builds a rebuild runner from the configured command,
// or nil when none is set.
func (g *Globals) indexerRunner(indexer string) *rebuild.Runner {
	if indexer == "" {
		return nil
	}
	project, err := filepath.Abs(g.Project)
	if err != nil {
		project = g.Project
	}
	return &rebuild.Runner{
		ProjectPath: project,
		Command:     strings.Fields(indexer),
	}
}

// QueryCmd retrieves task context from the graph.
type QueryCmd struct {
	Query    string `arg:"" help:"Natural language task description"`
	Budget   int    `help:"Token budget" env:"CTXGRAPH_BUDGET_TOKENS" default:"6000"`
	Seed     string `help:"Node name to anchor the traversal"`
	Depth    int    `short:"d" default:"3" help:"Maximum traversal depth"`
	MaxNodes int    `default:"80" help:"Maximum candidate nodes"`
}

// Run executes the query command.
func (c *QueryCmd) Run(g *Globals) error {
	ctx := context.Background()
	engine, err := g.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Store().Close() }()

	result, err := engine.QueryContext(ctx, retrieval.QueryOptions{
		Query:        c.Query,
		SeedName:     c.Seed,
		BudgetTokens: c.Budget,
		MaxDepth:     c.Depth,
		MaxNodes:     c.MaxNodes,
	})
	if err != nil {
		return fmt.Errorf("querying context: %w", err)
	}

	fmt.Println(result.Context)
	fmt.Println("---")
	fmt.Printf("Nodes: %d | Tokens: ~%d | Mode: %s\n",
		len(result.NodeIDs), result.TokenEstimate, result.Mode)
	if result.SeedNode == "" {
		color.Yellow("No seed node: snapshot is empty. Run the indexer first.")
	}
	return nil
}

// NodeCmd shows full details for one node.
type NodeCmd struct {
	Name   string `arg:"" help:"Exact node name"`
	Source bool   `short:"s" help:"Include full body text"`
}

// Run executes the node command.
func (c *NodeCmd) Run(g *Globals) error {
	ctx := context.Background()
	engine, err := g.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Store().Close() }()

	info, err := engine.GetNodeInfo(ctx, c.Name, c.Source)
	if err != nil {
		return err
	}
	if info == nil {
		similar, _ := engine.FindSimilar(ctx, c.Name, 5)
		fmt.Printf("Node '%s' not found.\n", c.Name)
		if len(similar) > 0 {
			fmt.Printf("Did you mean: %s?\n", strings.Join(similar, ", "))
		}
		return nil
	}

	n := info.Node
	color.Green("%s (%s)", n.Name, n.Kind)
	if n.File != "" {
		fmt.Printf("  File:       %s\n", n.File)
	}
	if n.Signature != "" {
		fmt.Printf("  Signature:  %s\n", n.Signature)
	}
	fmt.Printf("  Centrality: %.4f | Task weight: %.3f | Complexity: %.1f\n",
		n.Centrality, n.TaskWeight, n.Complexity)
	if n.Doc != "" {
		fmt.Printf("\n%s\n", n.Doc)
	}
	if len(info.Callers) > 0 {
		fmt.Printf("\nCalled by: %s\n", strings.Join(info.Callers, ", "))
	}
	if len(info.Callees) > 0 {
		fmt.Printf("Calls:     %s\n", strings.Join(info.Callees, ", "))
	}
	if len(info.Tests) > 0 {
		fmt.Printf("Tested by: %s\n", strings.Join(info.Tests, ", "))
	}
	if c.Source && n.Body != "" {
		fmt.Printf("\n%s\n", n.Body)
	}
	return nil
}

// SimilarCmd finds node names resembling a given name.
type SimilarCmd struct {
	Name  string `arg:"" help:"Name to match"`
	Limit int    `short:"n" default:"5" help:"Maximum results"`
}

// Run executes the similar command.
func (c *SimilarCmd) Run(g *Globals) error {
	ctx := context.Background()
	engine, err := g.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Store().Close() }()

	names, err := engine.FindSimilar(ctx, c.Name, c.Limit)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No similar nodes found")
		return nil
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

// SummaryCmd prints a snapshot overview.
type SummaryCmd struct{}

// Run executes the summary command.
func (c *SummaryCmd) Run(g *Globals) error {
	ctx := context.Background()
	engine, err := g.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Store().Close() }()

	sum, err := engine.Summary(ctx)
	if err != nil {
		return err
	}

	color.Green("Snapshot summary")
	fmt.Printf("  Nodes:   %d\n", sum.NodeCount)
	fmt.Printf("  Edges:   %d\n", sum.EdgeCount)
	if sum.BuildTime != "" {
		fmt.Printf("  Built:   %s\n", sum.BuildTime)
	}
	if sum.IndexerVersion != "" {
		fmt.Printf("  Indexer: %s\n", sum.IndexerVersion)
	}
	if sum.EmbedMethod != "" {
		fmt.Printf("  Embed:   %s\n", sum.EmbedMethod)
	}

	if len(sum.NodeKinds) > 0 {
		fmt.Println("\nNode types:")
		for kind, count := range sum.NodeKinds {
			fmt.Printf("  %-12s %d\n", kind, count)
		}
	}
	if len(sum.EdgeTypes) > 0 {
		fmt.Println("\nEdge types:")
		for typ, count := range sum.EdgeTypes {
			fmt.Printf("  %-12s %d\n", typ, count)
		}
	}
	if len(sum.TopHubs) > 0 {
		fmt.Println("\nTop hubs:")
		for i, hub := range sum.TopHubs {
			fmt.Printf("  %2d. %s (%.5f)\n", i+1, hub.Name, hub.Centrality)
		}
	}
	return nil
}

// FileCmd lists all nodes extracted from one source file.
type FileCmd struct {
	Path string `arg:"" help:"Source file path (exact or suffix match)"`
}

// Run executes the file command.
func (c *FileCmd) Run(g *Globals) error {
	ctx := context.Background()
	engine, err := g.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Store().Close() }()

	details, err := engine.FileNodes(ctx, c.Path)
	if err != nil {
		return err
	}
	if len(details) == 0 {
		fmt.Printf("No nodes found for %s\n", c.Path)
		return nil
	}
	for _, d := range details {
		fmt.Printf("%s (%s)\n", d.Node.Name, d.Node.Kind)
		if d.Node.Signature != "" {
			fmt.Printf("  %s\n", d.Node.Signature)
		}
	}
	return nil
}

// TraceCmd records a task outcome for the relevance feedback loop.
type TraceCmd struct {
	Query    string   `arg:"" help:"The task description"`
	Nodes    []string `short:"n" help:"Relevant node IDs"`
	Polarity float64  `short:"p" default:"0" help:"Outcome in [-1, 1]: positive = accepted"`
	Session  string   `help:"Session identifier (generated when omitted)"`
}

// Run executes the trace command.
func (c *TraceCmd) Run(g *Globals) error {
	ctx := context.Background()
	engine, err := g.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Store().Close() }()

	session := c.Session
	if session == "" {
		session = uuid.NewString()
	}

	traceID, err := engine.AddTaskTrace(ctx, c.Query, c.Nodes, c.Polarity, session)
	if err != nil {
		return err
	}

	color.Green("Trace %d recorded (polarity %+.1f, %d nodes, session %s)",
		traceID, c.Polarity, len(c.Nodes), session)
	return nil
}

// HistoryCmd lists recent task traces.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum traces"`
}

// Run executes the history command.
func (c *HistoryCmd) Run(g *Globals) error {
	ctx := context.Background()
	engine, err := g.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Store().Close() }()

	traces, err := engine.TaskHistory(ctx, c.Limit)
	if err != nil {
		return err
	}
	if len(traces) == 0 {
		fmt.Println("No task traces recorded yet")
		return nil
	}
	for _, t := range traces {
		fmt.Printf("#%d [%+.1f] %s\n", t.ID, t.Polarity, t.Query)
		if len(t.NodeIDs) > 0 {
			fmt.Printf("    nodes: %s\n", strings.Join(t.NodeIDs, ", "))
		}
		if t.CreatedAt != "" {
			fmt.Printf("    at: %s\n", t.CreatedAt)
		}
	}
	return nil
}

// RebuildCmd runs the external indexer and refreshes the vocabulary.
type RebuildCmd struct {
	Indexer string `help:"Indexer command" env:"CTXGRAPH_INDEXER" required:""`
}

// Run executes the rebuild command.
func (c *RebuildCmd) Run(g *Globals) error {
	ctx := context.Background()

	runner := g.indexerRunner(c.Indexer)
	color.Green("Running indexer: %s", c.Indexer)

	result, err := runner.Run(ctx)
	if result != nil && result.Output != "" {
		fmt.Println(strings.TrimSpace(result.Output))
	}
	if err != nil {
		return err
	}

	// Refresh the vocabulary so a long-lived process sees the new table.
	engine, err := g.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Store().Close() }()
	if err := engine.ReloadVocabulary(ctx); err != nil {
		return fmt.Errorf("reloading vocabulary: %w", err)
	}

	color.Green("Rebuild complete in %.1fs", result.Duration.Seconds())
	return nil
}

// MCPCmd starts the MCP server on stdio.
type MCPCmd struct {
	Indexer string `help:"Indexer command for the rebuild_graph tool" env:"CTXGRAPH_INDEXER"`
}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	ctx := context.Background()
	engine, err := g.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Store().Close() }()

	server := mcp.NewServer(engine, g.indexerRunner(c.Indexer))

	// No output to stderr here: the stdio channel carries JSON-RPC only.
	return server.Run(ctx, os.Stdin, os.Stdout)
}

// ServeCmd starts the MCP server, optionally watching the snapshot for
// external rebuilds.
type ServeCmd struct {
	Watch   bool   `short:"w" help:"Reload the vocabulary when the snapshot changes"`
	Indexer string `help:"Indexer command for the rebuild_graph tool" env:"CTXGRAPH_INDEXER"`
}

// Run executes the serve command.
func (c *ServeCmd) Run(g *Globals) error {
	ctx := context.Background()
	engine, err := g.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Store().Close() }()

	server := mcp.NewServer(engine, g.indexerRunner(c.Indexer))

	if c.Watch {
		fmt.Fprintln(os.Stderr, "Starting MCP server with snapshot watching...")

		path, err := g.snapshotPath()
		if err != nil {
			return err
		}

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		go func() {
			err := rebuild.WatchSnapshot(watchCtx, path, func() error {
				fmt.Fprintln(os.Stderr, "Snapshot changed; reloading vocabulary")
				return engine.ReloadVocabulary(watchCtx)
			})
			if err != nil && err != context.Canceled {
				fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
			}
		}()
	} else {
		fmt.Fprintln(os.Stderr, "Starting MCP server...")
	}

	return server.Run(ctx, os.Stdin, os.Stdout)
}

// StatusCmd reports whether a usable snapshot exists.
type StatusCmd struct{}

// Run executes the status command.
func (c *StatusCmd) Run(g *Globals) error {
	path, err := g.snapshotPath()
	if err != nil {
		return err
	}

	st, err := store.Open(path, false)
	if err != nil {
		if errors.Is(err, store.ErrMissingSnapshot) {
			color.Yellow("No snapshot at %s", path)
			fmt.Println("Run the indexer (ctxgraph rebuild) to create one.")
			return nil
		}
		if errors.Is(err, store.ErrCorruptSnapshot) {
			color.Red("Snapshot at %s is unreadable", path)
			fmt.Println("Delete it and run the indexer again.")
			return nil
		}
		return err
	}
	defer func() { _ = st.Close() }()

	sum, err := st.Summary(context.Background())
	if err != nil {
		return err
	}

	color.Green("Snapshot: %s", path)
	fmt.Printf("  Nodes: %d | Edges: %d\n", sum.NodeCount, sum.EdgeCount)
	if st.FTSAvailable() {
		fmt.Println("  Full-text index: available")
	} else {
		fmt.Println("  Full-text index: unavailable (fuzzy matching degrades to LIKE)")
	}
	if sum.BuildTime != "" {
		fmt.Printf("  Built: %s\n", sum.BuildTime)
	}
	return nil
}

// CLI is the root Kong command structure.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Query   QueryCmd   `cmd:"" help:"Retrieve task context from the graph"`
	Node    NodeCmd    `cmd:"" help:"Show full details for one node"`
	Similar SimilarCmd `cmd:"" help:"Find node names resembling a given name"`
	Summary SummaryCmd `cmd:"" help:"Print a snapshot overview"`
	File    FileCmd    `cmd:"" help:"List nodes extracted from one source file"`
	Trace   TraceCmd   `cmd:"" help:"Record a task outcome for the feedback loop"`
	History HistoryCmd `cmd:"" help:"List recent task traces"`
	Rebuild RebuildCmd `cmd:"" help:"Run the external indexer"`
	MCP     MCPCmd     `cmd:"" help:"Start MCP server (stdio transport)"`
	Serve   ServeCmd   `cmd:"" help:"Start MCP server with optional snapshot watching"`
	Setup   SetupCmd   `cmd:"" help:"Configure MCP for Claude Code / Cursor / Qwen"`
	Status  StatusCmd  `cmd:"" help:"Report snapshot health"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	kongCtx := kong.Parse(c,
		kong.Name("ctxgraph"),
		kong.Description("Budget-bounded code-graph context retrieval for LLM coding assistants"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
		kong.Bind(&c.Globals),
	)

	return kongCtx.Run(&c.Globals)
}

// timestamp returns the current UTC time in RFC3339. Kept here for the
// setup writer's generated-at stamp.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
