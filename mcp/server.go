// Package mcp provides the MCP (Model Context Protocol) server for ctxgraph.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mtreiber/ctxgraph/internal/graph"
	"github.com/mtreiber/ctxgraph/internal/rebuild"
	"github.com/mtreiber/ctxgraph/internal/retrieval"
)

// Engine is the retrieval surface the server exposes over MCP.
type Engine interface {
	QueryContext(ctx context.Context, opts retrieval.QueryOptions) (*graph.ContextResult, error)
	GetNodeInfo(ctx context.Context, name string, includeBody bool) (*graph.NodeDetail, error)
	FindSimilar(ctx context.Context, name string, limit int) ([]string, error)
	Summary(ctx context.Context) (*graph.Summary, error)
	FileNodes(ctx context.Context, path string) ([]graph.NodeDetail, error)
	AddTaskTrace(ctx context.Context, query string, nodeIDs []string, polarity float64, sessionID string) (int64, error)
	TaskHistory(ctx context.Context, limit int) ([]graph.TaskTrace, error)
	ReloadVocabulary(ctx context.Context) error
}

// Server represents the MCP server.
type Server struct {
	engine  Engine
	rebuild *rebuild.Runner // nil when no indexer command is configured
	impl    *mcp.Implementation
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server over the given engine. runner may
// be nil when the host has no indexer to supervise.
func NewServer(engine Engine, runner *rebuild.Runner) *Server {
	return &Server{
		engine:  engine,
		rebuild: runner,
		impl: &mcp.Implementation{
			Name:    "ctxgraph",
			Version: "0.1.0",
		},
	}
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name: "query_context",
			Description: "Retrieve code-graph context relevant to a coding task, " +
				"within a configurable token budget.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query":         {Type: "string", Description: "Natural language task description"},
					"budget_tokens": {Type: "integer", Description: "Token budget for returned context"},
					"seed_node":     {Type: "string", Description: "Optional node name to anchor the traversal"},
					"max_depth":     {Type: "integer", Description: "Maximum traversal depth"},
					"max_nodes":     {Type: "integer", Description: "Maximum candidate nodes"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name: "get_node_info",
			Description: "Full details for one graph node: signature, documentation, " +
				"callers, callees, and test coverage.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"node_name":      {Type: "string", Description: "Exact name of the node"},
					"include_source": {Type: "boolean", Description: "Include the full body text"},
				},
				Required: []string{"node_name"},
			},
		},
		{
			Name:        "find_similar",
			Description: "Find node names resembling the given name.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name":  {Type: "string", Description: "Name to match"},
					"limit": {Type: "integer", Description: "Maximum results"},
				},
				Required: []string{"name"},
			},
		},
		{
			Name: "rebuild_graph",
			Description: "Run the external indexer to rebuild the snapshot, then " +
				"refresh the vocabulary cache.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name: "add_task_trace",
			Description: "Record the outcome of a coding task as feedback for the " +
				"relevance loop. Positive polarity = accepted, negative = rejected.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query":      {Type: "string", Description: "The task description"},
					"nodes":      {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "Relevant node IDs"},
					"polarity":   {Type: "number", Description: "Outcome in [-1, 1]"},
					"session_id": {Type: "string", Description: "Optional session identifier"},
				},
				Required: []string{"query"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "ctxgraph://summary",
			Name:        "Graph Summary",
			Description: "Node/edge counts, top hubs, and indexer provenance",
			MimeType:    "text/plain",
		},
		{
			URI:         "ctxgraph://file/{path}",
			Name:        "File Nodes",
			Description: "All graph nodes extracted from one source file",
			MimeType:    "text/plain",
		},
		{
			URI:         "ctxgraph://task-history",
			Name:        "Task History",
			Description: "Recent task trace feedback records",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "query_context":
		return s.handleQueryContext(ctx, args)
	case "get_node_info":
		nodeName, _ := args["node_name"].(string)
		includeSource, _ := args["include_source"].(bool)
		return s.handleNodeInfo(ctx, nodeName, includeSource)
	case "find_similar":
		name, _ := args["name"].(string)
		limit, _ := args["limit"].(float64)
		if limit == 0 {
			limit = 5
		}
		return s.handleFindSimilar(ctx, name, int(limit))
	case "rebuild_graph":
		return s.handleRebuild(ctx)
	case "add_task_trace":
		return s.handleAddTrace(ctx, args)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch {
	case uri == "ctxgraph://summary":
		return s.renderSummary(ctx)
	case uri == "ctxgraph://task-history":
		return s.renderTaskHistory(ctx)
	case strings.HasPrefix(uri, "ctxgraph://file/"):
		path := strings.TrimPrefix(uri, "ctxgraph://file/")
		return s.renderFileNodes(ctx, path)
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Tool handlers

func (s *Server) handleQueryContext(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "No query provided", nil
	}
	budget, _ := args["budget_tokens"].(float64)
	seedNode, _ := args["seed_node"].(string)
	maxDepth, _ := args["max_depth"].(float64)
	maxNodes, _ := args["max_nodes"].(float64)

	result, err := s.engine.QueryContext(ctx, retrieval.QueryOptions{
		Query:        query,
		SeedName:     seedNode,
		BudgetTokens: int(budget),
		MaxDepth:     int(maxDepth),
		MaxNodes:     int(maxNodes),
	})
	if err != nil {
		return "", err
	}

	seed := result.SeedNode
	if seed == "" {
		seed = "(none)"
	}
	footer := fmt.Sprintf("---\n**Nodes retrieved**: %d\n**Token estimate**: ~%d\n**Seed node**: %s\n**Mode**: %s",
		len(result.NodeIDs), result.TokenEstimate, seed, result.Mode)
	return result.Context + "\n" + footer, nil
}

func (s *Server) handleNodeInfo(ctx context.Context, name string, includeSource bool) (string, error) {
	if name == "" {
		return "No node name provided", nil
	}

	info, err := s.engine.GetNodeInfo(ctx, name, includeSource)
	if err != nil {
		return "", err
	}
	if info == nil {
		similar, err := s.engine.FindSimilar(ctx, name, 5)
		if err != nil || len(similar) == 0 {
			return fmt.Sprintf("Node `%s` not found in the graph.", name), nil
		}
		quoted := make([]string, len(similar))
		for i, n := range similar {
			quoted[i] = "`" + n + "`"
		}
		return fmt.Sprintf("Node `%s` not found in the graph.\n\nDid you mean one of: %s?",
			name, strings.Join(quoted, ", ")), nil
	}

	n := info.Node
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n", n.Name))
	kind := string(n.Kind)
	if kind == "" {
		kind = "unknown"
	}
	sb.WriteString(fmt.Sprintf("**Type**: %s\n", kind))
	file := n.File
	if file == "" {
		file = "unknown"
	}
	sb.WriteString(fmt.Sprintf("**File**: %s\n", file))
	if n.PkgName != "" {
		pkg := n.PkgName
		if n.PkgVersion != "" {
			pkg += " v" + n.PkgVersion
		}
		sb.WriteString(fmt.Sprintf("**Package**: %s\n", pkg))
	}
	if n.Signature != "" {
		sb.WriteString(fmt.Sprintf("\n**Signature**:\n```\n%s\n```\n", n.Signature))
	}
	if n.Doc != "" {
		sb.WriteString(fmt.Sprintf("\n**Documentation**:\n%s\n", n.Doc))
	}
	if len(info.Callers) > 0 {
		sb.WriteString(fmt.Sprintf("\n**Called by**: %s\n", strings.Join(info.Callers, ", ")))
	}
	if len(info.Callees) > 0 {
		sb.WriteString(fmt.Sprintf("\n**Calls**: %s\n", strings.Join(info.Callees, ", ")))
	}
	if len(info.Tests) > 0 {
		sb.WriteString(fmt.Sprintf("\n**Tested by**: %s\n", strings.Join(info.Tests, ", ")))
	}
	sb.WriteString(fmt.Sprintf("\n**Metrics**: Centrality: %.4f | Complexity: %.1f | Task weight: %.3f\n",
		n.Centrality, n.Complexity, n.TaskWeight))
	if includeSource && n.Body != "" {
		sb.WriteString(fmt.Sprintf("\n**Source**:\n```\n%s\n```\n", n.Body))
	}

	return sb.String(), nil
}

func (s *Server) handleFindSimilar(ctx context.Context, name string, limit int) (string, error) {
	names, err := s.engine.FindSimilar(ctx, name, limit)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return fmt.Sprintf("No nodes resembling `%s` found.", name), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Nodes resembling `%s`:\n\n", name))
	for _, n := range names {
		sb.WriteString(fmt.Sprintf("- `%s`\n", n))
	}
	return sb.String(), nil
}

func (s *Server) handleRebuild(ctx context.Context) (string, error) {
	if s.rebuild == nil {
		return "No indexer command configured. Set one with --indexer or CTXGRAPH_INDEXER.", nil
	}

	result, err := s.rebuild.Run(ctx)
	if err != nil {
		output := ""
		if result != nil {
			output = result.Output
		}
		return fmt.Sprintf("Indexer failed: %v\n\n**Output:**\n```\n%s\n```", err, output), nil
	}

	if err := s.engine.ReloadVocabulary(ctx); err != nil {
		return "", fmt.Errorf("reloading vocabulary: %w", err)
	}

	return fmt.Sprintf("Graph rebuilt in %.1fs.\n\n**Output:**\n```\n%s\n```",
		result.Duration.Seconds(), strings.TrimSpace(result.Output)), nil
}

func (s *Server) handleAddTrace(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	polarity, _ := args["polarity"].(float64)
	sessionID, _ := args["session_id"].(string)

	nodesArg, _ := args["nodes"].([]any)
	nodes := make([]string, 0, len(nodesArg))
	for _, n := range nodesArg {
		if id, ok := n.(string); ok {
			nodes = append(nodes, id)
		}
	}

	traceID, err := s.engine.AddTaskTrace(ctx, query, nodes, polarity, sessionID)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	return fmt.Sprintf("Task trace recorded.\n**Trace ID**: %d\n**Polarity**: %+.1f\n**Nodes**: %d recorded",
		traceID, polarity, len(nodes)), nil
}

// Resource handlers

func (s *Server) renderSummary(ctx context.Context) (string, error) {
	sum, err := s.engine.Summary(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# ctxgraph Snapshot Summary\n\n")
	sb.WriteString("| Property | Value |\n|---|---|\n")
	sb.WriteString(fmt.Sprintf("| Nodes | %d |\n", sum.NodeCount))
	sb.WriteString(fmt.Sprintf("| Edges | %d |\n", sum.EdgeCount))
	sb.WriteString(fmt.Sprintf("| Build time | %s |\n", orUnknown(sum.BuildTime)))
	sb.WriteString(fmt.Sprintf("| Indexer version | %s |\n", orUnknown(sum.IndexerVersion)))
	sb.WriteString(fmt.Sprintf("| Embed method | %s |\n", orUnknown(sum.EmbedMethod)))
	sb.WriteString(fmt.Sprintf("| Project root | %s |\n", orUnknown(sum.ProjectRoot)))

	sb.WriteString("\n## Node types\n")
	for kind, count := range sum.NodeKinds {
		sb.WriteString(fmt.Sprintf("- **%s**: %d\n", kind, count))
	}
	sb.WriteString("\n## Edge types\n")
	for typ, count := range sum.EdgeTypes {
		sb.WriteString(fmt.Sprintf("- **%s**: %d\n", typ, count))
	}
	sb.WriteString("\n## Top hubs by centrality\n")
	for i, hub := range sum.TopHubs {
		sb.WriteString(fmt.Sprintf("%d. `%s` — %.5f\n", i+1, hub.Name, hub.Centrality))
	}
	return sb.String(), nil
}

func (s *Server) renderFileNodes(ctx context.Context, path string) (string, error) {
	details, err := s.engine.FileNodes(ctx, path)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Nodes in `%s`\n\n**%d found.**\n\n", path, len(details)))
	if len(details) == 0 {
		sb.WriteString(fmt.Sprintf("No nodes found for `%s`.\n", path))
		return sb.String(), nil
	}
	for _, d := range details {
		sb.WriteString(fmt.Sprintf("## `%s`\n", d.Node.Name))
		if d.Node.Kind != "" {
			sb.WriteString(fmt.Sprintf("**Type**: %s\n", d.Node.Kind))
		}
		if d.Node.Signature != "" {
			sb.WriteString(fmt.Sprintf("**Signature**:\n```\n%s\n```\n", d.Node.Signature))
		}
		if d.Node.Doc != "" {
			doc := d.Node.Doc
			if len(doc) > 300 {
				doc = doc[:300]
			}
			sb.WriteString(fmt.Sprintf("**Documentation**:\n%s\n", doc))
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (s *Server) renderTaskHistory(ctx context.Context) (string, error) {
	traces, err := s.engine.TaskHistory(ctx, 20)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Task History\n\n**%d traces recorded.**\n\n", len(traces)))
	if len(traces) == 0 {
		sb.WriteString("No task traces recorded yet. Call `add_task_trace` after coding tasks.\n")
		return sb.String(), nil
	}
	for _, t := range traces {
		label := "neutral"
		if t.Polarity > 0.1 {
			label = "positive"
		} else if t.Polarity < -0.1 {
			label = "negative"
		}
		sb.WriteString(fmt.Sprintf("## Trace #%d\n", t.ID))
		sb.WriteString(fmt.Sprintf("- **Query**: %s\n", orNone(t.Query)))
		sb.WriteString(fmt.Sprintf("- **Polarity**: %s (%.1f)\n", label, t.Polarity))
		sb.WriteString(fmt.Sprintf("- **Nodes**: %s\n", orNone(strings.Join(t.NodeIDs, ", "))))
		sb.WriteString(fmt.Sprintf("- **Time**: %s\n\n", orUnknown(t.CreatedAt)))
	}
	return sb.String(), nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// MCP over stdio requires compact JSON, one message per line.

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    s.impl.Name,
				"version": s.impl.Version,
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		_ = json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "text/plain",
					"text":     content,
				},
			},
		},
	}
}

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
