// Ctxgraph - budget-bounded code-graph context retrieval for LLM
// coding assistants.
//
// Ctxgraph serves relevance-ranked context bundles out of a code graph
// snapshot built by an external indexer, over a CLI and an MCP server.
package main

import (
	"fmt"
	"os"

	"github.com/mtreiber/ctxgraph/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
