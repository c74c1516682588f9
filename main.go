// Hyperview serves a hypergraph knowledge snapshot to AI agents.
//
// It imports the GraphML graph and entity vectors written by a
// hypergraph-RAG construction pipeline and answers entity, edge,
// subgraph and search queries over MCP and the command line.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/hyperview/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
