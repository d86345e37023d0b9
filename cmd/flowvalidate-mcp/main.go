// Command flowvalidate-mcp runs the flowvalidate MCP server over stdio as
// a standalone binary, for MCP clients that launch a dedicated process
// rather than invoking `flowvalidate mcp`.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowspec/flowvalidate/internal/mcpserver"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpserver.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
