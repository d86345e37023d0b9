// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes flowvalidate's document validation as a single MCP tool
// over stdio, so an editor or agent can validate a workflow document
// without shelling out to the CLI.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `flowvalidate MCP server — validates declarative workflow documents (parties, object types, object promises, actions, checkpoints, thread groups, pipelines) and returns diagnostics.

Configuration: defaults are configurable via FLOWVALIDATE_* environment variables set in your MCP client config.

Key settings:
- FLOWVALIDATE_CACHE_FILE_TTL (default: 15m) — cache TTL for local file documents
- FLOWVALIDATE_CACHE_ENABLED (default: true) — disable document caching entirely
- FLOWVALIDATE_NO_WARNINGS (default: false) — suppress warnings by default
- FLOWVALIDATE_MAX_INLINE_SIZE (default: 10MiB) — inline content size limit
- FLOWVALIDATE_MAX_LIMIT (default: 1000) — maximum page size for paginated results

Caching: decoded documents are cached per session, keyed by path+mtime for files or content hash for inline content. A background sweeper removes expired entries every 60s.`

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context) error {
	if cfg.CacheEnabled {
		documentCache.startSweeper(ctx, cfg.CacheSweepInterval)
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "flowvalidate", Version: "0.1.0"},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_document",
		Description: "Validate a declarative workflow document. Returns errors and warnings with dotted-path locations. For large documents, use no_warnings to focus on errors first. Use offset/limit to paginate through results. Warning suppression defaults are configurable via FLOWVALIDATE_NO_WARNINGS.",
	}, handleValidate)
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit is unbounded (all remaining
// items), capped by cfg.MaxLimit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 || limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON
// semantics), otherwise returns make([]T, 0, n) for pre-allocated
// appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// sanitizeError strips absolute filesystem paths from error messages to
// prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
