package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowspec/flowvalidate/cmd/flowvalidate/commands"
	"github.com/flowspec/flowvalidate/internal/mcpserver"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version", "-v", "--version":
		fmt.Println("flowvalidate v0.1.0")
	case "help", "-h", "--help":
		printUsage()
	case "validate":
		if err := commands.HandleValidate(os.Args[2:]); err != nil {
			commands.Writef(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := mcpserver.Run(ctx); err != nil {
			commands.Writef(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		commands.Writef(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`flowvalidate - Declarative Workflow Document Validator

Usage:
  flowvalidate <command> [options]

Commands:
  validate    Validate a workflow document file or stdin
  mcp         Start an MCP server over stdio
  version     Show version information
  help        Show this help message

Examples:
  flowvalidate validate workflow.yaml
  flowvalidate validate --no-warnings workflow.json
  cat workflow.yaml | flowvalidate validate -q -
  flowvalidate validate --format json workflow.yaml | jq '.valid'
  flowvalidate mcp

Run 'flowvalidate <command> --help' for more information on a command.`)
}
