package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/deskplace/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: deskplace mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskplace mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var rf runFlags
	rf.register(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskplace mcp serve [options]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start the MCP server on stdio. Tools: list_monitors, list_windows,")
		fmt.Fprintln(os.Stderr, "apply_rules, apply_rule. Logs go to stderr.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	log, opts, err := rf.logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	backend, err := openBackend()
	if err != nil {
		log.Errorw("cannot reach the window manager", "error", err)
		return 1
	}
	defer backend.Disconnect()

	ctx, cancel := signalContext()
	defer cancel()

	server := mcp.NewServer(backend, rf.source(), log, opts)
	log.Infow("mcp server starting", "rules", rf.source().String())
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("mcp server error", "error", err)
		return 1
	}
	return 0
}
