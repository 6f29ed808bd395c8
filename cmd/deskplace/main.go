package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/1broseidon/deskplace/internal/activation"
	"github.com/1broseidon/deskplace/internal/logging"
	"github.com/1broseidon/deskplace/internal/platform"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "apply":
		os.Exit(runApply(os.Args[2:]))
	case "watch":
		os.Exit(runWatch(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: deskplace <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  apply               Apply the placement rules once")
	fmt.Fprintln(w, "  watch               Apply rules now and again whenever the rules file changes")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  monitors            List monitors with their screen numbers")
	fmt.Fprintln(w, "  windows             List windows with the class rules match against")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate the rules file")
	fmt.Fprintln(w, "  config print        Print the effective rules")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskplace <command> --help' for command-specific options.")
}

// runFlags are shared by the commands that apply rules.
type runFlags struct {
	config    string
	builtin   bool
	dryRun    bool
	debug     bool
	logFormat string
	noLock    bool
}

func (f *runFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "Rules file path (default: $XDG_CONFIG_HOME/deskplace/rules.yaml)")
	fs.BoolVar(&f.builtin, "builtin", false, "Use the built-in rule list instead of a rules file")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Log window requests without performing them")
	fs.BoolVar(&f.debug, "debug", false, "Debug logging (overrides log_level)")
	fs.StringVar(&f.logFormat, "log-format", "auto", "Log format: auto, console or json")
	fs.BoolVar(&f.noLock, "no-lock", false, "Do not take the single-run lock")
}

func (f *runFlags) source() activation.RuleSource {
	if f.builtin {
		return activation.BuiltinSource{}
	}
	return activation.FileSource{Path: f.config}
}

// logger builds the process logger. The returned options carry the level
// handle so the rules file's log_level applies unless --debug was given.
func (f *runFlags) logger() (*zap.SugaredLogger, activation.Options, error) {
	level := "info"
	if f.debug {
		level = "debug"
	}
	log, atomic, err := logging.NewWithLevel(logging.Options{Level: level, Format: logging.Format(f.logFormat)})
	if err != nil {
		return nil, activation.Options{}, err
	}
	opts := activation.Options{
		DryRun:      f.dryRun,
		NoLock:      f.noLock,
		Level:       &atomic,
		LevelPinned: f.debug,
	}
	return log, opts, nil
}

func openBackend() (*platform.LinuxBackend, error) {
	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		return nil, fmt.Errorf("open display: %w", err)
	}
	return backend, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func isHelpArg(args []string) bool {
	return len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help")
}
