package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/deskplace/internal/activation"
	"github.com/1broseidon/deskplace/internal/config"
)

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  deskplace config validate [--config PATH]")
	fmt.Fprintln(w, "  deskplace config print [--config PATH|--builtin]")
}

func runConfig(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stderr)
		return 2
	}
	if isHelpArg(args) {
		printConfigUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("config", "", "Rules file path (default: $XDG_CONFIG_HOME/deskplace/rules.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		return validateRules(os.Stdout, os.Stderr, activation.FileSource{Path: *path})

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("config", "", "Rules file path (default: $XDG_CONFIG_HOME/deskplace/rules.yaml)")
		builtin := fs.Bool("builtin", false, "Print the built-in rule list")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		var src activation.RuleSource = activation.FileSource{Path: *path}
		if *builtin {
			src = activation.BuiltinSource{}
		}
		return printRules(os.Stdout, os.Stderr, src)

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n\n", args[0])
		printConfigUsage(os.Stderr)
		return 2
	}
}

// validateRules exits 0 only when every record loaded cleanly.
func validateRules(out, errOut io.Writer, src activation.RuleSource) int {
	res, err := src.Load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(errOut, "warning: %s\n", w)
	}
	for _, skipped := range res.Skipped {
		fmt.Fprintf(errOut, "invalid rule: %v\n", skipped)
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintf(errOut, "%s: %d invalid rule(s)\n", res.File, len(res.Skipped))
		return 1
	}
	fmt.Fprintf(out, "%s: ok (%d rules)\n", res.File, len(res.Config.Rules))
	return 0
}

type printedSettle struct {
	Delay        string `yaml:"delay"`
	PollInterval string `yaml:"poll_interval"`
	Timeout      string `yaml:"timeout"`
}

type printedConfig struct {
	LogLevel   string            `yaml:"log_level"`
	ClassMatch config.ClassMatch `yaml:"class_match"`
	Settle     printedSettle     `yaml:"settle"`
	Rules      []config.Rule     `yaml:"rules"`
}

// printRules writes the effective rules back in the rules-file format.
// Skipped records are reported on errOut as comments would be lost.
func printRules(out, errOut io.Writer, src activation.RuleSource) int {
	res, err := src.Load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	for _, skipped := range res.Skipped {
		fmt.Fprintf(errOut, "skipped: %v\n", skipped)
	}

	cfg := res.Config
	data, err := yaml.Marshal(printedConfig{
		LogLevel:   cfg.LogLevel,
		ClassMatch: cfg.ClassMatch,
		Settle: printedSettle{
			Delay:        cfg.Settle.Delay.String(),
			PollInterval: cfg.Settle.PollInterval.String(),
			Timeout:      cfg.Settle.Timeout.String(),
		},
		Rules: cfg.Rules,
	})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "# source: %s\n", res.File)
	_, _ = out.Write(data)
	return 0
}
