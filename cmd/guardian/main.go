// Package main is the entry point for the Guardian code analysis CLI.
// Guardian combines a static rule scanner with an AI code reviewer,
// fuses both finding sets with cross-detector confidence, and applies
// account policies, suppressions, and scan history to the result.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/codeguardian/guardian/cmd/analyze"
	"github.com/codeguardian/guardian/cmd/history"
	"github.com/codeguardian/guardian/cmd/serve"
	"github.com/codeguardian/guardian/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	var (
		debug       bool
		logFormat   string
		showVersion bool
	)

	globalFlags := flag.NewFlagSet("guardian", flag.ExitOnError)
	globalFlags.BoolVar(&debug, "debug", false, "Enable debug logging")
	globalFlags.StringVar(&logFormat, "log-format", "text", "Log format (text or json)")
	globalFlags.BoolVar(&showVersion, "version", false, "Show version information")

	if err := globalFlags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if showVersion {
		fmt.Printf("guardian version %s (built %s)\n", version, buildTime) //nolint:forbidigo
		os.Exit(0)
	}

	logger.SetupLogger(debug, logFormat)

	args := globalFlags.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "analyze":
		if err := analyze.Run(commandArgs); err != nil {
			logger.Error("analysis failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		if err := serve.Run(commandArgs); err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case "history":
		if err := history.Run(commandArgs); err != nil {
			logger.Error("history command failed", "error", err)
			os.Exit(1)
		}
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	//nolint:forbidigo
	fmt.Println(`Guardian Code Analyzer

Usage:
  guardian [global flags] <command> [command flags]

Commands:
  analyze   Analyze a source file
  serve     Run the HTTP API server
  history   List, show, or delete past scans
  help      Show this help message

Global Flags:
  --debug         Enable debug logging
  --log-format    Log format (text or json) (default: text)
  --version       Show version information

Examples:
  guardian analyze --config guardian.yaml --file handler.js --language javascript
  guardian serve --config guardian.yaml
  guardian history list --config guardian.yaml --account acme

Use "guardian <command> --help" for more information about a command.`)
}
