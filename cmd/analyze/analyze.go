// Package analyze implements the analyze subcommand: one file in, one
// scored report out.
package analyze

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/codeguardian/guardian/internal/ai"
	"github.com/codeguardian/guardian/internal/analyzer"
	"github.com/codeguardian/guardian/internal/config"
	"github.com/codeguardian/guardian/internal/database"
	"github.com/codeguardian/guardian/internal/export"
	"github.com/codeguardian/guardian/internal/report"
	"github.com/codeguardian/guardian/pkg/logger"
)

// Options represents analyze command options.
type Options struct {
	ConfigFile string
	File       string
	Language   string
	AccountID  string
	Level      string
	Format     string
	Save       bool
	Export     bool
}

// Run executes the analyze command.
func Run(args []string) error {
	opts := &Options{}

	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	fs.StringVar(&opts.ConfigFile, "config", "guardian.yaml", "Configuration file path")
	fs.StringVar(&opts.File, "file", "", "Source file to analyze (required)")
	fs.StringVar(&opts.Language, "language", "", "Source language (inferred from extension if omitted)")
	fs.StringVar(&opts.AccountID, "account", "", "Account ID (enables quota, policy, and history)")
	fs.StringVar(&opts.Level, "level", "", "Explanation level (junior, senior, lead)")
	fs.StringVar(&opts.Format, "format", "text", "Output format (text or json)")
	fs.BoolVar(&opts.Save, "save", false, "Save the scan to history (requires --account)")
	fs.BoolVar(&opts.Export, "export", false, "Upload the report to the configured S3 bucket")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: guardian analyze [options]

Analyze a source file with static rules and an AI reviewer.

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  guardian analyze --file handler.js --language javascript
  guardian analyze --file api.py --account acme --save
  guardian analyze --file main.go --format json`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.File == "" {
		return fmt.Errorf("--file flag is required")
	}
	if opts.Language == "" {
		opts.Language = languageFromPath(opts.File)
	}
	if opts.Language == "" {
		return fmt.Errorf("--language flag is required (could not infer from %s)", opts.File)
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	code, err := os.ReadFile(opts.File) //nolint:gosec // Path comes from the user's own flag.
	if err != nil {
		return fmt.Errorf("reading source file: %w", err)
	}

	ctx := context.Background()

	var store analyzer.Store
	if opts.AccountID != "" {
		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() { _ = db.Close() }()
		store = db
	}

	provider := ai.NewGateway(cfg.AI.Endpoint, cfg.AI.APIKey, cfg.AI.Model)
	service := analyzer.NewService(store, provider,
		analyzer.WithAITimeout(cfg.AI.Timeout()),
	)

	result, err := service.Analyze(ctx, analyzer.Input{
		Code:      string(code),
		Language:  opts.Language,
		AccountID: opts.AccountID,
		Level:     opts.Level,
		FilePath:  opts.File,
		Persist:   opts.Save,
	})
	if err != nil {
		return err
	}

	switch opts.Format {
	case "json":
		out, err := report.RenderJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out) //nolint:forbidigo
	default:
		fmt.Print(report.Render(result)) //nolint:forbidigo
	}

	if opts.Export {
		if cfg.Export == nil {
			return fmt.Errorf("--export requires an export section in the config")
		}
		exporter, err := export.New(ctx, cfg.Export.Bucket, cfg.Export.Prefix, cfg.Export.Region)
		if err != nil {
			return fmt.Errorf("creating exporter: %w", err)
		}
		key, err := exporter.Export(ctx, opts.AccountID, result)
		if err != nil {
			return err
		}
		logger.Info("report uploaded", "bucket", cfg.Export.Bucket, "key", key)
	}

	if !result.Policy.Passed {
		return fmt.Errorf("policy check failed: %s", strings.Join(result.Policy.Violations, "; "))
	}
	return nil
}

var extLanguages = map[string]string{
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".py":   "python",
	".go":   "go",
	".rb":   "ruby",
	".php":  "php",
	".java": "java",
	".rs":   "rust",
}

func languageFromPath(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return ""
	}
	return extLanguages[strings.ToLower(path[idx:])]
}
