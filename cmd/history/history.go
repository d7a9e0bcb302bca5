// Package history implements the history subcommand for inspecting and
// managing stored scans, baselines, and usage.
package history

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/codeguardian/guardian/internal/config"
	"github.com/codeguardian/guardian/internal/database"
	"github.com/codeguardian/guardian/internal/models"
	"github.com/codeguardian/guardian/internal/report"
)

// Options represents history command options.
type Options struct {
	ConfigFile string
	AccountID  string
	ScanID     string
	Name       string
	Limit      int
}

// Run executes the history command. The first positional argument
// selects the action: list, show, delete, baseline, or usage.
func Run(args []string) error {
	opts := &Options{}

	fs := flag.NewFlagSet("history", flag.ExitOnError)
	fs.StringVar(&opts.ConfigFile, "config", "guardian.yaml", "Configuration file path")
	fs.StringVar(&opts.AccountID, "account", "", "Account ID (required)")
	fs.StringVar(&opts.ScanID, "scan", "", "Scan ID (for show, delete, baseline)")
	fs.StringVar(&opts.Name, "name", "", "Baseline name (for baseline)")
	fs.IntVar(&opts.Limit, "limit", 20, "Maximum scans to list")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: guardian history <action> [options]

Inspect and manage stored scans.

Actions:
  list      List recent scans for an account
  show      Show one scan in full
  delete    Delete one scan
  baseline  Snapshot a scan's fingerprints as the active baseline
  usage     Show the account's scan quota usage

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  guardian history list --account acme
  guardian history show --account acme --scan 2f9b...
  guardian history baseline --account acme --scan 2f9b... --name "release 1.4"`)
	}

	if len(args) == 0 {
		fs.Usage()
		return fmt.Errorf("an action is required")
	}
	action := args[0]

	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if opts.AccountID == "" {
		return fmt.Errorf("--account flag is required")
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()

	switch action {
	case "list":
		return runList(ctx, db, opts)
	case "show":
		return runShow(ctx, db, opts)
	case "delete":
		return runDelete(ctx, db, opts)
	case "baseline":
		return runBaseline(ctx, db, opts)
	case "usage":
		return runUsage(ctx, db, opts)
	default:
		fs.Usage()
		return fmt.Errorf("unknown action: %s", action)
	}
}

func runList(ctx context.Context, db *database.DB, opts *Options) error {
	records, err := db.ListScans(ctx, opts.AccountID, opts.Limit)
	if err != nil {
		return fmt.Errorf("listing scans: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No scans found.") //nolint:forbidigo
		return nil
	}

	for _, r := range records {
		policy := "pass"
		if !r.PolicyPassed {
			policy = "FAIL"
		}
		//nolint:forbidigo
		fmt.Printf("%s  %s  %-12s  score %3d  findings %3d  new %2d  fixed %2d  policy %s\n",
			r.CreatedAt.Format(time.DateTime), r.ID, r.Language,
			r.Score, len(r.Findings), r.NewCount, r.FixedCount, policy)
	}
	return nil
}

func runShow(ctx context.Context, db *database.DB, opts *Options) error {
	record, err := requireScan(ctx, db, opts)
	if err != nil {
		return err
	}

	result := &models.AnalysisResult{
		Summary:      record.Summary,
		FixedCode:    record.FixedCode,
		Findings:     record.Findings,
		Fingerprints: record.Fingerprints,
		Score:        record.Score,
		Counts:       record.Counts,
		Confidence:   models.CountByConfidence(record.Findings),
		Diff: models.DiffSummary{
			NewCount:   record.NewCount,
			FixedCount: record.FixedCount,
		},
		Policy: models.PolicyEvaluation{Passed: record.PolicyPassed},
	}
	fmt.Print(report.Render(result)) //nolint:forbidigo
	return nil
}

func runDelete(ctx context.Context, db *database.DB, opts *Options) error {
	if opts.ScanID == "" {
		return fmt.Errorf("--scan flag is required")
	}
	if err := db.DeleteScan(ctx, opts.AccountID, opts.ScanID); err != nil {
		return fmt.Errorf("deleting scan: %w", err)
	}
	fmt.Printf("Deleted scan %s\n", opts.ScanID) //nolint:forbidigo
	return nil
}

func runBaseline(ctx context.Context, db *database.DB, opts *Options) error {
	if opts.Name == "" {
		return fmt.Errorf("--name flag is required")
	}
	record, err := requireScan(ctx, db, opts)
	if err != nil {
		return err
	}

	baseline, err := db.CreateBaseline(ctx, opts.AccountID, opts.Name, record.Fingerprints)
	if err != nil {
		return fmt.Errorf("creating baseline: %w", err)
	}
	//nolint:forbidigo
	fmt.Printf("Baseline %q created from scan %s (%d fingerprints)\n",
		baseline.Name, record.ID, len(baseline.Fingerprints))
	return nil
}

func runUsage(ctx context.Context, db *database.DB, opts *Options) error {
	usage, err := db.Usage(ctx, opts.AccountID)
	if err != nil {
		return fmt.Errorf("fetching usage: %w", err)
	}
	if usage == nil {
		fmt.Printf("Account %s has no recorded usage.\n", opts.AccountID) //nolint:forbidigo
		return nil
	}
	//nolint:forbidigo
	fmt.Printf("Account %s: %d of %d scans used (period started %s)\n",
		usage.AccountID, usage.ScansThisMonth, usage.ScansLimit,
		usage.BillingPeriodStart.Format(time.DateOnly))
	return nil
}

// requireScan fetches the scan named by --scan and verifies it belongs
// to the account.
func requireScan(ctx context.Context, db *database.DB, opts *Options) (*models.ScanRecord, error) {
	if opts.ScanID == "" {
		return nil, fmt.Errorf("--scan flag is required")
	}
	record, err := db.GetScan(ctx, opts.ScanID)
	if err != nil {
		return nil, fmt.Errorf("fetching scan: %w", err)
	}
	if record.AccountID != opts.AccountID {
		return nil, models.ErrNotFound
	}
	return record, nil
}
