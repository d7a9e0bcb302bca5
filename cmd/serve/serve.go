// Package serve implements the serve subcommand, which runs the HTTP
// API server.
package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeguardian/guardian/internal/ai"
	"github.com/codeguardian/guardian/internal/analyzer"
	"github.com/codeguardian/guardian/internal/api"
	"github.com/codeguardian/guardian/internal/config"
	"github.com/codeguardian/guardian/internal/database"
	"github.com/codeguardian/guardian/pkg/logger"
)

// Options represents serve command options.
type Options struct {
	ConfigFile string
	Listen     string
}

// Run executes the serve command. It blocks until SIGINT or SIGTERM,
// then drains in-flight requests before returning.
func Run(args []string) error {
	opts := &Options{}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.StringVar(&opts.ConfigFile, "config", "guardian.yaml", "Configuration file path")
	fs.StringVar(&opts.Listen, "listen", "", "Listen address (overrides config)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: guardian serve [options]

Run the Guardian HTTP API server.

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  guardian serve --config guardian.yaml
  guardian serve --config guardian.yaml --listen :9090`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.Listen == "" {
		opts.Listen = cfg.Server.Listen
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	log := logger.GetGlobalLogger()
	provider := ai.NewGateway(cfg.AI.Endpoint, cfg.AI.APIKey, cfg.AI.Model)
	service := analyzer.NewService(db, provider,
		analyzer.WithAITimeout(cfg.AI.Timeout()),
	)

	server := api.NewServer(service, db, log)
	httpServer := &http.Server{
		Addr:              opts.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server listening", "addr", opts.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
