package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pr-notifier/internal/bitbucket"
	"pr-notifier/internal/config"
	"pr-notifier/internal/logger"
	"pr-notifier/internal/monitor"
	"pr-notifier/internal/notifier"

	"github.com/alecthomas/kong"
	"github.com/benbjohnson/clock"
)

// CLI represents the command-line interface
type CLI struct {
	Config string `help:"Configuration file (TOML, or YAML by extension)" short:"c" default:"config.toml"`
	Debug  bool   `help:"Print notifications to the console instead of Slack" short:"d"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("pr-notifier"),
		kong.Description("Polls Bitbucket for open pull requests and announces their review state."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: can't load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: can't initialize logger: %v\n", err)
		os.Exit(1)
	}

	n, err := newNotifier(cfg, cli.Debug, os.Stdout)
	if err != nil {
		slog.Error("Invalid notifier configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("PR notifier started",
		"config", cli.Config,
		"debug", cli.Debug,
		"bitbucket_uri", cfg.Bitbucket.URI,
		"bitbucket_user", cfg.Bitbucket.Username,
		"slack_channel", cfg.Slack.Channel,
		"min_reviewers_approved", cfg.MinReviewersApproved,
		"pr_max_age_days", cfg.PRMaxAge,
		"notification_timeout", cfg.ThrottleInterval(),
		"sleep_interval", cfg.PollInterval(),
	)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bitbucketClient := bitbucket.NewClient(cfg)
	if err := checkConnection(ctx, cfg, bitbucketClient); err != nil {
		slog.Error("Bitbucket connection test failed", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, bitbucketClient, n, clock.New()); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutdown complete.")
}

// newNotifier picks the console notifier in debug mode and Slack otherwise
func newNotifier(cfg *config.Config, debug bool, console io.Writer) (notifier.Notifier, error) {
	if debug {
		return notifier.NewConsoleNotifier(console), nil
	}
	if err := cfg.ValidateSlack(); err != nil {
		return nil, err
	}
	return notifier.NewSlackNotifier(cfg), nil
}

type connectionTester interface {
	TestConnection(ctx context.Context) error
}

// checkConnection verifies Bitbucket up front only when a fetch failure is
// fatal. Otherwise the first poll cycle does the same request and retries.
func checkConnection(ctx context.Context, cfg *config.Config, c connectionTester) error {
	if !cfg.FailOnFetchError {
		slog.Info("Skipping Bitbucket connection test, the first poll will report fetch errors and retry")
		return nil
	}
	if err := c.TestConnection(ctx); err != nil {
		return err
	}
	slog.Info("Bitbucket connection test succeeded")
	return nil
}

// run contains the main monitoring loop
func run(ctx context.Context, cfg *config.Config, source monitor.Source, n notifier.Notifier, clk clock.Clock) error {
	return monitor.New(source, n, clk, monitor.SettingsFromConfig(cfg)).Run(ctx)
}
