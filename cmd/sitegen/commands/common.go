package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alescoulie/sitegen/internal/config"
	"github.com/alescoulie/sitegen/internal/logfields"
	"github.com/alescoulie/sitegen/internal/notify"
	"github.com/alescoulie/sitegen/internal/site"
)

// Global carries state shared across subcommands if we need it later.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition with global flags. Running sitegen with
// no command builds the site.
type CLI struct {
	Config    string `short:"c" help:"Configuration file path (default: sitegen.yaml when present)"`
	Source    string `short:"s" help:"Source directory overriding paths.source" type:"existingdir"`
	Verbose   bool   `short:"v" help:"Enable verbose logging"`
	Quiet     bool   `short:"q" help:"Only log warnings and errors"`
	LogFormat string `name:"log-format" enum:"text,json" default:"text" help:"Log output format (text|json)"`

	Build   BuildCmd   `cmd:"" default:"1" help:"Generate the site into the output directory"`
	Serve   ServeCmd   `cmd:"" help:"Serve the site locally, rebuilding on change"`
	New     NewCmd     `cmd:"" help:"Scaffold a new post, project or page"`
	Init    InitCmd    `cmd:"" help:"Write a starter configuration file"`
	Fetch   FetchCmd   `cmd:"" help:"Sync the content repository checkout"`
	Check   CheckCmd   `cmd:"" help:"Verify internal links in the generated site"`
	Clean   CleanCmd   `cmd:"" help:"Remove generated output"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// AfterApply runs after flag parsing; sets up logging once for every command.
func (c *CLI) AfterApply() error {
	if c.Verbose && c.Quiet {
		return errors.New("--verbose and --quiet are mutually exclusive")
	}
	level := slog.LevelInfo
	switch {
	case c.Verbose:
		level = slog.LevelDebug
	case c.Quiet:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// LoadConfig reads the configuration honoring the global --config and
// --source flags.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.Source != "" {
		cfg.Paths.Source = c.Source
	}
	return cfg, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// publishBuildEvent forwards a build result to NATS when notifications are
// configured. Best effort: failures are logged, never returned.
func publishBuildEvent(ctx context.Context, cfg *config.Config, report *site.BuildReport) {
	if report == nil || !notify.Enabled(cfg.Notify) {
		return
	}
	pub, err := notify.NewPublisher(cfg.Notify)
	if err != nil {
		slog.Warn("Notify publisher unavailable", logfields.Error(err))
		return
	}
	defer pub.Close()
	event := notify.BuildEvent{
		BuildID:    report.BuildID,
		Outcome:    report.Outcome,
		Signature:  report.Signature,
		Skipped:    report.SkipReason != "",
		Started:    report.Start,
		Finished:   report.End,
		DurationMS: report.End.Sub(report.Start).Milliseconds(),
		Posts:      report.Posts,
		Projects:   report.Projects,
		Pages:      report.Pages,
		Errors:     len(report.Errors),
		Warnings:   len(report.Warnings),
	}
	if err := pub.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish build event", logfields.Error(err))
	}
}
