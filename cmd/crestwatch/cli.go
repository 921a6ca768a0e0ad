package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/crestwatch"
	"github.com/fwojciec/crestwatch/watch"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Store   crestwatch.SnapshotStore
	Watcher *watch.Watcher
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Snapshot string `short:"s" env:"CRESTWATCH_SNAPSHOT" help:"Snapshot location (default: previous-results.json, or previous-results.db with --store=sqlite)"`
	Store    string `enum:"json,sqlite" default:"json" env:"CRESTWATCH_STORE" help:"Snapshot backend (json or sqlite)"`
	Verbose  bool   `short:"v" help:"Enable debug logging"`

	Run  RunCmd  `cmd:"" default:"withargs" help:"Check for new updates and notify channels (default)"`
	Show ShowCmd `cmd:"" help:"Print the current snapshot"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	URL          string        `short:"u" env:"CRESTWATCH_URL" default:"${default_url}" help:"Update listing URL"`
	SlackWebhook string        `name:"slack-webhook-path" env:"SLACK_WEBHOOK_PATH" help:"Slack incoming webhook path or URL"`
	TeamsWebhook string        `name:"teams-webhook-path" env:"MSTEAMS_WEBHOOK_PATH" help:"Microsoft Teams incoming webhook path or URL"`
	ConfigFile   string        `name:"config" short:"c" type:"existingfile" env:"CRESTWATCH_CONFIG" help:"YAML file listing additional channels"`
	Browser      bool          `help:"Render the listing in headless Chrome"`
	WaitSelector string        `help:"With --browser, wait for this CSS selector before reading the page"`
	Timeout      time.Duration `short:"t" default:"10s" help:"Timeout for the fetch and each webhook post"`
	Concurrency  int           `default:"2" help:"Channels notified at once"`
	WebhookRPS   float64       `name:"webhook-rps" default:"1" help:"Webhook posts per second per host (0 disables limiting)"`
	StrictKinds  bool          `help:"Mark labels other than Firmware and Software as unknown"`
	DryRun       bool          `short:"n" help:"Compare without saving; print payloads instead of posting them"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct{}
