// Package commands implements the jenkinsctl subcommands.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	"git.home.luguber.info/inful/jenkinsrest/internal/config"
	"git.home.luguber.info/inful/jenkinsrest/internal/jenkins"
)

// Global carries state shared by every subcommand.
type Global struct {
	Ctx    context.Context
	Logger *slog.Logger
	Out    io.Writer
	Err    io.Writer

	// clientOptions are appended when the client is built, mainly for tests.
	clientOptions []jenkins.Option
}

// NewGlobal returns the default global state writing to stdout/stderr.
func NewGlobal(ctx context.Context) *Global {
	return &Global{Ctx: ctx, Out: os.Stdout, Err: os.Stderr}
}

// CLI is the root command.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"jenkins.yaml" env:"JENKINSCTL_CONFIG"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format (text, json)" enum:",text,json" default:""`
	JSON      bool             `help:"Print results as JSON"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Jobs    JobsCmd    `cmd:"" help:"List jobs of the root or a folder"`
	Job     JobCmd     `cmd:"" help:"Show a job"`
	Builds  BuildsCmd  `cmd:"" help:"List builds of a job, newest first"`
	Build   BuildCmd   `cmd:"" help:"Trigger a build"`
	Stop    StopCmd    `cmd:"" help:"Abort a running build"`
	Queue   QueueCmd   `cmd:"" help:"List the build queue"`
	Cancel  CancelCmd  `cmd:"" help:"Cancel a queued build"`
	System  SystemCmd  `cmd:"" help:"Show controller version and load"`
	Plugins PluginsCmd `cmd:"" help:"List installed plugins"`
	Whoami  WhoamiCmd  `cmd:"" help:"Show the authenticated user"`
	Log     LogCmd     `cmd:"" help:"Print the console log of a build"`
	Monitor MonitorCmd `cmd:"" help:"Poll the controller and export Prometheus metrics"`
}

// AfterApply installs the logger selected by the global flags.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = newLogger(g.Err, config.NormalizeLogFormat(c.LogFormat), level)
	slog.SetDefault(g.Logger)
	return nil
}

func newLogger(w io.Writer, format config.LogFormat, level slog.Level) *slog.Logger {
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen}))
}

// loadConfig loads the configuration and applies its logging section
// unless flags override it.
func (g *Global) loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level.SlogLevel()
	if root.Verbose {
		level = slog.LevelDebug
	}
	format := cfg.Logging.Format
	if root.LogFormat != "" {
		format = config.NormalizeLogFormat(root.LogFormat)
	}
	g.Logger = newLogger(g.Err, format, level)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// client builds a Jenkins client from the configuration.
func (g *Global) client(root *CLI, opts ...jenkins.Option) (*jenkins.Client, error) {
	cfg, err := g.loadConfig(root)
	if err != nil {
		return nil, err
	}
	opts = append([]jenkins.Option{jenkins.WithLogger(g.Logger)}, opts...)
	return jenkins.New(cfg, append(opts, g.clientOptions...)...)
}

// printJSON writes v as indented JSON.
func (g *Global) printJSON(v any) error {
	enc := json.NewEncoder(g.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes tab-separated rows aligned in columns.
func (g *Global) table(header string, rows func(w io.Writer)) error {
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
