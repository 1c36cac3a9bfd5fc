// Package main provides the typingstatsd CLI entrypoint.
//
// Usage:
//
//	typingstatsd run [-config <path>]
//	typingstatsd stats [-config <path>]
//	typingstatsd shortcuts [-config <path>] [-range today|yesterday|7d]
//	typingstatsd inspect [-config <path>]
//	typingstatsd version
//
// Exit codes:
//   - 0: success
//   - 1: configuration or storage error
//   - 2: unexpected failure
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/corvid-labs/typingstats/capture"
	"github.com/corvid-labs/typingstats/chunk"
	"github.com/corvid-labs/typingstats/clock"
	"github.com/corvid-labs/typingstats/config"
	"github.com/corvid-labs/typingstats/event"
	"github.com/corvid-labs/typingstats/shortcut"
	"github.com/corvid-labs/typingstats/snapshot"
	"github.com/corvid-labs/typingstats/storage"
	"github.com/corvid-labs/typingstats/supervisor"
)

const version = "0.1.0"

const (
	exitSuccess    = 0
	exitConfigOrIO = 1
	exitUnexpected = 2
)

func main() {
	app := &cli.App{
		Name:    "typingstatsd",
		Usage:   "Local keyboard-telemetry daemon - typing intensity and shortcut analytics",
		Version: version,
		Commands: []*cli.Command{
			runCommand(),
			statsCommand(),
			shortcutsCommand(),
			inspectCommand(),
			versionCommand(),
		},
		ExitErrHandler: exitErrHandler,
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit; this branch is only
		// reached if it didn't.
		os.Exit(exitUnexpected)
	}
}

// exitErrHandler handles errors from the CLI, respecting cli.ExitCoder.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitUnexpected)
}

// configFlag is shared by every command that needs the bootstrap file.
var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "Path to the typingstatsd.yaml bootstrap file",
	Value:   "typingstatsd.yaml",
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, cli.Exit(err.Error(), exitConfigOrIO)
	}
	return cfg, nil
}

func openStorage(cfg config.Config) *storage.JSONFileStorage {
	return storage.NewJSONFileStorage(cfg.DataDir, cfg.BaseFilename)
}

// renderJSON writes v to stdout as indented JSON, the read-only commands'
// single output format.
func renderJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start the collector daemon",
		Flags: []cli.Flag{configFlag},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			clk := clock.NewSystemClock()
			store := openStorage(cfg)
			sup := supervisor.New(cfg, store, platformListener(), platformCaptureProvider(), clk)
			defer sup.Close()

			if err := sup.LoadPersisted(); err != nil {
				// A malformed legacy file defaults state; the daemon still
				// starts and logs the condition.
				fmt.Fprintf(os.Stderr, "warning: %v (starting with fresh state)\n", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sup.Run(ctx)
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Print persisted bucket stats as JSON",
		Flags: []cli.Flag{configFlag},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			rows, err := openStorage(cfg).LoadStats()
			if err != nil {
				return cli.Exit(err.Error(), exitConfigOrIO)
			}
			return renderJSON(rows)
		},
	}
}

func shortcutsCommand() *cli.Command {
	return &cli.Command{
		Name:  "shortcuts",
		Usage: "Rebuild and print the shortcut leaderboard from persisted chunks",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{
				Name:  "range",
				Usage: "Time window: today, yesterday, or 7d (omit for all time)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			clk := clock.NewSystemClock()
			analytics, err := openStorage(cfg).LoadInputAnalytics()
			if err != nil {
				return cli.Exit(err.Error(), exitConfigOrIO)
			}

			closed := toClosed(analytics.Chunks)
			rules := rulesFromConfig(cfg)

			if rangeArg := c.String("range"); rangeArg != "" {
				r, ok := snapshot.ParseRange(rangeArg)
				if !ok {
					return cli.Exit(fmt.Sprintf("unknown range %q (want today, yesterday, or 7d)", rangeArg), exitConfigOrIO)
				}
				rows, _ := snapshot.ShortcutRowsByRange(closed, nil, analytics.AppDict, rules, clk.NowMs(), r)
				return renderJSON(snapshot.ShortcutLeaderboard(rows))
			}

			rows := snapshot.RebuildShortcutUsage(closed, analytics.AppDict, rules)
			return renderJSON(snapshot.ShortcutLeaderboard(rows))
		},
	}
}

// InspectResponse is the response for the inspect debug command.
type InspectResponse struct {
	DataDir        string `json:"data_dir"`
	MigratedLegacy bool   `json:"migrated_legacy"`
	StatsRows      int    `json:"stats_rows"`
	EventChunks    int    `json:"event_chunks"`
	AppDictEntries int    `json:"app_dict_entries"`
	NextAppRef     uint32 `json:"next_app_ref"`
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Migrate any legacy monolithic files and summarize the data directory",
		Flags: []cli.Flag{configFlag},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			store := openStorage(cfg)

			migrated, err := store.MigrateLegacy()
			if err != nil {
				return cli.Exit(err.Error(), exitConfigOrIO)
			}
			rows, err := store.LoadStats()
			if err != nil {
				return cli.Exit(err.Error(), exitConfigOrIO)
			}
			analytics, err := store.LoadInputAnalytics()
			if err != nil {
				return cli.Exit(err.Error(), exitConfigOrIO)
			}

			return renderJSON(InspectResponse{
				DataDir:        cfg.DataDir,
				MigratedLegacy: migrated,
				StatsRows:      len(rows),
				EventChunks:    len(analytics.Chunks),
				AppDictEntries: len(analytics.AppDict),
				NextAppRef:     analytics.NextAppRef,
			})
		},
	}
}

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version string `json:"version"`
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(*cli.Context) error {
			return renderJSON(VersionResponse{Version: version})
		},
	}
}

// rulesFromConfig mirrors the supervisor's config-to-ruleset adaptation so
// the read-only rebuild applies the same admission filter the daemon would.
func rulesFromConfig(cfg config.Config) shortcut.Rules {
	rules := shortcut.Rules{
		RequireCmdOrCtrl: cfg.ShortcutRules.RequireCmdOrCtrl,
		AllowAltOnly:     cfg.ShortcutRules.AllowAltOnly,
		MinModifiers:     cfg.ShortcutRules.MinModifiers,
		Allowlist:        make(map[string]struct{}, len(cfg.ShortcutRules.Allowlist)),
		Blocklist:        make(map[string]struct{}, len(cfg.ShortcutRules.Blocklist)),
	}
	for _, id := range cfg.ShortcutRules.Allowlist {
		rules.Allowlist[id] = struct{}{}
	}
	for _, id := range cfg.ShortcutRules.Blocklist {
		rules.Blocklist[id] = struct{}{}
	}
	if rules.MinModifiers == 0 {
		rules.MinModifiers = 1
	}
	return rules
}

func toClosed(docs []storage.ChunkDocument) []chunk.Closed {
	closed := make([]chunk.Closed, 0, len(docs))
	for _, d := range docs {
		closed = append(closed, chunk.Closed{
			V:            d.V,
			ChunkStartMs: d.ChunkStartMs,
			AppRef:       d.AppRef,
			Events:       d.Events,
		})
	}
	return closed
}

// platformListener returns the keyboard bridge for this build. Platform
// bridges are external collaborators linked in platform-specific builds;
// this portable build has none, so the listener fails terminally and the
// daemon records keyboard_active=false with the reason.
func platformListener() supervisor.Listener {
	return unavailableListener{}
}

type unavailableListener struct{}

func (unavailableListener) Listen(context.Context, func(event.Event)) error {
	return errors.New("no platform keyboard bridge in this build")
}

// platformCaptureProvider returns the frontmost-app resolver for this
// build; the portable build always reports the documented default context.
func platformCaptureProvider() capture.Provider {
	return capture.ProviderFunc(func() (capture.Context, bool) {
		return capture.Default(), true
	})
}
