package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"

	"busmonitor.dev/internal/app"
	"busmonitor.dev/internal/appconf"
	"busmonitor.dev/internal/arrivals"
	"busmonitor.dev/internal/logging"
	"busmonitor.dev/internal/models"
	"busmonitor.dev/internal/schedule"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "busmonitor:", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "busmonitor",
		Usage: "show upcoming bus arrivals on an e-paper panel",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "busmonitor.yaml",
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"BUSMONITOR_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Environment (development|test|production), overrides the config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "minimum log level (debug|info|warn|error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "poll the configured stops and drive the panel until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "panel", Usage: "panel driver (waveshare|preview|png), overrides the config file"},
					&cli.IntFlag{Name: "max-cycles", Usage: "stop after this many polling cycles, 0 runs forever"},
				},
				Action: func(c *cli.Context) error {
					application, err := setup(c)
					if err != nil {
						return err
					}
					if c.IsSet("panel") {
						application.Config.Panel.Driver = c.String("panel")
					}
					if c.IsSet("max-cycles") {
						application.Config.MaxCycles = c.Int("max-cycles")
					}

					ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()

					application.Logger.Info("starting busmonitor",
						"env", application.Config.Environment().String(),
						"source", application.Config.Source,
						"panel", application.Config.Panel.Driver)
					return application.Run(ctx)
				},
			},
			{
				Name:  "fetch",
				Usage: "fetch arrivals once and print them",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dump", Usage: "print the raw fetch results instead of a table"},
				},
				Action: func(c *cli.Context) error {
					application, err := setup(c)
					if err != nil {
						return err
					}
					results, merged, err := application.Fetch(c.Context)
					if err != nil {
						return err
					}
					if c.Bool("dump") {
						_, err = pretty.Fprintf(c.App.Writer, "%# v\n", results)
						return err
					}
					return printArrivals(c.App.Writer, results, merged, application.Schedule, application.Clock.Now())
				},
			},
			{
				Name:  "render",
				Usage: "fetch arrivals once and render the panel to a PNG file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: appconf.DefaultPNGPath, Usage: "output PNG path"},
				},
				Action: func(c *cli.Context) error {
					application, err := setup(c)
					if err != nil {
						return err
					}
					out := c.String("out")
					if err := application.Render(c.Context, out); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "wrote", out)
					return nil
				},
			},
		},
	}
}

// setup loads the configuration named by the global flags and builds the
// application with a logger suited to the environment.
func setup(c *cli.Context) (*app.Application, error) {
	cfg, err := appconf.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("env") {
		cfg.Env = c.String("env")
	}

	logger, err := newLogger(c.App.ErrWriter, cfg.Environment(), c.String("log-level"))
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger), nil
}

// newLogger emits JSON in production and human readable text elsewhere.
func newLogger(w io.Writer, env appconf.Environment, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if env == appconf.Production {
		return logging.NewStructuredLogger(w, lvl), nil
	}
	return logging.NewTextLogger(w, lvl), nil
}

func printArrivals(w io.Writer, results []arrivals.StopResult, merged []models.ArrivalTime, table *schedule.Table, now time.Time) error {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "stop %s: %v\n", r.StopID, r.Err)
		}
	}
	if len(merged) == 0 {
		_, err := fmt.Fprintln(w, arrivals.NoArrivalsText)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STOP\tLINE\tDESTINATION\tETA\tSCHOOL\tWORK\tMISSED")
	for _, a := range merged {
		info := table.Lookup(a.Line)
		school, _ := schedule.DeriveConnectionTime(now, a, info.SecondsToSchool)
		work, _ := schedule.DeriveConnectionTime(now, a, info.SecondsToWork)
		missed := ""
		if schedule.IsMissed(a, info) {
			missed = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.StopID, a.Line, a.Destination, strings.TrimSpace(models.TimeString(a)), school, work, missed)
	}
	return tw.Flush()
}
