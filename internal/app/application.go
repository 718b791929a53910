// Package app wires configuration, the arrivals source, the display actor
// and the panel into the running appliance.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"

	"busmonitor.dev/internal/appconf"
	"busmonitor.dev/internal/arrivals"
	"busmonitor.dev/internal/clock"
	"busmonitor.dev/internal/display"
	"busmonitor.dev/internal/epaper"
	"busmonitor.dev/internal/gtfs"
	"busmonitor.dev/internal/logging"
	"busmonitor.dev/internal/models"
	"busmonitor.dev/internal/schedule"
	"busmonitor.dev/internal/transit"
	"busmonitor.dev/internal/webui"
)

const userAgent = "busmonitor/1.0"

// Application holds the dependencies shared by the CLI commands.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Clock    clock.Clock
	Schedule *schedule.Table
	// Source is set by Connect.
	Source arrivals.Source
}

func New(cfg appconf.Config, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	table, origin := schedule.Default(), "default"
	if lines := cfg.LineSchedules(); lines != nil {
		table, origin = schedule.New(lines), "config"
	}
	logging.LogOperation(logger, "schedule_loaded",
		slog.String("origin", origin),
		slog.Int("lines", table.Len()))
	return &Application{
		Config:   cfg,
		Logger:   logger,
		Clock:    clock.System{Location: time.Local},
		Schedule: table,
	}
}

// Connect builds the arrivals source. For the EMT API it logs in once,
// unless a pre-issued token is configured; a failed login is returned and
// is fatal for the caller.
func (app *Application) Connect(ctx context.Context) error {
	switch app.Config.Source {
	case appconf.SourceGTFSRT:
		app.Source = gtfs.NewRealtimeSource(gtfs.Config{
			TripUpdatesURL:          app.Config.GTFSRT.TripUpdatesURL,
			RealTimeAuthHeaderKey:   app.Config.GTFSRT.AuthHeaderKey,
			RealTimeAuthHeaderValue: app.Config.GTFSRT.AuthHeaderValue,
			Headsigns:               app.Config.GTFSRT.Headsigns,
			Timeout:                 app.Config.GTFSRT.Timeout,
		}, app.Clock, app.Logger)
		return nil

	case appconf.SourceEMT, "":
		client := transit.NewClient(transit.Config{
			BaseURL:   app.Config.EMT.BaseURL,
			Timeout:   app.Config.EMT.Timeout,
			UserAgent: userAgent,
		}, app.Logger)

		if app.Config.EMT.Token != "" {
			app.Source = client.WithSession(transit.NewSession(app.Config.EMT.Token))
			logging.LogOperation(app.Logger, "using_configured_token")
			return nil
		}

		session, err := client.Login(ctx, app.Config.EMT.Email, app.Config.EMT.Password)
		if err != nil {
			return logging.LogAndWrap(app.Logger, "transit login failed", err)
		}
		app.Source = client.WithSession(session)
		return nil
	}

	return fmt.Errorf("unknown arrivals source %q", app.Config.Source)
}

// Fetch runs one fetch of every configured stop.
func (app *Application) Fetch(ctx context.Context) ([]arrivals.StopResult, []models.ArrivalTime, error) {
	if app.Source == nil {
		if err := app.Connect(ctx); err != nil {
			return nil, nil, err
		}
	}
	ctx = logging.WithLogger(ctx, app.Logger)
	results := arrivals.FetchAll(ctx, app.Source, app.Config.Stops)
	return results, arrivals.Merge(ctx, results), nil
}

// Run polls until ctx is done or the configured number of cycles is
// reached, then puts the panel to sleep.
func (app *Application) Run(ctx context.Context) error {
	if app.Source == nil {
		if err := app.Connect(ctx); err != nil {
			return err
		}
	}

	panel, closer, preview, err := app.openPanel()
	if err != nil {
		return err
	}
	if closer != nil {
		defer logging.SafeCloseWithLogging(closer, app.Logger, "panel_close")
	}

	return app.drive(ctx, panel, preview, app.Config.MaxCycles)
}

// Render draws a single cycle into the PNG file at path.
func (app *Application) Render(ctx context.Context, path string) error {
	if app.Source == nil {
		if err := app.Connect(ctx); err != nil {
			return err
		}
	}

	panel := epaper.NewPNGPanel(path, app.Config.Panel.Width, app.Config.Panel.Height, app.Logger)
	if err := app.drive(ctx, panel, nil, 1); err != nil {
		return err
	}
	if panel.Writes() == 0 {
		return fmt.Errorf("no frame was written to %s", path)
	}
	return nil
}

// drive connects poller, display actor and panel, and blocks until the
// actor has put the panel to sleep.
func (app *Application) drive(ctx context.Context, panel epaper.Panel, preview *webui.Preview, maxCycles int) error {
	canvas := epaper.NewCanvas(panel, app.Logger)
	mailbox, actorWG, err := display.Start(canvas, app.Clock, display.Options{
		Window:   app.Config.Window,
		Schedule: app.Schedule,
	}, app.Logger)
	if err != nil {
		return err
	}

	poller := arrivals.NewPoller(arrivals.PollerConfig{
		Stops:     app.Config.Stops,
		Interval:  app.Config.PollInterval,
		MaxCycles: maxCycles,
	}, app.Source, mailbox, app.Logger)

	serveCtx, stopServing := context.WithCancel(context.Background())
	var servers conc.WaitGroup
	if preview != nil {
		preview.AddDebugData("arrivals", func() any { return poller.Last() })
		preview.AddDebugData("config", func() any { return app.Config.Redacted() })
		preview.AddDebugData("schedule", func() any { return app.Schedule })
		servers.Go(func() {
			if err := preview.Serve(serveCtx, app.Config.Panel.ListenAddr); err != nil {
				logging.LogError(app.Logger, "preview server stopped", err)
			}
		})
	}

	logging.LogOperation(app.Logger, "polling_started",
		slog.Int("stops", len(app.Config.Stops)),
		slog.Duration("interval", app.Config.PollInterval),
		slog.Int("max_cycles", maxCycles))

	poller.Run(ctx)
	actorWG.Wait()

	stopServing()
	servers.Wait()

	logging.LogOperation(app.Logger, "polling_finished")
	return nil
}

// openPanel returns the configured panel. closer is nil when the panel
// holds no resources; preview is nil unless the preview driver is chosen.
func (app *Application) openPanel() (epaper.Panel, io.Closer, *webui.Preview, error) {
	cfg := app.Config.Panel
	switch cfg.Driver {
	case appconf.PanelWaveshare:
		hat, err := epaper.OpenWaveshare(cfg.SPIPort, cfg.Width, cfg.Height, app.Logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return hat, hat, nil, nil

	case appconf.PanelPNG:
		return epaper.NewPNGPanel(cfg.PNGPath, cfg.Width, cfg.Height, app.Logger), nil, nil, nil

	case appconf.PanelPreview, "":
		preview := webui.NewPreview(cfg.Width, cfg.Height, app.Logger)
		preview.RequireAPIKeys(cfg.APIKeys)
		return preview, nil, preview, nil
	}

	return nil, nil, nil, fmt.Errorf("unknown panel driver %q", cfg.Driver)
}
