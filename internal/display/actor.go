package display

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"busmonitor.dev/internal/clock"
	"busmonitor.dev/internal/logging"
	"busmonitor.dev/internal/schedule"
)

// DefaultWindow is how far ahead the timeline looks.
const DefaultWindow = 12 * time.Minute

type Options struct {
	// Window is the span of the timeline. Zero means DefaultWindow.
	Window time.Duration
	// Schedule supplies walking and connection offsets. Nil means
	// schedule.Default().
	Schedule *schedule.Table
}

// Actor is the only owner of its Surface. All drawing happens on the
// goroutine that calls Run.
type Actor struct {
	surface  Surface
	renderer *renderer
	logger   *slog.Logger

	cursorY        int
	viewportHeight int
}

// NewActor prepares an actor for surface. It fails only if the embedded
// icons cannot be decoded.
func NewActor(surface Surface, clk clock.Clock, opts Options, logger *slog.Logger) (*Actor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Schedule == nil {
		opts.Schedule = schedule.Default()
	}

	a, err := loadAssets()
	if err != nil {
		return nil, fmt.Errorf("load display assets: %w", err)
	}

	return &Actor{
		surface: surface,
		renderer: &renderer{
			surface:  surface,
			clock:    clk,
			assets:   a,
			schedule: opts.Schedule,
			window:   opts.Window,
		},
		logger:         logger.With(slog.String("component", "display")),
		cursorY:        firstRowY,
		viewportHeight: surface.Bounds().Dy() - 2*IconSize,
	}, nil
}

// Run processes commands until the mailbox is closed and drained, then
// blanks the panel with a full refresh and puts it to sleep. Failures
// while handling a command are logged and do not stop the actor; the
// returned error only reports a failed shutdown sequence.
func (a *Actor) Run(mailbox *Mailbox) error {
	a.start()

	for {
		cmd, ok := mailbox.Receive()
		if !ok {
			break
		}
		if err := a.dispatch(cmd); err != nil {
			logging.LogError(a.logger, "display command failed", err,
				slog.String("command", cmd.commandName()))
		}
	}

	return a.shutdown()
}

func (a *Actor) start() {
	if initializer, ok := a.surface.(Initializer); ok {
		if err := a.guard("init", initializer.Init); err != nil {
			logging.LogError(a.logger, "panel init failed", err)
		}
	}
	if err := a.guard("start", a.renderer.drawChrome); err != nil {
		logging.LogError(a.logger, "initial chrome failed", err)
	}
	logging.LogOperation(a.logger, "display_started",
		slog.Int("width", a.surface.Bounds().Dx()),
		slog.Int("height", a.surface.Bounds().Dy()))
}

func (a *Actor) dispatch(cmd Command) error {
	return a.guard(cmd.commandName(), func() error { return a.handle(cmd) })
}

// guard runs fn and reports its failure, or its panic, as an *Error.
func (a *Actor) guard(name string, fn func() error) error {
	var err error
	var pc panics.Catcher
	pc.Try(func() { err = fn() })

	if r := pc.Recovered(); r != nil {
		return &Error{Command: name, Op: "panic", Err: r.AsError()}
	}
	if err != nil {
		return &Error{Command: name, Err: err}
	}
	return nil
}

func (a *Actor) handle(cmd Command) error {
	switch c := cmd.(type) {
	case Clear:
		a.cursorY = firstRowY
		return a.renderer.drawChrome()

	case Update:
		return a.surface.Flush(RefreshQuick)

	case Message:
		if a.cursorY > a.viewportHeight {
			a.cursorY = firstRowY
			if err := a.renderer.drawChrome(); err != nil {
				return err
			}
		}
		if err := a.renderer.drawText(a.cursorY, c.Text); err != nil {
			return err
		}
		a.cursorY += FontHeight
		return nil

	case Arrivals:
		y, err := a.renderer.drawTable(c.List)
		a.cursorY = y
		if err != nil {
			return err
		}
		return a.renderer.drawTimeline(c.List)

	case Battery:
		a.logger.Info("battery level", slog.Float64("level", c.Level))
		return nil

	case WiFi:
		a.logger.Info("wifi level", slog.Float64("level", c.Level))
		return nil
	}

	return fmt.Errorf("unknown command %T", cmd)
}

// shutdown leaves a white panel behind: clear, full refresh, sleep. Each
// step is attempted even if an earlier one failed or panicked.
func (a *Actor) shutdown() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"clear", func() error { return a.surface.Clear(color.White) }},
		{"full refresh", func() error { return a.surface.Flush(RefreshFull) }},
		{"sleep", a.surface.Sleep},
	}

	var errs []error
	for _, step := range steps {
		if err := a.guard(step.name, step.fn); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		logging.LogError(a.logger, "display shutdown incomplete", err)
		return &Error{Command: "shutdown", Err: err}
	}
	logging.LogOperation(a.logger, "display_asleep")
	return nil
}

// Start runs a new actor on its own goroutine and returns the mailbox that
// feeds it. Wait on the returned group after closing the mailbox; a panic
// outside command handling is re-raised by Wait.
func Start(surface Surface, clk clock.Clock, opts Options, logger *slog.Logger) (*Mailbox, *conc.WaitGroup, error) {
	actor, err := NewActor(surface, clk, opts, logger)
	if err != nil {
		return nil, nil, err
	}

	mailbox := NewMailbox()
	var wg conc.WaitGroup
	wg.Go(func() {
		// The shutdown failure is already logged by Run.
		_ = actor.Run(mailbox)
	})
	return mailbox, &wg, nil
}
