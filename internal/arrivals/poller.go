package arrivals

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"busmonitor.dev/internal/display"
	"busmonitor.dev/internal/logging"
	"busmonitor.dev/internal/models"
)

// Sender is the producer side of the display mailbox.
type Sender interface {
	Send(cmd display.Command)
	Close()
}

type PollerConfig struct {
	Stops []string
	// Interval is the pause between the end of one cycle and the start of
	// the next.
	Interval time.Duration
	// MaxCycles stops the loop after that many cycles; zero runs until the
	// context is done.
	MaxCycles int
}

// NoArrivalsText is shown when a cycle produced no arrivals at all.
const NoArrivalsText = "no arrivals"

// Poller is the control loop: fetch every stop, merge, and hand the result
// to the display. Sending blocks while the mailbox is full, which keeps the
// loop at the pace of the panel.
type Poller struct {
	config  PollerConfig
	source  Source
	mailbox Sender
	logger  *slog.Logger

	mu     sync.Mutex
	last   []models.ArrivalTime
	lastAt time.Time
}

// Snapshot is the outcome of the most recent cycle.
type Snapshot struct {
	At       time.Time
	Arrivals []models.ArrivalTime
}

func NewPoller(config PollerConfig, source Source, mailbox Sender, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		config:  config,
		source:  source,
		mailbox: mailbox,
		logger:  logger.With(slog.String("component", "poller")),
	}
}

// Run polls until MaxCycles is reached or ctx is done, then closes the
// mailbox so the display can shut down.
func (p *Poller) Run(ctx context.Context) {
	defer p.mailbox.Close()

	timer := time.NewTimer(p.config.Interval)
	defer timer.Stop()

	for cycle := 1; ; cycle++ {
		if ctx.Err() != nil {
			logging.LogOperation(p.logger, "poller_stopped", slog.Int("cycles", cycle-1))
			return
		}

		p.Cycle(ctx)

		if p.config.MaxCycles > 0 && cycle >= p.config.MaxCycles {
			logging.LogOperation(p.logger, "poller_finished", slog.Int("cycles", cycle))
			return
		}

		timer.Reset(p.config.Interval)
		select {
		case <-ctx.Done():
			logging.LogOperation(p.logger, "poller_stopped", slog.Int("cycles", cycle))
			return
		case <-timer.C:
		}
	}
}

// Cycle runs one fetch, merge and send round and returns what was sent.
func (p *Poller) Cycle(ctx context.Context) []models.ArrivalTime {
	ctx = logging.WithLogger(ctx, p.logger)
	start := time.Now()

	results := FetchAll(ctx, p.source, p.config.Stops)
	merged := Merge(ctx, results)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	p.mailbox.Send(display.Clear{})
	if len(merged) == 0 {
		p.mailbox.Send(display.Message{Text: NoArrivalsText})
	} else {
		p.mailbox.Send(display.Arrivals{List: merged})
	}
	p.mailbox.Send(display.Update{})

	p.mu.Lock()
	p.last, p.lastAt = merged, time.Now()
	p.mu.Unlock()

	logging.LogOperation(p.logger, "poll_cycle_completed",
		slog.Int("stops", len(results)),
		slog.Int("failed_stops", failed),
		slog.Int("arrivals", len(merged)),
		slog.Duration("duration", time.Since(start)))

	return merged
}

// Last returns what the most recent cycle sent to the display.
func (p *Poller) Last() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{At: p.lastAt, Arrivals: p.last}
}
