package arrivals

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busmonitor.dev/internal/display"
	"busmonitor.dev/internal/models"
)

type recordingSender struct {
	mu     sync.Mutex
	sent   []display.Command
	closed bool
}

func (r *recordingSender) Send(cmd display.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, cmd)
}

func (r *recordingSender) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *recordingSender) commands() []display.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]display.Command(nil), r.sent...)
}

func (r *recordingSender) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPollerCycle(t *testing.T) {
	t.Run("sends clear, arrivals and update in order", func(t *testing.T) {
		source := &fakeSource{byStop: map[string][]models.ArrivalTime{
			"874":  {arrival("874", "31", 120)},
			"1455": {arrival("1455", "138", 90)},
		}}
		sender := &recordingSender{}
		poller := NewPoller(PollerConfig{Stops: []string{"874", "1455"}}, source, sender, discardLogger())

		merged := poller.Cycle(context.Background())

		cmds := sender.commands()
		require.Len(t, cmds, 3)
		assert.Equal(t, display.Clear{}, cmds[0])
		require.IsType(t, display.Arrivals{}, cmds[1])
		assert.Equal(t, merged, cmds[1].(display.Arrivals).List)
		assert.Equal(t, "138", merged[0].Line)
		assert.Equal(t, display.Update{}, cmds[2])

		last := poller.Last()
		assert.Equal(t, merged, last.Arrivals)
		assert.False(t, last.At.IsZero())
	})

	t.Run("every stop failed sends a message", func(t *testing.T) {
		source := &fakeSource{errs: map[string]error{
			"874":  errors.New("timeout"),
			"1455": errors.New("timeout"),
		}}
		sender := &recordingSender{}
		poller := NewPoller(PollerConfig{Stops: []string{"874", "1455"}}, source, sender, discardLogger())

		merged := poller.Cycle(context.Background())

		assert.Empty(t, merged)
		assert.Equal(t, []display.Command{
			display.Clear{},
			display.Message{Text: NoArrivalsText},
			display.Update{},
		}, sender.commands())
	})
}

func TestPollerRun(t *testing.T) {
	t.Run("stops after max cycles and closes the mailbox", func(t *testing.T) {
		source := &fakeSource{byStop: map[string][]models.ArrivalTime{"874": {arrival("874", "31", 60)}}}
		sender := &recordingSender{}
		poller := NewPoller(PollerConfig{Stops: []string{"874"}, Interval: time.Millisecond, MaxCycles: 3}, source, sender, discardLogger())

		poller.Run(context.Background())

		assert.True(t, sender.isClosed())
		assert.Len(t, sender.commands(), 9)
		assert.Equal(t, []string{"874", "874", "874"}, source.calls)
	})

	t.Run("cancelled context ends the loop", func(t *testing.T) {
		source := &fakeSource{byStop: map[string][]models.ArrivalTime{"874": {arrival("874", "31", 60)}}}
		sender := &recordingSender{}
		poller := NewPoller(PollerConfig{Stops: []string{"874"}, Interval: time.Hour}, source, sender, discardLogger())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			poller.Run(ctx)
			close(done)
		}()

		require.Eventually(t, func() bool { return len(sender.commands()) == 3 }, time.Second, 5*time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("poller did not stop after cancel")
		}
		assert.True(t, sender.isClosed())
		assert.Len(t, sender.commands(), 3)
	})

	t.Run("already cancelled context sends nothing", func(t *testing.T) {
		source := &fakeSource{}
		sender := &recordingSender{}
		poller := NewPoller(PollerConfig{Stops: []string{"874"}, Interval: time.Millisecond}, source, sender, discardLogger())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		poller.Run(ctx)

		assert.True(t, sender.isClosed())
		assert.Empty(t, sender.commands())
		assert.Empty(t, source.calls)
	})
}

func TestPollerBackpressure(t *testing.T) {
	source := &fakeSource{byStop: map[string][]models.ArrivalTime{"874": {arrival("874", "31", 60)}}}
	mailbox := display.NewMailbox()
	poller := NewPoller(PollerConfig{Stops: []string{"874"}, Interval: time.Millisecond, MaxCycles: 2}, source, mailbox, discardLogger())

	done := make(chan struct{})
	go func() {
		poller.Run(context.Background())
		close(done)
	}()

	// Two cycles need six slots; nobody is draining so the poller blocks on
	// the sixth send.
	require.Eventually(t, func() bool { return mailbox.Len() == display.MailboxCapacity }, time.Second, 5*time.Millisecond)
	select {
	case <-done:
		t.Fatal("poller finished while the mailbox was full")
	case <-time.After(50 * time.Millisecond):
	}

	var received []display.Command
	for {
		cmd, ok := mailbox.Receive()
		if !ok {
			break
		}
		received = append(received, cmd)
	}
	<-done
	assert.Len(t, received, 6)
}
