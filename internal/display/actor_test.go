package display

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busmonitor.dev/internal/clock"
	"busmonitor.dev/internal/models"
)

var morning = time.Date(2024, 3, 4, 7, 50, 30, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// runCommands feeds cmds to a fresh actor and waits for it to shut down.
func runCommands(t *testing.T, surface *fakeSurface, cmds ...Command) {
	t.Helper()
	mailbox, wg, err := Start(surface, clock.NewMock(morning), Options{}, discardLogger())
	require.NoError(t, err)

	for _, cmd := range cmds {
		mailbox.Send(cmd)
	}
	mailbox.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("display actor did not stop")
	}
}

func TestMailbox(t *testing.T) {
	t.Run("sixth send blocks until a receive", func(t *testing.T) {
		mailbox := NewMailbox()
		for i := 0; i < MailboxCapacity; i++ {
			mailbox.Send(Message{Text: "queued"})
		}
		assert.Equal(t, MailboxCapacity, mailbox.Len())

		sent := make(chan struct{})
		go func() {
			mailbox.Send(Update{})
			close(sent)
		}()

		select {
		case <-sent:
			t.Fatal("send on a full mailbox returned")
		case <-time.After(50 * time.Millisecond):
		}

		cmd, ok := mailbox.Receive()
		require.True(t, ok)
		assert.Equal(t, Message{Text: "queued"}, cmd)

		select {
		case <-sent:
		case <-time.After(time.Second):
			t.Fatal("send did not resume after a receive")
		}
	})

	t.Run("close drains before reporting done", func(t *testing.T) {
		mailbox := NewMailbox()
		mailbox.Send(Clear{})
		mailbox.Send(Update{})
		mailbox.Close()
		mailbox.Close()

		cmd, ok := mailbox.Receive()
		require.True(t, ok)
		assert.Equal(t, Clear{}, cmd)
		cmd, ok = mailbox.Receive()
		require.True(t, ok)
		assert.Equal(t, Update{}, cmd)
		_, ok = mailbox.Receive()
		assert.False(t, ok)
	})
}

func TestActorShutdown(t *testing.T) {
	t.Run("empty mailbox", func(t *testing.T) {
		surface := newFakeSurface()
		runCommands(t, surface)

		ops := surface.opsSnapshot()
		require.GreaterOrEqual(t, len(ops), 3)
		assert.Equal(t, []string{"clear", "flush:full", "sleep"}, ops[len(ops)-3:])
		assert.Equal(t, 1, surface.count("flush:full"))
		assert.Equal(t, 0, surface.count("flush:quick"))
		assert.Equal(t, 1, surface.inits)
	})

	t.Run("queued commands are handled first", func(t *testing.T) {
		surface := newFakeSurface()
		runCommands(t, surface, Clear{}, Message{Text: "hello"}, Update{})

		ops := surface.opsSnapshot()
		assert.Equal(t, []string{"flush:quick", "clear", "flush:full", "sleep"}, ops[len(ops)-4:])
		assert.Len(t, surface.textsContaining("hello"), 1)
	})

	t.Run("sleep is reached when the full refresh fails", func(t *testing.T) {
		surface := newFakeSurface()
		surface.failOn = "flush:full"
		runCommands(t, surface)

		ops := surface.opsSnapshot()
		assert.Equal(t, "sleep", ops[len(ops)-1])
	})
}

func TestActorFlushesOnlyOnUpdate(t *testing.T) {
	surface := newFakeSurface()
	list := []models.ArrivalTime{{StopID: "874", Line: "31", Destination: "Legazpi", Seconds: 600}}

	mailbox, wg, err := Start(surface, clock.NewMock(morning), Options{}, discardLogger())
	require.NoError(t, err)

	for _, cmd := range []Command{Clear{}, Arrivals{List: list}, Message{Text: "x"}, Battery{Level: 0.5}, WiFi{Level: 0.9}} {
		mailbox.Send(cmd)
	}
	require.Eventually(t, func() bool { return mailbox.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, surface.count("flush:quick"))

	mailbox.Send(Update{})
	require.Eventually(t, func() bool { return surface.count("flush:quick") == 1 }, time.Second, 5*time.Millisecond)

	mailbox.Close()
	wg.Wait()
}

func TestActorSurvivesFailures(t *testing.T) {
	t.Run("draw error", func(t *testing.T) {
		surface := newFakeSurface()
		surface.failOn = "image"
		runCommands(t, surface, Clear{}, Update{})

		assert.Equal(t, 1, surface.count("flush:quick"))
		assert.Equal(t, "sleep", surface.opsSnapshot()[len(surface.opsSnapshot())-1])
	})

	t.Run("panic while drawing", func(t *testing.T) {
		surface := newFakeSurface()
		surface.panicOn = "text"
		runCommands(t, surface, Message{Text: "boom"}, Update{})

		assert.Equal(t, 1, surface.count("flush:quick"))
		assert.Equal(t, 1, surface.count("sleep"))
	})

	t.Run("panic becomes an error", func(t *testing.T) {
		surface := newFakeSurface()
		actor, err := NewActor(surface, clock.NewMock(morning), Options{}, discardLogger())
		require.NoError(t, err)

		surface.panicOn = "text"
		err = actor.dispatch(Message{Text: "boom"})

		var displayErr *Error
		require.ErrorAs(t, err, &displayErr)
		assert.Equal(t, "message", displayErr.Command)
		assert.Equal(t, "panic", displayErr.Op)
		assert.Contains(t, err.Error(), "surface exploded on text")

		require.NoError(t, actor.dispatch(Update{}))
		assert.Equal(t, 1, surface.count("flush:quick"))
	})

	t.Run("panic during panel init", func(t *testing.T) {
		surface := newFakeSurface()
		surface.panicOn = "init"
		runCommands(t, surface, Clear{}, Update{})

		assert.Equal(t, 1, surface.inits)
		assert.Equal(t, 1, surface.count("flush:quick"))
		assert.Equal(t, "sleep", surface.opsSnapshot()[len(surface.opsSnapshot())-1])
	})

	t.Run("panic during shutdown still sleeps", func(t *testing.T) {
		surface := newFakeSurface()
		surface.panicOn = "flush:full"
		actor, err := NewActor(surface, clock.NewMock(morning), Options{}, discardLogger())
		require.NoError(t, err)

		mailbox := NewMailbox()
		mailbox.Close()
		err = actor.Run(mailbox)

		var displayErr *Error
		require.ErrorAs(t, err, &displayErr)
		assert.Contains(t, err.Error(), "surface exploded on flush:full")
		assert.Equal(t, "sleep", surface.opsSnapshot()[len(surface.opsSnapshot())-1])
	})
}

func TestActorBatteryAndWiFiOnlyLog(t *testing.T) {
	surface := newFakeSurface()
	actor, err := NewActor(surface, clock.NewMock(morning), Options{}, discardLogger())
	require.NoError(t, err)

	require.NoError(t, actor.dispatch(Battery{Level: 0.25}))
	require.NoError(t, actor.dispatch(WiFi{Level: 0.75}))
	assert.Empty(t, surface.opsSnapshot())
}

func TestActorMessageWraps(t *testing.T) {
	surface := newFakeSurface()
	actor, err := NewActor(surface, clock.NewMock(morning), Options{}, discardLogger())
	require.NoError(t, err)

	// Lines start at 28 and advance by 13; the 16th message starts below
	// the 220 px viewport and wraps.
	for i := 0; i < 15; i++ {
		require.NoError(t, actor.dispatch(Message{Text: "line"}))
	}
	assert.Equal(t, 0, surface.count("clear"))
	assert.Equal(t, firstRowY+15*FontHeight, actor.cursorY)

	require.NoError(t, actor.dispatch(Message{Text: "wrapped"}))
	assert.Equal(t, 1, surface.count("clear"))
	wrapped := surface.textsContaining("wrapped")
	require.Len(t, wrapped, 1)
	assert.Equal(t, firstRowY, wrapped[0].Pt.Y)
}

func TestActorClearResetsCursor(t *testing.T) {
	surface := newFakeSurface()
	actor, err := NewActor(surface, clock.NewMock(morning), Options{}, discardLogger())
	require.NoError(t, err)

	require.NoError(t, actor.dispatch(Message{Text: "one"}))
	require.NoError(t, actor.dispatch(Message{Text: "two"}))
	require.NoError(t, actor.dispatch(Clear{}))
	assert.Equal(t, firstRowY, actor.cursorY)

	require.NoError(t, actor.dispatch(Message{Text: "three"}))
	assert.Equal(t, firstRowY, surface.textsContaining("three")[0].Pt.Y)
}

func TestErrorUnwrap(t *testing.T) {
	surface := newFakeSurface()
	surface.failOn = "flush:quick"
	actor, err := NewActor(surface, clock.NewMock(morning), Options{}, discardLogger())
	require.NoError(t, err)

	err = actor.dispatch(Update{})
	require.Error(t, err)

	var displayErr *Error
	require.ErrorAs(t, err, &displayErr)
	assert.Equal(t, "update", displayErr.Command)
	assert.Contains(t, err.Error(), "surface failed on flush:quick")
}
