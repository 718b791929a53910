// Package display owns the panel. A single actor goroutine receives
// commands through a bounded mailbox, draws them onto a Surface and puts
// the panel to sleep once the producer closes the mailbox.
package display

import (
	"sync"

	"busmonitor.dev/internal/models"
)

// Command is a message for the display actor. The set of commands is
// closed: Arrivals, Message, Battery, WiFi, Clear and Update.
type Command interface {
	commandName() string
}

// Arrivals draws the arrival table and the timeline.
type Arrivals struct {
	List []models.ArrivalTime
}

// Message draws one line of free text below the previous one.
type Message struct {
	Text string
}

// Battery reports the battery level in [0,1].
type Battery struct {
	Level float64
}

// WiFi reports the signal level in [0,1].
type WiFi struct {
	Level float64
}

// Clear wipes the frame buffer and repaints the chrome.
type Clear struct{}

// Update pushes the frame buffer to the panel.
type Update struct{}

func (Arrivals) commandName() string { return "arrivals" }
func (Message) commandName() string  { return "message" }
func (Battery) commandName() string  { return "battery" }
func (WiFi) commandName() string     { return "wifi" }
func (Clear) commandName() string    { return "clear" }
func (Update) commandName() string   { return "update" }

// MailboxCapacity is the number of commands that can be queued before
// Send blocks.
const MailboxCapacity = 5

// Mailbox is a bounded FIFO between one producer and the display actor.
type Mailbox struct {
	ch        chan Command
	closeOnce sync.Once
}

func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan Command, MailboxCapacity)}
}

// Send enqueues cmd, blocking while the mailbox is full. It must not be
// called after Close.
func (m *Mailbox) Send(cmd Command) {
	m.ch <- cmd
}

// Close tells the actor that no more commands will arrive. Commands
// already queued are still delivered.
func (m *Mailbox) Close() {
	m.closeOnce.Do(func() { close(m.ch) })
}

// Receive returns the next command. ok is false once the mailbox is closed
// and drained.
func (m *Mailbox) Receive() (cmd Command, ok bool) {
	cmd, ok = <-m.ch
	return cmd, ok
}

// Len returns the number of queued commands.
func (m *Mailbox) Len() int {
	return len(m.ch)
}
