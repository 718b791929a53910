// Package webui serves a browser preview of the panel: the last flushed
// frame as PNG, a status document, a debug dump and a websocket that
// announces every new frame.
package webui

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"
	"time"

	"busmonitor.dev/internal/logging"
)

// Status describes the preview panel.
type Status struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Frames    int       `json:"frames"`
	Asleep    bool      `json:"asleep"`
	UpdatedAt time.Time `json:"updatedAt"`
	Clients   int       `json:"clients"`
}

// Preview is a panel that lives in memory. It satisfies epaper.Panel.
type Preview struct {
	bounds  image.Rectangle
	logger  *slog.Logger
	hub     *hub
	apiKeys []string

	mu        sync.RWMutex
	frame     []byte
	frames    int
	asleep    bool
	updatedAt time.Time
	debug     map[string]func() any
}

func NewPreview(width, height int, logger *slog.Logger) *Preview {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "preview"))
	return &Preview{
		bounds: image.Rect(0, 0, width, height),
		logger: logger,
		hub:    newHub(logger),
		debug:  map[string]func() any{},
	}
}

// RequireAPIKeys restricts the preview to requests carrying one of keys in
// the "key" query parameter. Call it before Handler.
func (p *Preview) RequireAPIKeys(keys []string) {
	p.apiKeys = keys
}

func (p *Preview) Bounds() image.Rectangle { return p.bounds }

func (p *Preview) Init() error {
	p.mu.Lock()
	p.asleep = false
	p.mu.Unlock()
	return nil
}

// Draw stores src as the current frame and notifies websocket clients.
func (p *Preview) Draw(_ image.Rectangle, src image.Image, _ image.Point) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return fmt.Errorf("encode preview frame: %w", err)
	}

	p.mu.Lock()
	p.frame = buf.Bytes()
	p.frames++
	p.updatedAt = time.Now()
	event := frameEvent{Type: eventFrame, Frame: p.frames, At: p.updatedAt}
	p.mu.Unlock()

	p.hub.broadcast(event)
	return nil
}

func (p *Preview) Sleep() error {
	p.mu.Lock()
	p.asleep = true
	event := frameEvent{Type: eventSleep, Frame: p.frames, At: time.Now()}
	p.mu.Unlock()

	p.hub.broadcast(event)
	logging.LogOperation(p.logger, "preview_asleep", slog.Int("frames", event.Frame))
	return nil
}

// Frame returns the PNG of the last frame, or nil before the first one.
func (p *Preview) Frame() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.frame
}

func (p *Preview) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Status{
		Width:     p.bounds.Dx(),
		Height:    p.bounds.Dy(),
		Frames:    p.frames,
		Asleep:    p.asleep,
		UpdatedAt: p.updatedAt,
		Clients:   p.hub.count(),
	}
}

// AddDebugData makes fn's result available at /debug/?dataType=name.
func (p *Preview) AddDebugData(name string, fn func() any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.debug[name] = fn
}

func (p *Preview) debugData(name string) (func() any, []string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.debug))
	for n := range p.debug {
		names = append(names, n)
	}
	return p.debug[name], names
}
