// Package epaper renders the display layout into a 1-bit frame buffer and
// hands finished frames to a panel: the Waveshare HAT, a PNG file or the
// browser preview.
package epaper

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"busmonitor.dev/internal/display"
	"busmonitor.dev/internal/logging"
)

// Panel receives whole frames. Init brings the panel up with its full
// waveform and is called again before every full refresh.
type Panel interface {
	Bounds() image.Rectangle
	Init() error
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Sleep() error
}

// Canvas is a display.Surface backed by an in-memory 1-bit frame buffer.
// Only Flush talks to the panel.
type Canvas struct {
	panel  Panel
	buf    *image1bit.VerticalLSB
	face   font.Face
	logger *slog.Logger
	frames int
}

// NewCanvas returns a white canvas of the panel's size.
func NewCanvas(panel Panel, logger *slog.Logger) *Canvas {
	if logger == nil {
		logger = slog.Default()
	}
	b := panel.Bounds()
	c := &Canvas{
		panel:  panel,
		buf:    image1bit.NewVerticalLSB(image.Rect(0, 0, b.Dx(), b.Dy())),
		face:   basicfont.Face7x13,
		logger: logger.With(slog.String("component", "canvas")),
	}
	_ = c.Clear(color.White)
	return c
}

func (c *Canvas) Bounds() image.Rectangle {
	return c.buf.Bounds()
}

// Frame returns the frame buffer. It is only safe to read from the
// goroutine that draws.
func (c *Canvas) Frame() image.Image {
	return c.buf
}

func (c *Canvas) Init() error {
	if err := c.panel.Init(); err != nil {
		return fmt.Errorf("init panel: %w", err)
	}
	return nil
}

func (c *Canvas) Clear(col color.Color) error {
	draw.Draw(c.buf, c.buf.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
	return nil
}

func (c *Canvas) DrawText(pt image.Point, text string, style display.TextStyle) error {
	if text == "" {
		return nil
	}
	fg := style.Color
	if fg == nil {
		fg = color.Black
	}

	if style.Background != nil {
		m := c.face.Metrics()
		width := font.MeasureString(c.face, text).Ceil()
		box := image.Rect(pt.X, pt.Y-m.Ascent.Ceil(), pt.X+width, pt.Y+m.Descent.Ceil())
		draw.Draw(c.buf, box, image.NewUniform(style.Background), image.Point{}, draw.Src)
	}

	d := font.Drawer{
		Dst:  c.buf,
		Src:  image.NewUniform(fg),
		Face: c.face,
		Dot:  fixed.P(pt.X, pt.Y),
	}
	d.DrawString(text)
	return nil
}

func (c *Canvas) DrawImage(pt image.Point, img image.Image) error {
	if img == nil {
		return fmt.Errorf("draw image at %v: nil image", pt)
	}
	b := img.Bounds()
	draw.Draw(c.buf, image.Rectangle{Min: pt, Max: pt.Add(b.Size())}, img, b.Min, draw.Over)
	return nil
}

func (c *Canvas) DrawLine(from, to image.Point, style display.LineStyle) error {
	col := style.Color
	if col == nil {
		col = color.Black
	}
	width := style.Width
	if width < 1 {
		width = 1
	}

	// Thicken away from the line along the minor axis.
	horizontal := abs(to.X-from.X) >= abs(to.Y-from.Y)
	for i := 0; i < width; i++ {
		off := image.Pt(0, i)
		if !horizontal {
			off = image.Pt(i, 0)
		}
		line(c.buf, from.Add(off), to.Add(off), col)
	}
	return nil
}

// Flush sends the frame to the panel. A full refresh re-initialises the
// panel first so the slow waveform clears any ghosting.
func (c *Canvas) Flush(mode display.RefreshMode) error {
	if mode == display.RefreshFull {
		if err := c.panel.Init(); err != nil {
			return fmt.Errorf("full refresh init: %w", err)
		}
	}
	if err := c.panel.Draw(c.panel.Bounds(), c.buf, image.Point{}); err != nil {
		return fmt.Errorf("draw frame: %w", err)
	}
	c.frames++
	logging.LogOperation(c.logger, "frame_flushed",
		slog.String("mode", mode.String()),
		slog.Int("frame", c.frames))
	return nil
}

func (c *Canvas) Sleep() error {
	if err := c.panel.Sleep(); err != nil {
		return fmt.Errorf("sleep panel: %w", err)
	}
	return nil
}

// line draws a one pixel Bresenham line, clipped to img.
func line(img draw.Image, p0, p1 image.Point, col color.Color) {
	x0, y0, x1, y1 := p0.X, p0.Y, p1.X, p1.Y
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	bounds := img.Bounds()
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(bounds) {
			img.Set(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
