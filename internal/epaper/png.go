package epaper

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"

	"busmonitor.dev/internal/logging"
)

// PNGPanel writes frames to a PNG file. A completely white frame, like the
// one drawn before sleeping, does not replace the last picture.
type PNGPanel struct {
	path   string
	bounds image.Rectangle
	logger *slog.Logger
	writes int
}

func NewPNGPanel(path string, width, height int, logger *slog.Logger) *PNGPanel {
	if logger == nil {
		logger = slog.Default()
	}
	return &PNGPanel{
		path:   path,
		bounds: image.Rect(0, 0, width, height),
		logger: logger.With(slog.String("component", "png_panel")),
	}
}

func (p *PNGPanel) Bounds() image.Rectangle { return p.bounds }

func (p *PNGPanel) Init() error { return nil }

func (p *PNGPanel) Sleep() error { return nil }

// Writes returns how many frames were written to disk.
func (p *PNGPanel) Writes() int { return p.writes }

func (p *PNGPanel) Draw(_ image.Rectangle, src image.Image, _ image.Point) (err error) {
	if isBlank(src) {
		p.logger.Debug("skipping blank frame", slog.String("path", p.path))
		return nil
	}

	f, err := os.Create(p.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", p.path, err)
	}
	defer logging.HandleDeferredError(&err, f.Close, p.logger, "png_file_close")

	if err := png.Encode(f, src); err != nil {
		return fmt.Errorf("encode %s: %w", p.path, err)
	}
	p.writes++
	logging.LogOperation(p.logger, "png_frame_written", slog.String("path", p.path))
	return nil
}

func isBlank(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y < 0x80 {
				return false
			}
		}
	}
	return true
}
