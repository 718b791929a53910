package epaper

import (
	"fmt"
	"image"
	"log/slog"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/waveshare2in13v4"
	"periph.io/x/host/v3"

	"busmonitor.dev/internal/logging"
)

// Waveshare drives a Waveshare 2.13" e-paper HAT over SPI. The HAT is
// mounted in portrait; frames arrive in landscape and are turned before
// they are sent.
type Waveshare struct {
	port   spi.PortCloser
	dev    *waveshare2in13v4.Dev
	frame  image.Rectangle
	logger *slog.Logger
}

// OpenWaveshare initialises the host drivers and opens the HAT on the
// named SPI port. An empty name picks the first port. The canvas is
// width x height; zero keeps the panel's own size. Larger frames are
// cropped to the panel from their top-left corner.
func OpenWaveshare(portName string, width, height int, logger *slog.Logger) (*Waveshare, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", portName, err)
	}

	opts := waveshare2in13v4.EPD2in13v4
	dev, err := waveshare2in13v4.NewHat(port, &opts)
	if err != nil {
		logging.SafeCloseWithLogging(port, logger, "spi_port_close")
		return nil, fmt.Errorf("open waveshare hat: %w", err)
	}

	frame := frameBounds(dev.Bounds(), width, height)
	logging.LogOperation(logger, "waveshare_opened",
		slog.String("port", portName),
		slog.String("bounds", dev.Bounds().String()),
		slog.String("frame", frame.String()))

	return &Waveshare{port: port, dev: dev, frame: frame, logger: logger}, nil
}

// frameBounds is the canvas size for a panel of native size: the
// configured size when both sides are set, the landscape panel otherwise.
func frameBounds(native image.Rectangle, width, height int) image.Rectangle {
	if width > 0 && height > 0 {
		return image.Rect(0, 0, width, height)
	}
	return landscape(native)
}

// Bounds is the landscape size the canvas draws at.
func (w *Waveshare) Bounds() image.Rectangle {
	return w.frame
}

func (w *Waveshare) Init() error {
	return w.dev.Init()
}

func (w *Waveshare) Draw(_ image.Rectangle, src image.Image, _ image.Point) error {
	native := w.dev.Bounds()
	return w.dev.Draw(native, panelFrame(src, native), image.Point{})
}

func (w *Waveshare) Sleep() error {
	return w.dev.Sleep()
}

// Close halts the HAT and releases the SPI port.
func (w *Waveshare) Close() error {
	if err := w.dev.Halt(); err != nil {
		logging.LogError(w.logger, "halt waveshare hat", err)
	}
	return w.port.Close()
}

// panelFrame fits a landscape frame to a panel of native size, turning it
// for portrait panels and cropping whatever does not fit.
func panelFrame(src image.Image, native image.Rectangle) image.Image {
	if native.Dy() > native.Dx() {
		return toPortrait(src, native)
	}
	return cropTo(src, native)
}
