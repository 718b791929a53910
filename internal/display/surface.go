package display

import (
	"image"
	"image/color"
)

// RefreshMode selects the panel waveform used by Flush.
type RefreshMode int

const (
	// RefreshQuick is the fast partial waveform used for regular updates.
	RefreshQuick RefreshMode = iota
	// RefreshFull is the slow waveform that removes ghosting.
	RefreshFull
)

func (m RefreshMode) String() string {
	switch m {
	case RefreshQuick:
		return "quick"
	case RefreshFull:
		return "full"
	default:
		return "unknown"
	}
}

// TextStyle describes how DrawText renders glyphs. A nil Background leaves
// the pixels behind the glyphs untouched.
type TextStyle struct {
	Color      color.Color
	Background color.Color
}

type LineStyle struct {
	Color color.Color
	Width int
}

// Surface is the drawing target of the actor. Text is positioned by the
// left end of its baseline. Drawing only touches the frame buffer; nothing
// reaches the panel before Flush.
type Surface interface {
	Bounds() image.Rectangle
	Clear(c color.Color) error
	DrawText(pt image.Point, text string, style TextStyle) error
	DrawImage(pt image.Point, img image.Image) error
	DrawLine(from, to image.Point, style LineStyle) error
	Flush(mode RefreshMode) error
	Sleep() error
}

// Initializer is implemented by surfaces that need one-time bring-up
// before the first draw.
type Initializer interface {
	Init() error
}
