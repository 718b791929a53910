package epaper

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busmonitor.dev/internal/display"
)

func TestPNGPanel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	panel := NewPNGPanel(path, 48, 24, discardLogger())
	c := NewCanvas(panel, discardLogger())

	t.Run("blank frame is skipped", func(t *testing.T) {
		require.NoError(t, c.Flush(display.RefreshQuick))
		assert.Equal(t, 0, panel.Writes())
		assert.NoFileExists(t, path)
	})

	t.Run("drawn frame is written", func(t *testing.T) {
		require.NoError(t, c.DrawText(image.Pt(0, 13), "31", display.TextStyle{Color: color.Black}))
		require.NoError(t, c.Flush(display.RefreshQuick))
		assert.Equal(t, 1, panel.Writes())

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		img, err := png.Decode(f)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 48, 24), img.Bounds())
		assert.Positive(t, countInk(img, img.Bounds()))
	})

	t.Run("white shutdown frame keeps the last picture", func(t *testing.T) {
		require.NoError(t, c.Clear(color.White))
		require.NoError(t, c.Flush(display.RefreshFull))
		assert.Equal(t, 1, panel.Writes())
	})

	t.Run("unwritable path", func(t *testing.T) {
		bad := NewPNGPanel(filepath.Join(t.TempDir(), "missing", "frame.png"), 8, 8, discardLogger())
		frame := image.NewGray(image.Rect(0, 0, 8, 8))
		assert.Error(t, bad.Draw(bad.Bounds(), frame, image.Point{}))
	})
}
