package epaper

import (
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// landscape returns the size of r with the long edge horizontal.
func landscape(r image.Rectangle) image.Rectangle {
	if r.Dy() > r.Dx() {
		return image.Rect(0, 0, r.Dy(), r.Dx())
	}
	return image.Rect(0, 0, r.Dx(), r.Dy())
}

// toPortrait turns a landscape frame a quarter turn so that it fills a
// portrait panel of size dst: the landscape top edge ends up on the
// portrait right edge.
func toPortrait(src image.Image, dst image.Rectangle) *image1bit.VerticalLSB {
	out := image1bit.NewVerticalLSB(dst)
	draw.Draw(out, dst, image.NewUniform(color.White), image.Point{}, draw.Src)
	sb := src.Bounds()
	w, h := dst.Dx(), dst.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := sb.Min.X + y
			sy := sb.Min.Y + w - 1 - x
			if image.Pt(sx, sy).In(sb) {
				out.Set(dst.Min.X+x, dst.Min.Y+y, src.At(sx, sy))
			}
		}
	}
	return out
}

// cropTo copies the top-left part of src that fits in dst onto a white
// frame of size dst.
func cropTo(src image.Image, dst image.Rectangle) *image1bit.VerticalLSB {
	out := image1bit.NewVerticalLSB(dst)
	draw.Draw(out, dst, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, dst, src, src.Bounds().Min, draw.Src)
	return out
}
