package display

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
)

type textCall struct {
	Pt    image.Point
	Text  string
	Style TextStyle
}

// fakeSurface records every call. Ops are short strings such as "clear",
// "text", "image", "line", "flush:quick", "flush:full", "sleep".
type fakeSurface struct {
	mu      sync.Mutex
	bounds  image.Rectangle
	ops     []string
	texts   []textCall
	images  []image.Point
	lines   [][2]image.Point
	inits   int
	failOn  string
	panicOn string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{bounds: image.Rect(0, 0, 480, 280)}
}

func (f *fakeSurface) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
	if f.panicOn != "" && op == f.panicOn {
		panic("surface exploded on " + op)
	}
	if f.failOn != "" && op == f.failOn {
		return errors.New("surface failed on " + op)
	}
	return nil
}

func (f *fakeSurface) Bounds() image.Rectangle { return f.bounds }

func (f *fakeSurface) Init() error {
	f.mu.Lock()
	f.inits++
	f.mu.Unlock()
	if f.panicOn == "init" {
		panic("surface exploded on init")
	}
	return nil
}

func (f *fakeSurface) Clear(color.Color) error { return f.record("clear") }

func (f *fakeSurface) DrawText(pt image.Point, text string, style TextStyle) error {
	f.mu.Lock()
	f.texts = append(f.texts, textCall{Pt: pt, Text: text, Style: style})
	f.mu.Unlock()
	return f.record("text")
}

func (f *fakeSurface) DrawImage(pt image.Point, _ image.Image) error {
	f.mu.Lock()
	f.images = append(f.images, pt)
	f.mu.Unlock()
	return f.record("image")
}

func (f *fakeSurface) DrawLine(from, to image.Point, _ LineStyle) error {
	f.mu.Lock()
	f.lines = append(f.lines, [2]image.Point{from, to})
	f.mu.Unlock()
	return f.record("line")
}

func (f *fakeSurface) Flush(mode RefreshMode) error { return f.record(fmt.Sprintf("flush:%s", mode)) }

func (f *fakeSurface) Sleep() error { return f.record("sleep") }

func (f *fakeSurface) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops, f.texts, f.images, f.lines = nil, nil, nil, nil
}

func (f *fakeSurface) opsSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *fakeSurface) count(op string) int {
	n := 0
	for _, o := range f.opsSnapshot() {
		if o == op {
			n++
		}
	}
	return n
}

func (f *fakeSurface) textsContaining(sub string) []textCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []textCall
	for _, t := range f.texts {
		if strings.Contains(t.Text, sub) {
			out = append(out, t)
		}
	}
	return out
}
