// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen1d implements a one row display.Drawer that outputs to a
// terminal using ANSI color codes.
//
// It is used as a gauge for sensor readings: every pixel becomes a colored
// block and an optional text label is printed after the row. The row is
// redrawn in place on every update.
package screen1d

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	// X is the number of blocks in the row.
	X       int
	Palette *ansi256.Palette
	// W is where the row is written. Defaults to a color capable stdout.
	W io.Writer

	_ struct{}
}

// Dev is a single row of colored blocks in the console.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette
	pixels  []color.NRGBA
	label   string
	buf     bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.X <= 0 {
		return nil, errors.New("screen1d: width must be positive")
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{w: w, palette: *p, pixels: make([]color.NRGBA, opts.X)}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("Screen1D{%d}", len(d.pixels))
}

// SetLabel sets the text printed after the row on the next refresh.
func (d *Dev) SetLabel(s string) {
	d.label = s
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes and moves to the next line.
func (d *Dev) Halt() error {
	_, err := io.WriteString(d.w, "\033[0m\n")
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, len(d.pixels), 1)
}

// Draw implements display.Drawer.
//
// Only the first row of r is used.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	if r.Empty() {
		return nil
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		d.pixels[x] = color.NRGBAModel.Convert(src.At(sp.X+x-r.Min.X, sp.Y)).(color.NRGBA)
	}
	return d.refresh()
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for _, c := range d.pixels {
		c.A = 255
		_, _ = d.buf.WriteString(d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, _ = d.buf.WriteString(d.label)
	// Clear leftovers of a longer previous label.
	_, _ = d.buf.WriteString("\033[K")
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
