// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package panel renders temperature and humidity readings into images, for
// displays implementing display.Drawer or for files.
package panel

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/physic"
)

// Range of the gauge, matching the sensor's measurement span.
const (
	MinTemperature = physic.ZeroCelsius - 40*physic.Celsius
	MaxTemperature = physic.ZeroCelsius + 125*physic.Celsius
)

var (
	offColor      = color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}
	humidityColor = color.NRGBA{R: 0x20, G: 0x60, B: 0xFF, A: 0xFF}
	coldColor     = color.NRGBA{R: 0x20, G: 0xA0, B: 0xFF, A: 0xFF}
	hotColor      = color.NRGBA{R: 0xFF, G: 0x30, B: 0x10, A: 0xFF}
)

var (
	fontOnce sync.Once
	goFont   *truetype.Font
	fontErr  error
)

// Strip returns a one pixel high gauge of width pixels. The left half shows
// the humidity, the right half the temperature within the sensor's span.
func Strip(e physic.Env, width int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, 1))
	half := width / 2
	h := fraction(float64(e.Humidity), 0, float64(100*physic.PercentRH))
	fill(img, 0, half, h, humidityColor)
	t := fraction(float64(e.Temperature), float64(MinTemperature), float64(MaxTemperature))
	fill(img, half, width, t, lerp(coldColor, hotColor, t))
	return img
}

// Render draws the reading as text on a white w×h card. The caption is
// printed small at the bottom and may be empty.
func Render(e physic.Env, caption string, w, h int) (image.Image, error) {
	big, err := face(float64(h) / 4)
	if err != nil {
		return nil, err
	}
	small, err := face(float64(h) / 8)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(big)
	x := float64(w) / 2
	dc.DrawStringAnchored(fmt.Sprintf("%.1f°C", e.Temperature.Celsius()), x, float64(h)*0.25, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f%%RH", float64(e.Humidity)/float64(physic.PercentRH)), x, float64(h)*0.55, 0.5, 0.5)
	if caption != "" {
		dc.SetFontFace(small)
		dc.DrawStringAnchored(caption, x, float64(h)*0.85, 0.5, 0.5)
	}
	return dc.Image(), nil
}

// SavePNG renders the reading like Render and writes it to path.
func SavePNG(path string, e physic.Env, caption string, w, h int) error {
	img, err := Render(e, caption, w, h)
	if err != nil {
		return err
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("panel: %w", err)
	}
	return nil
}

func face(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		goFont, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("panel: %w", fontErr)
	}
	return truetype.NewFace(goFont, &truetype.Options{Size: size}), nil
}

// fill lights the first f fraction of pixels in [x0, x1) with c.
func fill(img *image.NRGBA, x0, x1 int, f float64, c color.NRGBA) {
	lit := x0 + int(math.Round(f*float64(x1-x0)))
	for x := x0; x < x1; x++ {
		if x < lit {
			img.SetNRGBA(x, 0, c)
		} else {
			img.SetNRGBA(x, 0, offColor)
		}
	}
}

func fraction(v, lo, hi float64) float64 {
	return math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
}

func lerp(a, b color.NRGBA, f float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xFF}
}
