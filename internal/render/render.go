// Package render turns label masks into viewable and storable images.
package render

import (
	"fmt"
	"image"
	"image/color"

	"tissue-segmenter/internal/container"
	"tissue-segmenter/pkg/colorutil"
)

// MaskImage renders a label array with one deterministic distinct color per
// segment on a black background.
func MaskImage(labels *container.LabelArray) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, labels.Width, labels.Height))
	for y := 0; y < labels.Height; y++ {
		for x := 0; x < labels.Width; x++ {
			v := labels.At(x, y)
			if v <= 0 {
				img.SetRGBA(x, y, colorutil.Black)
				continue
			}
			img.SetRGBA(x, y, colorutil.LabelColor(v))
		}
	}
	return img
}

// Overlay blends segment colors over the grayscale rendering of a source
// layer. Background pixels show the source unchanged; segment pixels mix the
// label color in at the given alpha (0..1).
func Overlay(src *container.Layer, labels *container.LabelArray, alpha float64) (*image.RGBA, error) {
	if src.Width != labels.Width || src.Height != labels.Height {
		return nil, fmt.Errorf("source %dx%d and mask %dx%d shapes differ",
			src.Width, src.Height, labels.Width, labels.Height)
	}
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}

	gray := src.Gray()
	img := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			g := gray[y*src.Width+x]
			if g < 0 {
				g = 0
			}
			if g > 1 {
				g = 1
			}
			base := float64(g) * 255

			v := labels.At(x, y)
			if v <= 0 {
				b := uint8(base)
				img.SetRGBA(x, y, color.RGBA{R: b, G: b, B: b, A: 255})
				continue
			}
			c := colorutil.LabelColor(v)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(float64(c.R)*alpha + base*(1-alpha)),
				G: uint8(float64(c.G)*alpha + base*(1-alpha)),
				B: uint8(float64(c.B)*alpha + base*(1-alpha)),
				A: 255,
			})
		}
	}
	return img, nil
}

// LayerImage renders a layer as an RGBA image: three-channel layers map to
// RGB, anything else to the grayscale channel mean. Values are clamped to
// [0, 1].
func LayerImage(l *container.Layer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	clamp := func(v float32) uint8 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 255
		}
		return uint8(v * 255)
	}
	if l.Channels == 3 {
		for y := 0; y < l.Height; y++ {
			for x := 0; x < l.Width; x++ {
				img.SetRGBA(x, y, color.RGBA{
					R: clamp(l.At(0, x, y)),
					G: clamp(l.At(1, x, y)),
					B: clamp(l.At(2, x, y)),
					A: 255,
				})
			}
		}
		return img
	}
	gray := l.Gray()
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			g := clamp(gray[y*l.Width+x])
			img.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return img
}

// MaskGray16 encodes a label array as a 16-bit grayscale image, one label
// value per pixel. Lossless for up to 65535 segments; the counterpart of
// LabelsFromGray16 for mask files written by the CLI tools.
func MaskGray16(labels *container.LabelArray) (*image.Gray16, error) {
	if max := labels.Max(); max > 65535 {
		return nil, fmt.Errorf("mask has %d segments, more than Gray16 can encode", max)
	}
	img := image.NewGray16(image.Rect(0, 0, labels.Width, labels.Height))
	for y := 0; y < labels.Height; y++ {
		for x := 0; x < labels.Width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(labels.At(x, y))})
		}
	}
	return img, nil
}

// LabelsFromGray16 decodes a label array from a 16-bit grayscale image.
func LabelsFromGray16(img image.Image) *container.LabelArray {
	bounds := img.Bounds()
	out := container.NewLabelArray(bounds.Dx(), bounds.Dy())
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.Set(x, y, int32(r))
		}
	}
	return out
}
