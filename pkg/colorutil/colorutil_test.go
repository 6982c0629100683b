package colorutil

import (
	"image/color"
	"testing"
)

func TestLabelColorBackground(t *testing.T) {
	if got := LabelColor(0); got != (color.RGBA{}) {
		t.Errorf("LabelColor(0) = %v, want zero color", got)
	}
	if got := LabelColor(-1); got != (color.RGBA{}) {
		t.Errorf("LabelColor(-1) = %v, want zero color", got)
	}
}

func TestLabelColorDeterministic(t *testing.T) {
	if LabelColor(5) != LabelColor(5) {
		t.Error("LabelColor is not deterministic")
	}
	if LabelColor(1) == LabelColor(2) {
		t.Error("Consecutive labels share a color")
	}
}

func TestHSVToRGBPrimaries(t *testing.T) {
	cases := []struct {
		h       float64
		r, g, b uint8
	}{
		{0, 255, 0, 0},
		{120, 0, 255, 0},
		{240, 0, 0, 255},
	}
	for _, tc := range cases {
		r, g, b := HSVToRGB(tc.h, 1, 1)
		if r != tc.r || g != tc.g || b != tc.b {
			t.Errorf("HSVToRGB(%v, 1, 1) = (%d,%d,%d), want (%d,%d,%d)", tc.h, r, g, b, tc.r, tc.g, tc.b)
		}
	}
}
