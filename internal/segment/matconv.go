package segment

import (
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"

	"tissue-segmenter/internal/container"
)

// grayPlane collapses a plane to one grayscale channel, min-max scaled to
// [0, 1] so thresholds and blob responses are comparable across inputs.
// A constant image maps to all zeros.
func grayPlane(plane *container.Layer) []float64 {
	gray := plane.Gray()
	out := make([]float64, len(gray))
	for i, v := range gray {
		out[i] = float64(v)
	}
	lo := floats.Min(out)
	hi := floats.Max(out)
	if hi > lo {
		scale := 1 / (hi - lo)
		for i := range out {
			out[i] = (out[i] - lo) * scale
		}
	} else {
		for i := range out {
			out[i] = 0
		}
	}
	return out
}

// matFromGray builds a CV32F Mat from a row-major grayscale slice.
func matFromGray(gray []float64, width, height int) gocv.Mat {
	m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV32F)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.SetFloatAt(y, x, float32(gray[y*width+x]))
		}
	}
	return m
}

// localMaxima marks pixels that carry the maximum value of their ksize x
// ksize neighborhood, using the dilate-equality trick: a pixel is a peak iff
// its value equals the dilated value. Only pixels with src > 0 and, when
// within is non-nil, within != 0 qualify. Returns a CV8U mask (255 = peak).
func localMaxima(src gocv.Mat, ksize int, within *gocv.Mat) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: ksize, Y: ksize})
	defer kernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(src, &dilated, kernel)

	rows, cols := src.Rows(), src.Cols()
	peaks := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if within != nil && within.GetUCharAt(y, x) == 0 {
				continue
			}
			v := src.GetFloatAt(y, x)
			if v <= 0 || v < dilated.GetFloatAt(y, x) {
				continue
			}
			peaks.SetUCharAt(y, x, 255)
		}
	}
	return peaks
}

// labelsFromMarkers converts a CV32S marker Mat to a label array, mapping
// every value of drop (the background marker) and the watershed boundary
// value -1 to background.
func labelsFromMarkers(markers gocv.Mat, drop int32) *container.LabelArray {
	rows, cols := markers.Rows(), markers.Cols()
	out := container.NewLabelArray(cols, rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := markers.GetIntAt(y, x)
			if v < 0 || v == drop {
				continue
			}
			out.Set(x, y, v)
		}
	}
	return out
}
