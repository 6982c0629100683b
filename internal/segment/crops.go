package segment

import (
	"gonum.org/v1/gonum/stat"

	"tissue-segmenter/internal/container"
	"tissue-segmenter/pkg/geometry"
)

// DefaultCropSize is the square crop size used by SegmentCrops when the
// caller does not specify one.
const DefaultCropSize = 100

// SegmentCrops bridges back from a finished segmentation to image sampling:
// for every segment in the mask stored under maskKey it computes the
// segment's centroid and returns a width x height crop of the layer stored
// under srcKey centered on it. Crops come back in ascending label order, one
// per distinct positive label. Centered crops reaching past the image border
// are zero-padded.
func SegmentCrops(img *container.Container, srcKey, maskKey string, width, height int) ([]*container.Crop, error) {
	labels, err := img.Labels(maskKey)
	if err != nil {
		return nil, err
	}
	if width == 0 {
		width = DefaultCropSize
	}
	if height == 0 {
		height = DefaultCropSize
	}

	// One pass over the mask collecting pixel coordinates per label.
	rowsByLabel := make(map[int32][]float64)
	colsByLabel := make(map[int32][]float64)
	for y := 0; y < labels.Height; y++ {
		for x := 0; x < labels.Width; x++ {
			v := labels.At(x, y)
			if v <= 0 {
				continue
			}
			rowsByLabel[v] = append(rowsByLabel[v], float64(y))
			colsByLabel[v] = append(colsByLabel[v], float64(x))
		}
	}

	var crops []*container.Crop
	for _, label := range labels.Distinct() {
		center := geometry.Point2D{
			X: stat.Mean(colsByLabel[label], nil),
			Y: stat.Mean(rowsByLabel[label], nil),
		}.Round()
		crop, err := img.CropCenter(center.X, center.Y, width, height, srcKey)
		if err != nil {
			return nil, err
		}
		crops = append(crops, crop)
	}
	return crops, nil
}
