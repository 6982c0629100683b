package segment

import (
	"gocv.io/x/gocv"

	"tissue-segmenter/internal/container"
)

// WatershedModel splits touching, roughly-convex objects that a plain
// threshold would merge. Two stages: seeds are derived from the geometry of
// the foreground mask (distance-to-background maxima), then regions grow from
// the seeds along intensity gradients, constrained to the mask.
type WatershedModel struct {
	thresh float64
	geq    bool
}

// NewWatershedModel creates a watershed backend. Pixels >= params.Thresh
// (when params.Geq) or < params.Thresh (otherwise) form the foreground mask.
func NewWatershedModel(params Params) *WatershedModel {
	return &WatershedModel{thresh: params.Thresh, geq: params.Geq}
}

// Segment implements the Model interface.
func (m *WatershedModel) Segment(plane *container.Layer) (*container.LabelArray, error) {
	w, h := plane.Width, plane.Height
	gray := grayPlane(plane)

	// Binarize into the foreground mask.
	mask := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	defer mask.Close()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := gray[y*w+x]
			if (m.geq && v >= m.thresh) || (!m.geq && v < m.thresh) {
				mask.SetUCharAt(y, x, 255)
			}
		}
	}

	// Distance of every foreground pixel to the nearest background pixel.
	// Its local maxima sit at the centers of the objects.
	dist := gocv.NewMat()
	defer dist.Close()
	distLabels := gocv.NewMat()
	defer distLabels.Close()
	gocv.DistanceTransform(mask, &dist, &distLabels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)

	// Seed markers: connected 5x5-neighborhood maxima of the distance map,
	// restricted to the foreground. Labels come out dense, 1..n.
	peaks := localMaxima(dist, 5, &mask)
	defer peaks.Close()

	markers := gocv.NewMat()
	defer markers.Close()
	n := gocv.ConnectedComponents(peaks, &markers)

	// Claim the background with its own marker so the flood cannot leak
	// out of the mask; unknown (0) pixels inside the mask get flooded.
	background := int32(n)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.GetUCharAt(y, x) == 0 {
				markers.SetIntAt(y, x, background)
			}
		}
	}

	// Grow regions from the seeds over the inverted intensity surface:
	// bright object cores flood first, boundaries settle in the valleys.
	surface := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	defer surface.Close()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			surface.SetUCharAt(y, x, uint8(255-int(gray[y*w+x]*255+0.5)))
		}
	}
	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(surface, &bgr, gocv.ColorGrayToBGR)

	gocv.Watershed(bgr, &markers)

	return labelsFromMarkers(markers, background), nil
}
