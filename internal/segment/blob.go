package segment

import (
	"fmt"
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"

	"tissue-segmenter/internal/container"
)

// Blob detection methods.
const (
	BlobLoG = "log" // Laplacian of Gaussian
	BlobDoG = "dog" // difference of Gaussians
	BlobDoH = "doh" // determinant of Hessian
)

// dogRatio is the sigma ratio between the two Gaussians of the DoG response.
const dogRatio = 1.6

// BlobModel detects roughly circular regions across a range of scales and
// rasterizes each detection as one labeled disk.
type BlobModel struct {
	method    string
	invert    bool
	minSigma  float64
	maxSigma  float64
	numSigma  int
	threshold float64
}

// NewBlobModel creates a blob backend for the given method ("log", "dog" or
// "doh"). The method is validated when Segment runs, matching where the
// selector is first needed; an unknown name fails before any detection work.
func NewBlobModel(method string, params Params) *BlobModel {
	return &BlobModel{
		method:    method,
		invert:    params.Invert,
		minSigma:  params.MinSigma,
		maxSigma:  params.MaxSigma,
		numSigma:  params.NumSigma,
		threshold: params.BlobThreshold,
	}
}

type blobHit struct {
	x, y   int
	radius float64
	resp   float32
}

// Segment implements the Model interface.
func (m *BlobModel) Segment(plane *container.Layer) (*container.LabelArray, error) {
	switch m.method {
	case BlobLoG, BlobDoG, BlobDoH:
	default:
		return nil, fmt.Errorf("unrecognized blob method %q", m.method)
	}

	gray := grayPlane(plane)
	if m.invert {
		// Blob responses peak on bright blobs against dark background;
		// nuclei stains are usually the inverse.
		for i, v := range gray {
			gray[i] = 1 - v
		}
	}
	src := matFromGray(gray, plane.Width, plane.Height)
	defer src.Close()

	var sigmas []float64
	if m.numSigma < 2 {
		sigmas = []float64{m.minSigma}
	} else {
		sigmas = make([]float64, m.numSigma)
		floats.Span(sigmas, m.minSigma, m.maxSigma)
	}

	var hits []blobHit
	for _, sigma := range sigmas {
		resp := m.response(src, sigma)

		ksize := 2*int(math.Ceil(sigma)) + 1
		peaks := localMaxima(resp, ksize, nil)

		rows, cols := resp.Rows(), resp.Cols()
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				if peaks.GetUCharAt(y, x) == 0 {
					continue
				}
				v := resp.GetFloatAt(y, x)
				if float64(v) < m.threshold {
					continue
				}
				hits = append(hits, blobHit{x: x, y: y, radius: sigma * math.Sqrt2, resp: v})
			}
		}
		peaks.Close()
		resp.Close()
	}

	return rasterizeBlobs(hits, plane.Width, plane.Height), nil
}

// response computes the scale-normalized blob response at one sigma.
func (m *BlobModel) response(src gocv.Mat, sigma float64) gocv.Mat {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(src, &blurred, image.Point{}, sigma, sigma, gocv.BorderDefault)

	resp := gocv.NewMat()
	switch m.method {
	case BlobLoG:
		// Bright blobs give a negative Laplacian; flip the sign and
		// scale-normalize so maxima mark blob centers.
		gocv.Laplacian(blurred, &resp, gocv.MatTypeCV32F, 1, 1, 0, gocv.BorderDefault)
		resp.MultiplyFloat(float32(-sigma * sigma))

	case BlobDoG:
		wider := gocv.NewMat()
		defer wider.Close()
		gocv.GaussianBlur(src, &wider, image.Point{}, sigma*dogRatio, sigma*dogRatio, gocv.BorderDefault)
		gocv.Subtract(blurred, wider, &resp)
		resp.MultiplyFloat(float32(sigma / (dogRatio - 1)))

	case BlobDoH:
		dxx := gocv.NewMat()
		defer dxx.Close()
		dyy := gocv.NewMat()
		defer dyy.Close()
		dxy := gocv.NewMat()
		defer dxy.Close()
		gocv.Sobel(blurred, &dxx, gocv.MatTypeCV32F, 2, 0, 3, 1, 0, gocv.BorderDefault)
		gocv.Sobel(blurred, &dyy, gocv.MatTypeCV32F, 0, 2, 3, 1, 0, gocv.BorderDefault)
		gocv.Sobel(blurred, &dxy, gocv.MatTypeCV32F, 1, 1, 3, 1, 0, gocv.BorderDefault)

		hxxHyy := gocv.NewMat()
		defer hxxHyy.Close()
		hxySq := gocv.NewMat()
		defer hxySq.Close()
		gocv.Multiply(dxx, dyy, &hxxHyy)
		gocv.Multiply(dxy, dxy, &hxySq)
		gocv.Subtract(hxxHyy, hxySq, &resp)
		resp.MultiplyFloat(float32(sigma * sigma * sigma * sigma))
	}
	return resp
}

// rasterizeBlobs deduplicates overlapping detections (strongest response
// wins) and paints the survivors as filled disks labeled 1..n, numbered in
// scan order for determinism.
func rasterizeBlobs(hits []blobHit, width, height int) *container.LabelArray {
	sort.Slice(hits, func(i, j int) bool { return hits[i].resp > hits[j].resp })

	var kept []blobHit
	for _, h := range hits {
		overlaps := false
		for _, k := range kept {
			if math.Hypot(float64(h.x-k.x), float64(h.y-k.y)) < h.radius+k.radius {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, h)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].y != kept[j].y {
			return kept[i].y < kept[j].y
		}
		return kept[i].x < kept[j].x
	})

	out := container.NewLabelArray(width, height)
	for n, h := range kept {
		label := int32(n + 1)
		r := int(h.radius + 0.5)
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx*dx+dy*dy > r*r {
					continue
				}
				px, py := h.x+dx, h.y+dy
				if px < 0 || px >= width || py < 0 || py >= height {
					continue
				}
				if out.At(px, py) == 0 {
					out.Set(px, py, label)
				}
			}
		}
	}
	return out
}
