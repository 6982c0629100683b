package container

import (
	"fmt"
	"sort"
)

// LabelArray is an integer segmentation mask: 0 means background, each
// positive value denotes membership in one segment. Row-major storage,
// index y*Width + x.
type LabelArray struct {
	Width  int
	Height int
	Pixels []int32
}

// NewLabelArray allocates an all-background label array.
func NewLabelArray(width, height int) *LabelArray {
	return &LabelArray{
		Width:  width,
		Height: height,
		Pixels: make([]int32, width*height),
	}
}

// At returns the label at column x, row y.
func (m *LabelArray) At(x, y int) int32 {
	return m.Pixels[y*m.Width+x]
}

// Set writes the label at column x, row y.
func (m *LabelArray) Set(x, y int, v int32) {
	m.Pixels[y*m.Width+x] = v
}

// Max returns the largest label value present (0 for an empty mask).
func (m *LabelArray) Max() int32 {
	var max int32
	for _, v := range m.Pixels {
		if v > max {
			max = v
		}
	}
	return max
}

// Distinct returns the distinct positive labels present, sorted ascending.
func (m *LabelArray) Distinct() []int32 {
	seen := make(map[int32]struct{})
	for _, v := range m.Pixels {
		if v > 0 {
			seen[v] = struct{}{}
		}
	}
	out := make([]int32, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UncropLabels stitches per-tile label arrays back into one array covering
// the full width x height extent. Tile i is placed with its top-left corner
// at (xs[i], ys[i]). Tiles are assumed non-overlapping; labels must already
// be globally unique across tiles.
func UncropLabels(tiles []*LabelArray, xs, ys []int, width, height int) (*LabelArray, error) {
	if len(tiles) != len(xs) || len(tiles) != len(ys) {
		return nil, fmt.Errorf("got %d tiles but %d x-origins and %d y-origins", len(tiles), len(xs), len(ys))
	}
	out := NewLabelArray(width, height)
	for i, tile := range tiles {
		x0, y0 := xs[i], ys[i]
		if x0 < 0 || y0 < 0 || x0+tile.Width > width || y0+tile.Height > height {
			return nil, fmt.Errorf("tile %d (%dx%d at %d,%d) outside target extent %dx%d",
				i, tile.Width, tile.Height, x0, y0, width, height)
		}
		for y := 0; y < tile.Height; y++ {
			src := tile.Pixels[y*tile.Width : (y+1)*tile.Width]
			dst := out.Pixels[(y0+y)*width+x0:]
			copy(dst[:tile.Width], src)
		}
	}
	return out, nil
}
