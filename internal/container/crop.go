package container

import (
	"fmt"

	"tissue-segmenter/pkg/geometry"
)

// Crop is a rectangular sub-region of a layer plus its placement within the
// parent container's coordinate space. X, Y is the top-left origin.
type Crop struct {
	Layer
	X int
	Y int
}

// Bounds returns the crop's placement rectangle in parent coordinates.
func (c *Crop) Bounds() geometry.RectInt {
	return geometry.RectInt{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}

// CropEqually splits the layer stored under key into a grid of equally-sized,
// non-overlapping tiles that exactly cover the image. Tile sizes must divide
// the image dimensions. A zero tileWidth or tileHeight selects the full
// extent along that axis, so (0, 0) yields a single whole-image crop.
// Returns the crops in row-major grid order along with their x and y origins.
func (c *Container) CropEqually(tileWidth, tileHeight int, key string) ([]*Crop, []int, []int, error) {
	layer, err := c.Layer(key)
	if err != nil {
		return nil, nil, nil, err
	}
	if tileWidth == 0 {
		tileWidth = c.width
	}
	if tileHeight == 0 {
		tileHeight = c.height
	}
	if tileWidth < 0 || tileHeight < 0 {
		return nil, nil, nil, fmt.Errorf("tile size %dx%d must be positive", tileWidth, tileHeight)
	}
	if c.width%tileWidth != 0 || c.height%tileHeight != 0 {
		return nil, nil, nil, fmt.Errorf("tile size %dx%d does not divide image %dx%d",
			tileWidth, tileHeight, c.width, c.height)
	}

	var (
		crops []*Crop
		xs    []int
		ys    []int
	)
	for y0 := 0; y0 < c.height; y0 += tileHeight {
		for x0 := 0; x0 < c.width; x0 += tileWidth {
			crops = append(crops, cropRegion(layer, x0, y0, tileWidth, tileHeight))
			xs = append(xs, x0)
			ys = append(ys, y0)
		}
	}
	return crops, xs, ys, nil
}

// CropCenter returns a width x height crop of the layer stored under key,
// centered on pixel (x, y). Regions outside the image are zero-padded, so
// the returned crop always has the requested size.
func (c *Container) CropCenter(x, y, width, height int, key string) (*Crop, error) {
	layer, err := c.Layer(key)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("crop size %dx%d must be positive", width, height)
	}
	x0 := x - width/2
	y0 := y - height/2
	return cropRegion(layer, x0, y0, width, height), nil
}

// cropRegion copies a width x height window at (x0, y0) out of the layer.
// Out-of-bounds source pixels stay zero.
func cropRegion(layer *Layer, x0, y0, width, height int) *Crop {
	out := &Crop{
		Layer: *NewLayer(layer.Name, layer.Channels, width, height, layer.Axes),
		X:     x0,
		Y:     y0,
	}
	for ch := 0; ch < layer.Channels; ch++ {
		for y := 0; y < height; y++ {
			sy := y0 + y
			if sy < 0 || sy >= layer.Height {
				continue
			}
			for x := 0; x < width; x++ {
				sx := x0 + x
				if sx < 0 || sx >= layer.Width {
					continue
				}
				out.Set(ch, x, y, layer.At(ch, sx, sy))
			}
		}
	}
	return out
}
