// Package container provides the windowed image container: named multi-channel
// image layers sharing one spatial extent, with equal tiling, centered
// re-cropping, and label-mask stitching.
package container

import (
	"fmt"
	"sort"

	"tissue-segmenter/pkg/geometry"
)

// Default axis names for image and mask layers. Axis order is
// channel-major, then row (y), then column (x), everywhere.
var (
	ImageAxes = []string{"c", "y", "x"}
	MaskAxes  = []string{"mask", "y", "x"}
)

// Layer is one named multi-channel image array. Pixel data is stored
// channel-major, row-major within a channel: index (c*Height+y)*Width + x.
type Layer struct {
	Name     string
	Axes     []string
	Channels int
	Width    int
	Height   int
	Data     []float32
}

// NewLayer allocates a zeroed layer.
func NewLayer(name string, channels, width, height int, axes []string) *Layer {
	return &Layer{
		Name:     name,
		Axes:     axes,
		Channels: channels,
		Width:    width,
		Height:   height,
		Data:     make([]float32, channels*width*height),
	}
}

// At returns the value at channel c, column x, row y.
func (l *Layer) At(c, x, y int) float32 {
	return l.Data[(c*l.Height+y)*l.Width+x]
}

// Set writes the value at channel c, column x, row y.
func (l *Layer) Set(c, x, y int, v float32) {
	l.Data[(c*l.Height+y)*l.Width+x] = v
}

// Size returns the spatial extent of the layer.
func (l *Layer) Size() geometry.Size {
	return geometry.Size{Width: l.Width, Height: l.Height}
}

// SelectChannel returns a single-channel copy of the layer.
func (l *Layer) SelectChannel(idx int) (*Layer, error) {
	if idx < 0 || idx >= l.Channels {
		return nil, fmt.Errorf("channel index %d out of range [0, %d)", idx, l.Channels)
	}
	out := NewLayer(l.Name, 1, l.Width, l.Height, l.Axes)
	copy(out.Data, l.Data[idx*l.Width*l.Height:(idx+1)*l.Width*l.Height])
	return out, nil
}

// Gray returns the per-pixel mean over all channels, row-major.
func (l *Layer) Gray() []float32 {
	n := l.Width * l.Height
	out := make([]float32, n)
	if l.Channels == 1 {
		copy(out, l.Data)
		return out
	}
	for c := 0; c < l.Channels; c++ {
		plane := l.Data[c*n : (c+1)*n]
		for i, v := range plane {
			out[i] += v
		}
	}
	inv := 1 / float32(l.Channels)
	for i := range out {
		out[i] *= inv
	}
	return out
}

// Container holds named layers over one shared spatial extent. Layers are
// added, never removed; adding under an existing key replaces that layer.
type Container struct {
	width  int
	height int
	layers map[string]*Layer

	// MicronsPerPixel is the physical pixel size if known (from TIFF
	// resolution tags), 0 otherwise.
	MicronsPerPixel float64
}

// New creates an empty container with the given spatial extent.
func New(width, height int) *Container {
	return &Container{
		width:  width,
		height: height,
		layers: make(map[string]*Layer),
	}
}

// Shape returns the spatial extent shared by all layers.
// Width is the x (column) extent, Height the y (row) extent.
func (c *Container) Shape() geometry.Size {
	return geometry.Size{Width: c.width, Height: c.height}
}

// Layer returns the layer stored under key.
func (c *Container) Layer(key string) (*Layer, error) {
	l, ok := c.layers[key]
	if !ok {
		return nil, fmt.Errorf("no layer %q in container", key)
	}
	return l, nil
}

// Keys returns all layer keys, sorted.
func (c *Container) Keys() []string {
	keys := make([]string, 0, len(c.layers))
	for k := range c.layers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddLayer stores a layer under its name. The layer's spatial extent must
// match the container's.
func (c *Container) AddLayer(l *Layer) error {
	if l.Width != c.width || l.Height != c.height {
		return fmt.Errorf("layer %q shape %dx%d does not match container shape %dx%d",
			l.Name, l.Width, l.Height, c.width, c.height)
	}
	c.layers[l.Name] = l
	return nil
}

// AddLabels stores a label array as a single-channel mask layer under key.
func (c *Container) AddLabels(key string, labels *LabelArray, channel string) error {
	if channel == "" {
		channel = "mask"
	}
	layer := NewLayer(key, 1, labels.Width, labels.Height, []string{channel, "y", "x"})
	for i, v := range labels.Pixels {
		layer.Data[i] = float32(v)
	}
	return c.AddLayer(layer)
}

// Labels reads back a previously stored mask layer as a label array.
func (c *Container) Labels(key string) (*LabelArray, error) {
	l, err := c.Layer(key)
	if err != nil {
		return nil, err
	}
	if l.Channels != 1 {
		return nil, fmt.Errorf("layer %q has %d channels, want a single-channel mask", key, l.Channels)
	}
	out := NewLabelArray(l.Width, l.Height)
	for i, v := range l.Data {
		out.Pixels[i] = int32(v)
	}
	return out, nil
}
