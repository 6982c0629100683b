package segment

import (
	"fmt"

	"tissue-segmenter/internal/container"
)

// Model is the capability interface every segmentation backend implements:
// turn one image plane into a label array of the same spatial shape, with 0
// meaning background and labels 1..n numbering the segments found.
type Model interface {
	Segment(plane *container.Layer) (*container.LabelArray, error)
}

// Func is the contract for externally supplied trained models: a pure
// function from an image plane to a label array.
type Func func(plane *container.Layer) (*container.LabelArray, error)

// FuncModel wraps an externally supplied model behind the Model interface.
type FuncModel struct {
	fn Func
}

// NewFuncModel validates that ref is a callable model and wraps it. The check
// happens here, at construction, so a bad reference fails before any tile is
// processed.
func NewFuncModel(ref any) (*FuncModel, error) {
	switch fn := ref.(type) {
	case Func:
		return &FuncModel{fn: fn}, nil
	case func(*container.Layer) (*container.LabelArray, error):
		return &FuncModel{fn: fn}, nil
	default:
		return nil, fmt.Errorf("model backend requires a segment.Func, got %T", ref)
	}
}

// Segment invokes the wrapped model.
func (m *FuncModel) Segment(plane *container.Layer) (*container.LabelArray, error) {
	return m.fn(plane)
}
