package segment

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"tissue-segmenter/internal/container"
)

// Segment partitions the layer stored under layerKey into labeled segments
// and adds the resulting mask to img as a new layer. The only side effect is
// that one added layer, stored under params.KeyAdded or, by default,
// "segmented_" + backend. The image is tiled into equally-sized crops
// (params.TileWidth/TileHeight; whole image if unset), the backend runs per
// tile, per-tile labels are reconciled to stay globally unique, and the tiles
// are stitched back at their origins. Any tile failure aborts the whole call
// with img unmodified.
//
// modelRef identifies the concrete model within the backend: the blob method
// name ("log", "dog" or "doh") for BackendBlob, a segment.Func for
// BackendModel, unused for BackendWatershed.
func Segment(img *container.Container, layerKey, backend string, modelRef any, params Params) error {
	b, err := ParseBackend(backend)
	if err != nil {
		return err
	}
	model, err := newModel(b, modelRef, params)
	if err != nil {
		return err
	}

	crops, xs, ys, err := img.CropEqually(params.TileWidth, params.TileHeight, layerKey)
	if err != nil {
		return err
	}

	planes := make([]*container.Layer, len(crops))
	for i, crop := range crops {
		plane := &crop.Layer
		if params.Channel != nil {
			plane, err = crop.SelectChannel(*params.Channel)
			if err != nil {
				return err
			}
		}
		planes[i] = plane
	}

	masks, err := runTiles(model, planes, params.Workers)
	if err != nil {
		return err
	}

	// Renumber before merging so segments from different tiles cannot be
	// confused at the seams.
	ReconcileLabels(masks)

	shape := img.Shape()
	merged, err := container.UncropLabels(masks, xs, ys, shape.Width, shape.Height)
	if err != nil {
		return err
	}

	key := params.KeyAdded
	if key == "" {
		key = "segmented_" + b.String()
	}
	return img.AddLabels(key, merged, "mask")
}

// newModel constructs the backend variant for the parsed selector.
func newModel(b Backend, modelRef any, params Params) (Model, error) {
	switch b {
	case BackendBlob:
		method, _ := modelRef.(string)
		return NewBlobModel(method, params), nil
	case BackendWatershed:
		return NewWatershedModel(params), nil
	case BackendModel:
		return NewFuncModel(modelRef)
	default:
		return nil, fmt.Errorf("unrecognized segmentation backend %v", b)
	}
}

// runTiles invokes the model on every tile plane. Backends are pure functions
// of their input tile, so with workers > 1 the calls fan out over a bounded
// worker pool; results land in an index-addressed slice so tile order is
// preserved for the sequential reconciliation pass that follows.
func runTiles(model Model, planes []*container.Layer, workers int) ([]*container.LabelArray, error) {
	masks := make([]*container.LabelArray, len(planes))

	if workers <= 1 {
		for i, plane := range planes {
			mask, err := model.Segment(plane)
			if err != nil {
				return nil, fmt.Errorf("segmenting tile %d: %w", i, err)
			}
			masks[i] = mask
		}
		return masks, nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, plane := range planes {
		i, plane := i, plane
		g.Go(func() error {
			mask, err := model.Segment(plane)
			if err != nil {
				return fmt.Errorf("segmenting tile %d: %w", i, err)
			}
			masks[i] = mask
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return masks, nil
}
